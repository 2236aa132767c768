package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ytmdctrl/internal/credstore"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored server authorizations",
	}

	authCmd.AddCommand(newAuthLoginCommand(ctx))
	authCmd.AddCommand(newAuthForgetCommand(ctx))
	authCmd.AddCommand(newAuthListCommand(ctx))

	return authCmd
}

func newAuthLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Request a new authorization from the server",
		Long: "Request a new token from the server even if one is already stored.\n" +
			"The stored token is replaced only once the new request is approved.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ctx.identity()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			stack, err := ctx.stack(cmd, store)
			if err != nil {
				return err
			}
			if _, err := stack.Engine.Run(cmd.Context(), id); err != nil {
				return err
			}
			return nil
		},
	}
}

func newAuthForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Remove the stored token for the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ctx.identity()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, ok := store.Get(id); !ok {
				fmt.Fprintf(out, "No token stored for %s\n", id)
				return nil
			}
			if err := store.Clear(id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed token for %s\n", id)
			return nil
		},
	}
}

type credentialOutput struct {
	Server   string    `json:"server" yaml:"server"`
	Token    string    `json:"token" yaml:"token"`
	IssuedAt time.Time `json:"issued_at,omitzero" yaml:"issued_at,omitempty"`
}

func newAuthListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List servers with a stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			creds := store.List()
			if ctx.scriptMode(cmd) {
				out := make([]credentialOutput, 0, len(creds))
				for _, cred := range creds {
					out = append(out, credentialOutput{
						Server:   cred.Identity.Key(),
						Token:    maskToken(cred.Token),
						IssuedAt: cred.IssuedAt,
					})
				}
				return ctx.writeScript(cmd, out)
			}
			if len(creds) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No tokens stored in %s\n", store.Path())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCredentials(creds))
			return nil
		},
	}
}

func renderCredentials(creds []credstore.Credential) string {
	rows := make([][]string, 0, len(creds))
	for _, cred := range creds {
		issued := "unknown"
		if !cred.IssuedAt.IsZero() {
			issued = cred.IssuedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{cred.Identity.Key(), issued, maskToken(cred.Token)})
	}
	return renderTable([]string{"Server", "Issued", "Token"}, rows)
}

// maskToken keeps a short prefix so tokens can be told apart without
// revealing them.
func maskToken(token string) string {
	const visible = 4
	if len(token) <= visible {
		return strings.Repeat("*", len(token))
	}
	return token[:visible] + strings.Repeat("*", 8)
}
