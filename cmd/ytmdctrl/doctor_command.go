package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytmdctrl/internal/preflight"
	"ytmdctrl/internal/ytmd"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the token file, the server, and the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			client := ytmd.NewClient(cfg.Identity().BaseURL(),
				ytmd.WithRequestTimeout(cfg.RequestTimeout()),
				ytmd.WithLimiter(ytmd.NewLimiter(cfg.HTTP.RequestsPerSecond)),
				ytmd.WithLogger(logger.Named("ytmd")),
			)

			results := preflight.RunAll(cmd.Context(), cfg, store, client)
			if ctx.scriptMode(cmd) {
				if err := ctx.writeScript(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				st := newStyles(out)
				for _, r := range results {
					fmt.Fprintln(out, renderCheck(r, st))
				}
			}

			failed := 0
			for _, r := range results {
				if !r.Passed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			return nil
		},
	}
}

func renderCheck(r preflight.Result, st styles) string {
	status := st.selected.Render("[OK]  ")
	if !r.Passed {
		status = st.failed.Render("[FAIL]")
	}
	return fmt.Sprintf("  %s %s %s", status, st.label.Render(fmt.Sprintf("%-*s", stateLabelWidth, r.Name+":")), r.Detail)
}
