package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ytmdctrl/internal/command"
	"ytmdctrl/internal/ytmd"
)

type volumeOutput struct {
	Volume int `json:"volume" yaml:"volume"`
}

type positionOutput struct {
	Position float64 `json:"position" yaml:"position"`
}

type playlistsOutput struct {
	Playlists []ytmd.Playlist `json:"playlists" yaml:"playlists"`
}

// render prints the result of a control command. Fire-and-forget commands
// print nothing on success.
func (c *commandContext) render(cmd *cobra.Command, result command.Result) error {
	script := c.scriptMode(cmd)
	out := cmd.OutOrStdout()

	switch result.Command {
	case command.State:
		if script {
			return c.writeScript(cmd, result.State)
		}
		fmt.Fprint(out, renderState(result.State, newStyles(out)))
	case command.Playlists:
		if script {
			return c.writeScript(cmd, playlistsOutput{Playlists: result.Playlists})
		}
		fmt.Fprintln(out, renderPlaylists(result.Playlists))
	case command.Volume:
		if result.Volume == nil {
			return nil
		}
		if script {
			return c.writeScript(cmd, volumeOutput{Volume: *result.Volume})
		}
		fmt.Fprintf(out, "Volume %d\n", *result.Volume)
	case command.Seek:
		if result.Position == nil {
			return nil
		}
		if script {
			return c.writeScript(cmd, positionOutput{Position: *result.Position})
		}
		fmt.Fprintf(out, "Position %s\n", formatSeconds(*result.Position))
	}
	return nil
}

func (c *commandContext) writeScript(cmd *cobra.Command, v any) error {
	if c.format() == formatYAML {
		return writeYAML(cmd, v)
	}
	return writeJSON(cmd, v)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// formatSeconds renders a position as m:ss, or h:mm:ss past an hour.
func formatSeconds(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "-:--"
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
