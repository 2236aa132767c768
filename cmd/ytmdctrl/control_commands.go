package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ytmdctrl/internal/command"
)

func newControlCommands(ctx *commandContext) []*cobra.Command {
	kinds := command.Kinds()
	cmds := make([]*cobra.Command, 0, len(kinds))
	for _, kind := range kinds {
		cmds = append(cmds, newControlCommand(ctx, kind))
	}
	return cmds
}

func newControlCommand(ctx *commandContext, kind command.Kind) *cobra.Command {
	var videoID string
	var playlistID string

	cmd := &cobra.Command{
		Use:   kind.String(),
		Short: kind.Summary(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseCommand(kind, args, videoID, playlistID)
			if err != nil {
				return err
			}
			return ctx.execute(cmd, parsed)
		},
	}

	switch kind {
	case command.Volume:
		cmd.Use = "volume LEVEL"
		cmd.Args = cobra.ExactArgs(1)
	case command.Seek:
		cmd.Use = "seek POSITION"
		cmd.Long = "Seek to POSITION in the current track. POSITION is a number of seconds,\n" +
			"a Go duration such as 1m30s, or minutes and seconds such as 1:30."
		cmd.Args = cobra.ExactArgs(1)
	case command.JumpTo:
		cmd.Use = "jumpto INDEX"
		cmd.Long = "Play the queue item at INDEX (0-based, as listed by `ytmdctrl state`)."
		cmd.Args = cobra.ExactArgs(1)
	case command.Open:
		cmd.Use = "open [VIDEO_ID]"
		cmd.Args = cobra.MaximumNArgs(1)
		cmd.Flags().StringVar(&videoID, "video", "", "Video ID to play")
		cmd.Flags().StringVarP(&playlistID, "playlist", "l", "", "Playlist ID to play")
	}
	return cmd
}

// parseCommand turns positional arguments into a command value. Range checks
// beyond syntax are left to the dispatcher.
func parseCommand(kind command.Kind, args []string, videoID, playlistID string) (command.Command, error) {
	cmd := command.Command{Kind: kind}
	switch kind {
	case command.Volume:
		level, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return cmd, fmt.Errorf("volume %q: expected an integer between 0 and 100: %w", args[0], command.ErrInvalidArgument)
		}
		cmd.Volume = level
	case command.Seek:
		position, err := parsePosition(args[0])
		if err != nil {
			return cmd, err
		}
		cmd.Position = position
	case command.JumpTo:
		index, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return cmd, fmt.Errorf("index %q: expected a non-negative integer: %w", args[0], command.ErrInvalidArgument)
		}
		cmd.Index = index
	case command.Open:
		cmd.VideoID = strings.TrimSpace(videoID)
		cmd.PlaylistID = strings.TrimSpace(playlistID)
		if len(args) == 1 {
			if cmd.VideoID != "" {
				return cmd, fmt.Errorf("video given both as argument and --video: %w", command.ErrInvalidArgument)
			}
			cmd.VideoID = strings.TrimSpace(args[0])
		}
	}
	return cmd, nil
}

// parsePosition accepts seconds, a Go duration, or m:ss.
func parsePosition(value string) (float64, error) {
	value = strings.TrimSpace(value)
	invalid := fmt.Errorf("position %q: expected seconds, a duration like 1m30s, or m:ss: %w", value, command.ErrInvalidArgument)

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return seconds, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d.Seconds(), nil
	}
	minutes, rest, ok := strings.Cut(value, ":")
	if !ok {
		return 0, invalid
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 {
		return 0, invalid
	}
	s, err := strconv.ParseFloat(rest, 64)
	if err != nil || s < 0 || s >= 60 || math.IsNaN(s) {
		return 0, invalid
	}
	return float64(m)*60 + s, nil
}

// execute runs one control command against the configured server and renders
// its result.
func (c *commandContext) execute(cmd *cobra.Command, parsed command.Command) error {
	id, err := c.identity()
	if err != nil {
		return err
	}
	store, err := c.openStore()
	if err != nil {
		return err
	}
	stack, err := c.stack(cmd, store)
	if err != nil {
		return err
	}
	outcome, err := stack.Controller.Execute(cmd.Context(), id, parsed)
	if err != nil {
		return err
	}
	return c.render(cmd, outcome.Result)
}
