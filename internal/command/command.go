package command

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
)

// ErrInvalidArgument marks a command whose arguments cannot be sent.
var ErrInvalidArgument = errors.New("invalid command argument")

// Kind identifies one CLI command.
type Kind int

const (
	PlayPause Kind = iota
	Play
	Pause
	VolumeUp
	VolumeDown
	Volume
	Mute
	Unmute
	Seek
	Next
	Previous
	RepeatNone
	RepeatAll
	RepeatSingle
	Shuffle
	JumpTo
	Like
	Dislike
	Open
	State
	Playlists
)

type definition struct {
	kind    Kind
	name    string
	wire    string
	method  string
	path    string
	data    any
	confirm bool
	summary string
}

var definitions = []definition{
	{kind: PlayPause, name: "play-pause", wire: "playPause", summary: "Toggle between play and pause"},
	{kind: Play, name: "play", wire: "play", summary: "Resume playback"},
	{kind: Pause, name: "pause", wire: "pause", summary: "Pause playback"},
	{kind: VolumeUp, name: "volume-up", wire: "volumeUp", summary: "Raise the volume one step"},
	{kind: VolumeDown, name: "volume-down", wire: "volumeDown", summary: "Lower the volume one step"},
	{kind: Volume, name: "volume", wire: "setVolume", confirm: true, summary: "Set the volume (0-100)"},
	{kind: Mute, name: "mute", wire: "mute", summary: "Mute the player"},
	{kind: Unmute, name: "unmute", wire: "unmute", summary: "Unmute the player"},
	{kind: Seek, name: "seek", wire: "seekTo", confirm: true, summary: "Seek to a position in the current track"},
	{kind: Next, name: "next", wire: "next", summary: "Skip to the next track"},
	{kind: Previous, name: "previous", wire: "previous", summary: "Go back to the previous track"},
	{kind: RepeatNone, name: "repeat-none", wire: "repeatMode", data: 0, summary: "Turn repeat off"},
	{kind: RepeatAll, name: "repeat-all", wire: "repeatMode", data: 1, summary: "Repeat the whole queue"},
	{kind: RepeatSingle, name: "repeat-single", wire: "repeatMode", data: 2, summary: "Repeat the current track"},
	{kind: Shuffle, name: "shuffle", wire: "shuffle", summary: "Shuffle the queue"},
	{kind: JumpTo, name: "jumpto", wire: "playQueueIndex", summary: "Play the queue item at an index"},
	{kind: Like, name: "like", wire: "toggleLike", summary: "Toggle like on the current track"},
	{kind: Dislike, name: "dislike", wire: "toggleDislike", summary: "Toggle dislike on the current track"},
	{kind: Open, name: "open", wire: "changeVideo", summary: "Play a video and/or playlist"},
	{kind: State, name: "state", method: http.MethodGet, path: "/state", summary: "Show the player state"},
	{kind: Playlists, name: "playlists", method: http.MethodGet, path: "/playlists", summary: "List the user's playlists"},
}

func lookupDefinition(k Kind) (definition, bool) {
	if k < 0 || int(k) >= len(definitions) {
		return definition{}, false
	}
	return definitions[k], true
}

func (k Kind) String() string {
	if def, ok := lookupDefinition(k); ok {
		return def.name
	}
	return fmt.Sprintf("command(%d)", int(k))
}

// Summary is the one-line help text for k.
func (k Kind) Summary() string {
	def, _ := lookupDefinition(k)
	return def.summary
}

// Wire is the server-side name for k, or the endpoint path for reads.
func (k Kind) Wire() string {
	def, _ := lookupDefinition(k)
	if def.wire != "" {
		return def.wire
	}
	return strings.TrimPrefix(def.path, "/")
}

// IsRead reports whether k reads data instead of changing the player.
func (k Kind) IsRead() bool {
	def, _ := lookupDefinition(k)
	return def.wire == ""
}

// Kinds returns every command in display order.
func Kinds() []Kind {
	out := make([]Kind, len(definitions))
	for i, def := range definitions {
		out[i] = def.kind
	}
	return out
}

// Lookup finds a command by its CLI name.
func Lookup(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, def := range definitions {
		if def.name == name {
			return def.kind, true
		}
	}
	return 0, false
}

// Command is one parsed CLI command with its arguments. Only the fields
// relevant to Kind are read.
type Command struct {
	Kind       Kind
	Volume     int
	Position   float64
	Index      int
	VideoID    string
	PlaylistID string
}

func invalid(kind Kind, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", kind, fmt.Sprintf(format, args...), ErrInvalidArgument)
}

func validate(cmd Command) error {
	switch cmd.Kind {
	case Volume:
		if cmd.Volume < 0 || cmd.Volume > 100 {
			return invalid(cmd.Kind, "volume %d outside 0-100", cmd.Volume)
		}
	case Seek:
		if math.IsNaN(cmd.Position) || math.IsInf(cmd.Position, 0) || cmd.Position < 0 {
			return invalid(cmd.Kind, "position must be a non-negative number of seconds")
		}
	case JumpTo:
		if cmd.Index < 0 {
			return invalid(cmd.Kind, "queue index %d is negative", cmd.Index)
		}
	case Open:
		if strings.TrimSpace(cmd.VideoID) == "" && strings.TrimSpace(cmd.PlaylistID) == "" {
			return invalid(cmd.Kind, "a video id or a playlist id is required")
		}
	}
	return nil
}
