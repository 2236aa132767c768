package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"ytmdctrl/internal/ytmd"
)

type changeVideo struct {
	VideoID    *string `json:"videoId"`
	PlaylistID *string `json:"playlistId"`
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// BuildRequest maps cmd onto the wire request the server expects.
func BuildRequest(cmd Command) (ytmd.CommandRequest, error) {
	def, ok := lookupDefinition(cmd.Kind)
	if !ok {
		return ytmd.CommandRequest{}, fmt.Errorf("unknown command %d: %w", int(cmd.Kind), ErrInvalidArgument)
	}
	if err := validate(cmd); err != nil {
		return ytmd.CommandRequest{}, err
	}

	req := ytmd.CommandRequest{
		Name:    def.wire,
		Method:  def.method,
		Path:    def.path,
		Data:    def.data,
		Confirm: def.confirm,
	}
	switch cmd.Kind {
	case Volume:
		req.Data = cmd.Volume
	case Seek:
		req.Data = cmd.Position
	case JumpTo:
		req.Data = cmd.Index
	case Open:
		req.Data = changeVideo{VideoID: optional(cmd.VideoID), PlaylistID: optional(cmd.PlaylistID)}
	}
	return req, nil
}

// Result is the validated outcome of one command.
type Result struct {
	Command   Kind
	Volume    *int
	Position  *float64
	State     *ytmd.State
	Playlists []ytmd.Playlist
}

// Interpret checks resp against what cmd must produce and extracts the
// command's result.
func Interpret(cmd Command, resp ytmd.CommandResponse) (Result, error) {
	if _, ok := lookupDefinition(cmd.Kind); !ok {
		return Result{}, fmt.Errorf("unknown command %d: %w", int(cmd.Kind), ErrInvalidArgument)
	}
	op := cmd.Kind.Wire()
	if !resp.OK {
		return Result{}, &ytmd.CommandError{Op: op, Status: resp.Status, Message: "request was not acknowledged"}
	}

	result := Result{Command: cmd.Kind}
	switch cmd.Kind {
	case Volume:
		state, err := decodeState(op, resp)
		if err != nil {
			return Result{}, err
		}
		if state.Player == nil || state.Player.Volume == nil {
			return Result{}, &ytmd.ProtocolError{Op: op, Status: resp.Status, Detail: "confirmation does not report the player volume"}
		}
		result.Volume = state.Player.Volume
		result.State = state
	case Seek:
		state, err := decodeState(op, resp)
		if err != nil {
			return Result{}, err
		}
		if state.Player == nil || state.Player.VideoProgress == nil {
			return Result{}, &ytmd.ProtocolError{Op: op, Status: resp.Status, Detail: "confirmation does not report the playback position"}
		}
		result.Position = state.Player.VideoProgress
		result.State = state
	case State:
		state, err := decodeState(op, resp)
		if err != nil {
			return Result{}, err
		}
		if state.Player == nil {
			return Result{}, &ytmd.ProtocolError{Op: op, Status: resp.Status, Detail: "state has no player section"}
		}
		result.State = state
	case Playlists:
		playlists, err := decodePlaylists(op, resp)
		if err != nil {
			return Result{}, err
		}
		result.Playlists = playlists
	}
	return result, nil
}

func decodeState(op string, resp ytmd.CommandResponse) (*ytmd.State, error) {
	payload := bytes.TrimSpace(resp.Payload)
	if len(payload) == 0 {
		return nil, &ytmd.ProtocolError{Op: op, Status: resp.Status, Detail: "empty state"}
	}
	var state ytmd.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, &ytmd.ProtocolError{Op: op, Status: resp.Status, Err: err}
	}
	return &state, nil
}

func decodePlaylists(op string, resp ytmd.CommandResponse) ([]ytmd.Playlist, error) {
	payload := bytes.TrimSpace(resp.Payload)
	if len(payload) == 0 {
		return nil, &ytmd.ProtocolError{Op: op, Status: resp.Status, Detail: "empty playlist list"}
	}
	var playlists []ytmd.Playlist
	if err := json.Unmarshal(payload, &playlists); err != nil {
		return nil, &ytmd.ProtocolError{Op: op, Status: resp.Status, Err: err}
	}
	for i, p := range playlists {
		if strings.TrimSpace(p.ID) == "" {
			return nil, &ytmd.ProtocolError{Op: op, Status: resp.Status, Detail: fmt.Sprintf("playlist %d has no id", i)}
		}
	}
	if playlists == nil {
		playlists = []ytmd.Playlist{}
	}
	return playlists, nil
}
