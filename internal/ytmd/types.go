package ytmd

import "encoding/json"

// AppInfo identifies this client to the server during authorization.
type AppInfo struct {
	ID      string `json:"appId"`
	Name    string `json:"appName"`
	Version string `json:"appVersion"`
}

// CommandRequest is one request sent over a session.
type CommandRequest struct {
	// Name is the server command name (e.g. "setVolume"). Empty for reads.
	Name string
	// Method and Path select the endpoint relative to /api/v1.
	Method string
	Path   string
	// Data is the optional command argument, encoded as the "data" field.
	Data any
	// Confirm asks the session to read back player state after the command
	// succeeds and return it as the response payload.
	Confirm bool
}

type commandBody struct {
	Command string `json:"command"`
	Data    any    `json:"data,omitempty"`
}

// CommandResponse is the server's answer to a CommandRequest.
type CommandResponse struct {
	OK      bool
	Status  int
	Payload json.RawMessage
}

// Metadata is the unauthenticated server description at /metadata.
type Metadata struct {
	APIVersions []string `json:"apiVersions"`
}

// Supports reports whether the server advertises the given API version.
func (m Metadata) Supports(version string) bool {
	for _, v := range m.APIVersions {
		if v == version {
			return true
		}
	}
	return false
}

// TrackState is the player's playback state.
type TrackState int

const (
	TrackUnknown   TrackState = -1
	TrackPaused    TrackState = 0
	TrackPlaying   TrackState = 1
	TrackBuffering TrackState = 2
)

func (s TrackState) String() string {
	switch s {
	case TrackPaused:
		return "paused"
	case TrackPlaying:
		return "playing"
	case TrackBuffering:
		return "buffering"
	default:
		return "unknown"
	}
}

// RepeatMode is the queue repeat setting.
type RepeatMode int

const (
	RepeatUnknown RepeatMode = -1
	RepeatNone    RepeatMode = 0
	RepeatAll     RepeatMode = 1
	RepeatOne     RepeatMode = 2
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// LikeStatus is the rating of the current video.
type LikeStatus int

const (
	LikeUnknown     LikeStatus = -1
	LikeDislike     LikeStatus = 0
	LikeIndifferent LikeStatus = 1
	LikeLike        LikeStatus = 2
)

func (l LikeStatus) String() string {
	switch l {
	case LikeDislike:
		return "disliked"
	case LikeIndifferent:
		return "indifferent"
	case LikeLike:
		return "liked"
	default:
		return "unknown"
	}
}

// VideoType distinguishes songs, videos, uploads, and podcasts.
type VideoType int

const (
	VideoUnknown  VideoType = -1
	VideoAudio    VideoType = 0
	VideoVideo    VideoType = 1
	VideoUploaded VideoType = 2
	VideoPodcast  VideoType = 3
)

func (v VideoType) String() string {
	switch v {
	case VideoAudio:
		return "audio"
	case VideoVideo:
		return "video"
	case VideoUploaded:
		return "uploaded"
	case VideoPodcast:
		return "podcast"
	default:
		return "unknown"
	}
}

// State is the body of GET /api/v1/state.
type State struct {
	Player     *PlayerState `json:"player" yaml:"player"`
	Video      *VideoState  `json:"video" yaml:"video"`
	PlaylistID string       `json:"playlistId" yaml:"playlistId"`
}

// PlayerState fields the client relies on are pointers so a missing field can
// be told apart from a zero value.
type PlayerState struct {
	TrackState    TrackState  `json:"trackState" yaml:"trackState"`
	VideoProgress *float64    `json:"videoProgress" yaml:"videoProgress"`
	Volume        *int        `json:"volume" yaml:"volume"`
	Muted         bool        `json:"muted,omitempty" yaml:"muted,omitempty"`
	AdPlaying     bool        `json:"adPlaying" yaml:"adPlaying"`
	Queue         *QueueState `json:"queue" yaml:"queue"`
}

type QueueState struct {
	Autoplay          bool        `json:"autoplay" yaml:"autoplay"`
	Items             []QueueItem `json:"items" yaml:"items"`
	AutomixItems      []QueueItem `json:"automixItems" yaml:"automixItems"`
	IsGenerating      bool        `json:"isGenerating" yaml:"isGenerating"`
	IsInfinite        bool        `json:"isInfinite" yaml:"isInfinite"`
	RepeatMode        RepeatMode  `json:"repeatMode" yaml:"repeatMode"`
	SelectedItemIndex int         `json:"selectedItemIndex" yaml:"selectedItemIndex"`
}

type QueueItem struct {
	Thumbnails   []Thumbnail `json:"thumbnails" yaml:"thumbnails"`
	Title        string      `json:"title" yaml:"title"`
	Author       string      `json:"author" yaml:"author"`
	Duration     string      `json:"duration" yaml:"duration"`
	Selected     bool        `json:"selected" yaml:"selected"`
	VideoID      string      `json:"videoId" yaml:"videoId"`
	Counterparts []QueueItem `json:"counterparts,omitempty" yaml:"counterparts,omitempty"`
}

type VideoState struct {
	Author          string      `json:"author" yaml:"author"`
	ChannelID       string      `json:"channelId" yaml:"channelId"`
	Title           string      `json:"title" yaml:"title"`
	Album           *string     `json:"album" yaml:"album"`
	AlbumID         *string     `json:"albumId" yaml:"albumId"`
	LikeStatus      *LikeStatus `json:"likeStatus" yaml:"likeStatus"`
	Thumbnails      []Thumbnail `json:"thumbnails" yaml:"thumbnails"`
	DurationSeconds float64     `json:"durationSeconds" yaml:"durationSeconds"`
	ID              string      `json:"id" yaml:"id"`
	IsLive          *bool       `json:"isLive" yaml:"isLive"`
	VideoType       *VideoType  `json:"videoType" yaml:"videoType"`
	MetadataFilled  *bool       `json:"metadataFilled" yaml:"metadataFilled"`
}

type Thumbnail struct {
	URL    string `json:"url" yaml:"url"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// Playlist is one entry of GET /api/v1/playlists.
type Playlist struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}
