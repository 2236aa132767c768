package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ytmdctrl/internal/identity"
	"ytmdctrl/internal/ytmd"
)

const stateLabelWidth = 10

type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	dim      lipgloss.Style
	selected lipgloss.Style
	failed   lipgloss.Style
	code     lipgloss.Style
}

// newStyles binds the palette to w so color is dropped when w is not a
// terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		label:    r.NewStyle().Foreground(lipgloss.Color("243")),
		dim:      r.NewStyle().Foreground(lipgloss.Color("240")),
		selected: r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		failed:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		code:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
	}
}

func titleCase(value string) string {
	return cases.Title(language.English).String(value)
}

func renderState(state *ytmd.State, st styles) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", st.label.Render(fmt.Sprintf("%-*s", stateLabelWidth, label)), value)
	}

	player := state.Player
	video := state.Video
	if player == nil || video == nil || video.ID == "" {
		status := "Stopped"
		if player != nil {
			status = titleCase(player.TrackState.String())
		}
		line("Status", status)
		b.WriteString("Nothing is playing\n")
		return b.String()
	}

	status := titleCase(player.TrackState.String())
	if player.AdPlaying {
		status += " (ad)"
	}
	line("Status", status)
	line("Title", st.title.Render(video.Title))
	if video.Author != "" {
		line("Artist", video.Author)
	}
	if video.Album != nil && *video.Album != "" {
		line("Album", *video.Album)
	}
	if video.LikeStatus != nil && *video.LikeStatus != ytmd.LikeIndifferent {
		line("Rating", titleCase(video.LikeStatus.String()))
	}

	progress := "-:--"
	if player.VideoProgress != nil {
		progress = formatSeconds(*player.VideoProgress)
	}
	if video.IsLive != nil && *video.IsLive {
		line("Progress", progress+" (live)")
	} else {
		line("Progress", progress+" / "+formatSeconds(video.DurationSeconds))
	}

	if player.Volume != nil {
		volume := strconv.Itoa(*player.Volume)
		if player.Muted {
			volume += " (muted)"
		}
		line("Volume", volume)
	}

	queue := player.Queue
	if queue == nil {
		return b.String()
	}
	line("Repeat", titleCase(queue.RepeatMode.String()))
	// Automix items continue the queue numbering; jumpto takes that index.
	width := len(strconv.Itoa(max(len(queue.Items)+len(queue.AutomixItems)-1, 0)))
	if len(queue.Items) > 0 {
		b.WriteString(st.label.Render("Queue") + "\n")
		writeQueueItems(&b, queue.Items, 0, width, queue.SelectedItemIndex, st)
	}
	if len(queue.AutomixItems) > 0 {
		b.WriteString(st.label.Render("Automix") + "\n")
		writeQueueItems(&b, queue.AutomixItems, len(queue.Items), width, -1, st)
	}
	return b.String()
}

func writeQueueItems(b *strings.Builder, items []ytmd.QueueItem, start, width, selected int, st styles) {
	for i, item := range items {
		entry := fmt.Sprintf("%*d  %s", width, start+i, item.Title)
		if item.Author != "" {
			entry += st.dim.Render(" - " + item.Author)
		}
		if item.Duration != "" {
			entry += st.dim.Render(" (" + item.Duration + ")")
		}
		if i == selected || (selected < 0 && item.Selected) {
			fmt.Fprintf(b, "%s %s\n", st.selected.Render(">"), entry)
			continue
		}
		fmt.Fprintf(b, "  %s\n", entry)
	}
}

func renderPlaylists(playlists []ytmd.Playlist) string {
	if len(playlists) == 0 {
		return "No playlists"
	}
	rows := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		rows = append(rows, []string{p.Title, p.ID})
	}
	return renderTable([]string{"Title", "ID"}, rows)
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// prompter reports handshake progress on stderr.
type prompter struct {
	out io.Writer
	st  styles
}

func newPrompter(out io.Writer) *prompter {
	return &prompter{out: out, st: newStyles(out)}
}

func (p *prompter) code(id identity.ServerIdentity, code string) {
	fmt.Fprintf(p.out, "Authorization requested from %s.\n", id)
	fmt.Fprintf(p.out, "Confirm that YouTube Music Desktop shows the code %s, then approve the request.\n", p.st.code.Render(code))
}

func (p *prompter) authorized(id identity.ServerIdentity) {
	fmt.Fprintf(p.out, "Authorized with %s.\n", id)
}
