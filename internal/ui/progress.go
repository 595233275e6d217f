// Package ui renders interactive build progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"shadersmith/internal/build"
)

type progressModel struct {
	title   string
	events  <-chan build.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	done    bool
}

type fileItem struct {
	label   string
	status  string
	stage   build.Stage
	final   bool
	elapsed time.Duration
}

type eventMsg build.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders one line per
// shader. files are absolute source paths matching Event.File; labels
// are what gets displayed for them. The model quits when events closes.
func NewProgressModel(title string, files, labels []string, events <-chan build.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		label := file
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		items = append(items, fileItem{label: label, status: "queued"})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(build.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s %s  %s", m.spinner.View(), m.title, m.tally())
	if m.done {
		header = fmt.Sprintf("done: %s  %s", m.title, m.tally())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth, timeWidth = 10, 9
	nameWidth := max(m.width-statusWidth-timeWidth-6, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		elapsed := ""
		if item.final && item.elapsed > 0 {
			elapsed = formatElapsed(item.elapsed)
		}
		fmt.Fprintf(&b, "  %s %*s  %s\n", status, timeWidth, elapsed, truncate(item.label, nameWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev build.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	if item.final && ev.Status != build.StatusError {
		return nil
	}
	if label := statusLabel(ev.Stage, ev.Status); label != "" {
		item.status = label
		item.stage = ev.Stage
	}
	item.elapsed += ev.Elapsed
	switch {
	case ev.Status == build.StatusError, ev.Status == build.StatusCached:
		item.final = true
	case ev.Status == build.StatusDone && ev.Stage == build.StageCompile:
		item.final = true
	}
	return m.prog.SetPercent(m.fraction())
}

// tally summarizes finished shaders, e.g. "2/5 built, 1 cached, 1 failed".
func (m *progressModel) tally() string {
	var finished, cached, failed int
	for _, item := range m.items {
		if !item.final {
			continue
		}
		finished++
		switch item.status {
		case "cached":
			cached++
		case "error":
			failed++
		}
	}
	out := fmt.Sprintf("%d/%d built", finished, len(m.items))
	if cached > 0 {
		out += fmt.Sprintf(", %d cached", cached)
	}
	if failed > 0 {
		out += fmt.Sprintf(", %d failed", failed)
	}
	return out
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// fraction is the overall completion in [0, 1].
func (m *progressModel) fraction() float64 {
	if len(m.items) == 0 {
		return 1
	}
	total := 0.0
	for _, item := range m.items {
		if item.final {
			total++
			continue
		}
		total += progressFromStage(item.stage)
	}
	return total / float64(len(m.items))
}

func progressFromStage(stage build.Stage) float64 {
	switch stage {
	case build.StageLookup:
		return 0.1
	case build.StageCompile:
		return 0.5
	case build.StageStore:
		return 0.9
	default:
		return 0
	}
}

func statusLabel(stage build.Stage, status build.Status) string {
	switch status {
	case build.StatusQueued:
		return "queued"
	case build.StatusCached:
		return "cached"
	case build.StatusError:
		return "error"
	case build.StatusDone:
		if stage == build.StageCompile {
			return "done"
		}
	case build.StatusWorking:
		return stageLabel(stage)
	}
	return ""
}

func stageLabel(stage build.Stage) string {
	switch stage {
	case build.StageLookup:
		return "lookup"
	case build.StageCompile:
		return "compiling"
	case build.StageStore:
		return "storing"
	}
	return ""
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done", "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "lookup", "compiling", "storing":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
