package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"qir/internal/driver"
)

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	done    bool
}

type fileItem struct {
	path   string
	status string
	stage  driver.Stage
	final  bool
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-file progress
// until events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: "queued"})
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
		cmd := m.applyEvent(driver.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
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
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = "done: " + header
	} else {
		header = fmt.Sprintf("%s %s (%d/%d)", m.spinner.View(), header, m.finished(), len(m.items))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(item.path, nameWidth))
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

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	if item.final && ev.Status == driver.StatusQueued {
		return nil
	}
	item.status = statusLabel(ev.Stage, ev.Status)
	item.stage = ev.Stage
	item.final = ev.Status == driver.StatusDone || ev.Status == driver.StatusError || ev.Status == driver.StatusCached
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) finished() int {
	n := 0
	for _, item := range m.items {
		if item.final {
			n++
		}
	}
	return n
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		if item.final {
			total++
		} else {
			total += progressFromStage(item.stage)
		}
	}
	return total / float64(len(m.items))
}

func progressFromStage(stage driver.Stage) float64 {
	switch stage {
	case driver.StageParse:
		return 0.1
	case driver.StageAddress:
		return 0.3
	case driver.StageNoCloning:
		return 0.7
	case driver.StageSchedule:
		return 0.9
	default:
		return 0.0
	}
}

func statusLabel(stage driver.Stage, status driver.Status) string {
	switch status {
	case driver.StatusDone:
		return "done"
	case driver.StatusError:
		return "error"
	case driver.StatusCached:
		return "cached"
	case driver.StatusWorking:
		return stage.String()
	default:
		return "queued"
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done", "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "queued":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
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
	return runewidth.Truncate(value, width-3, "...")
}
