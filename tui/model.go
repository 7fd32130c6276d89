package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
)

type State int

const (
	StateCounting State = iota
	StateProcessing
	StateComplete
)

// recentLimit 最近事件列表的长度
const recentLimit = 6

type model struct {
	title       string
	state       State
	width       int
	totalFiles  int
	processed   int
	outcomes    map[internal.Outcome]int
	currentFile string
	recent      []recentItem
	stats       internal.RunStats
	progressBar progress.Model
	spinner     spinner.Model
	err         error
	// cancelled 为 true 表示用户在运行结束前按了 Ctrl+C
	cancelled bool
}

type recentItem struct {
	outcome internal.Outcome
	path    string
	failed  bool
}

func initialModel(title string) model {
	progressBar := progress.New(progress.WithDefaultGradient())
	progressBar.PercentageStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Width(4)

	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		title:       title,
		state:       StateCounting,
		width:       80,
		outcomes:    make(map[internal.Outcome]int),
		progressBar: progressBar,
		spinner:     s,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}
