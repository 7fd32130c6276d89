package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.state != StateComplete {
				m.cancelled = true
			}
			return m, tea.Quit
		case "q", "enter", "esc":
			if m.state == StateComplete {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(msg.Width-10, 10)
		return m, nil

	case countFilesMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateComplete
			return m, nil
		}
		m.totalFiles = msg.total
		m.state = StateProcessing
		return m, m.progressBar.SetPercent(m.percent())

	case eventMsg:
		m.record(msg)
		if m.state == StateProcessing {
			return m, m.progressBar.SetPercent(m.percent())
		}
		return m, nil

	case processCompleteMsg:
		m.state = StateComplete
		m.stats = msg.stats
		m.err = msg.err
		logger.Get().Info().
			Int("processed", m.processed).
			Int("moved", msg.stats.Moved).
			Int("duplicates", msg.stats.Duplicates).
			Int("errors", msg.stats.Errors).
			Msg("界面运行结束")
		return m, nil

	case spinner.TickMsg:
		if m.state == StateCounting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case progress.FrameMsg:
		model, cmd := m.progressBar.Update(msg)
		m.progressBar = model.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m *model) record(msg eventMsg) {
	m.processed++
	m.outcomes[msg.Outcome]++
	m.currentFile = msg.SourcePath

	m.recent = append(m.recent, recentItem{
		outcome: msg.Outcome,
		path:    msg.SourcePath,
		failed:  msg.Outcome == internal.OutcomeFailed,
	})
	if len(m.recent) > recentLimit {
		m.recent = m.recent[len(m.recent)-recentLimit:]
	}
}

// percent 恢复事件会让已处理数超过总数，这里截断到 1
func (m model) percent() float64 {
	if m.totalFiles <= 0 {
		return 0
	}
	return min(float64(m.processed)/float64(m.totalFiles), 1)
}
