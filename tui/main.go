// Package tui 在终端中实时显示一次运行的处理进度。
//
// 界面只消费账本事件，不参与文件处理；运行本身在独立的 goroutine 中进行。
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
)

// ErrAborted 用户在运行结束前退出了界面
var ErrAborted = errors.New("用户中止")

type Config struct {
	Title string
	// Count 统计待处理的文件数，用于计算进度
	Count func() (int, error)
	// Events 运行产生的事件，Work 返回后必须被关闭
	Events <-chan ledger.Event
	Work   func(ctx context.Context) (internal.RunStats, error)
}

type outcome struct {
	stats internal.RunStats
	err   error
}

// Run 显示进度界面并执行 Work，返回 Work 的结果
// 用户按 Ctrl+C 时取消 Work 的 context，并等待它返回
func Run(ctx context.Context, cfg Config) (internal.RunStats, error) {
	logger.Get().Info().Msg("启动 TUI 界面")

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(initialModel(cfg.Title), tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan outcome, 1)
	go func() {
		total, err := cfg.Count()
		p.Send(countFilesMsg{total: total, err: err})
		if err != nil {
			done <- outcome{err: err}
			return
		}

		go func() {
			for ev := range cfg.Events {
				p.Send(eventMsg(ev))
			}
		}()

		stats, err := cfg.Work(workCtx)
		done <- outcome{stats: stats, err: err}
		p.Send(processCompleteMsg{stats: stats, err: err})
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Get().Error().Err(err).Msg("TUI 运行错误")
	}

	m, _ := final.(model)
	if m.cancelled {
		cancel()
	}
	res := <-done

	if m.cancelled {
		logger.Get().Warn().Msg("用户中止运行")
		if res.err == nil {
			res.err = ErrAborted
		}
	} else {
		logger.Get().Info().Msg("TUI 正常退出")
	}
	return res.stats, res.err
}
