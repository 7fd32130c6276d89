package organizer

import (
	"context"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/hasher"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/progress"
)

func (r *run) openJournal(ctx context.Context) {
	if err := r.fs.MkdirAll(r.destDir, 0755); err != nil {
		logger.Get().Warn().Err(err).Str("path", r.destDir).Msg("无法创建目标目录，本次运行不记录移动日志")
		return
	}
	j, err := progress.Open(r.fs, r.destDir)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("无法打开移动日志，本次运行不记录移动日志")
		return
	}
	r.journal = j
	r.reconcile(ctx)
}

func (r *run) closeJournal() {
	if r.journal == nil {
		return
	}
	if err := r.journal.Close(); err != nil {
		logger.Get().Warn().Err(err).Msg("关闭移动日志失败")
	}
}

// reconcile 对照磁盘状态结清上次运行遗留的移动
//
//	源不在、目标在：移动已完成但未记账，补记 recovered
//	源在、目标不在：移动没有发生，文件会在本次运行中重新处理
//	两者都在且内容相同：复制已完成但源文件未删除，删除源文件并补记
//	两者都在且内容不同：复制被中断时删除不完整的目标；rename 是原子的，
//	  没有开始复制说明目标就是移动完成的文件，补记后源目录中的新文件照常处理
//	两者都不在：无法恢复，只记录警告
func (r *run) reconcile(ctx context.Context) {
	leftover := r.journal.Leftover()
	if len(leftover) == 0 {
		return
	}

	h := hasher.New(r.fs)
	for _, m := range leftover {
		srcExists, _ := afero.Exists(r.fs, m.Src)
		dstExists, _ := afero.Exists(r.fs, m.Dst)

		switch {
		case !srcExists && dstExists:
			r.recovered(ctx, m)

		case srcExists && dstExists:
			srcSum, err1 := h.Digest(m.Src)
			dstSum, err2 := h.Digest(m.Dst)
			if err1 == nil && err2 == nil && srcSum == dstSum {
				if err := r.fs.Remove(m.Src); err != nil {
					logger.Get().Warn().Err(err).Str("path", m.Src).Msg("无法删除已复制的源文件")
					continue
				}
				r.recovered(ctx, m)
			} else if r.journal.Copying(m) {
				logger.Get().Warn().Str("path", m.Dst).Msg("删除不完整的目标文件")
				if err := r.fs.Remove(m.Dst); err != nil {
					logger.Get().Warn().Err(err).Str("path", m.Dst).Msg("删除不完整的目标文件失败")
					continue
				}
			} else {
				r.recovered(ctx, m)
			}

		case srcExists:
			logger.Get().Debug().Str("path", m.Src).Msg("上次运行未执行的移动，将重新处理")

		default:
			logger.Get().Warn().Str("source", m.Src).Str("destination", m.Dst).Msg("源文件和目标文件都不存在，无法恢复")
		}

		if err := r.journal.Commit(m.Src, m.Dst); err != nil {
			logger.Get().Warn().Err(err).Msg("写入移动日志失败")
		}
	}
}

func (r *run) recovered(ctx context.Context, m progress.Move) {
	r.stats.Recovered++
	var size int64
	if info, err := r.fs.Stat(m.Dst); err == nil {
		size = info.Size()
	}
	logger.Get().Info().Str("source", m.Src).Str("destination", m.Dst).Msg("补记上次运行中断的移动")
	r.record(ctx, ledger.Event{
		RunID:           r.id,
		SourcePath:      m.Src,
		DestinationPath: m.Dst,
		Outcome:         internal.OutcomeRecovered,
		Size:            size,
	})
}
