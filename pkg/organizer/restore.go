package organizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/deduplicator"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/scanner"
)

// DefaultRestoreDir 返回 organizedDir 同级的 restored_files_{时间戳} 目录
func DefaultRestoreDir(organizedDir string, now time.Time) string {
	return filepath.Join(filepath.Dir(filepath.Clean(organizedDir)), "restored_files_"+now.Format("20060102_150405"))
}

// Restore 把整理后的目录树中的所有文件复制到一个扁平目录，重名时追加 _N 后缀
// 原文件保持不动；返回的 RunStats 中 Moved 为复制成功的文件数
func (o *Organizer) Restore(ctx context.Context, organizedDir, restoreDir string) (internal.RunStats, error) {
	stats := internal.RunStats{RunID: o.runID, StartTime: time.Now()}
	if stats.RunID == "" {
		stats.RunID = uuid.NewString()
	}

	if info, err := o.fs.Stat(organizedDir); err != nil || !info.IsDir() {
		stats.EndTime = time.Now()
		return stats, internal.Wrap(internal.ErrSourceRoot, "读取整理目录", organizedDir, err)
	}
	if restoreDir == "" {
		restoreDir = DefaultRestoreDir(organizedDir, stats.StartTime)
	}
	if err := o.fs.MkdirAll(restoreDir, 0755); err != nil {
		stats.EndTime = time.Now()
		return stats, internal.Wrap(internal.ErrIO, "创建恢复目录", restoreDir, err)
	}

	restoreAbs, _ := filepath.Abs(restoreDir)
	resolver := deduplicator.NewResolver(o.fs, nil)
	walker := scanner.NewFileWalker(o.fs)

	logger.Get().Info().Str("source", organizedDir).Str("destination", restoreDir).Msg("开始恢复文件")

	err := walker.Walk(organizedDir, func(path string, info os.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if abs, _ := filepath.Abs(path); strings.HasPrefix(abs, restoreAbs+string(filepath.Separator)) {
			return nil
		}
		stats.Total++

		ev := ledger.Event{RunID: stats.RunID, Timestamp: time.Now(), SourcePath: path, Size: info.Size()}
		dst := filepath.Join(restoreDir, info.Name())
		exists, err := afero.Exists(o.fs, dst)
		if err == nil && exists {
			var name string
			name, err = resolver.SuggestName(restoreDir, info.Name())
			dst = filepath.Join(restoreDir, name)
		}
		if err == nil {
			err = copyFile(o.fs, path, dst)
		}

		if err != nil {
			stats.Errors++
			ev.Outcome = internal.OutcomeFailed
			ev.Detail = err.Error()
			logger.Get().Error().Err(err).Str("path", path).Msg("恢复文件失败")
		} else {
			stats.Moved++
			ev.Outcome = internal.OutcomeRestored
			ev.DestinationPath = dst
		}
		if rerr := o.sink.Record(ctx, ev); rerr != nil {
			logger.Get().Warn().Err(rerr).Str("path", path).Msg("写入运行账本失败")
		}
		return nil
	})

	stats.EndTime = time.Now()
	if err != nil {
		return stats, fmt.Errorf("恢复被中断: %w", err)
	}
	logger.Get().Info().Int("restored", stats.Moved).Int("errors", stats.Errors).Msg("恢复完成")
	return stats, nil
}
