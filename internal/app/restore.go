package app

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/classifier"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/organizer"
)

type RestoreOptions struct {
	CommonOptions

	OrganizedDir string
	// RestoreDir 为空时在整理目录旁创建 restored_files_{时间戳}
	RestoreDir string
	NoLedger   bool
	Progress   ledger.Sink
}

// RunRestore 把整理后的文件复制回一个扁平目录，返回实际使用的恢复目录
func RunRestore(ctx context.Context, opts *RestoreOptions) (internal.RunStats, string, error) {
	cfg, err := setup(opts.CommonOptions)
	if err != nil {
		return internal.RunStats{}, "", err
	}

	restoreDir := opts.RestoreDir
	if restoreDir == "" {
		restoreDir = organizer.DefaultRestoreDir(opts.OrganizedDir, time.Now())
	}

	unlock, err := lockDir(restoreDir)
	if err != nil {
		return internal.RunStats{}, restoreDir, err
	}
	defer unlock()

	sink := openSinks(cfg, opts.NoLedger, "", opts.Progress)
	defer sink.Close()

	fs := afero.NewOsFs()
	org := organizer.New(fs, classifier.New(cfg, classifier.WithFs(fs)), organizer.WithSink(sink))
	stats, err := org.Restore(ctx, opts.OrganizedDir, restoreDir)
	return stats, restoreDir, err
}
