package app

import (
	"context"
	"fmt"
	"os"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/config"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
)

type StatsOptions struct {
	CommonOptions

	// LedgerPath 为空时使用配置中的 ledger.path
	LedgerPath string
	// RunID 不为空时同时返回该次运行的全部事件
	RunID string
}

type StatsResult struct {
	Statistics *ledger.Statistics
	Events     []ledger.Event
}

// RunStats 读取运行账本并汇总
func RunStats(ctx context.Context, opts *StatsOptions) (*StatsResult, error) {
	cfg, err := setup(opts.CommonOptions)
	if err != nil {
		return nil, err
	}

	path := opts.LedgerPath
	if path == "" {
		path = cfg.Ledger.Path
	}
	if path == "" {
		return nil, fmt.Errorf("未配置运行账本路径")
	}
	if path, err = config.ExpandPath(path); err != nil {
		return nil, err
	}

	store, err := ledger.NewStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	stats, err := store.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	result := &StatsResult{Statistics: stats}

	if opts.RunID != "" {
		if result.Events, err = store.Events(ctx, opts.RunID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// InitConfig 写出默认配置文件，文件已存在且 force 为 false 时返回错误
func InitConfig(path string, force bool) (string, error) {
	if path == "" {
		path = internal.DefaultConfigPath
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	if !force {
		if _, err := os.Stat(expanded); err == nil {
			return expanded, fmt.Errorf("配置文件已存在: %s", expanded)
		}
	}
	return expanded, config.Write(expanded, config.Default())
}
