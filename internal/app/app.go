// Package app 组装配置、日志、账本和核心组件，供命令行和界面调用。
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/config"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
)

// ErrLocked 目标目录正被另一个进程整理
var ErrLocked = errors.New("目标目录正被另一个整理进程使用")

// CommonOptions 所有命令共用的选项
type CommonOptions struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	Verbose    bool
	// Quiet 为 true 时不初始化日志，由调用方（例如界面）自行设置 logger
	Quiet bool
}

// setup 加载配置并初始化日志
// 配置文件有误只记录警告，使用默认配置继续
func setup(opts CommonOptions) (*config.Config, error) {
	cfg, cfgErr := config.Load(opts.ConfigPath)

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.Verbose {
		level = "debug"
	}
	file := cfg.Logging.File
	if opts.LogFile != "" {
		file = opts.LogFile
	}

	if !opts.Quiet {
		if err := logger.Init(level, file); err != nil {
			return nil, fmt.Errorf("初始化日志: %w", err)
		}
	}

	if cfgErr != nil {
		logger.Get().Warn().Err(cfgErr).Msg("配置文件无效，使用默认配置")
	}
	return cfg, nil
}

// openSinks 根据配置打开账本，extra 中的 Sink 一并加入
// 账本打不开只记录警告，运行照常进行
func openSinks(cfg *config.Config, noLedger bool, jsonl string, extra ...ledger.Sink) ledger.Sink {
	var sinks ledger.MultiSink

	if !noLedger && cfg.Ledger.Path != "" {
		if path, err := config.ExpandPath(cfg.Ledger.Path); err == nil {
			store, err := ledger.NewStore(path)
			if err != nil {
				logger.Get().Warn().Err(err).Str("path", path).Msg("无法打开运行账本")
			} else {
				sinks = append(sinks, store)
			}
		}
	}

	if jsonl == "" {
		jsonl = cfg.Ledger.JSONL
	}
	if jsonl != "" {
		if path, err := config.ExpandPath(jsonl); err == nil {
			sink, err := ledger.OpenJSONL(path)
			if err != nil {
				logger.Get().Warn().Err(err).Str("path", path).Msg("无法打开 JSONL 账本")
			} else {
				sinks = append(sinks, sink)
			}
		}
	}

	for _, s := range extra {
		if s != nil {
			sinks = append(sinks, s)
		}
	}

	if len(sinks) == 0 {
		return ledger.NopSink{}
	}
	return sinks
}

// checkSourceRoot 源目录不存在或不是目录时返回 internal.ErrSourceRoot
// 必须在 lockDir 之前调用，否则就地整理时锁会把缺失的源目录创建出来
func checkSourceRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return internal.Wrap(internal.ErrSourceRoot, "读取源目录", dir, err)
	}
	if !info.IsDir() {
		return internal.Wrap(internal.ErrSourceRoot, "源路径不是目录", dir, nil)
	}
	return nil
}

// lockDir 获取目标目录的运行锁，返回的函数释放锁并删除锁文件
func lockDir(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, internal.Wrap(internal.ErrIO, "创建目标目录", dir, err)
	}

	path := filepath.Join(dir, internal.LockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("获取运行锁: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	logger.Get().Debug().Str("lock", path).Msg("已获取运行锁")

	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Get().Warn().Err(err).Str("lock", path).Msg("释放运行锁失败")
			return
		}
		_ = os.Remove(path)
	}, nil
}

// categories 返回 AI 分类可选的全部分类
func categories(cfg *config.Config) []string {
	out := make([]string, 0, len(cfg.Folders)+1)
	for _, rule := range cfg.Folders {
		out = append(out, rule.Category)
	}
	return append(out, internal.DefaultCategory)
}
