package app

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/aiclassify"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/classifier"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/cluster"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/config"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/organizer"
)

// OrganizeOptions organize 命令的选项
// 指针字段为 nil 时取配置文件中的值
type OrganizeOptions struct {
	CommonOptions

	SourceDir string
	DestDir   string
	Strategy  string

	IncludeSubfolders bool
	Preserve          *bool
	KeepDuplicates    bool
	DetectSimilar     *bool
	Cluster           *bool
	DryRun            bool

	JSONL    string
	NoLedger bool
	// Progress 额外接收处理事件，界面用它显示实时进度
	Progress ledger.Sink
}

// OrganizeResult 一次整理的结果
type OrganizeResult struct {
	Stats    internal.RunStats
	DestDir  string
	Clusters []cluster.Cluster
}

func RunOrganize(ctx context.Context, opts *OrganizeOptions) (*OrganizeResult, error) {
	cfg, err := setup(opts.CommonOptions)
	if err != nil {
		return nil, err
	}

	mode := opts.Strategy
	if mode == "" {
		mode = cfg.Rules.OrganizationMode
	}
	strategy, err := classifier.ParseStrategy(mode)
	if err != nil {
		return nil, err
	}

	if err := checkSourceRoot(opts.SourceDir); err != nil {
		logger.Get().Error().Err(err).Str("source", opts.SourceDir).Msg("无法读取源目录")
		return nil, err
	}

	destDir := opts.DestDir
	if destDir == "" {
		destDir = opts.SourceDir
	}

	if !opts.DryRun {
		unlock, err := lockDir(destDir)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	// 试运行的事件不进入 SQLite 账本，避免污染统计
	sink := openSinks(cfg, opts.NoLedger || opts.DryRun, opts.JSONL, opts.Progress)
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Get().Warn().Err(err).Msg("关闭运行账本失败")
		}
	}()

	fs := afero.NewOsFs()
	cls := classifier.New(cfg, classifierOptions(cfg, strategy, fs)...)
	org := organizer.New(fs, cls, organizer.WithSink(sink))

	runOpts := organizer.Options{
		Strategy:              strategy,
		IncludeSubfolders:     opts.IncludeSubfolders,
		PreserveStructure:     pick(opts.Preserve, cfg.Rules.PreserveFolderStructure),
		RemoveExactDuplicates: !opts.KeepDuplicates,
		DetectSimilar:         pick(opts.DetectSimilar, cfg.Rules.UseContentAnalysis),
		SimilarityThreshold:   cfg.Rules.MinDuplicateSimilarity,
		DryRun:                opts.DryRun,
	}

	stats, err := org.Organize(ctx, opts.SourceDir, destDir, runOpts)
	result := &OrganizeResult{Stats: stats, DestDir: destDir}
	if err != nil {
		return result, err
	}

	if pick(opts.Cluster, cfg.Rules.ClusterSimilarFiles) && !opts.DryRun {
		engine := cluster.NewEngine(fs, cluster.WithParams(cfg.Clustering.Eps, cfg.Clustering.MinSamples))
		clusters, err := engine.Cluster(ctx, destDir)
		if err != nil {
			logger.Get().Warn().Err(err).Str("path", destDir).Msg("聚类失败")
		} else {
			result.Clusters = clusters
		}
	}

	return result, nil
}

// classifierOptions 内容策略且开启 AI 分类时接入 AI 能力
// AI 客户端创建失败时只记录警告，退回本地内容分类
func classifierOptions(cfg *config.Config, strategy internal.Strategy, fs afero.Fs) []classifier.Option {
	opts := []classifier.Option{classifier.WithFs(fs)}
	if strategy != internal.StrategyContent || !cfg.Rules.UseAIClassification {
		return opts
	}

	client, err := aiclassify.New(cfg.AI, categories(cfg), fs)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("AI 分类不可用，使用本地内容分类")
		return opts
	}

	timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	logger.Get().Info().Str("model", cfg.AI.Model).Dur("timeout", timeout).Msg("已启用 AI 分类")
	return append(opts, classifier.WithCapability(client, timeout))
}

func pick(override *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	return fallback
}
