package app

import (
	"context"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/cluster"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/deduplicator"
)

type ClusterOptions struct {
	CommonOptions

	Folder     string
	Eps        float64
	MinSamples int
	Workers    int
}

// RunCluster 对目录中的文件做特征聚类，参数为零值时取配置文件中的值
func RunCluster(ctx context.Context, opts *ClusterOptions) ([]cluster.Cluster, error) {
	cfg, err := setup(opts.CommonOptions)
	if err != nil {
		return nil, err
	}

	eps := cfg.Clustering.Eps
	if opts.Eps > 0 {
		eps = opts.Eps
	}
	minSamples := cfg.Clustering.MinSamples
	if opts.MinSamples > 0 {
		minSamples = opts.MinSamples
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = internal.DefaultWorkers
	}

	logger.Get().Info().Str("folder", opts.Folder).Float64("eps", eps).Int("min_samples", minSamples).Msg("开始聚类")
	engine := cluster.NewEngine(afero.NewOsFs(), cluster.WithParams(eps, minSamples), cluster.WithWorkers(workers))
	return engine.Cluster(ctx, opts.Folder)
}

type DupesOptions struct {
	CommonOptions

	Folder  string
	Workers int
}

// RunDupes 列出目录中内容完全相同的文件组，不修改任何文件
func RunDupes(ctx context.Context, opts *DupesOptions) ([]deduplicator.DuplicateGroup, error) {
	if _, err := setup(opts.CommonOptions); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = internal.DefaultWorkers
	}

	logger.Get().Info().Str("folder", opts.Folder).Int("workers", workers).Msg("开始扫描重复文件")
	groups, err := deduplicator.FindDuplicates(ctx, afero.NewOsFs(), opts.Folder, workers)
	if err != nil {
		return nil, err
	}

	var wasted int64
	for _, g := range groups {
		wasted += g.Wasted()
	}
	logger.Get().Info().Int("groups", len(groups)).Int64("wasted_bytes", wasted).Msg("重复文件扫描完成")
	return groups, nil
}
