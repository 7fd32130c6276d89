// Package cluster 按特征向量的相似度对文件分组。
//
// 每个维度在当前批次内标准化为零均值、单位方差（方差为零的维度置 0），
// 再用 DBSCAN 聚类，噪声点不出现在结果中。标准化参数不跨运行保存，
// 因此文件集合不同的两次运行，分组结果不保证一致。同一批次、同一遍历
// 顺序下结果确定：边界点归入最先扩展到它的簇。
package cluster

import (
	"context"
	"math"
	"os"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/features"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/scanner"
)

const (
	DefaultEps        = 0.5
	DefaultMinSamples = 2

	noise      = -1
	unassigned = -2
)

// Cluster 一组相似文件，成员数至少为 2
type Cluster struct {
	Files []string
}

// Engine 聚类引擎
type Engine struct {
	fs         afero.Fs
	extractor  *features.Extractor
	eps        float64
	minSamples int
	workers    int
}

type Option func(*Engine)

func WithParams(eps float64, minSamples int) Option {
	return func(e *Engine) {
		if eps > 0 {
			e.eps = eps
		}
		if minSamples > 0 {
			e.minSamples = minSamples
		}
	}
}

func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

func NewEngine(fs afero.Fs, opts ...Option) *Engine {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	e := &Engine{
		fs:         fs,
		extractor:  features.New(fs),
		eps:        DefaultEps,
		minSamples: DefaultMinSamples,
		workers:    internal.DefaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extractor 返回引擎使用的特征提取器，可用于注册自定义 Provider
func (e *Engine) Extractor() *features.Extractor {
	return e.extractor
}

// Cluster 递归收集目录下的文件并分组
func (e *Engine) Cluster(ctx context.Context, folder string) ([]Cluster, error) {
	if info, err := e.fs.Stat(folder); err != nil || !info.IsDir() {
		return nil, internal.Wrap(internal.ErrSourceRoot, "聚类", folder, err)
	}

	var files []string
	// 运行锁和移动日志不参与聚类
	err := scanner.NewFileWalker(e.fs).Walk(folder, func(path string, info os.FileInfo) error {
		if info.Mode().IsRegular() {
			files = append(files, path)
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	vectors, err := e.extractor.ExtractAll(ctx, files, e.workers)
	if err != nil {
		return nil, err
	}

	points := Standardize(vectors)
	labels := DBSCAN(points, e.eps, e.minSamples)

	var clusters []Cluster
	for i, label := range labels {
		if label == noise {
			continue
		}
		for len(clusters) <= label {
			clusters = append(clusters, Cluster{})
		}
		clusters[label].Files = append(clusters[label].Files, files[i])
	}

	out := clusters[:0]
	for _, c := range clusters {
		if len(c.Files) >= 2 {
			out = append(out, c)
		}
	}
	logger.Get().Info().Str("folder", folder).Int("files", len(files)).Int("clusters", len(out)).Msg("聚类完成")
	return out, nil
}

// Standardize 每个维度减去均值再除以标准差（总体标准差），方差为零的维度置 0
func Standardize(vectors []features.Vector) [][]float64 {
	n := float64(len(vectors))
	out := make([][]float64, len(vectors))
	for i := range out {
		out[i] = make([]float64, features.VectorLen)
	}
	if len(vectors) == 0 {
		return out
	}

	for d := 0; d < features.VectorLen; d++ {
		var mean float64
		for _, v := range vectors {
			mean += v[d]
		}
		mean /= n

		var variance float64
		for _, v := range vectors {
			diff := v[d] - mean
			variance += diff * diff
		}
		std := math.Sqrt(variance / n)
		if std == 0 {
			continue
		}
		for i, v := range vectors {
			out[i][d] = (v[d] - mean) / std
		}
	}
	return out
}

// DBSCAN 返回每个点的簇编号，噪声为 -1
// 一个点的邻域包含它自身，邻域内点数不少于 minSamples 时为核心点
func DBSCAN(points [][]float64, eps float64, minSamples int) []int {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unassigned
	}

	next := 0
	for i := range points {
		if labels[i] != unassigned {
			continue
		}
		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minSamples {
			labels[i] = noise
			continue
		}

		cluster := next
		next++
		labels[i] = cluster

		queue := append([]int(nil), neighbors...)
		for k := 0; k < len(queue); k++ {
			j := queue[k]
			if labels[j] == noise {
				// 噪声点可以成为边界点
				labels[j] = cluster
			}
			if labels[j] != unassigned {
				continue
			}
			labels[j] = cluster
			if more := regionQuery(points, j, eps); len(more) >= minSamples {
				queue = append(queue, more...)
			}
		}
	}
	return labels
}

func regionQuery(points [][]float64, i int, eps float64) []int {
	var out []int
	for j := range points {
		if distance(points[i], points[j]) <= eps {
			out = append(out, j)
		}
	}
	return out
}

func distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
