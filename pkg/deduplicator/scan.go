package deduplicator

import (
	"context"
	"os"
	"sort"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/hasher"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/scanner"
)

// DuplicateGroup 内容完全相同的一组文件，Paths 按遍历顺序排列
type DuplicateGroup struct {
	Hash  string
	Size  int64
	Paths []string
}

// Wasted 除第一个文件外其余副本占用的空间
func (g DuplicateGroup) Wasted() int64 {
	return g.Size * int64(len(g.Paths)-1)
}

// FindDuplicates 递归扫描目录，按内容摘要分组，只返回至少两个文件的组
// 只有大小相同的文件才会计算摘要；单个文件读取失败只记录日志
func FindDuplicates(ctx context.Context, fs afero.Fs, folder string, workers int) ([]DuplicateGroup, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if info, err := fs.Stat(folder); err != nil || !info.IsDir() {
		return nil, internal.Wrap(internal.ErrSourceRoot, "扫描重复文件", folder, err)
	}

	var order []string
	sizes := make(map[string]int64)
	bySize := make(map[int64][]string)
	err := scanner.NewFileWalker(fs).Walk(folder, func(path string, info os.FileInfo) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		order = append(order, path)
		sizes[path] = info.Size()
		bySize[info.Size()] = append(bySize[info.Size()], path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var tasks []hasher.HashTask
	for _, path := range order {
		size := sizes[path]
		if len(bySize[size]) < 2 {
			continue
		}
		tasks = append(tasks, hasher.HashTask{Path: path, Size: size})
	}
	logger.Get().Info().Int("files", len(order)).Int("candidates", len(tasks)).Msg("大小预筛选完成")

	pool, err := hasher.NewHashPool(hasher.New(fs), workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := pool.HashAll(ctx, tasks)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var groups []DuplicateGroup
	for _, res := range results {
		if res.Error != nil {
			logger.Get().Error().Err(res.Error).Str("path", res.Path).Msg("计算文件哈希失败")
			continue
		}
		i, ok := index[res.Hash]
		if !ok {
			i = len(groups)
			index[res.Hash] = i
			groups = append(groups, DuplicateGroup{Hash: res.Hash, Size: res.Size})
		}
		groups[i].Paths = append(groups[i].Paths, res.Path)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.Paths) > 1 {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Wasted() > out[j].Wasted() })
	return out, nil
}
