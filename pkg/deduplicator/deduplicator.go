// Package deduplicator 判断目标位置已被占用时如何处理新文件，并提供目录内的重复文件扫描。
package deduplicator

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/features"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/hasher"
)

// Resolution 冲突处理结果
// Decision 为 DecisionExact 时调用方删除源文件；否则使用 SuggestedName 移动
type Resolution struct {
	Decision      internal.Decision
	SuggestedName string
	Similarity    float64
}

// Resolver 目标路径冲突处理器，每次运行创建一个
type Resolver struct {
	fs        afero.Fs
	hasher    *hasher.Hasher
	extractor *features.Extractor
	threshold float64

	// MaxProbe 候选文件名的最大尝试次数，0 表示不设上限
	// 不设上限时，在目录被大量 {stem}_{n} 文件占满的极端情况下耗时与文件数成正比
	MaxProbe int

	// 目标目录中按大小索引的文件，首次查询某目录时建立
	index map[string]map[int64][]string
}

type Option func(*Resolver)

// WithSimilarity 启用近似重复标注，threshold 取值 (0, 1]
func WithSimilarity(e *features.Extractor, threshold float64) Option {
	return func(r *Resolver) {
		r.extractor = e
		r.threshold = threshold
	}
}

func WithMaxProbe(n int) Option {
	return func(r *Resolver) { r.MaxProbe = n }
}

func NewResolver(fs afero.Fs, h *hasher.Hasher, opts ...Option) *Resolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if h == nil {
		h = hasher.New(fs)
	}
	r := &Resolver{fs: fs, hasher: h, index: make(map[string]map[int64][]string)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve 在 existingPath 已存在时判断源文件的去向
// 大小不同直接判定为不同文件，不计算摘要
func (r *Resolver) Resolve(src internal.FileRecord, existingPath string) (Resolution, error) {
	info, err := r.fs.Stat(existingPath)
	if err != nil {
		return Resolution{}, internal.Wrap(internal.ErrIO, "读取目标文件信息", existingPath, err)
	}

	if info.Size() == src.Size {
		srcSum, err := r.hasher.Digest(src.Path)
		if err != nil {
			return Resolution{}, err
		}
		dstSum, err := r.hasher.Digest(existingPath)
		if err != nil {
			return Resolution{}, err
		}
		if srcSum == dstSum {
			logger.Get().Info().Str("path", src.Path).Str("existing", existingPath).Str("hash", srcSum).Msg("发现完全重复文件")
			return Resolution{Decision: internal.DecisionExact, Similarity: 1}, nil
		}
	}

	name, err := r.SuggestName(filepath.Dir(existingPath), filepath.Base(existingPath))
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Decision: internal.DecisionDistinct, SuggestedName: name}
	if r.extractor != nil && r.threshold > 0 {
		res.Similarity = features.Similarity(r.extractor.Extract(src.Path), r.extractor.Extract(existingPath))
		if res.Similarity >= r.threshold {
			res.Decision = internal.DecisionSimilar
			logger.Get().Info().
				Str("path", src.Path).
				Str("existing", existingPath).
				Float64("similarity", res.Similarity).
				Msg("发现近似重复文件")
		}
	}
	return res, nil
}

// SuggestName 依次尝试 {stem}_1{ext}、{stem}_2{ext}……返回第一个未被占用的文件名
func (r *Resolver) SuggestName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 1; r.MaxProbe <= 0 || i <= r.MaxProbe; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		_, err := r.fs.Stat(filepath.Join(dir, candidate))
		if errors.Is(err, fs.ErrNotExist) {
			if i == 1 {
				logger.Get().Debug().Str("dir", dir).Str("name", candidate).Msg("目标文件已存在，使用新文件名")
			}
			return candidate, nil
		}
		if err != nil {
			return "", internal.Wrap(internal.ErrIO, "检查目标文件", filepath.Join(dir, candidate), err)
		}
	}

	return "", internal.Wrap(internal.ErrCollisionExhausted,
		fmt.Sprintf("已尝试 %d 个候选文件名", r.MaxProbe), filepath.Join(dir, name), nil)
}

// FindExact 在目录中查找与源文件内容完全相同的文件，不要求文件名相同
// 只有大小相同的文件才会计算摘要
func (r *Resolver) FindExact(src internal.FileRecord, dir string) (string, error) {
	bySize, err := r.dirIndex(dir)
	if err != nil {
		return "", err
	}
	candidates := bySize[src.Size]
	if len(candidates) == 0 {
		return "", nil
	}

	srcSum, err := r.hasher.Digest(src.Path)
	if err != nil {
		return "", err
	}
	for _, candidate := range candidates {
		if candidate == src.Path {
			continue
		}
		sum, err := r.hasher.Digest(candidate)
		if err != nil {
			logger.Get().Warn().Err(err).Str("path", candidate).Msg("无法计算目标目录中文件的哈希")
			continue
		}
		if sum == srcSum {
			return candidate, nil
		}
	}
	return "", nil
}

// Track 记录新放入 dir 的文件，供后续 FindExact 使用
// path 是内容实际所在的位置，试运行时即源文件路径
func (r *Resolver) Track(dir, path string, size int64) {
	if bySize, ok := r.index[dir]; ok {
		bySize[size] = append(bySize[size], path)
	}
}

func (r *Resolver) dirIndex(dir string) (map[int64][]string, error) {
	if bySize, ok := r.index[dir]; ok {
		return bySize, nil
	}

	bySize := make(map[int64][]string)
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, internal.Wrap(internal.ErrIO, "列出目标目录", dir, err)
	}
	for _, entry := range entries {
		if entry.Mode().IsRegular() {
			bySize[entry.Size()] = append(bySize[entry.Size()], filepath.Join(dir, entry.Name()))
		}
	}
	r.index[dir] = bySize
	return bySize, nil
}
