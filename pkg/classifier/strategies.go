package classifier

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/config"
)

// TypeStrategy 按扩展名匹配有序规则，先匹配者优先
type TypeStrategy struct {
	rules []config.FolderRule
	fold  cases.Caser
}

func NewTypeStrategy(rules []config.FolderRule) *TypeStrategy {
	fold := cases.Fold()
	folded := make([]config.FolderRule, len(rules))
	for i, r := range rules {
		exts := make([]string, len(r.Extensions))
		for j, ext := range r.Extensions {
			exts[j] = fold.String(ext)
		}
		folded[i] = config.FolderRule{Category: r.Category, Extensions: exts}
	}
	return &TypeStrategy{rules: folded, fold: fold}
}

func (s *TypeStrategy) Name() internal.Strategy { return internal.StrategyType }

func (s *TypeStrategy) Classify(_ context.Context, rec internal.FileRecord) (string, error) {
	ext := recordExt(rec)
	if category, ok := s.Lookup(ext); ok {
		return category, nil
	}
	if ext == "" {
		return internal.NoExtensionCategory, nil
	}
	return strings.TrimPrefix(ext, ".") + "_files", nil
}

// Lookup 返回第一个包含该扩展名的分类
func (s *TypeStrategy) Lookup(ext string) (string, bool) {
	if ext == "" {
		return "", false
	}
	ext = s.fold.String(ext)
	for _, r := range s.rules {
		for _, candidate := range r.Extensions {
			if candidate == ext {
				return r.Category, true
			}
		}
	}
	return "", false
}

// DateStrategy 按修改时间归档为 {年}/{两位月份}-{英文月份名}
// 使用修改时间而不是创建时间，创建时间在跨文件系统移动后并不可靠
type DateStrategy struct{}

func (DateStrategy) Name() internal.Strategy { return internal.StrategyDate }

func (DateStrategy) Classify(_ context.Context, rec internal.FileRecord) (string, error) {
	if rec.ModTime.IsZero() {
		return "", internal.Wrap(internal.ErrIO, "读取修改时间", rec.Path, nil)
	}
	t := rec.ModTime.Local()
	return fmt.Sprintf("%d/%02d-%s", t.Year(), int(t.Month()), t.Month().String()), nil
}

// SizeStrategy 按字节阈值分桶，下界包含、上界不包含，very_large 没有上界
type SizeStrategy struct {
	thresholds [3]int64
}

func NewSizeStrategy(thresholds [3]int64) SizeStrategy {
	return SizeStrategy{thresholds: thresholds}
}

func (SizeStrategy) Name() internal.Strategy { return internal.StrategySize }

func (s SizeStrategy) Classify(_ context.Context, rec internal.FileRecord) (string, error) {
	return s.Bucket(rec.Size), nil
}

// Bucket 返回字节数所在的分桶键
func (s SizeStrategy) Bucket(size int64) string {
	for i, limit := range s.thresholds {
		if size < limit {
			return config.SizeOrder[i]
		}
	}
	return config.SizeVeryLarge
}

func recordExt(rec internal.FileRecord) string {
	if rec.Ext != "" {
		return rec.Ext
	}
	name := rec.Name
	if name == "" {
		name = filepath.Base(rec.Path)
	}
	return strings.ToLower(filepath.Ext(name))
}
