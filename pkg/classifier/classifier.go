// Package classifier 把文件映射到目标分类，支持按类型、日期、尺寸和内容四种策略。
package classifier

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/config"
)

// Capability 外部内容分类能力，例如大模型；返回分类名或错误
type Capability interface {
	ClassifyContent(ctx context.Context, path string) (string, error)
}

// Strategy 单一分类策略
type Strategy interface {
	Name() internal.Strategy
	Classify(ctx context.Context, rec internal.FileRecord) (string, error)
}

// Classifier 持有全部策略，按名称分派
type Classifier struct {
	strategies  map[internal.Strategy]Strategy
	sizeFolders map[string]string
}

type options struct {
	fs         afero.Fs
	capability Capability
	timeout    time.Duration
}

type Option func(*options)

// WithFs 指定内容策略读取文件时使用的文件系统
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithCapability 为内容策略挂接外部分类能力，timeout 为单次调用的上限，不大于 0 时使用默认的 10 秒
func WithCapability(c Capability, timeout time.Duration) Option {
	return func(o *options) {
		o.capability = c
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// New 根据配置创建分类器
func New(cfg *config.Config, opts ...Option) *Classifier {
	o := options{fs: afero.NewOsFs(), timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	typ := NewTypeStrategy(cfg.Folders)
	c := &Classifier{
		strategies: map[internal.Strategy]Strategy{
			internal.StrategyType:    typ,
			internal.StrategyDate:    DateStrategy{},
			internal.StrategySize:    NewSizeStrategy(cfg.SizeThresholds()),
			internal.StrategyContent: NewContentStrategy(o.fs, typ, o.capability, o.timeout),
		},
		sizeFolders: cfg.SizeFolders(),
	}
	return c
}

// Classify 使用指定策略为文件选择分类
// 内容策略在外部能力失败时仍返回回退分类，同时返回标记为 internal.ErrCapability 的错误
func (c *Classifier) Classify(ctx context.Context, rec internal.FileRecord, strategy internal.Strategy) (string, error) {
	s, ok := c.strategies[strategy]
	if !ok {
		return "", fmt.Errorf("未知的分类策略: %s", strategy)
	}

	category, err := s.Classify(ctx, rec)
	logger.Get().Debug().
		Str("path", rec.Path).
		Str("strategy", string(strategy)).
		Str("category", category).
		Err(err).
		Msg("文件分类完成")
	return category, err
}

// Folder 把分类名转换为目标目录下的相对路径
// 尺寸策略的分类是分桶键，目录名来自配置中的 folder_name
func (c *Classifier) Folder(strategy internal.Strategy, category string) string {
	if strategy == internal.StrategySize {
		if name := c.sizeFolders[category]; name != "" {
			return name
		}
	}
	return filepath.FromSlash(category)
}

// ParseStrategy 解析策略名称，"ai" 是内容策略的别名
func ParseStrategy(s string) (internal.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "type", "":
		return internal.StrategyType, nil
	case "date":
		return internal.StrategyDate, nil
	case "size":
		return internal.StrategySize, nil
	case "content", "ai":
		return internal.StrategyContent, nil
	}
	return "", fmt.Errorf("无效的分类策略: %q（可选 type、date、size、content、ai）", s)
}
