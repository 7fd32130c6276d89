package classifier

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
)

const sniffSize = 8192

// ContentStrategy 按内容分类
//
// 配置了外部能力时先询问外部能力；能力失败或超时则回退到本地判断，并把错误
// 标记为 internal.ErrCapability 返回，由调用方计数。本地判断先按文件头识别
// 真实类型，识别不出再按扩展名查找规则，都失败时归入默认分类。
type ContentStrategy struct {
	fs         afero.Fs
	rules      *TypeStrategy
	capability Capability
	timeout    time.Duration
}

func NewContentStrategy(fs afero.Fs, rules *TypeStrategy, c Capability, timeout time.Duration) *ContentStrategy {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ContentStrategy{fs: fs, rules: rules, capability: c, timeout: timeout}
}

func (s *ContentStrategy) Name() internal.Strategy { return internal.StrategyContent }

func (s *ContentStrategy) Classify(ctx context.Context, rec internal.FileRecord) (string, error) {
	if s.capability == nil {
		return s.fallback(rec), nil
	}

	category, err := s.ask(ctx, rec.Path)
	if err == nil {
		return category, nil
	}

	fallback := s.fallback(rec)
	logger.Get().Warn().Err(err).Str("path", rec.Path).Str("fallback", fallback).Msg("内容分类能力不可用，使用回退分类")
	return fallback, internal.Wrap(internal.ErrCapability, "内容分类", rec.Path, err)
}

func (s *ContentStrategy) ask(ctx context.Context, path string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type answer struct {
		category string
		err      error
	}
	done := make(chan answer, 1)
	go func() {
		category, err := s.capability.ClassifyContent(ctx, path)
		done <- answer{category, err}
	}()

	// 外部能力不一定遵守 ctx，这里独立等待超时
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-done:
		if a.err != nil {
			return "", a.err
		}
		return sanitizeCategory(a.category)
	}
}

func (s *ContentStrategy) fallback(rec internal.FileRecord) string {
	if kind, ok := s.sniff(rec.Path); ok {
		if category, found := s.rules.Lookup("." + kind.Extension); found {
			return category
		}
		if category := mimeCategory(kind.MIME.Type); category != "" {
			return category
		}
	}
	if category, ok := s.rules.Lookup(recordExt(rec)); ok {
		return category
	}
	return internal.DefaultCategory
}

func (s *ContentStrategy) sniff(path string) (kind types.Type, ok bool) {
	f, err := s.fs.Open(path)
	if err != nil {
		return kind, false
	}
	defer f.Close()

	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return kind, false
	}

	match, err := filetype.Match(buf[:n])
	if err != nil || match == filetype.Unknown {
		return kind, false
	}
	return match, true
}

func mimeCategory(top string) string {
	switch top {
	case "image":
		return "Images"
	case "video":
		return "Videos"
	case "audio":
		return "Audio"
	}
	return ""
}

// sanitizeCategory 外部返回的分类名会成为目录名，不允许路径分隔符和空值
func sanitizeCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" || category == "." || category == ".." || strings.ContainsAny(category, `/\`) {
		return "", internal.Wrap(internal.ErrCapability, "无效的分类名", category, nil)
	}
	return category, nil
}
