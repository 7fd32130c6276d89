// Package aiclassify 通过 OpenAI 兼容接口实现内容分类能力。
//
// 模型只能从给定的分类列表中选择，回答不在列表中视为失败，由调用方回退到本地分类。
package aiclassify

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/h2non/filetype"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/config"
)

const sampleSize = 2048

// Client 内容分类客户端，满足 classifier.Capability
type Client struct {
	api        *openai.Client
	model      string
	fs         afero.Fs
	categories []string
	limiter    *rate.Limiter
}

// New 根据 AI 配置创建客户端，categories 为允许模型返回的分类
func New(cfg config.AIConfig, categories []string, fs afero.Fs) (*Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, internal.Wrap(internal.ErrCapability, "创建 AI 客户端", "", fmt.Errorf("未配置 api_key 或 base_url"))
	}
	if len(categories) == 0 {
		return nil, internal.Wrap(internal.ErrCapability, "创建 AI 客户端", "", fmt.Errorf("分类列表为空"))
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	// requests_per_minute 转换为每秒速率
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		fs:         fs,
		categories: categories,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// ClassifyContent 让模型从允许的分类中选一个
func (c *Client) ClassifyContent(ctx context.Context, path string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("等待限流: %w", err)
	}

	prompt, err := c.describe(path)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You sort files into folders. Answer with exactly one category name from this list and nothing else: " +
					strings.Join(c.categories, ", "),
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   16,
	})
	if err != nil {
		logger.Get().Error().Err(err).Str("model", c.model).Dur("duration", time.Since(start)).Msg("AI 分类请求失败")
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	answer := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `."'`)
	category, ok := c.match(answer)
	if !ok {
		return "", fmt.Errorf("模型返回了未知分类: %q", answer)
	}

	logger.Get().Debug().Str("path", path).Str("category", category).Dur("duration", time.Since(start)).Msg("AI 分类完成")
	return category, nil
}

func (c *Client) match(answer string) (string, bool) {
	for _, category := range c.categories {
		if strings.EqualFold(category, answer) {
			return category, true
		}
	}
	return "", false
}

func (c *Client) describe(path string) (string, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return "", internal.Wrap(internal.ErrIO, "打开文件", path, err)
	}
	defer f.Close()

	buf := make([]byte, sampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", internal.Wrap(internal.ErrIO, "读取文件", path, err)
	}
	head := buf[:n]

	var b strings.Builder
	fmt.Fprintf(&b, "File name: %s\n", filepath.Base(path))
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		fmt.Fprintf(&b, "Detected type: %s\n", kind.MIME.Value)
	}
	if utf8.Valid(head) && n > 0 {
		fmt.Fprintf(&b, "Content sample:\n%s\n", head)
	}
	return b.String(), nil
}
