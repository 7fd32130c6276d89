package internal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIO 文件或目录无法读写，可恢复：计数后跳过该文件
	ErrIO = errors.New("io error")
	// ErrConfig 配置文件格式错误，可恢复：回退到默认配置
	ErrConfig = errors.New("config error")
	// ErrCapability 内容分类能力不可用或超时，可恢复：使用回退分类
	ErrCapability = errors.New("classification capability error")
	// ErrCollisionExhausted 所有候选文件名均已被占用
	ErrCollisionExhausted = errors.New("collision resolution exhausted")
	// ErrSourceRoot 源目录本身不可读，整个运行失败
	ErrSourceRoot = errors.New("source root unavailable")
)

// Wrap 为错误打上分类标记，调用方可通过 errors.Is 判断类别
func Wrap(marker error, op, path string, err error) error {
	if marker == nil {
		marker = ErrIO
	}
	detail := buildDetail(op, path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(op, path string) string {
	parts := make([]string, 0, 2)
	if op = strings.TrimSpace(op); op != "" {
		parts = append(parts, op)
	}
	if path = strings.TrimSpace(path); path != "" {
		parts = append(parts, path)
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, " ")
}
