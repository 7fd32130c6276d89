// Package hasher 计算文件内容摘要，用于精确重复检测。
//
// 摘要按绝对路径缓存，缓存的生命周期等同于一次运行。如果文件在运行期间
// 可能被修改，调用方必须先调用 Forget 或 Reset，缓存不会自动失效。
package hasher

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
)

// Hasher 带缓存的内容摘要计算器
type Hasher struct {
	fs        afero.Fs
	chunkSize int

	mu    sync.Mutex
	cache map[string]string
	reads int
}

// New 创建摘要计算器，fs 为 nil 时使用操作系统文件系统
func New(fs afero.Fs) *Hasher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Hasher{
		fs:        fs,
		chunkSize: internal.HashChunkSize,
		cache:     make(map[string]string),
	}
}

// Digest 返回文件内容的 xxHash 摘要（16 位十六进制）
// 同一路径的第二次调用直接返回缓存结果，不会重新读取文件
func (h *Hasher) Digest(path string) (string, error) {
	key := cacheKey(path)

	h.mu.Lock()
	if sum, ok := h.cache[key]; ok {
		h.mu.Unlock()
		logger.Get().Trace().Str("path", key).Str("hash", sum).Msg("命中哈希缓存")
		return sum, nil
	}
	h.mu.Unlock()

	sum, err := h.compute(key)
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	h.cache[key] = sum
	h.reads++
	h.mu.Unlock()

	logger.Get().Debug().Str("path", key).Str("hash", sum).Msg("文件哈希计算完成")
	return sum, nil
}

func (h *Hasher) compute(path string) (string, error) {
	file, err := h.fs.Open(path)
	if err != nil {
		return "", internal.Wrap(internal.ErrIO, "打开文件", path, err)
	}
	defer file.Close()

	digest := xxhash.New()
	buf := make([]byte, h.chunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			_, _ = digest.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", internal.Wrap(internal.ErrIO, "读取文件", path, err)
		}
	}

	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

// Forget 删除某个路径的缓存项
func (h *Hasher) Forget(path string) {
	h.mu.Lock()
	delete(h.cache, cacheKey(path))
	h.mu.Unlock()
}

// Reset 清空全部缓存
func (h *Hasher) Reset() {
	h.mu.Lock()
	h.cache = make(map[string]string)
	h.mu.Unlock()
}

// Reads 返回实际读取文件计算摘要的次数
func (h *Hasher) Reads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reads
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
