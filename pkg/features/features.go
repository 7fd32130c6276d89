// Package features 从文件中提取定长数值特征向量，供相似度聚类和近似重复检测使用。
//
// 向量布局固定为 VectorLen 个槽位：
//
//	[0]     文件大小（字节）
//	[1]     扩展名签名（FNV-1a 对 1000 取模）
//	[2..11] 按内容类型由 Provider 填充，不足部分补零
//
// Extract 从不返回错误，任何读取或解码失败都得到全零向量。
package features

import (
	"context"
	"hash/fnv"
	"io"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
)

const (
	VectorLen = 12
	// TypeSlots 由 Provider 填充的槽位数量
	TypeSlots = VectorLen - 2

	sniffSize = 262
)

// Vector 特征向量
type Vector [VectorLen]float64

// Kind 粗粒度内容类型
type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
	KindOther Kind = "other"
)

// Provider 为某一类内容计算类型相关的特征
// 返回值超过 TypeSlots 的部分被截断，不足的部分补零
type Provider interface {
	Features(fs afero.Fs, path string) ([]float64, error)
}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".log": true, ".json": true,
	".xml": true, ".html": true, ".htm": true, ".css": true, ".js": true,
	".py": true, ".go": true, ".c": true, ".h": true, ".cpp": true,
	".java": true, ".rb": true, ".php": true, ".yaml": true, ".yml": true,
	".ini": true, ".rtf": true, ".sh": true,
}

// Extractor 特征提取器
type Extractor struct {
	fs        afero.Fs
	providers map[Kind]Provider
}

// New 创建特征提取器并注册内置的图片和文本 Provider
func New(fs afero.Fs) *Extractor {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Extractor{
		fs: fs,
		providers: map[Kind]Provider{
			KindImage: ImageProvider{},
			KindText:  TextProvider{},
		},
	}
}

// Register 替换或新增某类内容的 Provider，传入 nil 表示该类内容只保留基础特征
func (e *Extractor) Register(kind Kind, p Provider) {
	if p == nil {
		delete(e.providers, kind)
		return
	}
	e.providers[kind] = p
}

// Extract 计算单个文件的特征向量
func (e *Extractor) Extract(path string) Vector {
	var v Vector

	info, err := e.fs.Stat(path)
	if err != nil || info.IsDir() {
		logger.Get().Debug().Err(err).Str("path", path).Msg("无法读取文件信息，使用零向量")
		return v
	}

	v[0] = float64(info.Size())
	v[1] = ExtSignature(filepath.Ext(path))

	kind := e.Kind(path)
	p, ok := e.providers[kind]
	if !ok {
		return v
	}

	slots, err := p.Features(e.fs, path)
	if err != nil {
		logger.Get().Debug().Err(err).Str("path", path).Str("kind", string(kind)).Msg("提取内容特征失败，使用零向量")
		return Vector{}
	}
	for i := 0; i < len(slots) && i < TypeSlots; i++ {
		v[2+i] = slots[i]
	}
	return v
}

// Kind 判断文件的粗粒度类型：先按文件头魔数识别，识别不出时按扩展名回退
func (e *Extractor) Kind(path string) Kind {
	head, err := readHead(e.fs, path, sniffSize)
	if err == nil && len(head) > 0 {
		if filetype.IsImage(head) {
			return KindImage
		}
		if kind, merr := filetype.Match(head); merr == nil && kind != filetype.Unknown {
			return KindOther
		}
	}

	if textExtensions[strings.ToLower(filepath.Ext(path))] {
		return KindText
	}
	if err == nil && len(head) > 0 && utf8.Valid(head) && !containsNUL(head) {
		return KindText
	}
	return KindOther
}

// ExtractAll 并发计算一批文件的特征向量，结果顺序与输入一致
func (e *Extractor) ExtractAll(ctx context.Context, paths []string, workers int) ([]Vector, error) {
	if workers <= 0 {
		workers = internal.DefaultWorkers
	}

	out := make([]Vector, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.Extract(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExtSignature 扩展名的确定性数值签名，扩展名先转为小写
func ExtSignature(ext string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(ext)))
	return float64(h.Sum32() % 1000)
}

// Cosine 计算两个向量的余弦相似度，任一向量为零向量时返回 0
func Cosine(a, b Vector) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func readHead(fs afero.Fs, path string, n int) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:read], nil
}

func containsNUL(b []byte) bool {
	for _, c := range b {
		if c == 0 {
			return true
		}
	}
	return false
}

// Similarity 近似重复判定使用的相似度：各分量先取 log1p 再求余弦，
// 避免文件大小这类量级很大的分量主导结果
func Similarity(a, b Vector) float64 {
	var la, lb Vector
	for i := range a {
		la[i] = math.Copysign(math.Log1p(math.Abs(a[i])), a[i])
		lb[i] = math.Copysign(math.Log1p(math.Abs(b[i])), b[i])
	}
	return Cosine(la, lb)
}
