// Package scanner 枚举待整理的文件。
//
// 非递归模式按文件名排序列出源目录的直接子文件；递归模式的顺序是
// afero.Walk 的词法顺序。两种顺序在一次运行内都是稳定的。
package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
)

type FileWalker struct {
	IncludeHidden bool

	fs      afero.Fs
	ignored map[string]bool
}

func NewFileWalker(fs afero.Fs) *FileWalker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileWalker{
		IncludeHidden: true,
		fs:            fs,
		ignored: map[string]bool{
			internal.LockFileName:    true,
			internal.JournalFileName: true,
		},
	}
}

// Walk 递归遍历普通文件，无法访问的子路径被跳过
func (w *FileWalker) Walk(root string, callback func(path string, info os.FileInfo) error) error {
	return afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Get().Warn().Err(err).Str("path", path).Msg("无法访问路径，已跳过")
			return nil
		}

		if info.IsDir() {
			if path != root && w.skip(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isFile(info) || w.skip(info.Name()) {
			return nil
		}

		return callback(path, info)
	})
}

func (w *FileWalker) CountFiles(dirs []string) (int, error) {
	logger.Get().Info().Msgf("开始统计文件数量，共 %d 个目录", len(dirs))

	count := 0
	for _, dir := range dirs {
		logger.Get().Debug().Msgf("扫描目录: %s", dir)
		err := w.Walk(dir, func(path string, info os.FileInfo) error {
			count++
			return nil
		})
		if err != nil {
			logger.Get().Error().Err(err).Msgf("扫描目录失败: %s", dir)
			return 0, err
		}
	}

	logger.Get().Info().Msgf("文件统计完成，共找到 %d 个文件", count)
	return count, nil
}

// Scan 枚举源目录中的文件
// recursive 为 false 时只返回直接子文件；为 true 时递归遍历，
// 若 preserve 为 true，子目录中的文件被标记为保持原位
// 源目录本身不可读时返回 internal.ErrSourceRoot
func (w *FileWalker) Scan(root string, recursive, preserve bool) ([]internal.FileRecord, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, internal.Wrap(internal.ErrSourceRoot, "解析源目录", root, err)
	}
	info, err := w.fs.Stat(abs)
	if err != nil {
		return nil, internal.Wrap(internal.ErrSourceRoot, "读取源目录", abs, err)
	}
	if !info.IsDir() {
		return nil, internal.Wrap(internal.ErrSourceRoot, "源路径不是目录", abs, nil)
	}

	var records []internal.FileRecord

	if !recursive {
		entries, err := afero.ReadDir(w.fs, abs)
		if err != nil {
			return nil, internal.Wrap(internal.ErrSourceRoot, "列出源目录", abs, err)
		}
		for _, entry := range entries {
			if !isFile(entry) || w.skip(entry.Name()) {
				continue
			}
			records = append(records, NewRecord(filepath.Join(abs, entry.Name()), entry, "."))
		}
		logger.Get().Info().Str("root", abs).Int("files", len(records)).Msg("源目录扫描完成")
		return records, nil
	}

	err = w.Walk(abs, func(path string, info os.FileInfo) error {
		rel, err := filepath.Rel(abs, filepath.Dir(path))
		if err != nil {
			rel = "."
		}
		rec := NewRecord(path, info, rel)
		rec.Preserve = preserve && rel != "."
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, internal.Wrap(internal.ErrSourceRoot, "遍历源目录", abs, err)
	}

	logger.Get().Info().Str("root", abs).Int("files", len(records)).Bool("recursive", true).Msg("源目录扫描完成")
	return records, nil
}

// NewRecord 根据文件信息构造 FileRecord
// 创建时间在多数文件系统上无法可靠获取，这里取修改时间
func NewRecord(path string, info os.FileInfo, relDir string) internal.FileRecord {
	name := info.Name()
	return internal.FileRecord{
		Path:        path,
		Name:        name,
		Ext:         strings.ToLower(filepath.Ext(name)),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		CreatedTime: info.ModTime(),
		RelDir:      relDir,
	}
}

func (w *FileWalker) skip(name string) bool {
	if w.ignored[name] {
		return true
	}
	return !w.IncludeHidden && strings.HasPrefix(name, ".")
}

// isFile 普通文件和符号链接都视为文件
func isFile(info os.FileInfo) bool {
	return info.Mode().IsRegular() || info.Mode()&os.ModeSymlink != 0
}
