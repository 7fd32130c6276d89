package organizer

import (
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
)

// moveFile 优先使用 rename，失败时（例如跨设备）复制后删除源文件
// beforeCopy 不为 nil 时在开始复制前调用，返回错误则放弃移动
func moveFile(fs afero.Fs, src, dst string, beforeCopy func() error) error {
	err := fs.Rename(src, dst)
	if err == nil {
		return nil
	}
	logger.Get().Debug().
		Err(err).
		Str("source", src).
		Str("destination", dst).
		Msg("直接重命名失败，尝试复制后删除")

	if beforeCopy != nil {
		if err := beforeCopy(); err != nil {
			return err
		}
	}
	if err := copyFile(fs, src, dst); err != nil {
		return err
	}
	if err := fs.Remove(src); err != nil {
		return internal.Wrap(internal.ErrIO, "删除原文件", src, err)
	}
	return nil
}

// copyFile 复制文件内容并保留权限和修改时间，目标文件必须不存在
// 复制失败时删除写了一半的目标文件
func copyFile(fs afero.Fs, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return internal.Wrap(internal.ErrIO, "读取源文件信息", src, err)
	}

	sourceFile, err := fs.Open(src)
	if err != nil {
		return internal.Wrap(internal.ErrIO, "打开源文件", src, err)
	}
	defer sourceFile.Close()

	destFile, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return internal.Wrap(internal.ErrIO, "创建目标文件", dst, err)
	}

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		_ = fs.Remove(dst)
		return internal.Wrap(internal.ErrIO, "复制文件内容", dst, err)
	}
	if err = destFile.Close(); err != nil {
		_ = fs.Remove(dst)
		return internal.Wrap(internal.ErrIO, "关闭目标文件", dst, err)
	}

	if cerr := fs.Chtimes(dst, info.ModTime(), info.ModTime()); cerr != nil {
		logger.Get().Debug().Err(cerr).Str("path", dst).Msg("无法保留修改时间")
	}
	return nil
}
