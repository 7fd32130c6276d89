// Package progress 维护目标目录中的预写移动日志。
//
// 每次移动前写入一条 intent 并落盘，移动完成后写入 done。rename 失败改为复制时
// 先写入一条 copy 并落盘。进程在 intent 和 done 之间崩溃时，下次打开日志会得到
// 未完成的条目，由调用方对照磁盘状态补记。
// 全部条目完成后关闭日志会删除日志文件。
package progress

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
)

const (
	opIntent = "intent"
	opCopy   = "copy"
	opDone   = "done"
)

// Move 一条移动记录
type Move struct {
	Src string
	Dst string
}

type Journal struct {
	fs       afero.Fs
	filePath string
	file     afero.File
	writer   *bufio.Writer
	mu       sync.Mutex

	// 上次运行遗留的未完成条目，按写入顺序
	leftover []Move
	// 遗留条目中已经开始复制的
	copying map[Move]bool
	// 本次打开后仍未完成的条目
	open map[Move]bool
}

// Open 打开或创建 dir 下的日志文件，并加载上次遗留的未完成条目
func Open(afs afero.Fs, dir string) (*Journal, error) {
	if afs == nil {
		afs = afero.NewOsFs()
	}
	filePath := filepath.Join(dir, internal.JournalFileName)

	j := &Journal{
		fs:       afs,
		filePath: filePath,
		open:     make(map[Move]bool),
		copying:  make(map[Move]bool),
	}

	if err := j.load(); err != nil {
		logger.Get().Warn().Err(err).Str("path", filePath).Msg("加载移动日志失败，将从零开始")
		j.leftover = nil
		j.copying = make(map[Move]bool)
	} else if len(j.leftover) > 0 {
		logger.Get().Warn().Int("pending", len(j.leftover)).Str("path", filePath).Msg("发现上次运行未完成的移动")
	}

	file, err := afs.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, internal.Wrap(internal.ErrIO, "打开移动日志", filePath, err)
	}
	j.file = file
	j.writer = bufio.NewWriter(file)

	for _, m := range j.leftover {
		j.open[m] = true
	}
	return j, nil
}

func (j *Journal) load() error {
	data, err := afero.ReadFile(j.fs, j.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	pending := make(map[Move]int)
	copying := make(map[Move]bool)
	var order []Move
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		op, m, err := parseLine(scanner.Text())
		if err != nil {
			// 崩溃可能留下写了一半的最后一行
			logger.Get().Debug().Err(err).Msg("忽略无法解析的日志行")
			continue
		}
		switch op {
		case opIntent:
			pending[m]++
			copying[m] = false
			order = append(order, m)
		case opCopy:
			copying[m] = true
		case opDone:
			if pending[m] > 0 {
				pending[m]--
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	seen := make(map[Move]bool)
	for _, m := range order {
		if pending[m] > 0 && !seen[m] {
			seen[m] = true
			j.leftover = append(j.leftover, m)
			if copying[m] {
				j.copying[m] = true
			}
		}
	}
	return nil
}

// Leftover 返回上次运行遗留的未完成移动
func (j *Journal) Leftover() []Move {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Move, len(j.leftover))
	copy(out, j.leftover)
	return out
}

// Copying 报告遗留条目在中断前是否已经开始复制
// 只有这样的条目，目标文件才可能是写了一半的
func (j *Journal) Copying(m Move) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.copying[m]
}

// Begin 在移动前记录意图，返回时记录已经落盘
func (j *Journal) Begin(src, dst string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	m := Move{Src: src, Dst: dst}
	if err := j.sync(opIntent, m); err != nil {
		return err
	}
	j.open[m] = true
	return nil
}

// BeginCopy 在复制回退开始前记录，返回时记录已经落盘
func (j *Journal) BeginCopy(src, dst string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sync(opCopy, Move{Src: src, Dst: dst})
}

func (j *Journal) sync(op string, m Move) error {
	if err := j.write(op, m); err != nil {
		return err
	}
	if err := j.writer.Flush(); err != nil {
		return internal.Wrap(internal.ErrIO, "刷新移动日志", j.filePath, err)
	}
	if err := j.file.Sync(); err != nil {
		return internal.Wrap(internal.ErrIO, "同步移动日志", j.filePath, err)
	}
	return nil
}

// Commit 记录移动已完成，也用于结清遗留条目
func (j *Journal) Commit(src, dst string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	m := Move{Src: src, Dst: dst}
	if err := j.write(opDone, m); err != nil {
		return err
	}
	delete(j.open, m)
	return nil
}

// PendingCount 返回尚未完成的条目数
func (j *Journal) PendingCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.open)
}

// Flush 强制刷新到磁盘
func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.writer.Flush()
}

// Close 关闭日志；没有未完成条目时删除日志文件
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}
	if err := j.file.Close(); err != nil {
		return err
	}

	if len(j.open) > 0 {
		logger.Get().Warn().Int("pending", len(j.open)).Str("path", j.filePath).Msg("移动日志中仍有未完成条目，保留日志文件")
		return nil
	}

	if err := j.fs.Remove(j.filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Get().Error().Err(err).Msgf("删除移动日志失败: %s", j.filePath)
		return err
	}
	logger.Get().Debug().Msgf("移动日志已删除: %s", j.filePath)
	return nil
}

func (j *Journal) write(op string, m Move) error {
	line := fmt.Sprintf("%s\t%s\t%s\n", op, strconv.Quote(m.Src), strconv.Quote(m.Dst))
	if _, err := j.writer.WriteString(line); err != nil {
		return internal.Wrap(internal.ErrIO, "写入移动日志", j.filePath, err)
	}
	return nil
}

func parseLine(line string) (string, Move, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 3 {
		return "", Move{}, fmt.Errorf("字段数错误: %q", line)
	}
	if parts[0] != opIntent && parts[0] != opCopy && parts[0] != opDone {
		return "", Move{}, fmt.Errorf("未知操作: %q", parts[0])
	}
	src, err := strconv.Unquote(parts[1])
	if err != nil {
		return "", Move{}, err
	}
	dst, err := strconv.Unquote(parts[2])
	if err != nil {
		return "", Move{}, err
	}
	return parts[0], Move{Src: src, Dst: dst}, nil
}

// Exists 检查 dir 下是否存在移动日志
func Exists(afs afero.Fs, dir string) bool {
	if afs == nil {
		afs = afero.NewOsFs()
	}
	ok, _ := afero.Exists(afs, filepath.Join(dir, internal.JournalFileName))
	return ok
}
