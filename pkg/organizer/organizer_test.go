package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/classifier"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/config"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/progress"
)

const mb = 1024 * 1024

type memSink struct {
	mu     sync.Mutex
	events []ledger.Event
}

func (s *memSink) Record(_ context.Context, ev ledger.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *memSink) Close() error { return nil }

func (s *memSink) outcomes() map[internal.Outcome]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[internal.Outcome]int)
	for _, ev := range s.events {
		out[ev.Outcome]++
	}
	return out
}

// brokenFs 让指定文件名的移动和复制都失败
type brokenFs struct {
	afero.Fs
	name string
}

func (b brokenFs) Rename(oldname, newname string) error {
	if filepath.Base(oldname) == b.name {
		return errors.New("permission denied")
	}
	return b.Fs.Rename(oldname, newname)
}

func (b brokenFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if filepath.Base(name) == b.name && flag&os.O_CREATE != 0 {
		return nil, errors.New("permission denied")
	}
	return b.Fs.OpenFile(name, flag, perm)
}

func newOrganizer(fs afero.Fs, sink ledger.Sink) *Organizer {
	cls := classifier.New(config.Default(), classifier.WithFs(fs))
	return New(fs, cls, WithSink(sink))
}

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

// sparse 在真实文件系统上创建指定大小的稀疏文件
func sparse(t *testing.T, path string, size int64) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
}

func TestOrganize_ByType(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	sparse(t, filepath.Join(src, "a.jpg"), 2*mb)
	sparse(t, filepath.Join(src, "b.pdf"), 500*1024)
	sparse(t, filepath.Join(src, "c.mp4"), 200*mb)

	fs := afero.NewOsFs()
	stats, err := newOrganizer(fs, nil).Organize(context.Background(), src, dst, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Moved)
	assert.Equal(t, 0, stats.Duplicates)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, 0, stats.Preserved)
	assert.Equal(t, 3, stats.Total)

	assert.FileExists(t, filepath.Join(dst, "Images", "a.jpg"))
	assert.FileExists(t, filepath.Join(dst, "Documents", "b.pdf"))
	assert.FileExists(t, filepath.Join(dst, "Videos", "c.mp4"))
	assert.NoFileExists(t, filepath.Join(src, "a.jpg"))
	assert.NoFileExists(t, filepath.Join(dst, internal.JournalFileName))
}

func TestOrganize_BySize(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	sparse(t, filepath.Join(src, "small.bin"), mb/2)
	sparse(t, filepath.Join(src, "huge.bin"), 150*mb)

	opts := DefaultOptions()
	opts.Strategy = internal.StrategySize
	stats, err := newOrganizer(afero.NewOsFs(), nil).Organize(context.Background(), src, dst, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Moved)
	assert.FileExists(t, filepath.Join(dst, "small_files", "small.bin"))
	assert.FileExists(t, filepath.Join(dst, "very_large_files", "huge.bin"))
}

func TestOrganize_ExactDuplicateDifferentName(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/src/doc.txt", "hello world")
	write(t, fs, "/src/doc_copy.txt", "hello world")
	sink := &memSink{}

	stats, err := newOrganizer(fs, sink).Organize(context.Background(), "/src", "/dst", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 1, stats.Duplicates)

	entries, err := afero.ReadDir(fs, "/dst/Documents")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "doc.txt", entries[0].Name())

	left, err := afero.ReadDir(fs, "/src")
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Equal(t, 1, sink.outcomes()[internal.OutcomeDuplicate])
}

func TestOrganize_ExactDuplicateSameName(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/dst/Documents/report.txt", "quarterly")
	write(t, fs, "/src/report.txt", "quarterly")

	stats, err := newOrganizer(fs, nil).Organize(context.Background(), "/src", "/dst", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Moved)
	assert.Equal(t, 1, stats.Duplicates)
	exists, _ := afero.Exists(fs, "/src/report.txt")
	assert.False(t, exists)
	exists, _ = afero.Exists(fs, "/dst/Documents/report_1.txt")
	assert.False(t, exists)
}

func TestOrganize_KeepDuplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/src/doc.txt", "hello world")
	write(t, fs, "/src/doc_copy.txt", "hello world")
	sink := &memSink{}

	opts := DefaultOptions()
	opts.RemoveExactDuplicates = false
	stats, err := newOrganizer(fs, sink).Organize(context.Background(), "/src", "/dst", opts)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 1, stats.Duplicates)
	exists, _ := afero.Exists(fs, "/src/doc_copy.txt")
	assert.True(t, exists, "duplicate should stay in place")
	assert.Equal(t, 1, sink.outcomes()[internal.OutcomeSkipped])
}

func TestOrganize_RenameOnCollision(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/dst/Documents/a.txt", "old content")
	write(t, fs, "/src/a.txt", "new content!")
	sink := &memSink{}

	stats, err := newOrganizer(fs, sink).Organize(context.Background(), "/src", "/dst", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 1, stats.Renamed)
	assert.Equal(t, 0, stats.Duplicates)

	data, err := afero.ReadFile(fs, "/dst/Documents/a_1.txt")
	require.NoError(t, err)
	assert.Equal(t, "new content!", string(data))
	data, err = afero.ReadFile(fs, "/dst/Documents/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "old content", string(data))
	assert.Equal(t, 1, sink.outcomes()[internal.OutcomeRenamed])
}

func TestOrganize_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/data/a.jpg", "jpeg")
	write(t, fs, "/data/b.txt", "text")
	o := newOrganizer(fs, nil)

	first, err := o.Organize(context.Background(), "/data", "", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Moved)

	second, err := o.Organize(context.Background(), "/data", "", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Moved)
	assert.Equal(t, 0, second.Total)
	assert.NotEqual(t, first.RunID, second.RunID)

	exists, _ := afero.Exists(fs, "/data/Images/a.jpg")
	assert.True(t, exists)
}

func TestOrganize_RecursivePreserve(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/src/top.txt", "top")
	write(t, fs, "/src/project/notes.txt", "nested")

	opts := DefaultOptions()
	opts.IncludeSubfolders = true
	stats, err := newOrganizer(fs, nil).Organize(context.Background(), "/src", "/dst", opts)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 1, stats.Preserved)
	exists, _ := afero.Exists(fs, "/src/project/notes.txt")
	assert.True(t, exists)
	exists, _ = afero.Exists(fs, "/dst/Documents/top.txt")
	assert.True(t, exists)
}

func TestOrganize_RecursiveFlatten(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/src/top.txt", "top")
	write(t, fs, "/src/project/notes.txt", "nested")

	opts := DefaultOptions()
	opts.IncludeSubfolders = true
	opts.PreserveStructure = false
	stats, err := newOrganizer(fs, nil).Organize(context.Background(), "/src", "/dst", opts)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Moved)
	assert.Equal(t, 0, stats.Preserved)
	exists, _ := afero.Exists(fs, "/dst/Documents/notes.txt")
	assert.True(t, exists)
}

func TestOrganize_PerFileFailureContinues(t *testing.T) {
	base := afero.NewMemMapFs()
	write(t, base, "/src/bad.txt", "cannot move")
	write(t, base, "/src/good.txt", "fine")
	fs := brokenFs{Fs: base, name: "bad.txt"}
	sink := &memSink{}

	stats, err := newOrganizer(fs, sink).Organize(context.Background(), "/src", "/dst", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, sink.outcomes()[internal.OutcomeFailed])

	exists, _ := afero.Exists(base, "/src/bad.txt")
	assert.True(t, exists)
	exists, _ = afero.Exists(base, "/dst/Documents/bad.txt")
	assert.False(t, exists, "partial copy should be cleaned up")
	exists, _ = afero.Exists(base, "/dst/Documents/good.txt")
	assert.True(t, exists)
}

func TestOrganize_MissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := newOrganizer(fs, nil).Organize(context.Background(), "/nope", "/dst", DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, internal.ErrSourceRoot))
}

func TestOrganize_DryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/src/a.txt", "one")
	write(t, fs, "/src/b.jpg", "two")
	write(t, fs, "/src/b_copy.jpg", "two")
	sink := &memSink{}

	opts := DefaultOptions()
	opts.DryRun = true
	stats, err := newOrganizer(fs, sink).Organize(context.Background(), "/src", "/dst", opts)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Moved)
	assert.Equal(t, 1, stats.Duplicates)

	for _, name := range []string{"a.txt", "b.jpg", "b_copy.jpg"} {
		exists, _ := afero.Exists(fs, "/src/"+name)
		assert.True(t, exists, "%s should not be touched", name)
	}
	exists, _ := afero.DirExists(fs, "/dst")
	assert.False(t, exists)
	for _, ev := range sink.events {
		assert.True(t, strings.HasPrefix(ev.Detail, "dry-run"), "detail %q", ev.Detail)
	}
}

func TestOrganize_RecoversInterruptedMove(t *testing.T) {
	fs := afero.NewMemMapFs()
	// 上次运行在移动完成后、记账前崩溃
	write(t, fs, "/dst/Documents/gone.txt", "moved before crash")
	write(t, fs, "/src/next.txt", "still to do")
	journal := fmt.Sprintf("intent\t%s\t%s\n", strconv.Quote("/src/gone.txt"), strconv.Quote("/dst/Documents/gone.txt"))
	write(t, fs, filepath.Join("/dst", internal.JournalFileName), journal)
	sink := &memSink{}

	stats, err := newOrganizer(fs, sink).Organize(context.Background(), "/src", "/dst", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Recovered)
	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 1, sink.outcomes()[internal.OutcomeRecovered])
	assert.False(t, progress.Exists(fs, "/dst"))
}

func TestOrganize_InterruptedCopyRemovesPartialTarget(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/src/big.txt", "the full content")
	write(t, fs, "/dst/Documents/big.txt", "the fu")
	src, dst := strconv.Quote("/src/big.txt"), strconv.Quote("/dst/Documents/big.txt")
	journal := fmt.Sprintf("intent\t%s\t%s\ncopy\t%s\t%s\n", src, dst, src, dst)
	write(t, fs, filepath.Join("/dst", internal.JournalFileName), journal)

	stats, err := newOrganizer(fs, nil).Organize(context.Background(), "/src", "/dst", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Recovered)
	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 0, stats.Renamed)
	data, err := afero.ReadFile(fs, "/dst/Documents/big.txt")
	require.NoError(t, err)
	assert.Equal(t, "the full content", string(data))
}

func TestOrganize_InterruptedRenameKeepsTarget(t *testing.T) {
	fs := afero.NewMemMapFs()
	// rename 已完成但未记账，之后源目录中又出现了同名的新文件
	write(t, fs, "/dst/Documents/a.txt", "original precious")
	write(t, fs, "/src/a.txt", "new")
	journal := fmt.Sprintf("intent\t%s\t%s\n", strconv.Quote("/src/a.txt"), strconv.Quote("/dst/Documents/a.txt"))
	write(t, fs, filepath.Join("/dst", internal.JournalFileName), journal)

	stats, err := newOrganizer(fs, nil).Organize(context.Background(), "/src", "/dst", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Recovered)
	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 1, stats.Renamed)

	data, err := afero.ReadFile(fs, "/dst/Documents/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "original precious", string(data))
	data, err = afero.ReadFile(fs, "/dst/Documents/a_1.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.False(t, progress.Exists(fs, "/dst"))
}

func TestOrganize_Cancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/src/a.txt", "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := newOrganizer(fs, nil).Organize(ctx, "/src", "/dst", DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stats.Moved)
}

func TestRestore(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/org/Documents/a.txt", "document")
	write(t, fs, "/org/Images/a.txt", "not really an image")
	write(t, fs, "/org/Images/b.jpg", "jpeg")
	sink := &memSink{}

	stats, err := newOrganizer(fs, sink).Restore(context.Background(), "/org", "/restore")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Moved)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, 3, sink.outcomes()[internal.OutcomeRestored])

	for _, name := range []string{"a.txt", "a_1.txt", "b.jpg"} {
		exists, _ := afero.Exists(fs, "/restore/"+name)
		assert.True(t, exists, name)
	}
	exists, _ := afero.Exists(fs, "/org/Documents/a.txt")
	assert.True(t, exists, "restore copies, originals stay")
}

func TestRestore_MissingDir(t *testing.T) {
	_, err := newOrganizer(afero.NewMemMapFs(), nil).Restore(context.Background(), "/missing", "/restore")
	assert.ErrorIs(t, err, internal.ErrSourceRoot)
}

func TestDefaultRestoreDir(t *testing.T) {
	now := time.Date(2024, time.May, 1, 9, 30, 5, 0, time.UTC)
	got := DefaultRestoreDir("/home/me/organized/", now)
	assert.Equal(t, filepath.FromSlash("/home/me/restored_files_20240501_093005"), got)
}
