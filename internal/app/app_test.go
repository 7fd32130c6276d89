package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/config"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
)

// testConfig 在临时目录写出配置，账本也放在临时目录
func testConfig(t *testing.T) (CommonOptions, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Ledger.Path = filepath.Join(dir, "ledger.db")
	path := filepath.Join(dir, "config.json")
	require.NoError(t, config.Write(path, cfg))
	return CommonOptions{ConfigPath: path, Quiet: true}, cfg.Ledger.Path
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRunOrganize_WritesLedger(t *testing.T) {
	common, ledgerPath := testConfig(t)
	src := t.TempDir()
	dst := t.TempDir()
	touch(t, filepath.Join(src, "a.txt"), "text")
	touch(t, filepath.Join(src, "b.jpg"), "jpeg")

	events := ledger.NewChanSink(16)
	result, err := RunOrganize(context.Background(), &OrganizeOptions{
		CommonOptions: common,
		SourceDir:     src,
		DestDir:       dst,
		Progress:      events,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Moved)
	assert.NoFileExists(t, filepath.Join(dst, internal.LockFileName))

	var seen int
	for range events.Events() {
		seen++
	}
	assert.Equal(t, 2, seen, "progress sink is closed with the run")

	stats, err := RunStats(context.Background(), &StatsOptions{
		CommonOptions: common,
		LedgerPath:    ledgerPath,
		RunID:         result.Stats.RunID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Statistics.TotalFiles)
	assert.Len(t, stats.Events, 2)
}

func TestRunOrganize_Locked(t *testing.T) {
	common, _ := testConfig(t)
	src := t.TempDir()
	dst := t.TempDir()
	touch(t, filepath.Join(src, "a.txt"), "text")

	lock := flock.New(filepath.Join(dst, internal.LockFileName))
	ok, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer lock.Unlock()

	_, err = RunOrganize(context.Background(), &OrganizeOptions{
		CommonOptions: common,
		SourceDir:     src,
		DestDir:       dst,
		NoLedger:      true,
	})
	require.ErrorIs(t, err, ErrLocked)
	assert.FileExists(t, filepath.Join(src, "a.txt"))
}

func TestRunOrganize_MissingSourceIsFatal(t *testing.T) {
	common, _ := testConfig(t)
	src := filepath.Join(t.TempDir(), "does-not-exist")

	result, err := RunOrganize(context.Background(), &OrganizeOptions{
		CommonOptions: common,
		SourceDir:     src,
		NoLedger:      true,
	})
	require.ErrorIs(t, err, internal.ErrSourceRoot)
	assert.Nil(t, result)

	_, statErr := os.Stat(src)
	assert.True(t, os.IsNotExist(statErr), "missing source must not be created")
}

func TestRunOrganize_UnknownStrategy(t *testing.T) {
	common, _ := testConfig(t)
	_, err := RunOrganize(context.Background(), &OrganizeOptions{
		CommonOptions: common,
		SourceDir:     t.TempDir(),
		Strategy:      "colour",
		NoLedger:      true,
	})
	assert.Error(t, err)
}

func TestRunOrganize_DryRunLeavesNoTrace(t *testing.T) {
	common, _ := testConfig(t)
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	touch(t, filepath.Join(src, "a.txt"), "text")

	result, err := RunOrganize(context.Background(), &OrganizeOptions{
		CommonOptions: common,
		SourceDir:     src,
		DestDir:       dst,
		DryRun:        true,
		NoLedger:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Moved)
	assert.NoDirExists(t, dst)
}

func TestRunDupes(t *testing.T) {
	common, _ := testConfig(t)
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.txt"), "same")
	touch(t, filepath.Join(dir, "sub", "b.txt"), "same")
	touch(t, filepath.Join(dir, "c.txt"), "diff")

	groups, err := RunDupes(context.Background(), &DupesOptions{CommonOptions: common, Folder: dir})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Paths, 2)
}

func TestRunRestore(t *testing.T) {
	common, _ := testConfig(t)
	org := t.TempDir()
	touch(t, filepath.Join(org, "Documents", "a.txt"), "one")
	touch(t, filepath.Join(org, "Other", "a.txt"), "two")
	restore := filepath.Join(t.TempDir(), "restored")

	stats, dir, err := RunRestore(context.Background(), &RestoreOptions{
		CommonOptions: common,
		OrganizedDir:  org,
		RestoreDir:    restore,
		NoLedger:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, restore, dir)
	assert.Equal(t, 2, stats.Moved)
	assert.FileExists(t, filepath.Join(restore, "a_1.txt"))
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	written, err := InitConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, path, written)
	assert.FileExists(t, path)

	_, err = InitConfig(path, false)
	assert.Error(t, err)

	_, err = InitConfig(path, true)
	assert.NoError(t, err)
}

func TestSetup_InvalidConfigFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	touch(t, path, "{ not json")

	cfg, err := setup(CommonOptions{ConfigPath: path, Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, config.Default().Rules.OrganizationMode, cfg.Rules.OrganizationMode)
}
