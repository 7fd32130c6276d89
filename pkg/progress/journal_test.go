package progress

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
)

func TestOpen_Empty(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/dst", 0755)

	j, err := Open(fs, "/dst")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(j.Leftover()) != 0 {
		t.Errorf("Expected no leftover moves, got %d", len(j.Leftover()))
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if Exists(fs, "/dst") {
		t.Error("Journal file should be removed after a clean close")
	}
}

func TestJournal_CompletedMovesLeaveNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/dst", 0755)

	j, err := Open(fs, "/dst")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := j.Begin("/src/a.txt", "/dst/Docs/a.txt"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if j.PendingCount() != 1 {
		t.Errorf("Expected 1 pending, got %d", j.PendingCount())
	}
	if err := j.Commit("/src/a.txt", "/dst/Docs/a.txt"); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if Exists(fs, "/dst") {
		t.Error("Journal file should be removed")
	}
}

func TestJournal_CrashLeavesIntent(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/dst", 0755)

	j, _ := Open(fs, "/dst")
	_ = j.Begin("/src/a.txt", "/dst/Docs/a.txt")
	_ = j.Commit("/src/a.txt", "/dst/Docs/a.txt")
	// 第二次移动只写了意图就中断
	_ = j.Begin("/src/b\tweird.txt", "/dst/Docs/b\tweird.txt")
	_ = j.Close()

	if !Exists(fs, "/dst") {
		t.Fatal("Journal with pending intents must be kept")
	}

	reopened, err := Open(fs, "/dst")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	leftover := reopened.Leftover()
	if len(leftover) != 1 {
		t.Fatalf("Expected 1 leftover move, got %d", len(leftover))
	}
	if leftover[0].Src != "/src/b\tweird.txt" || leftover[0].Dst != "/dst/Docs/b\tweird.txt" {
		t.Errorf("Unexpected leftover %+v", leftover[0])
	}

	_ = reopened.Commit(leftover[0].Src, leftover[0].Dst)
	_ = reopened.Close()
	if Exists(fs, "/dst") {
		t.Error("Journal should be removed once leftovers are settled")
	}
}

func TestJournal_IgnoresTornLine(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("/dst", internal.JournalFileName)
	content := "intent\t\"/src/a\"\t\"/dst/a\"\nintent\t\"/src/b"
	_ = afero.WriteFile(fs, path, []byte(content), 0644)

	j, err := Open(fs, "/dst")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	if got := j.Leftover(); len(got) != 1 || got[0].Src != "/src/a" {
		t.Errorf("Expected only /src/a, got %+v", got)
	}
}

func TestJournal_CopyMarker(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/dst", 0755)

	j, _ := Open(fs, "/dst")
	_ = j.Begin("/src/a.txt", "/dst/Docs/a.txt")
	_ = j.Begin("/src/b.txt", "/dst/Docs/b.txt")
	if err := j.BeginCopy("/src/b.txt", "/dst/Docs/b.txt"); err != nil {
		t.Fatalf("BeginCopy() error = %v", err)
	}
	_ = j.Close()

	reopened, err := Open(fs, "/dst")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	leftover := reopened.Leftover()
	if len(leftover) != 2 {
		t.Fatalf("Expected 2 leftover moves, got %d", len(leftover))
	}
	if reopened.Copying(leftover[0]) {
		t.Errorf("%s was renamed, not copied", leftover[0].Src)
	}
	if !reopened.Copying(leftover[1]) {
		t.Errorf("%s should be marked as copying", leftover[1].Src)
	}
}
