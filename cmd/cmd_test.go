package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestOrganizeCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "organize", src, dst, "--no-ledger", "--config", filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("organize failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "整理结果") {
		t.Errorf("Expected summary table, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dst, "Documents", "notes.txt")); err != nil {
		t.Errorf("Expected file in Documents: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Errorf("Expected default config to be written: %v", err)
	}
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := execute(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("Expected output to mention %s, got %s", path, out)
	}

	if _, err := execute(t, "config", "init", path); err == nil {
		t.Error("Expected an error when the config already exists")
	}
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"名称", "数量"}, [][]string{{"a", "1"}, {"b"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(got, "名称") || !strings.Contains(got, "a") {
		t.Errorf("Unexpected table:\n%s", got)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("Empty headers should render nothing")
	}
}
