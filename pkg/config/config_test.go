package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
)

func TestLoad_MissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Images", cfg.Folders[0].Category)
	assert.Equal(t, "type", cfg.Rules.OrganizationMode)

	_, err = os.Stat(path)
	require.NoError(t, err, "默认配置文件应被写出")

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Folders, again.Folders)
	assert.Equal(t, cfg.SizeCategories, again.SizeCategories)
}

func TestLoad_MalformedFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	cfg, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internal.ErrConfig))
	require.NotNil(t, cfg)
	assert.Equal(t, Default().Folders, cfg.Folders)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{"rules": {"min_duplicate_similarity": 3}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	assert.True(t, errors.Is(err, internal.ErrConfig))
	assert.Equal(t, 0.85, cfg.Rules.MinDuplicateSimilarity)
}

func TestLoad_MergesFoldersInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{
  "folders": {
    "Zeta": ["ZZ", ".zz2"],
    "Images": [".heic"]
  },
  "rules": {"organization_mode": "SIZE"},
  "size_categories": {"small": {"max_size_mb": 2, "folder_name": "tiny"}}
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// 同名分类被覆盖且位置不变，新分类追加在末尾并保留大小写
	assert.Equal(t, "Images", cfg.Folders[0].Category)
	assert.Equal(t, []string{".heic"}, cfg.Folders[0].Extensions)
	last := cfg.Folders[len(cfg.Folders)-1]
	assert.Equal(t, "Zeta", last.Category)
	assert.Equal(t, []string{".zz", ".zz2"}, last.Extensions)

	assert.Equal(t, "size", cfg.Rules.OrganizationMode)
	assert.Equal(t, "tiny", cfg.SizeCategories[SizeSmall].FolderName)
	assert.Equal(t, int64(2*1024*1024), cfg.SizeThresholds()[0])
	assert.Equal(t, "medium_files", cfg.SizeCategories[SizeMedium].FolderName)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	dup := Default()
	dup.Folders = append(dup.Folders, FolderRule{Category: "Images"})
	assert.Error(t, dup.Validate())

	sizes := Default()
	sizes.SizeCategories[SizeMedium] = SizeCategory{MaxSizeMB: 0.5, FolderName: "m"}
	assert.Error(t, sizes.Validate())

	mode := Default()
	mode.Rules.OrganizationMode = "alphabetical"
	assert.Error(t, mode.Validate())
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, ".jpg", NormalizeExt("JPG"))
	assert.Equal(t, ".tar", NormalizeExt(" .TAR "))
	assert.Equal(t, "", NormalizeExt(""))
}

func TestOrderedFolders_RoundTrip(t *testing.T) {
	in := orderedFolders{
		{Category: "B", Extensions: []string{".b"}},
		{Category: "A", Extensions: nil},
	}
	data, err := in.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"B":[".b"],"A":[]}`, string(data))

	var out orderedFolders
	require.NoError(t, out.UnmarshalJSON(data))
	assert.Equal(t, "B", out[0].Category)
	assert.Equal(t, "A", out[1].Category)
}
