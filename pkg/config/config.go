package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
)

// FolderRule 分类名称到扩展名列表的映射，按配置文件中的顺序匹配
type FolderRule struct {
	Category   string
	Extensions []string
}

type Rules struct {
	UseAIClassification     bool    `mapstructure:"use_ai_classification" json:"use_ai_classification"`
	UseContentAnalysis      bool    `mapstructure:"use_content_analysis" json:"use_content_analysis"`
	MinDuplicateSimilarity  float64 `mapstructure:"min_duplicate_similarity" json:"min_duplicate_similarity"`
	ClusterSimilarFiles     bool    `mapstructure:"cluster_similar_files" json:"cluster_similar_files"`
	PreserveFolderStructure bool    `mapstructure:"preserve_folder_structure" json:"preserve_folder_structure"`
	OrganizationMode        string  `mapstructure:"organization_mode" json:"organization_mode"`
}

// SizeCategory 尺寸分桶，MaxSizeMB 为不包含的上界；very_large 没有上界
type SizeCategory struct {
	MaxSizeMB  float64 `mapstructure:"max_size_mb" json:"max_size_mb,omitempty"`
	FolderName string  `mapstructure:"folder_name" json:"folder_name"`
}

type AIConfig struct {
	BaseURL           string `mapstructure:"base_url" json:"base_url"`
	APIKey            string `mapstructure:"api_key" json:"api_key"`
	Model             string `mapstructure:"model" json:"model"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" json:"timeout_seconds"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" json:"requests_per_minute"`
}

type ClusteringConfig struct {
	Eps        float64 `mapstructure:"eps" json:"eps"`
	MinSamples int     `mapstructure:"min_samples" json:"min_samples"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"`
	File  string `mapstructure:"file" json:"file"`
}

type LedgerConfig struct {
	Path  string `mapstructure:"path" json:"path"`
	JSONL string `mapstructure:"jsonl" json:"jsonl"`
}

// Config 整理器配置，每次运行持有一份，不使用全局单例
type Config struct {
	Folders        []FolderRule            `mapstructure:"-"`
	Rules          Rules                   `mapstructure:"rules"`
	SizeCategories map[string]SizeCategory `mapstructure:"size_categories"`
	AI             AIConfig                `mapstructure:"ai"`
	Clustering     ClusteringConfig        `mapstructure:"clustering"`
	Logging        LoggingConfig           `mapstructure:"logging"`
	Ledger         LedgerConfig            `mapstructure:"ledger"`
}

// Load 加载配置文件
// 文件不存在时写出默认配置并返回默认值；文件格式错误时返回默认配置
// 和一个标记为 internal.ErrConfig 的错误，调用方只需记录警告，不应中止
func Load(path string) (*Config, error) {
	if path == "" {
		path = internal.DefaultConfigPath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return Default(), internal.Wrap(internal.ErrConfig, "展开配置路径", path, err)
	}

	raw, err := os.ReadFile(expanded)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Default(), internal.Wrap(internal.ErrConfig, "读取配置", expanded, err)
		}

		cfg, derr := decode(newViper(), nil)
		if derr != nil {
			return Default(), internal.Wrap(internal.ErrConfig, "解析环境变量", expanded, derr)
		}
		if werr := Write(expanded, Default()); werr != nil {
			logger.Get().Warn().Err(werr).Str("path", expanded).Msg("无法写出默认配置文件")
		} else {
			logger.Get().Info().Str("path", expanded).Msg("已创建默认配置文件")
		}
		return cfg, nil
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return Default(), internal.Wrap(internal.ErrConfig, "解析配置", expanded, err)
	}

	cfg, err := decode(v, raw)
	if err != nil {
		return Default(), internal.Wrap(internal.ErrConfig, "解析配置", expanded, err)
	}

	logger.Get().Info().Str("path", expanded).Msg("已加载配置文件")
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix("ORGANIZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())
	return v
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("rules.use_ai_classification", d.Rules.UseAIClassification)
	v.SetDefault("rules.use_content_analysis", d.Rules.UseContentAnalysis)
	v.SetDefault("rules.min_duplicate_similarity", d.Rules.MinDuplicateSimilarity)
	v.SetDefault("rules.cluster_similar_files", d.Rules.ClusterSimilarFiles)
	v.SetDefault("rules.preserve_folder_structure", d.Rules.PreserveFolderStructure)
	v.SetDefault("rules.organization_mode", d.Rules.OrganizationMode)

	for name, sc := range d.SizeCategories {
		v.SetDefault("size_categories."+name+".max_size_mb", sc.MaxSizeMB)
		v.SetDefault("size_categories."+name+".folder_name", sc.FolderName)
	}

	v.SetDefault("ai.base_url", d.AI.BaseURL)
	v.SetDefault("ai.api_key", d.AI.APIKey)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.timeout_seconds", d.AI.TimeoutSeconds)
	v.SetDefault("ai.requests_per_minute", d.AI.RequestsPerMinute)

	v.SetDefault("clustering.eps", d.Clustering.Eps)
	v.SetDefault("clustering.min_samples", d.Clustering.MinSamples)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("ledger.path", d.Ledger.Path)
	v.SetDefault("ledger.jsonl", d.Ledger.JSONL)
}

// decode 从 viper 解出配置；folders 单独按原始顺序解析，
// 因为 viper 会把键名转成小写并丢失对象顺序
func decode(v *viper.Viper, raw []byte) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解码配置: %w", err)
	}

	if len(raw) > 0 {
		var doc struct {
			Folders orderedFolders `json:"folders"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("解析 folders: %w", err)
		}
		cfg.Folders = mergeFolders(cfg.Folders, doc.Folders)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFolders 用加载的分类覆盖同名默认分类，新分类追加在末尾
func mergeFolders(defaults, loaded []FolderRule) []FolderRule {
	if len(loaded) == 0 {
		return defaults
	}
	merged := make([]FolderRule, len(defaults))
	copy(merged, defaults)

	index := make(map[string]int, len(merged))
	for i, rule := range merged {
		index[rule.Category] = i
	}
	for _, rule := range loaded {
		if i, ok := index[rule.Category]; ok {
			merged[i] = rule
			continue
		}
		index[rule.Category] = len(merged)
		merged = append(merged, rule)
	}
	return merged
}

func (c *Config) normalize() {
	for i := range c.Folders {
		c.Folders[i].Category = strings.TrimSpace(c.Folders[i].Category)
		exts := make([]string, 0, len(c.Folders[i].Extensions))
		for _, ext := range c.Folders[i].Extensions {
			if ext = NormalizeExt(ext); ext != "" {
				exts = append(exts, ext)
			}
		}
		c.Folders[i].Extensions = exts
	}
	c.Rules.OrganizationMode = strings.ToLower(strings.TrimSpace(c.Rules.OrganizationMode))
}

// Validate 校验配置的一致性
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Folders))
	for _, rule := range c.Folders {
		if rule.Category == "" {
			return fmt.Errorf("folders: 分类名称不能为空")
		}
		if seen[rule.Category] {
			return fmt.Errorf("folders: 分类名称重复: %s", rule.Category)
		}
		seen[rule.Category] = true
	}

	if c.Rules.MinDuplicateSimilarity < 0 || c.Rules.MinDuplicateSimilarity > 1 {
		return fmt.Errorf("rules.min_duplicate_similarity 必须在 [0,1] 范围内: %v", c.Rules.MinDuplicateSimilarity)
	}

	switch internal.Strategy(c.Rules.OrganizationMode) {
	case internal.StrategyType, internal.StrategyDate, internal.StrategySize, internal.StrategyContent:
	case "ai":
	default:
		return fmt.Errorf("rules.organization_mode 无效: %q", c.Rules.OrganizationMode)
	}

	prev := 0.0
	for _, key := range SizeOrder {
		sc, ok := c.SizeCategories[key]
		if !ok {
			return fmt.Errorf("size_categories 缺少 %s", key)
		}
		if strings.TrimSpace(sc.FolderName) == "" {
			return fmt.Errorf("size_categories.%s.folder_name 不能为空", key)
		}
		if key == SizeVeryLarge {
			continue
		}
		if sc.MaxSizeMB <= prev {
			return fmt.Errorf("size_categories.%s.max_size_mb 必须大于 %v", key, prev)
		}
		prev = sc.MaxSizeMB
	}

	if c.Clustering.Eps <= 0 {
		return fmt.Errorf("clustering.eps 必须大于 0")
	}
	if c.Clustering.MinSamples < 1 {
		return fmt.Errorf("clustering.min_samples 必须至少为 1")
	}
	return nil
}

// SizeThresholds 返回 small/medium/large 的上界（字节）
func (c *Config) SizeThresholds() [3]int64 {
	var out [3]int64
	for i, key := range SizeOrder[:3] {
		out[i] = int64(c.SizeCategories[key].MaxSizeMB * 1024 * 1024)
	}
	return out
}

// SizeFolders 返回尺寸分桶到目录名的映射
func (c *Config) SizeFolders() map[string]string {
	out := make(map[string]string, len(c.SizeCategories))
	for key, sc := range c.SizeCategories {
		out[key] = sc.FolderName
	}
	return out
}

// Write 以 JSON 格式写出配置文件，folders 保持顺序
func Write(path string, cfg *Config) error {
	doc := struct {
		Folders        orderedFolders          `json:"folders"`
		Rules          Rules                   `json:"rules"`
		SizeCategories map[string]SizeCategory `json:"size_categories"`
		AI             AIConfig                `json:"ai"`
		Clustering     ClusteringConfig        `json:"clustering"`
		Logging        LoggingConfig           `json:"logging"`
		Ledger         LedgerConfig            `json:"ledger"`
	}{
		Folders:        orderedFolders(cfg.Folders),
		Rules:          cfg.Rules,
		SizeCategories: cfg.SizeCategories,
		AI:             cfg.AI,
		Clustering:     cfg.Clustering,
		Logging:        cfg.Logging,
		Ledger:         cfg.Ledger,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("编码配置: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录: %w", err)
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// NormalizeExt 转成小写并补全前导点
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ExpandPath 展开以 ~/ 开头的路径
func ExpandPath(path string) (string, error) {
	if len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == '\\') {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
