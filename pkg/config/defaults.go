package config

import "github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"

// 尺寸分桶的固定键，按阈值从小到大排列
const (
	SizeSmall     = "small"
	SizeMedium    = "medium"
	SizeLarge     = "large"
	SizeVeryLarge = "very_large"
)

// SizeOrder 尺寸分桶的判定顺序
var SizeOrder = []string{SizeSmall, SizeMedium, SizeLarge, SizeVeryLarge}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Folders: []FolderRule{
			{Category: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp"}},
			{Category: "Documents", Extensions: []string{".pdf", ".docx", ".doc", ".txt", ".odt", ".rtf"}},
			{Category: "Videos", Extensions: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"}},
			{Category: "Audio", Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma", ".m4a"}},
			{Category: "Archives", Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"}},
			{Category: "Code", Extensions: []string{".py", ".js", ".html", ".css", ".cpp", ".java", ".c", ".h", ".php", ".rb", ".go"}},
			{Category: "Spreadsheets", Extensions: []string{".xlsx", ".xls", ".csv", ".ods"}},
			{Category: "Presentations", Extensions: []string{".pptx", ".ppt", ".odp"}},
			{Category: "Ebooks", Extensions: []string{".epub", ".mobi", ".azw3"}},
			{Category: "Executables", Extensions: []string{".exe", ".msi", ".deb", ".rpm", ".app"}},
		},
		Rules: Rules{
			UseAIClassification:     false,
			UseContentAnalysis:      false,
			MinDuplicateSimilarity:  0.85,
			ClusterSimilarFiles:     false,
			PreserveFolderStructure: true,
			OrganizationMode:        string(internal.StrategyType),
		},
		SizeCategories: map[string]SizeCategory{
			SizeSmall:     {MaxSizeMB: 1, FolderName: "small_files"},
			SizeMedium:    {MaxSizeMB: 10, FolderName: "medium_files"},
			SizeLarge:     {MaxSizeMB: 100, FolderName: "large_files"},
			SizeVeryLarge: {FolderName: "very_large_files"},
		},
		AI: AIConfig{
			BaseURL:           "",
			Model:             "gpt-4o-mini",
			TimeoutSeconds:    10,
			RequestsPerMinute: 60,
		},
		Clustering: ClusteringConfig{
			Eps:        0.5,
			MinSamples: 2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Ledger: LedgerConfig{
			Path: internal.DefaultLedgerPath,
		},
	}
}
