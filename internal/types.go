package internal

import "time"

// Strategy 分类策略
type Strategy string

const (
	StrategyType    Strategy = "type"
	StrategyDate    Strategy = "date"
	StrategySize    Strategy = "size"
	StrategyContent Strategy = "content"
)

// Decision 重复文件判定结果
type Decision int

const (
	// DecisionDistinct 内容不同，重命名后移动
	DecisionDistinct Decision = iota
	// DecisionExact 内容完全相同，丢弃源文件
	DecisionExact
	// DecisionSimilar 内容相似但不相同，重命名后移动并标记
	DecisionSimilar
)

func (d Decision) String() string {
	switch d {
	case DecisionExact:
		return "exact"
	case DecisionSimilar:
		return "similar"
	default:
		return "distinct"
	}
}

// Outcome 单个文件的最终状态
type Outcome string

const (
	OutcomeMoved     Outcome = "moved"
	OutcomeRenamed   Outcome = "renamed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeSimilar   Outcome = "similar"
	OutcomePreserved Outcome = "preserved"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	OutcomeRecovered Outcome = "recovered"
	OutcomeRestored  Outcome = "restored"
)

// FileRecord 一次运行中被枚举到的文件
type FileRecord struct {
	Path        string // 绝对路径，运行期间的唯一标识
	Name        string
	Ext         string // 小写，包含前导点；无扩展名时为空
	Size        int64
	ModTime     time.Time
	CreatedTime time.Time
	Preserve    bool   // 位于已有子目录中，保持不动
	RelDir      string // 相对源目录的子目录，源目录本身为 "."
}

// DestinationPlan 文件的目标位置
type DestinationPlan struct {
	Category   string
	TargetDir  string
	TargetName string
}

// RunStats 一次整理运行的统计信息
type RunStats struct {
	RunID string

	Moved      int
	Duplicates int
	Errors     int
	Preserved  int

	// 以下为附加标注，不影响上面四个计数器的含义
	Similar   int
	Renamed   int
	Recovered int
	Total     int

	StartTime time.Time
	EndTime   time.Time
}

// Duration 返回运行耗时
func (s RunStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}
