package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/config"
)

// TimelineDays 统计时间线覆盖的天数
const TimelineDays = 30

// LogEntry organization_log 表的一行
type LogEntry struct {
	ID              int64     `gorm:"primaryKey"`
	RunID           string    `gorm:"index;not null"`
	Timestamp       time.Time `gorm:"index;not null"`
	SourcePath      string    `gorm:"not null"`
	FileName        string
	DestinationPath string
	Category        string `gorm:"index"`
	Outcome         string `gorm:"index;not null"`
	FileSize        int64
	Detail          string
}

func (LogEntry) TableName() string {
	return "organization_log"
}

// Store 基于 SQLite 的运行账本
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(dbPath string) (*Store, error) {
	expandedPath, err := config.ExpandPath(dbPath)
	if err != nil {
		logger.Get().Error().Err(err).Msg("扩展数据库路径失败")
		return nil, err
	}

	logger.Get().Info().Msgf("初始化运行账本，路径: %s", expandedPath)

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		logger.Get().Error().Err(err).Msgf("创建数据库目录失败: %s", filepath.Dir(expandedPath))
		return nil, err
	}

	dsn := expandedPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Get().Error().Err(err).Msg("打开数据库连接失败")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Get().Error().Err(err).Msg("获取数据库连接失败")
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&LogEntry{}); err != nil {
		logger.Get().Error().Err(err).Msg("创建数据库表失败")
		return nil, err
	}

	logger.Get().Debug().Msg("运行账本初始化完成")
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Record(ctx context.Context, ev Event) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	entry := &LogEntry{
		RunID:           ev.RunID,
		Timestamp:       ts.UTC(),
		SourcePath:      ev.SourcePath,
		FileName:        filepath.Base(ev.SourcePath),
		DestinationPath: ev.DestinationPath,
		Category:        ev.Category,
		Outcome:         string(ev.Outcome),
		FileSize:        ev.Size,
		Detail:          ev.Detail,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("写入运行账本: %w", err)
	}
	return nil
}

// Events 按时间顺序返回某次运行的全部事件
func (s *Store) Events(ctx context.Context, runID string) ([]Event, error) {
	var rows []LogEntry
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询运行事件: %w", err)
	}
	out := make([]Event, len(rows))
	for i, r := range rows {
		out[i] = Event{
			RunID:           r.RunID,
			Timestamp:       r.Timestamp,
			SourcePath:      r.SourcePath,
			DestinationPath: r.DestinationPath,
			Category:        r.Category,
			Outcome:         internal.Outcome(r.Outcome),
			Size:            r.FileSize,
			Detail:          r.Detail,
		}
	}
	return out, nil
}

type CategoryStat struct {
	Category string
	Count    int64
	Size     int64
}

type DayCount struct {
	Date  string
	Count int64
}

// Statistics 账本汇总，只统计实际进入目标目录的文件（moved、renamed、similar）
type Statistics struct {
	TotalFiles int64
	TotalSize  int64
	Runs       int64
	ByCategory []CategoryStat
	ByOutcome  map[internal.Outcome]int64
	Timeline   []DayCount
	LastRun    time.Time
}

var placedOutcomes = []string{
	string(internal.OutcomeMoved),
	string(internal.OutcomeRenamed),
	string(internal.OutcomeSimilar),
}

func (s *Store) Statistics(ctx context.Context) (*Statistics, error) {
	db := s.db.WithContext(ctx)
	placed := func() *gorm.DB {
		return db.Model(&LogEntry{}).Where("outcome IN ?", placedOutcomes)
	}

	stats := &Statistics{ByOutcome: make(map[internal.Outcome]int64)}

	var totals struct {
		Count int64
		Size  int64
	}
	if err := placed().
		Select("COUNT(*) AS count, COALESCE(SUM(file_size), 0) AS size").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("统计总数: %w", err)
	}
	stats.TotalFiles, stats.TotalSize = totals.Count, totals.Size

	if err := placed().
		Select("category, COUNT(*) AS count, COALESCE(SUM(file_size), 0) AS size").
		Group("category").
		Order("count DESC, category").
		Scan(&stats.ByCategory).Error; err != nil {
		return nil, fmt.Errorf("按分类统计: %w", err)
	}

	var outcomes []struct {
		Outcome string
		Count   int64
	}
	if err := db.Model(&LogEntry{}).Select("outcome, COUNT(*) AS count").Group("outcome").Scan(&outcomes).Error; err != nil {
		return nil, fmt.Errorf("按结果统计: %w", err)
	}
	for _, o := range outcomes {
		stats.ByOutcome[internal.Outcome(o.Outcome)] = o.Count
	}

	if err := db.Model(&LogEntry{}).Distinct("run_id").Count(&stats.Runs).Error; err != nil {
		return nil, fmt.Errorf("统计运行次数: %w", err)
	}

	var last LogEntry
	res := db.Order("timestamp DESC").Limit(1).Find(&last)
	if res.Error != nil {
		return nil, fmt.Errorf("查询最近运行: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		stats.LastRun = last.Timestamp
	}

	cutoff := s.now().AddDate(0, 0, -TimelineDays)
	var stamps []time.Time
	if err := placed().
		Where("timestamp > ?", cutoff.UTC()).
		Pluck("timestamp", &stamps).Error; err != nil {
		return nil, fmt.Errorf("统计时间线: %w", err)
	}
	byDay := make(map[string]int64)
	for _, ts := range stamps {
		byDay[ts.Local().Format("2006-01-02")]++
	}
	for day, n := range byDay {
		stats.Timeline = append(stats.Timeline, DayCount{Date: day, Count: n})
	}
	sort.Slice(stats.Timeline, func(i, j int) bool { return stats.Timeline[i].Date < stats.Timeline[j].Date })

	return stats, nil
}

func (s *Store) Close() error {
	logger.Get().Debug().Msg("关闭运行账本")
	sqlDB, err := s.db.DB()
	if err != nil {
		logger.Get().Error().Err(err).Msg("获取数据库连接失败")
		return err
	}
	return sqlDB.Close()
}
