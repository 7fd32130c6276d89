// Package organizer 按分类策略整理目录中的文件。
//
// 每个文件依次经过分类、冲突处理、移动和记账，处理是顺序的：
//
//	Pending → Classified → Preserved | Moved | DuplicateDiscarded | RenamedMoved | Failed
//
// 单个文件失败只计数，不影响其余文件；只有源目录本身不可读时整个运行失败。
// 重复运行是幂等的：已整理到分类目录中的文件不会再出现在源目录的枚举结果里。
package organizer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/classifier"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/deduplicator"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/features"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/hasher"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/progress"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/scanner"
)

// Options 单次整理的选项
type Options struct {
	Strategy          internal.Strategy
	IncludeSubfolders bool
	// PreserveStructure 递归模式下保持子目录中的文件不动
	PreserveStructure bool
	// RemoveExactDuplicates 为 false 时完全重复的源文件留在原处，记为 skipped
	RemoveExactDuplicates bool
	// DetectSimilar 对重名但内容不同的文件计算特征相似度并标注
	DetectSimilar       bool
	SimilarityThreshold float64
	// DryRun 只计算结果，不修改文件系统
	DryRun bool
}

func DefaultOptions() Options {
	return Options{
		Strategy:              internal.StrategyType,
		PreserveStructure:     true,
		RemoveExactDuplicates: true,
	}
}

type Organizer struct {
	fs         afero.Fs
	classifier *classifier.Classifier
	sink       ledger.Sink
	runID      string
	maxProbe   int
}

type Option func(*Organizer)

func WithSink(s ledger.Sink) Option {
	return func(o *Organizer) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithRunID 固定运行 ID，未指定时每次 Organize 生成新的 UUID
func WithRunID(id string) Option {
	return func(o *Organizer) { o.runID = id }
}

// WithMaxProbe 限制冲突重命名的尝试次数，0 表示不限
func WithMaxProbe(n int) Option {
	return func(o *Organizer) { o.maxProbe = n }
}

func New(fs afero.Fs, cls *classifier.Classifier, opts ...Option) *Organizer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	o := &Organizer{
		fs:         fs,
		classifier: cls,
		sink:       ledger.NopSink{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run 一次整理运行持有的全部状态
type run struct {
	*Organizer
	id       string
	opts     Options
	destDir  string
	stats    internal.RunStats
	resolver *deduplicator.Resolver
	hasher   *hasher.Hasher
	journal  *progress.Journal
}

// Organize 整理 sourceDir 中的文件到 destDir，destDir 为空时就地整理
// 返回的错误只可能是源目录不可读（internal.ErrSourceRoot）或 ctx 被取消
func (o *Organizer) Organize(ctx context.Context, sourceDir, destDir string, opts Options) (internal.RunStats, error) {
	if opts.Strategy == "" {
		opts.Strategy = internal.StrategyType
	}
	if destDir == "" {
		destDir = sourceDir
	}

	r := &run{Organizer: o, id: o.runID, opts: opts}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	r.stats.RunID = r.id
	r.stats.StartTime = time.Now()
	log := logger.Get().With().Str("run", r.id).Logger()

	walker := scanner.NewFileWalker(o.fs)
	records, err := walker.Scan(sourceDir, opts.IncludeSubfolders, opts.PreserveStructure)
	if err != nil {
		log.Error().Err(err).Str("source", sourceDir).Msg("无法读取源目录")
		r.stats.EndTime = time.Now()
		return r.stats, err
	}

	if r.destDir, err = filepath.Abs(destDir); err != nil {
		r.destDir = filepath.Clean(destDir)
	}

	r.hasher = hasher.New(o.fs)
	resolverOpts := []deduplicator.Option{deduplicator.WithMaxProbe(o.maxProbe)}
	if opts.DetectSimilar && opts.SimilarityThreshold > 0 {
		resolverOpts = append(resolverOpts, deduplicator.WithSimilarity(features.New(o.fs), opts.SimilarityThreshold))
	}
	r.resolver = deduplicator.NewResolver(o.fs, r.hasher, resolverOpts...)

	log.Info().
		Str("source", sourceDir).
		Str("destination", r.destDir).
		Str("strategy", string(opts.Strategy)).
		Int("files", len(records)).
		Bool("dry_run", opts.DryRun).
		Msg("开始整理")

	if !opts.DryRun {
		r.openJournal(ctx)
		defer r.closeJournal()
		if r.stats.Recovered > 0 {
			// 恢复过程可能删除了源文件，重新枚举
			if records, err = walker.Scan(sourceDir, opts.IncludeSubfolders, opts.PreserveStructure); err != nil {
				log.Error().Err(err).Str("source", sourceDir).Msg("无法读取源目录")
				r.stats.EndTime = time.Now()
				return r.stats, err
			}
		}
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("remaining", len(records)-r.stats.Total).Msg("整理被取消")
			r.stats.EndTime = time.Now()
			return r.stats, err
		}
		r.stats.Total++
		r.process(ctx, rec)
	}

	r.stats.EndTime = time.Now()
	log.Info().
		Int("moved", r.stats.Moved).
		Int("duplicates", r.stats.Duplicates).
		Int("errors", r.stats.Errors).
		Int("preserved", r.stats.Preserved).
		Dur("duration", r.stats.Duration()).
		Msg("整理完成")
	return r.stats, nil
}

// process 处理单个文件，所有错误都在这里转换为计数和账本事件
func (r *run) process(ctx context.Context, rec internal.FileRecord) {
	ev := ledger.Event{
		RunID:      r.id,
		SourcePath: rec.Path,
		Size:       rec.Size,
	}

	if rec.Preserve {
		r.stats.Preserved++
		ev.Outcome = internal.OutcomePreserved
		ev.Detail = rec.RelDir
		r.record(ctx, ev)
		return
	}

	plan, err := r.plan(ctx, rec)
	ev.Category = plan.Category
	if err != nil && !errors.Is(err, internal.ErrCapability) {
		r.fail(ctx, ev, err)
		return
	}
	if err != nil {
		// 能力失败已回退到本地分类，计入错误但文件照常移动
		r.stats.Errors++
		ev.Detail = err.Error()
	}

	target := filepath.Join(plan.TargetDir, plan.TargetName)
	ev.DestinationPath = target

	if target == rec.Path {
		ev.Outcome = internal.OutcomeSkipped
		ev.Detail = "已在目标位置"
		r.record(ctx, ev)
		return
	}

	if !r.opts.DryRun {
		if err := r.fs.MkdirAll(plan.TargetDir, 0755); err != nil {
			r.fail(ctx, ev, internal.Wrap(internal.ErrIO, "创建目标目录", plan.TargetDir, err))
			return
		}
	}

	exists, err := afero.Exists(r.fs, target)
	if err != nil {
		r.fail(ctx, ev, internal.Wrap(internal.ErrIO, "检查目标文件", target, err))
		return
	}

	res := deduplicator.Resolution{Decision: internal.DecisionDistinct, SuggestedName: plan.TargetName}
	if exists {
		if res, err = r.resolver.Resolve(rec, target); err != nil {
			r.fail(ctx, ev, err)
			return
		}
	}

	// 文件名不同但内容相同的文件同样视为完全重复
	twin := target
	if res.Decision != internal.DecisionExact {
		if twin, err = r.resolver.FindExact(rec, plan.TargetDir); err != nil {
			r.fail(ctx, ev, err)
			return
		}
		if twin != "" {
			res = deduplicator.Resolution{Decision: internal.DecisionExact, Similarity: 1}
		}
	}

	if res.Decision == internal.DecisionExact {
		r.discard(ctx, ev, rec, twin)
		return
	}

	dst := filepath.Join(plan.TargetDir, res.SuggestedName)
	if err := r.move(rec.Path, dst); err != nil {
		r.fail(ctx, ev, err)
		return
	}
	if r.opts.DryRun {
		r.resolver.Track(plan.TargetDir, rec.Path, rec.Size)
	} else {
		r.resolver.Track(plan.TargetDir, dst, rec.Size)
	}
	r.stats.Moved++
	ev.DestinationPath = dst
	ev.Outcome = internal.OutcomeMoved

	if exists {
		r.stats.Renamed++
		ev.Outcome = internal.OutcomeRenamed
		if res.Decision == internal.DecisionSimilar {
			r.stats.Similar++
			ev.Outcome = internal.OutcomeSimilar
			ev.Detail = joinDetail(ev.Detail, fmt.Sprintf("与 %s 相似度 %.2f", target, res.Similarity))
		}
	}
	r.record(ctx, ev)
}

// discard 处理完全重复的源文件：删除，或在 RemoveExactDuplicates 关闭时留在原处
func (r *run) discard(ctx context.Context, ev ledger.Event, rec internal.FileRecord, twin string) {
	ev.DestinationPath = ""
	ev.Detail = joinDetail(ev.Detail, "与 "+twin+" 内容相同")

	if !r.opts.RemoveExactDuplicates {
		r.stats.Duplicates++
		ev.Outcome = internal.OutcomeSkipped
		r.record(ctx, ev)
		return
	}

	if !r.opts.DryRun {
		if err := r.fs.Remove(rec.Path); err != nil {
			r.fail(ctx, ev, internal.Wrap(internal.ErrIO, "删除重复文件", rec.Path, err))
			return
		}
		r.hasher.Forget(rec.Path)
	}
	r.stats.Duplicates++
	ev.Outcome = internal.OutcomeDuplicate
	logger.Get().Info().Str("path", rec.Path).Str("existing", twin).Msg("删除完全重复文件")
	r.record(ctx, ev)
}

// plan 分类并计算目标位置
func (r *run) plan(ctx context.Context, rec internal.FileRecord) (internal.DestinationPlan, error) {
	category, err := r.classifier.Classify(ctx, rec, r.opts.Strategy)
	if category == "" {
		if err == nil {
			err = internal.Wrap(internal.ErrIO, "分类结果为空", rec.Path, nil)
		}
		return internal.DestinationPlan{}, err
	}
	return internal.DestinationPlan{
		Category:   category,
		TargetDir:  filepath.Join(r.destDir, r.classifier.Folder(r.opts.Strategy, category)),
		TargetName: rec.Name,
	}, err
}

// move 在日志中记录意图后移动文件；试运行时什么都不做
func (r *run) move(src, dst string) error {
	if r.opts.DryRun {
		return nil
	}
	if r.journal != nil {
		if err := r.journal.Begin(src, dst); err != nil {
			return err
		}
	}
	var beforeCopy func() error
	if r.journal != nil {
		beforeCopy = func() error { return r.journal.BeginCopy(src, dst) }
	}
	err := moveFile(r.fs, src, dst, beforeCopy)
	if r.journal != nil {
		if cerr := r.journal.Commit(src, dst); cerr != nil {
			logger.Get().Warn().Err(cerr).Str("path", src).Msg("写入移动日志失败")
		}
	}
	if err != nil {
		return err
	}
	r.hasher.Forget(src)
	logger.Get().Debug().Str("source", src).Str("destination", dst).Msg("文件已移动")
	return nil
}

func (r *run) fail(ctx context.Context, ev ledger.Event, err error) {
	r.stats.Errors++
	ev.Outcome = internal.OutcomeFailed
	ev.Detail = err.Error()
	logger.Get().Error().Err(err).Str("path", ev.SourcePath).Msg("处理文件失败")
	r.record(ctx, ev)
}

// record 写入账本；失败只记录日志
func (r *run) record(ctx context.Context, ev ledger.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if r.opts.DryRun {
		ev.Detail = joinDetail("dry-run", ev.Detail)
	}
	if err := r.sink.Record(ctx, ev); err != nil {
		logger.Get().Warn().Err(err).Str("path", ev.SourcePath).Msg("写入运行账本失败")
	}
}

func joinDetail(a, b string) string {
	if b == "" {
		return a
	}
	return a + ": " + b
}
