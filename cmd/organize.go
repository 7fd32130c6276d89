package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/app"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/cluster"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/scanner"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/tui"
)

var organizeCmd = &cobra.Command{
	Use:   "organize <source> [destination]",
	Short: "把源目录中的文件整理到分类目录",
	Long: `按所选策略把源目录中的文件移动到目标目录下的分类子目录，未指定目标目录时就地整理。

策略:
  type     按扩展名，使用配置文件中的 folders 规则
  date     按修改时间，目录为 {年}/{月}-{月份名}
  size     按文件大小，使用 size_categories 中的阈值和目录名
  content  按文件内容（魔数识别），开启 use_ai_classification 时先询问 AI

目标位置已有同名文件时比较内容：完全相同则删除源文件（--keep-duplicates 时保留），
否则以 {名称}_{n}{扩展名} 的形式重命名后移动。`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runOrganize,
}

func runOrganize(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	opts := &app.OrganizeOptions{
		CommonOptions: common,
		SourceDir:     args[0],
	}
	if len(args) > 1 {
		opts.DestDir = args[1]
	}

	opts.Strategy, _ = flags.GetString("strategy")
	opts.IncludeSubfolders, _ = flags.GetBool("recursive")
	opts.KeepDuplicates, _ = flags.GetBool("keep-duplicates")
	opts.DryRun, _ = flags.GetBool("dry-run")
	opts.JSONL, _ = flags.GetString("jsonl")
	opts.NoLedger, _ = flags.GetBool("no-ledger")
	opts.Preserve = changedBool(cmd, "preserve")
	opts.DetectSimilar = changedBool(cmd, "similar")
	opts.Cluster = changedBool(cmd, "cluster")

	useTUI, _ := flags.GetBool("tui")
	if !useTUI {
		result, err := app.RunOrganize(cmd.Context(), opts)
		if result != nil {
			printRunStats(cmd.OutOrStdout(), result.Stats, opts.DryRun)
			printClusters(cmd.OutOrStdout(), result.Clusters)
		}
		return err
	}

	events := ledger.NewChanSink(64)
	opts.Progress = events
	opts.Quiet = true
	if err := quietLogger(common); err != nil {
		return err
	}

	var result *app.OrganizeResult
	stats, err := tui.Run(cmd.Context(), tui.Config{
		Title: "📦 整理 " + opts.SourceDir,
		Count: func() (int, error) {
			records, err := scanner.NewFileWalker(nil).Scan(opts.SourceDir, opts.IncludeSubfolders, true)
			return len(records), err
		},
		Events: events.Events(),
		Work: func(ctx context.Context) (internal.RunStats, error) {
			defer events.Close()
			r, err := app.RunOrganize(ctx, opts)
			if r == nil {
				return internal.RunStats{}, err
			}
			result = r
			return r.Stats, err
		},
	})
	printRunStats(cmd.OutOrStdout(), stats, opts.DryRun)
	if result != nil {
		printClusters(cmd.OutOrStdout(), result.Clusters)
	}
	return err
}

// changedBool 只有在命令行显式给出时才返回值，否则由配置文件决定
func changedBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

// quietLogger 界面运行期间日志只写入文件，没有日志文件时丢弃
func quietLogger(opts app.CommonOptions) error {
	if opts.LogFile == "" {
		logger.Set(zerolog.New(io.Discard))
		return nil
	}
	f, err := os.OpenFile(opts.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("打开日志文件: %w", err)
	}
	level := logger.ParseLevel(opts.LogLevel)
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	logger.Set(zerolog.New(f).With().Timestamp().Logger().Level(level))
	return nil
}

func printRunStats(w io.Writer, s internal.RunStats, dryRun bool) {
	title := "整理结果"
	if dryRun {
		title += "（试运行，未修改任何文件）"
	}
	rows := [][]string{
		{"文件总数", strconv.Itoa(s.Total)},
		{"已移动", strconv.Itoa(s.Moved)},
		{"  其中重命名", strconv.Itoa(s.Renamed)},
		{"  其中近似重复", strconv.Itoa(s.Similar)},
		{"完全重复", strconv.Itoa(s.Duplicates)},
		{"保持原位", strconv.Itoa(s.Preserved)},
		{"错误", strconv.Itoa(s.Errors)},
	}
	if s.Recovered > 0 {
		rows = append(rows, []string{"补记恢复", strconv.Itoa(s.Recovered)})
	}
	rows = append(rows, []string{"耗时", s.Duration().String()})
	if s.RunID != "" {
		rows = append(rows, []string{"运行 ID", s.RunID})
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, renderTable([]string{"项目", "数量"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func printClusters(w io.Writer, clusters []cluster.Cluster) {
	if len(clusters) == 0 {
		return
	}
	rows := make([][]string, 0)
	for i, c := range clusters {
		for j, file := range c.Files {
			label := ""
			if j == 0 {
				label = fmt.Sprintf("#%d (%d)", i+1, len(c.Files))
			}
			rows = append(rows, []string{label, file, sizeOf(file)})
		}
	}
	fmt.Fprintln(w, "相似文件分组")
	fmt.Fprintln(w, renderTable([]string{"分组", "文件", "大小"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
}

func sizeOf(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	return humanize.IBytes(uint64(info.Size()))
}

func init() {
	flags := organizeCmd.Flags()
	flags.StringP("strategy", "s", "", "分类策略: type, date, size, content（默认取配置文件 organization_mode）")
	flags.BoolP("recursive", "r", false, "包含子目录中的文件")
	flags.Bool("preserve", true, "递归模式下子目录中的文件保持原位（默认取配置文件）")
	flags.Bool("keep-duplicates", false, "完全重复的源文件保留在原处，不删除")
	flags.Bool("similar", false, "标注近似重复的文件（默认取配置文件 use_content_analysis）")
	flags.Bool("cluster", false, "整理完成后对目标目录做相似文件聚类（默认取配置文件）")
	flags.BoolP("dry-run", "n", false, "预览模式，不实际修改文件")
	flags.String("jsonl", "", "额外把处理事件写入 JSONL 文件")
	flags.Bool("no-ledger", false, "不写入 SQLite 运行账本")
	flags.Bool("tui", false, "以终端界面显示实时进度")

	rootCmd.AddCommand(organizeCmd)
}
