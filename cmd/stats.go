package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/app"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "查看运行账本中的整理统计",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := &app.StatsOptions{CommonOptions: common}
		opts.LedgerPath, _ = cmd.Flags().GetString("ledger")
		opts.RunID, _ = cmd.Flags().GetString("run")

		result, err := app.RunStats(cmd.Context(), opts)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		s := result.Statistics

		summary := [][]string{
			{"已整理文件", strconv.FormatInt(s.TotalFiles, 10)},
			{"总大小", humanize.IBytes(uint64(s.TotalSize))},
			{"运行次数", strconv.FormatInt(s.Runs, 10)},
		}
		if !s.LastRun.IsZero() {
			summary = append(summary, []string{"最近一次运行", humanize.Time(s.LastRun)})
		}
		fmt.Fprintln(out, renderTable([]string{"项目", "值"}, summary, []columnAlignment{alignLeft, alignRight}))

		if len(s.ByCategory) > 0 {
			rows := make([][]string, 0, len(s.ByCategory))
			for _, c := range s.ByCategory {
				rows = append(rows, []string{c.Category, strconv.FormatInt(c.Count, 10), humanize.IBytes(uint64(c.Size))})
			}
			fmt.Fprintln(out, renderTable([]string{"分类", "文件数", "大小"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
		}

		if len(s.ByOutcome) > 0 {
			var rows [][]string
			for _, o := range []internal.Outcome{
				internal.OutcomeMoved, internal.OutcomeRenamed, internal.OutcomeSimilar,
				internal.OutcomeDuplicate, internal.OutcomePreserved, internal.OutcomeSkipped,
				internal.OutcomeRecovered, internal.OutcomeRestored, internal.OutcomeFailed,
			} {
				if n := s.ByOutcome[o]; n > 0 {
					rows = append(rows, []string{string(o), strconv.FormatInt(n, 10)})
				}
			}
			fmt.Fprintln(out, renderTable([]string{"结果", "次数"}, rows, []columnAlignment{alignLeft, alignRight}))
		}

		if len(s.Timeline) > 0 {
			rows := make([][]string, 0, len(s.Timeline))
			for _, d := range s.Timeline {
				rows = append(rows, []string{d.Date, strconv.FormatInt(d.Count, 10)})
			}
			fmt.Fprintln(out, "最近 30 天")
			fmt.Fprintln(out, renderTable([]string{"日期", "文件数"}, rows, []columnAlignment{alignLeft, alignRight}))
		}

		if opts.RunID != "" {
			rows := make([][]string, 0, len(result.Events))
			for _, ev := range result.Events {
				rows = append(rows, []string{
					ev.Timestamp.Local().Format(time.DateTime),
					string(ev.Outcome),
					ev.SourcePath,
					ev.DestinationPath,
					ev.Detail,
				})
			}
			fmt.Fprintf(out, "运行 %s 共 %d 条记录\n", opts.RunID, len(result.Events))
			fmt.Fprintln(out, renderTable([]string{"时间", "结果", "源文件", "目标", "说明"}, rows, nil))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("ledger", "", "运行账本路径（默认取配置文件 ledger.path）")
	statsCmd.Flags().String("run", "", "同时列出指定运行 ID 的全部记录")

	rootCmd.AddCommand(statsCmd)
}
