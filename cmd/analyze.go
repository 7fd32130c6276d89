package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/app"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster <folder>",
	Short: "按文件特征对目录中的文件聚类",
	Long: `递归收集目录中的文件，提取特征向量（大小、扩展名、图片尺寸和颜色分布、文本统计），
标准化后用 DBSCAN 分组。只列出至少包含两个文件的分组，不移动任何文件。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := &app.ClusterOptions{CommonOptions: common, Folder: args[0]}
		opts.Eps, _ = cmd.Flags().GetFloat64("eps")
		opts.MinSamples, _ = cmd.Flags().GetInt("min-samples")
		opts.Workers, _ = cmd.Flags().GetInt("workers")

		clusters, err := app.RunCluster(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if len(clusters) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "没有找到相似文件分组")
			return nil
		}
		printClusters(cmd.OutOrStdout(), clusters)
		return nil
	},
}

var dupesCmd = &cobra.Command{
	Use:   "dupes <folder>",
	Short: "列出目录中内容完全相同的文件",
	Long: `递归遍历目录，先按大小预筛选，再用 xxHash 计算候选文件的摘要，
列出内容完全相同的文件组及其浪费的空间。只报告，不删除。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := &app.DupesOptions{CommonOptions: common, Folder: args[0]}
		opts.Workers, _ = cmd.Flags().GetInt("workers")

		groups, err := app.RunDupes(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "没有找到重复文件")
			return nil
		}

		var rows [][]string
		var wasted int64
		for i, g := range groups {
			wasted += g.Wasted()
			for j, path := range g.Paths {
				label, size := "", ""
				if j == 0 {
					label = fmt.Sprintf("#%d %s", i+1, g.Hash)
					size = humanize.IBytes(uint64(g.Size))
				}
				rows = append(rows, []string{label, path, size})
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderTable([]string{"分组", "文件", "大小"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
		fmt.Fprintf(out, "共 %d 组重复文件，可释放 %s\n", len(groups), humanize.IBytes(uint64(wasted)))
		return nil
	},
}

func init() {
	clusterCmd.Flags().Float64("eps", 0, "DBSCAN 邻域半径（默认取配置文件）")
	clusterCmd.Flags().Int("min-samples", 0, "核心点的最少邻居数（默认取配置文件）")
	clusterCmd.Flags().IntP("workers", "w", 0, "特征提取并发数")

	dupesCmd.Flags().IntP("workers", "w", 0, "哈希计算并发数")

	rootCmd.AddCommand(clusterCmd, dupesCmd)
}
