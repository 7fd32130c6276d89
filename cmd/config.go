package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/app"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "管理配置文件",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "写出默认配置文件",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := common.ConfigPath
		if len(args) > 0 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")

		written, err := app.InitConfig(path, force)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已写出默认配置: %s\n", written)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "覆盖已存在的配置文件")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
