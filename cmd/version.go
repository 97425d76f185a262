package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ビルド時に -ldflags "-X nabi/cmd.Version=..." で上書きします。
var (
	Version   = "dev"
	CommitSHA = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "バージョンを表示します",
	Args:  cobra.NoArgs,
	// 設定ファイルがなくても表示できるようにする
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nabi version=%s commit=%s\n", Version, CommitSHA)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
