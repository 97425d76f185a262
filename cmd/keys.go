package cmd

import (
	"nabi/storage"

	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "データベースのアクセスキーを管理します",
}

var keysAddCmd = &cobra.Command{
	Use:   "add <name> <key>",
	Short: "アクセスキーを登録します",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewDBStore(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.AddAccessKey(args[0], args[1]); err != nil {
			return err
		}
		log.Info("アクセスキーを登録しました", "name", args[0], "database", cfg.Database.Path)
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysAddCmd)
	rootCmd.AddCommand(keysCmd)
}
