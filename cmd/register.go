package cmd

import (
	"nabi/bot"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "スラッシュコマンドを Discord に登録します",
	Long:  "discord.guild_id が設定されている場合はそのサーバーに、そうでなければグローバルに登録します。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := bot.New(cfg, log)
		if err != nil {
			return err
		}
		defer b.Store().Close()

		registered, err := b.RegisterCommands()
		if err != nil {
			return err
		}
		for _, c := range registered {
			log.Info("コマンドを登録しました", "name", c.Name, "id", c.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}
