package cmd

import (
	"nabi/bot"
	"nabi/servers"

	"github.com/spf13/cobra"
)

var registerOnStart bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "ボットと (有効なら) Webサーバーを起動します",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := bot.New(cfg, log)
		if err != nil {
			return err
		}

		manager := servers.NewManager(log)
		manager.AddServer(b)
		if cfg.Web.Enabled {
			manager.AddServer(servers.NewWebServer(cfg, log.With("component", "web"), b.Store(), b))
		}

		if registerOnStart {
			// 登録は REST だけで済むので Gateway 接続前に行う
			if _, err := b.RegisterCommands(); err != nil {
				return err
			}
			log.Info("コマンドの登録が完了しました", "count", len(b.Registry.Definitions))
		}

		log.Info("起動します。Ctrl+Cで終了します。")
		return manager.Run(cmd.Context())
	},
}

func init() {
	runCmd.Flags().BoolVar(&registerOnStart, "register", false, "起動前にスラッシュコマンドを登録する")
	rootCmd.AddCommand(runCmd)
}
