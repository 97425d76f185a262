package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nabi/config"
	"nabi/logger"

	"github.com/spf13/cobra"
)

var (
	cfg        *config.Config
	log        logger.Logger
	configFile string
)

var rootCmd = &cobra.Command{
	Use:           "nabi [command]",
	Short:         "Nabi Discord bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		log = logger.Init(cfg.Log)
		return nil
	},
}

// Execute はルートコマンドを実行します。SIGINT と SIGTERM でコンテキストがキャンセルされます。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "設定ファイルのパス (デフォルト: ./config.yaml)")
}
