package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/logger"
)

// cli 子命令共享的配置和日志
type cli struct {
	cfg     *config.Config
	log     *zap.Logger
	verbose bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "guestbookctl",
		Short: "Guestbook maintenance tool",
		Long: "guestbookctl manages the guestbook database schema and uploaded images.\n\n" +
			"Configuration is read from GUESTBOOK_* environment variables and .env, " +
			"the same way the server reads it.",
		SilenceUsage:      true,
		PersistentPreRunE: c.initialize,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newMigrateCmd(c))
	root.AddCommand(newReconcileCmd(c))
	root.AddCommand(newImagesCmd(c))

	return root
}

func (c *cli) initialize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg

	if c.verbose {
		c.log = logger.NewDevelopment()
		return nil
	}
	// 命令行输出为主，日志只保留警告以上
	log, err := logger.New(config.LogConfig{Level: "warn", Development: true})
	if err != nil {
		return err
	}
	c.log = log
	return nil
}
