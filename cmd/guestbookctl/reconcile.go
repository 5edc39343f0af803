package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"guestbook/backend/internal/app"
	"guestbook/backend/internal/service"
)

func newReconcileCmd(c *cli) *cobra.Command {
	var remove bool
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Find uploaded files that have no media record",
		Long: "reconcile lists content files without a media record that are older than the grace period.\n" +
			"With --remove the files are deleted; media records are never touched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !cmd.Flags().Changed("grace") {
				grace = c.cfg.Reconcile.GracePeriod
			}
			if floor := c.cfg.MinGracePeriod(); grace < floor {
				return fmt.Errorf("--grace %s is shorter than the longest upload request (%s)", grace, floor)
			}
			// 内存存储与服务进程不共享记录，所有文件都会被当作孤立文件
			if remove && c.cfg.Database.Type == "" {
				return fmt.Errorf("--remove requires a persistent database; database.type is empty and the in-memory store has no media records")
			}

			store, err := app.OpenSubmissionStore(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer store.Close()

			content, err := app.OpenContentStore(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}

			reconciler := service.NewReconciler(content, store, grace, c.cfg.Reconcile.RemovalsPerSecond, c.log, nil)

			report, err := reconciler.Reconcile(ctx, remove)
			if report != nil {
				printReport(cmd.OutOrStdout(), report, remove)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "delete orphan files")
	cmd.Flags().DurationVar(&grace, "grace", 0, "skip files newer than this (default reconcile.grace_period)")

	return cmd
}

func printReport(w io.Writer, report *service.ReconcileReport, remove bool) {
	fmt.Fprintf(w, "scanned %d files, %d media records, %d orphans\n",
		report.Scanned, report.Records, len(report.Orphans))
	for _, name := range report.Orphans {
		fmt.Fprintf(w, "  orphan  %s\n", name)
	}
	if !remove {
		return
	}
	fmt.Fprintf(w, "removed %d files\n", len(report.Removed))
	for _, name := range report.Failed {
		fmt.Fprintf(w, "  failed  %s\n", name)
	}
}
