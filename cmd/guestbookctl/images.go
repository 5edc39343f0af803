package main

import (
	"fmt"
	"path"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"guestbook/backend/internal/app"
)

func newImagesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Inspect uploaded images",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List media records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := app.OpenSubmissionStore(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer store.Close()

			assets, err := store.ListMediaAssets(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPATH\tTYPE\tSIZE\tCREATED")
			for _, a := range assets {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
					a.ID,
					path.Join(c.cfg.Upload.PublicPrefix, a.Filename),
					a.ContentType,
					a.Size,
					a.CreatedAt.UTC().Format(time.RFC3339),
				)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(list)
	return cmd
}
