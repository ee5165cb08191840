package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDatesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List the published dates, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(c.cfg)
			if err != nil {
				return err
			}
			dates, err := a.catalog.Discover(cmd.Context())
			if err != nil {
				return fmt.Errorf("read catalog from %s: %w", a.describe(), err)
			}
			out := cmd.OutOrStdout()
			for _, d := range dates {
				fmt.Fprintln(out, d)
			}
			if len(dates) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no dates published at %s\n", a.describe())
			}
			return nil
		},
	}
}
