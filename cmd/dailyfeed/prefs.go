package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/csheth/dailyfeed/internal/prefs"
)

var prefKeys = map[string]string{
	"keywords": prefs.KeywordsKey,
	"authors":  prefs.AuthorsKey,
}

func newPrefsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the saved keywords and authors",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved keywords and authors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := prefs.NewStore(c.cfg.PrefsPath)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:     %s\n", store.Path())
			fmt.Fprintf(out, "keywords: %s\n", strings.Join(store.Load(prefs.KeywordsKey), ", "))
			fmt.Fprintf(out, "authors:  %s\n", strings.Join(store.Load(prefs.AuthorsKey), ", "))
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set keywords|authors \"a, b, c\"",
		Short: "Replace the saved keywords or authors (an empty list clears them)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := prefKeys[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown preference %q (want keywords or authors)", args[0])
			}
			store := prefs.NewStore(c.cfg.PrefsPath)
			values := prefs.SplitList(args[1])
			if err := store.Save(key, values); err != nil {
				return fmt.Errorf("save preferences: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d %s to %s\n", len(values), strings.ToLower(args[0]), store.Path())
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
