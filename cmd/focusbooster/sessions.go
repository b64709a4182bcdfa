package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/focus-booster/pkg/history"
)

func newSessionsCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded work sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return configError{err}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			store, err := history.Open(ctx, cfg.History)
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "session history is disabled")
				return nil
			}
			defer store.Close()

			records, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			return printSessions(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of sessions to show (0 for all)")
	return cmd
}

func printSessions(w io.Writer, records []*history.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no sessions recorded yet")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tLENGTH\tFOCUSED\tALERTS\tMOOD")
	for _, r := range records {
		mood := string(r.DominantEmotion)
		if mood == "" {
			mood = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Duration().Round(time.Second),
			r.FocusRatio()*100,
			r.AlertsRaised,
			mood)
	}
	return tw.Flush()
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return configError{err}
			}
			if cfg.History.DSN != "" {
				cfg.History.DSN = "<redacted>"
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
