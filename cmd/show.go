package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"schedule-importer/formatter"
	"schedule-importer/store"
)

var (
	showFormat    string
	showStorePath string
)

var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "List stored runs, or print the schedules of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showFormat, "format", "", "output format: "+fmt.Sprint(formatter.Names()))
	showCmd.Flags().StringVar(&showStorePath, "store-path", "", "SQLite database path")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	path := cfg.Store.Path
	if showStorePath != "" {
		path = showStorePath
	}
	format := cfg.Output.Format
	if showFormat != "" {
		format = showFormat
	}

	st, err := store.OpenSQLiteStore(path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		runs, err := st.Runs(ctx)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %s\n", r.ID, r.CreatedAt.Format(time.RFC3339))
		}
		return nil
	}

	sources, err := st.Load(ctx, args[0])
	if err != nil {
		return err
	}
	writer, err := formatter.NewWriter(format, "", out)
	if err != nil {
		return err
	}
	for _, src := range sources {
		if err := writer.Write(ctx, src.Name, src.Levels); err != nil {
			return err
		}
	}
	return nil
}
