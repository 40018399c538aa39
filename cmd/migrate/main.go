// Command migrate applies and inspects the service's schema migrations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/migrate"
	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/schema"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the ideas database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(upCommand(), statusCommand())
	return rootCmd
}

func upCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(func(r *migrate.Runner, _ *schema.Repo, logger *zap.SugaredLogger) error {
				n, err := r.Up(cmd.Context())
				if err != nil {
					return err
				}
				logger.Infow("migrate up finished", "applied", n)
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
				return nil
			})
		},
	}
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [table...]",
		Short: "List migrations and the tables they manage",
		RunE: func(cmd *cobra.Command, args []string) error {
			checked, err := selectTables(args)
			if err != nil {
				return err
			}
			return withRunner(func(r *migrate.Runner, tables *schema.Repo, _ *zap.SugaredLogger) error {
				rows, err := r.Status(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
				for _, s := range rows {
					applied := "pending"
					if s.AppliedAt != nil {
						applied = s.AppliedAt.Format("2006-01-02 15:04:05Z07:00")
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, s.Name, applied)
				}
				fmt.Fprintln(tw)
				fmt.Fprintln(tw, "TABLE\tPRESENT")
				for _, t := range checked {
					ok, err := tables.Exists(cmd.Context(), t.Name)
					if err != nil {
						return fmt.Errorf("check table %s: %w", t.Name, err)
					}
					fmt.Fprintf(tw, "%s\t%t\n", t.Name, ok)
				}
				return tw.Flush()
			})
		},
	}
}

func selectTables(names []string) ([]schema.Table, error) {
	if len(names) == 0 {
		return schema.All(), nil
	}
	out := make([]schema.Table, 0, len(names))
	for _, n := range names {
		t, ok := schema.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("unknown table %q", n)
		}
		out = append(out, t)
	}
	return out, nil
}

func withRunner(fn func(r *migrate.Runner, tables *schema.Repo, logger *zap.SugaredLogger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lg, err := utilities.Init(cfg.LoggerConfig())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	db, err := database.Connect(cfg.DatabaseConfig())
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	runner, err := migrate.NewRunner(db, sugar, nil)
	if err != nil {
		return err
	}
	return fn(runner, schema.NewRepo(db), sugar)
}
