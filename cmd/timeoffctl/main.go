package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"timeoff/internal/domain/report"
	"timeoff/internal/platform/config"
	"timeoff/internal/platform/db"
	"timeoff/internal/transport/http/shared"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "timeoffctl",
		Short: "Operational tooling for the time-off service",
		Long:  "Run migrations, seed the initial organization, and export request data without going through the HTTP API.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (overrides environment)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(exportRequestsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("database URL is required (DATABASE_URL or databaseUrl in %s)", configPath)
	}
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.Connect(ctx, cfg)
			if err != nil {
				return fmt.Errorf("db connect failed: %w", err)
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Ensure the initial organization and admin account exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.Connect(ctx, cfg)
			if err != nil {
				return fmt.Errorf("db connect failed: %w", err)
			}
			defer pool.Close()

			if err := db.Seed(ctx, pool, cfg); err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Printf("seeded organization %q\n", cfg.SeedOrgName)
			return nil
		},
	}
}

func exportRequestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-requests <organization-id>",
		Short: "Export an organization's requests to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			filter := report.ExportFilter{}
			filter.Status, _ = cmd.Flags().GetString("status")
			filter.Type, _ = cmd.Flags().GetString("type")
			if raw, _ := cmd.Flags().GetString("start"); raw != "" {
				parsed, err := shared.ParseDate(raw)
				if err != nil {
					return fmt.Errorf("invalid --start date: %w", err)
				}
				filter.StartDate = &parsed
			}
			if raw, _ := cmd.Flags().GetString("end"); raw != "" {
				parsed, err := shared.ParseDate(raw)
				if err != nil {
					return fmt.Errorf("invalid --end date: %w", err)
				}
				filter.EndDate = &parsed
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pool, err := db.Connect(ctx, cfg)
			if err != nil {
				return fmt.Errorf("db connect failed: %w", err)
			}
			defer pool.Close()

			rows, err := report.NewService(pool).ExportRows(ctx, args[0], filter)
			if err != nil {
				return err
			}
			return report.WriteCSV(os.Stdout, rows)
		},
	}

	cmd.Flags().String("status", "", "Filter by status (pending, approved, denied)")
	cmd.Flags().String("type", "", "Filter by type (days_off, hours_off, sick_leave)")
	cmd.Flags().String("start", "", "Only include requests overlapping on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Only include requests overlapping on or before this date (YYYY-MM-DD)")

	return cmd
}
