package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Clark-Hu/book-reviews/internal/store"
)

var dbURL string

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the book-reviews database schema",
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", os.Getenv("DB_URL"), "Postgres connection string (defaults to $DB_URL)")
	rootCmd.AddCommand(
		migrationCommand("up", "Apply all pending migrations", store.MigrateUp),
		migrationCommand("down", "Roll back the most recent migration", store.MigrateDown),
		migrationCommand("status", "Show the state of every migration", store.MigrationStatus),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrationCommand(use, short string, run func(context.Context, *pgxpool.Pool) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbURL == "" {
				return fmt.Errorf("DB_URL is required (set it or pass --db-url)")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			pool, err := pgxpool.New(ctx, dbURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			store.SetMigrationLogger(log.New(os.Stdout, "[migrate] ", log.LstdFlags))
			return run(ctx, pool)
		},
	}
}
