package main

import (
	"context"
	"fmt"
	"os"

	"bookblog/internal/bootstrap"
	"bookblog/internal/config"
	"bookblog/internal/database"
	"bookblog/internal/repository"
	"bookblog/internal/seed"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// connectFunc opens the database for a command. Tests replace it.
type connectFunc func(ctx context.Context) (*gorm.DB, *config.Config, error)

func defaultConnect(ctx context.Context) (*gorm.DB, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(defaultConnect)
}

func newRootCmdWith(connect connectFunc) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Book blog maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		migrateCmd(connect),
		seedAdminCmd(connect),
		seedDemoCmd(connect),
		importCmd(connect),
	)
	return rootCmd
}

func migrateCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the users, posts and reviews tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration completed")
			return nil
		},
	}
}

func seedAdminCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the configured admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			created, err := bootstrap.EnsureAdmin(cmd.Context(), repository.NewUserRepository(db), cfg.AdminEmail, cfg.AdminPassword)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created\n", cfg.AdminEmail)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %s already exists\n", cfg.AdminEmail)
			}
			return nil
		},
	}
}

func seedDemoCmd(connect connectFunc) *cobra.Command {
	var opts seed.Options
	var posts, reviews int

	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Insert fake posts and reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			res, err := seed.NewFactory(db, opts).Demo(cmd.Context(), posts, reviews)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d posts and %d reviews\n", res.Posts, res.Reviews)
			return nil
		},
	}

	cmd.Flags().IntVar(&posts, "posts", 10, "Number of posts to create")
	cmd.Flags().IntVar(&reviews, "reviews", 3, "Reviews to create per post")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed (0 for random)")
	cmd.Flags().IntVar(&opts.MaxDays, "max-days", 90, "Spread created_at over this many days")
	return cmd
}

func importCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "import <fixtures.yml>",
		Short: "Import posts and reviews from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			fx, err := seed.LoadFixtures(f)
			if err != nil {
				return err
			}

			db, _, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			res, err := seed.Import(cmd.Context(), db, fx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d posts and %d reviews\n", res.Posts, res.Reviews)
			return nil
		},
	}
}
