// Command jobtrack is the admin CLI: schema migration, status catalog
// maintenance, user provisioning and session token minting.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/jobtrack/internal/config"
	"github.com/dharsanguruparan/jobtrack/internal/database"
	"github.com/dharsanguruparan/jobtrack/internal/model"
	"github.com/dharsanguruparan/jobtrack/internal/repository"
	"github.com/dharsanguruparan/jobtrack/internal/signing"
	"github.com/dharsanguruparan/jobtrack/internal/tracker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "jobtrack: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "jobtrack",
		Short:        "jobtrack admin CLI",
		Long:         `jobtrack CLI manages the database schema, the status catalog and user accounts, and mints session tokens for API clients.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newUserCmd(),
		newTokenCmd(),
		newStatusCmd(),
	)
	return cmd
}

// withPool loads configuration and hands a migrated connection pool to fn.
func withPool(ctx context.Context, fn func(cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store != config.StorePostgres {
		return errors.New("admin commands need JOBTRACK_STORE=postgres")
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	return fn(cfg, pool)
}

func newService(cfg *config.Config, pool *pgxpool.Pool) *tracker.Service {
	return tracker.NewService(repository.NewStatusRepository(pool), repository.NewJobRepository(pool), cfg.PageSize)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(cfg *config.Config, pool *pgxpool.Pool) error {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert reference data",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "statuses",
		Short: "Create the default statuses that are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(cfg *config.Config, pool *pgxpool.Pool) error {
				added, err := newService(cfg, pool).SeedStatuses(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d statuses\n", added)
				return nil
			})
		},
	})
	return cmd
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	var email, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user, or rename the one owning --email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(cfg *config.Config, pool *pgxpool.Pool) error {
				user, err := repository.NewUserRepository(pool).CreateUser(cmd.Context(), email, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d <%s>\n", user.ID, user.Email)
				return nil
			})
		},
	}
	create.Flags().StringVar(&email, "email", "", "Email address (unique)")
	create.Flags().StringVar(&name, "name", "", "Display name")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("name")
	cmd.AddCommand(create)
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userID int64
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if os.Getenv("JOBTRACK_SESSION_SECRET") == "" {
				return errors.New("JOBTRACK_SESSION_SECRET must be set so the server accepts the token")
			}
			if userID <= 0 {
				return errors.New("--user must be a positive id")
			}
			if ttl <= 0 {
				ttl = cfg.SessionTTL
			}
			token := signing.NewSigner(cfg.SessionSecret).Token(userID, ttl, time.Now())
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User id the token authenticates")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JOBTRACK_SESSION_TTL)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Manage the status catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List statuses by id",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPool(cmd.Context(), func(cfg *config.Config, pool *pgxpool.Pool) error {
					statuses, err := newService(cfg, pool).Statuses(cmd.Context(), model.StatusesByID)
					if err != nil {
						return err
					}
					return printStatuses(cmd, statuses)
				})
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a status",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPool(cmd.Context(), func(cfg *config.Config, pool *pgxpool.Pool) error {
					st, err := newService(cfg, pool).CreateStatus(cmd.Context(), tracker.StatusInput{Name: args[0]})
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "status %d %q created\n", st.ID, st.Name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete a status and every job record in it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid status id %q", args[0])
				}
				return withPool(cmd.Context(), func(cfg *config.Config, pool *pgxpool.Pool) error {
					if err := newService(cfg, pool).DeleteStatus(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "status %d deleted\n", id)
					return nil
				})
			},
		},
	)
	return cmd
}

func printStatuses(cmd *cobra.Command, statuses []model.Status) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED")
	for _, st := range statuses {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", st.ID, st.Name, st.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
