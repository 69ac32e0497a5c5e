// Command procctl is the operator tool for engageflow: schema migrations, content
// integrity verification, history export and development user setup.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"engageflow/internal/identity"
	jwttoken "engageflow/internal/jwt_token"
	"engageflow/internal/platform/config"
	"engageflow/internal/platform/logger"
	"engageflow/internal/platform/postgres"
	"engageflow/internal/procedure/models"
	"engageflow/internal/procedure/service"
	"engageflow/internal/procedure/store"
	id "engageflow/pkg/domain"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "procctl",
		Short:         "Operate the engageflow procedure workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML config file (defaults to $"+config.ConfigPathEnv+")")

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the firm user directory",
	}
	userCmd.AddCommand(userAddCmd())

	rootCmd.AddCommand(
		migrateCmd(),
		verifyCmd(),
		verifyEngagementCmd(),
		historyCmd(),
		userCmd,
		tokenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// withDB runs fn against the configured database. Every command except token needs one.
func withDB(cmd *cobra.Command, fn func(ctx context.Context, cfg config.Config, db *sql.DB) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, cfg, db)
}

// newService builds a service for operator reads. These operations need no acting user.
func newService(cfg config.Config, db *sql.DB) *service.Service {
	log := logger.NewWithWriter(os.Stderr, cfg.Log)
	directory := identity.NewPostgresDirectory(db)
	return service.New(store.NewPostgres(db), identity.NewProvider(directory, identity.WithLogger(log)),
		service.WithLogger(log),
	)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, _ config.Config, db *sql.DB) error {
				applied, err := postgres.Migrate(ctx, db)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
					return nil
				}
				for _, name := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
				}
				return nil
			})
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <procedure-id>",
		Short: "Check that a procedure's content matches its last sign-off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			procedureID, err := id.ParseProcedureID(args[0])
			if err != nil {
				return err
			}
			return withDB(cmd, func(ctx context.Context, cfg config.Config, db *sql.DB) error {
				report, err := newService(cfg, db).ValidateContentIntegrity(ctx, procedureID)
				if err != nil {
					return err
				}
				return printReports(cmd.OutOrStdout(), []*models.IntegrityReport{report})
			})
		},
	}
}

func verifyEngagementCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-engagement <engagement-id>",
		Short: "Check content integrity of every procedure in an engagement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engagementID, err := id.ParseEngagementID(args[0])
			if err != nil {
				return err
			}
			return withDB(cmd, func(ctx context.Context, cfg config.Config, db *sql.DB) error {
				reports, err := newService(cfg, db).VerifyEngagement(ctx, engagementID)
				if err != nil {
					return err
				}
				return printReports(cmd.OutOrStdout(), reports)
			})
		},
	}
}

// printReports writes one line per procedure and fails when any content changed.
func printReports(w io.Writer, reports []*models.IntegrityReport) error {
	mismatches := 0
	for _, r := range reports {
		status := "ok"
		if !r.Valid {
			status = "MISMATCH"
			mismatches++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Procedure.ID, r.Procedure.State, status, r.Procedure.Name)
	}
	if mismatches > 0 {
		return fmt.Errorf("%d of %d procedures changed after sign-off", mismatches, len(reports))
	}
	return nil
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <procedure-id>",
		Short: "Print a procedure's transition log and sign-off history as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			procedureID, err := id.ParseProcedureID(args[0])
			if err != nil {
				return err
			}
			return withDB(cmd, func(ctx context.Context, cfg config.Config, db *sql.DB) error {
				history, err := newService(cfg, db).History(ctx, procedureID)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(history)
			})
		},
	}
}

func userAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a firm user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			rawRole, _ := cmd.Flags().GetString("role")
			rawID, _ := cmd.Flags().GetString("id")

			role, err := id.ParseFirmRole(rawRole)
			if err != nil {
				return err
			}
			userID := id.UserID(uuid.New())
			if rawID != "" {
				if userID, err = id.ParseUserID(rawID); err != nil {
					return err
				}
			}
			user, err := identity.NewUser(userID, email, name, role, time.Now().UTC())
			if err != nil {
				return err
			}
			return withDB(cmd, func(ctx context.Context, _ config.Config, db *sql.DB) error {
				if err := identity.NewPostgresDirectory(db).Save(ctx, user); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), user.ID.String())
				return nil
			})
		},
	}
	cmd.Flags().String("email", "", "User email")
	cmd.Flags().String("name", "", "Display name (derived from the email when empty)")
	cmd.Flags().String("role", "", "Firm role: staff, senior, supervisor, manager or partner")
	cmd.Flags().String("id", "", "User ID (generated when empty)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token for a user (development only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := id.ParseUserID(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer).GenerateAccessToken(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to auth.tokenTTL)")
	return cmd
}
