package main

import (
	"context"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/app"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/config"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	mysqlrepo "github.com/ArowuTest/lottery-ticketing-backend/internal/repositories/mysql"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/utils"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/jwt"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Options{Level: cfg.Log.Level}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp builds the application from configuration, runs fn and releases it
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// MigrateCmd applies the MySQL schema
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or revert with --down) the MySQL schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			down, _ := cmd.Flags().GetBool("down")
			version, err := mysqlrepo.Migrate(cfg.MySQL.DSN, down)
			if err != nil {
				return err
			}
			fmt.Printf("schema at version %d\n", version)
			return nil
		},
	}
	cmd.Flags().Bool("down", false, "revert every migration")
	return cmd
}

// ImportTicketsCmd loads a CSV or XLSX ticket sheet into a round
func ImportTicketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-tickets <file>",
		Short: "Import tickets from a CSV or XLSX sheet (columns number, price, set_size)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roundID, _ := cmd.Flags().GetInt64("round")
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			specs, err := utils.ParseTicketFile(args[0], f)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				tickets, err := a.Services.Tickets.UploadTickets(ctx, roundID, specs)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d tickets into round %d\n", len(tickets), roundID)
				return nil
			})
		},
	}
	cmd.Flags().Int64P("round", "r", 0, "round id")
	cmd.MarkFlagRequired("round")
	return cmd
}

// ReapCmd runs one expiry sweep
func ReapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Run one expiry sweep and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Services.Expiry.Sweep(ctx)
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
}

// CheckCmd matches a number against a drawn round
func CheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <number>",
		Short: "Check a ticket number against a drawn round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roundID, _ := cmd.Flags().GetInt64("round")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Services.Rounds.CheckNumber(ctx, roundID, args[0])
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
	cmd.Flags().Int64P("round", "r", 0, "round id")
	cmd.MarkFlagRequired("round")
	return cmd
}

// TokenCmd issues a bearer token for local testing and gateway provisioning
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET is not configured")
			}
			subject, _ := cmd.Flags().GetString("subject")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			switch role {
			case jwt.RoleBuyer, jwt.RoleGateway, jwt.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			tok, err := jwt.Issue([]byte(cfg.JWT.Secret), subject, role, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringP("subject", "s", "", "user id (msisdn for buyers)")
	cmd.MarkFlagRequired("subject")
	cmd.Flags().String("role", jwt.RoleBuyer, "buyer, gateway or admin")
	cmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	return cmd
}
