package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"cargo-logistics-service/internal/adapters/repositories"
	"cargo-logistics-service/internal/auth"
	"cargo-logistics-service/internal/config"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/db"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/services"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd is the database maintenance tool. It reads the same DB_DRIVER,
// DATABASE_URL and DB_PATH settings as the server.
var rootCmd = &cobra.Command{
	Use:           "dbtool",
	Short:         "Database maintenance for the cargo logistics service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// migrateCmd creates the schema and the system roles.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB) error {
			if err := repositories.InitSchema(ctx, conn); err != nil {
				return err
			}
			zap.L().Info("schema ready")
			return nil
		})
	},
}

var seedFile string

// seedCmd loads clients, suppliers and containers from a JSON file.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference data from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB) error {
			if err := repositories.InitSchema(ctx, conn); err != nil {
				return err
			}
			if err := repositories.SeedFromJSON(ctx, conn, seedFile); err != nil {
				return err
			}
			zap.L().Info("seed loaded", zap.String("file", seedFile))
			return nil
		})
	},
}

var admin adminInput

// createAdminCmd adds a staff account holding the admin role.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a staff user with the admin role",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB) error {
			if err := repositories.InitSchema(ctx, conn); err != nil {
				return err
			}
			u, err := createAdmin(ctx, conn, admin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", config.Get("SEED_PATH", "data/seeds/seed.json"), "path to the seed JSON file")

	f := createAdminCmd.Flags()
	f.StringVar(&admin.Email, "email", "", "login email (required)")
	f.StringVar(&admin.Password, "password", "", "initial password (required)")
	f.StringVar(&admin.FirstName, "first-name", "System", "first name")
	f.StringVar(&admin.LastName, "last-name", "Administrator", "last name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd, seedCmd, createAdminCmd)
}

type adminInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// createAdmin goes through the team service so the account gets the same
// validation and hashing as one created from the API.
func createAdmin(ctx context.Context, conn *sql.DB, in adminInput) (*domain.User, error) {
	roles := repositories.NewSQLRoleRepository(conn)
	role, err := roles.GetRoleByName(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	team := &services.TeamService{
		Users:   repositories.NewSQLUserRepository(conn),
		Roles:   roles,
		Clients: repositories.NewSQLClientRepository(conn),
		Hasher:  auth.NewBcryptHasher(),
	}
	u := &domain.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		RoleID:    role.ID,
		UserType:  domain.UserTypeAdmin,
		Status:    domain.UserActive,
	}
	if err := team.CreateUser(ctx, u, in.Password); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return u, nil
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	driver := config.Get("DB_DRIVER", "sqlite")
	dsn := config.Get("DB_PATH", "data/app.db")
	if driver == "pgx" {
		dsn = os.Getenv("DATABASE_URL")
	}
	conn, err := db.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, conn)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	logger, err := obs.NewLogger(config.Get("LOG_LEVEL", "info"), "console")
	if err != nil {
		log.Fatal(err)
	}
	zap.ReplaceGlobals(logger)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("dbtool failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}
