package migrate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keygate-inc/keygate/internal/infrastructure/migration"
	"github.com/keygate-inc/keygate/internal/interfaces/cli/bootstrap"
	"github.com/keygate-inc/keygate/internal/shared/constants"
)

var (
	env   string
	name  string
	dir   string
	steps int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations including running migrations, checking status, and creating new migration files.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply all pending database migrations to bring the database schema up to date.`,
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		Long:  `Rollback a specified number of database migrations.`,
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  `Display the current migration version and status of the database.`,
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new migration",
		Long:  `Create a new timestamped SQL migration file. Migrations are embedded at build time, so rebuild afterwards.`,
		RunE:  runCreate,
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	cmd.Flags().StringVar(&dir, "dir", "./internal/infrastructure/migration/scripts", "Directory to write the migration into")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func open() (*bootstrap.Runtime, *migration.GooseStrategy, error) {
	rt, err := bootstrap.Open(context.Background(), bootstrap.ResolveEnv(env))
	if err != nil {
		return nil, nil, err
	}
	return rt, migration.NewGooseStrategy(rt.Logger), nil
}

func runUp(cmd *cobra.Command, args []string) error {
	rt, strategy, err := open()
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.Logger.Infow("running up migrations", "environment", rt.Env)
	if err := strategy.Migrate(rt.DB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	rt.Logger.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	rt, strategy, err := open()
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.Logger.Infow("running down migrations", "environment", rt.Env, "steps", steps)
	if err := strategy.MigrateDown(rt.DB, steps); err != nil {
		return fmt.Errorf("down migration failed: %w", err)
	}

	rt.Logger.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, strategy, err := open()
	if err != nil {
		return err
	}
	defer rt.Close()

	version, err := strategy.GetVersion(rt.DB)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	pending, err := migration.Pending(version)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Environment:     %s\n", rt.Env)
	fmt.Fprintf(out, "  Current Version: %d\n", version)
	fmt.Fprintf(out, "  Pending:         %d\n\n", len(pending))

	if err := strategy.Status(rt.DB); err != nil {
		return fmt.Errorf("failed to get detailed status: %w", err)
	}
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap.Load(bootstrap.ResolveEnv(env))
	if err != nil {
		return err
	}

	if err := migration.NewGooseStrategy(rt.Logger).Create(dir, name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migration '%s' created in %s\n", name, dir)
	return nil
}
