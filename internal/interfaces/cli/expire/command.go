package expire

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
	"github.com/keygate-inc/keygate/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/keygate-inc/keygate/internal/interfaces/http"
	"github.com/keygate-inc/keygate/internal/shared/constants"
)

var (
	env       string
	dryRun    bool
	batchSize int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Expire licenses past their expiry time",
		Long: `Move stored valid licenses whose expiry has passed to expired, emitting
a license.expired event for each. With --dry-run the candidates are only listed.`,
		RunE: run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List overdue licenses without changing them")
	cmd.Flags().IntVar(&batchSize, "batch-size", 500, "Licenses handled per batch")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := bootstrap.Open(ctx, bootstrap.ResolveEnv(env))
	if err != nil {
		return err
	}
	defer rt.Close()

	c, err := httpRouter.NewContainer(ctx, rt.Config, rt.DB, rt.Redis, rt.Logger)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	out := cmd.OutOrStdout()
	total := 0
	for {
		res, err := c.ExpireOverdue().Execute(ctx, dto.ExpireOverdueCommand{BatchSize: batchSize, DryRun: dryRun})
		if err != nil {
			return fmt.Errorf("expiry sweep failed: %w", err)
		}
		for _, id := range res.LicenseIDs {
			fmt.Fprintln(out, id)
		}
		total += res.Expired
		// a dry run never changes the candidate set
		if dryRun || res.Scanned < batchSize || res.Expired == 0 {
			if dryRun {
				fmt.Fprintf(out, "%d licenses would expire\n", len(res.LicenseIDs))
			} else {
				fmt.Fprintf(out, "%d licenses expired\n", total)
			}
			return nil
		}
	}
}
