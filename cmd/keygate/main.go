// Keygate serves the license lifecycle and seat allocation APIs.
//
//	@title						Keygate API
//	@version					1.0
//	@description				License lifecycle, seat allocation and idempotent brand writes.
//	@BasePath					/
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
//	@securityDefinitions.apikey	LicenseKeyAuth
//	@in							header
//	@name						X-License-Key
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/keygate-inc/keygate/internal/interfaces/cli/brand"
	"github.com/keygate-inc/keygate/internal/interfaces/cli/events"
	"github.com/keygate-inc/keygate/internal/interfaces/cli/expire"
	"github.com/keygate-inc/keygate/internal/interfaces/cli/migrate"
	"github.com/keygate-inc/keygate/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "keygate",
		Short:        "Keygate - license lifecycle and seat allocation",
		Long:         `Keygate issues license keys for brands, tracks seat activations and serves license checks to installed software.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		brand.NewCommand(),
		expire.NewCommand(),
		events.NewCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
