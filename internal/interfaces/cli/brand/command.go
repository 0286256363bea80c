package brand

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keygate-inc/keygate/internal/application/tenant/dto"
	"github.com/keygate-inc/keygate/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/keygate-inc/keygate/internal/interfaces/http"
	"github.com/keygate-inc/keygate/internal/shared/constants"
)

var (
	env string

	name      string
	slug      string
	prefix    string
	products  []string
	keyName   string
	scope     string
	expiresIn time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brand",
		Short: "Manage brands and their API keys",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")

	apikey := &cobra.Command{
		Use:   "apikey",
		Short: "Manage brand API keys",
	}
	apikey.AddCommand(newCreateAPIKeyCommand())

	cmd.AddCommand(newCreateCommand(), apikey)
	return cmd
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a brand with its products and a first API key",
		Long: `Create a brand, its products and a full-scope API key in one transaction.
The plaintext API key is printed once and never stored.`,
		Example: `  keygate brand create --name "Acme" --slug acme --prefix ACME --product pro:"Acme Pro" --product lite`,
		RunE:    runCreate,
	}

	cmd.Flags().StringVar(&name, "name", "", "Brand display name (required)")
	cmd.Flags().StringVar(&slug, "slug", "", "Brand slug (required)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "License key prefix, 2-10 characters A-Z0-9 (required)")
	cmd.Flags().StringArrayVar(&products, "product", nil, "Product as slug or slug:name, repeatable")
	cmd.Flags().StringVar(&keyName, "key-name", "default", "Name of the first API key")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("slug")
	_ = cmd.MarkFlagRequired("prefix")

	return cmd
}

func newCreateAPIKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue an additional API key for a brand",
		RunE:  runCreateAPIKey,
	}

	cmd.Flags().StringVar(&slug, "brand", "", "Brand slug (required)")
	cmd.Flags().StringVar(&keyName, "name", "default", "API key name")
	cmd.Flags().StringVar(&scope, "scope", "full", "API key scope (full, read)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Expire the key after this duration (0 never expires)")
	_ = cmd.MarkFlagRequired("brand")

	return cmd
}

// parseProducts turns slug[:name] flags into product specs
func parseProducts(values []string) ([]dto.ProductSpec, error) {
	specs := make([]dto.ProductSpec, 0, len(values))
	for _, v := range values {
		s, n, _ := strings.Cut(v, ":")
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("invalid --product %q: slug is required", v)
		}
		specs = append(specs, dto.ProductSpec{Slug: s, Name: strings.TrimSpace(n)})
	}
	return specs, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return enc.Close()
}

func container(ctx context.Context) (*bootstrap.Runtime, *httpRouter.Container, error) {
	rt, err := bootstrap.Open(ctx, bootstrap.ResolveEnv(env))
	if err != nil {
		return nil, nil, err
	}
	c, err := httpRouter.NewContainer(ctx, rt.Config, rt.DB, rt.Redis, rt.Logger)
	if err != nil {
		rt.Close()
		return nil, nil, err
	}
	return rt, c, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	specs, err := parseProducts(products)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rt, c, err := container(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	defer c.Shutdown()

	result, err := c.CreateBrand().Execute(ctx, dto.CreateBrandCommand{
		Name:       name,
		Slug:       slug,
		KeyPrefix:  prefix,
		Products:   specs,
		APIKeyName: keyName,
	})
	if err != nil {
		return fmt.Errorf("failed to create brand: %w", err)
	}
	return writeYAML(cmd.OutOrStdout(), result)
}

func runCreateAPIKey(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, c, err := container(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	defer c.Shutdown()

	var expiresAt *time.Time
	if expiresIn > 0 {
		t := time.Now().UTC().Add(expiresIn)
		expiresAt = &t
	}
	result, err := c.CreateAPIKey().Execute(ctx, dto.CreateAPIKeyCommand{
		BrandSlug: slug,
		Name:      keyName,
		Scope:     scope,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return writeYAML(cmd.OutOrStdout(), result)
}
