package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keygate-inc/keygate/internal/infrastructure/pubsub"
	"github.com/keygate-inc/keygate/internal/interfaces/cli/bootstrap"
	"github.com/keygate-inc/keygate/internal/shared/constants"
)

var (
	env        string
	tenantID   string
	eventTypes []string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the domain event stream",
	}
	cmd.PersistentFlags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")

	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print events published on the Redis channel as JSON lines",
		Long:  `Follow the Redis event channel until interrupted. Only useful with events.transport set to redis.`,
		RunE:  runTail,
	}
	tail.Flags().StringVar(&tenantID, "tenant", "", "Only print events of this brand id")
	tail.Flags().StringSliceVar(&eventTypes, "type", nil, "Only print these event types")

	cmd.AddCommand(tail)
	return cmd
}

// envelopeFilter matches envelopes by tenant and type. Empty fields match everything.
type envelopeFilter struct {
	tenantID string
	types    map[string]struct{}
}

func newEnvelopeFilter(tenantID string, types []string) envelopeFilter {
	f := envelopeFilter{tenantID: tenantID}
	if len(types) > 0 {
		f.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			f.types[t] = struct{}{}
		}
	}
	return f
}

func (f envelopeFilter) match(env pubsub.Envelope) bool {
	if f.tenantID != "" && env.TenantID != f.tenantID {
		return false
	}
	if f.types != nil {
		if _, ok := f.types[env.EventType]; !ok {
			return false
		}
	}
	return true
}

func printer(w io.Writer, f envelopeFilter) pubsub.EnvelopeHandler {
	enc := json.NewEncoder(w)
	return func(_ context.Context, env pubsub.Envelope) {
		if f.match(env) {
			_ = enc.Encode(env)
		}
	}
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, bootstrap.ResolveEnv(env))
	if err != nil {
		return err
	}
	defer rt.Close()
	if rt.Redis == nil {
		return fmt.Errorf("redis is required to tail events")
	}

	bus := pubsub.NewRedisEventBus(rt.Redis, rt.Config.Events.RedisChannel, rt.Logger)
	err = bus.Subscribe(ctx, printer(cmd.OutOrStdout(), newEnvelopeFilter(tenantID, eventTypes)))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
