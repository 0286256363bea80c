// Package common holds helpers shared by the application use cases.
package common

import (
	"context"

	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/shared/db"
)

// PublishAfterCommit hands evts to publisher once the transaction in ctx
// commits. Nothing is published on rollback. Publish errors are left to the
// publisher; the committed change stands regardless.
func PublishAfterCommit(ctx context.Context, publisher events.EventPublisher, evts ...events.DomainEvent) {
	if publisher == nil || len(evts) == 0 {
		return
	}
	db.AfterCommit(ctx, func() {
		_ = publisher.PublishAll(evts)
	})
}
