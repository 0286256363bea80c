package scheduler

import (
	"context"

	"github.com/keygate-inc/keygate/internal/application/idempotency"
	"github.com/keygate-inc/keygate/internal/application/licensing/dto"
	"github.com/keygate-inc/keygate/internal/application/licensing/usecases"
)

// ExpirySweepJob runs one expiry batch.
func ExpirySweepJob(uc *usecases.ExpireOverdueUseCase, batchSize int) BatchJob {
	return BatchJobFunc(func(ctx context.Context) (int, error) {
		res, err := uc.Execute(ctx, dto.ExpireOverdueCommand{BatchSize: batchSize})
		if err != nil {
			if res != nil {
				return res.Expired, err
			}
			return 0, err
		}
		// a batch that expired nothing ends the drain even when it was full
		if res.Expired == 0 {
			return 0, nil
		}
		return res.Scanned, nil
	})
}

// IdempotencyPurgeJob deletes one batch of expired records.
func IdempotencyPurgeJob(p *idempotency.Purger, batchSize int) BatchJob {
	return BatchJobFunc(func(ctx context.Context) (int, error) {
		n, err := p.Purge(ctx, batchSize)
		return int(n), err
	})
}
