// Package idempotency replays stored responses for retried write commands.
package idempotency

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	domain "github.com/keygate-inc/keygate/internal/domain/idempotency"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// Response is a command outcome as it goes over the wire.
type Response struct {
	StatusCode int
	Body       []byte
	Replayed   bool
}

// Command produces a response. It runs inside the ledger's transaction and
// must use the ctx it is given.
type Command func(ctx context.Context) (*Response, error)

// Ledger deduplicates commands by (tenant, token).
type Ledger struct {
	repo   domain.Repository
	txMgr  *db.TransactionManager
	clock  biztime.Clock
	ttl    time.Duration
	logger logger.Interface
}

// NewLedger creates a ledger. A non-positive ttl means domain.DefaultTTL.
func NewLedger(repo domain.Repository, txMgr *db.TransactionManager, clock biztime.Clock, ttl time.Duration, logger logger.Interface) *Ledger {
	if ttl <= 0 {
		ttl = domain.DefaultTTL
	}
	return &Ledger{
		repo:   repo,
		txMgr:  txMgr,
		clock:  clock,
		ttl:    ttl,
		logger: logger,
	}
}

// Execute runs cmd at most once per unexpired (tenantID, token).
//
// An empty token runs cmd directly. A stored record is returned verbatim
// without calling cmd, whatever the new request contained. Otherwise cmd and
// the insert of its record share one transaction; only successes are
// recorded. When a concurrent caller records the token first, this call's
// writes roll back and the winner's response is returned.
func (l *Ledger) Execute(ctx context.Context, tenantID, token string, cmd Command) (*Response, error) {
	if token == "" {
		return cmd(ctx)
	}
	if len(token) > constants.MaxIdempotencyKeyLength {
		return nil, errors.NewValidationError(fmt.Sprintf("idempotency key must be at most %d characters", constants.MaxIdempotencyKeyLength))
	}
	if tenantID == "" {
		return nil, errors.NewUnauthorizedError("tenant is not resolved")
	}

	now := l.clock.Now()
	rec, err := l.repo.Get(ctx, tenantID, token)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}
	if rec != nil {
		if !rec.IsExpired(now) {
			return replay(rec), nil
		}
		if err := l.repo.DeleteExpiredKey(ctx, tenantID, token, now); err != nil {
			return nil, db.MapError(ctx, err)
		}
	}

	var resp *Response
	err = l.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		r, err := cmd(txCtx)
		if err != nil {
			return err
		}
		record, err := domain.NewRecord(tenantID, token, r.StatusCode, r.Body, l.clock.Now(), l.ttl)
		if err != nil {
			return err
		}
		if err := l.repo.Insert(txCtx, record); err != nil {
			return err
		}
		resp = r
		return nil
	})
	if stderrors.Is(err, domain.ErrDuplicate) {
		return l.replayWinner(ctx, tenantID, token)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (l *Ledger) replayWinner(ctx context.Context, tenantID, token string) (*Response, error) {
	rec, err := l.repo.Get(ctx, tenantID, token)
	if err != nil {
		return nil, db.MapError(ctx, err)
	}
	if rec == nil {
		// the winning record was purged between our rollback and this read
		return nil, errors.NewConflictError("idempotency key is in use, retry the request")
	}
	l.logger.Debugw("idempotency key raced, replaying winner", "tenant_id", tenantID)
	return replay(rec), nil
}

func replay(rec *domain.Record) *Response {
	return &Response{
		StatusCode: rec.StatusCode,
		Body:       rec.Response,
		Replayed:   true,
	}
}

// Purger deletes expired records for storage hygiene.
type Purger struct {
	repo   domain.Repository
	clock  biztime.Clock
	logger logger.Interface
}

// NewPurger creates a purger
func NewPurger(repo domain.Repository, clock biztime.Clock, logger logger.Interface) *Purger {
	return &Purger{repo: repo, clock: clock, logger: logger}
}

// Purge deletes up to limit expired records and returns how many went.
func (p *Purger) Purge(ctx context.Context, limit int) (int64, error) {
	n, err := p.repo.DeleteExpired(ctx, p.clock.Now(), limit)
	if err != nil {
		return 0, db.MapError(ctx, err)
	}
	if n > 0 {
		p.logger.Infow("purged expired idempotency records", "count", n)
	}
	return n, nil
}
