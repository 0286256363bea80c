package db

import (
	"context"
	"errors"

	apperrors "github.com/keygate-inc/keygate/internal/shared/errors"
)

// MapError converts a storage error into the application taxonomy.
// AppErrors pass through unchanged. A cancelled or expired ctx, or a driver
// error wrapping a context error, becomes a retryable StorageTimeoutError.
func MapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return apperrors.NewStorageTimeoutError(err)
	}
	return apperrors.NewStorageUnavailableError(err)
}
