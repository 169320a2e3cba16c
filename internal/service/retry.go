package service

import (
	"context"
	"time"

	"github.com/Manthan2028/resqnet/internal/config"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/cenkalti/backoff/v4"
)

// WritePolicy ограничивает каждую попытку записи таймаутом и повторяет временные ошибки
// с экспоненциальной задержкой. Ошибки бизнес-логики не повторяются.
type WritePolicy struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

func NewWritePolicy(cfg *config.Config) WritePolicy {
	return WritePolicy{
		Timeout:    cfg.WriteTimeout,
		MaxRetries: cfg.WriteMaxRetries,
		BaseDelay:  cfg.WriteBaseDelay,
	}
}

// Do выполняет op не более MaxRetries+1 раз
func (p WritePolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxElapsedTime = 0

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)

	return backoff.Retry(func() error {
		attemptCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		if models.IsDomainError(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
