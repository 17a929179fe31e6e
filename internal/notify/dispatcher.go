// Package notify delivers outbound texts with bounded retries.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// Sender is the raw transport primitive wrapped by the Dispatcher.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Summary counts the outcome of a fan-out.
type Summary struct {
	Sent   int
	Failed int
}

// Total returns the number of attempted recipients.
func (s Summary) Total() int {
	return s.Sent + s.Failed
}

// Dispatcher retries transient send failures with exponentially increasing delay.
type Dispatcher struct {
	Sender Sender

	// Attempts is the total number of tries per recipient, including the first one.
	Attempts uint
	// InitialDelay is the wait before the second try; it doubles afterwards.
	InitialDelay time.Duration
	// Parallelism bounds concurrent deliveries in Broadcast.
	Parallelism int
}

// NewDispatcher returns a Dispatcher with the default retry policy.
func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{
		Sender:       sender,
		Attempts:     config.DefaultSendAttempts,
		InitialDelay: config.DefaultSendDelay,
		Parallelism:  config.DefaultBroadcastPar,
	}
}

// Send delivers text to chatID. The error is informational: failures are already
// logged and callers must not fail their own transition because of it.
func (d *Dispatcher) Send(ctx context.Context, chatID int64, text string) error {
	log := slog.With(
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyChat, chatID,
	)
	if err := ctx.Err(); err != nil {
		log.Warn(config.MsgDeliveryDropped, config.LogKeyError, err)
		return fmt.Errorf("%s: %w", config.ErrDeliveryFailed, err)
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, d.Sender.SendText(ctx, chatID, text)
	},
		backoff.WithBackOff(d.policy()),
		backoff.WithMaxTries(max(d.Attempts, 1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn(config.MsgRetry,
				config.LogKeyAttempt, attempt,
				config.LogKeyDelay, next.Milliseconds(),
				config.LogKeyError, err,
			)
		}),
	)
	if err != nil {
		log.Error(config.ErrDeliveryFailed,
			config.LogKeyAttempt, attempt,
			config.LogKeyError, err,
		)
		return fmt.Errorf("%s: %w", config.ErrDeliveryFailed, err)
	}
	return nil
}

// Broadcast sends text to every recipient independently; one failure never stops the others.
func (d *Dispatcher) Broadcast(ctx context.Context, recipients []int64, text string) Summary {
	var sent, failed atomic.Int64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(d.Parallelism, 1))
	for _, id := range recipients {
		g.Go(func() error {
			if err := d.Send(gctx, id, text); err != nil {
				failed.Add(1)
			} else {
				sent.Add(1)
			}
			// Never return the error: it would cancel the remaining deliveries.
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{Sent: int(sent.Load()), Failed: int(failed.Load())}
	slog.Info(config.MsgBroadcastDone,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyRecipients, len(recipients),
		config.LogKeySent, summary.Sent,
		config.LogKeyFailed, summary.Failed,
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return summary
}

func (d *Dispatcher) policy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.InitialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = config.DefaultMaxSendDelay
	return b
}
