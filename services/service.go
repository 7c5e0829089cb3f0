package services

import (
	"context"
	"errors"
	"time"

	"github.com/Kariqs/amexan-commerce/events"
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/repositories"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint
	Admin  bool
}

// System acts on behalf of the platform itself, e.g. for gateway
// notifications.
var System = Actor{Admin: true}

func (a Actor) owns(userID uint) bool {
	return a.Admin || a.UserID == userID
}

type Options struct {
	// MaxRetries bounds how often a transaction is replayed after a
	// deadlock or serialization failure.
	MaxRetries int
	Logger     zerolog.Logger
	Publisher  events.Publisher
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.Publisher == nil {
		o.Publisher = events.NopPublisher{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type base struct {
	store *repositories.Store
	opts  Options
}

func newBase(store *repositories.Store, opts Options) base {
	return base{store: store, opts: opts.withDefaults()}
}

func (b *base) now() time.Time {
	return b.opts.Now()
}

func (b *base) logger() *zerolog.Logger {
	return &b.opts.Logger
}

func (b *base) reader(ctx context.Context) *repositories.Store {
	return b.store.WithContext(ctx)
}

// inTx runs fn inside one database transaction and replays it when the
// database aborts it for a lock conflict. fn must not keep state across
// attempts.
func (b *base) inTx(ctx context.Context, op string, fn func(tx *repositories.Store) error) error {
	for attempt := 0; ; attempt++ {
		err := b.store.Transaction(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) || attempt >= b.opts.MaxRetries {
			return b.fail(op, err)
		}

		b.logger().Warn().Err(err).
			Str("op", op).
			Int("attempt", attempt+1).
			Msg("transaction conflict, retrying")
		if err := backoff(ctx, attempt+1); err != nil {
			return b.fail(op, err)
		}
	}
}

// fail converts whatever an operation returned into a service error.
func (b *base) fail(op string, err error) error {
	var svcErr *Error
	switch {
	case errors.As(err, &svcErr):
		return svcErr
	case errors.Is(err, repositories.ErrNotFound):
		return NotFound("record")
	case errors.Is(err, models.ErrPaidCanceledOrder):
		return InvalidState(models.MsgPaidCanceledOrder)
	case errors.Is(err, models.ErrDeliveredWithoutDate):
		return Validation("Delivered date must be set if shipment is marked as delivered.")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Message: "record already exists", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Internal(op+" interrupted", err)
	}

	b.logger().Error().Err(err).Str("op", op).Msg("operation failed")
	return Internal(op+" failed", err)
}

// publish hands committed events to the broker. A publish failure is logged
// and never undoes the committed change.
func (b *base) publish(ctx context.Context, evts ...events.Event) {
	if len(evts) == 0 {
		return
	}
	if err := b.opts.Publisher.Publish(ctx, evts...); err != nil {
		b.logger().Warn().Err(err).Int("events", len(evts)).Msg("event publish failed")
	}
}

// normalizePage applies the listing defaults used by every paginated
// endpoint.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 15
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
