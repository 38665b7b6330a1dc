package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Sender один канал доставки
type Sender interface {
	Name() string
	Accepts(r Recipient) bool
	Send(ctx context.Context, r Recipient, n Notification) error
}

// Router доставляет уведомление каждому получателю по всем подходящим каналам
type Router struct {
	senders []Sender
	logger  *zap.Logger
}

func NewRouter(logger *zap.Logger, senders ...Sender) *Router {
	return &Router{senders: senders, logger: logger}
}

// Deliver продолжает доставку при ошибке канала, ошибки объединяются
func (r *Router) Deliver(ctx context.Context, n Notification) error {
	var errs []error
	for _, recipient := range n.Recipients {
		for _, sender := range r.senders {
			if !sender.Accepts(recipient) {
				continue
			}
			if err := sender.Send(ctx, recipient, n); err != nil {
				r.logger.Warn("Failed to deliver notification",
					zap.String("channel", sender.Name()),
					zap.String("event", string(n.Event)),
					zap.Int64("booking_id", n.BookingID),
					zap.String("recipient_role", string(recipient.Role)),
					zap.Error(err),
				)
				errs = append(errs, fmt.Errorf("%s: %w", sender.Name(), err))
				continue
			}
			r.logger.Debug("Notification delivered",
				zap.String("channel", sender.Name()),
				zap.String("event", string(n.Event)),
				zap.Int64("booking_id", n.BookingID),
			)
		}
	}
	return errors.Join(errs...)
}
