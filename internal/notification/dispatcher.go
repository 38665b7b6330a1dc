package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Deliverer синхронная доставка, реализуется Router
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// Direct доставляет уведомления в фоне без очереди. Используется, когда Redis не настроен.
type Direct struct {
	deliverer Deliverer
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewDirect(deliverer Deliverer, timeout time.Duration, logger *zap.Logger) *Direct {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Direct{deliverer: deliverer, timeout: timeout, logger: logger}
}

// Notify не ждёт доставки, ошибки только логируются
func (d *Direct) Notify(ctx context.Context, n Notification) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.deliverer.Deliver(ctx, n); err != nil {
			d.logger.Error("Notification delivery failed",
				zap.String("event", string(n.Event)),
				zap.Int64("booking_id", n.BookingID),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Wait дожидается фоновых доставок, вызывается при остановке
func (d *Direct) Wait() {
	d.wg.Wait()
}
