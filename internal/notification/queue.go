package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeDeliver = "notification:deliver"
	queueName   = "notifications"
	maxRetry    = 5
)

// NewDeliverTask задача доставки уведомления
func NewDeliverTask(n Notification) (*asynq.Task, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	return asynq.NewTask(TypeDeliver, payload, asynq.Queue(queueName), asynq.MaxRetry(maxRetry)), nil
}

// Enqueuer часть *asynq.Client
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue ставит уведомления в очередь Redis, доставляет их Worker
type Queue struct {
	client Enqueuer
	logger *zap.Logger
}

func NewQueue(client Enqueuer, logger *zap.Logger) *Queue {
	return &Queue{client: client, logger: logger}
}

func (q *Queue) Notify(ctx context.Context, n Notification) error {
	task, err := NewDeliverTask(n)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	q.logger.Debug("Notification enqueued",
		zap.String("task_id", info.ID),
		zap.String("event", string(n.Event)),
		zap.Int64("booking_id", n.BookingID),
	)
	return nil
}

// Worker обрабатывает задачи доставки из очереди
type Worker struct {
	server    *asynq.Server
	deliverer Deliverer
	logger    *zap.Logger
}

func NewWorker(redis asynq.RedisClientOpt, deliverer Deliverer, logger *zap.Logger) *Worker {
	server := asynq.NewServer(redis, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			queueName: 1,
		},
		Logger: logger.Sugar(),
	})
	return &Worker{server: server, deliverer: deliverer, logger: logger}
}

// Run работает до отмены ctx
func (w *Worker) Run(ctx context.Context) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDeliver, w.HandleDeliver)

	w.logger.Info("Starting notification worker")
	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("start notification worker: %w", err)
	}

	<-ctx.Done()
	w.server.Shutdown()
	w.logger.Info("Notification worker stopped")
	return nil
}

func (w *Worker) HandleDeliver(ctx context.Context, task *asynq.Task) error {
	var n Notification
	if err := json.Unmarshal(task.Payload(), &n); err != nil {
		w.logger.Error("Invalid notification payload", zap.Error(err))
		return fmt.Errorf("unmarshal notification: %v: %w", err, asynq.SkipRetry)
	}
	return w.deliverer.Deliver(ctx, n)
}
