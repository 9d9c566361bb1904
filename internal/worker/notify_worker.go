package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/metrics"
	"rentalhub/internal/models"
	"rentalhub/internal/notify"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NotifyWorker is the notification dispatcher. A state change enqueues
// a durable task (DB row plus redis or in-memory queue); the worker
// loop delivers it through a Sender with exponential retry and a dead
// letter list. Delivery failures never reach the booking operation.
type NotifyWorker struct {
	repo          domain.Repository
	sender        notify.Sender
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.NotificationTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewNotifyWorker builds a worker with sane defaults.
func NewNotifyWorker(repo domain.Repository, sender notify.Sender, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &NotifyWorker{
		repo:          repo,
		sender:        sender,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.NotificationTask, models.NotifyQueueSize),
		redisQueueKey: "notify:queue",
		deadLetterKey: "notify:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// Dispatch implements domain.Dispatcher. It persists the task and
// schedules it; errors are logged and swallowed by contract.
func (w *NotifyWorker) Dispatch(ctx context.Context, kind string, rental *models.Rental, recipientID int64) {
	payload, err := json.Marshal(notify.Snapshot(rental))
	if err != nil {
		w.logger.Error().Err(err).Int64("rental_id", rental.ID).Str("kind", kind).Msg("notify: encode payload")
		return
	}

	task := models.NotificationTask{
		Kind:        kind,
		RentalID:    rental.ID,
		RecipientID: recipientID,
		Payload:     string(payload),
		Status:      "pending",
	}

	if err := w.repo.CreateNotificationTask(ctx, &task); err != nil {
		w.logger.Error().Err(err).Int64("rental_id", rental.ID).Str("kind", kind).Msg("notify: persist task")
		return
	}

	// Try redis first for prompt pickup.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("notify: redis push failed, fallback to memory queue")
		} else {
			return
		}
	}

	select {
	case w.queue <- task:
	default:
		// Queue full; the polling loop will pick the row up.
		w.logger.Warn().Int64("task_id", task.ID).Msg("notify: in-memory queue full, task left to polling")
	}
}

// Start launches the delivery loop; stops when ctx is done.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("notify worker started")
	defer w.logger.Info().Msg("notify worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.repo.GetPendingNotificationTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("notify: fetch pending")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *NotifyWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *NotifyWorker) tryLocalQueue() (models.NotificationTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.NotificationTask{}, false
	}
}

func (w *NotifyWorker) tryRedis(ctx context.Context) (models.NotificationTask, bool) {
	if w.redis == nil {
		return models.NotificationTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.NotificationTask{}, false
		}
		w.logger.Error().Err(err).Msg("notify: redis BRPOP")
		return models.NotificationTask{}, false
	}
	if len(res) != 2 {
		return models.NotificationTask{}, false
	}
	var task models.NotificationTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("notify: decode redis task")
		return models.NotificationTask{}, false
	}
	return task, true
}

func (w *NotifyWorker) processTask(ctx context.Context, task *models.NotificationTask) {
	if err := w.deliver(ctx, task); err != nil {
		metrics.IncNotification(task.Kind, "error")
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncNotification(task.Kind, "delivered")
	if err := w.repo.UpdateNotificationTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notify: mark completed")
	}
}

func (w *NotifyWorker) deliver(ctx context.Context, task *models.NotificationTask) error {
	var payload notify.RentalEventPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	recipient, err := w.repo.GetUserByID(ctx, task.RecipientID)
	if err != nil {
		return fmt.Errorf("resolve recipient %d: %w", task.RecipientID, err)
	}

	return w.sender.Send(ctx, task.Kind, payload, recipient)
}

func (w *NotifyWorker) retryOrFail(ctx context.Context, task *models.NotificationTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.logger.Error().Err(cause).Int64("task_id", task.ID).Str("kind", task.Kind).Msg("notify: giving up")
		if err := w.repo.UpdateNotificationTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notify: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextTime := time.Now().UTC().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.repo.UpdateNotificationTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notify: mark retry")
	}
}

func (w *NotifyWorker) pushRedis(ctx context.Context, task models.NotificationTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *NotifyWorker) pushDeadLetter(ctx context.Context, task *models.NotificationTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notify: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notify: deadletter push")
	}
}

var _ domain.Dispatcher = (*NotifyWorker)(nil)
