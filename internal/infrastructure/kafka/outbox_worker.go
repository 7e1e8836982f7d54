package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/cfg"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/jitter"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const (
	outboxChannel   = "outbox_pending"
	listenWaitLimit = 30 * time.Second
)

// OutboxWorker переносит события из outbox_events в Kafka. Будится через
// LISTEN/NOTIFY, а на случай потерянных уведомлений опрашивает таблицу по таймеру.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	cfg       *cfg.OutboxCfg
	dbConnStr string

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	cfg *cfg.OutboxCfg,
	dbConnStr string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		logger:    logger,
		producer:  producer,
		cfg:       cfg,
		dbConnStr: dbConnStr,
		wake:      make(chan struct{}, 1),
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	// Запускаем слушатель уведомлений
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

// Stop останавливает worker и ждёт завершения текущей пачки.
func (w *OutboxWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("outbox worker stop: %w", ctx.Err())
	}
}

func (w *OutboxWorker) run(ctx context.Context) {
	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped")
			return
		case <-w.wake:
			w.drain(ctx)
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain обрабатывает пачки, пока они заполняются целиком.
func (w *OutboxWorker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Outbox batch failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *OutboxWorker) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	backoff := jitter.NewBackoff(time.Second, 30*time.Second)

	for ctx.Err() == nil {
		conn, err := w.connect(ctx)
		if err != nil {
			w.logger.Warnf("LISTEN connect failed: %v", err)
			if !sleepCtx(ctx, backoff.Next()) {
				return
			}
			continue
		}
		backoff.Reset()

		err = w.waitNotifications(ctx, conn)
		_ = conn.Close(context.WithoutCancel(ctx))
		if err == nil || ctx.Err() != nil {
			return
		}

		w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
		// Пока нет подписки, уведомления могли потеряться
		w.notify()
		if !sleepCtx(ctx, backoff.Next()) {
			return
		}
	}
}

func (w *OutboxWorker) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, w.dbConnStr)
	if err != nil {
		return nil, e.Wrap("failed to connect for LISTEN", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+outboxChannel); err != nil {
		_ = conn.Close(ctx)
		return nil, e.Wrap("failed to LISTEN", err)
	}

	w.logger.Infof("Subscribed to '%s' channel", outboxChannel)
	return conn, nil
}

// waitNotifications возвращает nil при остановке и ошибку при потере соединения.
func (w *OutboxWorker) waitNotifications(ctx context.Context, conn *pgx.Conn) error {
	for {
		waitCtx, cancel := context.WithTimeout(ctx, listenWaitLimit)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			return err
		}

		if notif != nil && notif.Channel == outboxChannel {
			w.logger.Debugf("Received outbox notification")
			w.notify()
		}
	}
}

// processBatch публикует пачку событий. Неотправленные возвращаются в pending,
// и пачка считается последней, чтобы не долбить недоступный брокер.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.cfg.BatchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	failed := false
	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			failed = true
			w.logger.Warnf("publish event %s failed: %v", event.EventID, err)
			if err := w.repo.MarkAsPending(context.WithoutCancel(ctx), event.ID); err != nil {
				w.logger.Warnf("mark pending failed: %v", err)
			}
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return !failed && len(events) == w.cfg.BatchSize, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	return w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.AggregateID, event.EventType, event.Payload))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
