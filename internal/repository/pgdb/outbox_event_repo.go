package pgdb

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// processingLease задаёт, сколько событие может висеть в processing, прежде чем его заберёт другой worker.
const processingLease = 5 * time.Minute

type OutboxEventRepo struct {
	pool *pgxpool.Pool
	conv converter.OutboxEventConverter
}

func NewOutboxEventRepo(pool *pgxpool.Pool) *OutboxEventRepo {
	return &OutboxEventRepo{pool: pool}
}

// Create пишет событие в транзакции продажи и будит worker через NOTIFY.
// Уведомление доставляется только после коммита.
func (o *OutboxEventRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := o.conv.ToModel(event)
	query := `
		INSERT INTO outbox_events (
			event_id,
			event_type,
			aggregate_id,
			payload,
			status
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at;
	`

	if err := tx.QueryRow(ctx, query,
		model.EventID,
		model.EventType,
		model.AggregateID,
		model.Payload,
		model.Status,
	).Scan(&model.ID, &model.CreatedAt); err != nil {
		if postgresDuplicate(err) {
			return nil, fmt.Errorf("%s: event with id %s already exists", whereami.WhereAmI(), event.EventID)
		}

		return nil, classifyWriteErr(whereami.WhereAmI(), err)
	}

	if _, err := tx.Exec(ctx, "NOTIFY outbox_pending;"); err != nil {
		return nil, classifyWriteErr(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing забирает пачку ожидающих событий, а также события,
// зависшие в processing дольше processingLease.
func (o *OutboxEventRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) (events []*usecase.OutboxEvent, err error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = $2
			   OR (status = $1 AND processing_started_at < NOW() - make_interval(secs => $4))
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_id, event_type, aggregate_id, payload, status, created_at, processed_at
	`

	rows, err := tx.Query(ctx, query,
		usecase.OutboxStatusProcessing,
		usecase.OutboxStatusPending,
		limit,
		processingLease.Seconds(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query pending events: %w", whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[converter.OutboxEventModel])
	if err != nil {
		return nil, fmt.Errorf("%s: failed to scan events: %w", whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", whereami.WhereAmI(), err)
	}

	return o.conv.ToArrEntity(models), nil
}

func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = NOW()
		WHERE id = $2 AND status = $3
	`

	// 0 строк: событие уже обработано другим worker'ом
	if _, err := o.pool.Exec(ctx, query, usecase.OutboxStatusProcessed, id, usecase.OutboxStatusProcessing); err != nil {
		return fmt.Errorf("%s: failed to mark event %d as processed: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

// MarkAsPending возвращает событие в очередь после неудачной отправки.
func (o *OutboxEventRepo) MarkAsPending(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = NULL
		WHERE id = $2 AND status = $3
	`

	if _, err := o.pool.Exec(ctx, query, usecase.OutboxStatusPending, id, usecase.OutboxStatusProcessing); err != nil {
		return fmt.Errorf("%s: failed to return event %d to pending: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}
