package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/slotswapper/internal/apperr"
	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SwapRepository struct {
	pool *pgxpool.Pool
}

func NewSwapRepository(pool *pgxpool.Pool) *SwapRepository {
	return &SwapRepository{pool: pool}
}

// GetByID получает заявку на обмен по ID
func (r *SwapRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `
		SELECT id, requester_id, receiver_id, requester_slot_id, receiver_slot_id, status, created_at
		FROM swap_requests
		WHERE id = $1
	`

	var req model.SwapRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.RequesterID,
		&req.ReceiverID,
		&req.RequesterSlotID,
		&req.ReceiverSlotID,
		&req.Status,
		&req.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get swap request by id: %w", err)
	}

	return &req, nil
}

// OpenSwap атомарно переводит оба слота в SWAP_PENDING и создаёт заявку.
// Оба UPDATE-а условные (status = 'SWAPPABLE'): если любой из них не
// прошёл - параллельный запрос успел раньше - транзакция откатывается
// целиком и заявка не сохраняется
func (r *SwapRepository) OpenSwap(ctx context.Context, req *model.SwapRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := updateSlotStatus(ctx, tx, req.RequesterSlotID, model.SlotStatusSwappable, model.SlotStatusSwapPending); err != nil {
		return err
	}

	if err := updateSlotStatus(ctx, tx, req.ReceiverSlotID, model.SlotStatusSwappable, model.SlotStatusSwapPending); err != nil {
		return err
	}

	query := `
		INSERT INTO swap_requests (requester_id, receiver_id, requester_slot_id, receiver_slot_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err = tx.QueryRow(
		ctx, query,
		req.RequesterID,
		req.ReceiverID,
		req.RequesterSlotID,
		req.ReceiverSlotID,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// AcceptSwap атомарно завершает обмен: заявка PENDING -> ACCEPTED,
// слоты меняются владельцами и оба становятся BUSY. Условие PENDING на
// заявке гарантирует что из двух конкурирующих ответов пройдёт один
func (r *SwapRepository) AcceptSwap(ctx context.Context, req *model.SwapRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := resolveRequest(ctx, tx, req.ID, model.SwapStatusAccepted); err != nil {
		return err
	}

	// Слот заявителя уходит получателю и наоборот. Слоты обязаны быть в
	// SWAP_PENDING пока заявка PENDING - несовпадение означает что
	// инвариант нарушен, и вся транзакция откатывается
	err = setSlotOwnerAndStatus(ctx, tx, req.RequesterSlotID, req.ReceiverID, model.SlotStatusSwapPending, model.SlotStatusBusy)
	if err != nil {
		return apperr.ErrPartialSwapApplied
	}

	err = setSlotOwnerAndStatus(ctx, tx, req.ReceiverSlotID, req.RequesterID, model.SlotStatusSwapPending, model.SlotStatusBusy)
	if err != nil {
		return apperr.ErrPartialSwapApplied
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// RejectSwap атомарно отклоняет обмен: заявка PENDING -> REJECTED, оба
// слота возвращаются в SWAPPABLE, владельцы не меняются
func (r *SwapRepository) RejectSwap(ctx context.Context, req *model.SwapRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := resolveRequest(ctx, tx, req.ID, model.SwapStatusRejected); err != nil {
		return err
	}

	err = updateSlotStatus(ctx, tx, req.RequesterSlotID, model.SlotStatusSwapPending, model.SlotStatusSwappable)
	if err != nil {
		return apperr.ErrPartialSwapApplied
	}

	err = updateSlotStatus(ctx, tx, req.ReceiverSlotID, model.SlotStatusSwapPending, model.SlotStatusSwappable)
	if err != nil {
		return apperr.ErrPartialSwapApplied
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// resolveRequest условный перевод заявки в терминальный статус.
// Если заявка уже не PENDING - её успел обработать другой ответ
func resolveRequest(ctx context.Context, q base.Querier, id uuid.UUID, to model.SwapStatus) error {
	query := `
		UPDATE swap_requests
		SET status = $1
		WHERE id = $2 AND status = 'PENDING'
	`

	result, err := q.Exec(ctx, query, to, id)
	if err != nil {
		return fmt.Errorf("resolve swap request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.ErrAlreadyActioned
	}

	return nil
}

// ListPendingByReceiver получает входящие PENDING заявки пользователя
// вместе с именем заявителя и обоими слотами
func (r *SwapRepository) ListPendingByReceiver(ctx context.Context, receiverID uuid.UUID) ([]*model.SwapRequest, error) {
	query := pendingListQuery + ` WHERE sr.receiver_id = $1 AND sr.status = 'PENDING' ORDER BY sr.created_at DESC`
	return r.listPending(ctx, query, receiverID)
}

// ListPendingByRequester получает исходящие PENDING заявки пользователя
func (r *SwapRepository) ListPendingByRequester(ctx context.Context, requesterID uuid.UUID) ([]*model.SwapRequest, error) {
	query := pendingListQuery + ` WHERE sr.requester_id = $1 AND sr.status = 'PENDING' ORDER BY sr.created_at DESC`
	return r.listPending(ctx, query, requesterID)
}

// Слоты PENDING заявки удалить нельзя (они в SWAP_PENDING), поэтому
// здесь обычные JOIN-ы без LEFT
const pendingListQuery = `
	SELECT sr.id, sr.requester_id, sr.receiver_id, sr.requester_slot_id, sr.receiver_slot_id, sr.status, sr.created_at,
	       ru.name, cu.name,
	       rs.id, rs.owner_id, rs.title, rs.start_time, rs.end_time, rs.status, rs.created_at,
	       cs.id, cs.owner_id, cs.title, cs.start_time, cs.end_time, cs.status, cs.created_at
	FROM swap_requests sr
	JOIN users ru ON ru.id = sr.requester_id
	JOIN users cu ON cu.id = sr.receiver_id
	JOIN slots rs ON rs.id = sr.requester_slot_id
	JOIN slots cs ON cs.id = sr.receiver_slot_id
`

func (r *SwapRepository) listPending(ctx context.Context, query string, userID uuid.UUID) ([]*model.SwapRequest, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending swap requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.SwapRequest
	for rows.Next() {
		var req model.SwapRequest
		var requesterSlot, receiverSlot model.Slot
		err := rows.Scan(
			&req.ID,
			&req.RequesterID,
			&req.ReceiverID,
			&req.RequesterSlotID,
			&req.ReceiverSlotID,
			&req.Status,
			&req.CreatedAt,
			&req.RequesterName,
			&req.ReceiverName,
			&requesterSlot.ID,
			&requesterSlot.OwnerID,
			&requesterSlot.Title,
			&requesterSlot.StartTime,
			&requesterSlot.EndTime,
			&requesterSlot.Status,
			&requesterSlot.CreatedAt,
			&receiverSlot.ID,
			&receiverSlot.OwnerID,
			&receiverSlot.Title,
			&receiverSlot.StartTime,
			&receiverSlot.EndTime,
			&receiverSlot.Status,
			&receiverSlot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}
		req.RequesterSlot = &requesterSlot
		req.ReceiverSlot = &receiverSlot
		requests = append(requests, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap requests: %w", err)
	}

	return requests, nil
}

// ListHistory получает завершённые заявки где пользователь был любой из
// сторон, новые первыми. Слоты здесь не подтягиваем - после принятого
// обмена слот мог быть удалён новым владельцем
func (r *SwapRepository) ListHistory(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	query := `
		SELECT sr.id, sr.requester_id, sr.receiver_id, sr.requester_slot_id, sr.receiver_slot_id, sr.status, sr.created_at,
		       ru.name, cu.name
		FROM swap_requests sr
		JOIN users ru ON ru.id = sr.requester_id
		JOIN users cu ON cu.id = sr.receiver_id
		WHERE (sr.requester_id = $1 OR sr.receiver_id = $1)
		  AND sr.status IN ('ACCEPTED', 'REJECTED')
		ORDER BY sr.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list swap history: %w", err)
	}
	defer rows.Close()

	var requests []*model.SwapRequest
	for rows.Next() {
		var req model.SwapRequest
		err := rows.Scan(
			&req.ID,
			&req.RequesterID,
			&req.ReceiverID,
			&req.RequesterSlotID,
			&req.ReceiverSlotID,
			&req.Status,
			&req.CreatedAt,
			&req.RequesterName,
			&req.ReceiverName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap history: %w", err)
		}
		requests = append(requests, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap history: %w", err)
	}

	return requests, nil
}

// CountInvolving считает заявки в заданном статусе где пользователь был
// заявителем или получателем
func (r *SwapRepository) CountInvolving(ctx context.Context, userID uuid.UUID, status model.SwapStatus) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM swap_requests
		WHERE (requester_id = $1 OR receiver_id = $1)
		  AND status = $2
	`

	var count int64
	err := r.pool.QueryRow(ctx, query, userID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count swap requests: %w", err)
	}

	return count, nil
}
