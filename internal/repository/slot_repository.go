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

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (owner_id, title, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	return getSlot(ctx, r.pool, id)
}

// getSlot общая выборка слота - работает и с пулом, и внутри транзакции
func getSlot(ctx context.Context, q base.Querier, id uuid.UUID) (*model.Slot, error) {
	query := `
		SELECT id, owner_id, title, start_time, end_time, status, created_at
		FROM slots
		WHERE id = $1
	`

	var slot model.Slot
	err := q.QueryRow(ctx, query, id).Scan(
		&slot.ID,
		&slot.OwnerID,
		&slot.Title,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return &slot, nil
}

// ListByOwner получает все слоты пользователя, отсортированные по началу
func (r *SlotRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT id, owner_id, title, start_time, end_time, status, created_at
		FROM slots
		WHERE owner_id = $1
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list slots by owner: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		var slot model.Slot
		err := rows.Scan(
			&slot.ID,
			&slot.OwnerID,
			&slot.Title,
			&slot.StartTime,
			&slot.EndTime,
			&slot.Status,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}

// ListSwappable получает все слоты со статусом SWAPPABLE, кроме слотов
// самого пользователя, вместе с именами владельцев
func (r *SlotRepository) ListSwappable(ctx context.Context, excludingOwnerID uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT s.id, s.owner_id, s.title, s.start_time, s.end_time, s.status, s.created_at, u.name
		FROM slots s
		JOIN users u ON u.id = s.owner_id
		WHERE s.status = 'SWAPPABLE'
		  AND s.owner_id != $1
		ORDER BY s.start_time
	`

	rows, err := r.pool.Query(ctx, query, excludingOwnerID)
	if err != nil {
		return nil, fmt.Errorf("list swappable slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		var slot model.Slot
		err := rows.Scan(
			&slot.ID,
			&slot.OwnerID,
			&slot.Title,
			&slot.StartTime,
			&slot.EndTime,
			&slot.Status,
			&slot.CreatedAt,
			&slot.OwnerName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swappable slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swappable slots: %w", err)
	}

	return slots, nil
}

// UpdateStatus переводит слот из ожидаемого статуса в новый.
// Условие на прежний статус в WHERE - это compare-and-set: если слот
// успел поменяться параллельным запросом, вернётся apperr.ErrConcurrentUpdate
func (r *SlotRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error {
	return updateSlotStatus(ctx, r.pool, id, from, to)
}

func updateSlotStatus(ctx context.Context, q base.Querier, id uuid.UUID, from, to model.SlotStatus) error {
	query := `
		UPDATE slots
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	result, err := q.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.ErrConcurrentUpdate
	}

	return nil
}

// setSlotOwnerAndStatus передаёт слот новому владельцу. Используется только
// координатором при принятии обмена, условие на SWAP_PENDING обязательно
func setSlotOwnerAndStatus(ctx context.Context, q base.Querier, id, newOwnerID uuid.UUID, from, to model.SlotStatus) error {
	query := `
		UPDATE slots
		SET owner_id = $1, status = $2
		WHERE id = $3 AND status = $4
	`

	result, err := q.Exec(ctx, query, newOwnerID, to, id, from)
	if err != nil {
		return fmt.Errorf("set slot owner: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.ErrConcurrentUpdate
	}

	return nil
}

// Delete удаляет слот. Условие на BUSY в WHERE закрывает гонку с
// параллельным открытием обмена на этот же слот
func (r *SlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM slots
		WHERE id = $1 AND status = 'BUSY'
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.ErrConcurrentUpdate
	}

	return nil
}
