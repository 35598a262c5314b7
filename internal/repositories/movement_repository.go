package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tour_sales_backend/internal/models"
)

// MovementRepository defines the interface for stock movement database
// operations. RecordMovement takes an executor so the audit row commits or
// rolls back together with the counter change it describes.
type MovementRepository interface {
	RecordMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(filters models.MovementFilters) ([]models.StockMovement, int, error)
}

type movementRepository struct {
	db *sql.DB
}

// NewMovementRepository creates a new instance of MovementRepository.
func NewMovementRepository(db *sql.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) RecordMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO stock_movements
	            (tour_id, batch_id, batch_source, movement_type, quantity_changed, actor, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		movement.TourID, movement.BatchID.Value, string(movement.BatchID.Source),
		movement.MovementType, movement.QuantityChanged, movement.Actor, movement.Reason,
		movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: recording stock movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *movementRepository) GetMovements(filters models.MovementFilters) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sm.id, sm.tour_id, sm.batch_id, sm.batch_source, sm.movement_type,
	    sm.quantity_changed, sm.actor, sm.reason, sm.created_at,
	    t.name AS tour_name,
	    COUNT(*) OVER() AS total_count
	  FROM stock_movements sm
	  JOIN tours t ON sm.tour_id = t.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.TourID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.tour_id = $%d", argCount))
		args = append(args, *filters.TourID)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("sm.movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY sm.created_at DESC, sm.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		var source string
		if err := rows.Scan(&m.ID, &m.TourID, &m.BatchID.Value, &source, &m.MovementType,
			&m.QuantityChanged, &m.Actor, &m.Reason, &m.CreatedAt, &m.TourName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		m.BatchID.Source = models.BatchSource(source)
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
