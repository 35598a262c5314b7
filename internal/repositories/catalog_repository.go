package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tour_sales_backend/internal/models"

	"github.com/lib/pq"
)

// CatalogRepository defines the interface for tour catalog database operations.
// It is the only component allowed to read or write the stock/sold counter pair;
// every mutation is a conditional single-statement read-modify-write so that
// concurrent sales racing on the same tour cannot lose updates.
type CatalogRepository interface {
	CreateTour(executor SQLExecutor, tour *models.Tour) (int64, error)
	GetTourByID(id int64) (*models.Tour, error)
	GetTours(filters models.TourFilters) ([]models.Tour, int, error)
	// GetAllTours loads the full catalog without paging; the import pipeline
	// uses it to build its product name index.
	GetAllTours() ([]models.Tour, error)
	UpdateTour(executor SQLExecutor, tour *models.Tour) error
	DeleteTour(executor SQLExecutor, id int64) error

	// GetTourForSale loads a tour through the given executor so ledger
	// transactions see their own uncommitted counter changes.
	GetTourForSale(executor SQLExecutor, id int64) (*models.Tour, error)

	// AdjustStockAndSold applies a signed quantity delta: sold += delta and,
	// for finite-stock tours, stock -= delta. Unlimited tours (stock = -1)
	// only move sold. Returns ErrStockConflict when a positive delta exceeds
	// the units remaining.
	AdjustStockAndSold(executor SQLExecutor, tourID int64, delta int) (int, error)

	// RestoreStock returns quantity units to a finite-stock tour and decrements
	// sold accordingly. It is a no-op for unlimited tours: there is no bounded
	// stock to restore, and their sold counter stays a permanent total.
	RestoreStock(executor SQLExecutor, tourID int64, quantity int) error

	// SetStock is the explicit administrator stock reset; it bypasses the
	// lockstep stock/sold invariant on purpose.
	SetStock(executor SQLExecutor, tourID int64, stock int) error
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateTour(executor SQLExecutor, tour *models.Tour) (int64, error) {
	query := `INSERT INTO tours (name, line, price, stock, sold, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	if tour.Stock < models.UnlimitedStock {
		return 0, fmt.Errorf("%w: stock must be -1 (unlimited) or non-negative, got %d", ErrDatabaseError, tour.Stock)
	}
	err := executor.QueryRow(query,
		tour.Name, tour.Line, tour.Price, tour.Stock, tour.Sold, currentTime, currentTime,
	).Scan(&tour.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: tour name '%s' already exists (constraint: %s)", ErrDuplicateKey, tour.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating tour: %v", ErrDatabaseError, err)
	}
	return tour.ID, nil
}

func (r *catalogRepository) GetTourByID(id int64) (*models.Tour, error) {
	return scanTour(r.db.QueryRow(
		`SELECT id, name, line, price, stock, sold, created_at, updated_at FROM tours WHERE id = $1`, id), id)
}

func (r *catalogRepository) GetTourForSale(executor SQLExecutor, id int64) (*models.Tour, error) {
	return scanTour(executor.QueryRow(
		`SELECT id, name, line, price, stock, sold, created_at, updated_at FROM tours WHERE id = $1`, id), id)
}

func scanTour(row *sql.Row, id int64) (*models.Tour, error) {
	tour := &models.Tour{}
	err := row.Scan(&tour.ID, &tour.Name, &tour.Line, &tour.Price, &tour.Stock, &tour.Sold, &tour.CreatedAt, &tour.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting tour by ID %d: %v", ErrDatabaseError, id, err)
	}
	return tour, nil
}

func (r *catalogRepository) GetTours(filters models.TourFilters) ([]models.Tour, int, error) {
	tours := []models.Tour{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, name, line, price, stock, sold, created_at, updated_at,
	    COUNT(*) OVER() AS total_count
	  FROM tours`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Line != nil && *filters.Line != "" {
		conditions = append(conditions, fmt.Sprintf("line = $%d", argCount))
		args = append(args, *filters.Line)
		argCount++
	}
	if filters.Name != nil && *filters.Name != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argCount))
		args = append(args, "%"+*filters.Name+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting tours: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tour models.Tour
		if err := rows.Scan(&tour.ID, &tour.Name, &tour.Line, &tour.Price, &tour.Stock, &tour.Sold,
			&tour.CreatedAt, &tour.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning tour: %v", ErrDatabaseError, err)
		}
		tours = append(tours, tour)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating tours: %v", ErrDatabaseError, err)
	}
	return tours, totalCount, nil
}

func (r *catalogRepository) GetAllTours() ([]models.Tour, error) {
	rows, err := r.db.Query(`SELECT id, name, line, price, stock, sold, created_at, updated_at FROM tours ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: getting all tours: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tours := []models.Tour{}
	for rows.Next() {
		var tour models.Tour
		if err := rows.Scan(&tour.ID, &tour.Name, &tour.Line, &tour.Price, &tour.Stock, &tour.Sold,
			&tour.CreatedAt, &tour.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning tour: %v", ErrDatabaseError, err)
		}
		tours = append(tours, tour)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating tours: %v", ErrDatabaseError, err)
	}
	return tours, nil
}

func (r *catalogRepository) UpdateTour(executor SQLExecutor, tour *models.Tour) error {
	// Counters are intentionally absent here; stock/sold only move through
	// AdjustStockAndSold, RestoreStock and SetStock.
	query := `UPDATE tours SET name = $1, line = $2, price = $3, updated_at = $4 WHERE id = $5`
	result, err := executor.Exec(query, tour.Name, tour.Line, tour.Price, time.Now(), tour.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: tour name '%s' already exists (constraint: %s)", ErrDuplicateKey, tour.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating tour ID %d: %v", ErrDatabaseError, tour.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepository) DeleteTour(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("%w: tour ID %d cannot be deleted as it is referenced by sale lines (constraint: %s)", ErrDatabaseError, id, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting tour ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepository) AdjustStockAndSold(executor SQLExecutor, tourID int64, delta int) (int, error) {
	var newStock int
	query := `UPDATE tours SET
	            stock = CASE WHEN stock = $4 THEN stock ELSE stock - $1 END,
	            sold = sold + $1,
	            updated_at = $2
	          WHERE id = $3 AND (stock = $4 OR stock >= $1) AND sold + $1 >= 0
	          RETURNING stock`
	err := executor.QueryRow(query, delta, time.Now(), tourID, models.UnlimitedStock).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing tour from one without enough units left.
			var exists bool
			checkErr := executor.QueryRow(`SELECT EXISTS(SELECT 1 FROM tours WHERE id = $1)`, tourID).Scan(&exists)
			if checkErr != nil {
				return 0, fmt.Errorf("%w: checking tour ID %d after failed stock adjustment: %v", ErrDatabaseError, tourID, checkErr)
			}
			if !exists {
				return 0, ErrNotFound
			}
			return 0, ErrStockConflict
		}
		return 0, fmt.Errorf("%w: adjusting stock for tour ID %d: %v", ErrDatabaseError, tourID, err)
	}
	return newStock, nil
}

func (r *catalogRepository) RestoreStock(executor SQLExecutor, tourID int64, quantity int) error {
	query := `UPDATE tours SET stock = stock + $1, sold = sold - $1, updated_at = $2
	          WHERE id = $3 AND stock <> $4`
	result, err := executor.Exec(query, quantity, time.Now(), tourID, models.UnlimitedStock)
	if err != nil {
		return fmt.Errorf("%w: restoring stock for tour ID %d: %v", ErrDatabaseError, tourID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected restoring stock for tour ID %d: %v", ErrDatabaseError, tourID, err)
	}
	if rowsAffected == 0 {
		// Either the tour is unlimited (nothing to restore) or it is gone.
		var exists bool
		if checkErr := executor.QueryRow(`SELECT EXISTS(SELECT 1 FROM tours WHERE id = $1)`, tourID).Scan(&exists); checkErr != nil {
			return fmt.Errorf("%w: checking tour ID %d after restore: %v", ErrDatabaseError, tourID, checkErr)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

func (r *catalogRepository) SetStock(executor SQLExecutor, tourID int64, stock int) error {
	if stock < models.UnlimitedStock {
		return fmt.Errorf("%w: stock must be -1 (unlimited) or non-negative, got %d", ErrDatabaseError, stock)
	}
	result, err := executor.Exec(`UPDATE tours SET stock = $1, updated_at = $2 WHERE id = $3`, stock, time.Now(), tourID)
	if err != nil {
		return fmt.Errorf("%w: setting stock for tour ID %d: %v", ErrDatabaseError, tourID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
