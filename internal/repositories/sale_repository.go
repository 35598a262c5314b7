package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tour_sales_backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale line database operations.
// A batch is never stored as its own row; it is the group of lines sharing
// a (batch_id, batch_source) pair.
type SaleRepository interface {
	CreateLine(executor SQLExecutor, line *models.SaleLine) (int64, error)
	GetBatchLines(executor SQLExecutor, batchID models.BatchID) ([]models.SaleLine, error)
	GetBatches(filters models.SaleFilters) ([]models.Batch, int, error)

	UpdateLine(executor SQLExecutor, lineID int64, quantity int, total decimal.Decimal, deposit, balanceDue *decimal.Decimal) error
	DeleteLine(executor SQLExecutor, lineID int64) error

	// VoidBatchLines stamps every line of the batch with the void marker.
	VoidBatchLines(executor SQLExecutor, batchID models.BatchID, voidedAt time.Time, reason *string) (int64, error)
	// DeleteBatchLines physically removes the lines of a batch. The service
	// layer only calls this after verifying every line is already voided.
	DeleteBatchLines(executor SQLExecutor, batchID models.BatchID) (int64, error)
	UpdatePayment(executor SQLExecutor, batchID models.BatchID, isPaid bool, deposit, balanceDue *decimal.Decimal) (int64, error)

	// BatchExistsByFingerprint reports whether an imported batch with this
	// fingerprint already exists. This is what makes re-imports idempotent.
	BatchExistsByFingerprint(fingerprint string) (bool, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateLine(executor SQLExecutor, line *models.SaleLine) (int64, error) {
	query := `INSERT INTO sale_lines
	            (batch_id, batch_source, tour_id, quantity, total, deposit, balance_due,
	             customer_name, customer_phone, customer_address, seller_name, entry_date,
	             is_paid, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id`

	if line.EntryDate.IsZero() {
		line.EntryDate = time.Now()
	}
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now()
	}
	if line.UpdatedAt.IsZero() {
		line.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		line.BatchID.Value, string(line.BatchID.Source), line.TourID, line.Quantity,
		line.Total, nullDecimal(line.Deposit), nullDecimal(line.BalanceDue),
		line.CustomerName, line.CustomerPhone, line.CustomerAddress, line.SellerName, line.EntryDate,
		line.IsPaid, line.CreatedAt, line.UpdatedAt,
	).Scan(&line.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: creating sale line (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating sale line: %v", ErrDatabaseError, err)
	}
	return line.ID, nil
}

func (r *saleRepository) GetBatchLines(executor SQLExecutor, batchID models.BatchID) ([]models.SaleLine, error) {
	query := `SELECT sl.id, sl.batch_id, sl.batch_source, sl.tour_id, sl.quantity, sl.total,
	                 sl.deposit, sl.balance_due, sl.customer_name, sl.customer_phone,
	                 sl.customer_address, sl.seller_name, sl.entry_date, sl.is_paid,
	                 sl.voided_at, sl.void_reason, sl.created_at, sl.updated_at,
	                 t.name, t.line, t.price, t.stock, t.sold
	          FROM sale_lines sl
	          JOIN tours t ON sl.tour_id = t.id
	          WHERE sl.batch_id = $1 AND sl.batch_source = $2
	          ORDER BY sl.id`

	rows, err := executor.Query(query, batchID.Value, string(batchID.Source))
	if err != nil {
		return nil, fmt.Errorf("%w: querying sale lines for batch %s: %v", ErrDatabaseError, batchID, err)
	}
	defer rows.Close()

	lines := []models.SaleLine{}
	for rows.Next() {
		line, err := scanSaleLine(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning sale line for batch %s: %v", ErrDatabaseError, batchID, err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale lines for batch %s: %v", ErrDatabaseError, batchID, err)
	}
	return lines, nil
}

func (r *saleRepository) GetBatches(filters models.SaleFilters) ([]models.Batch, int, error) {
	totalCount := 0

	// First page through the distinct batch identifiers, then load their lines.
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT batch_id, batch_source, COUNT(*) OVER() AS total_count
	  FROM sale_lines`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.SellerName != nil && *filters.SellerName != "" {
		conditions = append(conditions, fmt.Sprintf("seller_name = $%d", argCount))
		args = append(args, *filters.SellerName)
		argCount++
	}
	if filters.IsPaid != nil {
		conditions = append(conditions, fmt.Sprintf("is_paid = $%d", argCount))
		args = append(args, *filters.IsPaid)
		argCount++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("entry_date BETWEEN $%d AND $%d", argCount, argCount+1))
			args = append(args, startOfDay, endOfDay)
			argCount += 2
		}
	}
	if !filters.IncludeVoided {
		conditions = append(conditions, "voided_at IS NULL")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" GROUP BY batch_id, batch_source")
	queryBuilder.WriteString(" ORDER BY MAX(entry_date) DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying sale batches: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	batchIDs := []models.BatchID{}
	for rows.Next() {
		var id models.BatchID
		var source string
		if err := rows.Scan(&id.Value, &source, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning batch identifier: %v", ErrDatabaseError, err)
		}
		id.Source = models.BatchSource(source)
		batchIDs = append(batchIDs, id)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating batch identifiers: %v", ErrDatabaseError, err)
	}

	batches := make([]models.Batch, 0, len(batchIDs))
	for _, id := range batchIDs {
		lines, err := r.GetBatchLines(r.db, id)
		if err != nil {
			return nil, 0, err
		}
		batches = append(batches, models.Batch{ID: id, Lines: lines})
	}
	return batches, totalCount, nil
}

func (r *saleRepository) UpdateLine(executor SQLExecutor, lineID int64, quantity int, total decimal.Decimal, deposit, balanceDue *decimal.Decimal) error {
	query := `UPDATE sale_lines
	          SET quantity = $1, total = $2, deposit = $3, balance_due = $4, updated_at = $5
	          WHERE id = $6`
	result, err := executor.Exec(query, quantity, total, nullDecimal(deposit), nullDecimal(balanceDue), time.Now(), lineID)
	if err != nil {
		return fmt.Errorf("%w: updating sale line ID %d: %v", ErrDatabaseError, lineID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *saleRepository) DeleteLine(executor SQLExecutor, lineID int64) error {
	result, err := executor.Exec(`DELETE FROM sale_lines WHERE id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("%w: deleting sale line ID %d: %v", ErrDatabaseError, lineID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *saleRepository) VoidBatchLines(executor SQLExecutor, batchID models.BatchID, voidedAt time.Time, reason *string) (int64, error) {
	query := `UPDATE sale_lines SET voided_at = $1, void_reason = $2, updated_at = $3
	          WHERE batch_id = $4 AND batch_source = $5`
	result, err := executor.Exec(query, voidedAt, reason, time.Now(), batchID.Value, string(batchID.Source))
	if err != nil {
		return 0, fmt.Errorf("%w: voiding sale lines for batch %s: %v", ErrDatabaseError, batchID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected voiding batch %s: %v", ErrDatabaseError, batchID, err)
	}
	return rowsAffected, nil
}

func (r *saleRepository) DeleteBatchLines(executor SQLExecutor, batchID models.BatchID) (int64, error) {
	result, err := executor.Exec(`DELETE FROM sale_lines WHERE batch_id = $1 AND batch_source = $2`,
		batchID.Value, string(batchID.Source))
	if err != nil {
		return 0, fmt.Errorf("%w: deleting sale lines for batch %s: %v", ErrDatabaseError, batchID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected deleting batch %s: %v", ErrDatabaseError, batchID, err)
	}
	return rowsAffected, nil
}

func (r *saleRepository) UpdatePayment(executor SQLExecutor, batchID models.BatchID, isPaid bool, deposit, balanceDue *decimal.Decimal) (int64, error) {
	query := `UPDATE sale_lines SET is_paid = $1, deposit = COALESCE($2, deposit),
	            balance_due = COALESCE($3, balance_due), updated_at = $4
	          WHERE batch_id = $5 AND batch_source = $6`
	result, err := executor.Exec(query, isPaid, nullDecimal(deposit), nullDecimal(balanceDue), time.Now(),
		batchID.Value, string(batchID.Source))
	if err != nil {
		return 0, fmt.Errorf("%w: updating payment for batch %s: %v", ErrDatabaseError, batchID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected updating payment for batch %s: %v", ErrDatabaseError, batchID, err)
	}
	return rowsAffected, nil
}

func (r *saleRepository) BatchExistsByFingerprint(fingerprint string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM sale_lines WHERE batch_id = $1 AND batch_source = $2)`
	err := r.db.QueryRow(query, fingerprint, string(models.BatchSourceImported)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking import fingerprint %s: %v", ErrDatabaseError, fingerprint, err)
	}
	return exists, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSaleLine(s scanner) (models.SaleLine, error) {
	var line models.SaleLine
	var source string
	var deposit, balanceDue decimal.NullDecimal
	var voidedAt sql.NullTime
	var tour models.Tour

	err := s.Scan(
		&line.ID, &line.BatchID.Value, &source, &line.TourID, &line.Quantity, &line.Total,
		&deposit, &balanceDue, &line.CustomerName, &line.CustomerPhone,
		&line.CustomerAddress, &line.SellerName, &line.EntryDate, &line.IsPaid,
		&voidedAt, &line.VoidReason, &line.CreatedAt, &line.UpdatedAt,
		&tour.Name, &tour.Line, &tour.Price, &tour.Stock, &tour.Sold,
	)
	if err != nil {
		return models.SaleLine{}, err
	}

	line.BatchID.Source = models.BatchSource(source)
	if deposit.Valid {
		d := deposit.Decimal
		line.Deposit = &d
	}
	if balanceDue.Valid {
		b := balanceDue.Decimal
		line.BalanceDue = &b
	}
	if voidedAt.Valid {
		t := voidedAt.Time
		line.VoidedAt = &t
	}
	tour.ID = line.TourID
	line.Tour = &tour
	return line, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
