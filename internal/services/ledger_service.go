package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tour_sales_backend/internal/events"
	"tour_sales_backend/internal/models"
	"tour_sales_backend/internal/repositories"
	"tour_sales_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Data Transfer Objects (DTOs) ---

// CreateSaleLineRequest is one line of a batch creation request.
type CreateSaleLineRequest struct {
	TourID     int64            `json:"tour_id" binding:"required"`
	Quantity   int              `json:"quantity" binding:"required,gt=0"`
	Total      decimal.Decimal  `json:"total"`
	Deposit    *decimal.Decimal `json:"deposit"`
	BalanceDue *decimal.Decimal `json:"balance_due"`
}

// CustomerFields carries the customer identity duplicated across every line
// of a batch.
type CustomerFields struct {
	CustomerName    string     `json:"customer_name" binding:"required"`
	CustomerPhone   *string    `json:"customer_phone"`
	CustomerAddress *string    `json:"customer_address"`
	SellerName      *string    `json:"seller_name"`
	EntryDate       *time.Time `json:"entry_date"`
	IsPaid          bool       `json:"is_paid"`
}

// CreateBatchRequest is used for creating a new sale batch.
type CreateBatchRequest struct {
	Items    []CreateSaleLineRequest `json:"items" binding:"required,dive"`
	Customer CustomerFields          `json:"customer" binding:"required"`
}

// ProposedLine is one entry of a batch edit proposal. A nil LineID means a
// new line; a set LineID replaces the matching existing line; existing lines
// absent from the proposal are removed.
type ProposedLine struct {
	LineID     *int64           `json:"line_id"`
	TourID     int64            `json:"tour_id"`
	Quantity   int              `json:"quantity" binding:"required,gt=0"`
	Total      decimal.Decimal  `json:"total"`
	Deposit    *decimal.Decimal `json:"deposit"`
	BalanceDue *decimal.Decimal `json:"balance_due"`
}

// UpdatePaymentRequest marks a batch paid/unpaid and optionally adjusts the
// deposit and balance due recorded on its lines.
type UpdatePaymentRequest struct {
	IsPaid     bool             `json:"is_paid"`
	Deposit    *decimal.Decimal `json:"deposit"`
	BalanceDue *decimal.Decimal `json:"balance_due"`
}

// --- LedgerService Interface ---

// LedgerService owns every mutation of sale batches and, through the catalog
// repository, of the stock/sold counters. Each operation is one atomic
// transaction: either every line and counter change commits, or none do.
type LedgerService interface {
	CreateBatch(caller models.Caller, req CreateBatchRequest) (*models.Batch, error)
	// CreateBatchWithID is CreateBatch with a caller-chosen identifier; the
	// import pipeline uses it to create batches keyed by row fingerprint.
	CreateBatchWithID(caller models.Caller, batchID models.BatchID, req CreateBatchRequest) (*models.Batch, error)
	GetBatch(caller models.Caller, batchID models.BatchID) (*models.Batch, error)
	GetBatches(caller models.Caller, filters models.SaleFilters) ([]models.Batch, int, error)
	UpdateBatch(caller models.Caller, batchID models.BatchID, proposed []ProposedLine) (*models.Batch, error)
	VoidBatch(caller models.Caller, batchID models.BatchID, reason *string) error
	DeleteBatch(caller models.Caller, batchID models.BatchID) error
	UpdatePayment(caller models.Caller, batchID models.BatchID, req UpdatePaymentRequest) error
	GetStockMovements(filters models.MovementFilters) ([]models.StockMovement, int, error)
}

type ledgerService struct {
	saleRepo     repositories.SaleRepository
	catalogRepo  repositories.CatalogRepository
	movementRepo repositories.MovementRepository
	publisher    events.Publisher
	db           *sql.DB // For managing transactions
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	sr repositories.SaleRepository,
	cr repositories.CatalogRepository,
	mr repositories.MovementRepository,
	publisher events.Publisher,
	db *sql.DB,
) LedgerService {
	return &ledgerService{
		saleRepo:     sr,
		catalogRepo:  cr,
		movementRepo: mr,
		publisher:    publisher,
		db:           db,
	}
}

// --- Method Implementations ---

func (s *ledgerService) CreateBatch(caller models.Caller, req CreateBatchRequest) (*models.Batch, error) {
	return s.CreateBatchWithID(caller, models.NewGeneratedBatchID(), req)
}

func (s *ledgerService) CreateBatchWithID(caller models.Caller, batchID models.BatchID, req CreateBatchRequest) (*models.Batch, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a batch needs at least one line", ErrValidation)
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for tour ID %d must be positive", ErrValidation, item.TourID)
		}
		if item.Total.IsNegative() {
			return nil, fmt.Errorf("%w: total for tour ID %d must not be negative", ErrValidation, item.TourID)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	// First pass: every precondition is checked before any mutation, so a
	// failing line leaves nothing half-applied even mid-loop.
	for _, item := range req.Items {
		tour, err := s.catalogRepo.GetTourForSale(tx, item.TourID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: tour ID %d", ErrTourNotFound, item.TourID)
			}
			return nil, fmt.Errorf("failed to fetch tour %d details: %w", item.TourID, err)
		}
		if !tour.Unlimited() && tour.Stock < item.Quantity {
			return nil, insufficientStock(tour, item.Quantity)
		}
	}

	entryDate := time.Now()
	if req.Customer.EntryDate != nil {
		entryDate = *req.Customer.EntryDate
	}

	batch := &models.Batch{ID: batchID}
	for _, item := range req.Items {
		if err := s.consumeStock(tx, item.TourID, item.Quantity); err != nil {
			return nil, err
		}
		if err := s.recordMovement(tx, item.TourID, batchID, models.MovementSale, item.Quantity, caller, nil); err != nil {
			return nil, err
		}
		line := models.SaleLine{
			BatchID:         batchID,
			TourID:          item.TourID,
			Quantity:        item.Quantity,
			Total:           item.Total,
			Deposit:         item.Deposit,
			BalanceDue:      item.BalanceDue,
			CustomerName:    req.Customer.CustomerName,
			CustomerPhone:   req.Customer.CustomerPhone,
			CustomerAddress: req.Customer.CustomerAddress,
			SellerName:      req.Customer.SellerName,
			EntryDate:       entryDate,
			IsPaid:          req.Customer.IsPaid,
		}
		if _, err := s.saleRepo.CreateLine(tx, &line); err != nil {
			return nil, fmt.Errorf("failed to create sale line (tour_id: %d): %w", item.TourID, err)
		}
		batch.Lines = append(batch.Lines, line)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale batch transaction: %w", err)
	}

	s.publish(events.TopicBatchCreated, events.BatchCreated{
		BatchID:      batchID.Value,
		BatchSource:  string(batchID.Source),
		CustomerName: req.Customer.CustomerName,
		SellerName:   stringValue(req.Customer.SellerName),
		Lines:        len(batch.Lines),
		Total:        batch.Total(),
		OccurredAt:   time.Now(),
	})
	return batch, nil
}

func (s *ledgerService) GetBatch(caller models.Caller, batchID models.BatchID) (*models.Batch, error) {
	lines, err := s.saleRepo.GetBatchLines(s.db, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrBatchNotFound
	}
	if err := checkBatchAccess(caller, lines); err != nil {
		return nil, err
	}
	return &models.Batch{ID: batchID, Lines: lines}, nil
}

func (s *ledgerService) GetBatches(caller models.Caller, filters models.SaleFilters) ([]models.Batch, int, error) {
	// Supervisors are scoped to the batches recorded under their own name.
	if caller.Role == models.RoleSupervisor {
		seller := caller.FullName
		if seller == "" {
			seller = caller.Username
		}
		filters.SellerName = &seller
	}
	batches, totalCount, err := s.saleRepo.GetBatches(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get sale batches: %w", err)
	}
	return batches, totalCount, nil
}

// UpdateBatch reconciles the batch's current lines against the proposal and
// applies the resulting removes, updates and adds inside one transaction.
func (s *ledgerService) UpdateBatch(caller models.Caller, batchID models.BatchID, proposed []ProposedLine) (*models.Batch, error) {
	for _, p := range proposed {
		if p.Quantity <= 0 {
			return nil, fmt.Errorf("%w: proposed quantities must be positive", ErrValidation)
		}
		if p.Total.IsNegative() {
			return nil, fmt.Errorf("%w: proposed totals must not be negative", ErrValidation)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.saleRepo.GetBatchLines(tx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch for edit: %w", err)
	}
	if len(current) == 0 {
		return nil, ErrBatchNotFound
	}
	if err := checkBatchAccess(caller, current); err != nil {
		return nil, err
	}
	for _, line := range current {
		if line.Voided() {
			return nil, ErrBatchVoided
		}
	}

	diff, err := diffBatchLines(current, proposed)
	if err != nil {
		return nil, err
	}
	if len(diff.updates)+len(diff.adds) == 0 {
		return nil, fmt.Errorf("%w: an edit cannot remove every line; void the batch instead", ErrValidation)
	}

	for _, line := range diff.removes {
		if err := s.catalogRepo.RestoreStock(tx, line.TourID, line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to restore stock for tour ID %d: %w", line.TourID, err)
		}
		if err := s.recordMovement(tx, line.TourID, batchID, models.MovementLineRemoval, -line.Quantity, caller, nil); err != nil {
			return nil, err
		}
		if err := s.saleRepo.DeleteLine(tx, line.ID); err != nil {
			return nil, fmt.Errorf("failed to delete sale line ID %d: %w", line.ID, err)
		}
	}

	for _, u := range diff.updates {
		delta := u.proposed.Quantity - u.current.Quantity
		if delta != 0 {
			if err := s.adjustForEdit(tx, u.current.TourID, delta); err != nil {
				return nil, err
			}
			if err := s.recordMovement(tx, u.current.TourID, batchID, models.MovementEditAdjust, delta, caller, nil); err != nil {
				return nil, err
			}
		}
		if err := s.saleRepo.UpdateLine(tx, u.current.ID, u.proposed.Quantity, u.proposed.Total,
			u.proposed.Deposit, u.proposed.BalanceDue); err != nil {
			return nil, fmt.Errorf("failed to update sale line ID %d: %w", u.current.ID, err)
		}
	}

	// Added lines inherit the customer identity of the batch; a proposal
	// cannot smuggle in a second customer.
	template := current[0]
	for _, p := range diff.adds {
		if err := s.adjustForEdit(tx, p.TourID, p.Quantity); err != nil {
			return nil, err
		}
		if err := s.recordMovement(tx, p.TourID, batchID, models.MovementSale, p.Quantity, caller, nil); err != nil {
			return nil, err
		}
		line := models.SaleLine{
			BatchID:         batchID,
			TourID:          p.TourID,
			Quantity:        p.Quantity,
			Total:           p.Total,
			Deposit:         p.Deposit,
			BalanceDue:      p.BalanceDue,
			CustomerName:    template.CustomerName,
			CustomerPhone:   template.CustomerPhone,
			CustomerAddress: template.CustomerAddress,
			SellerName:      template.SellerName,
			EntryDate:       template.EntryDate,
			IsPaid:          template.IsPaid,
		}
		if _, err := s.saleRepo.CreateLine(tx, &line); err != nil {
			return nil, fmt.Errorf("failed to create sale line (tour_id: %d): %w", p.TourID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch edit transaction: %w", err)
	}
	return s.GetBatch(caller, batchID)
}

// VoidBatch cancels the whole batch and restores the inventory it had
// consumed. Restoration only touches finite-stock tours: an unlimited tour's
// sold counter is a permanent total and stays put on void.
func (s *ledgerService) VoidBatch(caller models.Caller, batchID models.BatchID, reason *string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	lines, err := s.saleRepo.GetBatchLines(tx, batchID)
	if err != nil {
		return fmt.Errorf("failed to load batch for void: %w", err)
	}
	if len(lines) == 0 {
		return ErrBatchNotFound
	}
	if err := checkBatchAccess(caller, lines); err != nil {
		return err
	}
	for _, line := range lines {
		if line.Voided() {
			return ErrBatchVoided
		}
	}

	for _, line := range lines {
		if err := s.catalogRepo.RestoreStock(tx, line.TourID, line.Quantity); err != nil {
			return fmt.Errorf("failed to restore stock for tour ID %d: %w", line.TourID, err)
		}
		if err := s.recordMovement(tx, line.TourID, batchID, models.MovementVoidRestore, -line.Quantity, caller, reason); err != nil {
			return err
		}
	}
	if _, err := s.saleRepo.VoidBatchLines(tx, batchID, time.Now(), reason); err != nil {
		return fmt.Errorf("failed to void batch lines: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit void transaction: %w", err)
	}

	s.publish(events.TopicBatchVoided, events.BatchVoided{
		BatchID:     batchID.Value,
		BatchSource: string(batchID.Source),
		Reason:      stringValue(reason),
		OccurredAt:  time.Now(),
	})
	return nil
}

// DeleteBatch permanently removes a batch. It is only permitted once every
// line is already voided, so the inventory was restored by the void.
func (s *ledgerService) DeleteBatch(caller models.Caller, batchID models.BatchID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	lines, err := s.saleRepo.GetBatchLines(tx, batchID)
	if err != nil {
		return fmt.Errorf("failed to load batch for deletion: %w", err)
	}
	if len(lines) == 0 {
		return ErrBatchNotFound
	}
	if err := checkBatchAccess(caller, lines); err != nil {
		return err
	}
	for _, line := range lines {
		if !line.Voided() {
			return ErrBatchNotVoided
		}
	}

	if _, err := s.saleRepo.DeleteBatchLines(tx, batchID); err != nil {
		return fmt.Errorf("failed to delete batch lines: %w", err)
	}
	return tx.Commit()
}

func (s *ledgerService) UpdatePayment(caller models.Caller, batchID models.BatchID, req UpdatePaymentRequest) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	lines, err := s.saleRepo.GetBatchLines(tx, batchID)
	if err != nil {
		return fmt.Errorf("failed to load batch for payment update: %w", err)
	}
	if len(lines) == 0 {
		return ErrBatchNotFound
	}
	if err := checkBatchAccess(caller, lines); err != nil {
		return err
	}
	for _, line := range lines {
		if line.Voided() {
			return ErrBatchVoided
		}
	}

	if _, err := s.saleRepo.UpdatePayment(tx, batchID, req.IsPaid, req.Deposit, req.BalanceDue); err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return tx.Commit()
}

// GetStockMovements lists the counter audit trail.
func (s *ledgerService) GetStockMovements(filters models.MovementFilters) ([]models.StockMovement, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	movements, totalCount, err := s.movementRepo.GetMovements(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get stock movements: %w", err)
	}
	return movements, totalCount, nil
}

// --- helpers ---

// recordMovement writes the audit row for one counter change through the
// same executor, so it commits or rolls back with the change itself.
func (s *ledgerService) recordMovement(tx repositories.SQLExecutor, tourID int64, batchID models.BatchID,
	movementType string, delta int, caller models.Caller, reason *string) error {
	_, err := s.movementRepo.RecordMovement(tx, &models.StockMovement{
		TourID:          tourID,
		BatchID:         batchID,
		MovementType:    movementType,
		QuantityChanged: delta,
		Actor:           caller.Username,
		Reason:          reason,
	})
	if err != nil {
		return fmt.Errorf("failed to record stock movement for tour ID %d: %w", tourID, err)
	}
	return nil
}

// consumeStock applies a positive quantity against a tour's counters,
// translating a conditional-update miss into the business error with the
// units still available.
func (s *ledgerService) consumeStock(tx repositories.SQLExecutor, tourID int64, quantity int) error {
	_, err := s.catalogRepo.AdjustStockAndSold(tx, tourID, quantity)
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: tour ID %d", ErrTourNotFound, tourID)
	}
	if errors.Is(err, repositories.ErrStockConflict) {
		tour, lookupErr := s.catalogRepo.GetTourForSale(tx, tourID)
		if lookupErr != nil {
			return fmt.Errorf("%w (tour ID: %d)", ErrInsufficientStock, tourID)
		}
		return insufficientStock(tour, quantity)
	}
	return fmt.Errorf("failed to adjust stock for tour ID %d: %w", tourID, err)
}

// adjustForEdit applies a signed delta during a batch edit. Positive deltas
// must fit in the remaining stock; negative deltas restore it.
func (s *ledgerService) adjustForEdit(tx repositories.SQLExecutor, tourID int64, delta int) error {
	if delta > 0 {
		return s.consumeStock(tx, tourID, delta)
	}
	_, err := s.catalogRepo.AdjustStockAndSold(tx, tourID, delta)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: tour ID %d", ErrTourNotFound, tourID)
		}
		return fmt.Errorf("failed to adjust stock for tour ID %d: %w", tourID, err)
	}
	return nil
}

func insufficientStock(tour *models.Tour, requested int) error {
	return fmt.Errorf("%w %s (ID: %d). Requested: %d, Available: %d",
		ErrInsufficientStock, tour.Name, tour.ID, requested, tour.Stock)
}

// checkBatchAccess enforces the supervisor scoping rule: admins and support
// see everything, supervisors only batches recorded under their own name.
func checkBatchAccess(caller models.Caller, lines []models.SaleLine) error {
	if caller.Role != models.RoleSupervisor {
		return nil
	}
	seller := caller.FullName
	if seller == "" {
		seller = caller.Username
	}
	if lines[0].SellerName == nil || *lines[0].SellerName != seller {
		return ErrForbidden
	}
	return nil
}

func (s *ledgerService) publish(topic string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(topic, event); err != nil {
		utils.LogError(err, "Failed to publish "+topic+" event")
	}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
