package services

import (
	"fmt"
	"io"
	"time"

	"tour_sales_backend/internal/importer"
	"tour_sales_backend/internal/models"
	"tour_sales_backend/internal/repositories"
)

// ImportSummary is the outcome of one file import. Created counts sale lines;
// Skipped counts duplicate rows only, so re-importing an unchanged file yields
// skipped == totalRows minus the rows that error both times.
type ImportSummary struct {
	Created   int                   `json:"created"`
	Skipped   int                   `json:"skipped"`
	TotalRows int                   `json:"totalRows"`
	Errors    []importer.ErrorGroup `json:"errors,omitempty"`
}

// ImportService ingests CSV/XLSX sales exports. Each file row becomes its own
// batch keyed by a content fingerprint, so rows already imported earlier are
// skipped instead of duplicated.
type ImportService interface {
	ImportFile(caller models.Caller, r io.Reader, filename string) (*ImportSummary, error)
}

type importService struct {
	ledger      LedgerService
	saleRepo    repositories.SaleRepository
	catalogRepo repositories.CatalogRepository
	aliases     *importer.Aliases
}

// NewImportService creates a new instance of ImportService.
func NewImportService(
	ledger LedgerService,
	sr repositories.SaleRepository,
	cr repositories.CatalogRepository,
	aliases *importer.Aliases,
) ImportService {
	if aliases == nil {
		aliases = importer.DefaultAliases()
	}
	return &importService{
		ledger:      ledger,
		saleRepo:    sr,
		catalogRepo: cr,
		aliases:     aliases,
	}
}

func (s *importService) ImportFile(caller models.Caller, r io.Reader, filename string) (*ImportSummary, error) {
	table, err := importer.ReadTable(r, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	index := importer.NewHeaderIndex(table.Headers, s.aliases)
	for _, required := range []string{importer.ColProduct, importer.ColTotal} {
		if !index.Has(required) {
			return nil, fmt.Errorf("%w: file is missing required column %q", ErrValidation, required)
		}
	}

	tours, err := s.catalogRepo.GetAllTours()
	if err != nil {
		return nil, fmt.Errorf("failed to load tour catalog for import: %w", err)
	}
	resolver := importer.NewProductResolver(tours, s.aliases.Products)

	summary := &ImportSummary{TotalRows: len(table.Rows)}
	collector := importer.NewRowErrorCollector()
	now := time.Now()

	// Rows are isolated from each other: one bad row is collected and skipped,
	// the rest of the file still imports.
	for _, row := range table.Rows {
		resolved, err := importer.ResolveRow(index, row, resolver, now)
		if err != nil {
			collector.Add(row.Number, err.Error())
			continue
		}

		exists, err := s.saleRepo.BatchExistsByFingerprint(resolved.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicate row: %w", err)
		}
		if exists {
			summary.Skipped++
			continue
		}

		req := buildImportRequest(resolved)
		batch, err := s.ledger.CreateBatchWithID(caller, models.ImportedBatchID(resolved.Fingerprint), req)
		if err != nil {
			collector.Add(row.Number, err.Error())
			continue
		}
		summary.Created += len(batch.Lines)
	}

	summary.Errors = collector.Groups()
	return summary, nil
}

// buildImportRequest maps a resolved row to a batch creation request. On a
// multi-item row the deposit and balance ride on the first line only, so the
// batch totals stay correct.
func buildImportRequest(resolved *importer.ResolvedRow) CreateBatchRequest {
	entryDate := resolved.EntryDate
	req := CreateBatchRequest{
		Customer: CustomerFields{
			CustomerName:    resolved.CustomerName,
			CustomerPhone:   resolved.CustomerPhone,
			CustomerAddress: resolved.CustomerAddress,
			SellerName:      resolved.SellerName,
			EntryDate:       &entryDate,
			IsPaid:          resolved.IsPaid,
		},
	}
	for i, line := range resolved.Lines {
		item := CreateSaleLineRequest{
			TourID:   line.Tour.ID,
			Quantity: line.Quantity,
			Total:    line.Total,
		}
		if i == 0 {
			item.Deposit = resolved.Deposit
			item.BalanceDue = resolved.BalanceDue
		}
		req.Items = append(req.Items, item)
	}
	return req
}
