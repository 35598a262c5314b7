package services

import (
	"strings"
	"testing"

	"tour_sales_backend/internal/models"
	"tour_sales_backend/internal/repositories"
)

type fakeCatalogRepo struct {
	repositories.CatalogRepository
	tours []models.Tour
}

func (f *fakeCatalogRepo) GetAllTours() ([]models.Tour, error) {
	return f.tours, nil
}

type fakeSaleRepo struct {
	repositories.SaleRepository
	seen map[string]bool
}

func (f *fakeSaleRepo) BatchExistsByFingerprint(fingerprint string) (bool, error) {
	return f.seen[fingerprint], nil
}

type fakeLedger struct {
	LedgerService
	saleRepo *fakeSaleRepo
	batches  []CreateBatchRequest
}

func (f *fakeLedger) CreateBatchWithID(caller models.Caller, batchID models.BatchID, req CreateBatchRequest) (*models.Batch, error) {
	f.saleRepo.seen[batchID.Value] = true
	f.batches = append(f.batches, req)
	batch := &models.Batch{ID: batchID}
	for range req.Items {
		batch.Lines = append(batch.Lines, models.SaleLine{})
	}
	return batch, nil
}

func newImportFixture() (*fakeLedger, ImportService) {
	saleRepo := &fakeSaleRepo{seen: map[string]bool{}}
	catalogRepo := &fakeCatalogRepo{tours: []models.Tour{
		{ID: 1, Name: "Xcaret"},
		{ID: 2, Name: "Tulum"},
	}}
	ledger := &fakeLedger{saleRepo: saleRepo}
	return ledger, NewImportService(ledger, saleRepo, catalogRepo, nil)
}

const importCSV = "Producto,Cantidad,Total,Nombre,Teléfono\n" +
	"Tulum,2,1700,Ana,555-1\n" +
	"\"Xcaret: 1700, Tulum: 850\",,2550,Luis,555-2\n" +
	"Atlantis,1,100,Pepe,555-3\n"

func TestImportFileCreatesAndCollectsErrors(t *testing.T) {
	ledger, svc := newImportFixture()

	summary, err := svc.ImportFile(models.Caller{Role: models.RoleAdmin}, strings.NewReader(importCSV), "export.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Row 2 is one line, row 3 expands to two lines, row 4 fails resolution.
	if summary.TotalRows != 3 {
		t.Errorf("totalRows = %d, want 3", summary.TotalRows)
	}
	if summary.Created != 3 {
		t.Errorf("created = %d, want 3", summary.Created)
	}
	// The failing row is reported as an error, not a skip; skipped is
	// reserved for duplicate rows.
	if summary.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", summary.Skipped)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("errors = %+v, want one group", summary.Errors)
	}
	if summary.Errors[0].Rows[0] != 4 {
		t.Errorf("error row = %d, want 4", summary.Errors[0].Rows[0])
	}
	if len(ledger.batches) != 2 {
		t.Errorf("created batches = %d, want 2", len(ledger.batches))
	}

	// The multi-item row carries its payment fields on the first line only.
	multi := ledger.batches[1]
	if len(multi.Items) != 2 {
		t.Fatalf("multi-item batch has %d items", len(multi.Items))
	}
}

func TestImportFileSecondRunSkipsEverything(t *testing.T) {
	_, svc := newImportFixture()
	caller := models.Caller{Role: models.RoleAdmin}

	if _, err := svc.ImportFile(caller, strings.NewReader(importCSV), "export.csv"); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	summary, err := svc.ImportFile(caller, strings.NewReader(importCSV), "export.csv")
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	if summary.Created != 0 {
		t.Errorf("second run created = %d, want 0", summary.Created)
	}
	// The unknown-product row errors on both runs, so it stays in the error
	// groups and never joins the skipped count.
	if want := summary.TotalRows - 1; summary.Skipped != want {
		t.Errorf("second run skipped = %d, want %d", summary.Skipped, want)
	}
	if len(summary.Errors) != 1 {
		t.Errorf("second run errors = %+v, want the unresolvable row only", summary.Errors)
	}
}

func TestImportFileMissingRequiredColumn(t *testing.T) {
	_, svc := newImportFixture()

	_, err := svc.ImportFile(models.Caller{Role: models.RoleAdmin},
		strings.NewReader("Nombre,Total\nAna,100\n"), "export.csv")
	if err == nil {
		t.Fatal("expected error for missing product column")
	}
}
