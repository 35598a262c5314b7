package services

import (
	"errors"
	"testing"

	"tour_sales_backend/internal/models"

	"github.com/shopspring/decimal"
)

func line(id, tourID int64, quantity int) models.SaleLine {
	return models.SaleLine{ID: id, TourID: tourID, Quantity: quantity, Total: decimal.NewFromInt(100)}
}

func lineIDPtr(id int64) *int64 { return &id }

func TestDiffBatchLinesUpdatesAddsRemoves(t *testing.T) {
	current := []models.SaleLine{line(1, 10, 2), line(2, 20, 1), line(3, 30, 1)}
	proposed := []ProposedLine{
		{LineID: lineIDPtr(1), TourID: 10, Quantity: 3, Total: decimal.NewFromInt(150)},
		{TourID: 40, Quantity: 1, Total: decimal.NewFromInt(90)},
		{LineID: lineIDPtr(3), Quantity: 1, Total: decimal.NewFromInt(100)},
	}

	diff, err := diffBatchLines(current, proposed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(diff.updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(diff.updates))
	}
	if diff.updates[0].current.ID != 1 || diff.updates[0].proposed.Quantity != 3 {
		t.Errorf("unexpected first update: %+v", diff.updates[0])
	}
	if len(diff.adds) != 1 || diff.adds[0].TourID != 40 {
		t.Errorf("adds = %+v, want one add for tour 40", diff.adds)
	}
	if len(diff.removes) != 1 || diff.removes[0].ID != 2 {
		t.Errorf("removes = %+v, want line 2", diff.removes)
	}
}

func TestDiffBatchLinesIdenticalProposalIsAllUpdates(t *testing.T) {
	current := []models.SaleLine{line(1, 10, 2), line(2, 20, 1)}
	proposed := []ProposedLine{
		{LineID: lineIDPtr(1), TourID: 10, Quantity: 2, Total: decimal.NewFromInt(100)},
		{LineID: lineIDPtr(2), TourID: 20, Quantity: 1, Total: decimal.NewFromInt(100)},
	}

	diff, err := diffBatchLines(current, proposed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diff.adds) != 0 || len(diff.removes) != 0 || len(diff.updates) != 2 {
		t.Errorf("diff = %d updates, %d adds, %d removes", len(diff.updates), len(diff.adds), len(diff.removes))
	}
}

func TestDiffBatchLinesForeignLineID(t *testing.T) {
	current := []models.SaleLine{line(1, 10, 2)}
	proposed := []ProposedLine{{LineID: lineIDPtr(99), Quantity: 1}}

	_, err := diffBatchLines(current, proposed)
	if err == nil {
		t.Fatal("expected error for line outside batch")
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestDiffBatchLinesDuplicateProposal(t *testing.T) {
	current := []models.SaleLine{line(1, 10, 2)}
	proposed := []ProposedLine{
		{LineID: lineIDPtr(1), Quantity: 1},
		{LineID: lineIDPtr(1), Quantity: 2},
	}

	if _, err := diffBatchLines(current, proposed); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for duplicate proposal, got %v", err)
	}
}

func TestDiffBatchLinesTourChangeRejected(t *testing.T) {
	current := []models.SaleLine{line(1, 10, 2)}
	proposed := []ProposedLine{{LineID: lineIDPtr(1), TourID: 20, Quantity: 2}}

	if _, err := diffBatchLines(current, proposed); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for tour change, got %v", err)
	}
}

func TestDiffBatchLinesEmptyProposalRemovesAll(t *testing.T) {
	current := []models.SaleLine{line(1, 10, 2), line(2, 20, 1)}

	diff, err := diffBatchLines(current, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diff.removes) != 2 || len(diff.updates) != 0 || len(diff.adds) != 0 {
		t.Errorf("expected all lines removed, got %+v", diff)
	}
}
