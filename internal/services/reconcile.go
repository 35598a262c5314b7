package services

import (
	"fmt"

	"tour_sales_backend/internal/models"
)

// lineUpdate pairs an existing line with the proposal replacing it.
type lineUpdate struct {
	current  models.SaleLine
	proposed ProposedLine
}

// batchDiff is the result of reconciling a batch's current lines against a
// proposed replacement set: three disjoint work lists.
//
//	updates: proposed entries whose line_id matches a current line
//	adds:    proposed entries without a line_id
//	removes: current lines whose id appears in no proposed entry
type batchDiff struct {
	updates []lineUpdate
	adds    []ProposedLine
	removes []models.SaleLine
}

// diffBatchLines computes the three-way diff. The order of updates and adds
// follows the proposal's input order; removes follow the current line order.
func diffBatchLines(current []models.SaleLine, proposed []ProposedLine) (batchDiff, error) {
	currentByID := make(map[int64]models.SaleLine, len(current))
	for _, line := range current {
		currentByID[line.ID] = line
	}

	var diff batchDiff
	proposedIDs := make(map[int64]bool, len(proposed))
	for _, p := range proposed {
		if p.LineID == nil {
			diff.adds = append(diff.adds, p)
			continue
		}
		existing, ok := currentByID[*p.LineID]
		if !ok {
			return batchDiff{}, fmt.Errorf("%w: line %d does not belong to this batch", ErrValidation, *p.LineID)
		}
		if proposedIDs[*p.LineID] {
			return batchDiff{}, fmt.Errorf("%w: line %d proposed more than once", ErrValidation, *p.LineID)
		}
		if p.TourID != 0 && p.TourID != existing.TourID {
			return batchDiff{}, fmt.Errorf("%w: line %d cannot change its tour", ErrValidation, *p.LineID)
		}
		proposedIDs[*p.LineID] = true
		diff.updates = append(diff.updates, lineUpdate{current: existing, proposed: p})
	}

	for _, line := range current {
		if !proposedIDs[line.ID] {
			diff.removes = append(diff.removes, line)
		}
	}
	return diff, nil
}
