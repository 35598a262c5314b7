package services

import "errors"

// Errors shared across the ledger, import and catalog services.
var (
	ErrValidation = errors.New("validation error")

	ErrTourNotFound      = errors.New("tour not found")
	ErrInsufficientStock = errors.New("insufficient stock for tour")

	ErrBatchNotFound  = errors.New("sale batch not found")
	ErrBatchVoided    = errors.New("sale batch is voided")
	ErrBatchNotVoided = errors.New("sale batch is not voided")

	// ErrForbidden is returned when a supervisor touches a batch that was not
	// recorded under their own name.
	ErrForbidden = errors.New("caller may not access this batch")
)
