package services

import (
	"database/sql"
	"fmt"

	"tour_sales_backend/internal/models"
	"tour_sales_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// CreateTourRequest is used for creating a new catalog tour. Stock -1 means
// unlimited availability.
type CreateTourRequest struct {
	Name  string          `json:"name" binding:"required"`
	Line  string          `json:"line" binding:"required"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// UpdateTourRequest updates a tour's descriptive fields. Counters are not
// editable here; stock resets go through SetStock.
type UpdateTourRequest struct {
	Name  string          `json:"name" binding:"required"`
	Line  string          `json:"line" binding:"required"`
	Price decimal.Decimal `json:"price"`
}

// SetStockRequest replaces a tour's remaining stock.
type SetStockRequest struct {
	Stock int `json:"stock"`
}

// CatalogService manages the tour catalog.
type CatalogService interface {
	CreateTour(req CreateTourRequest) (*models.Tour, error)
	GetTourByID(id int64) (*models.Tour, error)
	GetTours(filters models.TourFilters) ([]models.Tour, int, error)
	UpdateTour(id int64, req UpdateTourRequest) (*models.Tour, error)
	DeleteTour(id int64) error
	SetStock(id int64, stock int) (*models.Tour, error)
}

type catalogService struct {
	catalogRepo repositories.CatalogRepository
	db          *sql.DB
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(cr repositories.CatalogRepository, db *sql.DB) CatalogService {
	return &catalogService{catalogRepo: cr, db: db}
}

func (s *catalogService) CreateTour(req CreateTourRequest) (*models.Tour, error) {
	if err := validateTourFields(req.Name, req.Line, req.Price); err != nil {
		return nil, err
	}
	if req.Stock < models.UnlimitedStock {
		return nil, fmt.Errorf("%w: stock must be -1 (unlimited) or non-negative", ErrValidation)
	}

	tour := &models.Tour{
		Name:  req.Name,
		Line:  req.Line,
		Price: req.Price,
		Stock: req.Stock,
	}
	if _, err := s.catalogRepo.CreateTour(s.db, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

func (s *catalogService) GetTourByID(id int64) (*models.Tour, error) {
	return s.catalogRepo.GetTourByID(id)
}

func (s *catalogService) GetTours(filters models.TourFilters) ([]models.Tour, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	return s.catalogRepo.GetTours(filters)
}

func (s *catalogService) UpdateTour(id int64, req UpdateTourRequest) (*models.Tour, error) {
	if err := validateTourFields(req.Name, req.Line, req.Price); err != nil {
		return nil, err
	}
	tour, err := s.catalogRepo.GetTourByID(id)
	if err != nil {
		return nil, err
	}
	tour.Name = req.Name
	tour.Line = req.Line
	tour.Price = req.Price
	if err := s.catalogRepo.UpdateTour(s.db, tour); err != nil {
		return nil, err
	}
	return s.catalogRepo.GetTourByID(id)
}

func (s *catalogService) DeleteTour(id int64) error {
	return s.catalogRepo.DeleteTour(s.db, id)
}

func (s *catalogService) SetStock(id int64, stock int) (*models.Tour, error) {
	if stock < models.UnlimitedStock {
		return nil, fmt.Errorf("%w: stock must be -1 (unlimited) or non-negative", ErrValidation)
	}
	if err := s.catalogRepo.SetStock(s.db, id, stock); err != nil {
		return nil, err
	}
	return s.catalogRepo.GetTourByID(id)
}

func validateTourFields(name, line string, price decimal.Decimal) error {
	if name == "" {
		return fmt.Errorf("%w: tour name is required", ErrValidation)
	}
	if line == "" {
		return fmt.Errorf("%w: tour line is required", ErrValidation)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}
