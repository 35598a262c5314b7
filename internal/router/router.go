package router

import (
	"database/sql"
	"strings"

	"tour_sales_backend/internal/events"
	kafkapub "tour_sales_backend/internal/events/kafka"
	"tour_sales_backend/internal/handlers"
	"tour_sales_backend/internal/importer"
	"tour_sales_backend/internal/middleware"
	"tour_sales_backend/internal/repositories"
	"tour_sales_backend/internal/services"
	"tour_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	movementRepo := repositories.NewMovementRepository(db)

	// Event publishing is optional: without KAFKA_BROKERS the ledger runs
	// with a no-op publisher.
	var publisher events.Publisher = events.NoopPublisher{}
	if brokers := utils.Getenv("KAFKA_BROKERS", ""); brokers != "" {
		publisher = kafkapub.NewPublisher(strings.Split(brokers, ","))
		utils.LogInfo("Kafka event publisher enabled", map[string]interface{}{"brokers": brokers})
	}

	aliases, err := importer.LoadAliases(utils.Getenv("IMPORT_ALIASES_PATH", ""))
	if err != nil {
		utils.LogError(err, "Failed to load import aliases, falling back to defaults")
		aliases = importer.DefaultAliases()
	}

	// Initialize Services
	authService := services.NewAuthService(authRepo, db)
	catalogService := services.NewCatalogService(catalogRepo, db)
	ledgerService := services.NewLedgerService(saleRepo, catalogRepo, movementRepo, publisher, db)
	importService := services.NewImportService(ledgerService, saleRepo, catalogRepo, aliases)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	saleHandler := handlers.NewSaleHandler(ledgerService)
	importHandler := handlers.NewImportHandler(importService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupCatalogRoutes(authenticated, catalogHandler)
		SetupSaleRoutes(authenticated, saleHandler)
		SetupImportRoutes(authenticated, importHandler)
	}
}
