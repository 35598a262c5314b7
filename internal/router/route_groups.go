package router

import (
	"tour_sales_backend/internal/handlers"
	"tour_sales_backend/internal/middleware"
	"tour_sales_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.LoginUser)
		authRoutes.POST("/refresh-token", authHandler.RefreshToken)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			// Only admins can create accounts; there is no self sign-up.
			authRequiredRoutes.POST("/register", middleware.RoleAuthMiddleware(models.RoleAdmin), authHandler.RegisterUser)
			authRequiredRoutes.POST("/logout", authHandler.LogoutUser)
			authRequiredRoutes.GET("/me", authHandler.GetCurrentUser)
		}
	}
}

// SetupCatalogRoutes sets up the tour catalog routes. Reads are open to every
// role; catalog writes are admin only.
func SetupCatalogRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	tourWriteRoutes := authenticatedGroup.Group("/tours")
	tourWriteRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		tourWriteRoutes.POST("", catalogHandler.CreateTour)
		tourWriteRoutes.PUT("/:id", catalogHandler.UpdateTour)
		tourWriteRoutes.DELETE("/:id", catalogHandler.DeleteTour)
		tourWriteRoutes.PATCH("/:id/stock", catalogHandler.SetStock)
	}

	authenticatedGroup.GET("/tours", catalogHandler.GetTours)
	authenticatedGroup.GET("/tours/:id", catalogHandler.GetTourByID)
}

// SetupSaleRoutes sets up the sale batch routes. Every role can record and
// view sales (supervisors are scoped to their own by the service); hard
// deletion is admin only.
func SetupSaleRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := authenticatedGroup.Group("/sales")
	{
		saleRoutes.POST("", saleHandler.CreateBatch)
		saleRoutes.GET("", saleHandler.GetBatches)
		saleRoutes.GET("/:source/:id", saleHandler.GetBatch)
		saleRoutes.PUT("/:source/:id", saleHandler.UpdateBatch)
		saleRoutes.PATCH("/:source/:id/void", saleHandler.VoidBatch)
		saleRoutes.PATCH("/:source/:id/payment", saleHandler.UpdatePayment)
		saleRoutes.DELETE("/:source/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), saleHandler.DeleteBatch)
	}

	authenticatedGroup.GET("/stock-movements",
		middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSupport),
		saleHandler.GetStockMovements)
}

// SetupImportRoutes sets up the file import routes.
func SetupImportRoutes(authenticatedGroup *gin.RouterGroup, importHandler *handlers.ImportHandler) {
	importRoutes := authenticatedGroup.Group("/imports")
	importRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSupport))
	{
		importRoutes.POST("/sales", importHandler.ImportSales)
	}
}
