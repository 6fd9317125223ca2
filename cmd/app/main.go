package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/smartfab/model-factory-mes/internal/config"
	"github.com/smartfab/model-factory-mes/internal/database"
	"github.com/smartfab/model-factory-mes/internal/middleware"
	"github.com/smartfab/model-factory-mes/pkg/auth"
	"github.com/smartfab/model-factory-mes/pkg/bom"
	"github.com/smartfab/model-factory-mes/pkg/inventory"
	"github.com/smartfab/model-factory-mes/pkg/masterdata"
	"github.com/smartfab/model-factory-mes/pkg/orders"
	"github.com/smartfab/model-factory-mes/pkg/scheduler"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Seed(db); err != nil {
		log.Fatal("Failed to seed database:", err)
	}

	if cfg.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	// Services, leaves first
	masterdataService := masterdata.NewService(db)
	inventoryService := inventory.NewService(db)
	resolver := bom.NewResolver(masterdataService)
	authService := auth.NewService(db, cfg)

	var planner scheduler.Planner
	if cfg.SimALURL != "" {
		planner = scheduler.NewSimALClient(cfg.SimALURL, cfg.OutboundTimeout, cfg.SimALMaxRetries)
		log.Printf("Scheduling via SimAL at %s", cfg.SimALURL)
	} else {
		planner = scheduler.NewEmbeddedPlanner(masterdataService)
		log.Println("Scheduling via embedded planner")
	}

	orderService := orders.NewService(db, inventoryService, masterdataService, resolver, planner, cfg)

	api := router.Group("/api/v1")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "Model Factory MES",
			"modules": []string{"MasterData", "Inventory", "Orders", "Scheduler", "Auth"},
		})
	})

	public := api.Group("/")
	protected := api.Group("/")
	protected.Use(middleware.AuthRequired(cfg))

	auth.NewHandler(authService).RegisterRoutes(public, protected)
	masterdata.NewHandler(masterdataService).RegisterRoutes(public, protected)
	inventory.NewHandler(inventoryService, cfg.StockAlertDefault).RegisterRoutes(protected)
	orders.NewHandler(orderService).RegisterRoutes(protected)
	scheduler.NewHandler(scheduler.NewEmbeddedPlanner(masterdataService)).RegisterRoutes(protected)

	log.Printf("Model Factory MES starting on port %s (%s profile)", cfg.Port, cfg.Environment)
	log.Fatal(router.Run(":" + cfg.Port))
}
