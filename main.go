package main

import (
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aviadkim/statement-reconciler/client"
	"github.com/aviadkim/statement-reconciler/config"
	"github.com/aviadkim/statement-reconciler/handler"
	"github.com/aviadkim/statement-reconciler/service"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()
	initLogger(cfg.LogLevel)

	// External backend clients
	layoutClient := client.NewLayoutClient(cfg.LayoutAPIURL, cfg.RunnerTimeout, cfg.RetryCount)
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath)

	// Pipeline: pdf processing + the extraction method runners
	pdfProcessor := service.NewPDFProcessor()
	extractionService := service.NewExtractionService(pdfProcessor,
		service.TextScanRunner{},
		service.NewTableRunner(layoutClient),
		service.NewOCRRunner(pdfProcessor, tesseractClient),
	)

	// Handler layer
	statementHandler := handler.NewStatementHandler(extractionService)

	// Setup Gin router
	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxFileSize

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Statement Reconciler",
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		statements := api.Group("/statements")
		{
			statements.POST("/extract", statementHandler.ExtractStatement)
		}
	}

	// Start server
	slog.Info("starting statement reconciler", "port", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func initLogger(logLevel string) {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(logHandler))
}
