package main

import (
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/catalog"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/config"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/database"
	logger "github.com/AndriiKulakovskyi/efondamental-sub001/internal/logging"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/router"

	"go.uber.org/zap"
)

func main() {
	// Initialize Logger
	log, err := logger.Init(".")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Load configuration
	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Database
	database.Init(log)

	// Load questionnaire definitions and norm tables at startup
	cat, err := catalog.Load(config.Conf.Engine.DefinitionsDir, config.Conf.Engine.NormsDir)
	if err != nil {
		log.Fatal("Failed to load instrument catalog", zap.Error(err))
	}
	log.Info("Instrument catalog loaded",
		zap.Int("definitions", len(cat.Definitions())),
		zap.Int("norm_tables", len(cat.Norms.Subtests())))

	// Setup router, passing the logger to it
	r := router.Setup(log, cat)

	// Start the Gin server
	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
