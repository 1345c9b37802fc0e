package main

import (
	"context"
	"os"

	"github.com/playmatatu/slingshot/internal/config"
	"github.com/playmatatu/slingshot/internal/database"
	"github.com/playmatatu/slingshot/internal/logging"
	"github.com/playmatatu/slingshot/internal/operator"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	name := os.Getenv("OPERATOR_NAME")
	if name == "" {
		name = "operator"
		log.Info("using default operator name", zap.String("name", name))
	}

	token := os.Getenv("OPERATOR_TOKEN")
	if token == "" {
		token = "change-me-in-production"
		log.Warn("using default operator token; set OPERATOR_TOKEN in production")
	}

	displayName := os.Getenv("OPERATOR_DISPLAY_NAME")
	if displayName == "" {
		displayName = "Operator"
	}

	if err := operator.CreateOperator(db, name, displayName, token); err != nil {
		log.Fatal("failed to create operator", zap.Error(err))
	}

	log.Info("operator created or updated", zap.String("name", name), zap.String("display_name", displayName))
}
