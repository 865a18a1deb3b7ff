package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mindforks/tangent/internal/config"
	"github.com/mindforks/tangent/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		sugar.Warnw("could not load config file, using defaults", "path", cfgPath, "error", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()

	srv, err := server.NewServer(cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize server", "error", err)
	}
	r := srv.SetupRouter()

	sugar.Infow("starting server", "port", cfg.Server.Port, "llm_provider", cfg.LLM.Provider)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		sugar.Fatalw("server exited", "error", err)
	}
}
