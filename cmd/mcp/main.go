package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/supplyops/wc-optimizer/internal/adapters/mcp"
	"github.com/supplyops/wc-optimizer/internal/bootstrap"
	"github.com/supplyops/wc-optimizer/internal/config"
)

const serverVersion = "1.0.0"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	srv := mcpadapter.NewServer("wc-optimizer", serverVersion, app.Catalog, app.Log)
	app.Log.Info("mcp server on stdio", "tools", len(app.Catalog.Specs()))
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
