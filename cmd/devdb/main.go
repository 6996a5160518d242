package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/obrasdb/internal/config"
	"github.com/localnerve/obrasdb/internal/database"
	"github.com/localnerve/obrasdb/internal/logging"
	"github.com/localnerve/obrasdb/internal/testhelpers"
	"go.uber.org/zap"
)

const usage = `
Start a throwaway database for local development, migrate it, and print the
environment to point obrasdb at it. Stops on SIGINT or SIGTERM.

Usage:

devdb [-h] [-f ENV_FILE_PATH] [-image IMAGE]

example
  devdb -f .env.dev -image postgres:17-alpine
`

func main() {
	var (
		showHelp    bool
		envFilename string
		image       string
	)
	flag.BoolVar(&showHelp, "h", false, "show usage")
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.StringVar(&image, "image", "postgres:17-alpine", "database image")
	flag.Parse()

	if showHelp {
		fmt.Print(usage)
		return
	}

	if envFilename != "" {
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, "console", "obrasdb-devdb")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	container, err := testhelpers.StartDatabase(ctx, cfg, image)
	if err != nil {
		logger.Fatal("Failed to start database", zap.Error(err))
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			logger.Error("Failed to terminate database", zap.Error(err))
		}
	}()
	container.Apply(cfg)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect", zap.Error(err))
		return
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Error("Failed to migrate", zap.Error(err))
	}
	_ = database.Close(db)

	fmt.Printf("DB_TYPE=%s\nDB_HOST=%s\nDB_PORT=%s\nDB_DATABASE=%s\nDB_USER=%s\n",
		cfg.DBType, cfg.DBHost, cfg.DBPort, cfg.DBDatabase, cfg.DBUser)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	logger.Info("Received signal, terminating database", zap.String("signal", sig.String()))
}
