package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/obrasdb/internal/config"
	"github.com/localnerve/obrasdb/internal/database"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// PostgresImageEnv names the image used by NewPostgresDB, for example postgres:17-alpine.
const PostgresImageEnv = "POSTGRES_IMAGE"

// NewPostgresDB starts a PostgreSQL container and returns a migrated connection pool of poolSize.
// The test is skipped in -short mode or when PostgresImageEnv is unset.
func NewPostgresDB(t *testing.T, poolSize int) *gorm.DB {
	t.Helper()
	image := os.Getenv(PostgresImageEnv)
	if testing.Short() || image == "" {
		t.Skip(PostgresImageEnv + " not set")
	}

	ctx := context.Background()
	cfg := &config.Config{
		DBType:            "postgres",
		DBDatabase:        "obras",
		DBUser:            "obras",
		DBPassword:        "obras",
		DBConnectionLimit: poolSize,
	}
	container, err := StartDatabase(ctx, cfg, image)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })
	container.Apply(cfg)

	db, err := database.Connect(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// DBContainer is a throwaway database server.
type DBContainer struct {
	Container testcontainers.Container
	Host      string
	Port      nat.Port
}

// Terminate stops and removes the container.
func (c *DBContainer) Terminate(ctx context.Context) error {
	if c == nil || c.Container == nil {
		return nil
	}
	return c.Container.Terminate(ctx)
}

// Apply points cfg at the running container.
func (c *DBContainer) Apply(cfg *config.Config) {
	cfg.DBHost = c.Host
	cfg.DBPort = c.Port.Port()
}

// StartDatabase starts image as the database described by cfg and waits until it accepts connections.
// postgres, mysql and mariadb images are supported.
func StartDatabase(ctx context.Context, cfg *config.Config, image string) (*DBContainer, error) {
	env, internalPort, ready, err := containerEnv(cfg)
	if err != nil {
		return nil, err
	}
	tcpPort, err := nat.NewPort("tcp", internalPort)
	if err != nil {
		return nil, fmt.Errorf("invalid database port: %w", err)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(tcpPort)},
			Env:          env,
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(tcpPort),
				wait.ForLog(ready.line).WithOccurrence(ready.occurrences),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to resolve container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, tcpPort)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to resolve container port: %w", err)
	}

	return &DBContainer{Container: container, Host: host, Port: mapped}, nil
}

// readyLog is the startup line a server prints once it accepts connections.
type readyLog struct {
	line        string
	occurrences int
}

func containerEnv(cfg *config.Config) (map[string]string, string, readyLog, error) {
	switch cfg.DBType {
	case "postgres", "postgresql":
		// the init scripts run against a temporary server first
		return map[string]string{
			"POSTGRES_USER":     cfg.DBUser,
			"POSTGRES_PASSWORD": cfg.DBPassword,
			"POSTGRES_DB":       cfg.DBDatabase,
		}, "5432", readyLog{"database system is ready to accept connections", 2}, nil
	case "mysql", "mariadb":
		return map[string]string{
			"MYSQL_ROOT_PASSWORD": cfg.DBPassword,
			"MYSQL_DATABASE":      cfg.DBDatabase,
			"MYSQL_USER":          cfg.DBUser,
			"MYSQL_PASSWORD":      cfg.DBPassword,
		}, "3306", readyLog{"ready for connections", 2}, nil
	}
	return nil, "", readyLog{}, fmt.Errorf("no container image support for %s", cfg.DBType)
}
