//go:build integration

// Package redistest starts a shared redis container for repository
// integration tests.
package redistest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// Client returns a client for an empty database on the shared container,
// starting the container on first use.
func Client(tb testing.TB) *redis.Client {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	redisOnce.Do(func() {
		redisAddr, redisErr = startRedisContainer(context.Background())
	})

	if redisErr != nil {
		tb.Fatalf("start redis container: %v", redisErr)
	}

	cl := redis.NewClient(&redis.Options{Addr: redisAddr})
	tb.Cleanup(func() {
		cl.Close()
	})

	require.NoError(tb, cl.FlushDB(context.Background()).Err())

	return cl
}

func startRedisContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve redis host: %w", err)
	}

	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve redis port: %w", err)
	}

	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}
