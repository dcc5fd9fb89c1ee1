//go:build integration

// Package testutil builds isolated environments for end-to-end tests that run
// the CLI against a real Redis.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/dyluth/frontdesk/internal/config"
	"github.com/dyluth/frontdesk/internal/disk"
	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// E2EEnvironment represents an isolated E2E test environment
type E2EEnvironment struct {
	T          *testing.T
	TmpDir     string
	ConfigPath string
	BaseDir    string
	Hotel      string
	RedisURL   string
	Client     *desk.Client
	Ctx        context.Context
}

// StartRedis runs a Redis container for the test and returns its URL.
func StartRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s:%s", host, port.Port())
}

// SetupE2EEnvironment creates a fully isolated E2E test environment
// with a temp directory, a folder tree, frontdesk.yml and a real Redis.
// FRONTDESK_REDIS_URL points the CLI at the container.
func SetupE2EEnvironment(t *testing.T) *E2EEnvironment {
	ctx := context.Background()
	tmpDir := t.TempDir()
	baseDir := filepath.Join(tmpDir, "records")

	// Unique hotel name with microseconds so parallel runs never share keys
	hotel := fmt.Sprintf("test-e2e-%s", time.Now().Format("20060102-150405-000000"))

	require.NoError(t, disk.New(baseDir).Init(), "Failed to create folder tree")

	configPath := filepath.Join(tmpDir, config.DefaultPath)
	content := fmt.Sprintf(config.Template, strconv.Quote(hotel), strconv.Quote(baseDir))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644), "Failed to write frontdesk.yml")

	redisURL := StartRedis(t)
	t.Setenv("FRONTDESK_REDIS_URL", redisURL)

	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client, err := desk.NewClient(opts, hotel)
	require.NoError(t, err, "Failed to create state client")

	env := &E2EEnvironment{
		T:          t,
		TmpDir:     tmpDir,
		ConfigPath: configPath,
		BaseDir:    baseDir,
		Hotel:      hotel,
		RedisURL:   redisURL,
		Client:     client,
		Ctx:        ctx,
	}
	t.Cleanup(func() {
		env.Client.Close()
	})
	return env
}

// WaitForRoomStatus polls the shared state until room has status (up to 10 seconds)
func (env *E2EEnvironment) WaitForRoomStatus(room int, status desk.RoomStatus) *desk.Room {
	for i := 0; i < 100; i++ {
		state, err := env.Client.LoadState(env.Ctx)
		if err == nil {
			if r := state.FindRoom(room); r != nil && r.Status == status {
				env.T.Logf("✓ Room %d is %s", room, status)
				return r
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	require.Fail(env.T, fmt.Sprintf("Room %d did not become %s within 10 seconds", room, status))
	return nil
}

// WaitForEntries polls a ledger until it holds at least n entries (up to 10 seconds)
func (env *E2EEnvironment) WaitForEntries(coll desk.Collection, n int) []*desk.Entry {
	for i := 0; i < 100; i++ {
		entries, err := env.Client.ListEntries(env.Ctx, coll)
		if err == nil && len(entries) >= n {
			env.T.Logf("✓ Found %d %s entries", len(entries), coll)
			return entries
		}
		time.Sleep(100 * time.Millisecond)
	}

	require.Fail(env.T, fmt.Sprintf("Fewer than %d %s entries after 10 seconds", n, coll))
	return nil
}

// VerifyFileExists checks that a file exists in the folder tree
func (env *E2EEnvironment) VerifyFileExists(rel string) {
	path := filepath.Join(env.BaseDir, filepath.FromSlash(rel))
	_, err := os.Stat(path)
	require.NoError(env.T, err, "File %s does not exist", rel)
	env.T.Logf("✓ File %s exists", rel)
}
