package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/brainpal/brainpal-backend/internal/store"
	"github.com/brainpal/brainpal-backend/internal/store/storetest"
	"github.com/brainpal/brainpal-backend/internal/store/sqlstore"
)

// resolveDSN prefers an externally provided database and falls back to a
// throwaway container. Set BRAINPAL_TEST_SHORT to skip entirely.
func resolveDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("BRAINPAL_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	if os.Getenv("BRAINPAL_TEST_SHORT") != "" || testing.Short() {
		t.Skip("skipping postgres integration test")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "brainpal",
				"POSTGRES_PASSWORD": "brainpal",
				"POSTGRES_DB":       "brainpal_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("cannot start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("postgres://brainpal:brainpal@%s:%s/brainpal_test?sslmode=disable", host, port.Port())
}

func makePGStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	db, err := OpenDB(ctx, resolveDSN(t))
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// Fresh tables per subtest so the suite sees an empty store.
	for _, table := range []string{"users", "analyses", "tasks", "ledger_entries", "transactions", "reminders", "prompts"} {
		_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
	}
	if err := sqlstore.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return NewWithDB(db)
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}
