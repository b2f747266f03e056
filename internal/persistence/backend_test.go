package persistence

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/concierge-portal/internal/config"
)

func newRedisBackendTest(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := NewRedisFromClient(rdb, "portal:")
	t.Cleanup(func() {
		backend.Close()
		mr.Close()
	})
	return backend, mr
}

func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := backend.GetItem(ctx, "token"); err != nil || ok {
		t.Fatalf("expected absent item, got ok=%v err=%v", ok, err)
	}
	if err := backend.SetItem(ctx, "token", "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := backend.SetItem(ctx, "token", "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	val, ok, err := backend.GetItem(ctx, "token")
	if err != nil || !ok || val != "second" {
		t.Fatalf("expected overwritten value, got %q ok=%v err=%v", val, ok, err)
	}
	if err := backend.RemoveItem(ctx, "token"); err != nil {
		t.Fatalf("first remove: %v", err)
	}
	if err := backend.RemoveItem(ctx, "token"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if _, ok, _ := backend.GetItem(ctx, "token"); ok {
		t.Fatal("expected item to be removed")
	}
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestRedisBackend(t *testing.T) {
	backend, mr := newRedisBackendTest(t)
	exerciseBackend(t, backend)

	if err := backend.SetItem(context.Background(), ScopedKey("v1", "token"), "abc"); err != nil {
		t.Fatalf("set scoped: %v", err)
	}
	got, err := mr.Get("portal:v1:token")
	if err != nil || got != "abc" {
		t.Fatalf("expected prefixed key in redis, got %q err=%v", got, err)
	}
	if err := backend.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestRedisBackendSurfacesConnectionErrors(t *testing.T) {
	backend, mr := newRedisBackendTest(t)
	mr.Close()
	if _, _, err := backend.GetItem(context.Background(), "token"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	logger := zap.NewNop()
	pg, err := NewPostgres(ctx, config.PostgresConfig{DSN: dsn}, logger)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pg.Close()
	if err := RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	exerciseBackend(t, pg)
}

func TestPostgresWithoutPoolFails(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := pg.GetItem(context.Background(), "token"); err == nil {
		t.Fatal("expected error without pool")
	}
	if err := pg.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error without pool")
	}
}

func TestMigrationNamesSorted(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) == 0 || names[0] != "0001_local_storage.sql" {
		t.Fatalf("unexpected migrations %v", names)
	}
}

func TestScopedKey(t *testing.T) {
	if ScopedKey("", "token") != "token" {
		t.Fatal("empty namespace must leave key unchanged")
	}
	if ScopedKey("abc", "token") != "abc:token" {
		t.Fatal("unexpected scoped key")
	}
}
