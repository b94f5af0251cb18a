package redis_repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mohammad-safakhou/sourcer/models"
	"github.com/mohammad-safakhou/sourcer/repository/redis_repository"
)

func startRedis(t *testing.T, ctx context.Context) (host, port string) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithOccurrence(1).WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("failed to start redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	mapped, err := c.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}
	host, err = c.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	return host, mapped.Port()
}

func TestSearchCacheRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	host, port := startRedis(t, ctx)

	client, err := redis_repository.Conn(ctx, host, port, "", 0, 5*time.Second)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer client.Close()
	cache := redis_repository.NewSearchCache(client)

	if _, ok, err := cache.Get(ctx, "sourcer:test:missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	want := []models.Article{
		{Title: "Jane Doe identified", URL: "https://news.example.com/jane", PublishedAt: "2024-05-01", Source: "serper"},
		{Title: "Cold case update", URL: "https://news.example.com/cold", Source: "newsapi"},
	}
	if err := cache.Set(ctx, "sourcer:test:jane", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := cache.Get(ctx, "sourcer:test:jane")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	ttl, err := client.TTL(ctx, "sourcer:test:jane").Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}
}

func TestConnFailsWithoutServer(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := redis_repository.Conn(ctx, "127.0.0.1", "1", "", 0, 200*time.Millisecond); err == nil {
		t.Fatalf("expected connection error")
	}
}
