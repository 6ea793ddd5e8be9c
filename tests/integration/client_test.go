package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/splitsio/go-splitsio/internal/testutil"
	"github.com/splitsio/go-splitsio/pkg/cache"
	"github.com/splitsio/go-splitsio/pkg/client"
	"github.com/splitsio/go-splitsio/pkg/paginate"
	"github.com/splitsio/go-splitsio/pkg/splitsio"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

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
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newCachingClient(t *testing.T, api *testutil.MockAPI, redisClient *redis.Client) *client.Client {
	t.Helper()

	c, err := client.New(client.Config{
		BaseURL:   api.URL() + "/",
		UserAgent: "integration-test/1.0",
		Redis:     redisClient,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

// TestFullRequestFlow tests the complete request flow:
// cache miss, upstream fetch, cache store, then a cache hit.
func TestFullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	api := testutil.NewMockAPI()
	defer api.Close()
	api.HandleJSON("/games/sms", `{"game":{"id":"9","name":"Super Mario Sunshine"}}`)

	c := newCachingClient(t, api, redisClient)
	ctx := context.Background()

	_, body1, err := c.Get(ctx, "games/sms")
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}
	if api.Requests() != 1 {
		t.Errorf("After request 1: upstream requests = %d, want 1", api.Requests())
	}

	_, body2, err := c.Get(ctx, "games/sms")
	if err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	if api.Requests() != 1 {
		t.Errorf("After request 2: upstream requests = %d, want 1 (cache hit)", api.Requests())
	}
	if string(body1) != string(body2) {
		t.Errorf("Cached body = %s, want %s", body2, body1)
	}
}

// TestPaginatedFlowThroughCache walks a paginated collection twice. The
// second walk must be served entirely from the cache, including the
// pagination headers the sequence is built from.
func TestPaginatedFlowThroughCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	api := testutil.NewMockAPI()
	defer api.Close()

	items := make([]string, 60)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"run-%d"}`, i)
	}
	api.HandleCollection("/games/sms/runs", "runs", items, 25)

	c := newCachingClient(t, api, redisClient)
	ctx := context.Background()

	seq, err := splitsio.Query[splitsio.Run](ctx, c, "games/sms/runs")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	runs, err := paginate.All(ctx, seq)
	if err != nil {
		t.Fatalf("First walk failed: %v", err)
	}
	if len(runs) != 60 {
		t.Fatalf("len(runs) = %d, want 60", len(runs))
	}

	// Initial response plus pages 2 and 3 (page 1 is primed).
	firstPass := api.Requests()
	if firstPass != 3 {
		t.Errorf("First walk upstream requests = %d, want 3", firstPass)
	}

	seq2, err := splitsio.Query[splitsio.Run](ctx, c, "games/sms/runs")
	if err != nil {
		t.Fatalf("Second query failed: %v", err)
	}
	runs2, err := paginate.All(ctx, seq2)
	if err != nil {
		t.Fatalf("Second walk failed: %v", err)
	}
	if len(runs2) != 60 {
		t.Fatalf("len(runs2) = %d, want 60", len(runs2))
	}
	if api.Requests() != firstPass {
		t.Errorf("Second walk upstream requests = %d, want %d (all cached)",
			api.Requests(), firstPass)
	}
	if runs2[59].ID != "run-59" {
		t.Errorf("runs2[59].ID = %q, want run-59", runs2[59].ID)
	}
}

// TestErrorsNotCached verifies failed responses always reach upstream.
func TestErrorsNotCached(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	api := testutil.NewMockAPI()
	defer api.Close()

	c := newCachingClient(t, api, redisClient)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		_, _, err := c.Get(ctx, "games/missing")
		var apiErr *client.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			t.Fatalf("Request %d error = %v, want 404 APIError", i, err)
		}
		if api.Requests() != i {
			t.Errorf("After request %d: upstream requests = %d, want %d", i, api.Requests(), i)
		}
	}
}

// TestPrimedCacheServedWithoutUpstream seeds the cache directly and
// verifies the client never contacts upstream for that endpoint.
func TestPrimedCacheServedWithoutUpstream(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	api := testutil.NewMockAPI()
	defer api.Close()

	manager := cache.NewManager(redisClient)
	ctx := context.Background()

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	seeded := []byte(`{"game":{"id":"7","name":"Seeded"}}`)
	entry := cache.NewEntry(http.StatusOK, header, seeded, time.Minute)
	if err := manager.Set(ctx, cache.Key{Endpoint: "games/seeded"}, entry); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	c := newCachingClient(t, api, redisClient)

	_, body, err := c.Get(ctx, "games/seeded")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if string(body) != string(seeded) {
		t.Errorf("body = %s, want seeded payload", body)
	}
	if api.Requests() != 0 {
		t.Errorf("upstream requests = %d, want 0", api.Requests())
	}
}

// TestExpiredEntryRefetched verifies an expired cache entry is treated
// as a miss and the endpoint is fetched again.
func TestExpiredEntryRefetched(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	api := testutil.NewMockAPI()
	defer api.Close()
	api.HandleJSON("/games/sms", `{"game":{"id":"9","name":"Super Mario Sunshine"}}`)

	manager := cache.NewManager(redisClient)
	ctx := context.Background()

	// Seed with a short TTL and let it lapse.
	entry := cache.NewEntry(http.StatusOK, http.Header{}, []byte(`{"game":{"id":"stale"}}`), time.Second)
	if err := manager.Set(ctx, cache.Key{Endpoint: "games/sms"}, entry); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)

	if _, err := manager.Get(ctx, cache.Key{Endpoint: "games/sms"}); err != cache.ErrCacheMiss {
		t.Fatalf("Get after expiry = %v, want ErrCacheMiss", err)
	}

	c := newCachingClient(t, api, redisClient)
	_, body, err := c.Get(ctx, "games/sms")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if api.Requests() != 1 {
		t.Errorf("upstream requests = %d, want 1 (expired entry refetched)", api.Requests())
	}
	if string(body) == `{"game":{"id":"stale"}}` {
		t.Error("stale entry served after expiry")
	}
}
