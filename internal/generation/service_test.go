package generation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/config"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFakeCatalog(t *testing.T, routes map[string]string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}
		body, ok := routes[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	remote.InitClient(config.RemoteConfig{BaseURL: srv.URL, TimeoutSeconds: 5, MaxChainDepth: 8})
}

func recvGenResult[T any](t *testing.T, ch <-chan stream.Result[T]) stream.Result[T] {
	t.Helper()
	select {
	case r, ok := <-ch:
		require.True(t, ok, "订阅流不应提前关闭")
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("等待发射超时")
		return stream.Result[T]{}
	}
}

const kantoJSON = `{
	"id": 1, "name": "generation-i",
	"pokemon_species": [{"name": "bulbasaur"}, {"name": "charmander"}]
}`

func TestWatchGenerationByNameColdCache(t *testing.T) {
	setupTestDB(t)
	setupFakeCatalog(t, map[string]string{
		"/generation/?limit=100":   `{"count": 1, "results": [{"name": "generation-i"}]}`,
		"/generation/generation-i": kantoJSON,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := WatchGenerationByName(ctx, "generation-i")
	r := recvGenResult(t, ch)
	assert.Equal(t, stream.StateLoading, r.State)

	r = recvGenResult(t, ch)
	require.Equal(t, stream.StateSuccess, r.State)
	require.NotNil(t, r.Value)
	assert.Equal(t, 1, r.Value.Index)

	members, err := MemberNames("generation-i")
	require.NoError(t, err)
	assert.Len(t, members, 2, "补取应同时登记成员名单")
}

func TestWatchGenerationByIndexColdCache(t *testing.T) {
	setupTestDB(t)
	setupFakeCatalog(t, map[string]string{
		"/generation/?limit=100": `{"count": 1, "results": [{"name": "generation-i"}]}`,
		"/generation/1":          kantoJSON,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := WatchGenerationByIndex(ctx, 1)
	r := recvGenResult(t, ch) // Loading
	assert.Equal(t, stream.StateLoading, r.State)

	r = recvGenResult(t, ch)
	require.Equal(t, stream.StateSuccess, r.State)
	assert.Equal(t, "generation-i", r.Value.Name)
}

func TestWatchGenerationNotFound(t *testing.T) {
	setupTestDB(t)
	setupFakeCatalog(t, map[string]string{
		"/generation/?limit=100": `{"count": 0, "results": []}`,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := WatchGenerationByName(ctx, "generation-x")
	r := recvGenResult(t, ch) // Loading
	assert.Equal(t, stream.StateLoading, r.State)

	r = recvGenResult(t, ch)
	require.Equal(t, stream.StateError, r.State)
	assert.True(t, remote.IsNotFound(r.Err))
}

func TestWatchAllGenerationsColdCache(t *testing.T) {
	setupTestDB(t)
	setupFakeCatalog(t, map[string]string{
		"/generation/?limit=100": `{"count": 2, "results": [
			{"name": "generation-i"}, {"name": "generation-ii"}
		]}`,
		"/generation/generation-i": kantoJSON,
		"/generation/generation-ii": `{
			"id": 2, "name": "generation-ii",
			"pokemon_species": [{"name": "chikorita"}]
		}`,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := WatchAllGenerations(ctx)
	var r stream.Result[[]Generation]
	for {
		r = recvGenResult(t, ch)
		if r.State != stream.StateLoading {
			break
		}
	}
	require.Equal(t, stream.StateSuccess, r.State)
	require.Len(t, r.Value, 2)
	// 列表按世代序号排序
	assert.Equal(t, "generation-i", r.Value[0].Name)
	assert.Equal(t, "generation-ii", r.Value[1].Name)
}
