package pokemon

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/pokedex-cache-backend/internal/generation"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowNames(rows []Pokemon) []string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names
}

// waitForMembers 读取合并流，直到出现满足谓词的Success发射。
func waitForMembers(t *testing.T, ch <-chan stream.Result[[]Pokemon], accept func([]Pokemon) bool) []Pokemon {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r, ok := <-ch:
			require.True(t, ok, "合并流不应提前关闭")
			require.NotEqual(t, stream.StateError, r.State, "不期望的错误发射: %v", r.Err)
			if r.State == stream.StateSuccess && accept(r.Value) {
				return r.Value
			}
		case <-deadline:
			t.Fatal("等待成员发射超时")
			return nil
		}
	}
}

func TestWatchPokemonOfGenerationServesLocalThenReconciles(t *testing.T) {
	setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 本地预置世代与一个成员
	require.NoError(t, generation.SaveGeneration(ctx, &remote.GenerationRecord{
		Index: 1, Name: "generation-i", Members: []string{"bulbasaur", "pikachu"},
	}))
	require.NoError(t, SaveBundle(ctx, bulbasaurBundle()))

	// 远程名单比本地多一个成员pikachu
	routes := pokemonRoutes("pikachu", 25, "electric")
	routes["/generation/generation-i"] = `{
		"id": 1, "name": "generation-i",
		"pokemon_species": [{"name": "bulbasaur"}, {"name": "pikachu"}]
	}`
	setupFakeCatalog(t, routes)

	ch := WatchPokemonOfGeneration(ctx, "generation-i")

	// 已缓存的成员立即可见，不等待在途的对账
	first := waitForMembers(t, ch, func(rows []Pokemon) bool { return len(rows) >= 1 })
	assert.Contains(t, rowNames(first), "bulbasaur")

	// 对账补齐缺失成员后，联接流反应式地下发完整名单
	full := waitForMembers(t, ch, func(rows []Pokemon) bool { return len(rows) == 2 })
	assert.Equal(t, []string{"bulbasaur", "pikachu"}, rowNames(full))
}

func TestWatchPokemonOfGenerationUnknownOwnerStartsLoading(t *testing.T) {
	setupTestDB(t)
	routes := pokemonRoutes("pikachu", 25, "electric")
	routes["/generation/generation-i"] = `{
		"id": 1, "name": "generation-i",
		"pokemon_species": [{"name": "pikachu"}]
	}`
	setupFakeCatalog(t, routes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := WatchPokemonOfGeneration(ctx, "generation-i")

	// 属主行未知时先处于加载态
	r := recvPokemonResult(t, ch)
	assert.Equal(t, stream.StateLoading, r.State)

	full := waitForMembers(t, ch, func(rows []Pokemon) bool { return len(rows) == 1 })
	assert.Equal(t, []string{"pikachu"}, rowNames(full))
}

func TestWatchPokemonOfGenerationReconcileFailureSurfaces(t *testing.T) {
	setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, generation.SaveGeneration(ctx, &remote.GenerationRecord{
		Index: 1, Name: "generation-i", Members: []string{"bulbasaur"},
	}))
	require.NoError(t, SaveBundle(ctx, bulbasaurBundle()))

	// 远程不可达: 对账失败，但本地结果仍然先行可见
	setupFakeCatalog(t, map[string]string{})

	ch := WatchPokemonOfGeneration(ctx, "generation-i")

	sawLocal := false
	sawError := false
	deadline := time.After(5 * time.Second)
	for !(sawLocal && sawError) {
		select {
		case r, ok := <-ch:
			require.True(t, ok)
			switch r.State {
			case stream.StateSuccess:
				if len(r.Value) == 1 {
					sawLocal = true
				}
			case stream.StateError:
				assert.True(t, remote.IsNotFound(r.Err))
				sawError = true
			}
		case <-deadline:
			t.Fatalf("未等到预期发射 (本地=%v 错误=%v)", sawLocal, sawError)
		}
	}
}

func TestWatchPokemonOfTypeServesLocalThenReconciles(t *testing.T) {
	setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, SaveBundle(ctx, bulbasaurBundle()))

	// 属性资源的成员名单给出宝可梦名: bulbasaur已入库，pikachu缺失
	routes := pokemonRoutes("pikachu", 25, "electric")
	routes["/type/grass"] = `{
		"name": "grass",
		"damage_relations": {
			"double_damage_to": [], "double_damage_from": [],
			"half_damage_to": [], "half_damage_from": [],
			"no_damage_to": [], "no_damage_from": []
		},
		"pokemon": [{"pokemon": {"name": "bulbasaur"}}, {"pokemon": {"name": "pikachu"}}]
	}`
	setupFakeCatalog(t, routes)

	ch := WatchPokemonOfType(ctx, "grass")

	first := waitForMembers(t, ch, func(rows []Pokemon) bool { return len(rows) >= 1 })
	assert.Contains(t, rowNames(first), "bulbasaur")

	full := waitForMembers(t, ch, func(rows []Pokemon) bool { return len(rows) == 2 })
	assert.Equal(t, []string{"bulbasaur", "pikachu"}, rowNames(full))
}
