package pokemon

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/config"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/flight"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"golang.org/x/sync/singleflight"
)

// fetchGroup 合并不同订阅对同一只宝可梦的并发聚合抓取。
// 重试预算是每个订阅私有的状态，但网络抓取本身绝不重复，
// 也绝不随某一个订阅者的取消而中止(见pkg/flight)。
var fetchGroup singleflight.Group

func retryBudget() int {
	if config.Cfg != nil && config.Cfg.Remote.RetryBudget > 0 {
		return config.Cfg.Remote.RetryBudget
	}
	return 3
}

// WatchPokemonByName 是"按名称取单只宝可梦"的同步订阅入口。
// 缓存优先: 联接结果存在即下发；缺失时在重试预算内触发聚合补取，
// 写入会经由存储的变更信号自动引发下一次发射。
func WatchPokemonByName(ctx context.Context, name string) <-chan stream.Result[*Detail] {
	return watchDetail(ctx, ObserveDetailByName(ctx, name), "pokemon:"+name,
		fmt.Sprintf("宝可梦 %q", name),
		func(ctx context.Context, c *remote.Client) (*remote.PokemonBundle, error) {
			return c.FetchPokemonByName(ctx, name)
		})
}

// WatchPokemonByID 是"按远程id取单只宝可梦"的同步订阅入口。
func WatchPokemonByID(ctx context.Context, id int) <-chan stream.Result[*Detail] {
	key := strconv.Itoa(id)
	return watchDetail(ctx, ObserveDetailByID(ctx, id), "pokemon:id:"+key,
		"宝可梦 #"+key,
		func(ctx context.Context, c *remote.Client) (*remote.PokemonBundle, error) {
			return c.FetchPokemonByID(ctx, id)
		})
}

// WatchPokemonBySpeciesName 是"按物种名取其默认形态"的同步订阅入口。
func WatchPokemonBySpeciesName(ctx context.Context, speciesName string) <-chan stream.Result[*Detail] {
	return watchDetail(ctx, ObserveDetailBySpeciesName(ctx, speciesName), "pokemon:species:"+speciesName,
		fmt.Sprintf("物种 %q 的宝可梦", speciesName),
		func(ctx context.Context, c *remote.Client) (*remote.PokemonBundle, error) {
			return c.FetchPokemonBySpeciesName(ctx, speciesName)
		})
}

func watchDetail(
	ctx context.Context,
	obs <-chan stream.Emission[*Detail],
	flightKey, describe string,
	fetch func(context.Context, *remote.Client) (*remote.PokemonBundle, error),
) <-chan stream.Result[*Detail] {
	out := make(chan stream.Result[*Detail])
	go stream.RunSync(ctx, out, stream.SyncSpec[*Detail]{
		Observe:  obs,
		Complete: func(d *Detail) bool { return d != nil },
		Refresh: func(ctx context.Context) error {
			_, err := flight.Do(ctx, &fetchGroup, flightKey, func(ctx context.Context) (any, error) {
				bundle, err := fetch(ctx, remote.DefaultClient())
				if err != nil {
					return nil, err
				}
				return nil, SaveBundle(ctx, bundle)
			})
			return err
		},
		Transient: remote.IsTransient,
		Budget:    retryBudget(),
		Describe:  describe,
	})
	return out
}
