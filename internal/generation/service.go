package generation

import (
	"context"
	"fmt"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/config"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/metadata"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/flight"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// fetchGroup 合并不同订阅对同一份远程数据的并发补取。
// 共享的补取不随某一个订阅者的取消而中止(见pkg/flight)。
var fetchGroup singleflight.Group

func retryBudget() int {
	if config.Cfg != nil && config.Cfg.Remote.RetryBudget > 0 {
		return config.Cfg.Remote.RetryBudget
	}
	return 3
}

func reconcileConcurrency() int {
	if config.Cfg != nil && config.Cfg.Remote.ReconcileConcurrency > 0 {
		return config.Cfg.Remote.ReconcileConcurrency
	}
	return 4
}

// WatchAllGenerations 是"全部世代"的同步订阅入口。
func WatchAllGenerations(ctx context.Context) <-chan stream.Result[[]Generation] {
	out := make(chan stream.Result[ListSnapshot])
	go stream.RunSync(ctx, out, stream.SyncSpec[ListSnapshot]{
		Observe: ObserveAllGenerations(ctx),
		Complete: func(s ListSnapshot) bool {
			return s.Overview != nil && len(s.Generations) == s.Overview.Count
		},
		Refresh:   refreshAllGenerations,
		Transient: remote.IsTransient,
		Budget:    retryBudget(),
		Describe:  "世代列表",
	})
	return stream.MapResult(ctx, out, func(s ListSnapshot) []Generation { return s.Generations })
}

// WatchGenerationByName 是"按名称取单个世代"的同步订阅入口。
func WatchGenerationByName(ctx context.Context, name string) <-chan stream.Result[*Generation] {
	return watchGeneration(ctx, ObserveGenerationByName(ctx, name), func(ctx context.Context) error {
		return refreshGeneration(ctx, name, func(ctx context.Context, c *remote.Client) (*remote.GenerationRecord, error) {
			return c.FetchGenerationByName(ctx, name)
		})
	}, fmt.Sprintf("世代 %q", name))
}

// WatchGenerationByIndex 是"按序号取单个世代"的同步订阅入口。
func WatchGenerationByIndex(ctx context.Context, index int) <-chan stream.Result[*Generation] {
	key := fmt.Sprintf("%d", index)
	return watchGeneration(ctx, ObserveGenerationByIndex(ctx, index), func(ctx context.Context) error {
		return refreshGeneration(ctx, key, func(ctx context.Context, c *remote.Client) (*remote.GenerationRecord, error) {
			return c.FetchGenerationByID(ctx, index)
		})
	}, "世代 #"+key)
}

func watchGeneration(ctx context.Context, obs <-chan stream.Emission[*Generation], refresh func(context.Context) error, describe string) <-chan stream.Result[*Generation] {
	out := make(chan stream.Result[*Generation])
	go stream.RunSync(ctx, out, stream.SyncSpec[*Generation]{
		Observe:   obs,
		Complete:  func(g *Generation) bool { return g != nil },
		Refresh:   refresh,
		Transient: remote.IsTransient,
		Budget:    retryBudget(),
		Describe:  describe,
	})
	return out
}

// refreshGeneration 补取单个世代。概览行缺失时先抓取概览列表。
func refreshGeneration(ctx context.Context, key string, fetch func(context.Context, *remote.Client) (*remote.GenerationRecord, error)) error {
	_, err := flight.Do(ctx, &fetchGroup, "generation:"+key, func(ctx context.Context) (any, error) {
		client := remote.DefaultClient()

		overview, err := GetOverview()
		if err != nil {
			return nil, err
		}
		if overview == nil {
			names, err := client.FetchGenerations(ctx)
			if err != nil {
				return nil, err
			}
			if err := SaveOverview(ctx, names); err != nil {
				return nil, err
			}
		}

		record, err := fetch(ctx, client)
		if err != nil {
			return nil, err
		}
		return nil, SaveGeneration(ctx, record)
	})
	return err
}

// refreshAllGenerations 是世代家族的批量填充路径:
// 先刷新概览，再并发补取本地缺失的每个世代详情。
func refreshAllGenerations(ctx context.Context) error {
	_, err := flight.Do(ctx, &fetchGroup, "generations:all", func(ctx context.Context) (any, error) {
		client := remote.DefaultClient()

		names, err := client.FetchGenerations(ctx)
		if err != nil {
			return nil, err
		}
		if err := SaveOverview(ctx, names); err != nil {
			return nil, err
		}

		var existing []string
		if err := database.DB.Model(&Generation{}).Pluck("name", &existing).Error; err != nil {
			return nil, fmt.Errorf("无法读取本地世代名集合: %w", err)
		}
		present := make(map[string]bool, len(existing))
		for _, n := range existing {
			present[n] = true
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(reconcileConcurrency())
		for _, name := range names {
			if present[name] {
				continue
			}
			name := name
			g.Go(func() error {
				record, err := client.FetchGenerationByName(gctx, name)
				if err != nil {
					return err
				}
				return SaveGeneration(gctx, record)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if err := metadata.MarkSyncTime(database.DB, metadata.LastGenerationOverviewSyncKey); err != nil {
			fmt.Printf("警告: 记录世代概览同步时间失败: %v\n", err)
		}
		return nil, nil
	})
	return err
}
