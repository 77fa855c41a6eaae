package ptype

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
// 重试计数是每个订阅私有的，但网络调用本身不应该重复，
// 共享的补取也不随某一个订阅者的取消而中止(见pkg/flight)。
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

// WatchAllTypes 是"全部属性"的同步订阅入口。
// 缓存优先: 概览行存在且行数与期望一致时直接下发；
// 否则在重试预算内触发远程补取，由存储的反应式再发射完成自愈。
func WatchAllTypes(ctx context.Context) <-chan stream.Result[[]Type] {
	out := make(chan stream.Result[ListSnapshot])
	go stream.RunSync(ctx, out, stream.SyncSpec[ListSnapshot]{
		Observe: ObserveAllTypes(ctx),
		Complete: func(s ListSnapshot) bool {
			// 概览缺失一律视为不完整；期望数为0的空结果是合法的完整结果
			return s.Overview != nil && len(s.Types) == s.Overview.Count
		},
		Refresh:   refreshAllTypes,
		Transient: remote.IsTransient,
		Budget:    retryBudget(),
		Describe:  "属性列表",
	})
	return stream.MapResult(ctx, out, func(s ListSnapshot) []Type { return s.Types })
}

// WatchTypeByName 是"按名称取单个属性"的同步订阅入口。
func WatchTypeByName(ctx context.Context, name string) <-chan stream.Result[*Type] {
	out := make(chan stream.Result[*Type])
	go stream.RunSync(ctx, out, stream.SyncSpec[*Type]{
		Observe:  ObserveTypeByName(ctx, name),
		Complete: func(t *Type) bool { return t != nil },
		Refresh: func(ctx context.Context) error {
			return refreshType(ctx, name)
		},
		Transient: remote.IsTransient,
		Budget:    retryBudget(),
		Describe:  fmt.Sprintf("属性 %q", name),
	})
	return out
}

// refreshType 补取单个属性。
// 概览行缺失时先抓取概览列表，保证完整性判据与详情同源。
func refreshType(ctx context.Context, name string) error {
	_, err := flight.Do(ctx, &fetchGroup, "type:"+name, func(ctx context.Context) (any, error) {
		client := remote.DefaultClient()

		overview, err := GetOverview()
		if err != nil {
			return nil, err
		}
		if overview == nil {
			names, err := client.FetchTypes(ctx)
			if err != nil {
				return nil, err
			}
			if err := SaveOverview(ctx, names); err != nil {
				return nil, err
			}
		}

		record, err := client.FetchTypeByName(ctx, name)
		if err != nil {
			return nil, err
		}
		return nil, SaveType(ctx, record)
	})
	return err
}

// refreshAllTypes 是"抓取列表中的一切"批量填充路径:
// 先刷新概览，再并发补取本地缺失的每个属性详情。
func refreshAllTypes(ctx context.Context) error {
	_, err := flight.Do(ctx, &fetchGroup, "types:all", func(ctx context.Context) (any, error) {
		client := remote.DefaultClient()

		names, err := client.FetchTypes(ctx)
		if err != nil {
			return nil, err
		}
		if err := SaveOverview(ctx, names); err != nil {
			return nil, err
		}

		// 找出本地尚未入库的属性名
		var existing []string
		if err := database.DB.Model(&Type{}).Pluck("name", &existing).Error; err != nil {
			return nil, fmt.Errorf("无法读取本地属性名集合: %w", err)
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
				record, err := client.FetchTypeByName(gctx, name)
				if err != nil {
					return err
				}
				return SaveType(gctx, record)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if err := metadata.MarkSyncTime(database.DB, metadata.LastTypeOverviewSyncKey); err != nil {
			fmt.Printf("警告: 记录属性概览同步时间失败: %v\n", err)
		}
		return nil, nil
	})
	return err
}
