package pokemon

import (
	"context"
	"fmt"

	"github.com/SlpAus/pokedex-cache-backend/internal/generation"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/ptype"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/flight"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
)

// 本文件实现成员列表查询的双流协议:
// (i) 一条一次性的远程对账流，抓取权威成员名单、与本地差集、
//     逐个补取缺失成员；
// (ii) 一条持续的本地联接观察流。
// 两条流扇入同一个下游(合并而非组合): 下游按到达顺序看到每次发射，
// 本地已缓存的成员立即可见，不会被在途的网络工作阻塞。

// memberSnapshot 是成员联接观察的单次快照。
// Known表示属主行(世代/属性)已在本地登记，即成员名单已知。
type memberSnapshot struct {
	Rows  []Pokemon
	Known bool
}

// WatchPokemonOfGeneration 返回某世代成员的合并订阅流。
func WatchPokemonOfGeneration(ctx context.Context, generationName string) <-chan stream.Result[[]Pokemon] {
	topics := []string{database.TopicPokemon, database.TopicGenerations, database.TopicGenerationPokemons}
	obs := stream.Watch(ctx, database.Changes, topics, func(ctx context.Context) (memberSnapshot, error) {
		owner, err := generation.GetGenerationByName(generationName)
		if err != nil {
			return memberSnapshot{}, err
		}
		rows, err := ListByGeneration(generationName)
		if err != nil {
			return memberSnapshot{}, err
		}
		return memberSnapshot{Rows: rows, Known: owner != nil}, nil
	})

	local := localMemberStream(ctx, obs, fmt.Sprintf("世代 %q 的成员", generationName))
	recon := reconcileStream(ctx, func(ctx context.Context) error {
		return reconcileGeneration(ctx, generationName)
	})
	return stream.Merge(ctx, local, recon)
}

// WatchPokemonOfType 返回某属性成员的合并订阅流。
func WatchPokemonOfType(ctx context.Context, typeName string) <-chan stream.Result[[]Pokemon] {
	topics := []string{database.TopicPokemon, database.TopicTypes, database.TopicPokemonTypes}
	obs := stream.Watch(ctx, database.Changes, topics, func(ctx context.Context) (memberSnapshot, error) {
		owner, err := ptype.GetTypeByName(typeName)
		if err != nil {
			return memberSnapshot{}, err
		}
		rows, err := ListByType(typeName)
		if err != nil {
			return memberSnapshot{}, err
		}
		return memberSnapshot{Rows: rows, Known: owner != nil}, nil
	})

	local := localMemberStream(ctx, obs, fmt.Sprintf("属性 %q 的成员", typeName))
	recon := reconcileStream(ctx, func(ctx context.Context) error {
		return reconcileType(ctx, typeName)
	})
	return stream.Merge(ctx, local, recon)
}

// localMemberStream 把本地联接观察转写为三态发射。
// 已缓存的成员(哪怕只是名单的一部分)立即以Success下发；
// 属主行和成员都尚不存在时处于Loading。
func localMemberStream(ctx context.Context, obs <-chan stream.Emission[memberSnapshot], describe string) <-chan stream.Result[[]Pokemon] {
	out := make(chan stream.Result[[]Pokemon])
	go func() {
		defer close(out)
		for {
			select {
			case em, ok := <-obs:
				if !ok {
					return
				}
				var r stream.Result[[]Pokemon]
				switch {
				case em.Err != nil:
					r = stream.Failure[[]Pokemon](fmt.Errorf("本地缓存查询%s失败: %w", describe, em.Err))
				case len(em.Value.Rows) == 0 && !em.Value.Known:
					r = stream.Loading[[]Pokemon]()
				default:
					r = stream.Success(em.Value.Rows)
				}
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
				if r.State == stream.StateError {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// reconcileStream 把一次性对账包装为只在失败时发射的流。
// 对账成功时它静默关闭: 数据本身经由本地观察流到达下游。
func reconcileStream(ctx context.Context, reconcile func(context.Context) error) <-chan stream.Result[[]Pokemon] {
	out := make(chan stream.Result[[]Pokemon])
	go func() {
		defer close(out)
		if err := reconcile(ctx); err != nil {
			select {
			case out <- stream.Failure[[]Pokemon](err):
			case <-ctx.Done():
			}
		}
	}()
	return out
}

// reconcileGeneration 执行世代成员的一次性对账:
// 权威名单 -> 差集 -> 逐个抓取缺失成员并入库。
func reconcileGeneration(ctx context.Context, generationName string) error {
	_, err := flight.Do(ctx, &fetchGroup, "reconcile:generation:"+generationName, func(ctx context.Context) (any, error) {
		client := remote.DefaultClient()

		record, err := client.FetchGenerationByName(ctx, generationName)
		if err != nil {
			return nil, err
		}
		if err := generation.SaveGeneration(ctx, record); err != nil {
			return nil, err
		}

		present, err := LocalNames()
		if err != nil {
			return nil, fmt.Errorf("无法读取本地宝可梦名集合: %w", err)
		}

		// 按名单顺序逐个补取，每只入库立即对下游可见
		for _, member := range record.Members {
			if present[member] {
				continue
			}
			bundle, err := client.FetchPokemonBySpeciesName(ctx, member)
			if err != nil {
				return nil, err
			}
			if err := SaveBundle(ctx, bundle); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// reconcileType 执行属性成员的一次性对账。
// 属性资源的成员名单给出的是宝可梦名而不是物种名。
func reconcileType(ctx context.Context, typeName string) error {
	_, err := flight.Do(ctx, &fetchGroup, "reconcile:type:"+typeName, func(ctx context.Context) (any, error) {
		client := remote.DefaultClient()

		record, err := client.FetchTypeByName(ctx, typeName)
		if err != nil {
			return nil, err
		}
		if err := ptype.SaveType(ctx, record); err != nil {
			return nil, err
		}

		present, err := LocalNames()
		if err != nil {
			return nil, fmt.Errorf("无法读取本地宝可梦名集合: %w", err)
		}

		for _, member := range record.PokemonNames {
			if present[member] {
				continue
			}
			bundle, err := client.FetchPokemonByName(ctx, member)
			if err != nil {
				return nil, err
			}
			if err := SaveBundle(ctx, bundle); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// PrefetchGeneration 把一个世代的全部成员预取入库，供预热工具使用。
func PrefetchGeneration(ctx context.Context, generationName string) error {
	return reconcileGeneration(ctx, generationName)
}

// PrefetchType 把一个属性的全部成员预取入库，供预热工具使用。
func PrefetchType(ctx context.Context, typeName string) error {
	return reconcileType(ctx, typeName)
}
