package flight

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// 本包把singleflight的执行与任何单个调用者的生命周期解耦。
// 直接把订阅者的ctx交给group.Do会让整次共享执行随首个进入者的
// 取消而中止，其余等待者会收到一个不属于任何领域类别的取消错误。
// 这里的协议是: 共享执行在剥离了取消信号的上下文里运行(超时仍由
// HTTP客户端自身约束)，每个等待者只用自己的ctx决定是否继续等待。

// Do 以key在group上合并执行fn。
// fn收到的上下文保留调用者的值但不随调用者取消；调用者取消时
// 只停止等待并返回自己的ctx错误，共享执行对其他等待者照常完成。
func Do[T any](ctx context.Context, g *singleflight.Group, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	detached := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		val, _ := res.Val.(T)
		return val, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
