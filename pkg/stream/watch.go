package stream

import "context"

// Watch 围绕一个查询函数建立持续观察。
// 它立即执行一次查询并发射结果，之后每当任一主题收到变更信号时
// 重新执行查询并再次发射。发射严格有序: 同一个观察内不存在并发查询。
// 当ctx被取消时，channel被关闭，订阅注销。
//
// 查询函数只应读取本地存储，绝不触网。
func Watch[T any](ctx context.Context, h *Hub, topics []string, query func(ctx context.Context) (T, error)) <-chan Emission[T] {
	out := make(chan Emission[T])
	// 先订阅再查询，保证查询与首个信号之间没有变更丢失窗口
	sig := h.Subscribe(topics...)

	go func() {
		defer close(out)
		defer sig.Close()

		for {
			value, err := query(ctx)
			select {
			case out <- Emission[T]{Value: value, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-sig.C:
				// 有变更信号，重新查询
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
