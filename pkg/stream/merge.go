package stream

import (
	"context"
	"sync"
)

// Merge 将多个独立的生产者扇入为一条下游流。
// 每次发射按"先写者先到"转发，不同来源之间不保证任何顺序，
// 也绝不会为了等待某个来源而阻塞另一个来源的发射。
// 当所有来源都关闭、或ctx被取消时，输出channel关闭。
func Merge[T any](ctx context.Context, sources ...<-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])
	var wg sync.WaitGroup

	for _, src := range sources {
		wg.Add(1)
		go func(src <-chan Result[T]) {
			defer wg.Done()
			for {
				select {
				case r, ok := <-src:
					if !ok {
						return
					}
					select {
					case out <- r:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(src)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// First 阻塞等待流中第一个终态发射(Success或Error)并返回它。
// Loading发射被跳过。用于将订阅流折叠为一次性的请求/响应调用。
func First[T any](ctx context.Context, ch <-chan Result[T]) (Result[T], bool) {
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return Result[T]{}, false
			}
			if r.State == StateSuccess || r.State == StateError {
				return r, true
			}
		case <-ctx.Done():
			return Result[T]{}, false
		}
	}
}
