package stream

import "context"

// MapResult 把一条流的成功值逐个映射为另一种类型。
// Loading和Error发射原样透传，顺序保持不变。
func MapResult[T, U any](ctx context.Context, in <-chan Result[T], f func(T) U) <-chan Result[U] {
	out := make(chan Result[U])
	go func() {
		defer close(out)
		for {
			select {
			case r, ok := <-in:
				if !ok {
					return
				}
				var mapped Result[U]
				switch r.State {
				case StateSuccess:
					mapped = Success(f(r.Value))
				case StateError:
					mapped = Failure[U](r.Err)
				default:
					mapped = Loading[U]()
				}
				select {
				case out <- mapped:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
