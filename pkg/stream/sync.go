package stream

import (
	"context"
	"errors"
	"fmt"
)

// ErrExhausted 是重试预算耗尽时的哨兵错误。
// 它将"远程数据反复补取后缓存仍不完整"与"数据真的不存在"区分开来。
var ErrExhausted = errors.New("重试预算已用尽，缓存仍不完整")

// SyncSpec 描述一次缓存优先、按需自愈的同步订阅。
// 每个实体家族的同步协调器用同一套协议，只是参数不同。
type SyncSpec[T any] struct {
	// Observe 是本地存储的持续观察流(见Watch)
	Observe <-chan Emission[T]
	// Complete 是完整性判定: 为true时本次发射可以直接下发
	Complete func(value T) bool
	// Refresh 触发一次远程聚合补取并把结果写入本地存储。
	// 写入会通过变更信号自动引发Observe的下一次发射。
	Refresh func(ctx context.Context) error
	// Transient 判断Refresh的错误是否属于可重试类别
	// (网络错误/畸形响应)。未找到等终态错误立即终止订阅。
	Transient func(err error) bool
	// Budget 是本订阅允许的远程补取总次数
	Budget int
	// Describe 用于错误消息，绑定本次查询的标识参数
	Describe string
}

// RunSync 在out上执行缓存-补取-重试协议，直到订阅终止。
// 状态机见各同步协调器的说明: 完整则转发并保持订阅；不完整则
// 在预算内触发补取；补取的终态失败或预算耗尽都以一次显式的
// Error发射终止，绝不异步抛出。
//
// out在返回前被关闭。同一订阅内所有完整性判定串行执行。
func RunSync[T any](ctx context.Context, out chan<- Result[T], spec SyncSpec[T]) {
	defer close(out)

	retries := 0
	delivered := false

	send := func(r Result[T]) bool {
		select {
		case out <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		var em Emission[T]
		var ok bool
		select {
		case em, ok = <-spec.Observe:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}

		// 本地存储自身的查询错误属于不可恢复的程序性错误
		if em.Err != nil {
			send(Failure[T](fmt.Errorf("本地缓存查询 %s 失败: %w", spec.Describe, em.Err)))
			return
		}

		if spec.Complete(em.Value) {
			if !send(Success(em.Value)) {
				return
			}
			delivered = true
			continue
		}

		// 缓存不完整: 在预算内补取，补取成功后等待存储的反应式再发射
		if !delivered {
			if !send(Loading[T]()) {
				return
			}
		}
		for {
			if retries >= spec.Budget {
				send(Failure[T](fmt.Errorf("%s: %w", spec.Describe, ErrExhausted)))
				return
			}
			retries++

			err := spec.Refresh(ctx)
			if err == nil {
				break
			}
			if !spec.Transient(err) {
				// 未找到等终态错误不参与重试
				send(Failure[T](err))
				return
			}
			if retries < spec.Budget {
				// 瞬时失败，消耗预算后直接再试
				continue
			}
			send(Failure[T](fmt.Errorf("%s: %w: %w", spec.Describe, ErrExhausted, err)))
			return
		}
	}
}
