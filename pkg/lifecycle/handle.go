package lifecycle

import (
	"context"
	"time"
)

// Handle 是分发给每个后台服务的生命周期句柄。
// 它由 Manager 创建，服务通过它感知停机信号并上报自己的退出。
type Handle struct {
	ctx context.Context
	// Close 通知Manager其所属的服务已经完成关闭。
	// 应该在服务Goroutine退出前通过 defer 调用。
	Close func()
}

// Ctx 返回句柄内部的上下文，用于传入阻塞操作。
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done 返回一个channel，管理器广播停机信号时该channel关闭。
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Err 在Done()关闭后返回上下文被取消的原因。
func (h *Handle) Err() error {
	return h.ctx.Err()
}

// Sleep 暂停指定时长，若期间收到停机信号则提前返回错误。
// 后台轮询循环中的休眠都应该用它，而不是裸的time.Sleep。
func (h *Handle) Sleep(duration time.Duration) error {
	timer := time.NewTimer(duration)
	select {
	case <-h.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return h.Err()
	case <-timer.C:
		return nil
	}
}
