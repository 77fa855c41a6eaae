package sse

import (
	"io"

	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"github.com/gin-gonic/gin"
)

// envelope 是SSE事件的统一载荷，与订阅流的三态契约一一对应。
type envelope struct {
	State string `json:"state"` // loading / error / success
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// StreamResults 把一条订阅流转写为Server-Sent Events。
// 每次发射产生一个事件；Error发射后流终止。客户端断开时
// gin会取消请求上下文，上游订阅随之取消。
func StreamResults[T any](c *gin.Context, ch <-chan stream.Result[T], encode func(T) any) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		r, ok := <-ch
		if !ok {
			return false
		}
		switch r.State {
		case stream.StateLoading:
			c.SSEvent("result", envelope{State: "loading"})
			return true
		case stream.StateError:
			c.SSEvent("result", envelope{State: "error", Error: r.Err.Error()})
			return false
		default:
			c.SSEvent("result", envelope{State: "success", Data: encode(r.Value)})
			return true
		}
	})
}
