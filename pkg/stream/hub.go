package stream

import (
	"sync"

	"github.com/google/uuid"
)

// Hub 是一个按主题广播变更信号的中心。
// 仓库在事务提交后对受影响的表名发布信号；每个观察者订阅
// 它所依赖的主题集合，并在收到信号后重新执行查询。
// 信号本身不携带数据，只表示"受影响的行可能变了"。
type Hub struct {
	mu sync.RWMutex
	// topic -> subscriberID -> 合并式信号channel (容量1)
	subs map[string]map[string]chan struct{}
}

// Signal 是一次订阅的句柄。
// C 在任一已订阅主题被发布后变得可读；多次发布会被合并为一次信号。
type Signal struct {
	C <-chan struct{}

	hub    *Hub
	id     string
	topics []string
}

// NewHub 创建一个空的广播中心。
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[string]chan struct{})}
}

// Subscribe 为给定的主题集合注册一个新的观察者。
// 返回的Signal必须在不再使用时调用Close，否则会泄漏注册项。
func (h *Hub) Subscribe(topics ...string) *Signal {
	ch := make(chan struct{}, 1)
	id := uuid.NewString()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		if h.subs[topic] == nil {
			h.subs[topic] = make(map[string]chan struct{})
		}
		h.subs[topic][id] = ch
	}

	return &Signal{C: ch, hub: h, id: id, topics: topics}
}

// Publish 向所有订阅了任一给定主题的观察者发送一次信号。
// 发送是非阻塞的: 如果观察者已有一个待处理信号，则本次发布被合并。
func (h *Hub) Publish(topics ...string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// 同一个观察者可能订阅了多个受影响的主题，去重后只通知一次
	notified := make(map[string]bool)
	for _, topic := range topics {
		for id, ch := range h.subs[topic] {
			if notified[id] {
				continue
			}
			notified[id] = true
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Close 注销本次订阅。
func (s *Signal) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	for _, topic := range s.topics {
		delete(s.hub.subs[topic], s.id)
		if len(s.hub.subs[topic]) == 0 {
			delete(s.hub.subs, topic)
		}
	}
}
