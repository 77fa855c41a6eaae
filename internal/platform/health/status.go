package health

import (
	"fmt"
	"sync"
)

// State 定义了热缓存健康状态的枚举类型
type State int

const (
	StateHealthy State = iota
	StateDegraded
	StateFlushing
)

// String 用于对外暴露状态名，供状态接口返回。
func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// statusManager 负责线程安全地管理和提供热缓存的健康状态。
type statusManager struct {
	mu             sync.RWMutex
	currentState   State
	lastKnownRunID string
}

var globalStatus = &statusManager{
	currentState: StateHealthy,
}

// GetState 返回当前的热缓存健康状态。
func GetState() State {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.currentState
}

// SetInitialRunID 在应用启动时，由main.go调用，用于设置初始的Redis run_id。
func (sm *statusManager) SetInitialRunID(runID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.lastKnownRunID = runID
}

// Assess a new health check result and decide the next state.
// Redis重启后可能从RDB恢复出陈旧的响应缓存，所以重启必须触发一次清空。
func (sm *statusManager) Assess(isCurrentlyConnected bool, newRunID string) (needsFlush bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch sm.currentState {
	case StateHealthy:
		if !isCurrentlyConnected {
			sm.currentState = StateDegraded
			fmt.Println("健康检查: Redis连接丢失，热缓存状态 -> [降级]")
		} else if sm.lastKnownRunID != "" && sm.lastKnownRunID != newRunID {
			sm.currentState = StateFlushing
			needsFlush = true
			fmt.Printf("健康检查: 检测到Redis重启 (run_id: %s -> %s)，热缓存状态 -> [清空中]\n", sm.lastKnownRunID, newRunID)
		}
	case StateDegraded:
		if isCurrentlyConnected {
			if sm.lastKnownRunID != "" && sm.lastKnownRunID != newRunID {
				sm.currentState = StateFlushing
				needsFlush = true
				fmt.Printf("健康检查: Redis已恢复但检测到重启 (run_id: %s -> %s)，热缓存状态 -> [清空中]\n", sm.lastKnownRunID, newRunID)
			} else {
				sm.currentState = StateHealthy
				fmt.Println("健康检查: Redis连接已恢复，热缓存状态 -> [健康]")
			}
		}
	case StateFlushing:
		if !isCurrentlyConnected {
			sm.currentState = StateDegraded
			fmt.Println("健康检查: 在清空响应缓存期间Redis连接再次丢失，热缓存状态 -> [降级]")
		} else {
			// 连接是好的但仍处于清空状态，说明上次清空失败了。
			needsFlush = true
			fmt.Println("健康检查: 热缓存处于[清空中]状态，将再次尝试清空响应缓存...")
		}
	}

	if isCurrentlyConnected {
		sm.lastKnownRunID = newRunID
	}

	return needsFlush
}

// MarkFlushComplete should be called after a flush attempt.
func (sm *statusManager) MarkFlushComplete(success bool, runIDAfterFlush string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.currentState != StateFlushing {
		return
	}

	// 清空期间Redis再次重启，本次清空不可信
	if success && sm.lastKnownRunID != runIDAfterFlush {
		fmt.Printf("健康检查错误: 清空响应缓存期间检测到Redis再次重启 (run_id: %s -> %s)。本次清空无效，保持[清空中]状态。\n", sm.lastKnownRunID, runIDAfterFlush)
		sm.lastKnownRunID = runIDAfterFlush
		return
	}

	if success {
		sm.currentState = StateHealthy
		fmt.Println("健康检查: 响应缓存清空成功，热缓存状态 -> [健康]")
	} else {
		fmt.Println("健康检查错误: 响应缓存清空失败，热缓存状态保持 [清空中] 以待重试")
	}
}
