package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("连接被拒绝")

// runSyncTest 在独立Goroutine中执行RunSync并返回输出流。
func runSyncTest(ctx context.Context, spec SyncSpec[int]) <-chan Result[int] {
	out := make(chan Result[int])
	go RunSync(ctx, out, spec)
	return out
}

func TestRunSyncDeliversCompleteValueWithoutRefresh(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := make(chan Emission[int], 1)
	obs <- Emission[int]{Value: 10}

	var refreshed atomic.Int64
	out := runSyncTest(ctx, SyncSpec[int]{
		Observe:  obs,
		Complete: func(v int) bool { return v > 0 },
		Refresh: func(ctx context.Context) error {
			refreshed.Add(1)
			return nil
		},
		Transient: func(err error) bool { return true },
		Budget:    3,
		Describe:  "测试查询",
	})

	r := recvResult(t, out)
	assert.Equal(t, StateSuccess, r.State)
	assert.Equal(t, 10, r.Value)
	assert.Equal(t, int64(0), refreshed.Load(), "缓存完整时不应触网")
}

func TestRunSyncStaysSubscribedAfterSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := make(chan Emission[int], 2)
	obs <- Emission[int]{Value: 1}

	out := runSyncTest(ctx, SyncSpec[int]{
		Observe:   obs,
		Complete:  func(v int) bool { return v > 0 },
		Refresh:   func(ctx context.Context) error { return nil },
		Transient: func(err error) bool { return true },
		Budget:    3,
		Describe:  "测试查询",
	})

	r := recvResult(t, out)
	assert.Equal(t, 1, r.Value)

	// 本地数据变化引发再发射，订阅继续下发新值
	obs <- Emission[int]{Value: 2}
	r = recvResult(t, out)
	assert.Equal(t, StateSuccess, r.State)
	assert.Equal(t, 2, r.Value)
}

func TestRunSyncRefreshThenReactiveCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := make(chan Emission[int], 2)
	obs <- Emission[int]{Value: 0} // 缓存为空

	out := runSyncTest(ctx, SyncSpec[int]{
		Observe:  obs,
		Complete: func(v int) bool { return v > 0 },
		Refresh: func(ctx context.Context) error {
			// 补取成功会写入本地存储，由变更信号引发再发射
			obs <- Emission[int]{Value: 99}
			return nil
		},
		Transient: func(err error) bool { return true },
		Budget:    3,
		Describe:  "测试查询",
	})

	r := recvResult(t, out)
	assert.Equal(t, StateLoading, r.State, "补取期间应先下发加载态")

	r = recvResult(t, out)
	assert.Equal(t, StateSuccess, r.State)
	assert.Equal(t, 99, r.Value)
}

func TestRunSyncRetryBudgetIsExact(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := make(chan Emission[int], 1)
	obs <- Emission[int]{Value: 0}

	var attempts atomic.Int64
	out := runSyncTest(ctx, SyncSpec[int]{
		Observe:  obs,
		Complete: func(v int) bool { return v > 0 },
		Refresh: func(ctx context.Context) error {
			attempts.Add(1)
			return errFlaky
		},
		Transient: func(err error) bool { return errors.Is(err, errFlaky) },
		Budget:    3,
		Describe:  "测试查询",
	})

	r := recvResult(t, out)
	assert.Equal(t, StateLoading, r.State)

	r = recvResult(t, out)
	require.Equal(t, StateError, r.State)
	assert.ErrorIs(t, r.Err, ErrExhausted)
	assert.ErrorIs(t, r.Err, errFlaky, "终止错误应保留最后一次失败原因")
	assert.Equal(t, int64(3), attempts.Load(), "补取次数应精确等于预算")

	// 订阅已终止，输出流关闭
	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("预算耗尽后输出流未关闭")
	}
}

func TestRunSyncTerminalErrorDoesNotRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	terminal := errors.New("远程目录中不存在该资源")
	obs := make(chan Emission[int], 1)
	obs <- Emission[int]{Value: 0}

	var attempts atomic.Int64
	out := runSyncTest(ctx, SyncSpec[int]{
		Observe:  obs,
		Complete: func(v int) bool { return v > 0 },
		Refresh: func(ctx context.Context) error {
			attempts.Add(1)
			return terminal
		},
		Transient: func(err error) bool { return false },
		Budget:    3,
		Describe:  "测试查询",
	})

	recvResult(t, out) // Loading
	r := recvResult(t, out)
	require.Equal(t, StateError, r.State)
	assert.ErrorIs(t, r.Err, terminal)
	assert.NotErrorIs(t, r.Err, ErrExhausted)
	assert.Equal(t, int64(1), attempts.Load())
}

func TestRunSyncLocalQueryErrorTerminates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := make(chan Emission[int], 1)
	obs <- Emission[int]{Err: assert.AnError}

	out := runSyncTest(ctx, SyncSpec[int]{
		Observe:   obs,
		Complete:  func(v int) bool { return true },
		Refresh:   func(ctx context.Context) error { return nil },
		Transient: func(err error) bool { return true },
		Budget:    3,
		Describe:  "测试查询",
	})

	r := recvResult(t, out)
	require.Equal(t, StateError, r.State)
	assert.ErrorIs(t, r.Err, assert.AnError)
}

func TestRunSyncNoLoadingAfterFirstDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := make(chan Emission[int], 3)
	obs <- Emission[int]{Value: 1}

	out := runSyncTest(ctx, SyncSpec[int]{
		Observe:  obs,
		Complete: func(v int) bool { return v > 0 },
		Refresh: func(ctx context.Context) error {
			obs <- Emission[int]{Value: 5}
			return nil
		},
		Transient: func(err error) bool { return true },
		Budget:    3,
		Describe:  "测试查询",
	})

	r := recvResult(t, out)
	assert.Equal(t, 1, r.Value)

	// 已经下发过结果后出现不完整发射，不应倒退回加载态
	obs <- Emission[int]{Value: 0}
	r = recvResult(t, out)
	assert.Equal(t, StateSuccess, r.State)
	assert.Equal(t, 5, r.Value)
}
