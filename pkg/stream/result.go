package stream

// State 描述一次订阅发射所处的状态。
// 任何对外暴露的查询流，在任意时刻都恰好处于三种状态之一。
type State int

const (
	// StateLoading 表示本地缓存尚无可用数据，且一次远程补取正在进行中
	StateLoading State = iota
	// StateError 表示订阅以一个领域错误终止
	StateError
	// StateSuccess 表示本次发射携带了可信的查询结果
	StateSuccess
)

// Result 是订阅流中单次发射的载体。
// 它是一个带标签的三态值: Loading / Error / Success。
type Result[T any] struct {
	State State
	Value T
	Err   error
}

// Loading 构造一个加载中的发射。
func Loading[T any]() Result[T] {
	return Result[T]{State: StateLoading}
}

// Success 构造一个携带结果的成功发射。
func Success[T any](value T) Result[T] {
	return Result[T]{State: StateSuccess, Value: value}
}

// Failure 构造一个携带领域错误的终止发射。
func Failure[T any](err error) Result[T] {
	return Result[T]{State: StateError, Err: err}
}

// Emission 是仓库观察查询的单次输出。
// 与Result不同，它只区分查询成功与查询本身的执行错误，
// 完整性判定由上层的同步协调器完成。
type Emission[T any] struct {
	Value T
	Err   error
}
