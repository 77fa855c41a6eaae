package remote

import (
	"errors"
	"fmt"
)

// ErrorKind 划分远程聚合器的错误类别。
// 同步协调器只依据类别决定是否重试，绝不触碰底层传输错误的具体类型。
type ErrorKind int

const (
	// KindNotFound 表示请求的name/id在远程目录中不存在，属于终态错误
	KindNotFound ErrorKind = iota + 1
	// KindTransport 表示HTTP 4xx/5xx、超时、连接失败等传输层错误，可重试
	KindTransport
	// KindMalformed 表示响应载荷无法解析或违反协议约定，可重试
	KindMalformed
)

// Error 是远程聚合器对外的唯一错误类型。
// 它只携带类别、资源种类、标识参数和底层原因，
// 保证传输库的异常类型不会越过聚合器边界。
type Error struct {
	Kind     ErrorKind
	Resource string // 资源种类的中文名，如"宝可梦"、"属性"
	Key      string // 本次请求的标识参数(name或id)
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("未能找到%s \"%s\"", e.Resource, e.Key)
	case KindTransport:
		return fmt.Sprintf("获取%s \"%s\" 失败: %v", e.Resource, e.Key, e.Err)
	case KindMalformed:
		return fmt.Sprintf("解析%s \"%s\" 的响应失败: %v", e.Resource, e.Key, e.Err)
	default:
		return fmt.Sprintf("获取%s \"%s\" 时发生未知错误: %v", e.Resource, e.Key, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func notFoundError(resource, key string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource, Key: key}
}

func transportError(resource, key string, err error) *Error {
	return &Error{Kind: KindTransport, Resource: resource, Key: key, Err: err}
}

func malformedError(resource, key string, err error) *Error {
	return &Error{Kind: KindMalformed, Resource: resource, Key: key, Err: err}
}

// IsNotFound 判断err是否为"远程目录中不存在"类错误。
func IsNotFound(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == KindNotFound
}

// IsTransient 判断err是否属于可重试的瞬时类别(传输错误或畸形载荷)。
func IsTransient(err error) bool {
	var re *Error
	if !errors.As(err, &re) {
		return false
	}
	return re.Kind == KindTransport || re.Kind == KindMalformed
}
