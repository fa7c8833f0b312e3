package mathguard

import "errors"

var (
	// ErrInvalidConfig 定界符配置不合法
	ErrInvalidConfig = errors.New("invalid math delimiter configuration")
	// ErrPlaceholderOutOfRange 占位符编号超出当前存储范围（提取与还原没有配对使用）
	ErrPlaceholderOutOfRange = errors.New("placeholder index out of range")
)
