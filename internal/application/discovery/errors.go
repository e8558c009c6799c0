package discovery

import "errors"

var (
	// ErrUnparsableIntent 表示意图分类输出不是合法的结构化结果（走降级，不致命）。
	ErrUnparsableIntent = errors.New("intent output is unparsable")
	// ErrUnparsableSelection 表示精选输出不是合法的结构化结果（走相似度序降级，不致命）。
	ErrUnparsableSelection = errors.New("selection output is unparsable")
	// ErrVectorNotFound 表示语料中没有该条目的向量。
	ErrVectorNotFound = errors.New("vector not found")
)

// UnknownGameSentinel 描述合成能力的"不认识"哨兵值
const UnknownGameSentinel = "UNKNOWN"
