package milvus

import (
	"fmt"
	"strings"
)

// PredicateBuilder 组装 Milvus 标量过滤表达式。
// 所有字符串值都会被转义后再拼进表达式。
type PredicateBuilder struct {
	parts []string
}

// NewPredicateBuilder 创建表达式构建器
func NewPredicateBuilder() *PredicateBuilder {
	return &PredicateBuilder{}
}

// GteInt64 追加 field >= value 条件
func (b *PredicateBuilder) GteInt64(field string, value int64) *PredicateBuilder {
	b.parts = append(b.parts, fmt.Sprintf("%s >= %d", field, value))
	return b
}

// LteInt64 追加 field <= value 条件
func (b *PredicateBuilder) LteInt64(field string, value int64) *PredicateBuilder {
	b.parts = append(b.parts, fmt.Sprintf("%s <= %d", field, value))
	return b
}

// EqBool 追加 field == value 条件
func (b *PredicateBuilder) EqBool(field string, value bool) *PredicateBuilder {
	b.parts = append(b.parts, fmt.Sprintf("%s == %t", field, value))
	return b
}

// NotIn 追加 field not in [...] 条件，空集不追加
func (b *PredicateBuilder) NotIn(field string, values []string) *PredicateBuilder {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v == "" {
			continue
		}
		quoted = append(quoted, quoteString(v))
	}
	if len(quoted) == 0 {
		return b
	}
	b.parts = append(b.parts, fmt.Sprintf("%s not in [%s]", field, strings.Join(quoted, ", ")))
	return b
}

// AnyLike 追加 (field like "%a%" || field like "%b%") 条件，空集不追加。
// 每个 token 会被小写并包上竖线定界符，配合 GenresText 的存储格式做成员判断。
func (b *PredicateBuilder) AnyLike(field string, tokens []string) *PredicateBuilder {
	var clauses []string
	for _, t := range tokens {
		t = sanitizeLikeToken(t)
		if t == "" {
			continue
		}
		clauses = append(clauses, fmt.Sprintf(`%s like "%%|%s|%%"`, field, t))
	}
	switch len(clauses) {
	case 0:
	case 1:
		b.parts = append(b.parts, clauses[0])
	default:
		b.parts = append(b.parts, "("+strings.Join(clauses, " || ")+")")
	}
	return b
}

// Build 用 && 连接全部条件，无条件时返回空串
func (b *PredicateBuilder) Build() string {
	return strings.Join(b.parts, " && ")
}

// quoteString 生成带双引号的表达式字面量
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// sanitizeLikeToken 清洗 like 匹配的 token：小写、去掉通配符与引号类字符
func sanitizeLikeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case '%', '_', '"', '\\', '|':
			return -1
		}
		return r
	}, s)
}
