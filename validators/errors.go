package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// 校验问题码
const (
	CodeInvalidType      = "invalid_type"
	CodeInvalidAddress   = "invalid_address"
	CodeInvalidNumber    = "invalid_number"
	CodeInvalidHexData   = "invalid_hex_data"
	CodeTooBig           = "too_big"
	CodeTooSmall         = "too_small"
	CodeInvalidLiteral   = "invalid_literal"
	CodeInvalidUnion     = "invalid_union"
	CodeUnrecognizedKeys = "unrecognized_keys"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidNumber  = errors.New("invalid number")
	ErrInvalidHexData = errors.New("invalid hex data")
	ErrInvalidType    = errors.New("invalid type")
)

// FieldError 基础解析函数返回的错误，Unwrap 后为 ErrInvalid* 之一
type FieldError struct {
	Kind    error
	Code    string
	Message string
}

func (e *FieldError) Error() string { return e.Message }
func (e *FieldError) Unwrap() error { return e.Kind }

func fieldError(kind error, code, msg string) *FieldError {
	return &FieldError{Kind: kind, Code: code, Message: msg}
}

// Issue 单个字段的校验问题
type Issue struct {
	Code    string `json:"code"`
	Path    []any  `json:"path"`
	Message string `json:"message"`
}

// ValidationError 一次校验中发现的全部问题
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if len(is.Path) == 0 {
			parts = append(parts, is.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s at %q", is.Message, FormatPath(is.Path)))
	}
	return "Validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name    string  `json:"name"`
		Message string  `json:"message"`
		Details []Issue `json:"details"`
	}{
		Name:    "ValidationError",
		Message: e.Error(),
		Details: e.Issues,
	})
}

// FormatPath 把路径渲染为 params[0].sender 形式
func FormatPath(path []any) string {
	var b strings.Builder
	for _, seg := range path {
		switch s := seg.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", s)
		default:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, s)
		}
	}
	return b.String()
}

type issues struct {
	list []Issue
}

func (is *issues) add(path []any, code, msg string) {
	is.list = append(is.list, Issue{Code: code, Path: path, Message: msg})
}

func (is *issues) addErr(path []any, err error) {
	var fe *FieldError
	if errors.As(err, &fe) {
		is.add(path, fe.Code, fe.Message)
		return
	}
	is.add(path, CodeInvalidType, err.Error())
}

func (is *issues) empty() bool { return len(is.list) == 0 }

func (is *issues) err() *ValidationError {
	if is.empty() {
		return nil
	}
	return &ValidationError{Issues: is.list}
}

func child(path []any, seg any) []any {
	out := make([]any, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

func unrecognizedKeys(obj map[string]any, allowed map[string]struct{}) []string {
	var extra []string
	for k := range obj {
		if _, ok := allowed[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func unrecognizedMessage(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = "'" + k + "'"
	}
	return "Unrecognized key(s) in object: " + strings.Join(quoted, ", ")
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
