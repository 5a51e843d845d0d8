package validators

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"erc7677-proxy/models"
)

// objectReader 从解码后的 JSON 对象中读取字段，每个失败的字段记录一个问题
type objectReader struct {
	obj      map[string]any
	path     []any
	maxBytes int
	is       *issues
}

func newObjectReader(input any, path []any, maxBytes int, is *issues) (*objectReader, bool) {
	obj, ok := input.(map[string]any)
	if !ok {
		is.addErr(path, expectedType("object", input))
		return nil, false
	}
	return &objectReader{obj: obj, path: path, maxBytes: maxBytes, is: is}, true
}

// strict 报告不在允许集合中的字段
func (r *objectReader) strict(allowed map[string]struct{}) {
	if extra := unrecognizedKeys(r.obj, allowed); len(extra) > 0 {
		r.is.add(r.path, CodeUnrecognizedKeys, unrecognizedMessage(extra))
	}
}

// required 返回字段值以及是否为非 null。缺失或为 null 时记录问题
func (r *objectReader) required(key, want string) (any, bool) {
	v, ok := r.obj[key]
	if !ok {
		r.is.add(child(r.path, key), CodeInvalidType, "Required")
		return nil, false
	}
	if v == nil {
		r.is.add(child(r.path, key), CodeInvalidType, "Expected "+want+", received null")
		return nil, false
	}
	return v, true
}

// optional 字段存在且非 null 时返回其值
func (r *objectReader) optional(key string) (any, bool) {
	v, ok := r.obj[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *objectReader) address(key string) common.Address {
	v, ok := r.required(key, "string")
	if !ok {
		return common.Address{}
	}
	addr, err := ParseAddress(v)
	if err != nil {
		r.is.addErr(child(r.path, key), err)
	}
	return addr
}

func (r *objectReader) optionalAddress(key string) *common.Address {
	v, ok := r.optional(key)
	if !ok {
		return nil
	}
	addr, err := ParseAddress(v)
	if err != nil {
		r.is.addErr(child(r.path, key), err)
		return nil
	}
	return &addr
}

func (r *objectReader) number(key string) *hexutil.Big {
	v, ok := r.required(key, "hex string, number or bigint")
	if !ok {
		return nil
	}
	n, err := ParseHexNumber(v)
	if err != nil {
		r.is.addErr(child(r.path, key), err)
		return nil
	}
	return (*hexutil.Big)(n)
}

func (r *objectReader) optionalNumber(key string) *hexutil.Big {
	v, ok := r.optional(key)
	if !ok {
		return nil
	}
	n, err := ParseHexNumber(v)
	if err != nil {
		r.is.addErr(child(r.path, key), err)
		return nil
	}
	return (*hexutil.Big)(n)
}

func (r *objectReader) hexData(key string) models.HexData {
	v, ok := r.required(key, "string")
	if !ok {
		return ""
	}
	data, err := ParseHexData(v, r.maxBytes)
	if err != nil {
		r.is.addErr(child(r.path, key), err)
	}
	return data
}

func (r *objectReader) optionalHexData(key string) *models.HexData {
	v, ok := r.optional(key)
	if !ok {
		return nil
	}
	data, err := ParseHexData(v, r.maxBytes)
	if err != nil {
		r.is.addErr(child(r.path, key), err)
		return nil
	}
	return &data
}

// hexDataOr 字段缺失时返回 def；nullable 为 true 时 null 也返回 def
func (r *objectReader) hexDataOr(key string, def models.HexData, nullable bool) models.HexData {
	v, present := r.obj[key]
	if !present || (v == nil && nullable) {
		return def
	}
	if v == nil {
		r.is.add(child(r.path, key), CodeInvalidType, "Expected string, received null")
		return def
	}
	data, err := ParseHexData(v, r.maxBytes)
	if err != nil {
		r.is.addErr(child(r.path, key), err)
		return def
	}
	return data
}
