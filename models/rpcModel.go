package models

import (
	"encoding/json"
	"math/big"
)

// ERC-7677 方法名
const (
	MethodGetPaymasterStubData = "pm_getPaymasterStubData"
	MethodGetPaymasterData     = "pm_getPaymasterData"
)

// JSONRPCVersion JSON-RPC 协议版本
const JSONRPCVersion = "2.0"

// JsonRpcEnvelope 通过第一阶段校验的 JSON-RPC 请求外壳
type JsonRpcEnvelope struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      json.Number `json:"id"`
	Method  string      `json:"method"`
	Params  []any       `json:"params"`
}

// PaymasterRequest 通过 ERC-7677 校验并规范化后的请求
type PaymasterRequest struct {
	JSONRPC    string
	ID         json.Number
	Method     string
	UserOp     UserOperation
	EntryPoint EntryPoint
	ChainID    *big.Int
	Context    *PaymasterContext
}

// IsStub 是否为 pm_getPaymasterStubData
func (r *PaymasterRequest) IsStub() bool {
	return r.Method == MethodGetPaymasterStubData
}

// JsonRpcResponse 成功响应
type JsonRpcResponse struct {
	Result  any         `json:"result"`
	ID      json.Number `json:"id"`
	JSONRPC string      `json:"jsonrpc"`
}

// JsonRpcErrorResponse 失败响应
type JsonRpcErrorResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      json.Number   `json:"id"`
	Error   *JsonRpcError `json:"error"`
}

// JsonRpcError JSON-RPC 错误体
type JsonRpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
