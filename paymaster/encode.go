package paymaster

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"erc7677-proxy/validators"
)

// bigIntFields 上游可能以整数返回的字段
var bigIntFields = []string{"paymasterVerificationGasLimit", "paymasterPostOpGasLimit"}

// EncodeResult 复制 result，整数 gas 字段转为 0x hex 字符串，字符串和其他字段原样保留
func EncodeResult(result map[string]any) map[string]any {
	out := make(map[string]any, len(result))
	for k, v := range result {
		out[k] = v
	}
	for _, key := range bigIntFields {
		v, ok := out[key]
		if !ok || v == nil {
			continue
		}
		if _, isString := v.(string); isString {
			continue
		}
		n, err := validators.ParseHexNumber(v)
		if err != nil {
			continue
		}
		out[key] = hexutil.EncodeBig(n)
	}
	return out
}
