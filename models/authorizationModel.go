package models

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash32 32 字节全零，用作未签名授权的 r/s 默认值
const ZeroHash32 HexData = "0x0000000000000000000000000000000000000000000000000000000000000000"

// Authorization EIP-7702 授权元组
type Authorization struct {
	Address common.Address `json:"address"`
	ChainID *hexutil.Big   `json:"chainId"`
	Nonce   hexutil.Uint64 `json:"nonce"`
	R       HexData        `json:"r"`
	S       HexData        `json:"s"`
	V       *hexutil.Big   `json:"v,omitempty"`
	YParity hexutil.Uint64 `json:"yParity"`
}
