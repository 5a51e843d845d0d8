package models

import "github.com/ethereum/go-ethereum/common"

// EntryPointVersion 表示 EntryPoint 合约版本，不同版本的 UserOperation 字段布局互不兼容
type EntryPointVersion string

const (
	EntryPointV06 EntryPointVersion = "0.6"
	EntryPointV07 EntryPointVersion = "0.7"
	EntryPointV08 EntryPointVersion = "0.8"
)

// 各版本 EntryPoint 的链上地址（所有链相同）
var (
	EntryPoint06Address = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")
	EntryPoint07Address = common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")
	EntryPoint08Address = common.HexToAddress("0x4337084D9E255Ff0702461CF8895CE9E3b5Ff108")
)

// EntryPoint 描述一个 EntryPoint：地址 + 版本
type EntryPoint struct {
	Address common.Address    `json:"address"`
	Version EntryPointVersion `json:"version"`
}

func (v EntryPointVersion) String() string {
	return string(v)
}
