package models

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HexData 规范化后的十六进制数据（0x 前缀，小写）
type HexData string

// EmptyHexData 空数据
const EmptyHexData HexData = "0x"

// DelegationFactory v0.8 中 factory 字段的 EIP-7702 委托标记
const DelegationFactory = "0x7702"

// UserOperation 各版本 UserOperation 的公共接口
type UserOperation interface {
	Version() EntryPointVersion
	GetSender() common.Address
}

// UserOperationV06 EntryPoint v0.6 的 UserOperation
type UserOperationV06 struct {
	Sender               common.Address `json:"sender"`
	Nonce                *hexutil.Big   `json:"nonce"`
	InitCode             HexData        `json:"initCode"`
	CallData             HexData        `json:"callData"`
	CallGasLimit         *hexutil.Big   `json:"callGasLimit"`
	VerificationGasLimit *hexutil.Big   `json:"verificationGasLimit"`
	PreVerificationGas   *hexutil.Big   `json:"preVerificationGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	PaymasterAndData     HexData        `json:"paymasterAndData"`
	Signature            HexData        `json:"signature"`
	EIP7702Auth          *Authorization `json:"eip7702Auth,omitempty"`
}

func (op *UserOperationV06) Version() EntryPointVersion { return EntryPointV06 }
func (op *UserOperationV06) GetSender() common.Address  { return op.Sender }

// UserOperationV07 EntryPoint v0.7 的 UserOperation（未打包形式）
type UserOperationV07 struct {
	Sender                        common.Address  `json:"sender"`
	Nonce                         *hexutil.Big    `json:"nonce"`
	Factory                       *common.Address `json:"factory,omitempty"`
	FactoryData                   *HexData        `json:"factoryData,omitempty"`
	CallData                      HexData         `json:"callData"`
	CallGasLimit                  *hexutil.Big    `json:"callGasLimit"`
	VerificationGasLimit          *hexutil.Big    `json:"verificationGasLimit"`
	PreVerificationGas            *hexutil.Big    `json:"preVerificationGas"`
	MaxFeePerGas                  *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas          *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Paymaster                     *common.Address `json:"paymaster,omitempty"`
	PaymasterVerificationGasLimit *hexutil.Big    `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *hexutil.Big    `json:"paymasterPostOpGasLimit,omitempty"`
	PaymasterData                 *HexData        `json:"paymasterData,omitempty"`
	Signature                     HexData         `json:"signature"`
	EIP7702Auth                   *Authorization  `json:"eip7702Auth,omitempty"`
}

func (op *UserOperationV07) Version() EntryPointVersion { return EntryPointV07 }
func (op *UserOperationV07) GetSender() common.Address  { return op.Sender }

// UserOperationV08 EntryPoint v0.8 的 UserOperation，factory 可以是 0x7702
type UserOperationV08 struct {
	Sender                        common.Address  `json:"sender"`
	Nonce                         *hexutil.Big    `json:"nonce"`
	Factory                       *Factory        `json:"factory,omitempty"`
	FactoryData                   *HexData        `json:"factoryData,omitempty"`
	CallData                      HexData         `json:"callData"`
	CallGasLimit                  *hexutil.Big    `json:"callGasLimit"`
	VerificationGasLimit          *hexutil.Big    `json:"verificationGasLimit"`
	PreVerificationGas            *hexutil.Big    `json:"preVerificationGas"`
	MaxFeePerGas                  *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas          *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Paymaster                     *common.Address `json:"paymaster,omitempty"`
	PaymasterVerificationGasLimit *hexutil.Big    `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *hexutil.Big    `json:"paymasterPostOpGasLimit,omitempty"`
	PaymasterData                 *HexData        `json:"paymasterData,omitempty"`
	Signature                     HexData         `json:"signature"`
	EIP7702Auth                   *Authorization  `json:"eip7702Auth,omitempty"`
}

func (op *UserOperationV08) Version() EntryPointVersion { return EntryPointV08 }
func (op *UserOperationV08) GetSender() common.Address  { return op.Sender }

// Factory v0.8 的 factory：合约地址或 EIP-7702 委托标记
type Factory struct {
	Address    common.Address
	Delegation bool
}

// FactoryAddress 普通 factory 地址
func FactoryAddress(addr common.Address) *Factory {
	return &Factory{Address: addr}
}

// Delegation7702 委托标记 factory
func Delegation7702() *Factory {
	return &Factory{Delegation: true}
}

func (f Factory) String() string {
	if f.Delegation {
		return DelegationFactory
	}
	return f.Address.Hex()
}

func (f Factory) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}
