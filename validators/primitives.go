package validators

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"erc7677-proxy/models"
)

// DefaultMaxHexDataBytes 未配置时 hex 字段的默认字节上限
const DefaultMaxHexDataBytes = 500000

const (
	msgNotBigInt   = "Invalid input, expected a value that can be converted to bigint."
	msgAboveMax256 = "Invalid hexNumber, hexNumber cannot be greater than MAX_UINT_256"
	msgNegative    = "Invalid hexNumber, hexNumber cannot be negative"

	// 2^256-1 共 78 位十进制数
	maxUint256Digits = 78
)

var (
	hexDataPattern = regexp.MustCompile(`^0x[0-9A-Fa-f]*$`)
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// ParseAddress 校验 20 字节 hex 地址，大小写不限，返回值按 EIP-55 校验和格式输出
func ParseAddress(input any) (common.Address, error) {
	s, ok := input.(string)
	if !ok {
		return common.Address{}, expectedType("string", input)
	}
	if !addressPattern.MatchString(s) {
		return common.Address{}, fieldError(ErrInvalidAddress, CodeInvalidAddress, "not a valid hex address")
	}
	return common.HexToAddress(s), nil
}

// ParseHexNumber 接受 0x 前缀的 hex 字符串、JSON 数字或 Go 整数（包括 *big.Int），
// 返回 256 位无符号整数。"0x" 视为 0
func ParseHexNumber(input any) (*big.Int, error) {
	n, err := toBigInt(input)
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 {
		return nil, fieldError(ErrInvalidNumber, CodeInvalidNumber, msgNegative)
	}
	if _, overflow := uint256.FromBig(n); overflow {
		return nil, fieldError(ErrInvalidNumber, CodeTooBig, msgAboveMax256)
	}
	return n, nil
}

func toBigInt(input any) (*big.Int, error) {
	switch v := input.(type) {
	case string:
		if !hexDataPattern.MatchString(v) {
			return nil, fieldError(ErrInvalidNumber, CodeInvalidNumber, "Invalid hex string")
		}
		if v == "0x" {
			return new(big.Int), nil
		}
		n, ok := new(big.Int).SetString(v[2:], 16)
		if !ok {
			return nil, fieldError(ErrInvalidNumber, CodeInvalidNumber, msgNotBigInt)
		}
		return n, nil
	case json.Number:
		return decimalToBigInt(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, fieldError(ErrInvalidNumber, CodeInvalidNumber, msgNotBigInt)
		}
		n, _ := big.NewFloat(v).Int(nil)
		return n, nil
	case int:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case *big.Int:
		if v == nil {
			return nil, expectedType("hex string, number or bigint", nil)
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case *hexutil.Big:
		if v == nil {
			return nil, expectedType("hex string, number or bigint", nil)
		}
		return new(big.Int).Set(v.ToInt()), nil
	}
	return nil, expectedType("hex string, number or bigint", input)
}

func decimalToBigInt(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fieldError(ErrInvalidNumber, CodeInvalidNumber, msgNotBigInt)
	}
	if d.IsZero() {
		return new(big.Int), nil
	}
	exp := int(d.Exponent())
	if exp > 0 && d.NumDigits()+exp > maxUint256Digits {
		return nil, fieldError(ErrInvalidNumber, CodeTooBig, msgAboveMax256)
	}
	if exp < -maxUint256Digits*4 || !d.IsInteger() {
		return nil, fieldError(ErrInvalidNumber, CodeInvalidNumber, msgNotBigInt)
	}
	return d.BigInt(), nil
}

// ParseHexData 校验最多 maxBytes 字节的 0x 前缀 hex 数据并转为小写，允许奇数位
func ParseHexData(input any, maxBytes int) (models.HexData, error) {
	s, ok := input.(string)
	if !ok {
		return "", expectedType("string", input)
	}
	if !hexDataPattern.MatchString(s) {
		return "", fieldError(ErrInvalidHexData, CodeInvalidHexData, "not valid hex data")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxHexDataBytes
	}
	if len(s) > 2*maxBytes {
		return "", fieldError(ErrInvalidHexData, CodeTooBig,
			fmt.Sprintf("hex data too long, maximum length is %d bytes", maxBytes))
	}
	return models.HexData(strings.ToLower(s)), nil
}

func expectedType(want string, got any) *FieldError {
	if got == nil {
		return fieldError(ErrInvalidType, CodeInvalidType, "Required")
	}
	return fieldError(ErrInvalidType, CodeInvalidType,
		fmt.Sprintf("Expected %s, received %s", want, typeName(got)))
}
