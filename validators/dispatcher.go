package validators

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"erc7677-proxy/models"
)

type normalizer func(input any, path []any, maxBytes int, is *issues) models.UserOperation

type entryPointSchema struct {
	version   models.EntryPointVersion
	normalize normalizer
}

// Dispatcher 按 EntryPoint 地址选择 UserOperation 的校验规则，地址是唯一的区分依据
type Dispatcher struct {
	maxHexDataBytes int
}

// NewDispatcher 创建 Dispatcher，hex 字段最多 maxHexDataBytes 字节，非正数时使用默认值
func NewDispatcher(maxHexDataBytes int) *Dispatcher {
	if maxHexDataBytes <= 0 {
		maxHexDataBytes = DefaultMaxHexDataBytes
	}
	return &Dispatcher{maxHexDataBytes: maxHexDataBytes}
}

func schemaFor(entryPoint common.Address) (entryPointSchema, bool) {
	switch entryPoint {
	case models.EntryPoint06Address:
		return entryPointSchema{models.EntryPointV06, normalizeV06}, true
	case models.EntryPoint07Address:
		return entryPointSchema{models.EntryPointV07, normalizeV07}, true
	case models.EntryPoint08Address:
		return entryPointSchema{models.EntryPointV08, normalizeV08}, true
	}
	return entryPointSchema{}, false
}

// Dispatch 按 entryPoint 对应的规则规范化 userOp。未知地址在读取任何 userOp 字段之前
// 返回 UNSUPPORTED_ENTRYPOINT，字段错误返回 *ValidationError
func (d *Dispatcher) Dispatch(userOp any, entryPoint common.Address, chainID *big.Int, ctx *models.PaymasterContext) (*models.PaymasterRequest, error) {
	return d.dispatch(userOp, entryPoint, chainID, ctx, nil)
}

func (d *Dispatcher) dispatch(userOp any, entryPoint common.Address, chainID *big.Int, ctx *models.PaymasterContext, path []any) (*models.PaymasterRequest, error) {
	schema, ok := schemaFor(entryPoint)
	if !ok {
		return nil, &models.GatewayError{
			Code:    models.ErrUnsupportedEntryPoint,
			Message: "EntryPoint not supported",
			Data:    entryPoint.Hex(),
		}
	}

	var is issues
	op := schema.normalize(userOp, path, d.maxHexDataBytes, &is)
	if err := is.err(); err != nil {
		return nil, err
	}

	return &models.PaymasterRequest{
		UserOp:     op,
		EntryPoint: models.EntryPoint{Address: entryPoint, Version: schema.version},
		ChainID:    chainID,
		Context:    ctx,
	}, nil
}
