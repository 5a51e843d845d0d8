package validators

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"erc7677-proxy/models"
)

// AuthorizationShape 授权元组的解析严格程度
type AuthorizationShape int

const (
	// AuthorizationPartial 缺失字段使用默认值，用于 stub 与估算请求
	AuthorizationPartial AuthorizationShape = iota
	// AuthorizationSigned 除 v 以外的字段都必须存在
	AuthorizationSigned
)

var authorizationDefaultChainID = big.NewInt(1)

// ParseAuthorization 解析 EIP-7702 授权元组。目标地址可以写作 contractAddress
// 或 address，两者都有效时取 contractAddress；未知字段忽略
func ParseAuthorization(input any, shape AuthorizationShape, maxHexDataBytes int) (*models.Authorization, error) {
	var is issues
	auth := parseAuthorization(input, nil, shape, maxHexDataBytes, &is)
	if err := is.err(); err != nil {
		return nil, err
	}
	return auth, nil
}

func parseAuthorization(input any, path []any, shape AuthorizationShape, maxBytes int, is *issues) *models.Authorization {
	r, ok := newObjectReader(input, path, maxBytes, is)
	if !ok {
		return nil
	}

	auth := &models.Authorization{Address: authorizationTarget(r)}

	if shape == AuthorizationSigned {
		auth.ChainID = r.number("chainId")
		auth.Nonce = uint64Field(r, "nonce", r.number("nonce"), 0)
		auth.R = r.hexData("r")
		auth.S = r.hexData("s")
		auth.V = r.optionalNumber("v")
		auth.YParity = uint64Field(r, "yParity", r.number("yParity"), 0)
		return auth
	}

	auth.ChainID = r.optionalNumber("chainId")
	if auth.ChainID == nil {
		auth.ChainID = (*hexutil.Big)(new(big.Int).Set(authorizationDefaultChainID))
	}
	auth.Nonce = uint64Field(r, "nonce", r.optionalNumber("nonce"), 0)
	if p := r.optionalHexData("r"); p != nil {
		auth.R = *p
	} else {
		auth.R = models.ZeroHash32
	}
	if p := r.optionalHexData("s"); p != nil {
		auth.S = *p
	} else {
		auth.S = models.ZeroHash32
	}
	auth.V = r.optionalNumber("v")
	auth.YParity = uint64Field(r, "yParity", r.optionalNumber("yParity"), 0)
	return auth
}

func uint64Field(r *objectReader, key string, n *hexutil.Big, def uint64) hexutil.Uint64 {
	if n == nil {
		return hexutil.Uint64(def)
	}
	if !n.ToInt().IsUint64() {
		r.is.add(child(r.path, key), CodeTooBig, "Number must fit in 64 bits")
		return hexutil.Uint64(def)
	}
	return hexutil.Uint64(n.ToInt().Uint64())
}

// authorizationTarget 先尝试 contractAddress，无效或缺失时再尝试 address
func authorizationTarget(r *objectReader) common.Address {
	var (
		firstErr error
		firstKey string
	)
	for _, key := range []string{"contractAddress", "address"} {
		v, ok := r.optional(key)
		if !ok {
			continue
		}
		addr, err := ParseAddress(v)
		if err == nil {
			return addr
		}
		if firstErr == nil {
			firstErr, firstKey = err, key
		}
	}
	if firstErr != nil {
		r.is.addErr(child(r.path, firstKey), firstErr)
	} else {
		r.is.add(child(r.path, "address"), CodeInvalidUnion, "Required: expected contractAddress or address")
	}
	return common.Address{}
}
