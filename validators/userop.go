package validators

import (
	"erc7677-proxy/models"
)

var (
	userOpV06Keys = keySet(
		"sender", "nonce", "initCode", "callData",
		"callGasLimit", "verificationGasLimit", "preVerificationGas",
		"maxPriorityFeePerGas", "maxFeePerGas",
		"paymasterAndData", "signature", "eip7702Auth",
	)
	userOpV07Keys = keySet(
		"sender", "nonce", "factory", "factoryData", "callData",
		"callGasLimit", "verificationGasLimit", "preVerificationGas",
		"maxFeePerGas", "maxPriorityFeePerGas",
		"paymaster", "paymasterVerificationGasLimit", "paymasterPostOpGasLimit", "paymasterData",
		"signature", "eip7702Auth",
	)
)

// normalizeV06 构造 v0.6 UserOperation。paymasterAndData 与 signature 默认 "0x"，
// eip7702Auth 存在时必须是已签名的
func normalizeV06(input any, path []any, maxBytes int, is *issues) models.UserOperation {
	r, ok := newObjectReader(input, path, maxBytes, is)
	if !ok {
		return nil
	}
	r.strict(userOpV06Keys)

	return &models.UserOperationV06{
		Sender:               r.address("sender"),
		Nonce:                r.number("nonce"),
		InitCode:             r.hexData("initCode"),
		CallData:             r.hexData("callData"),
		CallGasLimit:         r.number("callGasLimit"),
		VerificationGasLimit: r.number("verificationGasLimit"),
		PreVerificationGas:   r.number("preVerificationGas"),
		MaxPriorityFeePerGas: r.number("maxPriorityFeePerGas"),
		MaxFeePerGas:         r.number("maxFeePerGas"),
		PaymasterAndData:     r.hexDataOr("paymasterAndData", models.EmptyHexData, true),
		Signature:            r.hexDataOr("signature", models.EmptyHexData, true),
		EIP7702Auth:          authorizationField(r, AuthorizationSigned),
	}
}

// normalizeV07 构造 v0.7 UserOperation。可选字段为 null 或缺失时保持 nil，
// signature 默认 "0x" 但不能为 null
func normalizeV07(input any, path []any, maxBytes int, is *issues) models.UserOperation {
	r, ok := newObjectReader(input, path, maxBytes, is)
	if !ok {
		return nil
	}
	r.strict(userOpV07Keys)

	return &models.UserOperationV07{
		Sender:                        r.address("sender"),
		Nonce:                         r.number("nonce"),
		Factory:                       r.optionalAddress("factory"),
		FactoryData:                   r.optionalHexData("factoryData"),
		CallData:                      r.hexData("callData"),
		CallGasLimit:                  r.number("callGasLimit"),
		VerificationGasLimit:          r.number("verificationGasLimit"),
		PreVerificationGas:            r.number("preVerificationGas"),
		MaxFeePerGas:                  r.number("maxFeePerGas"),
		MaxPriorityFeePerGas:          r.number("maxPriorityFeePerGas"),
		Paymaster:                     r.optionalAddress("paymaster"),
		PaymasterVerificationGasLimit: r.optionalNumber("paymasterVerificationGasLimit"),
		PaymasterPostOpGasLimit:       r.optionalNumber("paymasterPostOpGasLimit"),
		PaymasterData:                 r.optionalHexData("paymasterData"),
		Signature:                     r.hexDataOr("signature", models.EmptyHexData, false),
		EIP7702Auth:                   authorizationField(r, AuthorizationPartial),
	}
}

// normalizeV08 与 normalizeV07 相同，但 factory 还可以是 EIP-7702 委托标记 "0x7702"
func normalizeV08(input any, path []any, maxBytes int, is *issues) models.UserOperation {
	r, ok := newObjectReader(input, path, maxBytes, is)
	if !ok {
		return nil
	}
	r.strict(userOpV07Keys)

	return &models.UserOperationV08{
		Sender:                        r.address("sender"),
		Nonce:                         r.number("nonce"),
		Factory:                       factoryField(r),
		FactoryData:                   r.optionalHexData("factoryData"),
		CallData:                      r.hexData("callData"),
		CallGasLimit:                  r.number("callGasLimit"),
		VerificationGasLimit:          r.number("verificationGasLimit"),
		PreVerificationGas:            r.number("preVerificationGas"),
		MaxFeePerGas:                  r.number("maxFeePerGas"),
		MaxPriorityFeePerGas:          r.number("maxPriorityFeePerGas"),
		Paymaster:                     r.optionalAddress("paymaster"),
		PaymasterVerificationGasLimit: r.optionalNumber("paymasterVerificationGasLimit"),
		PaymasterPostOpGasLimit:       r.optionalNumber("paymasterPostOpGasLimit"),
		PaymasterData:                 r.optionalHexData("paymasterData"),
		Signature:                     r.hexDataOr("signature", models.EmptyHexData, false),
		EIP7702Auth:                   authorizationField(r, AuthorizationPartial),
	}
}

func factoryField(r *objectReader) *models.Factory {
	v, ok := r.optional("factory")
	if !ok {
		return nil
	}
	if s, isString := v.(string); isString && s == models.DelegationFactory {
		return models.Delegation7702()
	}
	addr, err := ParseAddress(v)
	if err != nil {
		r.is.add(child(r.path, "factory"), CodeInvalidUnion,
			`Invalid input: expected a hex address or "`+models.DelegationFactory+`"`)
		return nil
	}
	return models.FactoryAddress(addr)
}

func authorizationField(r *objectReader, shape AuthorizationShape) *models.Authorization {
	v, ok := r.optional("eip7702Auth")
	if !ok {
		return nil
	}
	return parseAuthorization(v, child(r.path, "eip7702Auth"), shape, r.maxBytes, r.is)
}
