package validators

import (
	"fmt"

	"erc7677-proxy/models"
)

const (
	minParams = 3
	maxParams = 4
)

// RequestValidator 第二阶段校验：确认 JSON-RPC 调用是 ERC-7677 请求并规范化参数
type RequestValidator struct {
	dispatcher *Dispatcher
}

// NewRequestValidator 创建 RequestValidator，UserOperation 交给 d 分发
func NewRequestValidator(d *Dispatcher) *RequestValidator {
	return &RequestValidator{dispatcher: d}
}

// ParseRequest 校验 pm_getPaymasterStubData / pm_getPaymasterData 请求，
// params 为 [userOp, entryPoint, chainId, context?]。格式错误返回携带 *ValidationError
// 的 INVALID_PARAMS，格式正确但未知的 EntryPoint 返回 UNSUPPORTED_ENTRYPOINT
func (v *RequestValidator) ParseRequest(env *models.JsonRpcEnvelope) (*models.PaymasterRequest, error) {
	var is issues

	switch env.Method {
	case models.MethodGetPaymasterStubData, models.MethodGetPaymasterData:
	default:
		is.add([]any{"method"}, CodeInvalidLiteral, fmt.Sprintf(
			"Invalid literal value, expected %q or %q", models.MethodGetPaymasterStubData, models.MethodGetPaymasterData))
		return nil, invalidParams(is.err())
	}

	params := env.Params
	paramsPath := []any{"params"}
	switch {
	case len(params) < minParams:
		is.add(paramsPath, CodeTooSmall, fmt.Sprintf("Array must contain at least %d element(s)", minParams))
		return nil, invalidParams(is.err())
	case len(params) > maxParams:
		is.add(paramsPath, CodeTooBig, fmt.Sprintf("Array must contain at most %d element(s)", maxParams))
		return nil, invalidParams(is.err())
	}

	userOpPath := child(paramsPath, 0)
	if _, ok := params[0].(map[string]any); !ok {
		is.addErr(userOpPath, expectedType("object", params[0]))
	}

	entryPoint, err := ParseAddress(params[1])
	if err != nil {
		is.addErr(child(paramsPath, 1), err)
	}

	chainID, err := ParseHexNumber(params[2])
	if err != nil {
		is.addErr(child(paramsPath, 2), err)
	}

	var ctx *models.PaymasterContext
	if len(params) == maxParams {
		ctx = parsePaymasterContext(params[3], child(paramsPath, 3), &is)
	}

	if !is.empty() {
		return nil, invalidParams(is.err())
	}

	req, err := v.dispatcher.dispatch(params[0], entryPoint, chainID, ctx, userOpPath)
	if err != nil {
		if verr, ok := err.(*ValidationError); ok {
			return nil, invalidParams(verr)
		}
		return nil, err
	}

	req.JSONRPC = env.JSONRPC
	req.ID = env.ID
	req.Method = env.Method
	return req, nil
}

// parsePaymasterContext 接受 null、{sponsorshipPolicyId: string} 或
// {sponsorshipPolicyIds: string[]}，多余字段忽略
func parsePaymasterContext(input any, path []any, is *issues) *models.PaymasterContext {
	if input == nil {
		return nil
	}
	obj, ok := input.(map[string]any)
	if !ok {
		is.addErr(path, expectedType("object", input))
		return nil
	}

	if id, ok := obj["sponsorshipPolicyId"].(string); ok {
		return &models.PaymasterContext{SponsorshipPolicyID: &id}
	}
	if list, ok := obj["sponsorshipPolicyIds"].([]any); ok {
		ids := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				ids = nil
				break
			}
			ids = append(ids, s)
		}
		if ids != nil {
			return &models.PaymasterContext{SponsorshipPolicyIDs: ids}
		}
	}

	is.add(path, CodeInvalidUnion,
		"Invalid input: expected {sponsorshipPolicyId: string} or {sponsorshipPolicyIds: string[]}")
	return nil
}

func invalidParams(verr *ValidationError) *models.GatewayError {
	return &models.GatewayError{
		Code:    models.ErrInvalidParams,
		Message: "Invalid ERC-7677 request",
		Data:    verr,
		Err:     verr,
	}
}
