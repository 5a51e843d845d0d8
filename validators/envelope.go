package validators

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"erc7677-proxy/models"
)

var envelopeKeys = keySet("jsonrpc", "id", "method", "params")

// ParseEnvelope 校验 JSON-RPC 2.0 外壳，body 可以是单个调用或非空的批量数组。
// 这里不涉及 ERC-7677，所有失败都是 INVALID_ENVELOPE
func ParseEnvelope(body []byte) ([]*models.JsonRpcEnvelope, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, false, invalidEnvelope(fmt.Errorf("malformed JSON: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false, invalidEnvelope(errors.New("unexpected data after JSON value"))
	}

	switch v := raw.(type) {
	case map[string]any:
		env, err := parseCall(v)
		if err != nil {
			return nil, false, invalidEnvelope(err)
		}
		return []*models.JsonRpcEnvelope{env}, false, nil
	case []any:
		if len(v) == 0 {
			return nil, true, invalidEnvelope(errors.New("empty batch"))
		}
		envs := make([]*models.JsonRpcEnvelope, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, true, invalidEnvelope(fmt.Errorf("batch[%d]: expected object", i))
			}
			env, err := parseCall(obj)
			if err != nil {
				return nil, true, invalidEnvelope(fmt.Errorf("batch[%d]: %w", i, err))
			}
			envs = append(envs, env)
		}
		return envs, true, nil
	}
	return nil, false, invalidEnvelope(fmt.Errorf("expected object or array, received %s", typeName(raw)))
}

func parseCall(obj map[string]any) (*models.JsonRpcEnvelope, error) {
	if extra := unrecognizedKeys(obj, envelopeKeys); len(extra) > 0 {
		return nil, errors.New(unrecognizedMessage(extra))
	}

	if v, _ := obj["jsonrpc"].(string); v != models.JSONRPCVersion {
		return nil, fmt.Errorf("jsonrpc must be %q", models.JSONRPCVersion)
	}

	id, ok := obj["id"].(json.Number)
	if !ok {
		return nil, errors.New("id must be a number")
	}
	if d, err := decimal.NewFromString(id.String()); err != nil || !d.IsInteger() {
		return nil, errors.New("id must be an integer")
	}

	method, ok := obj["method"].(string)
	if !ok {
		return nil, errors.New("method must be a string")
	}

	params := []any{}
	if raw, present := obj["params"]; present {
		list, ok := raw.([]any)
		if !ok {
			return nil, errors.New("params must be an array")
		}
		params = list
	}

	return &models.JsonRpcEnvelope{
		JSONRPC: models.JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}, nil
}

func invalidEnvelope(err error) *models.GatewayError {
	return &models.GatewayError{
		Code:    models.ErrInvalidEnvelope,
		Message: "Invalid JSON-RPC Request",
		Err:     err,
	}
}
