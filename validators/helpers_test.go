package validators

import (
	"testing"

	"github.com/stretchr/testify/require"

	"erc7677-proxy/models"
)

const testSender = "0x1111111111111111111111111111111111111111"

func userOpV06() map[string]any {
	return map[string]any{
		"sender":               testSender,
		"nonce":                "0x1",
		"initCode":             "0x",
		"callData":             "0xb61d27f6",
		"callGasLimit":         "0x186a0",
		"verificationGasLimit": "0x186a0",
		"preVerificationGas":   "0xc350",
		"maxPriorityFeePerGas": "0x3b9aca00",
		"maxFeePerGas":         "0x3b9aca00",
	}
}

func userOpV07() map[string]any {
	return map[string]any{
		"sender":               testSender,
		"nonce":                "0x1",
		"callData":             "0xb61d27f6",
		"callGasLimit":         "0x186a0",
		"verificationGasLimit": "0x186a0",
		"preVerificationGas":   "0xc350",
		"maxFeePerGas":         "0x3b9aca00",
		"maxPriorityFeePerGas": "0x3b9aca00",
	}
}

func validationIssues(t *testing.T, err error) []Issue {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Issues
}

func gatewayError(t *testing.T, err error) *models.GatewayError {
	t.Helper()
	require.Error(t, err)
	var gerr *models.GatewayError
	require.ErrorAs(t, err, &gerr)
	return gerr
}
