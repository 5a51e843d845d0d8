package sponsorship

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erc7677-proxy/models"
)

type fakeValidator struct {
	valid []string
	err   error
	calls [][]string
}

func (f *fakeValidator) ValidateSponsorshipPolicies(_ context.Context, _ *models.PaymasterRequest, ids []string) ([]string, error) {
	f.calls = append(f.calls, ids)
	return f.valid, f.err
}

var mainnet = models.Chain{ID: 1, Name: "mainnet"}

func request(ctx *models.PaymasterContext) *models.PaymasterRequest {
	return &models.PaymasterRequest{
		Method:     models.MethodGetPaymasterStubData,
		UserOp:     &models.UserOperationV07{},
		EntryPoint: models.EntryPoint{Address: models.EntryPoint07Address, Version: models.EntryPointV07},
		ChainID:    big.NewInt(1),
		Context:    ctx,
	}
}

func policy(id string) *models.PaymasterContext {
	return &models.PaymasterContext{SponsorshipPolicyID: &id}
}

func TestResolveMergesAndPicksFirstValid(t *testing.T) {
	v := &fakeValidator{valid: []string{"C"}}
	r := NewResolver(v, []string{"B", "C"})

	d, err := r.Resolve(context.Background(), request(&models.PaymasterContext{SponsorshipPolicyIDs: []string{"A", "B"}}), mainnet)
	require.NoError(t, err)

	require.Len(t, v.calls, 1)
	assert.Equal(t, []string{"A", "B", "C"}, v.calls[0])
	require.True(t, d.Sponsored())
	require.NotNil(t, d.ExtraParam)
	assert.Equal(t, "C", d.ExtraParam.SponsorshipPolicyID)
}

func TestResolveCallerIDsTakePrecedence(t *testing.T) {
	v := &fakeValidator{valid: []string{"default", "mine"}}
	r := NewResolver(v, []string{"default"})

	d, err := r.Resolve(context.Background(), request(policy("mine")), mainnet)
	require.NoError(t, err)
	assert.Equal(t, "mine", d.ExtraParam.SponsorshipPolicyID)
}

func TestResolveEmptySetSponsorsWithoutCall(t *testing.T) {
	v := &fakeValidator{}
	r := NewResolver(v, nil)

	d, err := r.Resolve(context.Background(), request(nil), mainnet)
	require.NoError(t, err)
	assert.True(t, d.Sponsored())
	assert.Nil(t, d.ExtraParam)
	assert.Empty(t, v.calls)
}

func TestResolveTestnetBypass(t *testing.T) {
	v := &fakeValidator{}
	r := NewResolver(v, []string{"default"})

	d, err := r.Resolve(context.Background(), request(policy("mine")), models.Chain{ID: 11155111, Name: "sepolia", Testnet: true})
	require.NoError(t, err)
	assert.True(t, d.Sponsored())
	assert.Nil(t, d.ExtraParam)
	assert.Empty(t, v.calls)
}

func TestResolveRejectsWhenNoneValid(t *testing.T) {
	v := &fakeValidator{valid: []string{}}
	r := NewResolver(v, []string{"default"})

	d, err := r.Resolve(context.Background(), request(nil), mainnet)
	require.NoError(t, err)
	assert.False(t, d.Sponsored())
	assert.Equal(t, "reject", String(d))
}

func TestResolvePropagatesUpstreamError(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewResolver(&fakeValidator{err: boom}, []string{"default"})

	_, err := r.Resolve(context.Background(), request(nil), mainnet)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var gerr *models.GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, models.ErrUpstreamFailure, gerr.Code)
}

func TestMergePolicyIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, MergePolicyIDs([]string{"a", "b", "a"}, []string{"", "c", "b"}))
	assert.Nil(t, MergePolicyIDs(nil, nil))
}
