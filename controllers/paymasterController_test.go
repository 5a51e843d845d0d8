package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erc7677-proxy/chains"
	"erc7677-proxy/config"
	"erc7677-proxy/metrics"
	"erc7677-proxy/models"
	"erc7677-proxy/validators"
)

type fakePaymaster struct {
	valid     []string
	policyErr error
	result    map[string]any
	err       error

	policyCalls [][]string
	decisions   []models.SponsorshipDecision
	methods     []string
}

func (f *fakePaymaster) ValidateSponsorshipPolicies(_ context.Context, _ *models.PaymasterRequest, ids []string) ([]string, error) {
	f.policyCalls = append(f.policyCalls, ids)
	return f.valid, f.policyErr
}

func (f *fakePaymaster) GetPaymasterStubData(_ context.Context, _ *models.PaymasterRequest, d models.SponsorshipDecision) (map[string]any, error) {
	f.methods = append(f.methods, models.MethodGetPaymasterStubData)
	f.decisions = append(f.decisions, d)
	return f.result, f.err
}

func (f *fakePaymaster) GetPaymasterData(_ context.Context, _ *models.PaymasterRequest, d models.SponsorshipDecision) (map[string]any, error) {
	f.methods = append(f.methods, models.MethodGetPaymasterData)
	f.decisions = append(f.decisions, d)
	return f.result, f.err
}

type fakeStore struct {
	records []models.SponsorshipRecord
	err     error
}

func (s *fakeStore) Record(_ context.Context, rec models.SponsorshipRecord) error {
	s.records = append(s.records, rec)
	return s.err
}

func (s *fakeStore) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		EntryPointV06Enabled: true,
		EntryPointV07Enabled: true,
		EntryPointV08Enabled: true,
		MaxHexDataBytes:      validators.DefaultMaxHexDataBytes,
	}
}

func stubResult() map[string]any {
	return map[string]any{
		"paymaster":                     "0x777777777777AeC03fd955926DbF81597e66834C",
		"paymasterData":                 "0x01",
		"paymasterVerificationGasLimit": json.Number("50000"),
		"paymasterPostOpGasLimit":       json.Number("0"),
		"isFinal":                       false,
	}
}

func setup(cfg *config.Config, pm *fakePaymaster, st *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewPaymasterController(cfg, chains.Default(), pm, st, nil, nil)
	r := gin.New()
	r.POST("/api/paymaster", ctrl.HandlePaymaster)
	return r
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/paymaster", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

const userOpV07 = `{
	"sender": "0x1111111111111111111111111111111111111111",
	"nonce": "0x0",
	"callData": "0x",
	"callGasLimit": "0x0",
	"verificationGasLimit": "0x0",
	"preVerificationGas": "0x0",
	"maxFeePerGas": "0x0",
	"maxPriorityFeePerGas": "0x0"
}`

func call(method, chainID, context string) string {
	return `{"jsonrpc":"2.0","id":1,"method":"` + method + `","params":[` + userOpV07 +
		`,"0x0000000071727De22E5E9d8BAf0edAc6f37da032","` + chainID + `",` + context + `]}`
}

func TestStubDataSponsoredWithoutPolicy(t *testing.T) {
	pm := &fakePaymaster{result: stubResult()}
	st := &fakeStore{}
	r := setup(testConfig(), pm, st)

	w := post(r, call(models.MethodGetPaymasterStubData, "0x1", "null"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.JSONEq(t, `{
		"result": {
			"paymaster": "0x777777777777AeC03fd955926DbF81597e66834C",
			"paymasterData": "0x01",
			"paymasterVerificationGasLimit": "0xc350",
			"paymasterPostOpGasLimit": "0x0",
			"isFinal": false
		},
		"id": 1,
		"jsonrpc": "2.0"
	}`, w.Body.String())

	assert.Empty(t, pm.policyCalls)
	require.Len(t, pm.decisions, 1)
	assert.True(t, pm.decisions[0].Sponsored())
	assert.Nil(t, pm.decisions[0].ExtraParam)

	require.Len(t, st.records, 1)
	assert.Equal(t, models.OutcomeSponsored, st.records[0].Outcome)
	assert.Equal(t, uint64(1), st.records[0].ChainID)
	assert.Equal(t, "0.7", st.records[0].EntryPointVersion)
}

func TestDataWithPolicy(t *testing.T) {
	pm := &fakePaymaster{valid: []string{"C"}, result: map[string]any{"paymasterData": "0x"}}
	cfg := testConfig()
	cfg.SponsorshipPolicyIDs = []string{"B", "C"}
	r := setup(cfg, pm, &fakeStore{})

	w := post(r, call(models.MethodGetPaymasterData, "0x1", `{"sponsorshipPolicyIds":["A","B"]}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, pm.policyCalls, 1)
	assert.Equal(t, []string{"A", "B", "C"}, pm.policyCalls[0])
	assert.Equal(t, []string{models.MethodGetPaymasterData}, pm.methods)
	require.NotNil(t, pm.decisions[0].ExtraParam)
	assert.Equal(t, "C", pm.decisions[0].ExtraParam.SponsorshipPolicyID)
}

func TestTestnetBypassesPolicies(t *testing.T) {
	pm := &fakePaymaster{result: map[string]any{}}
	r := setup(testConfig(), pm, &fakeStore{})

	// sepolia
	w := post(r, call(models.MethodGetPaymasterStubData, "0xaa36a7", `{"sponsorshipPolicyId":"sp_1"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, pm.policyCalls)
	assert.Nil(t, pm.decisions[0].ExtraParam)
}

func TestRejected(t *testing.T) {
	pm := &fakePaymaster{valid: []string{}}
	st := &fakeStore{}
	r := setup(testConfig(), pm, st)

	w := post(r, call(models.MethodGetPaymasterData, "0x1", `{"sponsorshipPolicyId":"sp_1"}`))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Rejected", w.Body.String())
	assert.Empty(t, pm.methods)
	require.Len(t, st.records, 1)
	assert.Equal(t, models.OutcomeRejected, st.records[0].Outcome)
}

func TestInvalidEnvelope(t *testing.T) {
	pm := &fakePaymaster{}
	r := setup(testConfig(), pm, &fakeStore{})

	for _, body := range []string{
		`not json`,
		`{"jsonrpc":"2.0","id":1,"method":"pm_getPaymasterData","extra":true}`,
		`{"jsonrpc":"2.0","id":"1","method":"pm_getPaymasterData"}`,
	} {
		w := post(r, body)
		assert.Equal(t, http.StatusNotFound, w.Code, body)
		assert.Equal(t, "Invalid JSON-RPC Request", w.Body.String(), body)
	}
	assert.Empty(t, pm.methods)
}

func TestInvalidParams(t *testing.T) {
	r := setup(testConfig(), &fakePaymaster{}, &fakeStore{})

	body := strings.Replace(call(models.MethodGetPaymasterData, "0x1", "null"),
		`"sender": "0x1111111111111111111111111111111111111111"`, `"sender": "0x11"`, 1)
	w := post(r, body)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp struct {
		Name    string `json:"name"`
		Message string `json:"message"`
		Details []struct {
			Path []any `json:"path"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ValidationError", resp.Name)
	assert.Contains(t, resp.Message, `params[0].sender`)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, []any{"params", float64(0), "sender"}, resp.Details[0].Path)
}

func TestUnsupportedChain(t *testing.T) {
	r := setup(testConfig(), &fakePaymaster{}, &fakeStore{})
	w := post(r, call(models.MethodGetPaymasterData, "0xfffffff1", "null"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Unsupported chain. Supported chains are mainnet, "))

	cfg := testConfig()
	cfg.ChainIDWhitelist = []uint64{8453, 137}
	r = setup(cfg, &fakePaymaster{}, &fakeStore{})
	w = post(r, call(models.MethodGetPaymasterData, "0x1", "null"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Unsupported chain. Supported chains are 8453, 137", w.Body.String())
}

func TestUnsupportedEntryPoint(t *testing.T) {
	cfg := testConfig()
	cfg.EntryPointV07Enabled = false
	pm := &fakePaymaster{}
	r := setup(cfg, pm, &fakeStore{})

	w := post(r, call(models.MethodGetPaymasterData, "0x1", "null"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "EntryPoint not supported", w.Body.String())

	unknown := strings.Replace(call(models.MethodGetPaymasterData, "0x1", "null"),
		"0x0000000071727De22E5E9d8BAf0edAc6f37da032", "0x0000000000000000000000000000000000000001", 1)
	w = post(r, unknown)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "EntryPoint not supported", w.Body.String())
	assert.Empty(t, pm.methods)
}

func TestChainCheckedBeforeEntryPoint(t *testing.T) {
	cfg := testConfig()
	cfg.EntryPointV07Enabled = false
	cfg.ChainIDWhitelist = []uint64{8453}
	r := setup(cfg, &fakePaymaster{}, &fakeStore{})

	w := post(r, call(models.MethodGetPaymasterData, "0x1", "null"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Unsupported chain. Supported chains are 8453", w.Body.String())
}

type codedError struct{}

func (codedError) Error() string  { return "paymaster: sender blocked" }
func (codedError) ErrorCode() int { return -32500 }

func TestUpstreamFailure(t *testing.T) {
	pm := &fakePaymaster{err: codedError{}}
	st := &fakeStore{}
	r := setup(testConfig(), pm, st)

	w := post(r, call(models.MethodGetPaymasterStubData, "0x1", "null"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{
		"jsonrpc": "2.0",
		"id": 1,
		"error": {"code": -32500, "message": "paymaster: sender blocked"}
	}`, w.Body.String())
	assert.Equal(t, models.OutcomeUpstreamError, st.records[0].Outcome)
}

func TestPolicyValidationFailure(t *testing.T) {
	pm := &fakePaymaster{policyErr: errors.New("connection reset")}
	r := setup(testConfig(), pm, &fakeStore{})

	w := post(r, call(models.MethodGetPaymasterStubData, "0x1", `{"sponsorshipPolicyId":"sp_1"}`))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp models.JsonRpcErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, -32603, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "connection reset")
	assert.Empty(t, pm.methods)
}

func TestStoreFailureDoesNotFailRequest(t *testing.T) {
	r := setup(testConfig(), &fakePaymaster{result: map[string]any{}}, &fakeStore{err: errors.New("disk full")})
	w := post(r, call(models.MethodGetPaymasterStubData, "0x1", "null"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBatch(t *testing.T) {
	pm := &fakePaymaster{result: map[string]any{"paymasterData": "0x"}}
	r := setup(testConfig(), pm, &fakeStore{})

	first := call(models.MethodGetPaymasterStubData, "0x1", "null")
	second := strings.Replace(call(models.MethodGetPaymasterData, "0x1", "null"), `"id":1`, `"id":2`, 1)

	w := post(r, "["+first+","+second+"]")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `[
		{"result": {"paymasterData": "0x"}, "id": 1, "jsonrpc": "2.0"},
		{"result": {"paymasterData": "0x"}, "id": 2, "jsonrpc": "2.0"}
	]`, w.Body.String())
	assert.Equal(t, []string{models.MethodGetPaymasterStubData, models.MethodGetPaymasterData}, pm.methods)

}

func TestBatchValidatesEveryCallBeforeUpstream(t *testing.T) {
	first := call(models.MethodGetPaymasterStubData, "0x1", `{"sponsorshipPolicyId":"sp_1"}`)
	second := strings.Replace(call(models.MethodGetPaymasterData, "0x1", "null"), `"id":1`, `"id":2`, 1)
	badChain := strings.Replace(second, `"0x1"`, `"0xfffffff1"`, 1)
	badSender := strings.Replace(second, `"sender": "0x1111111111111111111111111111111111111111"`, `"sender": "0x11"`, 1)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unsupported chain", "[" + first + "," + badChain + "]", http.StatusNotFound},
		{"invalid params", "[" + first + "," + badSender + "]", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := &fakePaymaster{valid: []string{"sp_1"}, result: map[string]any{}}
			st := &fakeStore{}
			r := setup(testConfig(), pm, st)

			w := post(r, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, pm.policyCalls)
			assert.Empty(t, pm.methods)
			assert.Empty(t, st.records)
		})
	}
}

func TestUnsupportedChainsShareOneSeries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	ctrl := NewPaymasterController(testConfig(), chains.Default(), &fakePaymaster{}, &fakeStore{}, nil, metrics.NewPrometheusRecorder(reg))
	r := gin.New()
	r.POST("/api/paymaster", ctrl.HandlePaymaster)

	for i := 0; i < 20; i++ {
		w := post(r, call(models.MethodGetPaymasterData, "0x"+strconv.FormatUint(0xdead0000+uint64(i), 16), "null"))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	n, err := testutil.GatherAndCount(reg, "erc7677_proxy_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRequestsCounterUsesKnownChainID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	ctrl := NewPaymasterController(testConfig(), chains.Default(), &fakePaymaster{result: map[string]any{}}, &fakeStore{}, nil, metrics.NewPrometheusRecorder(reg))
	r := gin.New()
	r.POST("/api/paymaster", ctrl.HandlePaymaster)

	// 0x01 与 0x1 是同一条链
	require.Equal(t, http.StatusOK, post(r, call(models.MethodGetPaymasterData, "0x01", "null")).Code)
	require.Equal(t, http.StatusOK, post(r, call(models.MethodGetPaymasterData, "0x1", "null")).Code)

	// requests 与 sponsored 各一条序列
	n, err := testutil.GatherAndCount(reg, "erc7677_proxy_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHexDataBytes = 16
	pm := &fakePaymaster{}
	r := setup(cfg, pm, &fakeStore{})

	callData := `"callData": "0x` + strings.Repeat("ab", 64<<10) + `"`
	body := strings.Replace(call(models.MethodGetPaymasterData, "0x1", "null"), `"callData": "0x"`, callData, 1)

	w := post(r, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, pm.methods)
}

func TestIndexAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Index)
	r.GET("/health", Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ERC-7677 Paymaster Service Proxy")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}
