// Package paymaster 上游 ERC-7677 paymaster 服务客户端
package paymaster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"erc7677-proxy/metrics"
	"erc7677-proxy/models"
)

// ChainIDPlaceholder 服务 URL 中的占位符，替换为十进制链 id
const ChainIDPlaceholder = "{chainId}"

// PimlicoURLTemplate 只配置 API key 时使用
const PimlicoURLTemplate = "https://api.pimlico.io/v2/" + ChainIDPlaceholder + "/rpc?apikey=%s"

const methodValidateSponsorshipPolicies = "pm_validateSponsorshipPolicies"

// SponsorshipPolicy pm_validateSponsorshipPolicies 结果中的一项
type SponsorshipPolicy struct {
	SponsorshipPolicyID string          `json:"sponsorshipPolicyId"`
	Data                json.RawMessage `json:"data,omitempty"`
}

// Client 向上游发起 JSON-RPC 调用，每个 URL 缓存一个 rpc 客户端
type Client struct {
	urlTemplate string
	timeout     time.Duration
	httpClient  *http.Client
	metrics     metrics.Recorder

	mu      sync.Mutex
	clients map[string]*rpc.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// NewClient 创建 urlTemplate 对应的客户端，timeout 为正数时限制每次调用的时长
func NewClient(urlTemplate string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		urlTemplate: urlTemplate,
		timeout:     timeout,
		httpClient:  http.DefaultClient,
		metrics:     metrics.NoopRecorder{},
		clients:     make(map[string]*rpc.Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL 返回 chainID 对应的上游地址
func (c *Client) URL(chainID *big.Int) string {
	return strings.ReplaceAll(c.urlTemplate, ChainIDPlaceholder, chainID.String())
}

func (c *Client) rpcClient(ctx context.Context, chainID *big.Int) (*rpc.Client, error) {
	url := c.URL(chainID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[url]; ok {
		return cl, nil
	}
	cl, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial paymaster service: %w", err)
	}
	c.clients[url] = cl
	return cl, nil
}

func (c *Client) call(ctx context.Context, chainID *big.Int, result any, method string, args ...any) error {
	cl, err := c.rpcClient(ctx, chainID)
	if err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err = cl.CallContext(ctx, result, method, args...)
	c.metrics.ObserveLatency("upstream_call", time.Since(start), map[string]string{"method": method})
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// GetPaymasterStubData 转发 pm_getPaymasterStubData
func (c *Client) GetPaymasterStubData(ctx context.Context, req *models.PaymasterRequest, decision models.SponsorshipDecision) (map[string]any, error) {
	return c.paymasterCall(ctx, models.MethodGetPaymasterStubData, req, decision)
}

// GetPaymasterData 转发 pm_getPaymasterData
func (c *Client) GetPaymasterData(ctx context.Context, req *models.PaymasterRequest, decision models.SponsorshipDecision) (map[string]any, error) {
	return c.paymasterCall(ctx, models.MethodGetPaymasterData, req, decision)
}

func (c *Client) paymasterCall(ctx context.Context, method string, req *models.PaymasterRequest, decision models.SponsorshipDecision) (map[string]any, error) {
	var raw json.RawMessage
	err := c.call(ctx, req.ChainID, &raw, method,
		req.UserOp,
		req.EntryPoint.Address,
		hexutil.EncodeBig(req.ChainID),
		decision.UpstreamContext(),
	)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var result map[string]any
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: invalid result: %w", method, err)
	}
	return result, nil
}

// ValidateSponsorshipPolicies 询问上游哪些策略接受该 UserOperation，按上游返回顺序返回 id
func (c *Client) ValidateSponsorshipPolicies(ctx context.Context, req *models.PaymasterRequest, policyIDs []string) ([]string, error) {
	var policies []SponsorshipPolicy
	err := c.call(ctx, req.ChainID, &policies, methodValidateSponsorshipPolicies,
		req.UserOp,
		req.EntryPoint.Address,
		policyIDs,
	)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(policies))
	for _, p := range policies {
		ids = append(ids, p.SponsorshipPolicyID)
	}
	return ids, nil
}

// Close 关闭所有缓存的 rpc 客户端
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for url, cl := range c.clients {
		cl.Close()
		delete(c.clients, url)
	}
}
