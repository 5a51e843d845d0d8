package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gin-gonic/gin"

	"erc7677-proxy/chains"
	"erc7677-proxy/config"
	"erc7677-proxy/logger"
	"erc7677-proxy/metrics"
	"erc7677-proxy/models"
	"erc7677-proxy/paymaster"
	"erc7677-proxy/sponsorship"
	"erc7677-proxy/store"
	"erc7677-proxy/validators"
)

// Paymaster 上游 paymaster 服务
type Paymaster interface {
	sponsorship.PolicyValidator
	GetPaymasterStubData(ctx context.Context, req *models.PaymasterRequest, decision models.SponsorshipDecision) (map[string]any, error)
	GetPaymasterData(ctx context.Context, req *models.PaymasterRequest, decision models.SponsorshipDecision) (map[string]any, error)
}

type PaymasterController struct {
	cfg       *config.Config
	validator *validators.RequestValidator
	registry  chains.Registry
	resolver  *sponsorship.Resolver
	paymaster Paymaster
	store     store.Store
	log       logger.Logger
	metrics   metrics.Recorder
}

// NewPaymasterController 创建一个新的 PaymasterController 实例
func NewPaymasterController(cfg *config.Config, registry chains.Registry, pm Paymaster, st store.Store, log logger.Logger, rec metrics.Recorder) *PaymasterController {
	if st == nil {
		st = store.NoopStore{}
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &PaymasterController{
		cfg:       cfg,
		validator: validators.NewRequestValidator(validators.NewDispatcher(cfg.MaxHexDataBytes)),
		registry:  registry,
		resolver:  sponsorship.NewResolver(pm, cfg.SponsorshipPolicyIDs),
		paymaster: pm,
		store:     st,
		log:       log,
		metrics:   rec,
	}
}

// HandlePaymaster 处理 ERC-7677 请求，支持单个请求和批量请求
func (ctrl *PaymasterController) HandlePaymaster(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ctrl.maxBodyBytes())
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		ctrl.fail(c, nil, &models.GatewayError{Code: models.ErrInvalidEnvelope, Message: "Invalid JSON-RPC Request", Err: err})
		return
	}

	// 第一阶段：JSON-RPC 外壳校验
	envs, batch, err := validators.ParseEnvelope(body)
	if err != nil {
		ctrl.fail(c, nil, err)
		return
	}

	// 先校验全部调用，任意一个失败则整体失败，不发出任何上游请求
	calls := make([]*preparedCall, 0, len(envs))
	for _, env := range envs {
		call, err := ctrl.prepare(env)
		if err != nil {
			ctrl.fail(c, env, err)
			return
		}
		calls = append(calls, call)
	}

	responses := make([]*models.JsonRpcResponse, 0, len(calls))
	for _, call := range calls {
		resp, err := ctrl.execute(c.Request.Context(), call)
		if err != nil {
			ctrl.fail(c, call.env, err)
			return
		}
		responses = append(responses, resp)
	}

	if batch {
		c.JSON(http.StatusOK, responses)
		return
	}
	c.JSON(http.StatusOK, responses[0])
}

// maxBodyBytes 请求体上限：每个调用最多携带若干个达到上限的 hex 字段
func (ctrl *PaymasterController) maxBodyBytes() int64 {
	maxHex := ctrl.cfg.MaxHexDataBytes
	if maxHex <= 0 {
		maxHex = validators.DefaultMaxHexDataBytes
	}
	return int64(maxHex)*2*hexFieldsPerBody + bodyOverheadBytes
}

const (
	hexFieldsPerBody  = 4
	bodyOverheadBytes = 64 << 10
)

// preparedCall 通过校验和链、EntryPoint 检查的调用
type preparedCall struct {
	env    *models.JsonRpcEnvelope
	req    *models.PaymasterRequest
	chain  models.Chain
	labels map[string]string
}

// prepare 第二阶段校验以及链、EntryPoint 检查，不访问上游
func (ctrl *PaymasterController) prepare(env *models.JsonRpcEnvelope) (*preparedCall, error) {
	// 第二阶段：ERC-7677 参数校验
	req, err := ctrl.validator.ParseRequest(env)
	if err != nil {
		return nil, err
	}

	ctrl.log.Info("<-- paymaster request", map[string]any{
		"method":     req.Method,
		"chainId":    req.ChainID.String(),
		"entryPoint": req.EntryPoint.Address.Hex(),
		"context":    req.Context,
	})

	// 校验链，不支持的链统一使用 unsupported 标签
	chain, ok := ctrl.registry.Lookup(req.ChainID)
	if !ok || !ctrl.cfg.ChainAllowed(chain.ID) {
		ctrl.metrics.IncCounter("requests", map[string]string{"method": req.Method, "chain": unsupportedChainLabel})
		return nil, &models.GatewayError{
			Code:    models.ErrUnsupportedChain,
			Message: "Unsupported chain. Supported chains are " + ctrl.supportedChains(),
			Data:    req.ChainID.String(),
		}
	}

	labels := map[string]string{"method": req.Method, "chain": strconv.FormatUint(chain.ID, 10)}
	ctrl.metrics.IncCounter("requests", labels)

	// 校验 EntryPoint 是否启用
	if !ctrl.cfg.EntryPointEnabled(req.EntryPoint.Version) {
		return nil, &models.GatewayError{
			Code:    models.ErrUnsupportedEntryPoint,
			Message: "EntryPoint not supported",
			Data:    req.EntryPoint.Address.Hex(),
		}
	}

	return &preparedCall{env: env, req: req, chain: chain, labels: labels}, nil
}

const unsupportedChainLabel = "unsupported"

// execute 赞助决策并调用上游 paymaster
func (ctrl *PaymasterController) execute(ctx context.Context, call *preparedCall) (*models.JsonRpcResponse, error) {
	req, labels := call.req, call.labels

	decision, err := ctrl.resolver.Resolve(ctx, req, call.chain)
	if err != nil {
		ctrl.metrics.IncCounter("upstream_error", labels)
		ctrl.record(ctx, req, decision, models.OutcomeUpstreamError)
		return nil, err
	}
	if !decision.Sponsored() {
		ctrl.log.Warn("sponsorship rejected", map[string]any{
			"sender":  req.UserOp.GetSender().Hex(),
			"chainId": req.ChainID.String(),
		})
		ctrl.metrics.IncCounter("rejected", labels)
		ctrl.record(ctx, req, decision, models.OutcomeRejected)
		return nil, &models.GatewayError{Code: models.ErrSponsorshipRejected, Message: "Rejected"}
	}

	var result map[string]any
	if req.IsStub() {
		result, err = ctrl.paymaster.GetPaymasterStubData(ctx, req, decision)
	} else {
		result, err = ctrl.paymaster.GetPaymasterData(ctx, req, decision)
	}
	if err != nil {
		ctrl.metrics.IncCounter("upstream_error", labels)
		ctrl.record(ctx, req, decision, models.OutcomeUpstreamError)
		return nil, &models.GatewayError{
			Code:    models.ErrUpstreamFailure,
			Message: "paymaster service call failed",
			Err:     err,
		}
	}

	ctrl.log.Debug("--> paymaster result", map[string]any{
		"decision": sponsorship.String(decision),
		"result":   result,
	})
	ctrl.metrics.IncCounter("sponsored", labels)
	ctrl.record(ctx, req, decision, models.OutcomeSponsored)

	return &models.JsonRpcResponse{
		Result:  paymaster.EncodeResult(result),
		ID:      call.env.ID,
		JSONRPC: call.env.JSONRPC,
	}, nil
}

// supportedChains 有白名单时列出白名单 id，否则列出所有已知链名
func (ctrl *PaymasterController) supportedChains() string {
	if len(ctrl.cfg.ChainIDWhitelist) > 0 {
		ids := make([]string, len(ctrl.cfg.ChainIDWhitelist))
		for i, id := range ctrl.cfg.ChainIDWhitelist {
			ids[i] = strconv.FormatUint(id, 10)
		}
		return strings.Join(ids, ", ")
	}
	return strings.Join(ctrl.registry.Names(), ", ")
}

// record 写入审计记录，失败只记日志
func (ctrl *PaymasterController) record(ctx context.Context, req *models.PaymasterRequest, decision models.SponsorshipDecision, outcome string) {
	rec := models.SponsorshipRecord{
		Method:            req.Method,
		ChainID:           req.ChainID.Uint64(),
		EntryPoint:        req.EntryPoint.Address.Hex(),
		EntryPointVersion: req.EntryPoint.Version.String(),
		Sender:            req.UserOp.GetSender().Hex(),
		Outcome:           outcome,
		CreatedAt:         time.Now(),
	}
	if decision.ExtraParam != nil {
		rec.PolicyID = decision.ExtraParam.SponsorshipPolicyID
	}
	if err := ctrl.store.Record(ctx, rec); err != nil {
		ctrl.log.Error("failed to record sponsorship", map[string]any{"error": err.Error()})
	}
}

// fail 按错误码写回响应
func (ctrl *PaymasterController) fail(c *gin.Context, env *models.JsonRpcEnvelope, err error) {
	var gerr *models.GatewayError
	if !errors.As(err, &gerr) {
		gerr = &models.GatewayError{Code: models.ErrUpstreamFailure, Message: "internal error", Err: err}
	}
	_ = c.Error(err)

	switch gerr.Code {
	case models.ErrInvalidEnvelope, models.ErrUnsupportedChain, models.ErrUnsupportedEntryPoint:
		c.String(http.StatusNotFound, "%s", gerr.Message)
	case models.ErrInvalidParams:
		c.JSON(http.StatusNotFound, gerr.Data)
	case models.ErrSponsorshipRejected:
		c.String(http.StatusForbidden, "%s", gerr.Message)
	default:
		ctrl.log.Error("paymaster request failed", map[string]any{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, upstreamErrorResponse(env, gerr))
	}
}

// upstreamErrorResponse 上游错误转换为 JSON-RPC 错误响应，保留上游错误码
func upstreamErrorResponse(env *models.JsonRpcEnvelope, gerr *models.GatewayError) *models.JsonRpcErrorResponse {
	resp := &models.JsonRpcErrorResponse{
		JSONRPC: models.JSONRPCVersion,
		Error: &models.JsonRpcError{
			Code:    -32603,
			Message: gerr.Error(),
		},
	}
	if env != nil {
		resp.ID = env.ID
	}

	var rpcErr rpc.Error
	if errors.As(gerr, &rpcErr) {
		resp.Error.Code = rpcErr.ErrorCode()
		resp.Error.Message = rpcErr.Error()
	}
	var dataErr rpc.DataError
	if errors.As(gerr, &dataErr) {
		resp.Error.Data = dataErr.ErrorData()
	}
	return resp
}
