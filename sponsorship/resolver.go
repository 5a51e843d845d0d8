// Package sponsorship 决定 paymaster 请求是否赞助以及使用哪个策略
package sponsorship

import (
	"context"
	"fmt"

	"erc7677-proxy/models"
)

// PolicyValidator 询问上游 policyIDs 中哪些策略接受 req
type PolicyValidator interface {
	ValidateSponsorshipPolicies(ctx context.Context, req *models.PaymasterRequest, policyIDs []string) ([]string, error)
}

// Resolver 合并调用方与配置的策略 id，得出赞助决策
type Resolver struct {
	validator        PolicyValidator
	defaultPolicyIDs []string
}

// NewResolver 创建 Resolver，defaultPolicyIDs 排在请求 context 中的 id 之后
func NewResolver(validator PolicyValidator, defaultPolicyIDs []string) *Resolver {
	return &Resolver{
		validator:        validator,
		defaultPolicyIDs: append([]string(nil), defaultPolicyIDs...),
	}
}

// Resolve 返回 req 在 chain 上的赞助决策。
//
// 测试网直接赞助，不带策略。否则候选 id 为请求中的 id 加上默认 id（去重）。
// 没有候选时无条件赞助；有候选时只调用一次上游校验，按候选顺序取第一个被接受的 id，
// 都不接受则拒绝。校验调用失败返回 UPSTREAM_FAILURE，不视为拒绝
func (r *Resolver) Resolve(ctx context.Context, req *models.PaymasterRequest, chain models.Chain) (models.SponsorshipDecision, error) {
	if chain.Testnet {
		return models.Sponsor(nil), nil
	}

	candidates := MergePolicyIDs(req.Context.PolicyIDs(), r.defaultPolicyIDs)
	if len(candidates) == 0 {
		return models.Sponsor(nil), nil
	}

	valid, err := r.validator.ValidateSponsorshipPolicies(ctx, req, candidates)
	if err != nil {
		return models.SponsorshipDecision{}, &models.GatewayError{
			Code:    models.ErrUpstreamFailure,
			Message: "sponsorship policy validation failed",
			Err:     err,
		}
	}

	accepted := make(map[string]struct{}, len(valid))
	for _, id := range valid {
		accepted[id] = struct{}{}
	}
	for _, id := range candidates {
		if _, ok := accepted[id]; ok {
			return models.Sponsor(&models.ExtraParam{SponsorshipPolicyID: id}), nil
		}
	}
	return models.Reject(), nil
}

// MergePolicyIDs 按顺序拼接列表，重复 id 保留第一次出现，空 id 丢弃
func MergePolicyIDs(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, id := range list {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// String 用于日志输出
func String(d models.SponsorshipDecision) string {
	if !d.Sponsored() {
		return "reject"
	}
	if d.ExtraParam == nil {
		return "sponsor"
	}
	return fmt.Sprintf("sponsor(policy=%s)", d.ExtraParam.SponsorshipPolicyID)
}
