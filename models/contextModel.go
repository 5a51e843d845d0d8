package models

// PaymasterContext 调用方传入的 paymaster 上下文，二选一：
// {sponsorshipPolicyId: string} 或 {sponsorshipPolicyIds: string[]}
type PaymasterContext struct {
	SponsorshipPolicyID  *string  `json:"sponsorshipPolicyId,omitempty"`
	SponsorshipPolicyIDs []string `json:"sponsorshipPolicyIds,omitempty"`
}

// PolicyIDs 返回上下文中携带的全部策略 id（按原顺序）
func (c *PaymasterContext) PolicyIDs() []string {
	if c == nil {
		return nil
	}
	if c.SponsorshipPolicyID != nil {
		return []string{*c.SponsorshipPolicyID}
	}
	return c.SponsorshipPolicyIDs
}

// SponsorshipResult 赞助决策结果
type SponsorshipResult string

const (
	SponsorshipSponsor SponsorshipResult = "sponsor"
	SponsorshipReject  SponsorshipResult = "reject"
)

// ExtraParam 转发给上游 paymaster 的额外上下文
type ExtraParam struct {
	SponsorshipPolicyID string `json:"sponsorshipPolicyId"`
}

// SponsorshipDecision 赞助决策：Sponsor（可带策略 id）或 Reject
type SponsorshipDecision struct {
	Result     SponsorshipResult
	ExtraParam *ExtraParam
}

// Sponsored 是否同意赞助
func (d SponsorshipDecision) Sponsored() bool {
	return d.Result == SponsorshipSponsor
}

// UpstreamContext 生成转发给上游的 context 对象，无策略时为 {}
func (d SponsorshipDecision) UpstreamContext() map[string]any {
	out := map[string]any{}
	if d.ExtraParam != nil {
		out["sponsorshipPolicyId"] = d.ExtraParam.SponsorshipPolicyID
	}
	return out
}

// Sponsor 无条件赞助或按策略赞助
func Sponsor(extra *ExtraParam) SponsorshipDecision {
	return SponsorshipDecision{Result: SponsorshipSponsor, ExtraParam: extra}
}

// Reject 拒绝赞助
func Reject() SponsorshipDecision {
	return SponsorshipDecision{Result: SponsorshipReject}
}
