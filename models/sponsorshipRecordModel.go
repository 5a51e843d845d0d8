package models

import "time"

// 赞助记录结果
const (
	OutcomeSponsored     = "sponsored"
	OutcomeRejected      = "rejected"
	OutcomeUpstreamError = "upstream_error"
)

// SponsorshipRecord 一次赞助决策的审计记录；不保存调用方 context，只保存最终策略 id
type SponsorshipRecord struct {
	Method            string    `json:"method" bson:"method"`
	ChainID           uint64    `json:"chainId" bson:"chainId"`
	EntryPoint        string    `json:"entryPoint" bson:"entryPoint"`
	EntryPointVersion string    `json:"entryPointVersion" bson:"entryPointVersion"`
	Sender            string    `json:"sender" bson:"sender"`
	PolicyID          string    `json:"policyId,omitempty" bson:"policyId,omitempty"`
	Outcome           string    `json:"outcome" bson:"outcome"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
}
