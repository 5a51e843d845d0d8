package models

// GatewayError 网关统一错误类型
type GatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Err     error  `json:"-"`
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// 错误码
const (
	ErrInvalidEnvelope       = "INVALID_ENVELOPE"
	ErrInvalidParams         = "INVALID_PARAMS"
	ErrUnsupportedEntryPoint = "UNSUPPORTED_ENTRYPOINT"
	ErrUnsupportedChain      = "UNSUPPORTED_CHAIN"
	ErrSponsorshipRejected   = "SPONSORSHIP_REJECTED"
	ErrUpstreamFailure       = "UPSTREAM_FAILURE"
)
