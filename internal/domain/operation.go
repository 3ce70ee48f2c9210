package domain

// Recovery operation names. PK: principal_id, SK: name — at most one active
// operation per (principal_id, name) pair; a new start supersedes the old row.
const (
	OpForgotPassword = "forgot-password"
)

// Recovery operation statuses.
const (
	OpStatusStarted    = "STARTED"
	OpStatusOTPSent    = "OTP_SENT"
	OpStatusOTPCorrect = "OTP_CORRECT"
)

// RecoveryOperation tracks progress through the OTP-based password-reset
// flow. ExpiresAt is a Unix timestamp used as DynamoDB TTL; freshness is
// also checked on every read so correctness never depends on the TTL sweep.
type RecoveryOperation struct {
	PrincipalID string `json:"principal_id" dynamodbav:"principal_id"`
	Name        string `json:"name" dynamodbav:"name"`
	Status      string `json:"status" dynamodbav:"status"`
	OTP         string `json:"-" dynamodbav:"otp"`
	CreatedAt   int64  `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt   int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
