package domain

import "time"

// Session kinds. The kind selects the expiry policy: standard sessions live
// ~360 days, temporary sessions 10 minutes.
const (
	SessionKindStandard  = "standard"
	SessionKindTemporary = "temporary"
)

// Session is a server-held record granting a principal continued access.
// A row exists if and only if the session is still presentable: invalidation
// is physical deletion, never a status flag, so revocation takes effect
// immediately for every previously issued token referencing the row.
type Session struct {
	SessionID     string     `json:"id" dynamodbav:"session_id"`
	PrincipalID   string     `json:"principal_id" dynamodbav:"principal_id"`
	PrincipalType string     `json:"principal_type" dynamodbav:"principal_type"`
	Temp          bool       `json:"temp" dynamodbav:"temp"`
	Device        string     `json:"device,omitempty" dynamodbav:"device"` // audit only
	IP            string     `json:"ip,omitempty" dynamodbav:"ip"`         // audit only
	CreatedAt     time.Time  `json:"created" dynamodbav:"created_at"`
	Principal     *Principal `json:"principal,omitempty" dynamodbav:"-"`
}

// Kind returns the session kind derived from the Temp flag.
func (s *Session) Kind() string {
	if s.Temp {
		return SessionKindTemporary
	}
	return SessionKindStandard
}
