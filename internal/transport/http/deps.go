package http

import (
	"github.com/shop-auth-api/internal/infrastructure/dynamo"
	"github.com/shop-auth-api/internal/infrastructure/smtp"
	"github.com/shop-auth-api/internal/infrastructure/sns"
	"github.com/shop-auth-api/internal/infrastructure/token"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo      *dynamo.PrincipalRepo
	AdminRepo     *dynamo.PrincipalRepo
	SessionRepo   *dynamo.SessionRepo
	OperationRepo *dynamo.OperationRepo
	Mailer        smtp.Mailer
	SMSSender     sns.SMSSender
	TokenCodec    *token.Codec
}
