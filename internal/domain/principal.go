package domain

import "time"

// Principal types. Each type lives in its own DynamoDB table (partition);
// the access-control middleware for a route group only ever queries one of them.
const (
	TypeUser  = "user"
	TypeAdmin = "admin"
)

// User roles. Admins carry no role — the partition itself is the privilege.
const (
	RoleCustomer = "customer"
	RoleMerchant = "merchant"
)

// Principal is an authenticated identity, either a User or an Admin.
// Restricted principals cannot log in, pass the auth middleware, or
// start/progress a recovery operation.
type Principal struct {
	PrincipalID  string     `json:"id" dynamodbav:"principal_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        *string    `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Type         string     `json:"type" dynamodbav:"type"` // "user" | "admin"
	Role         string     `json:"role,omitempty" dynamodbav:"role"`
	Restricted   bool       `json:"restricted" dynamodbav:"restricted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role" validate:"omitempty,oneof=customer merchant"`
}
