package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenTypeAccess is the only token type the API accepts.
const TokenTypeAccess = "access"

// JWTService issues and validates bearer tokens identifying an employee.
type JWTService interface {
	// GenerateToken creates a signed access token for employeeID.
	GenerateToken(ctx context.Context, employeeID uuid.UUID) (string, error)

	// ValidateToken verifies tokenString and returns its claims. Expired,
	// badly signed and non-access tokens are rejected.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the validated contents of a token.
type Claims struct {
	// EmployeeID is the actor on whose behalf requests are made.
	EmployeeID uuid.UUID `json:"eid,omitempty"`
	TokenType  string    `json:"type,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
