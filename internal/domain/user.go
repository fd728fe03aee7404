package domain

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// User is created on first successful OIDC login, keyed on the
// (issuer, subject) pair handed over by the identity provider.
type User struct {
	ID          string
	OIDCIssuer  string
	OIDCSubject string
	Email       *string
	Name        *string
	Picture     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AnonymousUser is the fixed fixture used when auth is disabled
// (config.AuthEnabled == false). It is never persisted.
var AnonymousUser = User{
	ID:          "00000000-0000-0000-0000-000000000000",
	OIDCIssuer:  "local",
	OIDCSubject: "anonymous",
}
