// Package session issues and validates the signed borrower session produced
// by a successful dashboard login. Sessions are passed explicitly in the
// Authorization header, never held in server-side state.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/pkg/apperrors"
)

// BorrowerSession is what a dashboard login establishes: which loan the
// visitor proved access to, the upstream access token returned by the
// servicing system, and the denormalized loan snapshot from the login
// response. The snapshot rides inside the signed token, so no server-side
// session state exists.
type BorrowerSession struct {
	LoanID      string
	LoanNumber  string
	AccessToken string
	Snapshot    *vesta.LoanSnapshot
}

type claims struct {
	LoanID      string              `json:"loanId"`
	LoanNumber  string              `json:"loanNumber"`
	AccessToken string              `json:"accessToken,omitempty"`
	Snapshot    *vesta.LoanSnapshot `json:"snapshot,omitempty"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a session token for the given loan.
func (m *Manager) Issue(sess BorrowerSession) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		LoanID:      sess.LoanID,
		LoanNumber:  sess.LoanNumber,
		AccessToken: sess.AccessToken,
		Snapshot:    sess.Snapshot,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.LoanID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign session: %v", apperrors.ErrInternalServer, err)
	}
	return signed, nil
}

// Parse validates a session token and returns its claims. Expired or
// tampered tokens come back as ErrUnauthorized.
func (m *Manager) Parse(tokenString string) (*BorrowerSession, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid session token", apperrors.ErrUnauthorized)
	}
	return &BorrowerSession{
		LoanID:      c.LoanID,
		LoanNumber:  c.LoanNumber,
		AccessToken: c.AccessToken,
		Snapshot:    c.Snapshot,
	}, nil
}
