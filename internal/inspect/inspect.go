// Package inspect decodes access tokens for display. Claims are read
// without signature verification: the tokens shown were just issued to
// the caller, and resource tokens are frequently signed for an
// audience this client cannot validate anyway.
package inspect

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenDetails is the claim summary rendered for an access token.
type TokenDetails struct {
	Issuer   string    `json:"issuer,omitempty"`
	Audience []string  `json:"audience,omitempty"`
	TenantID string    `json:"tenantId,omitempty"`
	AppID    string    `json:"appId,omitempty"`
	Subject  string    `json:"subject,omitempty"`
	Roles    []string  `json:"roles,omitempty"`
	Scopes   []string  `json:"scopes,omitempty"`
	IssuedAt time.Time `json:"issuedAt,omitempty"`
	Expiry   time.Time `json:"expiry,omitempty"`

	// RemainingSeconds is the lifetime left at decode time, zero when
	// the token has expired or carries no expiry.
	RemainingSeconds int64 `json:"remainingSeconds,omitempty"`
	Expired          bool  `json:"expired"`

	Claims map[string]any `json:"claims"`
}

var parser = jwt.NewParser()

// Decode parses a JWT access token without verifying its signature
// and summarizes the claims Entra tokens commonly carry.
func Decode(raw string) (*TokenDetails, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return nil, fmt.Errorf("token is empty")
	}

	claims := jwt.MapClaims{}

	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	return summarize(claims), nil
}

func summarize(claims jwt.MapClaims) *TokenDetails {
	d := &TokenDetails{Claims: claims}

	d.Issuer, _ = claims.GetIssuer()
	d.Subject, _ = claims.GetSubject()

	if aud, err := claims.GetAudience(); err == nil {
		d.Audience = aud
	}

	d.TenantID = stringClaim(claims, "tid")

	// v1 tokens carry appid, v2 tokens azp.
	d.AppID = stringClaim(claims, "appid")
	if d.AppID == "" {
		d.AppID = stringClaim(claims, "azp")
	}

	d.Roles = stringSliceClaim(claims, "roles")

	if scp := stringClaim(claims, "scp"); scp != "" {
		d.Scopes = strings.Fields(scp)
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		d.IssuedAt = iat.Time
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		d.Expiry = exp.Time
		d.Expired = time.Now().After(exp.Time)

		if !d.Expired {
			d.RemainingSeconds = int64(time.Until(exp.Time).Seconds())
		}
	}

	return d
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)

	return s
}

func stringSliceClaim(claims jwt.MapClaims, name string) []string {
	raw, ok := claims[name].([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(raw))

	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}

	return out
}
