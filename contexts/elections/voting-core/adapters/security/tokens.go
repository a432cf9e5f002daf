package securityadapter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	domainerrors "github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/domain/errors"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"

	"github.com/golang-jwt/jwt/v5"
)

// HMACTokens issues HS256 JWTs carrying the voter, the code to consume and
// the role.
type HMACTokens struct {
	secret []byte
}

func NewHMACTokens(secret string) (*HMACTokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	return &HMACTokens{secret: []byte(secret)}, nil
}

type voterTokenClaims struct {
	VoterID string `json:"voterId"`
	OTPID   string `json:"otpId,omitempty"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

func (t *HMACTokens) Issue(claims ports.VoterClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, voterTokenClaims{
		VoterID: claims.VoterID,
		OTPID:   claims.OTPID,
		Role:    claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.VoterID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign voter token: %w", err)
	}
	return signed, nil
}

// Parse accepts only HS256 tokens signed with this secret that carry an
// expiry later than now. Every rejection is ErrInvalidToken.
func (t *HMACTokens) Parse(token string, now time.Time) (ports.VoterClaims, error) {
	var claims voterTokenClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return ports.VoterClaims{}, domainerrors.ErrInvalidToken
	}

	result := ports.VoterClaims{
		VoterID: claims.VoterID,
		OTPID:   claims.OTPID,
		Role:    claims.Role,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.UTC()
	}
	result.ExpiresAt = claims.ExpiresAt.UTC()
	return result, nil
}
