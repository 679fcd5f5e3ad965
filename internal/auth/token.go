package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/novincode/irannahal-api/internal/common"
)

// Service validates HS256 access tokens issued by the identity provider.
// Token issuance lives outside this API; only verification happens here.
type Service struct {
	Secret []byte
	Issuer string
	Skew   time.Duration
	Now    func() time.Time
}

func (s *Service) clock() jwt.Clock {
	if s.Now != nil {
		return jwt.ClockFunc(s.Now)
	}
	return jwt.ClockFunc(time.Now)
}

// ParseAccessToken verifies the signature and standard claims, returning
// the subject (user id).
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	options := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, s.Secret),
		jwt.WithValidate(true),
		jwt.WithClock(s.clock()),
		jwt.WithAcceptableSkew(s.Skew),
	}
	if s.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.Issuer))
	}
	parsed, err := jwt.ParseString(trimmed, options...)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	subject := parsed.Subject()
	if subject == "" {
		return "", common.NewAppError("UNAUTHORIZED", "token missing subject", http.StatusUnauthorized, nil)
	}
	return subject, nil
}
