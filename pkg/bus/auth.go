package bus

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/tauraamui/xerror"
)

const (
	tokenAudience = "framerelay"
	tokenLifetime = 15 * time.Minute
)

type busClaims struct {
	jwt.StandardClaims
}

var timeNow = func() time.Time {
	return time.Now()
}

// GenToken signs a bearer token for subject which a server configured with
// the same secret will accept.
func GenToken(secret, subject string) (string, error) {
	now := timeNow().UTC()
	claims := busClaims{
		StandardClaims: jwt.StandardClaims{
			Audience:  tokenAudience,
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenLifetime).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken returns the token's subject.
func ValidateToken(secret, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&busClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, xerror.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return "", xerror.Errorf("%w: unable to validate token: %v", ErrUnauthorized, err)
	}

	return checkClaims(token.Claims)
}

func checkClaims(claims jwt.Claims) (string, error) {
	bc, ok := claims.(*busClaims)
	if !ok {
		return "", xerror.Errorf("%w: unable to parse claims", ErrUnauthorized)
	}

	if !bc.VerifyAudience(tokenAudience, true) {
		return "", xerror.Errorf("%w: token audience mismatch", ErrUnauthorized)
	}

	if bc.ExpiresAt < timeNow().UTC().Unix() {
		return "", xerror.Errorf("%w: auth token has expired", ErrUnauthorized)
	}

	return bc.Subject, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func authorize(secret string, r *http.Request) (string, error) {
	if len(secret) == 0 {
		return "", nil
	}
	token := bearerToken(r)
	if len(token) == 0 {
		return "", xerror.Errorf("%w: missing bearer token", ErrUnauthorized)
	}
	return ValidateToken(secret, token)
}
