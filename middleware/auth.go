package middleware

import (
	"DreamAI/pkg/config"
	tokenstore "DreamAI/pkg/token"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ContextSubjectKey = "current_subject"
	ContextJTIKey     = "current_jti"
	ContextExpKey     = "current_exp"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token has been revoked")
)

// PINSource tells whether a PIN has been configured.
type PINSource interface {
	PINHash(ctx context.Context) string
}

// Claims of an unlock token.
type Claims struct {
	Subject string
	JTI     string
	Expires time.Time
}

// IssueToken signs an HS256 token for subject valid for ttl.
func IssueToken(subject string, ttl time.Duration) (string, Claims, error) {
	cl := Claims{Subject: subject, JTI: uuid.NewString(), Expires: time.Now().Add(ttl)}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": cl.Subject,
		"exp": cl.Expires.Unix(),
		"jti": cl.JTI,
	})
	s, err := token.SignedString([]byte(config.JWTSecret))
	return s, cl, err
}

// ParseToken validates signature, expiry and revocation.
func ParseToken(tokenStr string) (Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// only accept HMAC signing
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	var cl Claims
	cl.JTI, _ = mc["jti"].(string)
	cl.Subject, _ = mc["sub"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		cl.Expires = exp.Time
	}
	if cl.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	if tokenstore.IsRevoked(cl.JTI) {
		return Claims{}, ErrRevokedToken
	}
	return cl, nil
}

func bearer(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		parts := strings.Fields(auth)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	// browsers cannot set headers on a websocket upgrade
	return strings.TrimSpace(c.Query("token"))
}

// AppLock requires a valid unlock token once APP_LOCK_ENABLED=1 and a PIN
// has been set. Without a PIN the app is open.
func AppLock(pins PINSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.AppLockEnabled || pins.PINHash(c.Request.Context()) == "" {
			c.Next()
			return
		}
		tokenStr := bearer(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}
		cl, err := ParseToken(tokenStr)
		if errors.Is(err, ErrRevokedToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token has been revoked (logout)"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid token"})
			return
		}
		c.Set(ContextSubjectKey, cl.Subject)
		c.Set(ContextJTIKey, cl.JTI)
		c.Set(ContextExpKey, cl.Expires)
		c.Next()
	}
}
