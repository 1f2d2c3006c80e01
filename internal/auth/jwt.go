package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by JWTMiddleware
const (
	SubjectKey = "token_subject"
	ScopeKey   = "token_scope"
)

// Token defaults
const (
	Issuer          = "flowai"
	DefaultTokenTTL = 24 * time.Hour
	ScopeHistory    = "assessments:read"
)

// Claims represents JWT claims
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token operations
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// GenerateToken issues an HS256 token for subject valid for ttl
func (j *JWTService) GenerateToken(subject, scope string, ttl time.Duration) (string, time.Time, error) {
	if len(j.secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := j.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(j.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// JWTMiddleware rejects requests without a valid bearer token carrying scope
func JWTMiddleware(service *JWTService, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": "UNAUTHORIZED"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required", "code": "UNAUTHORIZED"})
			return
		}

		claims, err := service.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "code": "UNAUTHORIZED"})
			return
		}

		if scope != "" && !hasScope(claims.Scope, scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient scope", "code": "FORBIDDEN"})
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Set(ScopeKey, claims.Scope)
		c.Next()
	}
}

func hasScope(granted, want string) bool {
	for _, s := range strings.Fields(granted) {
		if s == want {
			return true
		}
	}
	return false
}
