package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Permission areas.
const (
	AreaCash           = "cash"
	AreaBanks          = "banks"
	AreaDebts          = "debts"
	AreaReceivables    = "receivables"
	AreaPOS            = "pos"
	AreaDollarCards    = "dollar_cards"
	AreaOperatingCosts = "operating_costs"
	AreaExternalValues = "external_values"
	AreaSettings       = "settings"
)

// Permission actions.
const (
	ActionView   = "view"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

const claimsKey = "treasury.claims"

// Claims is the JWT payload. Permissions lists "area:action" entries; "*"
// grants everything and "area:*" every action in an area.
type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Allows reports whether the claims grant action on area.
func (c *Claims) Allows(area, action string) bool {
	return slices.Contains(c.Permissions, "*") ||
		slices.Contains(c.Permissions, area+":*") ||
		slices.Contains(c.Permissions, area+":"+action)
}

// Auth validates bearer tokens signed with an HMAC secret. A zero Auth, or
// one with Required false and no token presented, lets every request
// through.
type Auth struct {
	Secret   []byte
	Required bool
}

// IssueToken signs a token for subject with the given permissions.
func IssueToken(secret []byte, subject string, permissions []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (a Auth) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Middleware parses the Authorization header and stores the claims on the
// request context.
func (a Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if a.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
				return
			}
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}
		claims, err := a.parse(raw)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequirePermission rejects requests whose claims do not grant action on
// area. Without claims the request passes only when auth is not required.
func (a Auth) RequirePermission(area, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(claimsKey)
		if !ok {
			if a.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
				return
			}
			c.Next()
			return
		}
		if !v.(*Claims).Allows(area, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("permission %s:%s required", area, action)})
			return
		}
		c.Next()
	}
}
