package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"stockdata-backend/config"
)

// IngressClaims are the claims the provider puts on its callback tokens
type IngressClaims struct {
	jwt.RegisteredClaims
	Source string `json:"source"`
}

// IngressAuthMiddleware validates the shared-secret JWT on provider callback
// requests. When no ingress secret is configured the check is a pass-through,
// matching a local setup where the provider runs on the same host.
func IngressAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := ""
		if config.AppConfig != nil {
			secret = config.AppConfig.IngressSecret
		}
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header is required",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid authorization header format. Use: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := validateIngressToken(tokenString, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("Invalid token: %v", err),
			})
			c.Abort()
			return
		}

		c.Set("ingress_source", claims.Source)
		c.Next()
	}
}

func validateIngressToken(tokenString, secret string) (*IngressClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IngressClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*IngressClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("token has expired")
	}

	return claims, nil
}
