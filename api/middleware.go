package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const operatorRole = "operator"

func orPass(h gin.HandlerFunc) gin.HandlerFunc {
	if h != nil {
		return h
	}
	return func(c *gin.Context) { c.Next() }
}

// OperatorAuth requires an HS256 bearer token whose role claim is "operator". An empty
// secret disables the check.
func OperatorAuth(secret string) gin.HandlerFunc {
	if secret == "" {
		return nil
	}
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) <= 7 || !strings.EqualFold(header[:7], "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token", Code: "UNAUTHORIZED"})
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(header[7:], claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid token", Code: "UNAUTHORIZED"})
			return
		}
		if role, _ := claims["role"].(string); role != operatorRole {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "operator role required", Code: "FORBIDDEN"})
			return
		}
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			c.Set("operator", sub)
		}
		c.Next()
	}
}

// RateLimit limits requests per client IP. rate uses the limiter format, e.g. "60-M".
// Counters live in redis when a client is given, in memory otherwise or when the redis
// store cannot be prepared.
func RateLimit(client *redis.Client, rate, prefix string, log *zap.Logger) (gin.HandlerFunc, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", rate, err)
	}

	options := limiter.StoreOptions{Prefix: "rate_limiter:" + prefix, MaxRetry: 3}
	var store limiter.Store
	if client != nil {
		store, err = redisstore.NewStoreWithOptions(client, options)
		if err != nil {
			log.Warn("redis rate limit store unavailable, counting in memory",
				zap.String("prefix", prefix), zap.Error(err))
			store = nil
		}
	}
	if store == nil {
		store = memory.NewStoreWithOptions(options)
	}

	return ginlimiter.NewMiddleware(limiter.New(store, parsed)), nil
}
