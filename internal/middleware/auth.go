package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/topup-store/internal/telemetry"
)

const userIDKey = "user_id"

var (
	errNoToken      = errors.New("missing bearer token")
	errNoSecret     = errors.New("authentication is not configured")
	errNoUserClaim  = errors.New("token has no user id")
	errBadUserClaim = errors.New("token user id is not a positive integer")
)

// Auth verifies an HS256 bearer token and stores the caller's user id in the
// gin context. The id comes from the user_id claim, falling back to sub.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		userID, err := authenticate(c.GetHeader("Authorization"), key)
		if err != nil {
			telemetry.Logger.Info("Rejected unauthenticated request",
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString("request_id")),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by Auth.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func authenticate(header string, key []byte) (int64, error) {
	if len(key) == 0 {
		return 0, errNoSecret
	}

	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return 0, errNoToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(fields[1], claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return 0, err
	}

	raw, ok := claims["user_id"]
	if !ok {
		raw, ok = claims["sub"]
	}
	if !ok {
		return 0, errNoUserClaim
	}
	return parseUserID(raw)
}

func parseUserID(raw interface{}) (int64, error) {
	var id int64
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, errBadUserClaim
		}
		id = int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errBadUserClaim
		}
		id = n
	default:
		return 0, errBadUserClaim
	}
	if id < 1 {
		return 0, errBadUserClaim
	}
	return id, nil
}
