package handler

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"strconv"
	"strings"
	"video-tracker/service"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Claims are issued by the identity provider in front of this service.
// Subject carries the numeric user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// WithLogger puts a request scoped copy of the base logger into the request
// context so services can log through zerolog.Ctx.
func WithLogger(base context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := zerolog.Ctx(base).With().
			Str("request_id", uuid.NewString()).
			Str("path", c.FullPath()).
			Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

var errEmptySecret = errors.New("jwt secret is not configured")

// Authenticate rejects every token when secret is empty.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			abortWithError(c, service.ErrUnauthorized)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if len(secret) == 0 {
				return nil, errEmptySecret
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("rejected bearer token")
			abortWithError(c, service.ErrUnauthorized)
			return
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || userID == 0 {
			abortWithError(c, service.ErrUnauthorized)
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != role {
			abortWithError(c, service.ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint64 {
	return c.GetUint64(ctxUserID)
}

// RegisterBindings adds the service's custom validation tags to gin's binding
// engine.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return service.RegisterValidators(v)
}
