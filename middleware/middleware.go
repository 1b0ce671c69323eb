package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/medcenter/appointment-api/config"
	"github.com/medcenter/appointment-api/model"
	"github.com/medcenter/appointment-api/util"
	"gorm.io/gorm"
)

const (
	dbContextKey        = "db"
	actorIDContextKey   = "actorID"
	actorTypeContextKey = "actorType"
)

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PATCH, PUT")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Content-Type", "application/json")

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// DatabaseMiddleware injects the gorm DB handle into the request context.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dbContextKey, db)
		c.Next()
	}
}

// GetDB returns the gorm DB handle set by DatabaseMiddleware, or nil.
func GetDB(c *gin.Context) *gorm.DB {
	v, ok := c.Get(dbContextKey)
	if !ok {
		return nil
	}
	db, ok := v.(*gorm.DB)
	if !ok {
		return nil
	}
	return db
}

// RequireAuth validates the Bearer token and stores the verified actor
// identity in the request context. Handlers receive the actor explicitly via
// GetActor; no handler reads ambient request state for authorization.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Authorization token not provided",
				Err: fmt.Errorf("missing bearer token"),
			})
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return util.GetJWTSecretByte(), nil
		})
		if err != nil || !token.Valid {
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventUnauthorizedAccess,
				IP:        c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
				Message:   "invalid or expired token",
			})
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Invalid or expired token",
				Err: fmt.Errorf("token validation failed"),
			})
			c.Abort()
			return
		}

		sub, ok := claims["sub"].(float64)
		actorType, ok2 := claims["actor_type"].(string)
		if !ok || !ok2 || (actorType != model.ActorPatient && actorType != model.ActorDoctor) {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Invalid token claims",
				Err: fmt.Errorf("malformed identity claims"),
			})
			c.Abort()
			return
		}

		// A valid signature is not enough: logout revokes the session, so the
		// token must still be backed by a live session record.
		if !sessionActive(c, tokenString) {
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventUnauthorizedAccess,
				UserID:    fmt.Sprintf("%d", uint(sub)),
				IP:        c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
				Message:   "token has no active session",
			})
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Session expired or revoked",
				Err: fmt.Errorf("no active session for token"),
			})
			c.Abort()
			return
		}

		c.Set(actorIDContextKey, uint(sub))
		c.Set(actorTypeContextKey, actorType)
		c.Next()
	}
}

// sessionActive reports whether the token is still backed by a live session.
// The Redis cache decides on a hit; otherwise the sessions table is the
// source of truth, so revocation works even when the cache is cold or down.
func sessionActive(c *gin.Context, token string) bool {
	if rdb := config.GetRedisClient(); rdb != nil {
		if err := rdb.Get(c.Request.Context(), "session:"+token).Err(); err == nil {
			return true
		}
	}

	db := GetDB(c)
	if db == nil {
		return false
	}
	var count int64
	err := db.Model(&model.Session{}).
		Where("session_token = ? AND expires_at > ?", token, time.Now()).
		Count(&count).Error
	return err == nil && count > 0
}

// RequireActor enforces that the authenticated actor is of the given kind.
// It must be registered after RequireAuth.
func RequireActor(actorType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, kind, ok := GetActor(c)
		if !ok || kind != actorType {
			util.CallForbidden(c, util.APIErrorParams{
				Msg: fmt.Sprintf("This endpoint requires a %s account", actorType),
				Err: fmt.Errorf("actor is not a %s", actorType),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActor returns the verified actor id and kind set by RequireAuth.
func GetActor(c *gin.Context) (uint, string, bool) {
	idVal, ok := c.Get(actorIDContextKey)
	if !ok {
		return 0, "", false
	}
	typeVal, ok := c.Get(actorTypeContextKey)
	if !ok {
		return 0, "", false
	}
	id, ok := idVal.(uint)
	kind, ok2 := typeVal.(string)
	if !ok || !ok2 {
		return 0, "", false
	}
	return id, kind, true
}
