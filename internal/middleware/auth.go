package middleware

import (
	"net/http"
	"strings"

	"affiliate/internal/repository"
	"affiliate/internal/service"
	"affiliate/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	accessTokenCookie = "access_token"
	tokenMaxAge       = 3600 * 24
)

// Auth validates operator tokens and binds requests to a workspace
type Auth struct {
	secret     []byte
	workspaces repository.WorkspaceRepository
	release    bool
	log        *zap.Logger
}

func NewAuth(secret []byte, workspaces repository.WorkspaceRepository, release bool, log *zap.Logger) *Auth {
	return &Auth{secret: secret, workspaces: workspaces, release: release, log: log}
}

// SetTokenCookie sets access_token as an HttpOnly cookie
func (a *Auth) SetTokenCookie(c *gin.Context, accessToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite, secure := http.SameSiteLaxMode, false
	if a.release {
		sameSite, secure = http.SameSiteNoneMode, true
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, accessToken, tokenMaxAge, "/", "", secure, true)
}

// ClearTokenCookie removes the access_token cookie
func (a *Auth) ClearTokenCookie(c *gin.Context) {
	sameSite, secure := http.SameSiteLaxMode, false
	if a.release {
		sameSite, secure = http.SameSiteNoneMode, true
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", secure, true)
}

// RequireUser validates the JWT and sets userID and userName on the gin context
func (a *Auth) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fallback to Authorization header
		tokenString, cookieErr := c.Cookie(accessTokenCookie)
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				abort(c, http.StatusUnauthorized, "Authorization is missing")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				abort(c, http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'")
				return
			}
			tokenString = parts[1]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abort(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}
		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token subject")
			return
		}
		name, _ := claims["name"].(string)

		c.Set("userID", userID.String())
		c.Set("userName", name)
		c.Next()
	}
}

// RequireWorkspace resolves the workspaceId query param, checks membership and
// stores the request-scoped service.Actor. It must run after RequireUser.
func (a *Auth) RequireWorkspace() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetString("userID"))
		if err != nil {
			abort(c, http.StatusUnauthorized, "User ID not found in context")
			return
		}

		raw := c.Query("workspaceId")
		if raw == "" {
			abort(c, http.StatusBadRequest, "workspaceId is required.")
			return
		}
		workspaceID, err := uuid.Parse(raw)
		if err != nil {
			abort(c, http.StatusBadRequest, "Invalid workspaceId.")
			return
		}

		ok, err := a.workspaces.IsMember(c.Request.Context(), workspaceID, userID)
		if err != nil {
			a.log.Error("workspace membership check failed",
				zap.String("workspace_id", workspaceID.String()),
				zap.Error(err))
			abort(c, http.StatusInternalServerError, "Failed to verify workspace access")
			return
		}
		if !ok {
			abort(c, http.StatusForbidden, "Access denied: not a member of this workspace")
			return
		}

		actor := service.Actor{UserID: userID, Name: c.GetString("userName"), WorkspaceID: workspaceID}
		c.Request = c.Request.WithContext(service.WithActor(c.Request.Context(), actor))
		c.Set("workspaceID", workspaceID.String())
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, response.Error(status, message))
}
