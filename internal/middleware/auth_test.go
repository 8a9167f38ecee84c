package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"affiliate/internal/service"
	"affiliate/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var secret = []byte("test-secret")

type fakeWorkspaces struct {
	members map[uuid.UUID]uuid.UUID
	err     error
}

func (f fakeWorkspaces) IsMember(_ context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.members[userID] == workspaceID, nil
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newRouter(auth *Auth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", auth.RequireUser(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("userID"))
	})
	r.GET("/scoped", auth.RequireUser(), auth.RequireWorkspace(), func(c *gin.Context) {
		actor, ok := service.ActorFromContext(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": actor.UserID, "name": actor.Name, "workspace": actor.WorkspaceID})
	})
	return r
}

func TestRequireUser(t *testing.T) {
	user := uuid.New()
	auth := NewAuth(secret, fakeWorkspaces{}, false, zap.NewNop())
	router := newRouter(auth)
	valid := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": user.String(), "exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: valid}) }, http.StatusOK},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bad scheme", func(r *http.Request) { r.Header.Set("Authorization", "Token "+valid) }, http.StatusUnauthorized},
		{"wrong secret", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": user.String()}))
		}, http.StatusUnauthorized},
		{"expired", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": user.String(), "exp": time.Now().Add(-time.Hour).Unix()}))
		}, http.StatusUnauthorized},
		{"non-uuid subject", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "admin"}))
		}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.status == http.StatusOK && w.Body.String() != user.String() {
				t.Fatalf("userID = %q, want %q", w.Body.String(), user)
			}
		})
	}
}

func TestRequireWorkspace(t *testing.T) {
	user, ws := uuid.New(), uuid.New()
	token := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": user.String(), "name": "Grace"})

	tests := []struct {
		name       string
		workspaces fakeWorkspaces
		query      string
		status     int
		message    string
	}{
		{"member", fakeWorkspaces{members: map[uuid.UUID]uuid.UUID{user: ws}}, "?workspaceId=" + ws.String(), http.StatusOK, ""},
		{"missing workspace", fakeWorkspaces{}, "", http.StatusBadRequest, "workspaceId is required."},
		{"malformed workspace", fakeWorkspaces{}, "?workspaceId=abc", http.StatusBadRequest, "Invalid workspaceId."},
		{"not a member", fakeWorkspaces{}, "?workspaceId=" + ws.String(), http.StatusForbidden, "Access denied: not a member of this workspace"},
		{"store failure", fakeWorkspaces{err: errors.New("db down")}, "?workspaceId=" + ws.String(), http.StatusInternalServerError, "Failed to verify workspace access"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(NewAuth(secret, tt.workspaces, false, zap.NewNop()))
			req := httptest.NewRequest(http.MethodGet, "/scoped"+tt.query, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.status == http.StatusOK {
				var body struct {
					User      uuid.UUID `json:"user"`
					Name      string    `json:"name"`
					Workspace uuid.UUID `json:"workspace"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.User != user || body.Workspace != ws || body.Name != "Grace" {
					t.Fatalf("actor = %+v", body)
				}
				return
			}
			var body response.Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error == nil || body.Error.Message != tt.message {
				t.Fatalf("error = %+v, want %q", body.Error, tt.message)
			}
		})
	}
}

func TestSetTokenCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, release := range []bool{false, true} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		NewAuth(secret, fakeWorkspaces{}, release, zap.NewNop()).SetTokenCookie(c, "tok")

		cookies := w.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != "access_token" || !cookies[0].HttpOnly {
			t.Fatalf("cookies = %+v", cookies)
		}
		if cookies[0].Secure != release {
			t.Fatalf("release=%v: Secure = %v", release, cookies[0].Secure)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Fatalf("level = %v, want warn", entries[0].Level)
	}
	if got := entries[0].ContextMap()["status"]; got != int64(http.StatusNotFound) {
		t.Fatalf("status field = %v", got)
	}
}
