package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	valid, err := GenerateAccessToken(5, "t@example.com", RoleTourist, "secret")
	require.NoError(t, err)
	refresh, err := GenerateRefreshToken(5, "t@example.com", RoleTourist, "secret")
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Empty header", "", http.StatusUnauthorized},
		{"Invalid format", "Token abc", http.StatusUnauthorized},
		{"Empty token", "Bearer ", http.StatusUnauthorized},
		{"Garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"Refresh token", "Bearer " + refresh, http.StatusUnauthorized},
		{"Valid token", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(AuthMiddleware("secret"))
			router.GET("/", func(c *gin.Context) {
				actor, ok := GetActor(c)
				require.True(t, ok)
				assert.Equal(t, Actor{UserID: 5, Role: RoleTourist}, actor)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		userRole       any
		allowed        []string
		expectedStatus int
	}{
		{"Correct role", RoleAdmin, []string{RoleAdmin}, http.StatusOK},
		{"One of several", RoleHost, []string{RoleHost, RoleAdmin}, http.StatusOK},
		{"Missing role", nil, []string{RoleAdmin}, http.StatusUnauthorized},
		{"Wrong role type", 123, []string{RoleAdmin}, http.StatusUnauthorized},
		{"Insufficient role", RoleTourist, []string{RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if tt.userRole != nil {
				c.Set(ctxUserRole, tt.userRole)
			}
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RequireRole(tt.allowed...)(c)
			if !c.IsAborted() {
				c.Status(http.StatusOK)
			}
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestGetActor(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetActor(c)
	assert.False(t, ok)

	c.Set(ctxUserID, "abc")
	_, ok = GetUserID(c)
	assert.False(t, ok)

	SetActor(c, Actor{UserID: 9, Role: RoleHost})
	actor, ok := GetActor(c)
	assert.True(t, ok)
	assert.Equal(t, 9, actor.UserID)
	assert.Equal(t, RoleHost, actor.Role)
}
