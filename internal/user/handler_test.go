package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"huletfish/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *MockRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(repo, "test-secret"))

	router := gin.New()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	router.GET("/me", auth.AuthMiddleware("test-secret"), h.GetMe)
	return router
}

func TestHandler_Register(t *testing.T) {
	repo := new(MockRepository)
	repo.On("EmailExists", mock.Anything, "sara@example.com").Return(false, nil)
	repo.On("Create", mock.Anything, "Sara", "sara@example.com", mock.Anything, auth.RoleTourist).
		Return(&User{ID: 1, Name: "Sara", Email: "sara@example.com", Role: auth.RoleTourist}, nil)

	router := newTestRouter(repo)

	body, _ := json.Marshal(RegisterRequest{Name: "Sara", Email: "sara@example.com", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "sara@example.com", resp.User.Email)
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestHandler_Register_Invalid(t *testing.T) {
	router := newTestRouter(new(MockRepository))

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"name":"S","email":"bad","password":"x","role":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Login_InvalidCredentials(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByEmail", mock.Anything, "x@example.com").Return(nil, ErrUserNotFound)

	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"x@example.com","password":"whatever"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_GetMe(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, 7).Return(&User{ID: 7, Name: "Sara", Role: auth.RoleTourist}, nil)

	router := newTestRouter(repo)

	token, err := auth.GenerateAccessToken(7, "sara@example.com", auth.RoleTourist, "test-secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":7`)
}
