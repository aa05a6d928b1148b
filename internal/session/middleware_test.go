package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xstatic72/alphasis/internal/model"
)

func testRouter(t *testing.T, m *Manager, roles ...model.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", m.Require("session", roles...), func(c *gin.Context) {
		claims, ok := FromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID, "role": claims.Role})
	})
	return r
}

func TestRequire_NoToken(t *testing.T) {
	m := NewManager("test-signing-key", "alphasis", time.Hour, nil)
	r := testRouter(t, m, model.RoleTeacher)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestRequire_CookieToken(t *testing.T) {
	m := NewManager("test-signing-key", "alphasis", time.Hour, nil)
	r := testRouter(t, m, model.RoleTeacher)

	token, err := m.Issue("T001", model.RoleTeacher, "Ngozi Umeh")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "T001")
}

func TestRequire_BearerFallback(t *testing.T) {
	m := NewManager("test-signing-key", "alphasis", time.Hour, nil)
	r := testRouter(t, m, model.RoleStudent)

	token, err := m.Issue("AB240021", model.RoleStudent, "Ada Okafor")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequire_RoleOutsideAllowList(t *testing.T) {
	m := NewManager("test-signing-key", "alphasis", time.Hour, nil)
	r := testRouter(t, m, model.RoleTeacher)

	token, err := m.Issue("AB240021", model.RoleStudent, "Ada Okafor")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Access denied"}`, w.Body.String())
}

func TestRequire_GarbageToken(t *testing.T) {
	m := NewManager("test-signing-key", "alphasis", time.Hour, nil)
	r := testRouter(t, m, model.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "not-a-jwt"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
