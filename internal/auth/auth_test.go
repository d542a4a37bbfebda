package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-backend/internal/model"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, err := tokens.Issue(Actor{ID: 42, Role: model.RoleWarden})
	require.NoError(t, err)

	actor, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Actor{ID: 42, Role: model.RoleWarden}, actor)
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	other, err := NewTokens("other", time.Hour).Issue(Actor{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)
	_, err = tokens.Parse(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(Actor{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)
	_, err = tokens.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "JANITOR",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = tokens.Parse(badRole)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := NewTokens("secret", time.Hour)

	r := gin.New()
	r.GET("/staff", Authenticate(tokens), RequireRole(model.RoleAdmin, model.RoleWarden), func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.JSON(http.StatusOK, actor)
	})

	wardenToken, err := tokens.Issue(Actor{ID: 7, Role: model.RoleWarden})
	require.NoError(t, err)
	residentToken, err := tokens.Issue(Actor{ID: 8, Role: model.RoleResident})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{name: "No header", header: "", status: http.StatusUnauthorized},
		{name: "Not bearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "Garbage token", header: "Bearer abc", status: http.StatusUnauthorized},
		{name: "Wrong role", header: "Bearer " + residentToken, status: http.StatusForbidden},
		{name: "Allowed role", header: "Bearer " + wardenToken, status: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
