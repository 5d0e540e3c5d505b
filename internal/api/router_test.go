package api_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/hoaxify/hoaxify/internal/api"
	"github.com/hoaxify/hoaxify/internal/handlers/testutil"
)

func TestNewRouterRequiresServices(t *testing.T) {
	gin.SetMode(gin.TestMode)

	_, err := api.NewRouter(api.Dependencies{}, api.Options{})
	require.Error(t, err)
}

func TestRouterRegistersRoutes(t *testing.T) {
	env := testutil.NewEnv(t)

	expected := map[string]bool{
		"POST /api/1.0/users":              false,
		"POST /api/1.0/users/token/:token": false,
		"GET /api/1.0/users":               false,
		"GET /api/1.0/users/:id":           false,
		"PUT /api/1.0/users/:id":           false,
		"DELETE /api/1.0/users/:id":        false,
		"GET /api/1.0/users/:id/hoaxes":    false,
		"POST /api/1.0/auth":               false,
		"POST /api/1.0/logout":             false,
		"POST /api/1.0/user/password":      false,
		"PUT /api/1.0/user/password":       false,
		"POST /api/1.0/hoaxes":             false,
		"GET /api/1.0/hoaxes":              false,
		"DELETE /api/1.0/hoaxes/:id":       false,
		"POST /api/1.0/hoaxes/attachments": false,
		"GET /images/*filepath":            false,
		"GET /health":                      false,
		"GET /metrics":                     false,
	}

	for _, route := range env.Router.Routes() {
		key := route.Method + " " + route.Path
		if _, ok := expected[key]; ok {
			expected[key] = true
		}
	}
	for route, found := range expected {
		require.True(t, found, route)
	}
}

func TestRouterSetsSecurityHeaders(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/1.0/hoaxes", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "en", w.Header().Get("Content-Language"))
}
