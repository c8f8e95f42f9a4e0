package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSwaggerProtection(t *testing.T) {
	denyAll := func(c *gin.Context) { abortUnauthorized(c, "Authentication required") }
	allowAll := func(c *gin.Context) {}

	tests := []struct {
		name   string
		cfg    SwaggerConfig
		auth   gin.HandlerFunc
		remote string
		want   int
	}{
		{"disabled", SwaggerConfig{Enabled: false}, nil, "10.0.0.1:1", http.StatusNotFound},
		{"open", SwaggerConfig{Enabled: true}, nil, "10.0.0.1:1", http.StatusOK},
		{"ip allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, nil, "10.0.0.1:1", http.StatusOK},
		{"ip denied", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, nil, "10.0.0.2:1", http.StatusForbidden},
		{"cidr allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, nil, "192.168.4.20:1", http.StatusOK},
		{"auth rejected", SwaggerConfig{Enabled: true, RequireAuth: true}, denyAll, "10.0.0.1:1", http.StatusUnauthorized},
		{"auth passed", SwaggerConfig{Enabled: true, RequireAuth: true}, allowAll, "10.0.0.1:1", http.StatusOK},
		{"ip checked before auth", SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"10.0.0.1"}}, allowAll, "10.9.9.9:1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/swagger/*any", SwaggerProtection(tt.cfg, tt.auth), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remote
			assert.Equal(t, tt.want, serve(r, req).Code)
		})
	}
}

func TestIsIPAllowed(t *testing.T) {
	ips, nets := parseAllowList([]string{"127.0.0.1", "10.0.0.0/8", "not-an-ip"})

	assert.True(t, isIPAllowed(net.ParseIP("127.0.0.1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("10.20.30.40"), ips, nets))
	assert.False(t, isIPAllowed(net.ParseIP("192.168.1.1"), ips, nets))
	assert.False(t, isIPAllowed(nil, ips, nets))
}
