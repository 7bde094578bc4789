package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func originRequest(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginPolicyAllowAll(t *testing.T) {
	p := newOriginPolicy([]string{"*"}, zap.NewNop())

	assert.True(t, p.check(originRequest("http://anywhere.example")))
	assert.True(t, p.check(originRequest("https://evil.example:8443")))
	assert.True(t, p.check(originRequest("")), "non-browser clients send no Origin header")
}

func TestOriginPolicyAllowList(t *testing.T) {
	p := newOriginPolicy([]string{"http://localhost:3000", " https://app.example "}, zap.NewNop())

	assert.True(t, p.check(originRequest("http://localhost:3000")))
	assert.True(t, p.check(originRequest("HTTP://LOCALHOST:3000")))
	assert.True(t, p.check(originRequest("https://app.example")))
	assert.False(t, p.check(originRequest("http://other.example")))
	assert.True(t, p.check(originRequest("")))
}

func TestOriginPolicyIgnoresInvalidConfigEntries(t *testing.T) {
	p := newOriginPolicy([]string{"not a url", "", "http://ok.example"}, zap.NewNop())

	assert.True(t, p.check(originRequest("http://ok.example")))
	assert.False(t, p.check(originRequest("http://not-listed.example")))
}
