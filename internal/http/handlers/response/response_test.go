package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	rw := httptest.NewRecorder()

	Render(rw, map[string]string{"message": "ok"}, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rw.Code)
	assert.Equal(t, "application/json", rw.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"ok"}`, rw.Body.String())
}

func TestRenderRateLimitExceeded(t *testing.T) {
	rw := httptest.NewRecorder()

	RenderRateLimitExceeded(rw)

	assert.Equal(t, http.StatusTooManyRequests, rw.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rw.Body.String())
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		remoteAddr string
		expected   string
	}{
		{"203.0.113.7:51234", "203.0.113.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.7", "203.0.113.7"},
	}
	for _, testcase := range cases {
		t.Run(testcase.remoteAddr, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = testcase.remoteAddr
			assert.Equal(t, testcase.expected, ClientIP(r))
		})
	}
}
