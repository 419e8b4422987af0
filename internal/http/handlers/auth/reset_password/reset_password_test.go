package resetpassword

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	ratelimiter "recoverme/internal/core/domain/rate_limiter"
	resettoken "recoverme/internal/core/domain/reset_token"
	"recoverme/internal/core/domain/user"
	service "recoverme/internal/core/services/reset_password"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubService struct {
	err   error
	input *service.Input
}

func (s *stubService) Run(ctx context.Context, input service.Input) (result service.Result, err error) {
	s.input = &input
	if s.err != nil {
		return result, s.err
	}
	return service.Result{Message: resettoken.ResetSucceededMessage}, nil
}

func TestResetPasswordHandler(t *testing.T) {
	weakPasswordErr := user.ValidatePassword(user.RawPassword("short"))

	cases := []struct {
		id             string
		body           string
		serviceErr     error
		expectedStatus int
		expectedOutput Output
		expectedCalled bool
	}{
		{
			id:             "success",
			body:           `{"token": "abc", "password": "N3wPassw0rd"}`,
			expectedStatus: http.StatusOK,
			expectedOutput: Output{Success: true, Message: resettoken.ResetSucceededMessage},
			expectedCalled: true,
		},
		{
			id:             "invalid token",
			body:           `{"token": "abc", "password": "N3wPassw0rd"}`,
			serviceErr:     resettoken.ErrInvalidToken,
			expectedStatus: http.StatusBadRequest,
			expectedOutput: Output{Message: resettoken.InvalidTokenMessage},
			expectedCalled: true,
		},
		{
			id:             "missing token",
			body:           `{"password": "N3wPassw0rd"}`,
			expectedStatus: http.StatusBadRequest,
			expectedOutput: Output{Message: resettoken.InvalidTokenMessage},
		},
		{
			id:             "weak password",
			body:           `{"token": "abc", "password": "short"}`,
			serviceErr:     weakPasswordErr,
			expectedStatus: http.StatusBadRequest,
			expectedOutput: Output{Message: weakPasswordErr.Error()},
			expectedCalled: true,
		},
		{
			id:             "rate limited",
			body:           `{"token": "abc", "password": "N3wPassw0rd"}`,
			serviceErr:     ratelimiter.ErrRateLimitExceeded,
			expectedStatus: http.StatusTooManyRequests,
			expectedOutput: Output{Message: "rate limit exceeded"},
			expectedCalled: true,
		},
		{
			id:             "storage failure",
			body:           `{"token": "abc", "password": "N3wPassw0rd"}`,
			serviceErr:     resettoken.ErrResetFailed,
			expectedStatus: http.StatusInternalServerError,
			expectedOutput: Output{Message: resettoken.ResetFailedMessage},
			expectedCalled: true,
		},
		{
			id:             "unexpected error",
			body:           `{"token": "abc", "password": "N3wPassw0rd"}`,
			serviceErr:     fmt.Errorf("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedOutput: Output{Message: resettoken.ResetFailedMessage},
			expectedCalled: true,
		},
		{
			id:             "malformed json",
			body:           `{"token": `,
			expectedStatus: http.StatusBadRequest,
			expectedOutput: Output{Message: "invalid request data"},
		},
	}

	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			svc := &stubService{err: testcase.serviceErr}
			handler := New(svc)
			req := httptest.NewRequest(http.MethodPut, "/auth/password_reset", strings.NewReader(testcase.body))
			req.RemoteAddr = "203.0.113.7:51234"
			rw := httptest.NewRecorder()

			handler.ServeHTTP(rw, req)

			assert.Equal(t, testcase.expectedStatus, rw.Code)
			var output Output
			assert.Nil(t, json.Unmarshal(rw.Body.Bytes(), &output))
			assert.Equal(t, testcase.expectedOutput, output)
			assert.Equal(t, testcase.expectedCalled, svc.input != nil)
			if testcase.expectedCalled {
				assert.Equal(t, resettoken.RawToken("abc"), svc.input.Token)
				assert.Equal(t, "203.0.113.7", svc.input.ClientIP)
			}
		})
	}
}
