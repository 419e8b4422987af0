package resetpassword

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	e "recoverme/internal/core/domain/errors"
	ratelimiter "recoverme/internal/core/domain/rate_limiter"
	resettoken "recoverme/internal/core/domain/reset_token"
	"recoverme/internal/core/domain/user"
	"recoverme/internal/core/services"
	resetpassword "recoverme/internal/core/services/reset_password"
	"recoverme/internal/http/handlers/response"

	validation "github.com/go-ozzo/ozzo-validation"
)

type Handler struct {
	service services.Service[resetpassword.Input, resetpassword.Result]
}

func New(
	service services.Service[resetpassword.Input, resetpassword.Result],
) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service}
}

type Input struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (i *Input) FromJSON(r io.Reader) error {
	e := json.NewDecoder(r)
	return e.Decode(i)
}

// Validate leaves the password to the domain policy, which reports the
// exact rule that failed.
func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Token, validation.Required, validation.Length(0, 1024)),
	)
}

type Output struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	input := Input{}
	if err := input.FromJSON(r.Body); err != nil {
		response.Render(rw, Output{Message: "invalid request data"}, http.StatusBadRequest)
		return
	}
	if err := input.Validate(); err != nil {
		response.Render(rw, Output{Message: resettoken.InvalidTokenMessage}, http.StatusBadRequest)
		return
	}

	result, err := h.service.Run(
		r.Context(),
		resetpassword.Input{
			Token:       resettoken.RawToken(input.Token),
			NewPassword: user.RawPassword(input.Password),
			ClientIP:    response.ClientIP(r),
		},
	)
	switch {
	case err == nil:
		response.Render(rw, Output{Success: true, Message: result.Message}, http.StatusOK)
	case errors.Is(err, user.ErrWeakPassword):
		response.Render(rw, Output{Message: err.Error()}, http.StatusBadRequest)
	case errors.Is(err, resettoken.ErrInvalidToken):
		response.Render(rw, Output{Message: resettoken.InvalidTokenMessage}, http.StatusBadRequest)
	case errors.Is(err, ratelimiter.ErrRateLimitExceeded):
		response.Render(rw, Output{Message: "rate limit exceeded"}, http.StatusTooManyRequests)
	default:
		response.Render(rw, Output{Message: resettoken.ResetFailedMessage}, http.StatusInternalServerError)
	}
}
