package health

import (
	"net/http"
	"recoverme/internal/http/handlers/response"
)

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

type Output struct {
	Status string `json:"status"`
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	response.Render(rw, Output{Status: "ok"}, http.StatusOK)
}
