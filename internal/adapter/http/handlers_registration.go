package http

import (
	"net/http"

	"github.com/salamjillani/mauritius-property-hub/internal/domain/registration"
)

func (h *Handler) applyForRole(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[registration.CreateRequest](w, r)
	if !ok {
		return
	}

	app, err := h.registrations.Apply(r.Context(), actorFrom(r), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}
