package http

import (
	"net/http"

	"github.com/salamjillani/mauritius-property-hub/internal/domain/registration"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/subscription"
)

func (h *Handler) approveProperty(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Approve(r.Context(), actorFrom(r), urlParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) rejectProperty(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[rejectRequest](w, r)
	if !ok {
		return
	}
	if err := h.listings.Reject(r.Context(), actorFrom(r), urlParam(r, "id"), req.Reason); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) createSubscription(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[subscription.CreateRequest](w, r)
	if !ok {
		return
	}

	sub, err := h.ledger.CreateSubscription(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *Handler) updateSubscription(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[subscription.UpdateRequest](w, r)
	if !ok {
		return
	}

	sub, err := h.ledger.UpdateSubscription(r.Context(), urlParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) mySubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.ledger.GetByUser(r.Context(), actorFrom(r).ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type featureRequest struct {
	PropertyID string `json:"property_id"`
}

func (h *Handler) featureProperty(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[featureRequest](w, r)
	if !ok {
		return
	}
	if req.PropertyID == "" {
		writeError(w, http.StatusBadRequest, "property_id is required")
		return
	}

	if err := h.ledger.FeatureProperty(r.Context(), actorFrom(r), urlParam(r, "id"), req.PropertyID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) unfeatureProperty(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[featureRequest](w, r)
	if !ok {
		return
	}
	if req.PropertyID == "" {
		writeError(w, http.StatusBadRequest, "property_id is required")
		return
	}

	if err := h.ledger.UnfeatureProperty(r.Context(), actorFrom(r), urlParam(r, "id"), req.PropertyID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) listRegistrationRequests(w http.ResponseWriter, r *http.Request) {
	status := registration.Status(r.URL.Query().Get("status"))
	items, err := h.registrations.List(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) approveRegistration(w http.ResponseWriter, r *http.Request) {
	if err := h.registrations.Approve(r.Context(), actorFrom(r), urlParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) rejectRegistration(w http.ResponseWriter, r *http.Request) {
	if err := h.registrations.Reject(r.Context(), actorFrom(r), urlParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
