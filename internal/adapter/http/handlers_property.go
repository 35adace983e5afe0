package http

import (
	"net/http"
	"strconv"

	"github.com/salamjillani/mauritius-property-hub/internal/domain/property"
	"github.com/salamjillani/mauritius-property-hub/internal/port/database"
)

func (h *Handler) createProperty(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[property.CreateRequest](w, r)
	if !ok {
		return
	}

	p, err := h.listings.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) getProperty(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := "", false
	if u := sessionUser(r); u != nil {
		userID, isAdmin = u.ID, u.IsAdmin()
	}

	p, err := h.listings.Get(r.Context(), urlParam(r, "id"), userID, isAdmin)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) listProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := database.PropertyFilter{
		Category: property.Category(q.Get("category")),
		Type:     property.Type(q.Get("type")),
		City:     q.Get("city"),
		OwnerID:  q.Get("owner_id"),
	}
	if s := q.Get("status"); s != "" {
		f.Statuses = []property.Status{property.Status(s)}
	}
	if s := q.Get("featured"); s != "" {
		v := s == "true"
		f.Featured = &v
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		f.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		f.Offset = n
	}

	userID, isAdmin := "", false
	if u := sessionUser(r); u != nil {
		userID, isAdmin = u.ID, u.IsAdmin()
	}

	items, err := h.listings.List(r.Context(), f, userID, isAdmin)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) updateProperty(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[property.UpdateRequest](w, r)
	if !ok {
		return
	}

	p, err := h.listings.Update(r.Context(), actorFrom(r), urlParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Delete(r.Context(), actorFrom(r), urlParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
