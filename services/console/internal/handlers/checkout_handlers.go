package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/checkin-console/internal/facility"
	"github.com/diagnosis/checkin-console/internal/http/response"
)

type toggleRequest struct {
	Checked *bool `json:"checked" validate:"required"`
}

func (h *Handlers) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	opts := facility.ListOptions{
		Search:  r.URL.Query().Get("search"),
		Service: r.URL.Query().Get("serviceName"),
		Limit:   limit,
		Page:    offset/limit + 1,
	}

	records, err := h.checkoutService.ListActive(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"checkins": records})
}

func (h *Handlers) OpenRoster(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(r)
	if !ok {
		response.BadRequest(w, "Invalid check-in id")
		return
	}
	sel, err := h.checkoutService.Open(r.Context(), actor(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sel)
}

func (h *Handlers) GetRoster(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(r)
	if !ok {
		response.BadRequest(w, "Invalid check-in id")
		return
	}
	sel, err := h.checkoutService.Get(r.Context(), actor(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (h *Handlers) ToggleGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(r)
	if !ok {
		response.BadRequest(w, "Invalid check-in id")
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.WriteErrorWithDetails(w, http.StatusBadRequest, "checked is required", response.CodeInvalidInput, err.Error())
		return
	}

	sel, err := h.checkoutService.Toggle(r.Context(), actor(r), id, chi.URLParam(r, "guestID"), *req.Checked)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (h *Handlers) CheckoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(r)
	if !ok {
		response.BadRequest(w, "Invalid check-in id")
		return
	}
	res, err := h.checkoutService.CheckoutAll(r.Context(), actor(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) CheckoutSelected(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(r)
	if !ok {
		response.BadRequest(w, "Invalid check-in id")
		return
	}
	res, err := h.checkoutService.CheckoutSelected(r.Context(), actor(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) CloseRoster(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(r)
	if !ok {
		response.BadRequest(w, "Invalid check-in id")
		return
	}
	if err := h.checkoutService.Close(r.Context(), actor(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CheckoutHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(r)
	if !ok {
		response.BadRequest(w, "Invalid check-in id")
		return
	}
	runs, err := h.checkoutService.History(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}
