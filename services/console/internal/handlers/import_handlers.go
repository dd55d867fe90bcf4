package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/checkin-console/internal/csvimport"
	"github.com/diagnosis/checkin-console/internal/http/response"
	"github.com/diagnosis/checkin-console/services/console/internal/service"
)

func kindParam(w http.ResponseWriter, r *http.Request) (csvimport.Kind, bool) {
	kind, ok := csvimport.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		response.BadRequest(w, "Unknown import kind")
	}
	return kind, ok
}

func (h *Handlers) ImportColumns(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":     kind,
		"columns":  h.importService.Columns(kind),
		"required": csvimport.RequiredLabels(kind),
	})
}

func (h *Handlers) UploadImport(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.Import.MaxUploadBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, r, service.ErrFileTooLarge)
			return
		}
		response.BadRequest(w, "A file field is required")
		return
	}
	defer file.Close()

	sess, err := h.importService.Upload(r.Context(), service.Upload{
		Kind:        kind,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handlers) GetImport(w http.ResponseWriter, r *http.Request) {
	sess, err := h.importService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// SubmitImport answers 200 for both outcomes of the backend call; a failed
// submission is a session state the operator can retry from.
func (h *Handlers) SubmitImport(w http.ResponseWriter, r *http.Request) {
	sess, err := h.importService.Submit(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handlers) DiscardImport(w http.ResponseWriter, r *http.Request) {
	if err := h.importService.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ImportHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	runs, err := h.importService.History(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":   runs,
		"limit":  limit,
		"offset": offset,
	})
}
