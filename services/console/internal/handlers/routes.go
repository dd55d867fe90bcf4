package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/diagnosis/checkin-console/pkg/middleware"
)

func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("console"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.CORS(h.config.Server.AllowedOrigins))
	r.Use(mw.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Route("/imports", func(r chi.Router) {
			r.Get("/columns/{kind}", h.ImportColumns)
			r.Post("/uploads/{kind}", h.UploadImport)
			r.Get("/history", h.ImportHistory)
			r.Get("/{id}", h.GetImport)
			r.Post("/{id}/submit", h.SubmitImport)
			r.Delete("/{id}", h.DiscardImport)
		})

		r.Get("/checkins", h.ListCheckIns)

		r.Route("/checkouts/{recordID}", func(r chi.Router) {
			r.Post("/", h.OpenRoster)
			r.Get("/", h.GetRoster)
			r.Delete("/", h.CloseRoster)
			r.Patch("/guests/{guestID}", h.ToggleGuest)
			r.Post("/all", h.CheckoutAll)
			r.Post("/selected", h.CheckoutSelected)
			r.Get("/history", h.CheckoutHistory)
		})
	})

	return r
}
