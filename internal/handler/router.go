package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/drop4life/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса drop4life.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/donors", func(r chi.Router) {
			r.Post("/", h.RegisterDonor)
			r.Get("/", h.ListDonors)

			r.Route("/{donorID}", func(r chi.Router) {
				r.Get("/", h.GetDonor)
				r.Put("/", h.UpdateDonor)
				r.Get("/eligibility", h.GetEligibility)
				r.Get("/requests", h.ListDonorRequests)
				r.Post("/requests/{requestID}/accept", h.AcceptDonorRequest)
				r.Post("/requests/{requestID}/decline", h.DeclineDonorRequest)
				r.Get("/donations", h.ListDonations)
			})
		})

		r.Route("/hospitals", func(r chi.Router) {
			r.Post("/", h.RegisterHospital)
			r.Get("/", h.ListHospitals)

			r.Route("/{hospitalID}", func(r chi.Router) {
				r.Get("/stock", h.GetStock)
				r.Post("/stock", h.CreditStock)
				r.Post("/donor-requests", h.CreateDonorRequest)
				r.Get("/requests", h.ListHospitalRequests)
			})
		})

		r.Route("/seekers", func(r chi.Router) {
			r.Post("/", h.RegisterSeeker)
			r.Post("/{seekerID}/requests", h.CreateSeekerRequest)
			r.Get("/{seekerID}/requests", h.ListSeekerRequests)
		})

		r.Get("/stock/search", h.SearchStock)

		r.Get("/directory/hospitals", h.ResolveHospital)
		r.Get("/directory/donors", h.ResolveDonor)
	})

	if h.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", h.metricsHandler)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
