// Package handler содержит HTTP-обработчики API сервиса drop4life.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mmeshcher/drop4life/internal/eligibility"
	"github.com/mmeshcher/drop4life/internal/model"
	"github.com/mmeshcher/drop4life/internal/repository"
	"github.com/mmeshcher/drop4life/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterDonor(ctx context.Context, d model.Donor) (int64, error)
	GetDonor(ctx context.Context, donorID int64) (*model.Donor, error)
	ListDonors(ctx context.Context) ([]model.Donor, error)
	UpdateDonorProfile(ctx context.Context, d model.Donor) error
	EvaluateEligibility(ctx context.Context, donorID int64) (eligibility.Result, error)
	ListDonationHistory(ctx context.Context, donorID int64) ([]model.DonationRecord, error)

	ListPendingDonorRequests(ctx context.Context, donorID int64) ([]model.DonorRequest, error)
	AcceptDonorRequest(ctx context.Context, requestID, donorID int64, hospitalName string) (*repository.AcceptedDonation, error)
	DeclineDonorRequest(ctx context.Context, requestID, donorID int64) (int64, error)

	RegisterHospital(ctx context.Context, name, location string) (int64, error)
	ListHospitals(ctx context.Context) ([]model.Hospital, error)
	CreateDonorRequest(ctx context.Context, hospitalID, donorID int64, details string) (int64, error)
	ListHospitalSeekerRequests(ctx context.Context, hospitalID int64) ([]model.SeekerRequest, error)
	CreditStock(ctx context.Context, hospitalID int64, bloodType string, units int) error
	GetStock(ctx context.Context, hospitalID int64) ([]model.StockEntry, error)
	SearchStock(ctx context.Context, location, bloodType string) ([]model.HospitalStock, error)

	RegisterSeeker(ctx context.Context, s model.Seeker) (int64, error)
	CreateSeekerRequest(ctx context.Context, seekerID int64, hospitalName, details string) (int64, error)
	ListSeekerRequests(ctx context.Context, seekerID int64) ([]model.SeekerRequest, error)

	ResolveHospitalID(ctx context.Context, name string) (int64, error)
	ResolveDonorID(ctx context.Context, name string) (int64, error)
}

// Handler реализует HTTP-обработчики API сервиса drop4life.
type Handler struct {
	service        Service
	logger         *zap.Logger
	validate       *validator.Validate
	metricsHandler http.Handler
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// metricsHandler публикуется на /metrics, nil отключает маршрут.
func NewHandler(s Service, logger *zap.Logger, metricsHandler http.Handler) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:        s,
		logger:         logger,
		validate:       validation.New(),
		metricsHandler: metricsHandler,
	}
}

type idResponse struct {
	ID int64 `json:"id"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// decode читает JSON-тело запроса и проверяет его по тегам validate.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeList отвечает 204 для пустого списка.
func writeList[T any](w http.ResponseWriter, items []T) {
	if len(items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// writeError переводит ошибку сервиса в HTTP-статус. Сбои хранилища и неизвестные ошибки журналируются.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	var ie *eligibility.IneligibleError
	switch {
	case errors.As(err, &ie) && ie.Reason != eligibility.ReasonStorageError:
		status := http.StatusUnprocessableEntity
		if ie.Reason == eligibility.ReasonDonorNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{
			Error:   "not eligible",
			Reason:  string(ie.Reason),
			Message: ie.Message(),
		})
	case errors.Is(err, model.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrRequestNotPending), errors.Is(err, repository.ErrHospitalExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type resolveResponse struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// ResolveHospital возвращает идентификатор больницы по точному имени.
func (h *Handler) ResolveHospital(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	id, err := h.service.ResolveHospitalID(r.Context(), name)
	if err != nil {
		h.writeError(w, "resolve hospital", err, zap.String("name", name))
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{Name: name, ID: id})
}

// ResolveDonor возвращает идентификатор донора по точному имени.
func (h *Handler) ResolveDonor(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	id, err := h.service.ResolveDonorID(r.Context(), name)
	if err != nil {
		h.writeError(w, "resolve donor", err, zap.String("name", name))
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{Name: name, ID: id})
}
