package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/drop4life/internal/model"
)

type hospitalRequest struct {
	Name     string `json:"name" validate:"required"`
	Location string `json:"location"`
}

// RegisterHospital регистрирует больницу.
func (h *Handler) RegisterHospital(w http.ResponseWriter, r *http.Request) {
	var req hospitalRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.RegisterHospital(r.Context(), req.Name, req.Location)
	if err != nil {
		h.writeError(w, "register hospital", err, zap.String("name", req.Name))
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

type hospitalResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// ListHospitals возвращает список больниц.
func (h *Handler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals, err := h.service.ListHospitals(r.Context())
	if err != nil {
		h.writeError(w, "list hospitals", err)
		return
	}

	resp := make([]hospitalResponse, 0, len(hospitals))
	for _, hp := range hospitals {
		resp = append(resp, hospitalResponse{ID: hp.ID, Name: hp.Name, Location: hp.Location})
	}
	writeList(w, resp)
}

type stockEntryResponse struct {
	BloodType string `json:"blood_type"`
	Units     int    `json:"units"`
}

// GetStock возвращает запасы крови больницы.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	hospitalID, ok := pathID(w, r, "hospitalID")
	if !ok {
		return
	}

	stock, err := h.service.GetStock(r.Context(), hospitalID)
	if err != nil {
		h.writeError(w, "get stock", err, zap.Int64("hospitalID", hospitalID))
		return
	}

	resp := make([]stockEntryResponse, 0, len(stock))
	for _, e := range stock {
		resp = append(resp, stockEntryResponse{BloodType: string(e.BloodType), Units: e.Units})
	}
	writeList(w, resp)
}

type creditStockRequest struct {
	BloodType string `json:"blood_type" validate:"required,bloodtype"`
	Units     int    `json:"units" validate:"gt=0"`
}

// CreditStock зачисляет единицы крови на склад больницы.
func (h *Handler) CreditStock(w http.ResponseWriter, r *http.Request) {
	hospitalID, ok := pathID(w, r, "hospitalID")
	if !ok {
		return
	}

	var req creditStockRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.CreditStock(r.Context(), hospitalID, req.BloodType, req.Units); err != nil {
		h.writeError(w, "credit stock", err,
			zap.Int64("hospitalID", hospitalID), zap.String("bloodType", req.BloodType))
		return
	}

	w.WriteHeader(http.StatusOK)
}

type createDonorRequestRequest struct {
	DonorID int64  `json:"donor_id" validate:"gt=0"`
	Details string `json:"details" validate:"required"`
}

// CreateDonorRequest создаёт запрос больницы к донору.
func (h *Handler) CreateDonorRequest(w http.ResponseWriter, r *http.Request) {
	hospitalID, ok := pathID(w, r, "hospitalID")
	if !ok {
		return
	}

	var req createDonorRequestRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.CreateDonorRequest(r.Context(), hospitalID, req.DonorID, req.Details)
	if err != nil {
		h.writeError(w, "create donor request", err,
			zap.Int64("hospitalID", hospitalID), zap.Int64("donorID", req.DonorID))
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

type seekerRequestResponse struct {
	ID              int64  `json:"id"`
	SeekerID        int64  `json:"seeker_id"`
	SeekerName      string `json:"seeker_name,omitempty"`
	HospitalID      int64  `json:"hospital_id"`
	HospitalName    string `json:"hospital_name,omitempty"`
	BloodTypeNeeded string `json:"blood_type_needed,omitempty"`
	Details         string `json:"details"`
	Status          string `json:"status"`
	RequestedAt     string `json:"requested_at"`
}

func newSeekerRequestResponses(reqs []model.SeekerRequest) []seekerRequestResponse {
	resp := make([]seekerRequestResponse, 0, len(reqs))
	for _, sr := range reqs {
		resp = append(resp, seekerRequestResponse{
			ID:              sr.ID,
			SeekerID:        sr.SeekerID,
			SeekerName:      sr.SeekerName,
			HospitalID:      sr.HospitalID,
			HospitalName:    sr.HospitalName,
			BloodTypeNeeded: string(sr.BloodTypeNeeded),
			Details:         sr.Details,
			Status:          sr.Status,
			RequestedAt:     sr.RequestedAt.Format(time.RFC3339),
		})
	}
	return resp
}

// ListHospitalRequests возвращает запросы нуждающихся, адресованные больнице.
func (h *Handler) ListHospitalRequests(w http.ResponseWriter, r *http.Request) {
	hospitalID, ok := pathID(w, r, "hospitalID")
	if !ok {
		return
	}

	reqs, err := h.service.ListHospitalSeekerRequests(r.Context(), hospitalID)
	if err != nil {
		h.writeError(w, "list hospital requests", err, zap.Int64("hospitalID", hospitalID))
		return
	}

	writeList(w, newSeekerRequestResponses(reqs))
}

type hospitalStockResponse struct {
	HospitalName string `json:"hospital_name"`
	Location     string `json:"location"`
	Units        int    `json:"units"`
}

// SearchStock ищет больницы с запасом нужной группы крови по части адреса.
func (h *Handler) SearchStock(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	bloodType := r.URL.Query().Get("blood_type")

	found, err := h.service.SearchStock(r.Context(), location, bloodType)
	if err != nil {
		h.writeError(w, "search stock", err,
			zap.String("location", location), zap.String("bloodType", bloodType))
		return
	}

	resp := make([]hospitalStockResponse, 0, len(found))
	for _, hs := range found {
		resp = append(resp, hospitalStockResponse{
			HospitalName: hs.HospitalName,
			Location:     hs.Location,
			Units:        hs.Units,
		})
	}
	writeList(w, resp)
}
