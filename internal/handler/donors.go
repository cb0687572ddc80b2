package handler

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/drop4life/internal/eligibility"
	"github.com/mmeshcher/drop4life/internal/model"
)

type donorRequest struct {
	Name      string `json:"name" validate:"required"`
	Age       int    `json:"age" validate:"gte=0,lte=150"`
	BloodType string `json:"blood_type" validate:"omitempty,bloodtype"`
	Contact   string `json:"contact"`
	Location  string `json:"location"`
}

func (d donorRequest) toModel(id int64) model.Donor {
	return model.Donor{
		ID:        id,
		Name:      d.Name,
		Age:       d.Age,
		BloodType: model.BloodType(d.BloodType),
		Contact:   d.Contact,
		Location:  d.Location,
	}
}

type donorResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	BloodType string `json:"blood_type,omitempty"`
	Contact   string `json:"contact"`
	Location  string `json:"location"`
}

func newDonorResponse(d model.Donor) donorResponse {
	return donorResponse{
		ID:        d.ID,
		Name:      d.Name,
		Age:       d.Age,
		BloodType: string(d.BloodType),
		Contact:   d.Contact,
		Location:  d.Location,
	}
}

// RegisterDonor регистрирует нового донора.
func (h *Handler) RegisterDonor(w http.ResponseWriter, r *http.Request) {
	var req donorRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.RegisterDonor(r.Context(), req.toModel(0))
	if err != nil {
		h.writeError(w, "register donor", err)
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// ListDonors возвращает список доноров.
func (h *Handler) ListDonors(w http.ResponseWriter, r *http.Request) {
	donors, err := h.service.ListDonors(r.Context())
	if err != nil {
		h.writeError(w, "list donors", err)
		return
	}

	resp := make([]donorResponse, 0, len(donors))
	for _, d := range donors {
		resp = append(resp, newDonorResponse(d))
	}
	writeList(w, resp)
}

// GetDonor возвращает профиль донора.
func (h *Handler) GetDonor(w http.ResponseWriter, r *http.Request) {
	donorID, ok := pathID(w, r, "donorID")
	if !ok {
		return
	}

	d, err := h.service.GetDonor(r.Context(), donorID)
	if err != nil {
		h.writeError(w, "get donor", err, zap.Int64("donorID", donorID))
		return
	}

	writeJSON(w, http.StatusOK, newDonorResponse(*d))
}

// UpdateDonor сохраняет изменённый профиль донора.
func (h *Handler) UpdateDonor(w http.ResponseWriter, r *http.Request) {
	donorID, ok := pathID(w, r, "donorID")
	if !ok {
		return
	}

	var req donorRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.UpdateDonorProfile(r.Context(), req.toModel(donorID)); err != nil {
		h.writeError(w, "update donor", err, zap.Int64("donorID", donorID))
		return
	}

	w.WriteHeader(http.StatusOK)
}

type eligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
}

// GetEligibility сообщает, может ли донор сдать кровь сейчас.
func (h *Handler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	donorID, ok := pathID(w, r, "donorID")
	if !ok {
		return
	}

	res, err := h.service.EvaluateEligibility(r.Context(), donorID)
	if err != nil {
		h.writeError(w, "evaluate eligibility", err, zap.Int64("donorID", donorID))
		return
	}

	if res.Reason == eligibility.ReasonDonorNotFound {
		h.writeError(w, "evaluate eligibility", res.Err(), zap.Int64("donorID", donorID))
		return
	}

	resp := eligibilityResponse{Eligible: res.Eligible}
	var ie *eligibility.IneligibleError
	if errors.As(res.Err(), &ie) {
		resp.Reason = string(ie.Reason)
		resp.Message = ie.Message()
	}
	writeJSON(w, http.StatusOK, resp)
}

type donorRequestResponse struct {
	ID           int64  `json:"id"`
	HospitalID   int64  `json:"hospital_id"`
	HospitalName string `json:"hospital_name"`
	Details      string `json:"details"`
	Status       string `json:"status"`
	RequestedAt  string `json:"requested_at,omitempty"`
}

// ListDonorRequests возвращает незакрытые запросы больниц к донору.
func (h *Handler) ListDonorRequests(w http.ResponseWriter, r *http.Request) {
	donorID, ok := pathID(w, r, "donorID")
	if !ok {
		return
	}

	reqs, err := h.service.ListPendingDonorRequests(r.Context(), donorID)
	if err != nil {
		h.writeError(w, "list donor requests", err, zap.Int64("donorID", donorID))
		return
	}

	resp := make([]donorRequestResponse, 0, len(reqs))
	for _, dr := range reqs {
		item := donorRequestResponse{
			ID:           dr.ID,
			HospitalID:   dr.HospitalID,
			HospitalName: dr.HospitalName,
			Details:      dr.Details,
			Status:       string(dr.Status),
		}
		if dr.RequestedAt != nil {
			item.RequestedAt = dr.RequestedAt.Format(time.RFC3339)
		}
		resp = append(resp, item)
	}
	writeList(w, resp)
}

type acceptRequest struct {
	Hospital string `json:"hospital" validate:"required"`
}

type donationResponse struct {
	ID           int64  `json:"id"`
	DonorID      int64  `json:"donor_id"`
	HospitalID   int64  `json:"hospital_id"`
	HospitalName string `json:"hospital_name,omitempty"`
	Details      string `json:"details"`
	BloodType    string `json:"blood_type,omitempty"`
	DonatedAt    string `json:"donated_at"`
}

func newDonationResponse(rec model.DonationRecord) donationResponse {
	return donationResponse{
		ID:           rec.ID,
		DonorID:      rec.DonorID,
		HospitalID:   rec.HospitalID,
		HospitalName: rec.HospitalName,
		Details:      rec.Details,
		DonatedAt:    rec.DonatedAt.Format(time.RFC3339),
	}
}

// AcceptDonorRequest принимает запрос больницы от имени донора.
func (h *Handler) AcceptDonorRequest(w http.ResponseWriter, r *http.Request) {
	donorID, ok := pathID(w, r, "donorID")
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}

	var req acceptRequest
	if !h.decode(w, r, &req) {
		return
	}

	accepted, err := h.service.AcceptDonorRequest(r.Context(), requestID, donorID, req.Hospital)
	if err != nil {
		h.writeError(w, "accept donor request", err,
			zap.Int64("donorID", donorID), zap.Int64("requestID", requestID))
		return
	}

	resp := newDonationResponse(accepted.Record)
	resp.HospitalName = req.Hospital
	resp.BloodType = string(accepted.BloodType)
	writeJSON(w, http.StatusOK, resp)
}

type declineResponse struct {
	Updated int64 `json:"updated"`
}

// DeclineDonorRequest отклоняет запрос больницы к донору. Повторное отклонение и чужой запрос
// не являются ошибкой, в ответе updated равно 0.
func (h *Handler) DeclineDonorRequest(w http.ResponseWriter, r *http.Request) {
	donorID, ok := pathID(w, r, "donorID")
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}

	n, err := h.service.DeclineDonorRequest(r.Context(), requestID, donorID)
	if err != nil {
		h.writeError(w, "decline donor request", err,
			zap.Int64("donorID", donorID), zap.Int64("requestID", requestID))
		return
	}

	writeJSON(w, http.StatusOK, declineResponse{Updated: n})
}

// ListDonations возвращает историю донаций донора.
func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	donorID, ok := pathID(w, r, "donorID")
	if !ok {
		return
	}

	history, err := h.service.ListDonationHistory(r.Context(), donorID)
	if err != nil {
		h.writeError(w, "list donations", err, zap.Int64("donorID", donorID))
		return
	}

	resp := make([]donationResponse, 0, len(history))
	for _, rec := range history {
		resp = append(resp, newDonationResponse(rec))
	}
	writeList(w, resp)
}
