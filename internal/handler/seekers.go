package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/drop4life/internal/model"
)

type seekerRequest struct {
	Name            string `json:"name" validate:"required"`
	BloodTypeNeeded string `json:"blood_type_needed" validate:"required,bloodtype"`
	Contact         string `json:"contact"`
	Location        string `json:"location"`
}

// RegisterSeeker регистрирует нуждающегося.
func (h *Handler) RegisterSeeker(w http.ResponseWriter, r *http.Request) {
	var req seekerRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.RegisterSeeker(r.Context(), model.Seeker{
		Name:            req.Name,
		BloodTypeNeeded: model.BloodType(req.BloodTypeNeeded),
		Contact:         req.Contact,
		Location:        req.Location,
	})
	if err != nil {
		h.writeError(w, "register seeker", err)
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

type createSeekerRequestRequest struct {
	Hospital string `json:"hospital" validate:"required"`
	Details  string `json:"details" validate:"required"`
}

// CreateSeekerRequest отправляет запрос нуждающегося в больницу с указанным именем.
func (h *Handler) CreateSeekerRequest(w http.ResponseWriter, r *http.Request) {
	seekerID, ok := pathID(w, r, "seekerID")
	if !ok {
		return
	}

	var req createSeekerRequestRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.CreateSeekerRequest(r.Context(), seekerID, req.Hospital, req.Details)
	if err != nil {
		h.writeError(w, "create seeker request", err,
			zap.Int64("seekerID", seekerID), zap.String("hospital", req.Hospital))
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// ListSeekerRequests возвращает запросы нуждающегося.
func (h *Handler) ListSeekerRequests(w http.ResponseWriter, r *http.Request) {
	seekerID, ok := pathID(w, r, "seekerID")
	if !ok {
		return
	}

	reqs, err := h.service.ListSeekerRequests(r.Context(), seekerID)
	if err != nil {
		h.writeError(w, "list seeker requests", err, zap.Int64("seekerID", seekerID))
		return
	}

	writeList(w, newSeekerRequestResponses(reqs))
}
