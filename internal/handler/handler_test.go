package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/drop4life/internal/eligibility"
	"github.com/mmeshcher/drop4life/internal/model"
	"github.com/mmeshcher/drop4life/internal/repository"
)

type stubService struct {
	registerDonorID  int64
	registerDonorErr error
	registeredDonor  model.Donor

	donorResp *model.Donor
	donorErr  error

	donorsResp []model.Donor

	eligibilityResp eligibility.Result
	eligibilityErr  error

	historyResp []model.DonationRecord

	pendingResp []model.DonorRequest

	acceptResp       *repository.AcceptedDonation
	acceptErr        error
	acceptedHospital string

	declineRows     int64
	declineErr      error
	declinedRequest int64
	declinedByDonor int64

	registerHospitalErr error

	hospitalsResp []model.Hospital
	hospitalsErr  error

	creditErr error

	stockResp []model.StockEntry

	searchResp []model.HospitalStock
	searchErr  error

	seekerRequestID  int64
	seekerRequestErr error

	resolveID  int64
	resolveErr error
}

func (s *stubService) RegisterDonor(ctx context.Context, d model.Donor) (int64, error) {
	s.registeredDonor = d
	return s.registerDonorID, s.registerDonorErr
}

func (s *stubService) GetDonor(ctx context.Context, donorID int64) (*model.Donor, error) {
	return s.donorResp, s.donorErr
}

func (s *stubService) ListDonors(ctx context.Context) ([]model.Donor, error) {
	return s.donorsResp, nil
}

func (s *stubService) UpdateDonorProfile(ctx context.Context, d model.Donor) error {
	return s.donorErr
}

func (s *stubService) EvaluateEligibility(ctx context.Context, donorID int64) (eligibility.Result, error) {
	return s.eligibilityResp, s.eligibilityErr
}

func (s *stubService) ListDonationHistory(ctx context.Context, donorID int64) ([]model.DonationRecord, error) {
	return s.historyResp, nil
}

func (s *stubService) ListPendingDonorRequests(ctx context.Context, donorID int64) ([]model.DonorRequest, error) {
	return s.pendingResp, nil
}

func (s *stubService) AcceptDonorRequest(ctx context.Context, requestID, donorID int64, hospitalName string) (*repository.AcceptedDonation, error) {
	s.acceptedHospital = hospitalName
	return s.acceptResp, s.acceptErr
}

func (s *stubService) DeclineDonorRequest(ctx context.Context, requestID, donorID int64) (int64, error) {
	s.declinedRequest = requestID
	s.declinedByDonor = donorID
	return s.declineRows, s.declineErr
}

func (s *stubService) RegisterHospital(ctx context.Context, name, location string) (int64, error) {
	return 1, s.registerHospitalErr
}

func (s *stubService) ListHospitals(ctx context.Context) ([]model.Hospital, error) {
	return s.hospitalsResp, s.hospitalsErr
}

func (s *stubService) CreateDonorRequest(ctx context.Context, hospitalID, donorID int64, details string) (int64, error) {
	return 1, nil
}

func (s *stubService) ListHospitalSeekerRequests(ctx context.Context, hospitalID int64) ([]model.SeekerRequest, error) {
	return nil, nil
}

func (s *stubService) CreditStock(ctx context.Context, hospitalID int64, bloodType string, units int) error {
	return s.creditErr
}

func (s *stubService) GetStock(ctx context.Context, hospitalID int64) ([]model.StockEntry, error) {
	return s.stockResp, nil
}

func (s *stubService) SearchStock(ctx context.Context, location, bloodType string) ([]model.HospitalStock, error) {
	return s.searchResp, s.searchErr
}

func (s *stubService) RegisterSeeker(ctx context.Context, sk model.Seeker) (int64, error) {
	return 1, nil
}

func (s *stubService) CreateSeekerRequest(ctx context.Context, seekerID int64, hospitalName, details string) (int64, error) {
	return s.seekerRequestID, s.seekerRequestErr
}

func (s *stubService) ListSeekerRequests(ctx context.Context, seekerID int64) ([]model.SeekerRequest, error) {
	return nil, nil
}

func (s *stubService) ResolveHospitalID(ctx context.Context, name string) (int64, error) {
	return s.resolveID, s.resolveErr
}

func (s *stubService) ResolveDonorID(ctx context.Context, name string) (int64, error) {
	return s.resolveID, s.resolveErr
}

func newTestRouter(t *testing.T, svc Service) http.Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	return NewHandler(svc, logger, metrics).SetupRouter()
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	return rec.Result()
}

func TestRegisterDonor_Created(t *testing.T) {
	svc := &stubService{registerDonorID: 7}
	h := newTestRouter(t, svc)

	res := doRequest(t, h, http.MethodPost, "/api/donors", donorRequest{
		Name:      "Ann",
		Age:       25,
		BloodType: "o-",
	})
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var resp idResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 7 {
		t.Fatalf("id = %d, want 7", resp.ID)
	}
	if svc.registeredDonor.Name != "Ann" {
		t.Fatalf("registered donor = %+v", svc.registeredDonor)
	}
}

func TestRegisterDonor_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body donorRequest
	}{
		{name: "missing name", body: donorRequest{Age: 20}},
		{name: "unknown blood type", body: donorRequest{Name: "Ann", Age: 20, BloodType: "C+"}},
		{name: "negative age", body: donorRequest{Name: "Ann", Age: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &stubService{})

			res := doRequest(t, h, http.MethodPost, "/api/donors", tt.body)
			defer res.Body.Close()

			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestGetDonor_NotFound(t *testing.T) {
	h := newTestRouter(t, &stubService{donorErr: repository.ErrDonorNotFound})

	res := doRequest(t, h, http.MethodGet, "/api/donors/5", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestGetDonor_InvalidID(t *testing.T) {
	h := newTestRouter(t, &stubService{})

	res := doRequest(t, h, http.MethodGet, "/api/donors/abc", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestGetEligibility(t *testing.T) {
	tests := []struct {
		name       string
		result     eligibility.Result
		err        error
		wantStatus int
		wantReason string
	}{
		{
			name:       "eligible",
			result:     eligibility.Result{Eligible: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "recent donation",
			result:     eligibility.Result{Reason: eligibility.ReasonRecentDonation},
			wantStatus: http.StatusOK,
			wantReason: "recent_donation",
		},
		{
			name:       "donor not found",
			result:     eligibility.Result{Reason: eligibility.ReasonDonorNotFound},
			wantStatus: http.StatusNotFound,
			wantReason: "donor_not_found",
		},
		{
			name:       "storage error",
			result:     eligibility.Result{Reason: eligibility.ReasonStorageError},
			err:        fmt.Errorf("get donor: %w", model.ErrStorage),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &stubService{eligibilityResp: tt.result, eligibilityErr: tt.err})

			res := doRequest(t, h, http.MethodGet, "/api/donors/3/eligibility", nil)
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if tt.wantReason == "" {
				return
			}

			var body struct {
				Reason  string `json:"reason"`
				Message string `json:"message"`
			}
			if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body.Reason != tt.wantReason {
				t.Fatalf("reason = %q, want %q", body.Reason, tt.wantReason)
			}
			if body.Message == "" {
				t.Fatalf("message must not be empty")
			}
		})
	}
}

func TestAcceptDonorRequest(t *testing.T) {
	accepted := &repository.AcceptedDonation{
		Record: model.DonationRecord{
			ID:         11,
			DonorID:    3,
			HospitalID: 2,
			Details:    "Donation to City Hospital",
			DonatedAt:  time.Now().UTC(),
		},
		BloodType: model.BloodTypeOPos,
	}

	tests := []struct {
		name       string
		svc        *stubService
		body       any
		wantStatus int
	}{
		{
			name:       "accepted",
			svc:        &stubService{acceptResp: accepted},
			body:       acceptRequest{Hospital: "City Hospital"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing hospital",
			svc:        &stubService{},
			body:       acceptRequest{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "underage",
			svc:        &stubService{acceptErr: &eligibility.IneligibleError{Reason: eligibility.ReasonUnderage}},
			body:       acceptRequest{Hospital: "City Hospital"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "hospital not found",
			svc:        &stubService{acceptErr: repository.ErrHospitalNotFound},
			body:       acceptRequest{Hospital: "Nowhere"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "already accepted",
			svc:        &stubService{acceptErr: fmt.Errorf("%w: request 5", repository.ErrRequestNotPending)},
			body:       acceptRequest{Hospital: "City Hospital"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "storage failure",
			svc:        &stubService{acceptErr: fmt.Errorf("commit tx: %w", model.ErrStorage)},
			body:       acceptRequest{Hospital: "City Hospital"},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, tt.svc)

			res := doRequest(t, h, http.MethodPost, "/api/donors/3/requests/5/accept", tt.body)
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestAcceptDonorRequest_ResponseBody(t *testing.T) {
	svc := &stubService{acceptResp: &repository.AcceptedDonation{
		Record:    model.DonationRecord{ID: 11, DonorID: 3, HospitalID: 2, DonatedAt: time.Now()},
		BloodType: model.BloodTypeABNeg,
	}}
	h := newTestRouter(t, svc)

	res := doRequest(t, h, http.MethodPost, "/api/donors/3/requests/5/accept", acceptRequest{Hospital: "City Hospital"})
	defer res.Body.Close()

	var resp donationResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BloodType != "AB-" || resp.HospitalName != "City Hospital" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if svc.acceptedHospital != "City Hospital" {
		t.Fatalf("hospital passed to service = %q", svc.acceptedHospital)
	}
}

func TestDeclineDonorRequest_NoRowsIsOK(t *testing.T) {
	h := newTestRouter(t, &stubService{declineRows: 0})

	res := doRequest(t, h, http.MethodPost, "/api/donors/3/requests/5/decline", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp declineResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Updated != 0 {
		t.Fatalf("updated = %d, want 0", resp.Updated)
	}
}

func TestDeclineDonorRequest_PassesDonorFromPath(t *testing.T) {
	svc := &stubService{declineRows: 1}
	h := newTestRouter(t, svc)

	res := doRequest(t, h, http.MethodPost, "/api/donors/3/requests/5/decline", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if svc.declinedRequest != 5 || svc.declinedByDonor != 3 {
		t.Fatalf("declined request %d by donor %d, want 5 by 3", svc.declinedRequest, svc.declinedByDonor)
	}
}

func TestListHospitals(t *testing.T) {
	tests := []struct {
		name       string
		svc        *stubService
		wantStatus int
		wantLen    int
	}{
		{
			name: "list",
			svc: &stubService{hospitalsResp: []model.Hospital{
				{ID: 1, Name: "City Hospital", Location: "Dhaka"},
				{ID: 2, Name: "Square", Location: "Dhaka"},
			}},
			wantStatus: http.StatusOK,
			wantLen:    2,
		},
		{
			name:       "empty",
			svc:        &stubService{},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "storage error",
			svc:        &stubService{hospitalsErr: fmt.Errorf("select: %w", model.ErrStorage)},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, tt.svc)

			res := doRequest(t, h, http.MethodGet, "/api/hospitals", nil)
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp []hospitalResponse
			if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(resp) != tt.wantLen {
				t.Fatalf("hospitals = %d, want %d", len(resp), tt.wantLen)
			}
			if resp[0].Name != "City Hospital" || resp[0].Location != "Dhaka" {
				t.Fatalf("unexpected first hospital: %+v", resp[0])
			}
		})
	}
}

func TestListDonations_NoContent(t *testing.T) {
	h := newTestRouter(t, &stubService{historyResp: []model.DonationRecord{}})

	res := doRequest(t, h, http.MethodGet, "/api/donors/3/donations", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
}

func TestListDonorRequests_JSONResponse(t *testing.T) {
	now := time.Now().UTC()
	h := newTestRouter(t, &stubService{pendingResp: []model.DonorRequest{
		{ID: 1, HospitalID: 2, HospitalName: "City Hospital", DonorID: 3, Details: "Need O+", RequestedAt: &now, Status: model.DonorRequestPending},
		{ID: 2, HospitalID: 2, HospitalName: "City Hospital", DonorID: 3, Details: "Undated", Status: model.DonorRequestPending},
	}})

	res := doRequest(t, h, http.MethodGet, "/api/donors/3/requests", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var resp []donorRequestResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].RequestedAt == "" || resp[1].RequestedAt != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRegisterHospital_Conflict(t *testing.T) {
	h := newTestRouter(t, &stubService{registerHospitalErr: repository.ErrHospitalExists})

	res := doRequest(t, h, http.MethodPost, "/api/hospitals", hospitalRequest{Name: "City Hospital", Location: "Dhaka"})
	defer res.Body.Close()

	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestCreditStock(t *testing.T) {
	tests := []struct {
		name       string
		body       creditStockRequest
		wantStatus int
	}{
		{name: "credited", body: creditStockRequest{BloodType: "B+", Units: 5}, wantStatus: http.StatusOK},
		{name: "zero units", body: creditStockRequest{BloodType: "B+", Units: 0}, wantStatus: http.StatusBadRequest},
		{name: "unknown blood type", body: creditStockRequest{BloodType: "Z", Units: 1}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &stubService{})

			res := doRequest(t, h, http.MethodPost, "/api/hospitals/2/stock", tt.body)
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestGetStock_JSONResponse(t *testing.T) {
	h := newTestRouter(t, &stubService{stockResp: []model.StockEntry{
		{HospitalID: 2, BloodType: model.BloodTypeAPos, Units: 3},
	}})

	res := doRequest(t, h, http.MethodGet, "/api/hospitals/2/stock", nil)
	defer res.Body.Close()

	var resp []stockEntryResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].BloodType != "A+" || resp[0].Units != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSearchStock_ValidationError(t *testing.T) {
	h := newTestRouter(t, &stubService{searchErr: fmt.Errorf("%w: location is required", model.ErrValidation)})

	res := doRequest(t, h, http.MethodGet, "/api/stock/search?blood_type=O%2B", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestCreateSeekerRequest(t *testing.T) {
	tests := []struct {
		name       string
		svc        *stubService
		body       createSeekerRequestRequest
		wantStatus int
	}{
		{
			name:       "created",
			svc:        &stubService{seekerRequestID: 9},
			body:       createSeekerRequestRequest{Hospital: "City Hospital", Details: "2 units"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unknown hospital",
			svc:        &stubService{seekerRequestErr: repository.ErrHospitalNotFound},
			body:       createSeekerRequestRequest{Hospital: "Nowhere", Details: "2 units"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "missing details",
			svc:        &stubService{},
			body:       createSeekerRequestRequest{Hospital: "City Hospital"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, tt.svc)

			res := doRequest(t, h, http.MethodPost, "/api/seekers/4/requests", tt.body)
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestResolveHospital(t *testing.T) {
	h := newTestRouter(t, &stubService{resolveID: 2})

	res := doRequest(t, h, http.MethodGet, "/api/directory/hospitals?name=City+Hospital", nil)
	defer res.Body.Close()

	var resp resolveResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 2 || resp.Name != "City Hospital" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestResolveDonor_NotFound(t *testing.T) {
	h := newTestRouter(t, &stubService{resolveErr: repository.ErrDonorNotFound})

	res := doRequest(t, h, http.MethodGet, "/api/directory/donors?name=Nobody", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestMetricsRoute(t *testing.T) {
	h := newTestRouter(t, &stubService{})

	res := doRequest(t, h, http.MethodGet, "/metrics", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}
