// Package service реализует бизнес-логику сервиса drop4life: регистрацию участников,
// жизненный цикл запросов доноров и нуждающихся, учёт донаций.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/drop4life/internal/directory"
	"github.com/mmeshcher/drop4life/internal/eligibility"
	"github.com/mmeshcher/drop4life/internal/ledger"
	"github.com/mmeshcher/drop4life/internal/metrics"
	"github.com/mmeshcher/drop4life/internal/model"
	"github.com/mmeshcher/drop4life/internal/repository"
	"github.com/mmeshcher/drop4life/internal/validation"
)

const maxDonorAge = 150

var (
	// ErrEmptyName возвращается при пустом имени участника.
	ErrEmptyName = fmt.Errorf("%w: name is required", model.ErrValidation)
	// ErrInvalidAge возвращается при возрасте вне допустимого диапазона.
	ErrInvalidAge = fmt.Errorf("%w: invalid age", model.ErrValidation)
	// ErrInvalidBloodType возвращается для неизвестной группы крови.
	ErrInvalidBloodType = fmt.Errorf("%w: unknown blood type", model.ErrValidation)
	// ErrEmptyDetails возвращается при пустом тексте запроса.
	ErrEmptyDetails = fmt.Errorf("%w: details are required", model.ErrValidation)
	// ErrEmptyHospital возвращается при пустом имени больницы в запросе.
	ErrEmptyHospital = fmt.Errorf("%w: hospital is required", model.ErrValidation)
	// ErrEmptyLocation возвращается при пустом месте поиска.
	ErrEmptyLocation = fmt.Errorf("%w: location is required", model.ErrValidation)
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateDonor(ctx context.Context, d model.Donor) (int64, error)
	GetDonor(ctx context.Context, donorID int64) (*model.Donor, error)
	UpdateDonor(ctx context.Context, d model.Donor) error
	ListDonors(ctx context.Context) ([]model.Donor, error)
	GetDonorIDByName(ctx context.Context, name string) (int64, error)
	GetLastDonationAt(ctx context.Context, donorID int64) (*time.Time, error)
	ListDonationHistory(ctx context.Context, donorID int64) ([]model.DonationRecord, error)

	CreateHospital(ctx context.Context, name, location string) (int64, error)
	GetHospitalIDByName(ctx context.Context, name string) (int64, error)
	ListHospitals(ctx context.Context) ([]model.Hospital, error)
	CreditStock(ctx context.Context, hospitalID int64, bloodType model.BloodType, units int) error
	GetStock(ctx context.Context, hospitalID int64) ([]model.StockEntry, error)
	SearchStock(ctx context.Context, location string, bloodType model.BloodType) ([]model.HospitalStock, error)

	CreateSeeker(ctx context.Context, s model.Seeker) (int64, error)

	CreateDonorRequest(ctx context.Context, hospitalID, donorID int64, details string) (int64, error)
	ListPendingDonorRequests(ctx context.Context, donorID int64) ([]model.DonorRequest, error)
	AcceptDonorRequest(ctx context.Context, p repository.AcceptDonation, guard repository.DonationGuard) (*repository.AcceptedDonation, error)
	DeclineDonorRequest(ctx context.Context, requestID, donorID int64) (int64, error)

	CreateSeekerRequest(ctx context.Context, seekerID, hospitalID int64, details string) (int64, error)
	ListSeekerRequests(ctx context.Context, seekerID int64) ([]model.SeekerRequest, error)
	ListHospitalSeekerRequests(ctx context.Context, hospitalID int64) ([]model.SeekerRequest, error)

	LogActivity(ctx context.Context, description string) error
}

// Service содержит бизнес-логику сервиса drop4life.
type Service struct {
	repo      Repository
	evaluator *eligibility.Evaluator
	ledger    *ledger.Ledger
	directory *directory.Directory
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewService создаёт сервис. dir, m и logger могут быть nil.
func NewService(repo Repository, dir *directory.Directory, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == nil {
		dir = directory.New(repo, nil, logger)
	}
	return &Service{
		repo:      repo,
		evaluator: eligibility.NewEvaluator(repo),
		ledger:    ledger.New(repo),
		directory: dir,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterDonor регистрирует донора. Группа крови необязательна.
func (s *Service) RegisterDonor(ctx context.Context, d model.Donor) (int64, error) {
	d, err := normalizeDonor(d)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateDonor(ctx, d)
	if err != nil {
		return 0, err
	}

	s.logActivity(ctx, "New Donor registered: "+d.Name)
	return id, nil
}

// RegisterHospital регистрирует больницу с нулевыми запасами всех групп крови.
func (s *Service) RegisterHospital(ctx context.Context, name, location string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyName
	}

	id, err := s.repo.CreateHospital(ctx, name, strings.TrimSpace(location))
	if err != nil {
		return 0, err
	}

	s.logActivity(ctx, "New Hospital registered: "+name)
	return id, nil
}

// ListHospitals возвращает зарегистрированные больницы в порядке имени.
func (s *Service) ListHospitals(ctx context.Context) ([]model.Hospital, error) {
	return s.repo.ListHospitals(ctx)
}

// RegisterSeeker регистрирует нуждающегося.
func (s *Service) RegisterSeeker(ctx context.Context, sk model.Seeker) (int64, error) {
	sk.Name = strings.TrimSpace(sk.Name)
	if sk.Name == "" {
		return 0, ErrEmptyName
	}
	bt, ok := validation.ParseBloodType(string(sk.BloodTypeNeeded))
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBloodType, sk.BloodTypeNeeded)
	}
	sk.BloodTypeNeeded = bt
	sk.Contact = strings.TrimSpace(sk.Contact)
	sk.Location = strings.TrimSpace(sk.Location)

	id, err := s.repo.CreateSeeker(ctx, sk)
	if err != nil {
		return 0, err
	}

	s.logActivity(ctx, "New Seeker registered: "+sk.Name)
	return id, nil
}

// GetDonor возвращает профиль донора.
func (s *Service) GetDonor(ctx context.Context, donorID int64) (*model.Donor, error) {
	return s.repo.GetDonor(ctx, donorID)
}

// ListDonors возвращает доноров для выбора больницей.
func (s *Service) ListDonors(ctx context.Context) ([]model.Donor, error) {
	return s.repo.ListDonors(ctx)
}

// UpdateDonorProfile сохраняет изменённый профиль донора и сбрасывает кеш поиска по старому и новому имени.
func (s *Service) UpdateDonorProfile(ctx context.Context, d model.Donor) error {
	d, err := normalizeDonor(d)
	if err != nil {
		return err
	}

	current, err := s.repo.GetDonor(ctx, d.ID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateDonor(ctx, d); err != nil {
		return err
	}

	s.directory.ForgetDonor(ctx, current.Name, d.Name)
	return nil
}

func normalizeDonor(d model.Donor) (model.Donor, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return d, ErrEmptyName
	}
	if d.Age < 0 || d.Age > maxDonorAge {
		return d, ErrInvalidAge
	}
	if strings.TrimSpace(string(d.BloodType)) == "" {
		d.BloodType = ""
	} else {
		bt, ok := validation.ParseBloodType(string(d.BloodType))
		if !ok {
			return d, fmt.Errorf("%w: %q", ErrInvalidBloodType, d.BloodType)
		}
		d.BloodType = bt
	}
	d.Contact = strings.TrimSpace(d.Contact)
	d.Location = strings.TrimSpace(d.Location)
	return d, nil
}

// EvaluateEligibility проверяет, может ли донор сдать кровь сейчас.
func (s *Service) EvaluateEligibility(ctx context.Context, donorID int64) (eligibility.Result, error) {
	res, err := s.evaluator.Evaluate(ctx, donorID)
	if err != nil {
		return res, fmt.Errorf("evaluate eligibility: %w", err)
	}
	return res, nil
}

// ListDonationHistory возвращает историю донаций донора.
func (s *Service) ListDonationHistory(ctx context.Context, donorID int64) ([]model.DonationRecord, error) {
	return s.repo.ListDonationHistory(ctx, donorID)
}

// ResolveHospitalID возвращает идентификатор больницы по имени.
func (s *Service) ResolveHospitalID(ctx context.Context, name string) (int64, error) {
	return s.directory.ResolveHospitalID(ctx, name)
}

// ResolveDonorID возвращает идентификатор донора по имени.
func (s *Service) ResolveDonorID(ctx context.Context, name string) (int64, error) {
	return s.directory.ResolveDonorID(ctx, name)
}

func (s *Service) logActivity(ctx context.Context, description string) {
	if err := s.repo.LogActivity(ctx, description); err != nil {
		s.logger.Warn("activity log error", zap.Error(err), zap.String("description", description))
	}
}
