package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/drop4life/internal/eligibility"
	"github.com/mmeshcher/drop4life/internal/model"
	"github.com/mmeshcher/drop4life/internal/repository"
)

// CreateDonorRequest создаёт запрос больницы к донору.
func (s *Service) CreateDonorRequest(ctx context.Context, hospitalID, donorID int64, details string) (int64, error) {
	details = strings.TrimSpace(details)
	if details == "" {
		return 0, ErrEmptyDetails
	}
	return s.repo.CreateDonorRequest(ctx, hospitalID, donorID, details)
}

// ListPendingDonorRequests возвращает незакрытые запросы к донору.
func (s *Service) ListPendingDonorRequests(ctx context.Context, donorID int64) ([]model.DonorRequest, error) {
	return s.repo.ListPendingDonorRequests(ctx, donorID)
}

// AcceptDonorRequest принимает запрос больницы: проверяет право донора на донацию, записывает донацию,
// зачисляет единицу крови группы донора на склад больницы и закрывает запрос.
// Отказ по праву донора возвращается как *eligibility.IneligibleError с конкретной причиной.
func (s *Service) AcceptDonorRequest(ctx context.Context, requestID, donorID int64, hospitalName string) (*repository.AcceptedDonation, error) {
	res, err := s.evaluator.Evaluate(ctx, donorID)
	if err != nil {
		return nil, fmt.Errorf("evaluate eligibility: %w", err)
	}
	if !res.Eligible {
		s.metrics.IncrementRefusal(string(res.Reason))
		return nil, res.Err()
	}

	hospitalName = strings.TrimSpace(hospitalName)
	hospitalID, err := s.directory.ResolveHospitalID(ctx, hospitalName)
	if err != nil {
		return nil, err
	}

	accepted, err := s.repo.AcceptDonorRequest(ctx, repository.AcceptDonation{
		RequestID:  requestID,
		DonorID:    donorID,
		HospitalID: hospitalID,
		Details:    "Donation to " + hospitalName,
	}, func(age int, lastDonation *time.Time) error {
		return eligibility.Check(age, lastDonation, s.now())
	})
	if err != nil {
		var ie *eligibility.IneligibleError
		if errors.As(err, &ie) {
			s.metrics.IncrementRefusal(string(ie.Reason))
		}
		return nil, err
	}

	s.metrics.IncrementDonationsAccepted()
	s.metrics.AddStockUnits(string(accepted.BloodType), 1)
	s.logger.Info("donor request accepted",
		zap.Int64("requestID", requestID),
		zap.Int64("donorID", donorID),
		zap.Int64("hospitalID", hospitalID),
		zap.String("bloodType", string(accepted.BloodType)),
	)
	s.logActivity(ctx, fmt.Sprintf("Donor %d accepted request %d from %s", donorID, requestID, hospitalName))

	return accepted, nil
}

// DeclineDonorRequest отклоняет запрос донора без проверки права на донацию и возвращает число изменённых строк.
// Повторное отклонение и запрос другого донора возвращают 0 без ошибки.
func (s *Service) DeclineDonorRequest(ctx context.Context, requestID, donorID int64) (int64, error) {
	n, err := s.repo.DeclineDonorRequest(ctx, requestID, donorID)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.metrics.IncrementDeclined()
		s.logger.Info("donor request declined", zap.Int64("requestID", requestID), zap.Int64("donorID", donorID))
		s.logActivity(ctx, fmt.Sprintf("Donor request %d declined", requestID))
	}
	return n, nil
}

// CreateSeekerRequest создаёт запрос нуждающегося к больнице с указанным именем.
func (s *Service) CreateSeekerRequest(ctx context.Context, seekerID int64, hospitalName, details string) (int64, error) {
	hospitalName = strings.TrimSpace(hospitalName)
	details = strings.TrimSpace(details)
	if hospitalName == "" {
		return 0, ErrEmptyHospital
	}
	if details == "" {
		return 0, ErrEmptyDetails
	}

	hospitalID, err := s.directory.ResolveHospitalID(ctx, hospitalName)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateSeekerRequest(ctx, seekerID, hospitalID, details)
	if err != nil {
		return 0, err
	}

	s.metrics.IncrementSeekerRequests()
	s.logger.Info("seeker request created",
		zap.Int64("requestID", id),
		zap.Int64("seekerID", seekerID),
		zap.Int64("hospitalID", hospitalID),
	)
	s.logActivity(ctx, fmt.Sprintf("Seeker %d sent request %d to %s", seekerID, id, hospitalName))

	return id, nil
}

// ListSeekerRequests возвращает запросы нуждающегося.
func (s *Service) ListSeekerRequests(ctx context.Context, seekerID int64) ([]model.SeekerRequest, error) {
	return s.repo.ListSeekerRequests(ctx, seekerID)
}

// ListHospitalSeekerRequests возвращает запросы, адресованные больнице.
func (s *Service) ListHospitalSeekerRequests(ctx context.Context, hospitalID int64) ([]model.SeekerRequest, error) {
	return s.repo.ListHospitalSeekerRequests(ctx, hospitalID)
}
