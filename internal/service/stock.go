package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmeshcher/drop4life/internal/model"
	"github.com/mmeshcher/drop4life/internal/validation"
)

// CreditStock зачисляет units единиц крови группы bloodType на склад больницы.
func (s *Service) CreditStock(ctx context.Context, hospitalID int64, bloodType string, units int) error {
	bt, err := s.ledger.Credit(ctx, hospitalID, bloodType, units)
	if err != nil {
		return err
	}
	s.metrics.AddStockUnits(string(bt), units)
	return nil
}

// GetStock возвращает запасы больницы.
func (s *Service) GetStock(ctx context.Context, hospitalID int64) ([]model.StockEntry, error) {
	return s.ledger.Balance(ctx, hospitalID)
}

// SearchStock ищет больницы по части адреса с ненулевым запасом нужной группы крови.
func (s *Service) SearchStock(ctx context.Context, location, bloodType string) ([]model.HospitalStock, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocation
	}
	bt, ok := validation.ParseBloodType(bloodType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBloodType, bloodType)
	}
	return s.repo.SearchStock(ctx, location, bt)
}
