// Package ledger реализует учёт запасов крови по больницам. Запас только пополняется,
// списания в сервисе нет.
package ledger

import (
	"context"
	"fmt"

	"github.com/mmeshcher/drop4life/internal/model"
	"github.com/mmeshcher/drop4life/internal/validation"
)

var (
	// ErrInvalidUnits возвращается при попытке зачислить неположительное количество единиц.
	ErrInvalidUnits = fmt.Errorf("%w: units must be positive", model.ErrValidation)
	// ErrInvalidBloodType возвращается для неизвестной группы крови.
	ErrInvalidBloodType = fmt.Errorf("%w: unknown blood type", model.ErrValidation)
	// ErrInvalidHospital возвращается для некорректного идентификатора больницы.
	ErrInvalidHospital = fmt.Errorf("%w: invalid hospital id", model.ErrValidation)
)

// Store описывает хранилище запасов. CreditStock должен выполнять атомарный upsert
// по паре (больница, группа крови).
type Store interface {
	CreditStock(ctx context.Context, hospitalID int64, bloodType model.BloodType, units int) error
	GetStock(ctx context.Context, hospitalID int64) ([]model.StockEntry, error)
}

// Ledger проверяет входные данные и делегирует запись в Store.
type Ledger struct {
	store Store
}

// New создаёт Ledger поверх хранилища.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Credit увеличивает запас группы bloodType в больнице hospitalID на units единиц.
// Если строки для этой группы ещё нет, она создаётся с units единицами.
func (l *Ledger) Credit(ctx context.Context, hospitalID int64, bloodType string, units int) (model.BloodType, error) {
	if hospitalID <= 0 {
		return "", ErrInvalidHospital
	}
	if units <= 0 {
		return "", ErrInvalidUnits
	}

	bt, ok := validation.ParseBloodType(bloodType)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidBloodType, bloodType)
	}

	if err := l.store.CreditStock(ctx, hospitalID, bt, units); err != nil {
		return "", fmt.Errorf("credit stock: %w", err)
	}
	return bt, nil
}

// Balance возвращает текущие запасы больницы, упорядоченные по группе крови.
func (l *Ledger) Balance(ctx context.Context, hospitalID int64) ([]model.StockEntry, error) {
	if hospitalID <= 0 {
		return nil, ErrInvalidHospital
	}
	return l.store.GetStock(ctx, hospitalID)
}
