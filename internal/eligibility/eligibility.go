// Package eligibility определяет, может ли донор сдать кровь в данный момент.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmeshcher/drop4life/internal/model"
)

const (
	// MinAge минимальный возраст донора.
	MinAge = 18
	// CooldownMonths минимальное количество полных месяцев между донациями.
	CooldownMonths = 3
)

// Reason описывает причину отказа в донации.
type Reason string

const (
	ReasonUnderage       Reason = "underage"
	ReasonRecentDonation Reason = "recent_donation"
	ReasonDonorNotFound  Reason = "donor_not_found"
	ReasonStorageError   Reason = "storage_error"
)

// IneligibleError возвращается, когда донор не может сдать кровь. Это бизнес-отказ, а не сбой.
type IneligibleError struct {
	Reason Reason
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("donor is not eligible: %s", e.Reason)
}

// Unwrap позволяет сопоставлять отсутствие донора с model.ErrNotFound, а сбой хранилища с model.ErrStorage.
func (e *IneligibleError) Unwrap() error {
	switch e.Reason {
	case ReasonDonorNotFound:
		return model.ErrNotFound
	case ReasonStorageError:
		return model.ErrStorage
	}
	return nil
}

// Message возвращает текст причины отказа для показа пользователю.
func (e *IneligibleError) Message() string {
	switch e.Reason {
	case ReasonUnderage:
		return fmt.Sprintf("Not eligible to donate: donor must be at least %d years old.", MinAge)
	case ReasonRecentDonation:
		return fmt.Sprintf("Not eligible to donate yet. Please wait at least %d months since your last donation.", CooldownMonths)
	case ReasonDonorNotFound:
		return "Not eligible to donate: donor not found."
	}
	return "Not eligible to donate."
}

// Result содержит итог проверки. Reason заполнен только при Eligible == false.
type Result struct {
	Eligible bool
	Reason   Reason
}

// Check применяет правила возраста и интервала между донациями. lastDonation == nil означает,
// что донор ещё не сдавал кровь.
func Check(age int, lastDonation *time.Time, now time.Time) error {
	if age < MinAge {
		return &IneligibleError{Reason: ReasonUnderage}
	}
	if lastDonation == nil {
		return nil
	}
	if MonthsBetween(*lastDonation, now) < CooldownMonths {
		return &IneligibleError{Reason: ReasonRecentDonation}
	}
	return nil
}

// MonthsBetween возвращает количество полных месяцев между календарными датами from и to
// в часовом поясе to. Для to раньше from результат отрицательный.
func MonthsBetween(from, to time.Time) int {
	from = from.In(to.Location())

	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if months > 0 && to.Day() < from.Day() {
		months--
	} else if months < 0 && to.Day() > from.Day() {
		months++
	}
	return months
}

// Repository описывает данные, необходимые для проверки.
type Repository interface {
	GetDonor(ctx context.Context, donorID int64) (*model.Donor, error)
	GetLastDonationAt(ctx context.Context, donorID int64) (*time.Time, error)
}

// Evaluator проверяет право донора на донацию по актуальным данным хранилища, без кеширования.
type Evaluator struct {
	repo Repository
	now  func() time.Time
}

// NewEvaluator создаёт Evaluator поверх репозитория.
func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{
		repo: repo,
		now:  time.Now,
	}
}

// Evaluate возвращает результат проверки донора. Ошибка возвращается только при сбое хранилища,
// и в этом случае Result.Reason равен ReasonStorageError.
func (e *Evaluator) Evaluate(ctx context.Context, donorID int64) (Result, error) {
	donor, err := e.repo.GetDonor(ctx, donorID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Result{Reason: ReasonDonorNotFound}, nil
		}
		return Result{Reason: ReasonStorageError}, fmt.Errorf("get donor: %w", err)
	}

	if donor.Age < MinAge {
		return Result{Reason: ReasonUnderage}, nil
	}

	last, err := e.repo.GetLastDonationAt(ctx, donorID)
	if err != nil {
		return Result{Reason: ReasonStorageError}, fmt.Errorf("get last donation: %w", err)
	}

	if err := Check(donor.Age, last, e.now()); err != nil {
		var ie *IneligibleError
		if errors.As(err, &ie) {
			return Result{Reason: ie.Reason}, nil
		}
		return Result{Reason: ReasonStorageError}, err
	}

	return Result{Eligible: true}, nil
}

// Err возвращает IneligibleError для отрицательного результата и nil для положительного.
func (r Result) Err() error {
	if r.Eligible {
		return nil
	}
	return &IneligibleError{Reason: r.Reason}
}
