// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmeshcher/drop4life/internal/model"
)

// ParseBloodType нормализует введённую группу крови ("ab+" -> "AB+") и проверяет, что она известна.
func ParseBloodType(s string) (model.BloodType, bool) {
	bt := model.BloodType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range model.BloodTypes {
		if bt == known {
			return bt, true
		}
	}
	return "", false
}

// IsValidBloodType сообщает, является ли строка известной группой крови.
func IsValidBloodType(s string) bool {
	_, ok := ParseBloodType(s)
	return ok
}

// New создаёт валидатор с зарегистрированным правилом bloodtype.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("bloodtype", func(fl validator.FieldLevel) bool {
		return IsValidBloodType(fl.Field().String())
	})
	return v
}
