package model

import "errors"

// Базовые категории ошибок. Остальные ошибки сервиса оборачивают одну из них.
var (
	// ErrNotFound возвращается, если сущность не найдена.
	ErrNotFound = errors.New("not found")
	// ErrValidation возвращается при пустом или некорректном входе.
	ErrValidation = errors.New("validation failed")
	// ErrStorage возвращается при сбое хранилища.
	ErrStorage = errors.New("storage error")
)
