package service

import (
	"errors"

	apperrors "data-importer-backend/internal/common/errors"
)

var (
	// ErrConcurrentRun возвращается второму запуску, пока первый не дошёл
	// до конца. Хранилище при этом не трогается.
	ErrConcurrentRun = apperrors.New(apperrors.ErrCodeConcurrentRun, "another import run is already in progress")

	ErrRunNotFound = errors.New("import run not found")
)
