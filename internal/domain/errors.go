package domain

import (
	"errors"
	"fmt"
)

// Таксономия ошибок ядра. Сервисы оборачивают их через %w с деталями
var (
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrSlotFull            = errors.New("slot is full")
	ErrSlotBusy            = errors.New("slot is busy, retry later")
	ErrExpired             = errors.New("expired")
	ErrPaymentMethodLocked = errors.New("payment method is locked")
	ErrPayLaterIneligible  = errors.New("pay later is not available")
	ErrNotFound            = errors.New("not found")
	ErrStale               = errors.New("stale state, re-read and retry")
	ErrInvalidCommand      = errors.New("invalid command")
)

// IsRetryable сообщает, имеет ли смысл повторить операцию
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSlotBusy) || errors.Is(err, ErrStale)
}

// InvalidTransitionError ошибка недопустимого перехода с текущим и запрошенным статусами
func InvalidTransitionError(entity EntityType, current, requested string) error {
	return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, entity, current, requested)
}

// UnauthorizedError ошибка несоответствия роли
func UnauthorizedError(role ActorRole, action string) error {
	return fmt.Errorf("%w: role %q cannot %s", ErrUnauthorized, role, action)
}
