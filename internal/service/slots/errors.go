package slots

import "errors"

var (
	// ErrSlotAvailable возвращается при попытке встать в лист ожидания на слот со свободными местами
	ErrSlotAvailable = errors.New("slot has free capacity")

	// ErrAlreadyWaitlisted возвращается при повторной записи в лист ожидания
	ErrAlreadyWaitlisted = errors.New("customer is already waitlisted for this slot")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("slots.service: internal error")
)
