package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// Пауза, которую клиенту предлагается выдержать перед повтором
const retryAfterSeconds = 1

const (
	msgInvalidTransition   = "переход недопустим из текущего статуса"
	msgUnauthorized        = "действие недоступно для этой роли"
	msgSlotFull            = "в выбранном слоте нет свободных мест"
	msgSlotBusy            = "слот сейчас занят другим запросом, повторите попытку"
	msgExpired             = "срок действия истек"
	msgPaymentMethodLocked = "способ оплаты уже нельзя изменить"
	msgPayLaterIneligible  = "оплата позже недоступна"
	msgNotFound            = "не найдено"
	msgStale               = "данные устарели, обновите и повторите"
	msgInvalidCommand      = "некорректная команда"
)

// RespondDomainError отвечает на ошибку из таксономии ядра.
// Возвращает false, если ошибка к таксономии не относится
func RespondDomainError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		RespondNotFound(w, msgNotFound)
	case errors.Is(err, domain.ErrUnauthorized):
		RespondForbidden(w, msgUnauthorized)
	case errors.Is(err, domain.ErrInvalidTransition):
		RespondError(w, http.StatusConflict, msgInvalidTransition)
	case errors.Is(err, domain.ErrSlotFull):
		RespondError(w, http.StatusConflict, msgSlotFull)
	case errors.Is(err, domain.ErrPaymentMethodLocked):
		RespondError(w, http.StatusConflict, msgPaymentMethodLocked)
	case errors.Is(err, domain.ErrStale):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		RespondError(w, http.StatusConflict, msgStale)
	case errors.Is(err, domain.ErrSlotBusy):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		RespondError(w, http.StatusServiceUnavailable, msgSlotBusy)
	case errors.Is(err, domain.ErrExpired):
		RespondError(w, http.StatusGone, msgExpired)
	case errors.Is(err, domain.ErrPayLaterIneligible):
		RespondError(w, http.StatusUnprocessableEntity, msgPayLaterIneligible+": "+detail(err))
	case errors.Is(err, domain.ErrInvalidCommand):
		RespondBadRequest(w, msgInvalidCommand+": "+detail(err))
	default:
		return false
	}
	return true
}

// detail текст ошибки без префикса сентинела
func detail(err error) string {
	msg := err.Error()
	msg = strings.TrimPrefix(msg, domain.ErrPayLaterIneligible.Error()+": ")
	return strings.TrimPrefix(msg, domain.ErrInvalidCommand.Error()+": ")
}
