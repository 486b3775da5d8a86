package update_order_status

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/service/transitions/models"
	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
)

type fakeEngine struct {
	gotID  int64
	gotCmd domain.OrderCommand
	err    error
}

func (f *fakeEngine) ApplyOrder(_ context.Context, id int64, _ domain.Actor, cmd domain.OrderCommand) (*models.OrderResponse, error) {
	f.gotID = id
	f.gotCmd = cmd
	if f.err != nil {
		return nil, f.err
	}
	return &models.OrderResponse{ID: id, Status: string(cmd.Target())}, nil
}

func serve(h *Handler, orderID, body string, withActor bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID+"/status", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"orderId": orderID})
	if withActor {
		req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{ID: 7, Role: domain.RoleShopOwner}))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		orderID    string
		body       string
		withActor  bool
		engineErr  error
		wantStatus int
		wantCmd    domain.OrderCommand
	}{
		{
			name:       "dispatch with tracking",
			orderID:    "12",
			body:       `{"status":"dispatched","trackingInfo":"AWB-1"}`,
			withActor:  true,
			wantStatus: http.StatusOK,
			wantCmd:    domain.DispatchPayload{TrackingInfo: "AWB-1"},
		},
		{
			name:       "final bill without total",
			orderID:    "12",
			body:       `{"status":"awaiting_customer_agreement"}`,
			withActor:  true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown status",
			orderID:    "12",
			body:       `{"status":"teleported"}`,
			withActor:  true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad id",
			orderID:    "x",
			body:       `{"status":"packed"}`,
			withActor:  true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no actor",
			orderID:    "12",
			body:       `{"status":"packed"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid transition",
			orderID:    "12",
			body:       `{"status":"delivered"}`,
			withActor:  true,
			engineErr:  domain.InvalidTransitionError(domain.EntityOrder, "pending", "delivered"),
			wantStatus: http.StatusConflict,
			wantCmd:    domain.DeliverPayload{},
		},
		{
			name:       "internal",
			orderID:    "12",
			body:       `{"status":"packed"}`,
			withActor:  true,
			engineErr:  fmt.Errorf("db: connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCmd:    domain.PackPayload{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{err: tt.engineErr}
			h := NewHandler(engine, logger.NewNop())

			rec := serve(h, tt.orderID, tt.body, tt.withActor)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCmd, engine.gotCmd)
			if tt.wantCmd != nil {
				assert.Equal(t, int64(12), engine.gotID)
			}
		})
	}
}
