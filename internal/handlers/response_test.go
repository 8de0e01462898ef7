package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
)

func respondWith(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	RespondAPIError(c, log, err)

	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	return rec, envelope
}

func TestRespondAPIError_PassesThroughAPIErrors(t *testing.T) {
	rec, envelope := respondWith(t, apierr.Conflict(apierr.CodeDuplicatePeriod,
		fmt.Errorf("a monthly wizard already exists for 2026-07")))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if envelope.Error.Code != apierr.CodeDuplicatePeriod {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "a monthly wizard already exists for 2026-07" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestRespondAPIError_HidesInternalDetail(t *testing.T) {
	rec, envelope := respondWith(t, errors.New("pq: connection refused at 10.0.0.3"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if envelope.Error.Code != apierr.CodeInternal {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "unknown error" {
		t.Fatalf("internal detail leaked: %q", envelope.Error.Message)
	}
}
