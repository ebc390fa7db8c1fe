package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderbridge/tender-ingest/internal/ingest"
	"github.com/tenderbridge/tender-ingest/internal/models"
	"github.com/tenderbridge/tender-ingest/internal/services"
)

type stubTenderService struct {
	response *models.IngestResponse
	err      error
	stats    services.Stats

	options services.IngestOptions
	records []any
}

func (s *stubTenderService) Ingest(_ context.Context, options services.IngestOptions) (*models.IngestResponse, error) {
	s.options = options
	return s.response, s.err
}

func (s *stubTenderService) Normalize(_ context.Context, records []any, options services.IngestOptions) (*models.IngestResponse, error) {
	s.options = options
	s.records = records
	return s.response, s.err
}

func (s *stubTenderService) GetStats() services.Stats { return s.stats }

func (s *stubTenderService) Health() map[string]interface{} {
	return map[string]interface{}{"status": "healthy"}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func tenderRouter(svc services.TenderServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewTenderHandler(svc, quietLogger())
	router.GET("/api/v1/tenders", handler.Ingest)
	router.POST("/api/v1/tenders/normalize", handler.Normalize)
	return router
}

func okResponse() *models.IngestResponse {
	return &models.IngestResponse{
		InvocationID: "inv-1",
		Sink:         "inline",
		Total:        2,
		Accepted:     1,
		Skipped:      1,
		Delivered:    1,
		Groups:       []models.GroupOutcome{{Index: 0, Size: 1, Delivered: 1}},
		Diagnostics:  []models.Diagnostic{{Kind: models.DiagnosticValidation, ID: "Unknown", Reason: "missing TENDER_ID"}},
		Tenders:      json.RawMessage(`[{"tenderNumber":"123"}]`),
		Timestamp:    time.Now(),
	}
}

func TestTenderHandler_Ingest(t *testing.T) {
	svc := &stubTenderService{response: okResponse()}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenders?sink=queue&group_size=5", nil)

	tenderRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.IngestOptions{Sink: "queue", GroupSize: 5}, svc.options)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "inv-1", body["invocation_id"])
	assert.EqualValues(t, 1, body["accepted"])
	assert.Equal(t, "123", body["tenders"].([]any)[0].(map[string]any)["tenderNumber"])
}

func TestTenderHandler_InvalidGroupSize(t *testing.T) {
	for _, size := range []string{"0", "-3", "ten"} {
		t.Run(size, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tenders?group_size="+size, nil)

			tenderRouter(&stubTenderService{}).ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_GROUP_SIZE")
		})
	}
}

func TestTenderHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "fetch failure",
			err:    &ingest.FetchError{URL: "http://feed", StatusCode: 503, Err: ingest.ErrFetchFailed},
			status: http.StatusBadGateway,
			code:   "FETCH_FAILED",
		},
		{
			name:   "unknown sink",
			err:    fmt.Errorf("%w: %q", services.ErrUnknownSink, "carrier-pigeon"),
			status: http.StatusBadRequest,
			code:   "UNKNOWN_SINK",
		},
		{
			name:   "sink unavailable",
			err:    fmt.Errorf("%w: queue", services.ErrSinkUnavailable),
			status: http.StatusBadRequest,
			code:   "SINK_UNAVAILABLE",
		},
		{
			name:   "unexpected",
			err:    fmt.Errorf("boom"),
			status: http.StatusInternalServerError,
			code:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tenders", nil)

			tenderRouter(&stubTenderService{err: tt.err}).ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, "/api/v1/tenders", body.Path)
		})
	}
}

func TestTenderHandler_FetchFailureMessage(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenders", nil)
	svc := &stubTenderService{err: &ingest.FetchError{URL: "http://feed", Err: fmt.Errorf("dial tcp: refused")}}

	tenderRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "failed to fetch data from source API")
}

func TestTenderHandler_Normalize(t *testing.T) {
	svc := &stubTenderService{response: okResponse()}
	payload := `{"records":[{"TENDER_ID":123,"HEADER_DESC":"x"},{"HEADER_DESC":"no id"}],"group_size":4,"sink":"inline"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenders/normalize", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")

	tenderRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.records, 2)
	assert.Equal(t, services.IngestOptions{Sink: "inline", GroupSize: 4}, svc.options)
}

func TestTenderHandler_NormalizeInvalidBody(t *testing.T) {
	for name, payload := range map[string]string{
		"malformed":       `{"records":`,
		"missing records": `{"sink":"inline"}`,
		"not an array":    `{"records":{"TENDER_ID":1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/tenders/normalize", bytes.NewBufferString(payload))
			req.Header.Set("Content-Type", "application/json")

			tenderRouter(&stubTenderService{}).ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
		})
	}
}
