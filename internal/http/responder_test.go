package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/campus-scheduler/internal/application"
)

func TestHandleServiceErrorLogsErrorKind(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	responder := newResponder(slog.New(slog.NewJSONHandler(&buf, nil)))

	rec := httptest.NewRecorder()
	responder.handleServiceError(context.Background(), rec, application.ErrForbidden)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(buf.String(), `"kind":"forbidden"`) {
		t.Errorf("log output = %q, want forbidden kind", buf.String())
	}
	if !strings.Contains(buf.String(), `"level":"WARN"`) {
		t.Errorf("log output = %q, want WARN for a mapped rejection", buf.String())
	}

	buf.Reset()
	rec = httptest.NewRecorder()
	responder.handleServiceError(context.Background(), rec, errors.New("boom"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), `"kind":"unexpected"`) {
		t.Errorf("log output = %q, want unexpected kind", buf.String())
	}
	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("log output = %q, want ERROR for an unmapped failure", buf.String())
	}
}
