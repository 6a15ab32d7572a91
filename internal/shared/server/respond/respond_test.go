package respond

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"rec-admin-backend/internal/shared/telemetry"
)

func TestErrorEnvelopeAndLogLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	prev := telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(prev)

	r := gin.New()
	r.GET("/api/v1/recreation-resources/:rec_resource_id/images/:asset_id", func(c *gin.Context) {
		c.Set("requestId", "req-1")
		c.Set("assetId", c.Param("asset_id"))
		Error(c, http.StatusNotFound, "not_found", "asset not found", gin.H{"variant": "thm"})
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/recreation-resources/REC0001/images/a-1", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "not_found" || body.Error.RequestID != "req-1" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	logged := buf.String()
	for _, want := range []string{`"level":"warn"`, `"rec_resource_id":"REC0001"`, `"asset_id":"a-1"`} {
		if !strings.Contains(logged, want) {
			t.Fatalf("log %q missing %s", logged, want)
		}
	}
}

func TestServerErrorsLogAtErrorLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	prev := telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(prev)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Error(c, http.StatusInternalServerError, "internal_error", "boom", nil)
	})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error level, got %s", buf.String())
	}
	if strings.Contains(resp.Body.String(), "details") {
		t.Fatalf("empty details should be omitted: %s", resp.Body.String())
	}
}
