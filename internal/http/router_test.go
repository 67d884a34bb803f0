package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-ticket-backend/internal/config"
	"github.com/tbourn/go-ticket-backend/internal/domain"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// schema so handlers don't explode on list endpoints
	if err := db.AutoMigrate(&domain.Purchase{}, &domain.PurchaseLineItem{}, &domain.Ticket{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig(base string) config.Config {
	return config.Config{
		APIBasePath:      base,
		RateRPS:          100,
		RateBurst:        10,
		TicketValidity:   30 * 24 * time.Hour,
		RenderServiceURL: "https://api.qrserver.com/v1/create-qr-code/",
		RenderSize:       "150x150",
		CORS:             config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:         config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:             config.OTELConfig{ServiceName: "test-svc"},
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	RegisterRoutes(r, newTestDB(t), nil, testConfig("/api/v1"))

	// /health works
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) -> header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute -> 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod -> 405 (DELETE /health)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE /health expected 405, got %d", w.Code)
	}
}

func TestNewHTTPServer_UsesConfiguredKnobs(t *testing.T) {
	cfg := testConfig("/api/v1")
	cfg.Port = "9090"
	cfg.ReadTimeout = 3 * time.Second
	cfg.ReadHeaderTimeout = 2 * time.Second
	cfg.WriteTimeout = 4 * time.Second
	cfg.IdleTimeout = 5 * time.Second
	cfg.MaxHeaderBytes = 4096

	srv := NewHTTPServer(cfg, http.NewServeMux())
	if srv.Addr != ":9090" {
		t.Fatalf("addr = %q", srv.Addr)
	}
	if srv.ReadTimeout != 3*time.Second ||
		srv.ReadHeaderTimeout != 2*time.Second ||
		srv.WriteTimeout != 4*time.Second ||
		srv.IdleTimeout != 5*time.Second {
		t.Fatalf("timeouts not taken from config: %+v", srv)
	}
	if srv.MaxHeaderBytes != 4096 {
		t.Fatalf("max header bytes = %d", srv.MaxHeaderBytes)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := testConfig("/api/v2")
	cfg.CORS.AllowedOrigins = []string{"http://example.com"}
	RegisterRoutes(r, newTestDB(t), nil, cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected echoed origin, got %q", got)
	}

	// Unlisted origin gets no ACAO header.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin echoed: %q", got)
	}
}

func TestRegisterRoutes_EndToEnd_MintThenAudit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	RegisterRoutes(r, newTestDB(t), nil, testConfig("/api/v1"))

	// Push a completed purchase through the full middleware chain.
	body := `{
		"purchase_id":"P1","holder_id":"u1","holder_name":"Jane Doe",
		"status":"completed","completed_at":"2026-02-01T10:00:00Z",
		"items":[{"line_item_id":"L1","product_id":"prod-1","product_name":"Concert entry","ticketable":true}]
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases/completed", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("POST purchases/completed = %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id middleware not wired")
	}

	// Validate the minted key through the staff endpoint.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/tickets/validate",
		bytes.NewBufferString(`{"ticket_id":"L1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("validate = %d body=%s", w.Code, w.Body.String())
	}
	var verdict struct {
		Status     string `json:"status"`
		HolderName string `json:"holder_name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &verdict); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	if verdict.Status != "active" || verdict.HolderName != "Jane Doe" {
		t.Fatalf("unexpected verdict %+v", verdict)
	}

	// Audit listing sees the ticket.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/tickets", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("admin listing = %d", w.Code)
	}
	var listing struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing.Total != 1 {
		t.Fatalf("audit total = %d", listing.Total)
	}
}
