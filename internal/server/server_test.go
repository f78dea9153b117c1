package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apikeydomain "github.com/SystonTigers/receptionist-sub000/internal/apikey/domain"
	"github.com/SystonTigers/receptionist-sub000/internal/cache"
	"github.com/SystonTigers/receptionist-sub000/internal/clock"
	"github.com/SystonTigers/receptionist-sub000/internal/config"
	"github.com/SystonTigers/receptionist-sub000/internal/insight"
	"github.com/SystonTigers/receptionist-sub000/internal/metrickey"
	"github.com/SystonTigers/receptionist-sub000/internal/quota"
	"github.com/SystonTigers/receptionist-sub000/internal/telemetry"
	tenantdomain "github.com/SystonTigers/receptionist-sub000/internal/tenant/domain"
	usagedomain "github.com/SystonTigers/receptionist-sub000/internal/usage/domain"
	"github.com/SystonTigers/receptionist-sub000/internal/usage/overview"
	"github.com/SystonTigers/receptionist-sub000/internal/usage/service"
)

const testAPIKey = "rcp_test_key"

type testEnv struct {
	server   *Server
	db       *gorm.DB
	tenantID snowflake.ID
}

func newTestEnv(t *testing.T, tier tenantdomain.Tier) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&tenantdomain.Tenant{},
		&apikeydomain.APIKey{},
		&usagedomain.UsageEvent{},
		&usagedomain.UsageMetric{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(8)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	tenant := tenantdomain.Tenant{
		ID:   node.Generate(),
		Name: "Test Salon",
		Slug: "test-salon",
		Tier: tier,
	}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("insert tenant: %v", err)
	}
	key := apikeydomain.APIKey{
		ID:       node.Generate(),
		TenantID: tenant.ID,
		KeyHash:  apikeydomain.HashAPIKey(testAPIKey),
		IsActive: true,
	}
	if err := db.Create(&key).Error; err != nil {
		t.Fatalf("insert api key: %v", err)
	}

	cfg := config.Config{}
	cfg.App.Name = "receptionist"
	cfg.App.Environment = "test"
	cfg.RateLimit.Limit = 1000
	cfg.RateLimit.Window = time.Minute

	fixed := clock.FixedClock{At: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	log := zap.NewNop()
	directory := dbDirectory{db: db}

	ledger := service.NewService(service.ServiceParam{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fixed,
		Directory: directory,
	})
	builder := overview.NewBuilder(overview.BuilderParam{
		DB:        db,
		Log:       log,
		Clock:     fixed,
		Directory: directory,
		Ledger:    ledger,
	})
	summarizer := insight.NewSummarizer(insight.SummarizerParam{
		DB:    db,
		Log:   log,
		Clock: fixed,
	})
	recorder := telemetry.NewRecorder(telemetry.RecorderParam{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fixed,
	})

	srv := &Server{
		cfg:        cfg,
		db:         db,
		log:        log,
		engine:     NewEngine(cfg, nil),
		ledger:     ledger,
		overview:   builder,
		summarizer: summarizer,
		recorder:   recorder,
		limiter:    newRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window),
		authCache:  cache.NewTTLCache[string, authCacheEntry](),
	}
	srv.RegisterAPIRoutes()

	return &testEnv{server: srv, db: db, tenantID: tenant.ID}
}

type dbDirectory struct {
	db *gorm.DB
}

func (d dbDirectory) ListIDs(context.Context) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := d.db.Raw(`SELECT id FROM tenants ORDER BY id`).Scan(&ids).Error
	return ids, err
}

func (d dbDirectory) ResolveTier(_ context.Context, tenantID snowflake.ID) (tenantdomain.Tier, error) {
	var tier tenantdomain.Tier
	err := d.db.Raw(`SELECT tier FROM tenants WHERE id = ?`, tenantID).Scan(&tier).Error
	return tier, err
}

func (e *testEnv) request(t *testing.T, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	e.server.engine.ServeHTTP(rec, req)
	return rec
}

func TestIngestRequiresAuth(t *testing.T) {
	env := newTestEnv(t, tenantdomain.TierStarter)

	rec := env.request(t, http.MethodPost, "/v1/usage/events", "", gin.H{"event_type": quota.EventBookingCreated})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing key: status = %d, want 401", rec.Code)
	}

	rec = env.request(t, http.MethodPost, "/v1/usage/events", "wrong-key", gin.H{"event_type": quota.EventBookingCreated})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status = %d, want 401", rec.Code)
	}
}

func TestIngestRecordsEvent(t *testing.T) {
	env := newTestEnv(t, tenantdomain.TierStarter)

	rec := env.request(t, http.MethodPost, "/v1/usage/events", testAPIKey, gin.H{
		"event_type": quota.EventBookingCreated,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body %s", rec.Code, rec.Body.String())
	}

	var count int64
	if err := env.db.Model(&usagedomain.UsageEvent{}).
		Where("tenant_id = ? AND event_type = ?", env.tenantID, quota.EventBookingCreated).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("event rows = %d, want 1", count)
	}
}

func TestIngestValidatesEventType(t *testing.T) {
	env := newTestEnv(t, tenantdomain.TierStarter)

	rec := env.request(t, http.MethodPost, "/v1/usage/events", testAPIKey, gin.H{"quantity": 2})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIngestReturnsQuotaPayloadOn429(t *testing.T) {
	env := newTestEnv(t, tenantdomain.TierStarter)

	// starter caps messages at 100 per month
	for i := 0; i < 100; i++ {
		rec := env.request(t, http.MethodPost, "/v1/usage/events", testAPIKey, gin.H{
			"event_type": quota.EventMessageSent,
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("request %d: status = %d, body %s", i, rec.Code, rec.Body.String())
		}
	}

	rec := env.request(t, http.MethodPost, "/v1/usage/events", testAPIKey, gin.H{
		"event_type": quota.EventMessageSent,
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429, body %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Error     string  `json:"error"`
		EventType string  `json:"event_type"`
		Limit     float64 `json:"limit"`
		Used      float64 `json:"used"`
		Attempted float64 `json:"attempted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Error != "quota_exceeded" {
		t.Fatalf("error = %q", payload.Error)
	}
	if payload.Limit != 100 || payload.Used != 100 || payload.Attempted != 1 {
		t.Fatalf("unexpected arithmetic: limit=%g used=%g attempted=%g",
			payload.Limit, payload.Used, payload.Attempted)
	}

	// the rejected action was never recorded
	var count int64
	if err := env.db.Model(&usagedomain.UsageEvent{}).
		Where("tenant_id = ? AND event_type = ?", env.tenantID, quota.EventMessageSent).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 100 {
		t.Fatalf("event rows = %d, want 100", count)
	}
}

func TestIngestRecordsMessageOutcome(t *testing.T) {
	env := newTestEnv(t, tenantdomain.TierPro)

	rec := env.request(t, http.MethodPost, "/v1/usage/events", testAPIKey, gin.H{
		"event_type": quota.EventMessageSent,
		"metadata":   gin.H{"delivered": false},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	failedKey := metrickey.SeriesKey{
		Name:      metrickey.SeriesMessageOutcome,
		Dimension: metrickey.DimensionFailed,
	}
	var count int64
	if err := env.db.Model(&usagedomain.UsageMetric{}).
		Where("tenant_id = ? AND metric_key = ?", env.tenantID, failedKey.Encode()).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("failed outcome rows = %d, want 1", count)
	}
}

func TestGetUsageOverview(t *testing.T) {
	env := newTestEnv(t, tenantdomain.TierStarter)

	rec := env.request(t, http.MethodGet, "/v1/usage/overview", testAPIKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Tier   string `json:"tier"`
		Quotas []struct {
			EventType string `json:"event_type"`
		} `json:"quotas"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Tier != string(tenantdomain.TierStarter) {
		t.Fatalf("tier = %q", payload.Tier)
	}
	if len(payload.Quotas) != 4 {
		t.Fatalf("quotas = %d, want 4", len(payload.Quotas))
	}
}

func TestGetObservabilitySummary(t *testing.T) {
	env := newTestEnv(t, tenantdomain.TierStarter)

	rec := env.request(t, http.MethodGet, "/v1/observability/summary", testAPIKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Requests []struct {
			Date  string  `json:"date"`
			Value float64 `json:"value"`
		} `json:"requests"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(payload.Requests) == 0 {
		t.Fatalf("expected a zero-filled request series")
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, tenantdomain.TierStarter)

	rec := env.request(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRateLimiterCapsRequests(t *testing.T) {
	env := newTestEnv(t, tenantdomain.TierPro)
	env.server.limiter = newRateLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		rec := env.request(t, http.MethodGet, "/v1/usage/overview", testAPIKey, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	rec := env.request(t, http.MethodGet, "/v1/usage/overview", testAPIKey, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}
