package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"powerpulse-backend/config"
	"powerpulse-backend/internal/analytics"
	"powerpulse-backend/internal/coach"
	"powerpulse-backend/internal/model"
	"powerpulse-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	homes    []model.Home
	readings map[int64][]model.Reading
	deleted  []string
}

func (f *fakeStore) Homes(ctx context.Context) ([]model.Home, error) { return f.homes, nil }
func (f *fakeStore) HomeByID(ctx context.Context, id int64) (model.Home, error) {
	for _, h := range f.homes {
		if h.ID == id {
			return h, nil
		}
	}
	return model.Home{}, store.ErrUnknownHome
}
func (f *fakeStore) ReadingsForHome(ctx context.Context, homeID int64) ([]model.Reading, error) {
	return f.readings[homeID], nil
}
func (f *fakeStore) AllReadings(ctx context.Context) ([]model.Reading, error) {
	var all []model.Reading
	for _, rs := range f.readings {
		all = append(all, rs...)
	}
	return all, nil
}
func (f *fakeStore) UpsertHomes(ctx context.Context, homes []model.Home) error { return nil }
func (f *fakeStore) ReplaceReadings(ctx context.Context, homeID int64, readings []model.Reading) error {
	return nil
}
func (f *fakeStore) SubscriptionsForHome(ctx context.Context, homeID int64) ([]model.PushSubscription, error) {
	return nil, nil
}
func (f *fakeStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	f.deleted = append(f.deleted, endpoint)
	return nil
}
func (f *fakeStore) DB() *gorm.DB { return nil }

type fakeWeather struct {
	current  *analytics.Weather
	forecast []analytics.DailyTemp
}

func (f *fakeWeather) Current(ctx context.Context, homeID int64) *analytics.Weather {
	return f.current
}
func (f *fakeWeather) Forecast(ctx context.Context, homeID int64) []analytics.DailyTemp {
	return f.forecast
}

type fakeCoach struct {
	reply string
}

func (f *fakeCoach) Reply(ctx context.Context, history []coach.Message, homeID int64, conversationID string) (string, string) {
	if conversationID == "" {
		conversationID = "conv-1"
	}
	return f.reply, conversationID
}

// scenarioStore holds one home with two readings on its latest date, one in
// hour 6 and one in hour 18.
func scenarioStore() *fakeStore {
	return &fakeStore{
		homes: []model.Home{{ID: 1, Name: "Home 1", Location: "Springfield"}},
		readings: map[int64][]model.Reading{
			1: {
				{
					HomeID: 1, Date: "2026-01-05", Time: "06:30", Appliance: "Fridge",
					KWh: 1.5, TariffUSDPerKWh: 0.10,
					Timestamp: time.Date(2026, 1, 5, 6, 30, 0, 0, time.UTC),
				},
				{
					HomeID: 1, Date: "2026-01-05", Time: "18:00", Appliance: "Oven",
					KWh: 2.0, TariffUSDPerKWh: 0.30,
					Timestamp: time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC),
				},
			},
		},
	}
}

type testEnv struct {
	router *gin.Engine
	store  *fakeStore
}

func setupRouter(t *testing.T, fs *fakeStore, weather WeatherService, coachSvc CoachService, push *webpush.Options) testEnv {
	t.Helper()

	snap := store.NewSnapshotStore(fs, time.Minute, zap.NewNop())
	engine := analytics.NewService(snap, weather, 0.45, 30, analytics.DefaultTariffRates(), zap.NewNop())

	cfg := &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 30,
	}
	handler := NewHandler(engine, weather, coachSvc, fs, push, zap.NewNop())
	return testEnv{router: NewRouter(cfg, handler), store: fs}
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetDashboardMetrics(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/dashboard/metrics/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot analytics.MetricsSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))

	assert.InDelta(t, 3.5, snapshot.TodayUsageKWh, 1e-9)
	assert.InDelta(t, 1.5*0.10+2.0*0.30, snapshot.TodayCostUSD, 1e-9)
	assert.InDelta(t, 3.5*0.45, snapshot.TodayCO2Kg, 1e-9)
	assert.InDelta(t, 2.0, snapshot.CurrentPowerKW, 1e-9)
	require.Len(t, snapshot.HourlyUsage24h, 24)
	assert.InDelta(t, 1.5, snapshot.HourlyUsage24h[6].KWh, 1e-9)
	assert.InDelta(t, 2.0, snapshot.HourlyUsage24h[18].KWh, 1e-9)
	assert.Nil(t, snapshot.Weather)
}

func TestGetDashboardMetricsUnknownHome(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/dashboard/metrics/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"home not found"}`, w.Body.String())
}

func TestGetDashboardMetricsBadHomeID(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/dashboard/metrics/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSingleMetricEndpoints(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/dashboard/today-usage/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"today_usage_kwh":3.5}`, w.Body.String())

	w = doRequest(t, env.router, http.MethodGet, "/api/dashboard/current-power/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"current_power_kw":2}`, w.Body.String())

	w = doRequest(t, env.router, http.MethodGet, "/api/dashboard/today-cost/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, env.router, http.MethodGet, "/api/dashboard/today-co2/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var co2 struct {
		TodayCO2Kg float64 `json:"today_co2_kg"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &co2))
	assert.InDelta(t, 3.5*0.45, co2.TodayCO2Kg, 1e-9)
}

func TestGetHourlyUsage(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/dashboard/hourly-usage/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Points []analytics.HourlyPoint `json:"hourly_usage_24h"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Points, 24)

	var total float64
	for _, p := range body.Points {
		total += p.KWh
	}
	assert.InDelta(t, 3.5, total, 1e-9)
}

func TestGetDashboardWeatherWithoutCollaborator(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/dashboard/weather/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var weather analytics.Weather
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &weather))
	assert.Zero(t, weather.TemperatureC)
}

func TestGetDashboardWeatherUnknownHome(t *testing.T) {
	env := setupRouter(t, scenarioStore(), &fakeWeather{}, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/dashboard/weather/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetHomes(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/homes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var homes []homeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &homes))
	require.Len(t, homes, 1)
	assert.Equal(t, int64(1), homes[0].ID)
	assert.Equal(t, "Springfield", homes[0].Location)
	assert.Equal(t, 2, homes[0].DeviceCount)
}

func TestGetDevices(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/homes/1/devices", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var devices []analytics.DeviceState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &devices))
	require.Len(t, devices, 2)
	assert.Equal(t, "Fridge", devices[0].Name)
	assert.Equal(t, "Oven", devices[1].Name)
}

func TestGetDeviceStats(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/homes/1/devices/Oven/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats analytics.DeviceStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.InDelta(t, 2.0, stats.DailyKWh, 1e-9)
	assert.Equal(t, 18, stats.PeakHour)
}

func TestGetForecast(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/forecast/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Forecast []analytics.ForecastPoint `json:"forecast"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Forecast, 7)
	for _, p := range body.Forecast {
		assert.NotEmpty(t, p.Date)
		assert.NotEmpty(t, p.Weekday)
	}
}

func TestGetWeatherForecast(t *testing.T) {
	weather := &fakeWeather{
		forecast: []analytics.DailyTemp{
			{Date: time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC), TempC: 5},
			{Date: time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), TempC: 10},
		},
	}
	env := setupRouter(t, scenarioStore(), weather, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/api/forecast/1/weather", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Forecast []analytics.WeatherForecastPoint `json:"forecast"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Forecast, 2)
	assert.Equal(t, "2026-01-06", body.Forecast[0].Date)
	assert.InDelta(t, 41.0, body.Forecast[0].TempF, 1e-9)
}

func TestPostAnalyze(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodPost, "/api/analyze/1", []byte(`{"home_size":"small"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var analysis analytics.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.Equal(t, 12*60, analysis.HorizonMinutes)
	require.Len(t, analysis.Series, 12)
	require.Len(t, analysis.Events, 12)
	assert.InDelta(t, 0.7, analysis.Series[0].BaselineKWh, 1e-9)
	for _, e := range analysis.Events {
		assert.Contains(t, []string{analytics.EventSpike, analytics.EventPeak, analytics.EventNormal}, e.Type)
	}
}

func TestPostAnalyzeWithoutBody(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodPost, "/api/analyze/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var analysis analytics.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.InDelta(t, 1.2, analysis.Series[0].BaselineKWh, 1e-9)
}

func TestPostAnalyzeUnknownHome(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodPost, "/api/analyze/77", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostCoachChat(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, &fakeCoach{reply: "Shift your oven use off peak."}, nil)

	payload := []byte(`{"home_id":1,"messages":[{"role":"user","content":"how do I save money?"}]}`)
	w := doRequest(t, env.router, http.MethodPost, "/api/coach/chat", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Shift your oven use off peak.", resp.Reply)
	assert.Equal(t, "conv-1", resp.ConversationID)
}

func TestPostCoachChatWithoutResponder(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	payload := []byte(`{"home_id":1,"messages":[{"role":"user","content":"hello"}]}`)
	w := doRequest(t, env.router, http.MethodPost, "/api/coach/chat", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, coach.FallbackReply, resp.Reply)
}

func TestPostCoachChatBadRequest(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodPost, "/api/coach/chat", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutSubscriptionBadRequest(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodPut, "/api/subscriptions", []byte(`{"endpoint":""}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSubscription(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodDelete, "/api/subscriptions", []byte(`{"endpoint":"https://push.example/abc"}`))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"https://push.example/abc"}, env.store.deleted)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)
	w := doRequest(t, env.router, http.MethodGet, "/api/vapid_public_key", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	env = setupRouter(t, scenarioStore(), nil, nil, &webpush.Options{VAPIDPublicKey: "pk-test"})
	w = doRequest(t, env.router, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"pk-test"}`, w.Body.String())
}

func TestHealthz(t *testing.T) {
	env := setupRouter(t, scenarioStore(), nil, nil, nil)

	w := doRequest(t, env.router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
