package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catmanduz/link-reminder/internal/alarm"
	"github.com/catmanduz/link-reminder/internal/config"
	"github.com/catmanduz/link-reminder/internal/dispatcher"
	"github.com/catmanduz/link-reminder/internal/domain"
	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
	"github.com/catmanduz/link-reminder/internal/index"
	"github.com/catmanduz/link-reminder/internal/links"
	"github.com/catmanduz/link-reminder/internal/logger"
	"github.com/catmanduz/link-reminder/internal/notify"
	"github.com/catmanduz/link-reminder/internal/reminder"
)

var epoch = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	handler http.Handler
	clock   *fakeClock
	alarms  *alarm.Service
	deps    deps.Deps
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()
	clock := &fakeClock{now: epoch}
	store := index.NewMemoryIndex()

	repo := links.NewRepository(store, log, links.WithClock(clock.Now))
	alarms := alarm.New(store, log, alarm.WithClock(clock.Now))
	sched := reminder.New(repo, alarms, log, reminder.WithClock(clock.Now))
	repo.SetReminderCanceler(sched)
	center := notify.NewCenter(log)
	disp := dispatcher.New(repo, sched, center, log, dispatcher.WithClock(clock.Now))
	alarms.OnFire(disp.HandleFire)

	d := deps.Deps{
		Logger:     log,
		StartTime:  epoch,
		Version:    "test",
		TimeNow:    clock.Now,
		StoreKind:  config.StoreMemory,
		Stats:      store,
		Links:      repo,
		Reminders:  sched,
		Alarms:     alarms,
		Alerts:     center,
		Dispatcher: disp,
	}
	cfg := &config.Config{ListenPort: ":0"}

	return &testServer{
		handler: NewRouter(cfg, log, d),
		clock:   clock,
		alarms:  alarms,
		deps:    d,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = ts.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return assert.AnError }

func TestReadyzReportsStoreDown(t *testing.T) {
	ts := newTestServer(t)
	ts.deps.Store = downStore{}
	ts.handler = NewRouter(&config.Config{}, logger.NewNop(), ts.deps)

	w := ts.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = ts.do(t, http.MethodGet, "/infra", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"critical"`)
}

func TestSaveListAndGet(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/links", domain.LinkInput{
		URL:      "https://www.go.dev/blog",
		Title:    "Blog",
		Category: "Reading",
		Keywords: []string{"Go"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[domain.Link](t, w)
	assert.Equal(t, "go.dev", saved.Domain)

	// Same URL again: same record
	w = ts.do(t, http.MethodPost, "/api/links/quick", map[string]string{"url": "https://www.go.dev/blog", "title": "The Go Blog"})
	require.Equal(t, http.StatusOK, w.Code)
	quick := decode[domain.Link](t, w)
	assert.Equal(t, saved.ID, quick.ID)
	assert.Equal(t, "Reading", quick.Category)

	w = ts.do(t, http.MethodGet, "/api/links?category=Reading", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Link](t, w), 1)

	w = ts.do(t, http.MethodGet, "/api/links?category=Work", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.Link](t, w))

	w = ts.do(t, http.MethodGet, "/api/links/"+saved.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/links/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/categories?sorted=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Reading", domain.DefaultCategory}, decode[[]string](t, w))
}

func TestSaveRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/links", domain.LinkInput{URL: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	past := epoch.Add(-time.Minute)
	w = ts.do(t, http.MethodPost, "/api/links", domain.LinkInput{URL: "https://go.dev", ReminderAt: &past})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Nothing was saved
	w = ts.do(t, http.MethodGet, "/api/links", nil)
	assert.Equal(t, "[]\n", w.Body.String())

	r := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReminderLifecycle(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/links", domain.LinkInput{URL: "https://go.dev/doc", Title: "Docs"})
	require.Equal(t, http.StatusOK, w.Code)
	link := decode[domain.Link](t, w)

	w = ts.do(t, http.MethodPut, "/api/links/"+link.ID+"/reminder", map[string]int{"inMinutes": 30})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	armed := decode[domain.Link](t, w)
	require.NotNil(t, armed.ReminderAt)
	assert.True(t, armed.ReminderAt.Equal(epoch.Add(30*time.Minute)))

	ts.clock.Advance(30 * time.Minute)
	fired, err := ts.alarms.FireDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	w = ts.do(t, http.MethodGet, "/api/alerts", nil)
	alerts := decode[[]notify.Alert](t, w)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Docs", alerts[0].Title)

	w = ts.do(t, http.MethodPost, "/api/alerts/"+alerts[0].Name+"/actions/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dispatcher.OutcomeSnooze, decode[dispatcher.Outcome](t, w).Action)

	w = ts.do(t, http.MethodPost, "/api/links/"+link.ID+"/snooze", map[string]int{"inMinutes": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snoozed := decode[domain.Link](t, w)
	require.NotNil(t, snoozed.ReminderAt)

	w = ts.do(t, http.MethodDelete, "/api/links/"+link.ID+"/reminder", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	all, err := ts.alarms.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenAlertRedirects(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/links", domain.LinkInput{URL: "https://go.dev/play"})
	link := decode[domain.Link](t, w)
	at := epoch.Add(time.Minute)
	require.NoError(t, ts.deps.Reminders.Arm(context.Background(), link.ID, &at))
	ts.clock.Advance(time.Minute)
	_, err := ts.alarms.FireDue(context.Background())
	require.NoError(t, err)

	w = ts.do(t, http.MethodGet, "/api/alerts/"+domain.NotificationName(link.ID)+"/open", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://go.dev/play", w.Header().Get("Location"))

	w = ts.do(t, http.MethodDelete, "/api/alerts/"+domain.NotificationName(link.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArmInThePast(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/links", domain.LinkInput{URL: "https://go.dev"})
	link := decode[domain.Link](t, w)

	past := epoch.Add(-time.Hour)
	w = ts.do(t, http.MethodPut, "/api/links/"+link.ID+"/reminder", map[string]time.Time{"at": past})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, "/api/links/ghost/reminder", map[string]int{"inMinutes": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAndClear(t *testing.T) {
	ts := newTestServer(t)

	for _, u := range []string{"https://a.example", "https://b.example"} {
		w := ts.do(t, http.MethodPost, "/api/links", domain.LinkInput{URL: u})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := ts.do(t, http.MethodGet, "/api/links", nil)
	first := decode[[]domain.Link](t, w)[0]

	w = ts.do(t, http.MethodDelete, "/api/links/"+first.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/links/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "links-20260601.json")
	assert.Len(t, decode[[]domain.Link](t, w), 1)

	w = ts.do(t, http.MethodDelete, "/api/links", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/links", nil)
	assert.Empty(t, decode[[]domain.Link](t, w))
}

func TestSnoozeOptionsAndImport(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/snooze-options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string][]int{"inMinutes": {10, 60, 180, 1440}}, decode[map[string][]int](t, w))

	w = ts.do(t, http.MethodPost, "/api/import", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	trigger := make(chan struct{}, 1)
	ts.deps.ImportTrigger = trigger
	ts.handler = NewRouter(&config.Config{}, logger.NewNop(), ts.deps)

	w = ts.do(t, http.MethodPost, "/api/import", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	w = ts.do(t, http.MethodPost, "/api/import", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestInfraReportsMemoryStore(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/infra", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "last_write")

	w = ts.do(t, http.MethodPost, "/api/links", domain.LinkInput{URL: "https://go.dev"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/infra", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK        bool   `json:"ok"`
			Count     *int   `json:"count"`
			Mode      string `json:"mode"`
			Impact    string `json:"impact"`
			LastWrite string `json:"last_write"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "operational", resp.Mode)

	store := resp.Components["store"]
	assert.True(t, store.OK)
	assert.Equal(t, config.StoreMemory, store.Mode)
	assert.Equal(t, "lost-on-restart", store.Impact)
	require.NotNil(t, store.Count)
	assert.Equal(t, 1, *store.Count)
	assert.NotEmpty(t, store.LastWrite)
}
