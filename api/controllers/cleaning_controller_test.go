/*
 * @module api/controllers/cleaning_controller_test
 * @description 数据清洗控制器单元测试
 * @architecture 测试层
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @dependencies testing, net/http/httptest, stretchr/testify
 */

package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"datahub-cleanser/service/cleaning"
	"datahub-cleanser/service/event"
	"datahub-cleanser/service/models"
	"datahub-cleanser/service/monitoring"
	"datahub-cleanser/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawCSV = `name,city,amount
Alice,new york,10
Bob,boston,11
Bob,boston,11
Carol,Boston,12
`

type apiFixture struct {
	router  *chi.Mux
	svc     *cleaning.Service
	events  *event.EventService
	db      *testutil.TestDB
	dir     string
	source  string
	helper  *testutil.HTTPTestHelper
	checker *monitoring.HealthChecker
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	dir := t.TempDir()

	events := event.NewEventService()
	svc := cleaning.NewService(tdb.DB, cleaning.Options{Events: events})
	checker := monitoring.NewHealthChecker(tdb.DB)

	router := chi.NewRouter()
	router.Get("/health", NewHealthControllerWithChecker(checker).Health)
	router.Get("/ready", NewHealthControllerWithChecker(checker).Ready)
	cc := NewCleaningControllerWithService(svc)
	ec := NewEventControllerWithService(events)
	router.Post("/cleaning/runs", cc.CreateRun)
	router.Get("/cleaning/runs", cc.ListRuns)
	router.Get("/cleaning/runs/{id}", cc.GetRun)
	router.Post("/cleaning/jobs", cc.CreateJob)
	router.Get("/cleaning/jobs", cc.ListJobs)
	router.Delete("/cleaning/jobs/{id}", cc.DeleteJob)
	router.Get("/cleaning/events/status", ec.GetStatus)
	router.Get("/cleaning/events", ec.HandleSSE)

	return &apiFixture{
		router:  router,
		svc:     svc,
		events:  events,
		db:      tdb,
		dir:     dir,
		source:  testutil.WriteFile(t, dir, "raw.csv", rawCSV),
		helper:  testutil.NewHTTPTestHelper(),
		checker: checker,
	}
}

func (f *apiFixture) do(t *testing.T, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	req, err := f.helper.CreateJSONRequest(method, url, body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCleaningController_CreateRun(t *testing.T) {
	f := newAPIFixture(t)
	dest := filepath.Join(f.dir, "clean.csv")

	w := f.do(t, http.MethodPost, "/cleaning/runs", models.CleaningRequest{
		Config:      &models.PipelineConfig{},
		Source:      f.source,
		Destination: dest,
	})

	body := f.helper.DecodeResponse(t, w, http.StatusOK)
	assert.EqualValues(t, 0, body["status"])

	data := body["data"].(map[string]interface{})
	run := data["run"].(map[string]interface{})
	assert.Equal(t, models.RunStatusSuccess, run["status"])
	assert.Equal(t, models.TriggerManual, run["trigger_type"])
	assert.EqualValues(t, 3, run["rows_exported"])

	result := data["result"].(map[string]interface{})
	assert.EqualValues(t, 4, result["rows_in"])

	assert.Contains(t, testutil.ReadFile(t, dest), "Alice,New York,10")
}

func TestCleaningController_CreateRunErrors(t *testing.T) {
	f := newAPIFixture(t)
	strictSource := testutil.WriteFile(t, f.dir, "dates.csv", "name,birth_date\nAlice,2021-01-05\nBob,never\n")

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantRun    bool
	}{
		{
			name:       "请求体非法",
			body:       "not-json-object",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "配置错误",
			body: models.CleaningRequest{
				Config: &models.PipelineConfig{TextCase: "shout"},
				Source: f.source,
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "日期无法解析",
			body: models.CleaningRequest{
				Config:      &models.PipelineConfig{UnparseableDates: models.UnparseableDateStrict},
				Source:      strictSource,
				Destination: filepath.Join(f.dir, "never.csv"),
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantRun:    true,
		},
		{
			name: "输入文件不存在",
			body: models.CleaningRequest{
				Config: &models.PipelineConfig{},
				Source: filepath.Join(f.dir, "absent.csv"),
			},
			wantStatus: http.StatusInternalServerError,
			wantRun:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/cleaning/runs", tt.body)
			body := f.helper.DecodeResponse(t, w, tt.wantStatus)
			assert.EqualValues(t, tt.wantStatus, body["status"])

			if tt.wantRun {
				data := body["data"].(map[string]interface{})
				run := data["run"].(map[string]interface{})
				assert.Equal(t, models.RunStatusFailed, run["status"])
				assert.NotEmpty(t, run["error_kind"])
			} else {
				assert.Nil(t, body["data"])
			}
		})
	}
}

func TestCleaningController_CreateRunConfinement(t *testing.T) {
	root := t.TempDir()
	source := testutil.WriteFile(t, root, "raw.csv", rawCSV)
	svc := cleaning.NewService(nil, cleaning.Options{DataRoot: root})

	router := chi.NewRouter()
	router.Post("/cleaning/runs", NewCleaningControllerWithService(svc).CreateRun)
	helper := testutil.NewHTTPTestHelper()

	tests := []struct {
		name string
		body models.CleaningRequest
	}{
		{name: "输入文件逃逸", body: models.CleaningRequest{
			Config: &models.PipelineConfig{},
			Source: filepath.Join(root, "..", "etc", "passwd"),
		}},
		{name: "导出到根目录外", body: models.CleaningRequest{
			Config:      &models.PipelineConfig{},
			Source:      source,
			Destination: filepath.Join(t.TempDir(), "out.csv"),
		}},
		{name: "内联脚本", body: models.CleaningRequest{
			Config: &models.PipelineConfig{
				Columns: map[string]models.ColumnPolicy{"name": {Script: "return value, nil"}},
			},
			Source:      source,
			Destination: filepath.Join(root, "out.csv"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := helper.CreateJSONRequest(http.MethodPost, "/cleaning/runs", tt.body)
			require.NoError(t, err)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			body := helper.DecodeResponse(t, w, http.StatusBadRequest)
			assert.EqualValues(t, http.StatusBadRequest, body["status"])
			assert.Nil(t, body["data"])
		})
	}
}

func TestCleaningController_Runs(t *testing.T) {
	f := newAPIFixture(t)
	factory := testutil.NewTestDataFactory(f.db.DB)
	first := factory.CreateCleaningRun()
	factory.CreateCleaningRun(func(r *models.CleaningRun) { r.Status = models.RunStatusFailed })
	factory.CreateCleaningRun()

	t.Run("分页查询", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/cleaning/runs?page=1&size=2", nil)
		body := f.helper.DecodeResponse(t, w, http.StatusOK)
		assert.EqualValues(t, 3, body["total"])
		assert.EqualValues(t, 2, body["size"])
		assert.Len(t, body["data"], 2)
	})

	t.Run("按状态过滤", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/cleaning/runs?status=failed", nil)
		body := f.helper.DecodeResponse(t, w, http.StatusOK)
		assert.EqualValues(t, 1, body["total"])
		assert.EqualValues(t, 10, body["size"])
	})

	t.Run("查询详情", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/cleaning/runs/"+first.ID, nil)
		body := f.helper.DecodeResponse(t, w, http.StatusOK)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, first.ID, data["id"])
	})

	t.Run("详情不存在", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/cleaning/runs/absent", nil)
		f.helper.DecodeResponse(t, w, http.StatusNotFound)
	})
}

func TestCleaningController_Jobs(t *testing.T) {
	f := newAPIFixture(t)
	cfgPath := testutil.WriteFile(t, f.dir, "job.yaml", fmt.Sprintf("source: %s\n", f.source))

	w := f.do(t, http.MethodPost, "/cleaning/jobs", models.CreateCleaningJobRequest{
		Name:           "nightly",
		ConfigPath:     cfgPath,
		CronExpression: "0 30 1 * * *",
	})
	body := f.helper.DecodeResponse(t, w, http.StatusOK)
	job := body["data"].(map[string]interface{})
	jobID := job["id"].(string)
	assert.Equal(t, "nightly", job["name"])

	w = f.do(t, http.MethodPost, "/cleaning/jobs", models.CreateCleaningJobRequest{
		Name:           "nightly",
		ConfigPath:     cfgPath,
		CronExpression: "0 30 1 * * *",
	})
	f.helper.DecodeResponse(t, w, http.StatusConflict)

	w = f.do(t, http.MethodPost, "/cleaning/jobs", models.CreateCleaningJobRequest{
		Name:           "broken",
		ConfigPath:     cfgPath,
		CronExpression: "every night",
	})
	f.helper.DecodeResponse(t, w, http.StatusBadRequest)

	w = f.do(t, http.MethodGet, "/cleaning/jobs", nil)
	body = f.helper.DecodeResponse(t, w, http.StatusOK)
	assert.Len(t, body["data"], 1)

	w = f.do(t, http.MethodDelete, "/cleaning/jobs/"+jobID, nil)
	f.helper.DecodeResponse(t, w, http.StatusOK)

	w = f.do(t, http.MethodDelete, "/cleaning/jobs/"+jobID, nil)
	f.helper.DecodeResponse(t, w, http.StatusNotFound)
}

func TestHealthController(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "datahub-cleanser", health.Service)

	w = f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	f.checker.AddCheck("kafka", func(ctx context.Context) error { return fmt.Errorf("broker 不可达") })
	w = f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "not_ready", health.Status)
	assert.Equal(t, monitoring.StatusCritical, health.Components["kafka"].Status)
}

func TestEventController(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/cleaning/events/status", nil)
	body := f.helper.DecodeResponse(t, w, http.StatusOK)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 0, data["sse_connections"])

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/cleaning/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.router.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool { return f.events.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SSE连接未在取消后结束")
	}
	assert.Equal(t, 0, f.events.ConnectionCount())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: connected")
}
