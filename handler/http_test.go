package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"video-tracker/constant"
	"video-tracker/dto"
	"video-tracker/entities"
	"video-tracker/service"
)

var testSecret = []byte("test-secret")

type fakeProgress struct {
	userID uint64
	sample dto.ProgressSample
	err    error
}

func (f *fakeProgress) SaveProgress(_ context.Context, userID uint64, sample dto.ProgressSample) (*dto.ProgressResult, error) {
	f.userID, f.sample = userID, sample
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ProgressResult{Status: constant.WatchStatusInProgress, VideoID: sample.VideoID, Written: true}, nil
}

type fakeReports struct {
	filter  dto.ReportFilter
	limit   int
	update  dto.UpdateRecordRequest
	deleted uint64
}

func (f *fakeReports) Query(_ context.Context, filter dto.ReportFilter, limit int) ([]*entities.ReportRow, error) {
	f.filter, f.limit = filter, limit
	return []*entities.ReportRow{{WatchRecord: entities.WatchRecord{ID: 1, VideoID: "v1"}, UserLogin: "jdoe"}}, nil
}

func (f *fakeReports) GetRecord(_ context.Context, id uint64) (*entities.ReportRow, error) {
	if id != 1 {
		return nil, service.ErrNotFound
	}
	return &entities.ReportRow{WatchRecord: entities.WatchRecord{ID: 1}}, nil
}

func (f *fakeReports) UpdateRecord(_ context.Context, id uint64, req dto.UpdateRecordRequest) (*entities.WatchRecord, error) {
	f.update = req
	return &entities.WatchRecord{ID: id, Percent: *req.Percent}, nil
}

func (f *fakeReports) DeleteRecord(_ context.Context, id uint64) error {
	f.deleted = id
	return nil
}

func (f *fakeReports) Export(_ context.Context, w io.Writer, format constant.ExportFormat, filter dto.ReportFilter) (int, error) {
	f.filter = filter
	_, err := io.WriteString(w, "ID,User ID\n1,7\n")
	return 1, err
}

func (f *fakeReports) DebugInfo(_ context.Context, userID uint64) (*dto.DebugInfo, error) {
	return &dto.DebugInfo{TableExists: true, CurrentUser: userID, AppVersion: constant.AppVersion}, nil
}

type fakeExports struct{}

func (fakeExports) CreateExport(_ context.Context, req dto.ExportRequest) (*entities.Job, error) {
	return &entities.Job{ID: uuid.New(), Status: constant.JobStatusPending, Format: req.Format}, nil
}

func (fakeExports) GetExport(_ context.Context, id uuid.UUID) (*service.ExportJob, error) {
	return nil, service.ErrNotFound
}

func (fakeExports) Process(context.Context, dto.ExportMessage) error {
	return nil
}

func newTestRouter(progress *fakeProgress, reports *fakeReports) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if err := RegisterBindings(); err != nil {
		panic(err)
	}

	r := gin.New()
	h := &HTTPHandler{Progress: progress, Reports: reports, Exports: fakeExports{}}
	h.Register(r, Middlewares{
		Logger:       WithLogger(context.Background()),
		Authenticate: Authenticate(testSecret),
		RequireAdmin: RequireRole("administrator"),
	})
	return r
}

func token(t *testing.T, subject, role string, secret []byte) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func do(r http.Handler, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body
}

func TestSaveProgressAuth(t *testing.T) {
	r := newTestRouter(&fakeProgress{}, &fakeReports{})
	body := `{"video_id":"v1","percent":10,"session_id":"42","session_name":"Safety"}`

	w := do(r, http.MethodPost, "/api/progress", "", body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: want=401 got=%d", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "User not logged in" {
		t.Fatalf("message: got %v", msg)
	}

	w = do(r, http.MethodPost, "/api/progress", token(t, "7", "subscriber", []byte("other")), body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature: want=401 got=%d", w.Code)
	}

	w = do(r, http.MethodPost, "/api/progress", token(t, "not-a-number", "subscriber", testSecret), body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad subject: want=401 got=%d", w.Code)
	}
}

func TestAuthenticateWithoutSecretRejectsAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/admin/records", Authenticate(nil), RequireRole("administrator"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for name, secret := range map[string][]byte{"nil": nil, "empty": []byte("")} {
		forged := token(t, "1", "administrator", secret)
		w := do(r, http.MethodGet, "/api/admin/records", forged, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s secret: want=401 got=%d", name, w.Code)
		}
	}
}

func TestSaveProgress(t *testing.T) {
	progress := &fakeProgress{}
	r := newTestRouter(progress, &fakeReports{})

	body := `{"video_id":"v1","percent":10,"current_duration":"00:00:30","full_duration":"00:05:00","session_id":"42","session_name":"Safety","source":"iframe"}`
	w := do(r, http.MethodPost, "/api/progress", token(t, "7", "subscriber", testSecret), body)
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["success"] != true || resp["status_label"] != "In Progress" {
		t.Fatalf("response: got %v", resp)
	}
	if progress.userID != 7 || progress.sample.Source != constant.SourceIframe || progress.sample.Percent != 10 {
		t.Fatalf("service call: user=%d sample=%+v", progress.userID, progress.sample)
	}
}

func TestSaveProgressValidation(t *testing.T) {
	r := newTestRouter(&fakeProgress{}, &fakeReports{})
	bearer := token(t, "7", "subscriber", testSecret)

	cases := map[string]string{
		"missing session": `{"video_id":"v1","percent":10,"session_name":"Safety"}`,
		"bad duration":    `{"video_id":"v1","percent":10,"session_id":"42","session_name":"Safety","full_duration":"1 hour"}`,
		"malformed json":  `{"video_id":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/progress", bearer, body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status: want=400 got=%d body=%s", w.Code, w.Body.String())
			}
		})
	}

	failing := newTestRouter(&fakeProgress{err: fmt.Errorf("%w: video_id or source_url is required", service.ErrValidation)}, &fakeReports{})
	w := do(failing, http.MethodPost, "/api/progress", bearer, `{"percent":10,"session_id":"42","session_name":"Safety"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("service validation: want=400 got=%d", w.Code)
	}
}

func TestAdminRequiresRole(t *testing.T) {
	r := newTestRouter(&fakeProgress{}, &fakeReports{})

	w := do(r, http.MethodGet, "/api/admin/records", token(t, "7", "subscriber", testSecret), "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("subscriber: want=403 got=%d", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "Access denied" {
		t.Fatalf("message: got %v", msg)
	}

	w = do(r, http.MethodGet, "/api/admin/records", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: want=401 got=%d", w.Code)
	}
}

func TestListRecordsFilters(t *testing.T) {
	reports := &fakeReports{}
	r := newTestRouter(&fakeProgress{}, reports)
	admin := token(t, "1", "administrator", testSecret)

	w := do(r, http.MethodGet, "/api/admin/records?search_user=jdoe&search_session=safety&filter_status=2", admin, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if reports.filter.UserLike != "jdoe" || reports.filter.SessionNameLike != "safety" {
		t.Fatalf("filter: got %+v", reports.filter)
	}
	if reports.filter.Status == nil || *reports.filter.Status != constant.WatchStatusCompleted {
		t.Fatalf("status filter: got %v", reports.filter.Status)
	}
	if reports.limit != constant.ReportDisplayLimit {
		t.Fatalf("limit: want=%d got=%d", constant.ReportDisplayLimit, reports.limit)
	}

	w = do(r, http.MethodGet, "/api/admin/records?filter_status=-1", admin, "")
	if w.Code != http.StatusOK || reports.filter.Status != nil {
		t.Fatalf("all statuses: code=%d status=%v", w.Code, reports.filter.Status)
	}

	w = do(r, http.MethodGet, "/api/admin/records?filter_status=done", admin, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad status: want=400 got=%d", w.Code)
	}
}

func TestRecordEndpoints(t *testing.T) {
	reports := &fakeReports{}
	r := newTestRouter(&fakeProgress{}, reports)
	admin := token(t, "1", "administrator", testSecret)

	if w := do(r, http.MethodGet, "/api/admin/records/1", admin, ""); w.Code != http.StatusOK {
		t.Fatalf("get: want=200 got=%d", w.Code)
	}
	w := do(r, http.MethodGet, "/api/admin/records/2", admin, "")
	if w.Code != http.StatusNotFound || decode(t, w)["message"] != "Record not found" {
		t.Fatalf("get missing: got %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/api/admin/records/abc", admin, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("get bad id: want=400 got=%d", w.Code)
	}

	w = do(r, http.MethodPut, "/api/admin/records/1", admin, `{"percent":75,"assessment_taken":true,"full_duration":"00:10:00"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if *reports.update.Percent != 75 || !reports.update.AssessmentTaken || reports.update.FullDuration != "00:10:00" {
		t.Fatalf("update request: got %+v", reports.update)
	}
	if w := do(r, http.MethodPut, "/api/admin/records/1", admin, `{"assessment_taken":true}`); w.Code != http.StatusBadRequest {
		t.Fatalf("update without percent: want=400 got=%d", w.Code)
	}

	if w := do(r, http.MethodDelete, "/api/admin/records/1", admin, ""); w.Code != http.StatusOK || reports.deleted != 1 {
		t.Fatalf("delete: code=%d deleted=%d", w.Code, reports.deleted)
	}
}

func TestExportEndpoint(t *testing.T) {
	r := newTestRouter(&fakeProgress{}, &fakeReports{})
	admin := token(t, "1", "administrator", testSecret)

	w := do(r, http.MethodGet, "/api/admin/export?format=csv", admin, "")
	if w.Code != http.StatusOK {
		t.Fatalf("export: want=200 got=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type: got %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Fatalf("content disposition: got %s", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "ID,User ID") {
		t.Fatalf("body: got %q", w.Body.String())
	}

	if w := do(r, http.MethodGet, "/api/admin/export?format=pdf", admin, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad format: want=400 got=%d", w.Code)
	}
}

func TestExportJobEndpoints(t *testing.T) {
	r := newTestRouter(&fakeProgress{}, &fakeReports{})
	admin := token(t, "1", "administrator", testSecret)

	w := do(r, http.MethodPost, "/api/admin/exports", admin, `{"format":"json","filter":{"search_user":"jdoe"}}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("create: want=202 got=%d body=%s", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodGet, "/api/admin/exports/"+uuid.NewString(), admin, ""); w.Code != http.StatusNotFound {
		t.Fatalf("get missing: want=404 got=%d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/admin/exports/nope", admin, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("get bad id: want=400 got=%d", w.Code)
	}
}

func TestDebugEndpoint(t *testing.T) {
	r := newTestRouter(&fakeProgress{}, &fakeReports{})

	w := do(r, http.MethodGet, "/api/admin/debug", token(t, "3", "administrator", testSecret), "")
	if w.Code != http.StatusOK {
		t.Fatalf("debug: want=200 got=%d", w.Code)
	}
	data := decode(t, w)["data"].(map[string]interface{})
	if data["current_user"] != float64(3) || data["app_version"] != constant.AppVersion {
		t.Fatalf("debug data: got %v", data)
	}
}
