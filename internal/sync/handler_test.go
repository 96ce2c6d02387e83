package sync

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zetalabs/teliads/internal/facebook"
)

func newHandlerEngine(comp *Component) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/sync", Handler(comp, testLogger()))
	return engine
}

func TestHandlerReturns503BeforeServiceWired(t *testing.T) {
	comp := &Component{log: testLogger()}
	engine := newHandlerEngine(comp)

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sync", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestHandlerReportsSuccess(t *testing.T) {
	fetcher := &fakeFetcher{
		insights: []facebook.AdInsight{{CampaignName: "C", AdName: "A", Spend: "5.00", AdID: "a1"}},
	}
	comp := &Component{log: testLogger()}
	comp.svc = NewService(fetcher, &fakeWriter{}, testLogger())

	engine := newHandlerEngine(comp)
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sync", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rr.Code, rr.Body.String())
	}

	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Report  Report `json:"report"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Status != "success" {
		t.Errorf("expected status success, got %q", body.Status)
	}
	if body.Message != "Data sync completed" {
		t.Errorf("unexpected message: %q", body.Message)
	}
	if body.Report.AdsFetched != 1 || body.Report.RowsWritten != 1 {
		t.Errorf("unexpected report: %+v", body.Report)
	}
}

func TestHandlerReports500OnFailure(t *testing.T) {
	comp := &Component{log: testLogger()}
	comp.svc = NewService(&fakeFetcher{fetchErr: errors.New("graph down")}, &fakeWriter{}, testLogger())

	engine := newHandlerEngine(comp)
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sync", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["status"] != "error" {
		t.Errorf("expected status error, got %q", body["status"])
	}
	if body["message"] != "graph down" {
		t.Errorf("unexpected message: %q", body["message"])
	}
}
