package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/export"
	"stock-fetch/internal/stock_fetch/helper"
	"stock-fetch/internal/stock_fetch/model"
	"stock-fetch/internal/stock_fetch/processor"
)

var seoul = time.FixedZone("KST", 9*3600)

type fakeCatalog struct {
	stocks map[string]*model.StockInfo
}

func (c *fakeCatalog) StockByCode(_ context.Context, code string) (*model.StockInfo, error) {
	if s, ok := c.stocks[code]; ok {
		return s, nil
	}
	return nil, helper.ErrStockNotFound
}

func (c *fakeCatalog) TargetStocks(context.Context) ([]model.StockInfo, error) {
	out := make([]model.StockInfo, 0, len(c.stocks))
	for _, s := range c.stocks {
		out = append(out, *s)
	}
	return out, nil
}

type fakeNaverCrawler struct {
	records []model.Record
}

func (f *fakeNaverCrawler) Crawl(_ context.Context, code, name string, _, _ time.Time) ([]model.Record, string, error) {
	if name == "" {
		name = "종목" + code
	}
	return f.records, name, nil
}

type fakeTossCrawler struct {
	records []model.Record
}

func (f *fakeTossCrawler) Crawl(context.Context, *model.StockInfo, time.Time, time.Time) ([]model.Record, error) {
	return f.records, nil
}

type stubSerializer struct{}

func (stubSerializer) Serialize([]model.Record, string) ([]byte, error) { return []byte("p"), nil }
func (stubSerializer) Extension() string { return "parquet" }

type stubUploader struct {
	failOn int // 1-based call index that fails, 0 = never
	calls  int
}

func (u *stubUploader) Upload(_ context.Context, _ []byte, path string) (string, error) {
	u.calls++
	if u.failOn > 0 && u.calls == u.failOn {
		return "", fmt.Errorf("gcs write: connection reset")
	}
	return "gs://bucket/" + path, nil
}

func newServer(catalog *fakeCatalog, naverRecs, tossRecs []model.Record, up *stubUploader) *Server {
	pipeline := &export.Pipeline{
		Log:        zap.NewNop(),
		Serializer: stubSerializer{},
		Uploader:   up,
	}
	return &Server{
		Log: zap.NewNop(),
		Naver: &processor.Naver{
			Log:      zap.NewNop(),
			Catalog:  catalog,
			Crawler:  &fakeNaverCrawler{records: naverRecs},
			Export:   pipeline,
			BasePath: "marketing/stock_discussion",
			Location: seoul,
		},
		Toss: &processor.Toss{
			Log:      zap.NewNop(),
			Catalog:  catalog,
			Crawler:  &fakeTossCrawler{records: tossRecs},
			Export:   pipeline,
			BasePath: "marketing/stock_discussion",
			Location: seoul,
		},
		Location: seoul,
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func rec(id int64, day int) model.Record {
	return model.Record{
		EntityCode: "005930",
		RecordID:   id,
		Timestamp:  time.Date(2025, 11, day, 12, 0, 0, 0, seoul),
		Source:     model.SourceNaver,
	}
}

func samsungCatalog() *fakeCatalog {
	return &fakeCatalog{stocks: map[string]*model.StockInfo{
		"005930": {StockCode: "005930", StockName: "삼성전자", IsinCode: "KR7005930003"},
	}}
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func TestWelcome(t *testing.T) {
	status, body := doJSON(t, newServer(samsungCatalog(), nil, nil, &stubUploader{}).Router(),
		http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 200, body["code"])
}

func TestNaverManual(t *testing.T) {
	srv := newServer(samsungCatalog(), []model.Record{rec(1, 15), rec(2, 15), rec(3, 14)}, nil, &stubUploader{})
	status, body := doJSON(t, srv.Router(), http.MethodPost, "/api/naver/discussions/manual",
		`{"stock_code":"005930","start_date":"2025-11-14","end_date":"2025-11-15"}`)

	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 200, body["code"])
	require.Equal(t, "005930", body["stock_code"])
	require.Equal(t, "삼성전자", body["stock_name"])
	require.EqualValues(t, 3, body["total_records"])
	// partition count, not the per-partition objects
	require.EqualValues(t, 2, body["partitions"])
	require.Equal(t, []any{
		"gs://bucket/marketing/stock_discussion/dt=2025-11-15/005930_2025-11-15.parquet",
		"gs://bucket/marketing/stock_discussion/dt=2025-11-14/005930_2025-11-14.parquet",
	}, body["urls"])
}

func TestNaverManualNoData(t *testing.T) {
	srv := newServer(samsungCatalog(), nil, nil, &stubUploader{})
	status, body := doJSON(t, srv.Router(), http.MethodPost, "/api/naver/discussions/manual",
		`{"stock_code":"005930"}`)

	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 204, body["code"])
	require.EqualValues(t, 0, body["total_records"])
}

func TestNaverManualUploadFailure(t *testing.T) {
	srv := newServer(samsungCatalog(), []model.Record{rec(1, 15), rec(2, 14)}, nil, &stubUploader{failOn: 2})
	status, body := doJSON(t, srv.Router(), http.MethodPost, "/api/naver/discussions/manual",
		`{"stock_code":"005930","start_date":"2025-11-14","end_date":"2025-11-15"}`)

	require.Equal(t, http.StatusInternalServerError, status)
	require.EqualValues(t, 500, body["code"])
	// the partition uploaded before the failure is reported back
	require.Len(t, body["completed_partitions"], 1)
}

func TestNaverManualMissingStockCode(t *testing.T) {
	srv := newServer(samsungCatalog(), nil, nil, &stubUploader{})
	status, body := doJSON(t, srv.Router(), http.MethodPost, "/api/naver/discussions/manual", `{}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.EqualValues(t, 400, body["code"])
}

func TestNaverManualBadDates(t *testing.T) {
	srv := newServer(samsungCatalog(), nil, nil, &stubUploader{})

	status, _ := doJSON(t, srv.Router(), http.MethodPost, "/api/naver/discussions/manual",
		`{"stock_code":"005930","start_date":"15-11-2025"}`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, srv.Router(), http.MethodPost, "/api/naver/discussions/manual",
		`{"stock_code":"005930","start_date":"2025-11-15","end_date":"2025-11-01"}`)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestNaverBatch(t *testing.T) {
	srv := newServer(samsungCatalog(), []model.Record{rec(1, 15)}, nil, &stubUploader{})
	status, body := doJSON(t, srv.Router(), http.MethodPost, "/api/naver/discussions/batch",
		`{"start_date":"2025-11-14","end_date":"2025-11-15"}`)

	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 200, body["code"])
	require.EqualValues(t, 1, body["total_stocks"])
	require.EqualValues(t, 1, body["success_count"])
	require.EqualValues(t, 0, body["fail_count"])
}

func TestNaverBatchEmptyCatalog(t *testing.T) {
	srv := newServer(&fakeCatalog{}, nil, nil, &stubUploader{})
	status, body := doJSON(t, srv.Router(), http.MethodPost, "/api/naver/discussions/batch", `{}`)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 204, body["code"])
}

func TestTossManual(t *testing.T) {
	toss := []model.Record{{
		RecordID:  9001,
		Timestamp: time.Date(2025, 11, 15, 10, 0, 0, 0, seoul),
		Source:    model.SourceToss,
	}}
	srv := newServer(samsungCatalog(), nil, toss, &stubUploader{})
	status, body := doJSON(t, srv.Router(), http.MethodPost, "/api/toss/post-comments/manual",
		`{"stock_code":"005930","start_date":"2025-11-14","end_date":"2025-11-15"}`)

	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 200, body["code"])
	require.EqualValues(t, 1, body["partitions"])
	require.Equal(t, []any{
		"gs://bucket/marketing/stock_discussion/dt=2025-11-15/KR7005930003_2025-11-15.parquet",
	}, body["urls"])
}

func TestTossScheduledAlias(t *testing.T) {
	toss := []model.Record{{
		RecordID:  9002,
		Timestamp: time.Date(2025, 11, 15, 10, 0, 0, 0, seoul),
		Source:    model.SourceToss,
	}}
	srv := newServer(samsungCatalog(), nil, toss, &stubUploader{})
	status, body := doJSON(t, srv.Router(), http.MethodPost, "/api/toss/post-comments/scheduled",
		`{"stock_code":"005930","start_date":"2025-11-14","end_date":"2025-11-15"}`)

	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 200, body["code"])
	require.EqualValues(t, 1, body["total_records"])
}

func TestTossManualUnknownStock(t *testing.T) {
	srv := newServer(samsungCatalog(), nil, nil, &stubUploader{})
	status, body := doJSON(t, srv.Router(), http.MethodPost, "/api/toss/post-comments/manual",
		`{"stock_code":"999999"}`)
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, 404, body["code"])
}

func TestDateRangeDefaults(t *testing.T) {
	srv := &Server{Location: seoul}

	dr, err := srv.dateRange("", "")
	require.NoError(t, err)
	require.Equal(t, 8*24*time.Hour-time.Second, dr.end.Sub(dr.start))

	dr, err = srv.dateRange("string", "string")
	require.NoError(t, err)
	require.Equal(t, time.Now().In(seoul).Format(dateLayout), dr.endKey)
}
