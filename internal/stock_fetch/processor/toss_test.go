package processor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/export"
	"stock-fetch/internal/stock_fetch/helper"
	"stock-fetch/internal/stock_fetch/model"
)

type fakeTossCrawler struct {
	records []model.Record
	err     error
}

func (f *fakeTossCrawler) Crawl(_ context.Context, stock *model.StockInfo, _, _ time.Time) ([]model.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Record, len(f.records))
	copy(out, f.records)
	for i := range out {
		out[i].EntityCode = stock.StockCode
		out[i].EntitySecondaryID = stock.IsinCode
	}
	return out, nil
}

func newToss(catalog *fakeCatalog, crawler *fakeTossCrawler, up *recordingUploader) *Toss {
	return &Toss{
		Log:     zap.NewNop(),
		Catalog: catalog,
		Crawler: crawler,
		Export: &export.Pipeline{
			Log:        zap.NewNop(),
			Serializer: noopSerializer{},
			Uploader:   up,
		},
		BasePath: "marketing/stock_discussion",
		Location: seoul,
	}
}

func TestTossCollectNamesByISIN(t *testing.T) {
	catalog := &fakeCatalog{stocks: map[string]*model.StockInfo{
		"005930": {StockCode: "005930", StockName: "삼성전자", IsinCode: "KR7005930003"},
	}}
	crawler := &fakeTossCrawler{records: []model.Record{
		{RecordID: 9001, Timestamp: time.Date(2025, 11, 15, 10, 0, 0, 0, seoul), Source: model.SourceToss},
	}}
	up := &recordingUploader{}

	result, err := newToss(catalog, crawler, up).Collect(context.Background(),
		"005930", day(14), day(15))
	require.NoError(t, err)

	require.Equal(t, model.SourceToss, result.Source)
	require.Equal(t, []string{
		"marketing/stock_discussion/dt=2025-11-15/KR7005930003_2025-11-15.parquet",
	}, up.paths)
}

func TestTossCollectUnknownStock(t *testing.T) {
	_, err := newToss(&fakeCatalog{}, &fakeTossCrawler{}, &recordingUploader{}).
		Collect(context.Background(), "999999", day(14), day(15))
	require.ErrorIs(t, err, helper.ErrStockNotFound)
}
