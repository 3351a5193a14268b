package processor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/export"
	"stock-fetch/internal/stock_fetch/model"
)

// TossCrawler collects comment records for one stock. Toss addresses
// subjects by ISIN, so it needs the full catalog entry.
type TossCrawler interface {
	Crawl(ctx context.Context, stock *model.StockInfo, start, end time.Time) ([]model.Record, error)
}

type Toss struct {
	Log     *zap.Logger
	Catalog Catalog
	Crawler TossCrawler
	Export  *export.Pipeline

	BasePath string
	Location *time.Location
}

// Collect fetches the comment feed for one stock and exports it. The
// upload identifier is the ISIN, matching the subject key Toss uses.
func (p *Toss) Collect(ctx context.Context, code string, start, end time.Time) (*model.ExportResult, error) {
	stock, err := p.Catalog.StockByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	records, err := p.Crawler.Crawl(ctx, stock, start, end)
	if err != nil {
		return nil, err
	}

	return p.Export.Export(ctx, records, export.Meta{
		EntityCode: stock.StockCode,
		EntityName: stock.StockName,
		Identifier: stock.IsinCode,
		Source:     model.SourceToss,
		BasePath:   p.BasePath,
		Location:   p.Location,
	})
}
