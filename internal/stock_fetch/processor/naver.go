// Package processor ties the scrapers to the export pipeline: resolve the
// stock from the catalog, collect records, hand them off for upload.
package processor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/export"
	"stock-fetch/internal/stock_fetch/helper"
	"stock-fetch/internal/stock_fetch/model"
)

// Catalog is the stock lookup surface the processors need.
type Catalog interface {
	StockByCode(ctx context.Context, code string) (*model.StockInfo, error)
	TargetStocks(ctx context.Context) ([]model.StockInfo, error)
}

// NaverCrawler collects discussion records for one stock.
type NaverCrawler interface {
	Crawl(ctx context.Context, code, name string, start, end time.Time) ([]model.Record, string, error)
}

type Naver struct {
	Log     *zap.Logger
	Catalog Catalog
	Crawler NaverCrawler
	Export  *export.Pipeline

	BasePath string
	Location *time.Location
}

// Collect crawls one stock's discussion board over [start, end] and
// exports the result. A stock missing from the catalog still gets
// crawled, just without an ISIN.
func (p *Naver) Collect(ctx context.Context, code, name string, start, end time.Time) (*model.ExportResult, error) {
	isin := ""
	stock, err := p.Catalog.StockByCode(ctx, code)
	switch {
	case err == nil:
		isin = stock.IsinCode
		if name == "" {
			name = stock.StockName
		}
	case errors.Is(err, helper.ErrStockNotFound):
		p.Log.Warn("Stock not in catalog, crawling without ISIN", zap.String("stock", code))
	default:
		return nil, err
	}

	records, name, err := p.Crawler.Crawl(ctx, code, name, start, end)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].EntitySecondaryID = isin
		if records[i].EntityName == "" {
			records[i].EntityName = name
		}
	}

	return p.Export.Export(ctx, records, export.Meta{
		EntityCode: code,
		EntityName: name,
		Identifier: code,
		Source:     model.SourceNaver,
		BasePath:   p.BasePath,
		Location:   p.Location,
	})
}

// StockStatus is the per-stock outcome of a batch run.
type StockStatus struct {
	StockCode    string   `json:"stock_code"`
	Status       string   `json:"status"` // success | no_data | failed
	TotalRecords int      `json:"total_records,omitempty"`
	URLs         []string `json:"urls,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type BatchReport struct {
	TotalStocks  int           `json:"total_stocks"`
	SuccessCount int           `json:"success_count"`
	FailCount    int           `json:"fail_count"`
	Results      []StockStatus `json:"results"`
}

// CollectAll runs Collect over every target stock in the catalog. Stock
// failures are recorded per stock; only catalog access or cancellation
// aborts the batch.
func (p *Naver) CollectAll(ctx context.Context, start, end time.Time) (*BatchReport, error) {
	stocks, err := p.Catalog.TargetStocks(ctx)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return &BatchReport{}, nil
	}

	report := &BatchReport{TotalStocks: len(stocks)}
	for i, stock := range stocks {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		p.Log.Info("Batch stock started",
			zap.Int("index", i+1),
			zap.Int("total", len(stocks)),
			zap.String("stock", stock.StockCode),
			zap.String("name", stock.StockName),
		)

		result, err := p.Collect(ctx, stock.StockCode, stock.StockName, start, end)
		switch {
		case errors.Is(err, export.ErrEmptyInput):
			report.Results = append(report.Results, StockStatus{
				StockCode: stock.StockCode,
				Status:    "no_data",
			})
		case err != nil:
			report.FailCount++
			report.Results = append(report.Results, StockStatus{
				StockCode: stock.StockCode,
				Status:    "failed",
				Error:     err.Error(),
			})
			p.Log.Warn("Batch stock failed",
				zap.String("stock", stock.StockCode),
				zap.Error(err),
			)
		default:
			report.SuccessCount++
			report.Results = append(report.Results, StockStatus{
				StockCode:    stock.StockCode,
				Status:       "success",
				TotalRecords: result.TotalRecords,
				URLs:         result.URIs(),
			})
		}
	}

	p.Log.Info("Batch finished",
		zap.Int("success", report.SuccessCount),
		zap.Int("failed", report.FailCount),
	)
	return report, nil
}
