package naver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/model"
)

// Crawl runs the full collection for one stock: board walk, then detail
// fetches on a bounded worker pool. It returns the normalized records and
// the stock name (scraped when the caller did not supply one). Individual
// detail failures are logged and skipped, not fatal.
func (s *Scraper) Crawl(ctx context.Context, code, name string, start, end time.Time) ([]model.Record, string, error) {
	nids, scrapedName, err := s.Discussions(ctx, code, start, end)
	if err != nil {
		return nil, name, err
	}
	if name == "" {
		name = scrapedName
	}
	if len(nids) == 0 {
		return nil, name, nil
	}

	s.Log.Info("Detail collection started",
		zap.String("stock", code),
		zap.Int("posts", len(nids)),
		zap.Int("workers", s.cfg.DetailWorkers),
	)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []model.Record
		sem     = make(chan struct{}, s.cfg.DetailWorkers)
	)

	for _, nid := range nids {
		wg.Add(1)
		go func(nid string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			rec, err := s.Detail(ctx, code, name, nid)
			if err != nil {
				s.Log.Warn("Detail fetch skipped",
					zap.String("stock", code),
					zap.String("nid", nid),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			records = append(records, *rec)
			mu.Unlock()
		}(nid)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return records, name, err
	}

	s.Log.Info("Detail collection finished",
		zap.String("stock", code),
		zap.Int("collected", len(records)),
	)
	return records, name, nil
}
