package naver

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var nidPattern = regexp.MustCompile(`nid=(\d+)`)

// boardPage is the outcome of parsing one listing page.
type boardPage struct {
	NIDs         []string // newly discovered post ids within the date range
	Stop         bool     // reached a post older than the start date
	HasValidRows bool
	StockName    string
	Blocked      bool // Naver served its block/error page
}

func boardURL(code string, page int) string {
	return fmt.Sprintf("%s/item/board.naver?code=%s&page=%d", baseURL, code, page)
}

// parseBoardPage extracts post ids from a listing page. Rows newer than
// end are skipped without counting as empty; a row older than start sets
// Stop. Accepted ids are added to seen so later pages skip them.
func parseBoardPage(html string, start, end time.Time, seen map[string]struct{}, now time.Time, loc *time.Location) (boardPage, error) {
	var out boardPage

	if strings.Contains(html, "error_content") || strings.Contains(html, "페이지를 찾을 수 없습니다") {
		out.Blocked = true
		return out, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return out, fmt.Errorf("naver: parse board html: %w", err)
	}

	out.StockName = strings.TrimSpace(doc.Find(".wrap_company h2 a").First().Text())

	table := doc.Find("table.type2").First()
	if table.Length() == 0 {
		return out, nil
	}

	table.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.HasClass("blank_row") {
			return true
		}
		if rowHTML, err := row.Html(); err == nil && strings.Contains(rowHTML, "u_cbox_cleanbot") {
			return true
		}

		cells := row.Find("td")
		if cells.Length() < 6 {
			return true
		}

		href, _ := cells.Eq(1).Find("a").First().Attr("href")
		m := nidPattern.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		out.HasValidRows = true

		postTime, ok := parseBoardDate(strings.TrimSpace(cells.Eq(0).Text()), now, loc)
		if ok {
			if !end.IsZero() && postTime.After(end) {
				return true // future relative to the range, not an empty row
			}
			if !start.IsZero() && postTime.Before(start) {
				out.Stop = true
				return false
			}
		}

		nid := m[1]
		if _, dup := seen[nid]; dup {
			return true
		}
		seen[nid] = struct{}{}
		out.NIDs = append(out.NIDs, nid)
		return true
	})

	return out, nil
}

// parseBoardDate handles the two date-cell formats: "2025.11.15" (with an
// optional time suffix) and a bare "09:30" which means today.
func parseBoardDate(cell string, now time.Time, loc *time.Location) (time.Time, bool) {
	if cell == "" {
		return time.Time{}, false
	}
	if strings.Contains(cell, ":") && !strings.Contains(cell, ".") {
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true
	}
	datePart := cell
	if i := strings.IndexByte(cell, ' '); i >= 0 {
		datePart = cell[:i]
	}
	t, err := time.ParseInLocation("2006.01.02", datePart, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Discussions walks the board for one stock and returns post ids within
// [start, end], plus the stock name scraped from the first page. The HTTP
// phase covers pages 1..BrowserSwitchPage; the browser phase continues
// from there (or takes over early after repeated HTTP failures).
func (s *Scraper) Discussions(ctx context.Context, code string, start, end time.Time) ([]string, string, error) {
	var (
		nids       []string
		stockName  string
		seen       = map[string]struct{}{}
		emptyPages int
		blockTries int
		pageErrors int
		switchOver bool
	)

	s.Log.Info("Board walk started",
		zap.String("stock", code),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	page := 0
	for page < s.cfg.BrowserSwitchPage {
		page++

		resp, err := s.client().R().SetContext(ctx).Get(boardURL(code, page))
		if err != nil {
			pageErrors++
			s.Log.Warn("Board page fetch failed",
				zap.String("stock", code),
				zap.Int("page", page),
				zap.Int("errors", pageErrors),
				zap.Error(err),
			)
			if pageErrors >= maxPageErrors {
				switchOver = true
				break
			}
			if err := sleepCtx(ctx, errorBackoff); err != nil {
				return nids, stockName, err
			}
			s.resetSession()
			page--
			continue
		}
		pageErrors = 0

		bp, err := parseBoardPage(resp.String(), start, end, seen, time.Now(), s.cfg.Location)
		if err != nil {
			return nids, stockName, err
		}

		if bp.Blocked {
			blockTries++
			if blockTries > maxBlockRetries {
				s.Log.Error("Board block persisted, giving up",
					zap.String("stock", code),
					zap.Int("page", page),
				)
				break
			}
			s.Log.Warn("Board block detected, backing off",
				zap.String("stock", code),
				zap.Int("page", page),
				zap.Int("retry", blockTries),
			)
			if err := sleepCtx(ctx, blockBackoff); err != nil {
				return nids, stockName, err
			}
			s.resetSession()
			page--
			continue
		}
		blockTries = 0

		if page == 1 && bp.StockName != "" {
			stockName = bp.StockName
			s.Log.Info("Stock name resolved",
				zap.String("stock", code),
				zap.String("name", stockName),
			)
		}

		nids = append(nids, bp.NIDs...)
		s.Log.Debug("Board page parsed",
			zap.String("stock", code),
			zap.Int("page", page),
			zap.Int("found", len(bp.NIDs)),
		)

		if bp.HasValidRows {
			emptyPages = 0
		} else {
			emptyPages++
			if emptyPages >= maxEmptyPages {
				s.Log.Info("Consecutive empty pages, stopping",
					zap.String("stock", code),
					zap.Int("page", page),
				)
				return nids, stockName, nil
			}
		}

		if bp.Stop {
			s.Log.Info("Reached posts before start date",
				zap.String("stock", code),
				zap.Int("page", page),
			)
			return nids, stockName, nil
		}

		if page == s.cfg.BrowserSwitchPage {
			switchOver = true
		}

		if err := sleepCtx(ctx, s.cfg.RequestDelay); err != nil {
			return nids, stockName, err
		}
	}

	if switchOver {
		s.Log.Info("Switching to browser pagination",
			zap.String("stock", code),
			zap.Int("page", page),
		)
		browserNIDs, err := s.collectWithBrowser(ctx, code, page, start, end, seen)
		nids = append(nids, browserNIDs...)
		if err != nil {
			s.Log.Warn("Browser pagination ended with error",
				zap.String("stock", code),
				zap.Error(err),
			)
		}
	}

	s.Log.Info("Board walk finished",
		zap.String("stock", code),
		zap.Int("total", len(nids)),
	)
	return nids, stockName, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
