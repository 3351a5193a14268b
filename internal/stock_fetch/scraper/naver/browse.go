package naver

import (
	"context"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// collectWithBrowser continues the board walk from startPage by clicking
// the "next 10 pages" control (table.Nnavi td.pgR a). Naver signals a
// block on deep pages with a javascript alert, so an open dialog aborts
// the walk.
func (s *Scraper) collectWithBrowser(ctx context.Context, code string, startPage int, start, end time.Time, seen map[string]struct{}) ([]string, error) {
	page, err := s.Browser.StealthPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()
	page = page.Context(ctx)

	alerts := make(chan string, 1)
	go page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		select {
		case alerts <- e.Message:
		default:
		}
		_ = proto.PageHandleJavaScriptDialog{Accept: false}.Call(page)
	})()

	if err := page.Navigate(boardURL(code, startPage)); err != nil {
		return nil, err
	}
	if _, err := page.Timeout(15*time.Second).Element("table.type2 tbody tr td.title a"); err != nil {
		s.Log.Warn("Board table never appeared in browser",
			zap.String("stock", code),
			zap.Int("page", startPage),
			zap.Error(err),
		)
		return nil, err
	}

	var (
		nids        []string
		currentPage = startPage
		emptyPages  int
		clicks      int
	)

	for {
		select {
		case msg := <-alerts:
			s.Log.Warn("Alert during browser pagination, aborting",
				zap.String("stock", code),
				zap.String("message", msg),
			)
			return nids, nil
		default:
		}

		html, err := page.HTML()
		if err != nil {
			return nids, err
		}
		bp, err := parseBoardPage(html, start, end, seen, time.Now(), s.cfg.Location)
		if err != nil {
			return nids, err
		}
		nids = append(nids, bp.NIDs...)
		s.Log.Debug("Browser page parsed",
			zap.String("stock", code),
			zap.Int("page", currentPage),
			zap.Int("found", len(bp.NIDs)),
		)

		if bp.Stop {
			s.Log.Info("Reached posts before start date in browser",
				zap.String("stock", code),
				zap.Int("page", currentPage),
			)
			return nids, nil
		}
		if bp.HasValidRows {
			emptyPages = 0
		} else {
			emptyPages++
			if emptyPages >= maxEmptyPages {
				return nids, nil
			}
		}

		next, err := page.Timeout(3*time.Second).Element("table.Nnavi td.pgR a")
		if err != nil {
			s.Log.Info("No next control, last page reached",
				zap.String("stock", code),
				zap.Int("page", currentPage),
				zap.Int("clicks", clicks),
			)
			return nids, nil
		}

		if err := sleepCtx(ctx, 500*time.Millisecond); err != nil {
			return nids, err
		}
		if err := next.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return nids, err
		}
		clicks++
		currentPage += 10 // pgR jumps a block of ten pages

		if _, err := page.Timeout(15*time.Second).Element("table.type2 tbody tr td.title a"); err != nil {
			// Slow load; give the page a moment before re-reading the DOM.
			if err := sleepCtx(ctx, 2*time.Second); err != nil {
				return nids, err
			}
		}
	}
}
