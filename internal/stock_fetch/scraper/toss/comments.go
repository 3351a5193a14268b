package toss

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/model"
)

type commentRequest struct {
	SubjectID       string `json:"subjectId"`
	SubjectType     string `json:"subjectType"`
	CommentSortType string `json:"commentSortType"`
	CommentID       string `json:"commentId,omitempty"`
}

type commentItem struct {
	ID      int64 `json:"id"`
	Comment struct {
		Message      string `json:"message"`
		LikeCount    int    `json:"likeCount"`
		DislikeCount int    `json:"dislikeCount"`
		ReplyCount   int    `json:"commentCount"`
		UpdatedAt    string `json:"updatedAt"`
	} `json:"comment"`
	Author struct {
		Nickname string `json:"nickname"`
	} `json:"author"`
}

type commentResponse struct {
	Result struct {
		Comments struct {
			Body    []commentItem `json:"body"`
			HasNext bool          `json:"hasNext"`
		} `json:"comments"`
	} `json:"result"`
}

// Crawl bootstraps a browser session and pages through the comment feed
// for one stock, newest first, until it runs past start or the feed ends.
// Toss keys subjects by ISIN, not by the local stock code.
func (s *Scraper) Crawl(ctx context.Context, stock *model.StockInfo, start, end time.Time) ([]model.Record, error) {
	if stock.IsinCode == "" {
		return nil, model.NewSiteError(500, "toss: stock %s has no ISIN", stock.StockCode)
	}

	sess, err := s.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	s.Log.Info("Comment crawl started",
		zap.String("stock", stock.StockCode),
		zap.String("isin", stock.IsinCode),
	)

	var (
		records []model.Record
		cursor  string
	)
	for page := 0; page < maxAPIPages; page++ {
		resp, err := s.fetchPage(ctx, sess, stock.IsinCode, cursor)
		if err != nil {
			return records, err
		}

		body := resp.Result.Comments.Body
		if len(body) == 0 {
			break
		}

		mapped, done := mapComments(s.Log, body, stock, start, end, s.cfg.Location)
		records = append(records, mapped...)
		if done || !resp.Result.Comments.HasNext {
			break
		}
		cursor = strconv.FormatInt(body[len(body)-1].ID, 10)

		if err := sleepCtx(ctx, s.cfg.RequestDelay); err != nil {
			return records, err
		}
	}

	s.Log.Info("Comment crawl finished",
		zap.String("stock", stock.StockCode),
		zap.Int("total", len(records)),
	)
	return records, nil
}

// mapComments turns one API page into records, dropping entries outside
// [start, end]. done reports that the feed has run past start, so paging
// can stop.
func mapComments(log *zap.Logger, body []commentItem, stock *model.StockInfo, start, end time.Time, loc *time.Location) (records []model.Record, done bool) {
	for _, item := range body {
		ts, err := parseCommentTime(item.Comment.UpdatedAt, loc)
		if err != nil {
			log.Warn("Comment timestamp unparseable, skipping",
				zap.Int64("id", item.ID),
				zap.String("value", item.Comment.UpdatedAt),
			)
			continue
		}
		if !start.IsZero() && ts.Before(start) {
			return records, true
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}
		records = append(records, model.Record{
			EntityCode:        stock.StockCode,
			EntitySecondaryID: stock.IsinCode,
			EntityName:        stock.StockName,
			RecordID:          item.ID,
			Author:            item.Author.Nickname,
			Timestamp:         ts,
			Content:           item.Comment.Message,
			Likes:             item.Comment.LikeCount,
			Dislikes:          item.Comment.DislikeCount,
			Extra:             "[]",
			Source:            model.SourceToss,
		})
	}
	return records, false
}

func (s *Scraper) fetchPage(ctx context.Context, sess *session, isin, cursor string) (*commentResponse, error) {
	var out commentResponse

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, s.cfg.RequestDelay); err != nil {
				return nil, err
			}
		}

		resp, err := s.http.R().
			SetContext(ctx).
			SetCookies(sess.cookies).
			SetHeader("X-XSRF-TOKEN", sess.token).
			SetHeader("Referer", fmt.Sprintf("%s/stocks/%s/community", siteURL, isin)).
			SetBody(commentRequest{
				SubjectID:       isin,
				SubjectType:     "STOCK",
				CommentSortType: "RECENT",
				CommentID:       cursor,
			}).
			SetResult(&out).
			Post(commentAPIURL)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.IsError() {
			lastErr = model.NewSiteError(resp.StatusCode(),
				"toss: comment api returned %s", resp.Status())
			continue
		}
		return &out, nil
	}
	return nil, lastErr
}

// parseCommentTime accepts the API's RFC3339 timestamps and the zone-less
// variant some payloads carry.
func parseCommentTime(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	trimmed := value
	if i := strings.IndexByte(trimmed, '.'); i >= 0 {
		trimmed = trimmed[:i]
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", trimmed, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", value, err)
	}
	return t, nil
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
