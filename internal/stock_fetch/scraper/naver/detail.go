package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/model"
)

// The mobile site is a Next.js app; the post payload rides in the
// __NEXT_DATA__ script as a dehydrated react-query cache.
type nextData struct {
	Props struct {
		PageProps struct {
			DehydratedState struct {
				Queries []struct {
					QueryKey []json.RawMessage `json:"queryKey"`
					State    struct {
						Data struct {
							Result json.RawMessage `json:"result"`
						} `json:"data"`
					} `json:"state"`
				} `json:"queries"`
			} `json:"dehydratedState"`
		} `json:"pageProps"`
	} `json:"props"`
}

type discussionDetail struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Writer  struct {
		Nickname string `json:"nickname"`
	} `json:"writer"`
	ContentHTML           string `json:"contentHtml"`
	ContentJSONSwReplaced string `json:"contentJsonSwReplaced"`
	RecommendCount        int    `json:"recommendCount"`
	NotRecommendCount     int    `json:"notRecommendCount"`
	WrittenAt             string `json:"writtenAt"`
}

// Detail fetches one post and returns it as a normalized record, replies
// included. Failed fetches are retried with a fresh session.
func (s *Scraper) Detail(ctx context.Context, code, name, nid string) (*model.Record, error) {
	url := fmt.Sprintf("%s/pc/domestic/stock/%s/discussion/%s", mobileURL, code, nid)

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			s.resetSession()
			if err := sleepCtx(ctx, time.Second); err != nil {
				return nil, err
			}
		}

		resp, err := s.client().R().SetContext(ctx).Get(url)
		if err != nil {
			lastErr = err
			continue
		}

		rec, err := s.parseDetailPage(resp.String(), code, name, nid)
		if err != nil {
			lastErr = err
			continue
		}

		comments, err := s.comments(ctx, code, nid)
		if err != nil {
			// A post without its replies is still worth keeping.
			s.Log.Warn("Reply fetch failed",
				zap.String("stock", code),
				zap.String("nid", nid),
				zap.Error(err),
			)
		}
		if len(comments) > 0 {
			raw, err := json.Marshal(comments)
			if err == nil {
				rec.Extra = string(raw)
			}
		}
		if rec.Extra == "" {
			rec.Extra = "[]"
		}
		return rec, nil
	}

	return nil, fmt.Errorf("naver: detail %s/%s: %w", code, nid, lastErr)
}

func (s *Scraper) parseDetailPage(html, code, name, nid string) (*model.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("naver: parse detail html: %w", err)
	}
	payload := doc.Find("script#__NEXT_DATA__").First().Text()
	if payload == "" {
		return nil, fmt.Errorf("naver: detail %s: no __NEXT_DATA__", nid)
	}
	return parseDetailPayload(payload, code, name, nid, s.cfg.Location)
}

// parseDetailPayload extracts the /discussion/detail query result from the
// dehydrated state and builds the record.
func parseDetailPayload(payload, code, name, nid string, loc *time.Location) (*model.Record, error) {
	var data nextData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("naver: decode __NEXT_DATA__: %w", err)
	}

	var detail *discussionDetail
	for _, q := range data.Props.PageProps.DehydratedState.Queries {
		if len(q.QueryKey) == 0 {
			continue
		}
		var key struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(q.QueryKey[0], &key); err != nil || key.URL != "/discussion/detail" {
			continue
		}
		var d discussionDetail
		if err := json.Unmarshal(q.State.Data.Result, &d); err != nil {
			return nil, fmt.Errorf("naver: decode discussion detail: %w", err)
		}
		detail = &d
		break
	}
	if detail == nil {
		return nil, fmt.Errorf("naver: detail %s: no discussion data", nid)
	}

	title := detail.Title
	if title == "" {
		title = detail.Subject
	}
	content := extractContent(detail)
	if title != "" {
		content = title + "\n\n" + content
	}

	writtenAt, err := parseSiteTime(detail.WrittenAt, loc)
	if err != nil {
		return nil, fmt.Errorf("naver: detail %s: %w", nid, err)
	}

	id, err := strconv.ParseInt(nid, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("naver: detail %s: bad nid: %w", nid, err)
	}

	return &model.Record{
		EntityCode: code,
		EntityName: name,
		RecordID:   id,
		Author:     detail.Writer.Nickname,
		Timestamp:  writtenAt,
		Content:    strings.TrimSpace(content),
		Likes:      detail.RecommendCount,
		Dislikes:   detail.NotRecommendCount,
		Source:     model.SourceNaver,
	}, nil
}

func extractContent(detail *discussionDetail) string {
	if detail.ContentHTML != "" {
		return htmlToText(detail.ContentHTML)
	}
	if detail.ContentJSONSwReplaced == "" {
		return ""
	}
	var summary struct {
		ContentSummary string `json:"contentSummary"`
	}
	if err := json.Unmarshal([]byte(detail.ContentJSONSwReplaced), &summary); err != nil {
		return detail.ContentJSONSwReplaced
	}
	return htmlToText(summary.ContentSummary)
}

func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}

// parseSiteTime parses the ISO-ish timestamps both the detail payload and
// the comment API emit: optional fractional seconds, optional zone suffix.
// Zone-less values are taken to already be in loc.
func parseSiteTime(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}

	trimmed := value
	if i := strings.IndexByte(trimmed, '+'); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimSuffix(trimmed, "Z")
	if i := strings.IndexByte(trimmed, '.'); i >= 0 {
		trimmed = trimmed[:i]
	}

	t, err := time.ParseInLocation("2006-01-02T15:04:05", trimmed, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", value, err)
	}
	return t, nil
}
