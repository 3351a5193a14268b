package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"stock-fetch/internal/stock_fetch/model"
)

const commentAPIURL = "https://apis.naver.com/commentBox/cbox/web_naver_list_jsonp.json"

var (
	jsonpHead = regexp.MustCompile(`^[^(]*\(`)
	jsonpTail = regexp.MustCompile(`\);?\s*$`)
)

type commentResponse struct {
	Success bool `json:"success"`
	Result  struct {
		CommentList []struct {
			UserName       string `json:"userName"`
			Contents       string `json:"contents"`
			RegTime        string `json:"regTime"`
			SympathyCount  int    `json:"sympathyCount"`
			AntipathyCount int    `json:"antipathyCount"`
		} `json:"commentList"`
	} `json:"result"`
}

// comments fetches replies for one post through the comment-box JSONP API.
func (s *Scraper) comments(ctx context.Context, code, nid string) ([]model.Comment, error) {
	resp, err := s.client().R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ticket":        "finance",
			"templateId":    "community",
			"pool":          "cbox12",
			"lang":          "ko",
			"country":       "KR",
			"objectId":      nid,
			"categoryId":    "",
			"pageSize":      "100",
			"indexSize":     "10",
			"groupId":       "",
			"listType":      "OBJECT",
			"pageType":      "more",
			"page":          "1",
			"initialize":    "true",
			"followSize":    "5",
			"useAltSort":    "true",
			"replyPageSize": "5",
			"_callback":     "jQuery",
			"_":             strconv.FormatInt(time.Now().UnixMilli(), 10),
		}).
		SetHeader("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 13_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0.4 Mobile/15E148 Safari/604.1").
		SetHeader("Referer", fmt.Sprintf("%s/domestic/stock/%s/discussion/%s", mobileURL, code, nid)).
		Get(commentAPIURL)
	if err != nil {
		return nil, fmt.Errorf("naver: comment api %s: %w", nid, err)
	}

	return parseCommentJSONP(resp.String(), s.cfg.Location)
}

// parseCommentJSONP strips the jQuery callback wrapper and maps the
// comment list. Unparseable reply timestamps keep the raw string.
func parseCommentJSONP(payload string, loc *time.Location) ([]model.Comment, error) {
	stripped := jsonpHead.ReplaceAllString(payload, "")
	stripped = jsonpTail.ReplaceAllString(stripped, "")

	var resp commentResponse
	if err := json.Unmarshal([]byte(stripped), &resp); err != nil {
		return nil, fmt.Errorf("naver: decode comment jsonp: %w", err)
	}
	if !resp.Success {
		return nil, nil
	}

	comments := make([]model.Comment, 0, len(resp.Result.CommentList))
	for i, c := range resp.Result.CommentList {
		date := c.RegTime
		if t, err := parseSiteTime(c.RegTime, loc); err == nil {
			date = t.Format("2006-01-02 15:04:05")
		}
		comments = append(comments, model.Comment{
			Index:    i + 1,
			Author:   c.UserName,
			Text:     c.Contents,
			Date:     date,
			Likes:    c.SympathyCount,
			Dislikes: c.AntipathyCount,
		})
	}
	return comments, nil
}
