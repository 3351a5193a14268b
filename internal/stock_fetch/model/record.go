package model

import "time"

// Source identifies which site produced a record.
type Source string

const (
	SourceNaver Source = "naver"
	SourceToss  Source = "toss"
)

// Record is one normalized discussion post or comment thread root.
// (RecordID, Source, EntityCode) is unique within a single collection run;
// the scraper that produced the stream is responsible for deduplication.
type Record struct {
	EntityCode        string    `json:"stock_code"`
	EntitySecondaryID string    `json:"isin_code,omitempty"` // ISIN, when known
	EntityName        string    `json:"stock_name"`
	RecordID          int64     `json:"comment_id"` // source-assigned post id (nid)
	Author            string    `json:"author_name"`
	Timestamp         time.Time `json:"date"` // authoritative time, 1s precision
	Content           string    `json:"content"`
	Likes             int       `json:"likes_count"`
	Dislikes          int       `json:"dislikes_count"`
	Extra             string    `json:"comment_data"` // serialized replies, passed through as-is
	Source            Source    `json:"source"`
}

// Comment is a nested reply under a post. It is carried inside
// Record.Extra as a JSON array, matching the uploaded column format.
type Comment struct {
	Index    int    `json:"index"`
	Author   string `json:"author"`
	Text     string `json:"text"`
	Date     string `json:"date"` // "2006-01-02 15:04:05", already localized
	Likes    int    `json:"likes"`
	Dislikes int    `json:"dislikes"`
}
