// Package serializer encodes daily record groups as parquet payloads with
// the uploaded table schema: the record fields plus dt and source columns.
package serializer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"stock-fetch/internal/stock_fetch/model"
)

const timestampLayout = "2006-01-02 15:04:05"

type row struct {
	StockCode     string `parquet:"name=stock_code, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	StockName     string `parquet:"name=stock_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	CommentID     int64  `parquet:"name=comment_id, type=INT64"`
	AuthorName    string `parquet:"name=author_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date          string `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Content       string `parquet:"name=content, type=BYTE_ARRAY, convertedtype=UTF8"`
	LikesCount    int32  `parquet:"name=likes_count, type=INT32"`
	DislikesCount int32  `parquet:"name=dislikes_count, type=INT32"`
	CommentData   string `parquet:"name=comment_data, type=BYTE_ARRAY, convertedtype=UTF8"`
	Dt            string `parquet:"name=dt, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	IsinCode      string `parquet:"name=isin_code, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Source        string `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// Parquet serializes record groups with snappy compression. Timestamps are
// rendered in the run's location so the date column matches the dt key.
type Parquet struct {
	loc *time.Location
}

func NewParquet(loc *time.Location) *Parquet {
	if loc == nil {
		loc = time.UTC
	}
	return &Parquet{loc: loc}
}

func (p *Parquet) Extension() string { return "parquet" }

func (p *Parquet) Serialize(records []model.Record, dateKey string) ([]byte, error) {
	var buf bytes.Buffer
	pw, err := writer.NewParquetWriterFromWriter(&buf, new(row), 1)
	if err != nil {
		return nil, fmt.Errorf("serializer: create writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		extra := rec.Extra
		if extra == "" {
			extra = "[]"
		}
		r := row{
			StockCode:     rec.EntityCode,
			StockName:     rec.EntityName,
			CommentID:     rec.RecordID,
			AuthorName:    rec.Author,
			Date:          rec.Timestamp.In(p.loc).Format(timestampLayout),
			Content:       rec.Content,
			LikesCount:    int32(rec.Likes),
			DislikesCount: int32(rec.Dislikes),
			CommentData:   extra,
			Dt:            dateKey,
			IsinCode:      rec.EntitySecondaryID,
			Source:        string(rec.Source),
		}
		if err := pw.Write(r); err != nil {
			return nil, fmt.Errorf("serializer: write row %d: %w", rec.RecordID, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("serializer: finalize: %w", err)
	}
	return buf.Bytes(), nil
}
