package export

import (
	"time"

	"stock-fetch/internal/stock_fetch/model"
)

// DateKey is a calendar-day partition key, always formatted YYYY-MM-DD in
// the run's location.
type DateKey string

const dateKeyLayout = "2006-01-02"

// NewDateKey floors t to the calendar day in loc.
func NewDateKey(t time.Time, loc *time.Location) DateKey {
	return DateKey(t.In(loc).Format(dateKeyLayout))
}

func (k DateKey) String() string { return string(k) }

// Partition groups records by the calendar day of their timestamp in loc.
// Arrival order is preserved within each group; every record lands in
// exactly one group. A record with a zero timestamp fails the whole call
// with a *DataError.
func Partition(records []model.Record, loc *time.Location) (map[DateKey][]model.Record, error) {
	groups := make(map[DateKey][]model.Record, 4)
	for _, rec := range records {
		if rec.Timestamp.IsZero() {
			return nil, &DataError{RecordID: rec.RecordID, Reason: "missing timestamp"}
		}
		key := NewDateKey(rec.Timestamp, loc)
		groups[key] = append(groups[key], rec)
	}
	return groups, nil
}
