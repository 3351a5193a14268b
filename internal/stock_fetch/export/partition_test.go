package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stock-fetch/internal/stock_fetch/model"
)

var seoul = time.FixedZone("KST", 9*3600)

func rec(id int64, ts time.Time) model.Record {
	return model.Record{
		EntityCode: "005930",
		EntityName: "삼성전자",
		RecordID:   id,
		Timestamp:  ts,
		Source:     model.SourceNaver,
	}
}

func TestPartitionGroupsByLocalDay(t *testing.T) {
	records := []model.Record{
		// 23:59:59 KST stays on the 15th.
		rec(1, time.Date(2025, 11, 15, 23, 59, 59, 0, seoul)),
		// 15:00 UTC is midnight KST on the 16th.
		rec(2, time.Date(2025, 11, 15, 15, 0, 0, 0, time.UTC)),
		rec(3, time.Date(2025, 11, 15, 9, 30, 0, 0, seoul)),
	}

	groups, err := Partition(records, seoul)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	require.Equal(t, []int64{1, 3}, ids(groups["2025-11-15"]))
	require.Equal(t, []int64{2}, ids(groups["2025-11-16"]))
}

func TestPartitionCompleteness(t *testing.T) {
	base := time.Date(2025, 11, 10, 12, 0, 0, 0, seoul)
	var records []model.Record
	for i := 0; i < 37; i++ {
		records = append(records, rec(int64(i), base.AddDate(0, 0, i%5)))
	}

	groups, err := Partition(records, seoul)
	require.NoError(t, err)

	total := 0
	seen := map[int64]bool{}
	for key, group := range groups {
		total += len(group)
		for _, r := range group {
			require.False(t, seen[r.RecordID], "record %d appeared twice", r.RecordID)
			seen[r.RecordID] = true
			require.Equal(t, key, NewDateKey(r.Timestamp, seoul))
		}
	}
	require.Equal(t, len(records), total)
}

func TestPartitionEmptyInput(t *testing.T) {
	groups, err := Partition(nil, seoul)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestPartitionZeroTimestamp(t *testing.T) {
	records := []model.Record{rec(1, time.Now()), {RecordID: 7}}

	_, err := Partition(records, seoul)
	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	require.Equal(t, int64(7), dataErr.RecordID)
}

func TestBatchName(t *testing.T) {
	require.Equal(t, "005930_2025-11-15", BatchName("005930", "2025-11-15"))
	// Re-derivation yields the same name, so re-exports overwrite.
	require.Equal(t, BatchName("005930", "2025-11-15"), BatchName("005930", "2025-11-15"))
}

func ids(records []model.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.RecordID)
	}
	return out
}
