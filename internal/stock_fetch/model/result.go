package model

// PartitionUpload describes one uploaded daily partition.
type PartitionUpload struct {
	DateKey     string `json:"dt"` // YYYY-MM-DD
	URI         string `json:"uri"`
	RecordCount int    `json:"record_count"`
}

// ExportResult summarizes a completed export run. Partitions are ordered
// by date key descending (most recent first).
type ExportResult struct {
	EntityCode   string            `json:"stock_code"`
	EntityName   string            `json:"stock_name"`
	Source       Source            `json:"source"`
	TotalRecords int               `json:"total_records"`
	Partitions   []PartitionUpload `json:"partitions"`
}

// URIs returns the uploaded object URIs in partition order.
func (r *ExportResult) URIs() []string {
	out := make([]string, 0, len(r.Partitions))
	for _, p := range r.Partitions {
		out = append(out, p.URI)
	}
	return out
}
