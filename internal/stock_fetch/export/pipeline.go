package export

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"stock-fetch/internal/stock_fetch/model"
)

// Serializer encodes one daily group of records into an uploadable payload.
// The encoding carries every record field plus dt and source columns.
type Serializer interface {
	Serialize(records []model.Record, dateKey string) ([]byte, error)
	// Extension is the file extension without the dot, e.g. "parquet".
	Extension() string
}

// Uploader writes a payload to object storage and returns its URI. Uploads
// must be idempotent under the same path: re-upload overwrites. Retry and
// backoff live behind this interface, never in the pipeline.
type Uploader interface {
	Upload(ctx context.Context, payload []byte, objectPath string) (string, error)
}

// Meta identifies the entity being exported.
type Meta struct {
	EntityCode string
	EntityName string
	// Identifier is used in object names; the caller picks whichever of
	// stock code / ISIN fits the source. Falls back to EntityCode.
	Identifier string
	Source     model.Source
	// BasePath is the object-store prefix, e.g. "marketing/stock_discussion".
	BasePath string
	Location *time.Location
}

// Pipeline turns a raw record stream into uploaded daily partitions.
// It holds no state between calls; concurrent exports need no coordination
// as long as their object paths differ.
type Pipeline struct {
	Log        *zap.Logger
	Serializer Serializer
	Uploader   Uploader
}

// Export partitions records by day, serializes and uploads each partition
// in descending date order, and returns the per-partition descriptors.
//
// Failure modes: ErrEmptyInput for an empty stream (no collaborator is
// called), *DataError for an unpartitionable record, and *UploadError for
// the first upload failure, carrying the partitions already uploaded so
// the caller can retry only the remainder. Cancellation is honored only
// between partitions, never mid-upload.
func (p *Pipeline) Export(ctx context.Context, records []model.Record, meta Meta) (*model.ExportResult, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	loc := meta.Location
	if loc == nil {
		loc = time.UTC
	}
	identifier := meta.Identifier
	if identifier == "" {
		identifier = meta.EntityCode
	}

	groups, err := Partition(records, loc)
	if err != nil {
		return nil, err
	}

	keys := make([]DateKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })

	result := &model.ExportResult{
		EntityCode: meta.EntityCode,
		EntityName: meta.EntityName,
		Source:     meta.Source,
		Partitions: make([]model.PartitionUpload, 0, len(keys)),
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, &UploadError{Err: err, Completed: result.Partitions}
		}

		group := groups[key]
		name := BatchName(identifier, key)
		payload, err := p.Serializer.Serialize(group, key.String())
		if err != nil {
			return nil, fmt.Errorf("export: serialize %s: %w", name, err)
		}

		objectPath := fmt.Sprintf("%s/dt=%s/%s.%s", meta.BasePath, key, name, p.Serializer.Extension())
		uri, err := p.Uploader.Upload(ctx, payload, objectPath)
		if err != nil {
			return nil, &UploadError{Err: err, Completed: result.Partitions}
		}

		result.Partitions = append(result.Partitions, model.PartitionUpload{
			DateKey:     key.String(),
			URI:         uri,
			RecordCount: len(group),
		})
		result.TotalRecords += len(group)

		if p.Log != nil {
			p.Log.Info("Uploaded partition",
				zap.String("identifier", identifier),
				zap.String("dt", key.String()),
				zap.Int("records", len(group)),
				zap.String("uri", uri),
			)
		}
	}

	return result, nil
}
