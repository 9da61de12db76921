package s3blob

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// EventArchiver implements domain.EventArchiver by querying the event store
// for aged entries, serializing them to gzip-compressed JSONL, and uploading
// the result to S3. Archived rows are deleted from the primary store only
// after the upload succeeds.
type EventArchiver struct {
	writer *Writer
	store  domain.EventStore
}

// NewEventArchiver creates a new EventArchiver.
func NewEventArchiver(writer *Writer, store domain.EventStore) *EventArchiver {
	return &EventArchiver{
		writer: writer,
		store:  store,
	}
}

// ArchiveEvents uploads all events created before the cutoff to
// archive/events/YYYY-MM.jsonl.gz, deletes them from the store, and returns
// the number of events archived. A cutoff with no aged events is a no-op.
func (a *EventArchiver) ArchiveEvents(ctx context.Context, before time.Time) (int64, error) {
	events, err := a.store.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events query: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONLGzip(events)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events marshal: %w", err)
	}

	path := archivePath("events", before)
	if int64(len(buf)) >= minPartSize {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), "application/gzip")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events upload: %w", err)
	}

	deleted, err := a.store.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(events)), fmt.Errorf("s3blob: archive events prune: %w", err)
	}

	return deleted, nil
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/events/2026-08.jsonl.gz
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl.gz", kind, before.Format("2006-01"))
}

// marshalJSONLGzip serialises a slice of values as gzip-compressed
// newline-delimited JSON. Each element becomes one compact JSON line.
func marshalJSONLGzip[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	enc := json.NewEncoder(gz)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("jsonl gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

var _ domain.EventArchiver = (*EventArchiver)(nil)
