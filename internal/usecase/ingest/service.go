// Package ingest feeds JSON and JSON-lines document streams into the index.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	dombatch "github.com/kailas-cloud/ragcore/internal/domain/batch"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

// DefaultBatchSize is the number of documents per Add call.
const DefaultBatchSize = 64

// maxLineSize bounds one JSON-lines record.
const maxLineSize = domdoc.MaxContentSize * 2

// Record is one input document.
type Record struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Report summarizes an ingestion run. Problems lists invalid and failed records.
type Report struct {
	Read     int               `json:"read"`
	Added    int               `json:"added"`
	Skipped  int               `json:"skipped"`
	Invalid  int               `json:"invalid"`
	Problems []dombatch.Result `json:"-"`
}

// Service validates records and indexes them in batches.
type Service struct {
	idx       Indexer
	batchSize int
	logger    *zap.Logger
	newID     func() string
}

// New creates an ingestion service.
func New(idx Indexer, logger *zap.Logger) *Service {
	return &Service{idx: idx, batchSize: DefaultBatchSize, logger: logger, newID: uuid.NewString}
}

// WithBatchSize configures the number of documents per Add call.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// run accumulates validated documents and flushes them in batches.
type run struct {
	s       *Service
	ctx     context.Context
	report  Report
	pending []domdoc.Document
	records []int
}

func (s *Service) newRun(ctx context.Context) *run {
	return &run{s: s, ctx: ctx}
}

func (r *run) invalid(record int, id string, err error) {
	r.report.Read++
	r.report.Invalid++
	r.report.Problems = append(r.report.Problems, dombatch.NewInvalid(record, id, err))
	r.s.logger.Warn("Invalid record skipped", zap.Int("record", record), zap.String("id", id), zap.Error(err))
}

func (r *run) add(record int, rec Record) error {
	if rec.ID == "" {
		rec.ID = r.s.newID()
	}
	doc, err := domdoc.New(rec.ID, rec.Content, rec.Metadata)
	if err != nil {
		r.invalid(record, rec.ID, err)
		return nil
	}
	r.report.Read++
	r.pending = append(r.pending, doc)
	r.records = append(r.records, record)
	if len(r.pending) >= r.s.batchSize {
		return r.flush()
	}
	return nil
}

func (r *run) flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	n, err := r.s.idx.Add(r.ctx, r.pending)
	if err != nil {
		for i := range r.pending {
			r.report.Problems = append(r.report.Problems, dombatch.NewError(r.records[i], r.pending[i].ID(), err))
		}
		r.pending, r.records = nil, nil
		return fmt.Errorf("index batch: %w", err)
	}
	r.report.Added += n
	r.report.Skipped += len(r.pending) - n
	r.pending, r.records = nil, nil
	return nil
}

func (r *run) finish() (Report, error) {
	err := r.flush()
	r.s.logger.Info("Ingestion finished",
		zap.Int("read", r.report.Read),
		zap.Int("added", r.report.Added),
		zap.Int("skipped", r.report.Skipped),
		zap.Int("invalid", r.report.Invalid),
	)
	return r.report, err
}

// IngestRecords validates and indexes already-decoded records.
func (s *Service) IngestRecords(ctx context.Context, records []Record) (Report, error) {
	r := s.newRun(ctx)
	for i, rec := range records {
		if err := r.add(i+1, rec); err != nil {
			return r.report, err
		}
	}
	return r.finish()
}

// Ingest reads a JSON array or a JSON-lines stream. Records that fail to
// decode or validate are reported and skipped; an indexing failure aborts.
func (s *Service) Ingest(ctx context.Context, src io.Reader) (Report, error) {
	br := bufio.NewReader(src)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return Report{}, nil
	}
	if err != nil {
		return Report{}, fmt.Errorf("read input: %w", err)
	}
	if first == '[' {
		return s.ingestArray(ctx, br)
	}
	return s.ingestLines(ctx, br)
}

func (s *Service) ingestArray(ctx context.Context, src io.Reader) (Report, error) {
	r := s.newRun(ctx)
	dec := json.NewDecoder(src)
	if _, err := dec.Token(); err != nil {
		return Report{}, fmt.Errorf("read input: %w", err)
	}

	for n := 1; dec.More(); n++ {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			// The array itself is malformed; nothing after this point is reliable.
			if ferr := r.flush(); ferr != nil {
				return r.report, ferr
			}
			return r.report, fmt.Errorf("decode element %d: %w", n, err)
		}
		if err := r.decodeAndAdd(n, raw); err != nil {
			return r.report, err
		}
	}
	return r.finish()
}

func (s *Service) ingestLines(ctx context.Context, src io.Reader) (Report, error) {
	r := s.newRun(ctx)
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for n := 1; sc.Scan(); n++ {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := r.decodeAndAdd(n, line); err != nil {
			return r.report, err
		}
	}
	if err := sc.Err(); err != nil {
		if ferr := r.flush(); ferr != nil {
			return r.report, ferr
		}
		return r.report, fmt.Errorf("read input: %w", err)
	}
	return r.finish()
}

func (r *run) decodeAndAdd(n int, raw []byte) error {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		r.invalid(n, "", fmt.Errorf("decode record: %w", err))
		return nil
	}
	return r.add(n, rec)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
