package coreset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Batch is one chunk of (data id, point, weight) triples yielded by a
// Producer. Weights is nil when every point in the batch carries weight 1.
type Batch[T Numeric] struct {
	IDs     []uint64
	Points  [][]T
	Weights []float64
}

// Producer iterates finite batches of (id, point) pairs for the streaming
// pass. Per spec §6, a Producer is not restartable by contract unless
// documented otherwise; the coreset assembler needs a second pass over the
// same id->point mapping, so callers supplying a genuinely single-use
// stream must materialize it (see coreset/assemble).
type Producer[T Numeric] interface {
	// NextBatch returns the next batch, or ok=false once exhausted. A
	// non-nil error aborts the caller's processing loop immediately
	// (surfaced as a ProducerFailure).
	NextBatch() (batch Batch[T], ok bool, err error)
}

// SliceProducer yields a single pre-materialized batch, then reports
// exhaustion. It is restartable (Reset) so the coreset assembler's second
// pass can reuse it.
type SliceProducer[T Numeric] struct {
	ids     []uint64
	points  [][]T
	weights []float64
	done    bool
}

// NewSliceProducer wraps points and ids as a one-shot Producer. weights may
// be nil for unit weights; if non-nil it must have the same length as ids.
func NewSliceProducer[T Numeric](ids []uint64, points [][]T, weights []float64) *SliceProducer[T] {
	return &SliceProducer[T]{ids: ids, points: points, weights: weights}
}

// NextBatch implements Producer.
func (s *SliceProducer[T]) NextBatch() (Batch[T], bool, error) {
	if s.done {
		return Batch[T]{}, false, nil
	}
	s.done = true
	return Batch[T]{IDs: s.ids, Points: s.points, Weights: s.weights}, true, nil
}

// Reset rewinds the producer so a second pass (e.g. coreset assembly's pass
// 2) can replay the same id->point mapping as pass 1.
func (s *SliceProducer[T]) Reset() { s.done = false }

// CSVProducer loads (id, vector) rows from a single CSV file, with the
// teacher's calibration-data reading idiom: encoding/csv, strconv-parsed
// columns, wrapped errors. Each row's first
// column is the data id, remaining columns are coordinates. This stands in
// for the Rust crate's HNSW-dump reloading (fromhnsw/src/getdatamap.rs) when
// no HNSW dump is available — only the shape (a named, on-disk, typed
// dataset reloaded into a producer) is preserved.
type CSVProducer struct {
	path string
	done bool
}

// NewCSVProducer returns a Producer[float64] over a single CSV file at
// path. Restartable via Reset, matching SliceProducer's contract so it can
// serve as the assembler's second-pass source.
func NewCSVProducer(path string) *CSVProducer {
	return &CSVProducer{path: path}
}

// Reset rewinds the producer for a second pass.
func (c *CSVProducer) Reset() { c.done = false }

// NextBatch implements Producer[float64], loading the entire file as one
// batch.
func (c *CSVProducer) NextBatch() (Batch[float64], bool, error) {
	if c.done {
		return Batch[float64]{}, false, nil
	}
	c.done = true

	f, err := os.Open(c.path)
	if err != nil {
		return Batch[float64]{}, false, fmt.Errorf("opening csv producer file %s: %w", c.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var ids []uint64
	var points [][]float64
	row := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Batch[float64]{}, false, fmt.Errorf("reading csv producer file %s row %d: %w", c.path, row, err)
		}
		row++
		if len(rec) < 2 {
			return Batch[float64]{}, false, fmt.Errorf("csv producer file %s row %d: expected id + at least one coordinate, got %d columns", c.path, row, len(rec))
		}
		id, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			return Batch[float64]{}, false, fmt.Errorf("csv producer file %s row %d: invalid id: %w", c.path, row, err)
		}
		pt := make([]float64, len(rec)-1)
		for i, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return Batch[float64]{}, false, fmt.Errorf("csv producer file %s row %d col %d: invalid coordinate: %w", c.path, row, i+1, err)
			}
			pt[i] = v
		}
		ids = append(ids, id)
		points = append(points, pt)
	}
	return Batch[float64]{IDs: ids, Points: points}, true, nil
}
