// Package index implements an exact inner-product similarity structure.
//
// Flat is not safe for concurrent mutation; callers serialize writers and
// guard readers (see usecase/vectorstore).
package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/vecmath"
)

// TypeFlatIP is the index type recorded in snapshot configs.
const TypeFlatIP = "IndexFlatIP"

var magic = [4]byte{'R', 'G', 'I', 'X'}

const codecVersion uint16 = 1

// Hit is one nearest-neighbour match.
type Hit struct {
	Position int
	Score    float32
}

// Flat stores vectors contiguously and scans all of them on search.
type Flat struct {
	dim  int
	data []float32
}

// NewFlat creates an empty index of the given dimension.
func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	if f.dim == 0 {
		return 0
	}
	return len(f.data) / f.dim
}

// MemoryBytes returns the size of the vector payload.
func (f *Flat) MemoryBytes() int { return len(f.data) * 4 }

// Add appends vectors. Either all are appended or none.
func (f *Flat) Add(vectors ...[]float32) error {
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("add vector [%d]: got %d, want %d: %w",
				i, len(v), f.dim, domain.ErrVectorDimMismatch)
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

// Clone returns an independent copy.
func (f *Flat) Clone() *Flat {
	return &Flat{dim: f.dim, data: append([]float32(nil), f.data...)}
}

// Vector returns a view of the vector at position i.
func (f *Flat) Vector(i int) []float32 {
	return f.data[i*f.dim : (i+1)*f.dim : (i+1)*f.dim]
}

// Search returns the k highest inner products with q, best first.
// Equal scores keep insertion order.
func (f *Flat) Search(q []float32, k int) ([]Hit, error) {
	if len(q) != f.dim {
		return nil, fmt.Errorf("search: got %d, want %d: %w", len(q), f.dim, domain.ErrVectorDimMismatch)
	}
	n := f.Len()
	if k <= 0 || n == 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}

	hits := make([]Hit, n)
	for i := 0; i < n; i++ {
		hits[i] = Hit{Position: i, Score: vecmath.Dot(q, f.Vector(i))}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	return hits[:k], nil
}

// MarshalBinary encodes the index as magic, version, dim, count, payload.
func (f *Flat) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(18 + len(f.data)*4)
	buf.Write(magic[:])
	_ = binary.Write(&buf, binary.LittleEndian, codecVersion)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(f.dim))
	_ = binary.Write(&buf, binary.LittleEndian, uint64(f.Len()))
	buf.Write(vecmath.Encode(f.data))
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the index contents with decoded data.
func (f *Flat) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if m != magic {
		return errors.New("bad magic")
	}

	var (
		version uint16
		dim     uint32
		count   uint64
	)
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if version != codecVersion {
		return fmt.Errorf("unsupported index version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dim: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read count: %w", err)
	}

	payload := data[len(data)-r.Len():]
	if dim == 0 && count > 0 {
		return errors.New("zero dimension with vectors")
	}
	if uint64(len(payload)) != count*uint64(dim)*4 || count > math.MaxInt32 {
		return fmt.Errorf("payload size %d does not match %d vectors of dim %d", len(payload), count, dim)
	}

	vec, err := vecmath.Decode(payload)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	f.dim = int(dim)
	f.data = vec
	return nil
}
