package fixer

import (
	"fmt"
	"slices"
)

// A Buffer is a queue of edits to apply to a text. Edits are recorded
// against the original offsets and applied together by Bytes.
type Buffer struct {
	old []byte
	q   []Operation
}

func NewBuffer(text []byte) *Buffer {
	return &Buffer{old: text}
}

func (b *Buffer) Add(op Operation) {
	b.q = append(b.q, op)
}

// Bytes applies the queued edits. Insertions at an offset are placed before
// a replacement starting at the same offset; overlapping edits are an error.
func (b *Buffer) Bytes() ([]byte, error) {
	q := slices.Clone(b.q)
	slices.SortStableFunc(q, func(x, y Operation) int {
		if x.Range.Start != y.Range.Start {
			return x.Range.Start - y.Range.Start
		}
		return x.Range.End - y.Range.End
	})

	var out []byte
	offset := 0
	for i, op := range q {
		r := op.Range
		if r.Start < 0 || r.End < r.Start || r.End > len(b.old) {
			return nil, fmt.Errorf("edit %s out of bounds for text of length %d", r, len(b.old))
		}
		if r.Start < offset {
			return nil, fmt.Errorf("edit %s overlaps edit %s", r, q[i-1].Range)
		}
		out = append(out, b.old[offset:r.Start]...)
		out = append(out, op.NewText...)
		offset = r.End
	}
	out = append(out, b.old[offset:]...)
	return out, nil
}
