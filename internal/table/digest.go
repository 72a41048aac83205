package table

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// Cell type tags fed to the hasher so that, e.g., int64(1) and "1" cannot
// collide.
const (
	tagNil    = 0x00
	tagInt    = 0x01
	tagFloat  = 0x02
	tagBool   = 0x03
	tagString = 0x04
)

// Digest returns an xxh3 hash of the table's full content: column names in
// order, then every cell in row/column order, each with a type tag. Any
// change to a header, a cell value, or row order changes the digest. Used
// for deterministic seed derivation and for asserting that fitting left its
// input untouched.
func (t *Table) Digest() uint64 {
	h := xxh3.New()
	var scratch [9]byte

	writeStr := func(s string) {
		binary.LittleEndian.PutUint64(scratch[:8], uint64(len(s)))
		_, _ = h.Write(scratch[:8])
		_, _ = h.WriteString(s)
	}

	binary.LittleEndian.PutUint64(scratch[:8], uint64(len(t.cols)))
	_, _ = h.Write(scratch[:8])
	for _, c := range t.cols {
		writeStr(c)
	}

	for _, row := range t.rows {
		for _, v := range row {
			switch x := v.(type) {
			case nil:
				scratch[0] = tagNil
				_, _ = h.Write(scratch[:1])
			case int64:
				scratch[0] = tagInt
				binary.LittleEndian.PutUint64(scratch[1:9], uint64(x))
				_, _ = h.Write(scratch[:9])
			case float64:
				scratch[0] = tagFloat
				binary.LittleEndian.PutUint64(scratch[1:9], math.Float64bits(x))
				_, _ = h.Write(scratch[:9])
			case bool:
				scratch[0] = tagBool
				if x {
					scratch[1] = 1
				} else {
					scratch[1] = 0
				}
				_, _ = h.Write(scratch[:2])
			case string:
				scratch[0] = tagString
				_, _ = h.Write(scratch[:1])
				writeStr(x)
			default:
				scratch[0] = tagString
				_, _ = h.Write(scratch[:1])
				writeStr(Label(x))
			}
		}
	}
	return h.Sum64()
}
