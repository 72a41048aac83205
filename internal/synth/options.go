package synth

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"tabsynth/internal/schema"
)

// DefaultEpochs is the training length used by iterative backends when
// Options.Epochs is unset.
const DefaultEpochs = 300

// Options tunes a backend instance. The zero value is usable: bounds and
// rounding enforcement default to on, the seed derives from the input
// table, and epochs fall back to DefaultEpochs.
type Options struct {
	// Seed fixes the sampling stream. Zero means "derive from the fitted
	// table's digest", which makes output a pure function of the input
	// content.
	Seed int64

	// Epochs bounds the training loop of iterative backends.
	Epochs int

	// EnforceBounds clips sampled continuous values to the observed
	// [min, max] of the fitted column. Unset means true.
	EnforceBounds *bool

	// EnforceRounding rounds sampled continuous values to the maximum
	// decimal precision observed in the fitted column. Unset means true.
	EnforceRounding *bool

	// Workers caps internal parallelism where a backend uses any. Zero
	// means GOMAXPROCS.
	Workers int

	// Infer carries the schema-inference thresholds applied before
	// fitting. Backends never read it; the orchestration layer does.
	Infer schema.InferOptions
}

// BoundsEnforced reports whether sampled continuous values are clipped to
// the observed range.
func (o Options) BoundsEnforced() bool {
	return o.EnforceBounds == nil || *o.EnforceBounds
}

// RoundingEnforced reports whether sampled continuous values are rounded
// to the observed decimal precision.
func (o Options) RoundingEnforced() bool {
	return o.EnforceRounding == nil || *o.EnforceRounding
}

// TrainingEpochs returns Epochs, or DefaultEpochs when unset.
func (o Options) TrainingEpochs() int {
	if o.Epochs > 0 {
		return o.Epochs
	}
	return DefaultEpochs
}

// SeedFor resolves the sampling seed for one fit: the explicit seed when
// set, otherwise a hash of the backend tag and the table digest. Exposed
// so the orchestration layer can report the seed a run actually used.
func (o Options) SeedFor(tag string, digest uint64) int64 {
	if o.Seed != 0 {
		return o.Seed
	}
	h := xxh3.New()
	_, _ = h.WriteString(tag)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], digest)
	_, _ = h.Write(buf[:])
	return int64(h.Sum64())
}
