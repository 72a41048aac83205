// Package all wires every built-in synthesizer backend into the registry.
//
// This package exists purely for side effects: importing it (even as a
// blank import) runs the init functions of each backend package, which
// register their factories with the synth package. After the import, the
// following tags resolve through synth.New:
//
//   - "copula"      (tabsynth/internal/synth/copula)
//   - "adversarial" (tabsynth/internal/synth/adversarial)
//   - "autoencoder" (tabsynth/internal/synth/autoencoder)
//   - "composite"   (tabsynth/internal/synth/composite)
//
// Typical usage, in cmd/tabsynth/main.go or a similar wiring layer:
//
//	import (
//	    _ "tabsynth/internal/synth/all" // enable all built-in backends
//
//	    "tabsynth/internal/synth"
//	)
//
//	backend, err := synth.New(tag, opts)
//
// A binary that only needs a subset can blank-import the individual
// backend packages instead of this one.
package all

import (
	_ "tabsynth/internal/synth/adversarial"
	_ "tabsynth/internal/synth/autoencoder"
	_ "tabsynth/internal/synth/composite"
	_ "tabsynth/internal/synth/copula"
)
