// Package project carries gravity-survey documents frozen in the on-disk
// wire format. Tests decode them to catch accidental format drift: a
// change that breaks these fixtures breaks every project file already
// saved by the tooling.
package project

import (
	"bytes"
	_ "embed"
)

//go:embed airborne.json
var airborne []byte

//go:embed marine.json
var marine []byte

// Airborne returns a complete airborne survey: one gravimeter, one flight,
// one dataset with gravity and trajectory files, two segments, and the
// sensor and parent links wired up.
func Airborne() []byte {
	return bytes.Clone(airborne)
}

// Marine returns a minimal marine survey with a single gravimeter.
func Marine() []byte {
	return bytes.Clone(marine)
}

// AirborneDuplicateUID returns the airborne survey with the second
// segment's identifier overwritten by the first's. The document still
// decodes; whole-graph validation must flag the shared identifier.
func AirborneDuplicateUID() []byte {
	doc := bytes.ReplaceAll(Airborne(),
		[]byte("ffff6666aaaa7777bbbb8888cccc9999"),
		[]byte("eeee5555ffff6666aaaa7777bbbb8888"))
	return doc
}
