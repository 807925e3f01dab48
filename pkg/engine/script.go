package engine

import _ "embed"

// DefaultScript is the built-in catamaran design, used when no design
// script is configured.
//
//go:embed scripts/catamaran.lisp
var DefaultScript string
