package engine

import "github.com/rotisserie/eris"

// ErrInvalidInput marks a programming-contract violation: structurally
// malformed facts or rules. It propagates to the caller and is never
// defaulted into "no triggers". Check with eris.Is.
var ErrInvalidInput = eris.New("engine: invalid input")
