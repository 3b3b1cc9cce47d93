// Package model implements a polymorphic object model simulator.
//
// This package contains:
//   - Class registry with a build phase and a frozen phase
//   - Per-class dispatch tables indexed by interned selector IDs
//   - Layout planning for single, multiple and virtual (shared) inheritance
//   - Instances made of per-class field segments, with a construction and
//     destruction state machine
//   - Views (typed references), slicing and dynamic casts
//   - Static and dynamic method resolution
package model
