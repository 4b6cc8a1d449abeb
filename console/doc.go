// Package console implements the interactive loop primitives used by the
// chat programs: line readers, a lazy prompt sequence and a markdown aware
// output renderer.
package console
