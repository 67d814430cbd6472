// Package segment turns raw document text into ordered, bounded chunks
// suitable for independent question generation. It is pure computation:
// segmenters hold only their size parameters, perform no I/O, and are
// safe for concurrent use.
//
// Two strategies are provided:
//
//  1. Context-padded sliding window (Segment): fixed-size windows that
//     carry truncated leading/trailing context from the surrounding
//     text, so each chunk can be processed statelessly without losing
//     sentence continuity at its edges.
//
//  2. Recursive separator splitting (SegmentRecursive): an ordered list
//     of separators (paragraph break, line break, sentence terminators,
//     word space) applied recursively until every segment fits the
//     target size.
//
// Offsets are rune offsets into the input and, excluding context
// padding, partition the input without gaps or overlaps.
package segment
