// Package textutil provides the text primitives used to compare narration
// scripts against speech transcripts.
//
// The primary use cases are:
//   - Normalizing free text into comparable lowercase tokens
//   - Scoring two token sequences with a length-penalized Jaccard similarity
//   - Fuzzy string similarity for diagnostic hints on unmatched text
//   - Sanitizing filenames and path segments for safe filesystem use
//
// Normalization composes Unicode to NFC before lowercasing so transcripts and
// scripts that disagree on combining marks (common for Vietnamese diacritics)
// still produce identical tokens.
package textutil
