// Package script reads and writes narration script documents.
//
// A script is a JSON object with a "scenes" array; each scene carries a
// "narration" string. Every other field, at the top level or inside a scene,
// is preserved verbatim through Load and Save so tools that own those fields
// are unaffected by alignment.
package script
