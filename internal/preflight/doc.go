// Package preflight provides readiness checks for the external programs and
// directories scenesync depends on.
//
// The "check" command prints every result; batch runs call RunAll first and
// refuse to start when a required check fails, so a missing docker image
// surfaces before any episode is touched.
package preflight
