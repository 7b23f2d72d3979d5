// Package main hosts the scenesync CLI.
//
// The Cobra command tree resolves configuration once, builds the logger and
// hands episodes to the workflow manager. Batch runs, single-script
// alignment, SRT generation, run history and readiness checks each live in
// their own command file; the heavy lifting stays in internal packages.
package main
