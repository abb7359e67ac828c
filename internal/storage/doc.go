// Package storage provides JSON-based persistence for the tracked roster state.
//
// The state file is a single JSON object mapping player name to last known guild,
// with sorted keys and indentation so it diffs cleanly when kept under version
// control. Writes go to a temporary file in the same directory which is then
// renamed over the target, so readers only ever see a complete file.
package storage
