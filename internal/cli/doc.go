// Package cli implements the command-line interface for guild-tracker.
//
// The cli package provides the Cobra-based CLI: the root command runs one tracking
// cycle and reports guild changes (text/JSON), the state command prints the
// persisted roster. It builds the configuration once and wires the scraper,
// storage, notifier and tracker packages together.
package cli
