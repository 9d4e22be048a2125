// Package main hosts the tempo CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, opens the collection and
// ledger databases, and hands the work to internal/workflow. Commands own
// prompts and rendering only; detection, transcoding, rewriting and revert
// live in the internal packages.
package main
