// Package main hosts the scalabatch CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, builds
// the slog logger, and hands off to the internal packages: "run" wires
// discovery, the decompiler worker, and the batch scheduler together and
// records the outcome; "check" runs preflight; "runs" reads the history
// ledger; "config" scaffolds and validates configuration files.
//
// Keep this package lean: behaviour belongs in internal packages, commands only
// translate flags and render results.
package main
