// Package config loads, normalizes, and validates scalabatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCALABATCH_DECOMPILER. The Config type centralizes every knob the batch
// runner and CLI need, so the decompiler binary, concurrency ceiling, nested
// unit policy, and history location are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
