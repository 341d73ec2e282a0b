// Package preflight provides readiness checks for the decompiler binary and
// the filesystem roots a batch run depends on.
//
// The "scalabatch check" command prints every result; "scalabatch run" calls
// RunAll before discovery and refuses to start when a required check fails,
// so a missing tool is reported once instead of once per unit.
package preflight
