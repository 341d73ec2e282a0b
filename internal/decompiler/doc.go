// Package decompiler runs the external decompiler for a single work item.
//
// The tool sits behind the narrow Invoker contract (working directory plus one
// argument in; exit code and captured stdout out) so the batch engine never
// depends on how the process is launched. Worker.Decompile creates the mirrored
// output directory, invokes the tool with the unit's qualified name, persists
// stdout even when the tool fails, and classifies the outcome with the
// services error markers.
package decompiler
