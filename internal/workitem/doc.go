// Package workitem turns a tree of compiled class files into the ordered list
// of units a batch run converts.
//
// Resolve maps one discovered file onto a WorkItem (dotted parent namespace,
// relative output directory, bare unit name) without touching the filesystem.
// Filter decides which walk entries are convertible units, including the
// nested-unit policy. Items and Discover walk the source root through an
// afero.Fs so discovery can run against the real disk or an in-memory tree.
package workitem
