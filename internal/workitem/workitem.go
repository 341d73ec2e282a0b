package workitem

import (
	"path/filepath"
	"strings"
)

// RootPaths holds the source and target roots of a run. It is read-only once
// a run starts and shared by every worker.
type RootPaths struct {
	Source string
	Target string
}

// WorkItem is one compiled unit scheduled for conversion.
type WorkItem struct {
	// DottedParent is the relative directory with separators replaced by dots.
	DottedParent string
	// RelativeDir mirrors the unit's directory under the target root.
	RelativeDir string
	// UnitName is the file name without its input extension.
	UnitName string
}

// QualifiedName returns the dotted name passed to the decompiler.
func (w WorkItem) QualifiedName() string {
	if w.DottedParent == "" {
		return w.UnitName
	}
	return w.DottedParent + "." + w.UnitName
}

// OutputDir returns the absolute directory the unit's output is written to.
func (w WorkItem) OutputDir(roots RootPaths) string {
	return filepath.Join(roots.Target, w.RelativeDir)
}

// OutputPath returns the output file path for the unit using the given extension.
func (w WorkItem) OutputPath(roots RootPaths, ext string) string {
	return filepath.Join(w.OutputDir(roots), w.UnitName+ext)
}

func (w WorkItem) String() string {
	return w.QualifiedName()
}

// Contained reports whether path lies strictly below root.
func Contained(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
