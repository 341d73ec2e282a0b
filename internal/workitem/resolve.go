package workitem

import (
	"fmt"
	"path/filepath"
	"strings"

	"scalabatch/internal/services"
)

// Resolve derives the WorkItem for the file at path. ext is the input
// extension stripped from the file name (".class").
func Resolve(path string, roots RootPaths, ext string) (WorkItem, error) {
	name := filepath.Base(path)
	if path == "" || name == "." || name == string(filepath.Separator) {
		return WorkItem{}, resolveError(path, "could not get file name")
	}
	parent := filepath.Dir(path)
	if parent == "" || parent == path {
		return WorkItem{}, resolveError(path, "no parent dir")
	}

	relative, ok := relativeParent(filepath.Clean(roots.Source), parent)
	if !ok {
		return WorkItem{}, resolveError(path, fmt.Sprintf("can't detect relative dir under %s", roots.Source))
	}
	for _, segment := range strings.Split(relative, string(filepath.Separator)) {
		if segment == ".." {
			return WorkItem{}, resolveError(path, "relative dir escapes the source root")
		}
	}

	unit := strings.TrimSuffix(name, ext)
	if unit == "" {
		return WorkItem{}, resolveError(path, "empty unit name")
	}

	return WorkItem{
		DottedParent: strings.ReplaceAll(relative, string(filepath.Separator), "."),
		RelativeDir:  relative,
		UnitName:     unit,
	}, nil
}

// relativeParent strips source from the front of parent, honouring path
// segment boundaries so /src2 is not treated as lying under /src.
func relativeParent(source, parent string) (string, bool) {
	parent = filepath.Clean(parent)
	if parent == source {
		return "", true
	}
	prefix := source
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(parent, prefix) {
		return "", false
	}
	return strings.TrimPrefix(parent[len(prefix):], string(filepath.Separator)), true
}

func resolveError(path, message string) error {
	return services.Wrap(services.ErrPathResolution, "discovery", "resolve", fmt.Sprintf("%s: %s", path, message), nil)
}
