package workitem

import (
	"errors"
	"iter"
	"os"

	"github.com/spf13/afero"

	"scalabatch/internal/services"
)

// Options configures a discovery pass.
type Options struct {
	Fs     afero.Fs
	Roots  RootPaths
	Filter Filter
	// Only, when non-empty, restricts discovery to these qualified names.
	Only map[string]struct{}
}

var errStopWalk = errors.New("stop walk")

// Items lazily walks the source root and yields a WorkItem for every accepted
// entry in lexical walk order. A walk or resolution failure is yielded once
// and ends the sequence.
func Items(opts Options) iter.Seq2[WorkItem, error] {
	return func(yield func(WorkItem, error) bool) {
		fs := opts.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		walkErr := afero.Walk(fs, opts.Roots.Source, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return services.Wrap(services.ErrDiscovery, "discovery", "walk", path, err)
			}
			if !opts.Filter.Accept(info) {
				return nil
			}
			item, err := Resolve(path, opts.Roots, opts.Filter.Extension)
			if err != nil {
				return services.Wrap(services.ErrDiscovery, "discovery", "resolve", "", err)
			}
			if len(opts.Only) > 0 {
				if _, ok := opts.Only[item.QualifiedName()]; !ok {
					return nil
				}
			}
			if !yield(item, nil) {
				return errStopWalk
			}
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, errStopWalk) {
			yield(WorkItem{}, walkErr)
		}
	}
}

// Discover collects every item from Items, failing fast on the first error so a
// single malformed entry aborts the run before any work starts.
func Discover(opts Options) ([]WorkItem, error) {
	var items []WorkItem
	for item, err := range Items(opts) {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
