package batch

import (
	"fmt"

	"scalabatch/internal/services"
	"scalabatch/internal/workitem"
)

// Partition splits items into consecutive chunks of at most ceiling items,
// preserving order. The chunks share the backing array of items.
func Partition(items []workitem.WorkItem, ceiling int) ([][]workitem.WorkItem, error) {
	if ceiling < 1 {
		return nil, services.Wrap(services.ErrValidation, "partition", "", fmt.Sprintf("concurrency ceiling must be positive (got %d)", ceiling), nil)
	}
	chunks := make([][]workitem.WorkItem, 0, (len(items)+ceiling-1)/ceiling)
	for start := 0; start < len(items); start += ceiling {
		end := min(start+ceiling, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks, nil
}
