package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"scalabatch/internal/workitem"
)

// nestedPolicyValue adapts workitem.NestedPolicy to a command-line flag.
type nestedPolicyValue struct {
	policy workitem.NestedPolicy
}

var _ pflag.Value = (*nestedPolicyValue)(nil)

func (v *nestedPolicyValue) String() string {
	return string(v.policy)
}

func (v *nestedPolicyValue) Set(value string) error {
	policy, err := workitem.ParseNestedPolicy(value)
	if err != nil {
		return err
	}
	v.policy = policy
	return nil
}

func (v *nestedPolicyValue) Type() string {
	return "include|exclude|only"
}

// readNameList reads qualified names, one per line, from path ("-" is stdin).
// Blank lines and lines starting with '#' are ignored.
func readNameList(path string, stdin io.Reader) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open name list: %w", err)
		}
		defer f.Close()
		r = f
	}

	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read name list: %w", err)
	}
	return names, nil
}

func nameSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}
