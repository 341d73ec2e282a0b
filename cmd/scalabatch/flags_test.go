package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scalabatch/internal/workitem"
)

func TestNestedPolicyValue(t *testing.T) {
	var v nestedPolicyValue
	if err := v.Set("ONLY"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if v.policy != workitem.NestedOnly || v.String() != "only" {
		t.Fatalf("unexpected policy %q", v.policy)
	}
	if err := v.Set("bogus"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestReadNameList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.txt")
	if err := os.WriteFile(path, []byte("a.b.Foo\n\n# comment\n  c.Bar  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	names, err := readNameList(path, nil)
	if err != nil {
		t.Fatalf("readNameList returned error: %v", err)
	}
	if strings.Join(names, ",") != "a.b.Foo,c.Bar" {
		t.Fatalf("unexpected names %v", names)
	}

	names, err = readNameList("-", strings.NewReader("x.Y\n"))
	if err != nil || len(names) != 1 || names[0] != "x.Y" {
		t.Fatalf("unexpected stdin names %v (err %v)", names, err)
	}

	if set := nameSet(nil); set != nil {
		t.Fatalf("expected nil set for empty list, got %v", set)
	}
}
