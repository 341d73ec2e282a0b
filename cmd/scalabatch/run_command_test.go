package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scalabatch/internal/history"
	"scalabatch/internal/services"
	"scalabatch/internal/testsupport"
)

const failingBarScript = "#!/bin/sh\ncase \"$1\" in\n  a.b.Bar) echo partial; exit 1 ;;\nesac\nprintf 'object %s\\n' \"$1\"\n"

func TestRunConvertsTree(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedDecompiler(""))
	testsupport.WriteClassTree(t, env.classesDir, "a/b/Foo.class", "a/b/Foo$Inner.class", "Top.class", "a/readme.txt")

	out, _, err := env.run(t, "run", "-c", env.classesDir, "-o", env.outputDir)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	requireContains(t, out, "all units converted")

	for rel, want := range map[string]string{
		"a/b/Foo.scala":       "object a.b.Foo\n",
		"a/b/Foo$Inner.scala": "object a.b.Foo$Inner\n",
		"Top.scala":           "object Top\n",
	} {
		got := testsupport.ReadFile(t, filepath.Join(env.outputDir, filepath.FromSlash(rel)))
		if got != want {
			t.Fatalf("%s: got %q want %q", rel, got, want)
		}
	}
	if _, err := os.Stat(filepath.Join(env.outputDir, "a", "readme.scala")); !os.IsNotExist(err) {
		t.Fatalf("non-class files must not be converted, stat err=%v", err)
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	runs, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != history.StatusSucceeded || runs[0].Total != 3 {
		t.Fatalf("unexpected recorded runs %+v", runs)
	}
	logs, err := filepath.Glob(filepath.Join(env.cfg.Paths.LogDir, "scalabatch-*.log"))
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one run log, got %v (err %v)", logs, err)
	}
}

func TestRunExcludesNestedUnits(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedDecompiler(""))
	testsupport.WriteClassTree(t, env.classesDir, "p/A.class", "p/A$B.class")

	if _, _, err := env.run(t, "run", "-c", env.classesDir, "-o", env.outputDir, "--nested", "exclude"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.outputDir, "p", "A$B.scala")); !os.IsNotExist(err) {
		t.Fatalf("nested unit should be skipped, stat err=%v", err)
	}
	testsupport.ReadFile(t, filepath.Join(env.outputDir, "p", "A.scala"))
}

func TestRunReportsFailuresAndRerunsThem(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedDecompiler(failingBarScript))
	testsupport.WriteClassTree(t, env.classesDir, "a/b/Foo.class", "a/b/Bar.class", "Top.class")
	reportPath := filepath.Join(env.outputDir, "..", "report.json")

	out, _, err := env.run(t, "run", "-c", env.classesDir, "-o", env.outputDir, "--report", reportPath)
	if err == nil {
		t.Fatal("expected run to fail")
	}
	if !errors.Is(err, services.ErrAggregateExecution) {
		t.Fatalf("expected aggregate error, got %v", err)
	}
	requireContains(t, out, "1 of 3 units failed")
	requireContains(t, out, "Failed units:")
	requireContains(t, out, "a.b.Bar (exit_nonzero)")

	if got := testsupport.ReadFile(t, filepath.Join(env.outputDir, "a", "b", "Bar.scala")); got != "partial\n" {
		t.Fatalf("failed unit output should be kept, got %q", got)
	}
	if got := testsupport.ReadFile(t, filepath.Join(env.outputDir, "a", "b", "Foo.scala")); got != "object a.b.Foo\n" {
		t.Fatalf("sibling output missing, got %q", got)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(testsupport.ReadFile(t, reportPath)), &doc); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if doc["status"] != string(history.StatusFailed) {
		t.Fatalf("unexpected report status %v", doc["status"])
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	runs, err := store.List(context.Background(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected recorded run, got %v (err %v)", runs, err)
	}
	failedOut, _, err := env.run(t, "runs", "failed", runs[0].ID[:8])
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if failedOut != "a.b.Bar\n" {
		t.Fatalf("unexpected failed list %q", failedOut)
	}

	showOut, _, err := env.run(t, "runs", "show", runs[0].ID)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, showOut, "a.b.Bar")
	requireContains(t, showOut, "exit_nonzero")

	listOut, _, err := env.run(t, "runs", "list")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, listOut, runs[0].ID[:8])

	if err := os.Remove(filepath.Join(env.outputDir, "a", "b", "Foo.scala")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_, _, err = runCLI(t, []string{"run", "-c", env.classesDir, "-o", env.outputDir, "--only-from", "-"},
		env.configPath, strings.NewReader(failedOut))
	if !errors.Is(err, services.ErrAggregateExecution) {
		t.Fatalf("rerun should still fail on a.b.Bar, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.outputDir, "a", "b", "Foo.scala")); !os.IsNotExist(err) {
		t.Fatalf("rerun must only touch the listed units, stat err=%v", err)
	}
}

func TestRunMissingDecompilerFailsEveryUnit(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithEmptyPath())
	testsupport.WriteClassTree(t, env.classesDir, "a/One.class", "a/Two.class")

	_, stderr, err := env.run(t, "run", "-c", env.classesDir, "-o", env.outputDir)
	if !errors.Is(err, services.ErrAggregateExecution) {
		t.Fatalf("expected aggregate error, got %v", err)
	}
	if !errors.Is(err, services.ErrToolInvocation) || errors.Is(err, services.ErrNonZeroExit) {
		t.Fatalf("expected tool invocation causes only, got %v", err)
	}
	requireContains(t, stderr, "decompiler not found")

	store := testsupport.MustOpenHistory(t, env.cfg)
	runs, err := store.List(context.Background(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected recorded run, got %v (err %v)", runs, err)
	}
	items, err := store.Items(context.Background(), runs[0].ID, true)
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected both units to fail, got %d", len(items))
	}
	for _, item := range items {
		if item.FailureKind != services.KindToolMissing {
			t.Fatalf("unexpected failure kind %q for %s", item.FailureKind, item.QualifiedName)
		}
		requireContains(t, item.ErrorMessage, "accessible on your PATH")
	}
}

func TestRunStopOnFailure(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedDecompiler(failingBarScript))
	testsupport.WriteClassTree(t, env.classesDir, "a/b/Bar.class", "a/b/Foo.class", "a/b/Zed.class")

	out, _, err := env.run(t, "run", "-c", env.classesDir, "-o", env.outputDir, "-j", "1", "--stop-on-failure")
	if !errors.Is(err, services.ErrAggregateExecution) {
		t.Fatalf("expected aggregate error, got %v", err)
	}
	requireContains(t, out, "Skipped")
	if _, err := os.Stat(filepath.Join(env.outputDir, "a", "b", "Zed.scala")); !os.IsNotExist(err) {
		t.Fatalf("later chunks must not run, stat err=%v", err)
	}
}

func TestRunMissingClassesDirIsDiscoveryError(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedDecompiler(""))
	_, _, err := env.run(t, "run", "-c", filepath.Join(env.classesDir, "missing"), "-o", env.outputDir)
	if !errors.Is(err, services.ErrDiscovery) {
		t.Fatalf("expected discovery error, got %v", err)
	}
}

func TestRunEmptyTreeSucceeds(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedDecompiler(""))
	if err := os.MkdirAll(env.classesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	out, stderr, err := env.run(t, "run", "-c", env.classesDir, "-o", env.outputDir)
	if err != nil {
		t.Fatalf("empty tree should succeed, got %v", err)
	}
	requireContains(t, out, "no units found")
	requireContains(t, stderr, "no units discovered")
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedDecompiler(""))
	if _, _, err := env.run(t, "run", "-c", env.classesDir); err == nil {
		t.Fatal("expected error when --output-dir is missing")
	}
	if _, _, err := env.run(t, "run", "-c", env.classesDir, "-o", env.outputDir, "-j", "0"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero concurrency, got %v", err)
	}
	if _, _, err := env.run(t, "run", "-c", env.classesDir, "-o", env.outputDir, "--nested", "sometimes"); err == nil {
		t.Fatal("expected error for unknown nested policy")
	}
	if _, _, err := env.run(t, "run", "-c", env.classesDir, "-o", env.classesDir); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for identical roots, got %v", err)
	}
}
