package batch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"scalabatch/internal/decompiler"
	"scalabatch/internal/services"
	"scalabatch/internal/workitem"
)

type funcRunner func(ctx context.Context, item workitem.WorkItem) decompiler.Outcome

func (f funcRunner) Decompile(ctx context.Context, item workitem.WorkItem) decompiler.Outcome {
	return f(ctx, item)
}

func succeed(_ context.Context, item workitem.WorkItem) decompiler.Outcome {
	return decompiler.Outcome{Item: item, QualifiedName: item.QualifiedName()}
}

func failing(names ...string) funcRunner {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return func(ctx context.Context, item workitem.WorkItem) decompiler.Outcome {
		outcome := succeed(ctx, item)
		if set[item.QualifiedName()] {
			outcome.ExitCode = 1
			outcome.Err = services.Wrap(services.ErrNonZeroExit, "decompile", item.QualifiedName(), "exit status 1", nil)
		}
		return outcome
	}
}

// chunkBarrier blocks every call until the whole chunk has been dispatched and
// records whether a call started before the previous chunk drained.
type chunkBarrier struct {
	mu        sync.Mutex
	cond      *sync.Cond
	sizes     []int
	started   []string
	finished  int
	violation string
	chunkSeen []int
}

func newChunkBarrier(sizes ...int) *chunkBarrier {
	b := &chunkBarrier{sizes: sizes}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *chunkBarrier) Decompile(ctx context.Context, item workitem.WorkItem) decompiler.Outcome {
	b.mu.Lock()
	index := len(b.started)
	b.started = append(b.started, item.QualifiedName())
	chunkStart, chunkEnd := 0, 0
	for _, size := range b.sizes {
		chunkStart, chunkEnd = chunkEnd, chunkEnd+size
		if index < chunkEnd {
			break
		}
	}
	if b.finished < chunkStart {
		b.violation = item.QualifiedName() + " started before previous chunk drained"
	}
	if c, ok := services.ChunkFromContext(ctx); ok {
		b.chunkSeen = append(b.chunkSeen, c)
	}
	b.cond.Broadcast()
	deadline := time.Now().Add(5 * time.Second)
	for len(b.started) < chunkEnd && time.Now().Before(deadline) {
		waitWithTimeout(&b.mu, b.cond, 10*time.Millisecond)
	}
	if len(b.started) < chunkEnd {
		b.violation = "chunk " + item.QualifiedName() + " never fully dispatched"
	}
	b.finished++
	b.mu.Unlock()
	return succeed(ctx, item)
}

func waitWithTimeout(mu *sync.Mutex, cond *sync.Cond, d time.Duration) {
	timer := time.AfterFunc(d, func() {
		mu.Lock()
		cond.Broadcast()
		mu.Unlock()
	})
	cond.Wait()
	timer.Stop()
}

func newScheduler(t *testing.T, runner Runner, ceiling int, opts ...Option) *Scheduler {
	t.Helper()
	s, err := NewScheduler(runner, ceiling, opts...)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}
	return s
}

func TestExecuteChunksInOrderWithFullDispatch(t *testing.T) {
	barrier := newChunkBarrier(2, 2, 1)
	var reports []ChunkReport
	s := newScheduler(t, barrier, 2, WithChunkObserver(func(r ChunkReport) { reports = append(reports, r) }))

	result, err := s.Execute(context.Background(), makeItems(5))
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if barrier.violation != "" {
		t.Fatal(barrier.violation)
	}
	if result.Chunks != 3 || len(reports) != 3 {
		t.Fatalf("expected 3 chunks, got %d (reports %d)", result.Chunks, len(reports))
	}
	for i, want := range []int{2, 2, 1} {
		if reports[i].Size != want || reports[i].Index != i+1 {
			t.Fatalf("chunk %d: unexpected report %+v", i, reports[i])
		}
	}
	for i, outcome := range result.Outcomes {
		if outcome.Item != makeItems(5)[i] {
			t.Fatalf("outcome %d out of discovery order: %v", i, outcome.QualifiedName)
		}
	}
	if len(barrier.chunkSeen) != 5 {
		t.Fatalf("expected chunk number on every task context, got %v", barrier.chunkSeen)
	}
	if result.Succeeded != 5 || result.Err() != nil {
		t.Fatalf("expected full success, got %+v", result)
	}
}

func TestExecuteAggregatesFailuresAndContinues(t *testing.T) {
	s := newScheduler(t, failing("pkg.U01", "pkg.U03"), 2)
	result, err := s.Execute(context.Background(), makeItems(5))
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	if !errors.Is(err, services.ErrAggregateExecution) {
		t.Fatalf("expected ErrAggregateExecution, got %v", err)
	}
	if !errors.Is(err, services.ErrNonZeroExit) {
		t.Fatalf("expected item causes to be reachable, got %v", err)
	}
	var agg *AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("expected *AggregateError, got %T", err)
	}
	causes := agg.Causes()
	if len(causes) != 2 {
		t.Fatalf("expected one cause per failed item, got %d", len(causes))
	}
	if !strings.HasPrefix(causes[0].Error(), "pkg.U01: ") || !strings.HasPrefix(causes[1].Error(), "pkg.U03: ") {
		t.Fatalf("causes lack qualified names: %v", causes)
	}
	if result.Chunks != 3 || result.Succeeded != 3 || result.Failed() != 2 || result.Skipped != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := result.FailedNames(); strings.Join(got, ",") != "pkg.U01,pkg.U03" {
		t.Fatalf("unexpected failed names %v", got)
	}
	if !strings.Contains(agg.Error(), "2 of 5 units failed") {
		t.Fatalf("unexpected message %q", agg.Error())
	}
}

func TestExecuteStopOnFailure(t *testing.T) {
	s := newScheduler(t, failing("pkg.U00"), 2, WithStopOnFailure(true))
	result, err := s.Execute(context.Background(), makeItems(5))
	if !errors.Is(err, services.ErrAggregateExecution) {
		t.Fatalf("expected aggregate error, got %v", err)
	}
	if result.Chunks != 1 {
		t.Fatalf("expected to stop after first chunk, ran %d", result.Chunks)
	}
	if result.Succeeded != 1 || result.Failed() != 1 || result.Skipped != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestExecuteRecoversPanicAsSchedulingError(t *testing.T) {
	runner := funcRunner(func(ctx context.Context, item workitem.WorkItem) decompiler.Outcome {
		if item.UnitName == "U02" {
			panic("worker crashed")
		}
		return succeed(ctx, item)
	})
	s := newScheduler(t, runner, 2)
	result, err := s.Execute(context.Background(), makeItems(5))
	if !errors.Is(err, services.ErrScheduling) {
		t.Fatalf("expected ErrScheduling, got %v", err)
	}
	if result.Chunks != 1 || result.Skipped != 3 {
		t.Fatalf("expected run to stop at the panicking chunk, got %+v", result)
	}
}

func TestExecuteStopsBetweenChunksOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := funcRunner(func(c context.Context, item workitem.WorkItem) decompiler.Outcome {
		cancel()
		return succeed(c, item)
	})
	s := newScheduler(t, runner, 2)
	result, err := s.Execute(ctx, makeItems(5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Chunks != 1 || result.Skipped != 3 {
		t.Fatalf("expected one chunk before interruption, got %+v", result)
	}
}

func TestRunDiscoveryFailureRunsNothing(t *testing.T) {
	called := false
	runner := funcRunner(func(ctx context.Context, item workitem.WorkItem) decompiler.Outcome {
		called = true
		return succeed(ctx, item)
	})
	s := newScheduler(t, runner, 2)
	_, err := s.Run(context.Background(), workitem.Options{
		Fs:     afero.NewMemMapFs(),
		Roots:  workitem.RootPaths{Source: "/missing", Target: "/out"},
		Filter: workitem.Filter{Extension: ".class"},
	})
	if !errors.Is(err, services.ErrDiscovery) {
		t.Fatalf("expected ErrDiscovery, got %v", err)
	}
	if called {
		t.Fatal("no item may run after a discovery failure")
	}
}

func TestRunEmptyTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/src", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	opts := workitem.Options{Fs: fs, Roots: workitem.RootPaths{Source: "/src", Target: "/out"}, Filter: workitem.Filter{Extension: ".class"}}

	result, err := newScheduler(t, funcRunner(succeed), 2).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("expected empty tree to succeed, got %v", err)
	}
	if result.Total != 0 || result.Chunks != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	_, err = newScheduler(t, funcRunner(succeed), 2, WithFailOnEmpty(true)).Run(context.Background(), opts)
	if !errors.Is(err, services.ErrDiscovery) {
		t.Fatalf("expected ErrDiscovery with fail-on-empty, got %v", err)
	}
}

func TestRunEndToEndWithWorker(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"/src/a/b/Foo.class", "/src/a/b/Bar.class", "/src/Top.class"} {
		if err := fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := afero.WriteFile(fs, name, []byte{0xca, 0xfe}, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	roots := workitem.RootPaths{Source: "/src", Target: "/out"}
	inv := invokerFunc(func(_ context.Context, dir, arg string) (decompiler.Invocation, error) {
		if arg == "a.b.Bar" {
			return decompiler.Invocation{ExitCode: 1, Stdout: []byte("partial " + arg)}, nil
		}
		return decompiler.Invocation{Stdout: []byte("object " + arg)}, nil
	})
	worker, err := decompiler.NewWorker("scalap", roots, decompiler.WithFs(fs), decompiler.WithInvoker(inv))
	if err != nil {
		t.Fatalf("NewWorker returned error: %v", err)
	}

	result, err := newScheduler(t, worker, 2).Run(context.Background(), workitem.Options{
		Fs:     fs,
		Roots:  roots,
		Filter: workitem.Filter{Extension: ".class", Nested: workitem.NestedInclude},
	})
	if !errors.Is(err, services.ErrAggregateExecution) {
		t.Fatalf("expected aggregate failure, got %v", err)
	}
	if result.Total != 3 || result.Succeeded != 2 || result.Failed() != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	for path, want := range map[string]string{
		"/out/Top.scala":     "object Top",
		"/out/a/b/Foo.scala": "object a.b.Foo",
		"/out/a/b/Bar.scala": "partial a.b.Bar",
	} {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(data) != want {
			t.Fatalf("%s: got %q want %q", path, data, want)
		}
	}
}

type invokerFunc func(ctx context.Context, dir, arg string) (decompiler.Invocation, error)

func (f invokerFunc) Invoke(ctx context.Context, dir, arg string) (decompiler.Invocation, error) {
	return f(ctx, dir, arg)
}

func TestNewSchedulerValidation(t *testing.T) {
	if _, err := NewScheduler(nil, 2); err == nil {
		t.Fatal("expected error for nil runner")
	}
	if _, err := NewScheduler(funcRunner(succeed), 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
