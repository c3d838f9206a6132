package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"maskpipe/internal/config"
	"maskpipe/internal/predictor"
	"maskpipe/internal/prompts"
	"maskpipe/internal/propagation"
	"maskpipe/internal/runlog"
	"maskpipe/internal/services"
	"maskpipe/internal/testsupport"
)

func writeSourceFrames(t *testing.T, cfg *config.Config, n int) []string {
	t.Helper()
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("clip_%02d.jpg", i)
		testsupport.WriteImage(t, filepath.Join(cfg.InputDir(), name), 8, 8, color.White)
		names = append(names, name)
	}
	return names
}

func writePrompt(t *testing.T, cfg *config.Config, frameIdx int) {
	t.Helper()
	store := prompts.NewStore(cfg.PromptsPath())
	err := store.Write(prompts.Record{
		FrameIndex: frameIdx, ObjectID: 1,
		Points: []prompts.Point{{50, 60}}, Labels: []int{1},
		ImageWidth: 8, ImageHeight: 8, Source: fmt.Sprintf("clip_%02d.jpg", frameIdx),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func scriptedResults(total, annotated int) []predictor.Result {
	mask := testsupport.UniformMask(4, 4, 1)
	results := []predictor.Result{testsupport.SingleObjectResult(annotated, mask)}
	for i := 0; i < total; i++ {
		if i == annotated {
			continue
		}
		results = append(results, testsupport.SingleObjectResult(i, mask))
	}
	return results
}

func countFiles(t *testing.T, dir, ext string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ext {
			count++
		}
	}
	return count
}

func TestRunFullPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	names := writeSourceFrames(t, cfg, 10)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	writePrompt(t, cfg, 3)

	client := &testsupport.ScriptedClient{Results: scriptedResults(10, 3)}
	journal, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	runner := NewRunner(cfg, client, nil, WithJournal(journal))
	summary, err := runner.Run(context.Background(), propagation.Full())
	if err != nil {
		t.Fatal(err)
	}

	if summary.FramesEmitted != 10 || summary.FramesWritten != 10 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.WriteFailures != 0 {
		t.Fatalf("unexpected write failures: %+v", summary)
	}
	if summary.Written[0] != names[3] {
		t.Fatalf("annotated frame artifact must come first, got %v", summary.Written[:3])
	}

	// Masks named after source basenames, visualizations alongside.
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(cfg.MasksDir(), name)); err != nil {
			t.Errorf("missing mask for %s: %v", name, err)
		}
		if _, err := os.Stat(filepath.Join(cfg.VisualsDir(), name)); err != nil {
			t.Errorf("missing cutout for %s: %v", name, err)
		}
	}

	run, err := journal.Get(context.Background(), summary.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != runlog.StatusCompleted || run.FramesWritten != 10 {
		t.Fatalf("journal not updated: %+v", run)
	}
}

func TestRunPreviewBoundedAndCleared(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPreviewFrames(4))
	writeSourceFrames(t, cfg, 10)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	writePrompt(t, cfg, 3)

	// A stale preview from an earlier rejected prompt must disappear.
	stale := filepath.Join(cfg.PreviewDir(), "stale.jpg")
	testsupport.WriteImage(t, stale, 4, 4, color.Black)

	client := &testsupport.ScriptedClient{Results: scriptedResults(10, 3)}
	runner := NewRunner(cfg, client, nil, WithRand(rand.New(rand.NewSource(11))))

	summary, err := runner.Run(context.Background(), propagation.Preview(4))
	if err != nil {
		t.Fatal(err)
	}

	if summary.FramesEmitted != 4 {
		t.Fatalf("expected 4 emissions, got %+v", summary)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("stale preview survived the clear")
	}
	if got := countFiles(t, cfg.PreviewDir(), ".jpg"); got != 4 {
		t.Fatalf("expected 4 preview files, found %d", got)
	}
	if len(summary.Written) != 4 {
		t.Fatalf("expected 4 preview names, got %v", summary.Written)
	}
}

func TestRunMissingPrompt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeSourceFrames(t, cfg, 3)

	client := &testsupport.ScriptedClient{Results: scriptedResults(3, 0)}
	runner := NewRunner(cfg, client, nil)

	_, err := runner.Run(context.Background(), propagation.Full())
	if !errors.Is(err, services.ErrMissingPrompt) {
		t.Fatalf("expected ErrMissingPrompt, got %v", err)
	}
	if len(client.Streams) != 0 {
		t.Fatal("runner must not start before the prompt record exists")
	}
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeSourceFrames(t, cfg, 3)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	writePrompt(t, cfg, 0)

	// The holder of the lock is mid-run; the indexed directory must survive
	// the refused attempt untouched. A rebuild would clear this entry and
	// never recreate it.
	sentinel := filepath.Join(cfg.IndexedDir(), "held_by_live_run.jpg")
	testsupport.WriteImage(t, sentinel, 8, 8, color.Black)

	other := flock.New(cfg.LockPath())
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not take competing lock: %v", err)
	}
	defer other.Unlock()

	client := &testsupport.ScriptedClient{Results: scriptedResults(3, 0)}
	runner := NewRunner(cfg, client, nil)

	_, err = runner.Run(context.Background(), propagation.Full())
	if !errors.Is(err, services.ErrResourceUnavailable) {
		t.Fatalf("expected ErrResourceUnavailable, got %v", err)
	}
	if _, err := os.Stat(sentinel); err != nil {
		t.Fatalf("refused run must not rebuild the indexed directory: %v", err)
	}
	if len(client.Streams) != 0 {
		t.Fatal("refused run must not start the predictor")
	}
}

func TestRunIsolatesWriteFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Dataset.AutoIndex = false
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	// Pre-populate the indexed directory; frame 1 is corrupt and will fail
	// to decode at artifact time.
	indexed := cfg.IndexedDir()
	testsupport.WriteImage(t, filepath.Join(indexed, "000000.jpg"), 8, 8, color.White)
	if err := os.WriteFile(filepath.Join(indexed, "000001.jpg"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteImage(t, filepath.Join(indexed, "000002.jpg"), 8, 8, color.White)
	writePrompt(t, cfg, 0)

	client := &testsupport.ScriptedClient{Results: scriptedResults(3, 0)}
	runner := NewRunner(cfg, client, nil)

	summary, err := runner.Run(context.Background(), propagation.Full())
	if err != nil {
		t.Fatalf("write failures must not abort the run: %v", err)
	}
	if summary.FramesEmitted != 3 {
		t.Fatalf("expected 3 emissions, got %+v", summary)
	}
	if summary.WriteFailures != 1 || summary.FramesWritten != 2 {
		t.Fatalf("expected one isolated failure, got %+v", summary)
	}
}

func TestRunNoFrames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.InputDir(), 0o755); err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(cfg, &testsupport.ScriptedClient{}, nil)
	_, err := runner.Run(context.Background(), propagation.Full())
	if !errors.Is(err, services.ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}

func TestRunJournalsFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeSourceFrames(t, cfg, 3)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	writePrompt(t, cfg, 0)

	startErr := services.Wrap(services.ErrResourceUnavailable, "predictor", "start", "no accelerator", nil)
	client := &testsupport.ScriptedClient{StartErr: startErr}
	journal, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	runner := NewRunner(cfg, client, nil, WithJournal(journal))
	_, err = runner.Run(context.Background(), propagation.Full())
	if !errors.Is(err, services.ErrResourceUnavailable) {
		t.Fatalf("expected ErrResourceUnavailable, got %v", err)
	}

	runs, err := journal.List(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != runlog.StatusFailed {
		t.Fatalf("failure not journaled: %+v", runs)
	}
}
