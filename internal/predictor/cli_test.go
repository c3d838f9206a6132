package predictor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"maskpipe/internal/prompts"
	"maskpipe/internal/services"
)

func writeRunnerStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sam2-predict")
	content := "#!/bin/sh\n" + script
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRecord() prompts.Record {
	return prompts.Record{
		FrameIndex: 0, ObjectID: 1,
		Points: []prompts.Point{{2, 2}}, Labels: []int{1},
		ImageWidth: 4, ImageHeight: 4, Source: "000000.jpg",
	}
}

func maskEvent(frame int, values []byte) string {
	payload := base64.StdEncoding.EncodeToString(values)
	return fmt.Sprintf(`{"event":"mask","frame_index":%d,"object_ids":[1],"masks":[{"width":2,"height":2,"encoding":"u8","data":"%s"}]}`, frame, payload)
}

func TestCLIStartAndStream(t *testing.T) {
	script := fmt.Sprintf("echo '{\"event\":\"ready\"}'\necho '%s'\necho '%s'\n",
		maskEvent(0, []byte{0, 255, 255, 0}),
		maskEvent(1, []byte{255, 0, 0, 255}))
	cli := NewCLI(writeRunnerStub(t, script), WithModel("test-model"), WithDevice("cpu"))

	stream, err := cli.Start(context.Background(), t.TempDir(), testRecord())
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Close()

	first, err := stream.Next()
	if err != nil {
		t.Fatal(err)
	}
	if first.FrameIndex != 0 || len(first.Masks) != 1 {
		t.Fatalf("unexpected first result %+v", first)
	}
	if got := first.Masks[0].At(1, 0); got != 1 {
		t.Fatalf("mask value at (1,0) = %v, want 1", got)
	}
	if got := first.Masks[0].At(0, 0); got != 0 {
		t.Fatalf("mask value at (0,0) = %v, want 0", got)
	}

	second, err := stream.Next()
	if err != nil {
		t.Fatal(err)
	}
	if second.FrameIndex != 1 {
		t.Fatalf("unexpected second frame index %d", second.FrameIndex)
	}

	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestCLIErrorEventDuringInit(t *testing.T) {
	script := "echo '{\"event\":\"error\",\"message\":\"no accelerator available\"}'\n"
	cli := NewCLI(writeRunnerStub(t, script))

	_, err := cli.Start(context.Background(), t.TempDir(), testRecord())
	if !errors.Is(err, services.ErrResourceUnavailable) {
		t.Fatalf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestCLIMissingBinary(t *testing.T) {
	cli := NewCLI(filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := cli.Start(context.Background(), t.TempDir(), testRecord())
	if !errors.Is(err, services.ErrResourceUnavailable) {
		t.Fatalf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestCLISkipsDiagnosticLines(t *testing.T) {
	script := fmt.Sprintf("echo 'loading checkpoint...'\necho '{\"event\":\"ready\"}'\necho 'warming up'\necho '%s'\n",
		maskEvent(0, []byte{255, 255, 255, 255}))
	cli := NewCLI(writeRunnerStub(t, script))

	stream, err := cli.Start(context.Background(), t.TempDir(), testRecord())
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Close()

	result, err := stream.Next()
	if err != nil {
		t.Fatal(err)
	}
	if result.FrameIndex != 0 {
		t.Fatalf("unexpected frame index %d", result.FrameIndex)
	}
}

func TestCLICloseBeforeExhaustion(t *testing.T) {
	script := fmt.Sprintf("echo '{\"event\":\"ready\"}'\necho '%s'\nsleep 30\n",
		maskEvent(0, []byte{255, 0, 0, 255}))
	cli := NewCLI(writeRunnerStub(t, script))

	stream, err := cli.Start(context.Background(), t.TempDir(), testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := stream.Next(); err != nil {
		t.Fatal(err)
	}
	// Must return promptly even though the runner would keep going.
	if err := stream.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDecodeMaskF32(t *testing.T) {
	raw := make([]byte, 8)
	// 0.25 and 0.75 little-endian
	copy(raw[0:4], []byte{0x00, 0x00, 0x80, 0x3e})
	copy(raw[4:8], []byte{0x00, 0x00, 0x40, 0x3f})
	mask, err := decodeMask(runnerMask{
		Width: 2, Height: 1, Encoding: "f32",
		Data: base64.StdEncoding.EncodeToString(raw),
	})
	if err != nil {
		t.Fatal(err)
	}
	if mask.Data[0] != 0.25 || mask.Data[1] != 0.75 {
		t.Fatalf("decoded %v, want [0.25 0.75]", mask.Data)
	}
}

func TestDecodeMaskRejectsShortPayload(t *testing.T) {
	_, err := decodeMask(runnerMask{
		Width: 4, Height: 4, Encoding: "u8",
		Data: base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
	})
	if err == nil {
		t.Fatal("expected error for short payload")
	}
}
