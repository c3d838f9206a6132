package predictor

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strings"

	"maskpipe/internal/prompts"
	"maskpipe/internal/services"
)

var commandContext = exec.CommandContext

// Option configures the CLI client.
type Option func(*CLI)

// WithModel selects the pretrained checkpoint the runner loads.
func WithModel(model string) Option {
	return func(c *CLI) {
		if model != "" {
			c.model = model
		}
	}
}

// WithDevice selects the compute device ("cuda", "cpu", ...).
func WithDevice(device string) Option {
	return func(c *CLI) {
		if device != "" {
			c.device = device
		}
	}
}

// CLI drives a segmentation runner executable that emits one JSON object per
// line: a "ready" event once the model is initialized, then one "mask" event
// per frame in traversal order, and an "error" event on fatal failures.
type CLI struct {
	binary string
	model  string
	device string
}

// NewCLI constructs a CLI client for the given runner binary.
func NewCLI(binary string, opts ...Option) *CLI {
	cli := &CLI{binary: binary}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Start launches the runner and waits for it to signal readiness. The model
// load claims the accelerator; a runner that reports no usable device is a
// fatal setup failure, never retried.
func (c *CLI) Start(ctx context.Context, framesDir string, rec prompts.Record) (Stream, error) {
	if strings.TrimSpace(framesDir) == "" {
		return nil, errors.New("frames directory required")
	}
	if c.binary == "" {
		return nil, errors.New("runner binary required")
	}

	promptJSON, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal prompt record: %w", err)
	}

	args := []string{"--frames-dir", framesDir, "--prompt-json", string(promptJSON)}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	if c.device != "" {
		args = append(args, "--device", c.device)
	}

	cmd := commandContext(ctx, c.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrResourceUnavailable, "predictor", "start",
			fmt.Sprintf("launch %s", c.binary), err)
	}

	stream := &cliStream{cmd: cmd, scanner: bufio.NewScanner(stdout)}
	stream.scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	if err := stream.awaitReady(); err != nil {
		_ = stream.Close()
		return nil, err
	}
	return stream, nil
}

type cliStream struct {
	cmd     *exec.Cmd
	scanner *bufio.Scanner
	done    bool
}

type runnerEvent struct {
	Event      string       `json:"event"`
	FrameIndex int          `json:"frame_index"`
	ObjectIDs  []int        `json:"object_ids"`
	Masks      []runnerMask `json:"masks"`
	Message    string       `json:"message"`
}

type runnerMask struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Encoding string `json:"encoding"`
	Data     string `json:"data"`
}

func (s *cliStream) awaitReady() error {
	evt, err := s.nextEvent()
	if err != nil {
		return services.Wrap(services.ErrResourceUnavailable, "predictor", "initialize",
			"runner exited before signaling readiness", err)
	}
	switch evt.Event {
	case "ready":
		return nil
	case "error":
		return services.Wrap(services.ErrResourceUnavailable, "predictor", "initialize", evt.Message, nil)
	default:
		return services.Wrap(services.ErrExternalTool, "predictor", "initialize",
			fmt.Sprintf("unexpected first event %q", evt.Event), nil)
	}
}

// Next returns the following frame result, or io.EOF when the traversal is
// complete.
func (s *cliStream) Next() (Result, error) {
	if s.done {
		return Result{}, io.EOF
	}
	evt, err := s.nextEvent()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.done = true
			if waitErr := s.cmd.Wait(); waitErr != nil {
				return Result{}, services.Wrap(services.ErrExternalTool, "predictor", "propagate",
					"runner exited abnormally", waitErr)
			}
			return Result{}, io.EOF
		}
		return Result{}, err
	}

	switch evt.Event {
	case "mask":
		return decodeResult(evt)
	case "error":
		s.done = true
		return Result{}, services.Wrap(services.ErrExternalTool, "predictor", "propagate", evt.Message, nil)
	default:
		return Result{}, services.Wrap(services.ErrExternalTool, "predictor", "propagate",
			fmt.Sprintf("unexpected event %q", evt.Event), nil)
	}
}

// Close terminates the runner. Safe to call before the stream is exhausted;
// preview mode relies on that to stop a traversal early.
func (s *cliStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}

func (s *cliStream) nextEvent() (runnerEvent, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		var evt runnerEvent
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			// Runners may interleave diagnostic text; skip anything that
			// does not parse as an event.
			continue
		}
		return evt, nil
	}
	if err := s.scanner.Err(); err != nil {
		return runnerEvent{}, fmt.Errorf("read runner output: %w", err)
	}
	return runnerEvent{}, io.EOF
}

func decodeResult(evt runnerEvent) (Result, error) {
	result := Result{FrameIndex: evt.FrameIndex, ObjectIDs: evt.ObjectIDs}
	for i, rm := range evt.Masks {
		mask, err := decodeMask(rm)
		if err != nil {
			return Result{}, services.Wrap(services.ErrExternalTool, "predictor", "decode",
				fmt.Sprintf("frame %d mask %d", evt.FrameIndex, i), err)
		}
		result.Masks = append(result.Masks, mask)
	}
	if len(result.ObjectIDs) != len(result.Masks) {
		return Result{}, services.Wrap(services.ErrExternalTool, "predictor", "decode",
			fmt.Sprintf("frame %d: %d object ids but %d masks",
				evt.FrameIndex, len(result.ObjectIDs), len(result.Masks)), nil)
	}
	return result, nil
}

func decodeMask(rm runnerMask) (Mask, error) {
	if rm.Width <= 0 || rm.Height <= 0 {
		return Mask{}, fmt.Errorf("invalid dimensions %dx%d", rm.Width, rm.Height)
	}
	raw, err := base64.StdEncoding.DecodeString(rm.Data)
	if err != nil {
		return Mask{}, fmt.Errorf("decode base64: %w", err)
	}

	pixels := rm.Width * rm.Height
	data := make([]float32, pixels)
	switch rm.Encoding {
	case "u8", "":
		if len(raw) != pixels {
			return Mask{}, fmt.Errorf("u8 payload has %d bytes, want %d", len(raw), pixels)
		}
		for i, b := range raw {
			data[i] = float32(b) / 255
		}
	case "f32":
		if len(raw) != pixels*4 {
			return Mask{}, fmt.Errorf("f32 payload has %d bytes, want %d", len(raw), pixels*4)
		}
		for i := 0; i < pixels; i++ {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			data[i] = math.Float32frombits(bits)
		}
	default:
		return Mask{}, fmt.Errorf("unsupported encoding %q", rm.Encoding)
	}
	return Mask{Width: rm.Width, Height: rm.Height, Data: data}, nil
}

var _ Client = (*CLI)(nil)
