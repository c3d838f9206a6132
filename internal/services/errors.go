package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration       = errors.New("configuration error")
	ErrNoFrames            = errors.New("no frames found")
	ErrMissingPrompt       = errors.New("missing prompt")
	ErrInvalidPrompt       = errors.New("invalid prompt")
	ErrResourceUnavailable = errors.New("compute resource unavailable")
	ErrArtifactWrite       = errors.New("artifact write error")
	ErrExternalTool        = errors.New("external tool error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether the error is a precondition or resource failure that
// must abort the run. Artifact write errors are the only recoverable class;
// a failed frame is reported and skipped so partial output survives.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrArtifactWrite)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
