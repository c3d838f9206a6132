package preflight

import (
	"os"

	"maskpipe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check for the given config. Optional
// checks describe state a run can create or proceed without; required
// failures mean a run would abort immediately.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckBinary("Predictor", cfg.Predictor.Binary, "Segmentation runner used for propagation"),
		CheckDirectoryAccess("Frame source", cfg.InputDir()),
		CheckDirectoryAccess("Output root", cfg.Paths.OutputRoot),
	}

	indexed := CheckDirectoryAccess("Indexed frames", cfg.IndexedDir())
	indexed.Optional = cfg.Dataset.AutoIndex
	if indexed.Optional && !indexed.Passed {
		indexed.Detail = "missing; a run rebuilds it from the frame source"
	}
	results = append(results, indexed)

	prompt := Result{Name: "Prompt record", Optional: true}
	if _, err := os.Stat(cfg.PromptsPath()); err != nil {
		prompt.Detail = "missing; store one with `maskpipe prompt set`"
	} else {
		prompt.Passed = true
		prompt.Detail = cfg.PromptsPath()
	}
	results = append(results, prompt)

	return results
}

// Ok reports whether every required check passed.
func Ok(results []Result) bool {
	for _, result := range results {
		if !result.Optional && !result.Passed {
			return false
		}
	}
	return true
}
