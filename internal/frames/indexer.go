package frames

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"maskpipe/internal/fileutil"
	"maskpipe/internal/services"
)

var acceptedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Accepted reports whether the file extension belongs to the fixed set of
// supported image formats (case-insensitive).
func Accepted(path string) bool {
	_, ok := acceptedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Gather collects accepted image files from dir as absolute paths sorted
// lexicographically. The sort order defines frame indices, so it must stay
// deterministic across runs.
func Gather(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "frames", "gather",
			fmt.Sprintf("not a directory: %s", dir), err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "frames", "gather",
			fmt.Sprintf("read directory %s", dir), err)
	}

	seen := make(map[string]struct{}, len(entries))
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !Accepted(entry.Name()) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", entry.Name(), err)
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
	}
	sort.Strings(files)
	return files, nil
}

// EnsureIndexed rebuilds dst as a dense zero-padded view of the accepted
// images in src and returns the resulting sequence. Each source file is
// copied to {index:06d}{ext} with the extension lowercased.
func EnsureIndexed(src, dst string) (*Sequence, error) {
	files, err := Gather(src)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrNoFrames, "frames", "index",
			fmt.Sprintf("no frames in %s (accepted: jpg, jpeg, png)", src), nil)
	}

	if err := fileutil.ClearDir(dst); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "frames", "index",
			fmt.Sprintf("prepare %s", dst), err)
	}

	seq := &Sequence{Dir: dst}
	for i, source := range files {
		ext := strings.ToLower(filepath.Ext(source))
		indexed := filepath.Join(dst, fmt.Sprintf("%06d%s", i, ext))
		if err := fileutil.CopyFile(source, indexed); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "frames", "index",
				fmt.Sprintf("copy frame %d (%s)", i, filepath.Base(source)), err)
		}
		seq.Frames = append(seq.Frames, Frame{
			Index:        i,
			Path:         indexed,
			OriginalName: filepath.Base(source),
		})
	}
	return seq, nil
}

// Load builds a sequence from an already-populated frame directory. The
// original basename is recovered through symlink resolution when the
// directory holds links, otherwise the file's own name is used.
func Load(dir string) (*Sequence, error) {
	files, err := Gather(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrNoFrames, "frames", "load",
			fmt.Sprintf("no frames in %s (accepted: jpg, jpeg, png)", dir), nil)
	}

	seq := &Sequence{Dir: dir}
	for i, path := range files {
		original := path
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			original = resolved
		}
		seq.Frames = append(seq.Frames, Frame{
			Index:        i,
			Path:         path,
			OriginalName: filepath.Base(original),
		})
	}
	return seq, nil
}
