package simulate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/repcoach/internal/synth"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// maxLineSize bounds one JSONL record; a full frame with both hands is a
// few kilobytes.
const maxLineSize = 1 << 20

// SaveSamples writes samples to path as one JSON object per line.
func SaveSamples(path string, samples []synth.Sample) error {
	if len(samples) == 0 {
		return ErrEmptyStream
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, s := range samples {
		if err := enc.Encode(s); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to encode sample %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return f.Close()
}

// LoadSamples reads a JSONL stream written by SaveSamples or recorded from
// a live camera. The expected rep count of the returned workout is unknown.
func LoadSamples(path string) (Workout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Workout{}, fmt.Errorf("failed to open samples: %w", err)
	}
	defer f.Close()

	w := Workout{Expected: -1}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var s synth.Sample
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			return Workout{}, fmt.Errorf("line %d: %w", line, err)
		}
		w.Samples = append(w.Samples, s)
	}
	if err := sc.Err(); err != nil {
		return Workout{}, fmt.Errorf("failed to read samples: %w", err)
	}
	if len(w.Samples) == 0 {
		return Workout{}, ErrEmptyStream
	}
	return w, nil
}
