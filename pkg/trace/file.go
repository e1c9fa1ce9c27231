package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Entry is one line of a core-sharded trace file: a record together with the
// core it was scheduled on and the input that occupied the core.
type Entry struct {
	Core  int64 `json:"core"`
	Input int64 `json:"input"`
	Record
}

// Decode reads JSON-lines entries from r. Blank lines are skipped.
func Decode(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, fmt.Errorf("failed to decode entry on line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	return entries, nil
}

// Encode writes entries to w as JSON lines.
func Encode(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return fmt.Errorf("failed to encode entry %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// LoadTrace reads a trace from a JSON-lines file.
func LoadTrace(filename string) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// SaveTrace writes a trace to a JSON-lines file.
func SaveTrace(filename string, entries []Entry) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	if err := Encode(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// GroupByCore groups entries by core, preserving order within each group.
func GroupByCore(entries []Entry) map[int64][]Entry {
	grouped := make(map[int64][]Entry)
	for _, e := range entries {
		grouped[e.Core] = append(grouped[e.Core], e)
	}
	return grouped
}
