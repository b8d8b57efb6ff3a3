package audit

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// readEntries decodes every line of the log. A line that does not decode
// is an error naming its line number.
func readEntries(fsys afero.Fs, path string) ([]Entry, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	lines := splitLines(data)
	entries := make([]Entry, len(lines))
	for i, line := range lines {
		if err := json.Unmarshal(line, &entries[i]); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", i+1, err)
		}
	}
	return entries, nil
}

// Verify checks that sequence numbers run from 1 without gaps, that each
// entry links to the hash of the one before it, and that each hash matches
// its entry. It returns the first violation.
func Verify(fsys afero.Fs, path string) error {
	entries, err := readEntries(fsys, path)
	if err != nil {
		return err
	}

	prev := genesisHash()
	for i, e := range entries {
		line := i + 1
		switch {
		case e.Seq != uint64(line):
			return fmt.Errorf("line %d: sequence gap: expected %d, got %d", line, line, e.Seq)
		case e.PrevHash != prev:
			return fmt.Errorf("line %d: broken chain: prev_hash %.12s does not match %.12s", line, e.PrevHash, prev)
		case e.Hash != computeHash(e):
			return fmt.Errorf("line %d: entry %d was modified", line, e.Seq)
		}
		prev = e.Hash
	}
	return nil
}

// Tail returns the last n entries of the log, or all of them when n is
// negative or larger than the log.
func Tail(fsys afero.Fs, path string, n int) ([]Entry, error) {
	entries, err := readEntries(fsys, path)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > len(entries) {
		n = len(entries)
	}
	return entries[len(entries)-n:], nil
}
