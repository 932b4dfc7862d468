// Package state persists the index bookkeeping between runs: which revision
// was last indexed, and for every indexed file its content marker and the
// ids of the chunks derived from it.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// FileState records what the index holds for a single file.
type FileState struct {
	// Marker is a content hash of the file as it was last indexed.
	Marker string `json:"marker"`
	// ChunkIDs are the store ids of the chunks derived from the file.
	ChunkIDs []string `json:"chunkIds"`
}

// IndexState is the full persisted bookkeeping document.
type IndexState struct {
	Revision string               `json:"revision"`
	Files    map[string]FileState `json:"files"`
}

// Tracker loads, mutates, and saves an IndexState backed by a JSON file.
// Methods are not safe for concurrent use; indexing is single-flight.
type Tracker struct {
	path  string
	state IndexState
}

// NewTracker creates a Tracker backed by the given file path. The state
// starts empty; call Load to read the persisted document.
func NewTracker(path string) *Tracker {
	return &Tracker{
		path:  path,
		state: IndexState{Files: make(map[string]FileState)},
	}
}

// Load reads the persisted state. A missing or unreadable file yields an
// empty state without error: the index is simply rebuilt from scratch.
func (t *Tracker) Load() error {
	t.state = IndexState{Files: make(map[string]FileState)}

	data, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("state: starting fresh, could not read %s: %v", t.path, err)
		}
		return nil
	}

	var loaded IndexState
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Printf("state: starting fresh, could not parse %s: %v", t.path, err)
		return nil
	}
	if loaded.Files == nil {
		loaded.Files = make(map[string]FileState)
	}
	t.state = loaded
	return nil
}

// Save writes the state to disk. The write goes through a temporary file in
// the same directory so a crash mid-write never leaves a truncated document.
func (t *Tracker) Save() error {
	data, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index state: %w", err)
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write index state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace index state: %w", err)
	}
	return nil
}

// Revision returns the last indexed revision, empty if none.
func (t *Tracker) Revision() string {
	return t.state.Revision
}

// SetRevision records the revision the index now corresponds to.
func (t *Tracker) SetRevision(rev string) {
	t.state.Revision = rev
}

// RecordFile replaces the bookkeeping entry for a file.
func (t *Tracker) RecordFile(path, marker string, chunkIDs []string) {
	if chunkIDs == nil {
		chunkIDs = []string{}
	}
	t.state.Files[path] = FileState{Marker: marker, ChunkIDs: chunkIDs}
}

// ForgetFile drops the bookkeeping entry for a file.
func (t *Tracker) ForgetFile(path string) {
	delete(t.state.Files, path)
}

// FileMarker returns the recorded content marker for a file, empty if the
// file is not tracked.
func (t *Tracker) FileMarker(path string) string {
	return t.state.Files[path].Marker
}

// ChunkIDs returns the recorded chunk ids for a file.
func (t *Tracker) ChunkIDs(path string) []string {
	return t.state.Files[path].ChunkIDs
}

// TrackedFiles returns the tracked file paths in sorted order.
func (t *Tracker) TrackedFiles() []string {
	paths := make([]string, 0, len(t.state.Files))
	for path := range t.state.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Differ identifies files changed since a recorded revision. It is
// implemented by the git client; diffing stays optional so the tracker also
// works in exported trees without version control.
type Differ interface {
	ChangedSince(ctx context.Context, rev string) ([]string, error)
}

// DiffResult lists the work an indexing run has to do.
type DiffResult struct {
	// Changed holds on-disk files that must be re-chunked and re-embedded,
	// including files never indexed before.
	Changed []string
	// Removed holds tracked files that no longer exist on disk.
	Removed []string
	// NoOp is set when the revision is unchanged and nothing needs doing.
	NoOp bool
}

// Diff compares the tracked state against the files currently on disk.
// onDisk maps each candidate file path to its current content marker.
//
// When both the recorded and current revisions are known and equal, the run
// is a no-op. When a differ is available and the recorded revision is known,
// the changed set comes from version control plus any untracked files.
// Otherwise every file's marker is compared individually.
func (t *Tracker) Diff(ctx context.Context, currentRev string, onDisk map[string]string, differ Differ) DiffResult {
	if currentRev != "" && currentRev == t.state.Revision {
		return DiffResult{Changed: []string{}, Removed: []string{}, NoOp: true}
	}

	removed := make([]string, 0)
	for path := range t.state.Files {
		if _, ok := onDisk[path]; !ok {
			removed = append(removed, path)
		}
	}
	sort.Strings(removed)

	if differ != nil && t.state.Revision != "" {
		if diffPaths, err := differ.ChangedSince(ctx, t.state.Revision); err == nil {
			changedSet := make(map[string]bool, len(diffPaths))
			for _, path := range diffPaths {
				if _, ok := onDisk[path]; ok {
					changedSet[path] = true
				}
			}
			// Files on disk but never indexed are changed regardless of
			// what the diff says.
			for path := range onDisk {
				if _, tracked := t.state.Files[path]; !tracked {
					changedSet[path] = true
				}
			}
			changed := make([]string, 0, len(changedSet))
			for path := range changedSet {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			return DiffResult{Changed: changed, Removed: removed}
		} else {
			log.Printf("state: revision diff unavailable, comparing markers: %v", err)
		}
	}

	changed := make([]string, 0)
	for path, marker := range onDisk {
		if t.state.Files[path].Marker != marker {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return DiffResult{Changed: changed, Removed: removed}
}
