// Package checkpoint durably stores whole-machine snapshots, one
// directory per captured interval.
//
// Layout: <dir>/cpt.SimPoint<N>/ holding metadata.json (format
// version, run id, architectural state) and memory.bin (sparse page
// image). Writes go through a temporary directory renamed into place,
// so an interrupted capture never leaves a visible partial checkpoint;
// a visible checkpoint that fails to parse is corrupt.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/phasesim/board"
	"github.com/sarchlab/phasesim/emu"
)

// FormatVersion is the checkpoint format this reader and writer speak.
// A stored major version different from this one is unreadable.
const FormatVersion = "1.0.0"

// ErrNotFound reports a missing checkpoint directory for the requested
// index.
var ErrNotFound = errors.New("checkpoint not found")

// ErrCorrupt reports a checkpoint that exists but cannot be read:
// unparseable metadata, a bad memory image, or an incompatible format
// version.
var ErrCorrupt = errors.New("checkpoint corrupt")

// ErrIncompatible reports a checkpoint whose memory capacity differs
// from the restoring machine's. Memory contents are captured by
// size-addressed snapshot, so capacity must match exactly; cache and
// functional-unit configuration may differ freely.
var ErrIncompatible = errors.New("incompatible checkpoint")

const (
	metadataFile = "metadata.json"
	memoryFile   = "memory.bin"
)

// metadata is the JSON head of a checkpoint directory.
type metadata struct {
	FormatVersion  string       `json:"format_version"`
	RunID          string       `json:"run_id"`
	CapturedAt     time.Time    `json:"captured_at"`
	Index          int          `json:"index"`
	MemoryCapacity uint64       `json:"memory_capacity"`
	State          *board.State `json:"state"`
}

// Path returns the checkpoint directory for an index, following the
// cpt.SimPoint<N> convention.
func Path(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("cpt.SimPoint%d", index))
}

// Exists reports whether a checkpoint directory is present for the
// index. It says nothing about the checkpoint's readability.
func Exists(dir string, index int) bool {
	info, err := os.Stat(Path(dir, index))
	return err == nil && info.IsDir()
}

// Save writes a checkpoint for the given index: the machine state as
// metadata and the memory's sparse page image. The parent dir is
// created if absent. The write lands in a temporary directory first
// and is renamed into place once durably written.
func Save(dir string, index int, state *board.State, mem *emu.Memory) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmpDir, err := os.MkdirTemp(dir, ".cpt.tmp-")
	if err != nil {
		return fmt.Errorf("create checkpoint staging dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	meta := metadata{
		FormatVersion:  FormatVersion,
		RunID:          xid.New().String(),
		CapturedAt:     time.Now(),
		Index:          index,
		MemoryCapacity: mem.Capacity(),
		State:          state,
	}

	if err := writeMetadata(filepath.Join(tmpDir, metadataFile), &meta); err != nil {
		return err
	}
	if err := writeMemoryImage(filepath.Join(tmpDir, memoryFile), mem); err != nil {
		return err
	}

	target := Path(dir, index)
	if err := os.Rename(tmpDir, target); err != nil {
		return fmt.Errorf("publish checkpoint %d: %w", index, err)
	}
	if err := syncDir(dir); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"index":   index,
		"path":    target,
		"retired": state.Retired(),
		"pages":   mem.PageCount(),
	}).Info("checkpoint saved")

	return nil
}

// Load reads the checkpoint for the given index, installs its memory
// image into mem, and returns the machine state. Fails with
// ErrNotFound when the directory is absent, ErrIncompatible when the
// stored memory capacity differs from mem's, and ErrCorrupt when the
// stored data cannot be read back.
func Load(dir string, index int, mem *emu.Memory) (*board.State, error) {
	cptDir := Path(dir, index)
	if _, err := os.Stat(cptDir); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cptDir)
	}

	meta, err := readMetadata(filepath.Join(cptDir, metadataFile))
	if err != nil {
		return nil, err
	}

	if meta.MemoryCapacity != mem.Capacity() {
		return nil, fmt.Errorf(
			"%w: checkpoint captured with %d bytes of memory, machine has %d",
			ErrIncompatible, meta.MemoryCapacity, mem.Capacity())
	}

	if err := readMemoryImage(filepath.Join(cptDir, memoryFile), mem); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"index":   index,
		"path":    cptDir,
		"retired": meta.State.Retired(),
	}).Info("checkpoint loaded")

	return meta.State, nil
}

func writeMetadata(path string, meta *metadata) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create checkpoint metadata: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("write checkpoint metadata: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync checkpoint metadata: %w", err)
	}
	return f.Close()
}

func readMetadata(path string) (*metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read metadata: %v", ErrCorrupt, err)
	}

	var meta metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: parse metadata: %v", ErrCorrupt, err)
	}
	if meta.State == nil {
		return nil, fmt.Errorf("%w: metadata carries no machine state", ErrCorrupt)
	}

	stored, err := semver.NewVersion(meta.FormatVersion)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: bad format version %q", ErrCorrupt, meta.FormatVersion)
	}
	current := semver.MustParse(FormatVersion)
	if stored.Major() != current.Major() {
		return nil, fmt.Errorf(
			"%w: format version %s, reader speaks %s",
			ErrCorrupt, meta.FormatVersion, FormatVersion)
	}

	return &meta, nil
}

func writeMemoryImage(path string, mem *emu.Memory) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create memory image: %w", err)
	}
	defer f.Close()

	if err := mem.WriteImage(f); err != nil {
		return fmt.Errorf("write memory image: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync memory image: %w", err)
	}
	return f.Close()
}

func readMemoryImage(path string, mem *emu.Memory) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open memory image: %v", ErrCorrupt, err)
	}
	defer f.Close()

	if err := mem.ReadImage(f); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open checkpoint dir for sync: %w", err)
	}
	defer d.Close()

	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync checkpoint dir: %w", err)
	}
	return nil
}
