// Package pidrecord persists the supervised child's identity between
// supervisor invocations. The record file holds the PID as decimal text
// on the first line, followed by one line of JSON metadata. Legacy
// files containing only the PID still parse, with zero metadata.
//
// At most one valid record exists at a time. Writes go through a
// temp-file rename so a reader never observes a partial record, and
// callers serialize mutations through Lock so two racing invocations
// cannot both act on the same record.
package pidrecord

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Record is the persisted handle to a launched child.
type Record struct {
	PID       int    `json:"-"`
	StartUnix int64  `json:"start_unix"`        // child process start time, Unix seconds
	Command   string `json:"command,omitempty"` // command line the child was launched with
}

// File is a PID record at a fixed path.
type File struct {
	Path string
}

// Read parses the record. A missing file surfaces as an error
// satisfying os.IsNotExist / errors.Is(err, fs.ErrNotExist).
func (f File) Read() (Record, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return Record{}, err
	}
	pidLine, rest, _ := strings.Cut(strings.ReplaceAll(string(b), "\r\n", "\n"), "\n")
	pidStr := strings.TrimSpace(pidLine)
	if pidStr == "" {
		return Record{}, fmt.Errorf("empty pid record: %s", f.Path)
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return Record{}, fmt.Errorf("invalid pid in %s: %w", f.Path, err)
	}
	rec := Record{PID: pid}
	meta, _, _ := strings.Cut(strings.TrimSpace(rest), "\n")
	if meta != "" {
		// metadata is best-effort; a legacy or mangled second line
		// leaves the identity check disabled rather than failing Read
		var m Record
		if err := json.Unmarshal([]byte(meta), &m); err == nil {
			m.PID = pid
			rec = m
		}
	}
	return rec, nil
}

// Write persists rec atomically (temp file + rename in the same
// directory).
func (f File) Write(rec Record) error {
	if rec.PID <= 0 {
		return fmt.Errorf("refusing to record non-positive pid %d", rec.PID)
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	meta, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, werr := fmt.Fprintf(tmp, "%d\n%s\n", rec.PID, meta)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmpName)
		if werr != nil {
			return werr
		}
		return cerr
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Remove deletes the record. Removing an absent record is not an error.
func (f File) Remove() error {
	err := os.Remove(f.Path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Exists reports whether a record file is present.
func (f File) Exists() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}
