// Package filestore implements the task store and decision log ports on
// top of plain files: a snapshot file for the task collection (rewritten
// atomically on every change) and an append-only JSONL file for policy
// decisions. It is the default backend for single-process deployments.
//
// Crash consistency: task snapshots are written to a temp file, fsynced
// and renamed into place; decision appends are fsynced before the call
// returns. A torn trailing line in the decision log (crash mid-append)
// is truncated on reload.
package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentgate/agentgate/internal/domain/decision"
	"github.com/agentgate/agentgate/internal/domain/task"
)

const (
	tasksFile     = "tasks.json"
	decisionsFile = "decisions.jsonl"
)

// Store holds the task collection and the decision log for one data
// directory. A single Store owns its directory exclusively.
type Store struct {
	dir string

	mu    sync.RWMutex // guards tasks, order, seq and the snapshot file
	tasks map[string]*task.Task
	order []string
	seq   int64

	dmu       sync.Mutex // guards decisions and the JSONL file
	decisions []decision.Decision
	dfile     *os.File
}

// Open loads (or initializes) a Store in the given directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	s := &Store{
		dir:   dir,
		tasks: make(map[string]*task.Task),
	}

	if err := s.loadTasks(); err != nil {
		return nil, err
	}
	if err := s.loadDecisions(); err != nil {
		return nil, err
	}

	df, err := os.OpenFile(filepath.Join(dir, decisionsFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	s.dfile = df

	return s, nil
}

// Close releases the decision log file handle.
func (s *Store) Close() error {
	s.dmu.Lock()
	defer s.dmu.Unlock()
	if s.dfile == nil {
		return nil
	}
	err := s.dfile.Close()
	s.dfile = nil
	return err
}

// taskSnapshot is the on-disk shape of the task collection.
type taskSnapshot struct {
	Seq   int64       `json:"seq"`
	Tasks []task.Task `json:"tasks"`
}

func (s *Store) loadTasks() error {
	data, err := os.ReadFile(filepath.Join(s.dir, tasksFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read task snapshot: %w", err)
	}

	var snap taskSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse task snapshot: %w", err)
	}

	s.seq = snap.Seq
	for i := range snap.Tasks {
		t := snap.Tasks[i]
		s.tasks[t.ID] = &t
		s.order = append(s.order, t.ID)
	}
	return nil
}

// persistTasks writes the full task collection atomically.
// Must be called with s.mu held for writing.
func (s *Store) persistTasks() error {
	snap := taskSnapshot{Seq: s.seq, Tasks: make([]task.Task, 0, len(s.order))}
	for _, id := range s.order {
		snap.Tasks = append(snap.Tasks, *s.tasks[id])
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal task snapshot: %w", err)
	}

	target := filepath.Join(s.dir, tasksFile)
	tmp, err := os.CreateTemp(s.dir, tasksFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write task snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync task snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close task snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace task snapshot: %w", err)
	}
	return nil
}

func (s *Store) loadDecisions() error {
	path := filepath.Join(s.dir, decisionsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read decision log: %w", err)
	}

	// offset tracks the end of the last intact record. Anything past it is
	// a torn record from an interrupted append; it was never acknowledged,
	// so it is truncated away before new appends land behind it.
	offset := 0
	for offset < len(data) {
		nl := bytes.IndexByte(data[offset:], '\n')
		if nl < 0 {
			break
		}
		line := data[offset : offset+nl]
		if len(line) > 0 {
			var d decision.Decision
			if err := json.Unmarshal(line, &d); err != nil {
				break
			}
			s.decisions = append(s.decisions, d)
		}
		offset += nl + 1
	}

	if offset < len(data) {
		if err := os.Truncate(path, int64(offset)); err != nil {
			return fmt.Errorf("truncate torn decision log: %w", err)
		}
	}
	return nil
}
