// Package session persists the append-only log of loop iterations.
//
// The log is a single JSON document with a schema version tag and an ordered
// list of records. Append order is the only ordering guarantee consumers may
// rely on; iteration numbers restart at 1 for every run and are not globally
// unique across runs.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaviiSuri/ralphctl/internal/adapters"
)

// Mode names the instruction template family a run operates under.
type Mode string

const (
	ModePlan  Mode = "plan"
	ModeBuild Mode = "build"
)

// SchemaVersion is the current on-disk schema. Version 1 predates the agent
// field; records from that era default to the legacy agent on read.
const SchemaVersion = 2

// LegacyAgent is the backend assumed for records written before the log
// recorded agent identity.
const LegacyAgent = adapters.AgentOpenCode

// Record is one persisted iteration (or exported session). Created once by
// the loop controller, never mutated after append.
type Record struct {
	// Iteration is 1-based and contiguous within a single run.
	Iteration int `json:"iteration"`

	// SessionID is the backend session identifier, or a synthesized
	// placeholder when extraction failed.
	SessionID string `json:"sessionId"`

	// StartedAt is when the iteration's agent invocation began.
	StartedAt time.Time `json:"startedAt"`

	// Mode is plan or build.
	Mode Mode `json:"mode"`

	// Prompt is the exact instruction text sent to the agent.
	Prompt string `json:"prompt"`

	// Agent identifies the backend that produced this record.
	Agent adapters.AgentType `json:"agent,omitempty"`

	// Headless records whether print/headless behavior was active, for
	// backends that have the concept.
	Headless *bool `json:"headless,omitempty"`

	// Scope is the optional project-scope tag.
	Scope string `json:"scope,omitempty"`
}

// Log is the full persisted collection.
type Log struct {
	Version  int      `json:"version"`
	Sessions []Record `json:"sessions"`
}

// Store reads and appends the session log file. Single-writer: concurrent
// runs against the same path are not supported.
type Store struct {
	Path string
}

// DefaultPath returns the session log location for a repository.
func DefaultPath(repoPath string) string {
	return filepath.Join(repoPath, ".ralph", "sessions.json")
}

// NewStore creates a store over the given log path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the log, applying lazy schema migration in memory. The on-disk
// bytes are never modified by a read. A missing file yields an empty log.
func (s *Store) Load() (*Log, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return &Log{Version: SchemaVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session log %s: %w", s.Path, err)
	}

	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("parse session log %s: %w", s.Path, err)
	}

	migrate(&log)
	return &log, nil
}

// Append adds one record to the log and rewrites the file. The write goes to
// a temporary file first and is renamed into place to keep the corruption
// window minimal.
func (s *Store) Append(record Record) error {
	log, err := s.Load()
	if err != nil {
		return err
	}

	log.Version = SchemaVersion
	log.Sessions = append(log.Sessions, record)

	return s.write(log)
}

func (s *Store) write(log *Log) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "sessions-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, s.Path)
}

// migrate upgrades older records in memory. Records missing an agent default
// to the legacy backend; a missing version tag means schema version 1.
func migrate(log *Log) {
	if log.Version == 0 {
		log.Version = 1
	}
	for i := range log.Sessions {
		if log.Sessions[i].Agent == "" {
			log.Sessions[i].Agent = LegacyAgent
		}
	}
}

// PlaceholderSessionID synthesizes a session id for iterations whose output
// yielded none, so every iteration is still represented in the log.
func PlaceholderSessionID() string {
	return "pending-" + uuid.NewString()
}
