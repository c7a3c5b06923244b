package models

import (
	"fmt"
	"time"
)

// FileStatus describes how a path changed.
type FileStatus string

const (
	StatusAdded     FileStatus = "added"
	StatusModified  FileStatus = "modified"
	StatusDeleted   FileStatus = "deleted"
	StatusRenamed   FileStatus = "renamed"
	StatusUntracked FileStatus = "untracked"
)

// FileChange is one changed path in the working tree or in a commit.
type FileChange struct {
	Path      string     `json:"path"`
	OldPath   string     `json:"old_path,omitempty"`
	Status    FileStatus `json:"status"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Staged    bool       `json:"staged,omitempty"`
	Binary    bool       `json:"binary,omitempty"`
}

// CommitRef is the short form of a commit used in history listings.
type CommitRef struct {
	SHA      string    `json:"sha"`
	ShortSHA string    `json:"short_sha"`
	Subject  string    `json:"subject"`
	Author   string    `json:"author"`
	Date     time.Time `json:"date"`
}

// RepoStats aggregates counts over a snapshot's file list.
type RepoStats struct {
	Staged    int `json:"staged"`
	Unstaged  int `json:"unstaged"`
	Untracked int `json:"untracked"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Ahead     int `json:"ahead"`
	Behind    int `json:"behind"`
}

// RepoSnapshot is the complete view of a repository at one poll.
// It is always replaced wholesale, never patched.
type RepoSnapshot struct {
	Root          string       `json:"root"`
	Branch        string       `json:"branch"`
	Head          string       `json:"head"`
	Files         []FileChange `json:"files"`
	Stats         RepoStats    `json:"stats"`
	RecentCommits []CommitRef  `json:"recent_commits,omitempty"`
	// DiffHash identifies the working-tree diff body cached under
	// DiffKey{Target: WorktreeTarget, Revision: DiffHash}.
	DiffHash   string    `json:"diff_hash,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// IsDirty reports whether the snapshot has any uncommitted change.
func (s RepoSnapshot) IsDirty() bool {
	return len(s.Files) > 0
}

// StagedFiles returns the staged subset of the file list.
func (s RepoSnapshot) StagedFiles() []FileChange {
	var out []FileChange
	for _, f := range s.Files {
		if f.Staged {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a deep copy so callers can never alias the stored slices.
func (s RepoSnapshot) Clone() RepoSnapshot {
	cpy := s
	cpy.Files = append([]FileChange(nil), s.Files...)
	cpy.RecentCommits = append([]CommitRef(nil), s.RecentCommits...)
	return cpy
}

// CommitRecord is the full metadata of one commit. Immutable once cached.
type CommitRecord struct {
	SHA      string       `json:"sha"`
	ShortSHA string       `json:"short_sha"`
	Message  string       `json:"message"`
	Author   string       `json:"author"`
	Date     time.Time    `json:"date"`
	Files    []FileChange `json:"files"`
}

// Subject returns the first line of the commit message.
func (c CommitRecord) Subject() string {
	for i := 0; i < len(c.Message); i++ {
		if c.Message[i] == '\n' {
			return c.Message[:i]
		}
	}
	return c.Message
}

// Clone returns a deep copy.
func (c CommitRecord) Clone() CommitRecord {
	cpy := c
	cpy.Files = append([]FileChange(nil), c.Files...)
	return cpy
}

// WorktreeTarget is the DiffKey target used for the working-tree diff.
const WorktreeTarget = "WORKTREE"

// DiffKey identifies a cached diff body: a path or commit plus a revision.
type DiffKey struct {
	Target   string `json:"target"`
	Revision string `json:"revision"`
}

func (k DiffKey) String() string {
	return fmt.Sprintf("%s@%s", k.Target, k.Revision)
}

// DiffBlob is cached diff text. Immutable once cached.
type DiffBlob struct {
	Key  DiffKey `json:"key"`
	Text string  `json:"text"`
	Hash string  `json:"hash"`
}
