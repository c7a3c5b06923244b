package git

import (
	"context"

	"github.com/grovetools/grw/pkg/models"
)

// Reader is read-only access to one repository. Implementations must be safe
// for concurrent use by several collectors.
type Reader interface {
	// Snapshot captures branch, head, changed files and the working-tree diff hash.
	Snapshot(ctx context.Context) (models.RepoSnapshot, error)

	// Commit loads the full metadata of one commit.
	Commit(ctx context.Context, sha string) (models.CommitRecord, error)

	// RecentCommits lists up to limit commits reachable from HEAD, newest first.
	RecentCommits(ctx context.Context, limit int) ([]models.CommitRef, error)

	// WorktreeDiff returns the diff of all uncommitted tracked changes against HEAD.
	WorktreeDiff(ctx context.Context) (models.DiffBlob, error)

	// CommitDiff returns the patch introduced by one commit.
	CommitDiff(ctx context.Context, sha string) (models.DiffBlob, error)
}
