package git

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/grw/command"
	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/models"
)

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 10 * time.Second

// Options configures a CLIReader.
type Options struct {
	// Timeout bounds each git invocation. Zero uses DefaultTimeout.
	Timeout time.Duration
	// HistoryLimit is how many recent commits a snapshot carries.
	HistoryLimit int
	// Filter hides matching paths from snapshots and diffs.
	Filter *Filter
	// Builder overrides the command builder. Tests only.
	Builder *command.SafeBuilder
}

// CLIReader implements Reader by running the git binary.
type CLIReader struct {
	root    string
	opts    Options
	builder *command.SafeBuilder
	logger  *logrus.Entry
	now     func() time.Time
}

var _ Reader = (*CLIReader)(nil)

// Open resolves dir to its work tree root and returns a reader for it.
func Open(ctx context.Context, dir string, opts Options) (*CLIReader, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	builder := opts.Builder
	if builder == nil {
		builder = command.NewSafeBuilder()
	}
	r := &CLIReader{
		opts:    opts,
		builder: builder,
		logger:  logging.NewLogger("git"),
		now:     time.Now,
	}

	out, err := r.git(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		if errors.Is(err, errors.ErrCodeGitAccess) {
			return nil, errors.NotARepository(dir)
		}
		return nil, err
	}
	r.root = strings.TrimSpace(out)
	return r, nil
}

// Root returns the work tree root.
func (r *CLIReader) Root() string { return r.root }

// Snapshot implements Reader.
func (r *CLIReader) Snapshot(ctx context.Context) (models.RepoSnapshot, error) {
	out, err := r.git(ctx, r.root, "status", "--porcelain=v2", "--branch", "-z", "--untracked-files=all")
	if err != nil {
		return models.RepoSnapshot{}, err
	}
	report := parseStatus(out)

	unstaged, err := r.numstat(ctx, false)
	if err != nil {
		return models.RepoSnapshot{}, err
	}
	staged, err := r.numstat(ctx, true)
	if err != nil {
		return models.RepoSnapshot{}, err
	}

	files := make([]models.FileChange, 0, len(report.Files))
	for _, f := range report.Files {
		if r.opts.Filter.Excluded(f.Path) {
			continue
		}
		switch {
		case f.Status == models.StatusUntracked:
			f.Additions, f.Binary = countFileLines(r.root, f.Path)
		case f.Staged:
			lc := staged[f.Path]
			f.Additions, f.Deletions, f.Binary = lc.added, lc.deleted, lc.binary
		default:
			lc := unstaged[f.Path]
			f.Additions, f.Deletions, f.Binary = lc.added, lc.deleted, lc.binary
		}
		files = append(files, f)
	}

	snap := models.RepoSnapshot{
		Root:       r.root,
		Branch:     report.Branch,
		Head:       report.Head,
		Files:      files,
		Stats:      computeStats(files, report.Ahead, report.Behind),
		CapturedAt: r.now(),
	}

	if report.Head != "" {
		if snap.RecentCommits, err = r.RecentCommits(ctx, r.opts.HistoryLimit); err != nil {
			return models.RepoSnapshot{}, err
		}
	}
	if snap.IsDirty() {
		diff, err := r.WorktreeDiff(ctx)
		if err != nil {
			return models.RepoSnapshot{}, err
		}
		snap.DiffHash = diff.Hash
	}

	r.logger.WithFields(logrus.Fields{
		"branch": snap.Branch,
		"files":  len(snap.Files),
	}).Debug("Captured repository snapshot")
	return snap, nil
}

// WorktreeDiff implements Reader. The blob is keyed by its own content hash.
func (r *CLIReader) WorktreeDiff(ctx context.Context) (models.DiffBlob, error) {
	args := []string{"diff", "--no-color", "--no-ext-diff"}
	if _, err := r.git(ctx, r.root, "rev-parse", "--verify", "--quiet", "HEAD"); err == nil {
		args = append(args, "HEAD")
	} else {
		args = append(args, "--cached")
	}
	args = append(args, r.pathspec()...)
	out, err := r.git(ctx, r.root, args...)
	if err != nil {
		return models.DiffBlob{}, err
	}
	hash := DiffHash(out)
	return models.DiffBlob{
		Key:  models.DiffKey{Target: models.WorktreeTarget, Revision: hash},
		Text: out,
		Hash: hash,
	}, nil
}

// CommitDiff implements Reader.
func (r *CLIReader) CommitDiff(ctx context.Context, sha string) (models.DiffBlob, error) {
	if err := r.validateSHA(sha); err != nil {
		return models.DiffBlob{}, err
	}
	args := append([]string{"show", "--no-color", "--no-ext-diff", "--format=", sha}, r.pathspec()...)
	out, err := r.git(ctx, r.root, args...)
	if err != nil {
		return models.DiffBlob{}, err
	}
	return models.DiffBlob{
		Key:  models.DiffKey{Target: sha, Revision: sha},
		Text: out,
		Hash: DiffHash(out),
	}, nil
}

// pathspec turns the filter into git exclude pathspecs.
func (r *CLIReader) pathspec() []string {
	patterns := r.opts.Filter.Patterns()
	if len(patterns) == 0 {
		return nil
	}
	spec := []string{"--", "."}
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			continue
		}
		spec = append(spec, ":(exclude,glob)"+p)
	}
	return spec
}

func (r *CLIReader) numstat(ctx context.Context, cached bool) (map[string]lineCount, error) {
	args := []string{"diff", "--numstat", "-z", "--no-color", "--no-ext-diff"}
	if cached {
		args = append(args, "--cached")
	}
	out, err := r.git(ctx, r.root, args...)
	if err != nil {
		return nil, err
	}
	return parseNumstat(out), nil
}

// git runs one git command in dir and maps failures to git error codes.
func (r *CLIReader) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd, err := r.builder.Build("git", args...)
	if err != nil {
		return "", err
	}
	res, err := cmd.WithDir(dir).WithTimeout(r.opts.Timeout).Run(ctx)
	if err == nil {
		return res.Stdout, nil
	}
	op := args[0]
	switch {
	case errors.Is(err, errors.ErrCodeCommandNotFound):
		return "", errors.GitNotInstalled(err)
	case errors.Is(err, errors.ErrCodeCommandTimeout):
		return "", errors.Wrap(err, errors.ErrCodeCommandTimeout, fmt.Sprintf("git %s timed out", op))
	case strings.Contains(res.Stderr, "not a git repository"):
		return "", errors.NotARepository(dir)
	default:
		return "", errors.GitAccess(op, err).WithDetail("stderr", strings.TrimSpace(res.Stderr))
	}
}

func (r *CLIReader) validateSHA(sha string) error {
	if err := r.builder.Validate("sha", sha); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, err.Error())
	}
	return nil
}

// DiffHash identifies a diff body by content.
func DiffHash(diff string) string {
	sum := sha256.Sum256([]byte(diff))
	return hex.EncodeToString(sum[:8])
}
