package git

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/grovetools/grw/pkg/models"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// logFormat prints sha, short sha, author, author date and the raw message.
const logFormat = "--format=" + recordSep + "%H" + fieldSep + "%h" + fieldSep + "%an" + fieldSep + "%at" + fieldSep + "%B" + fieldSep

// RecentCommits implements Reader.
func (r *CLIReader) RecentCommits(ctx context.Context, limit int) ([]models.CommitRef, error) {
	if limit <= 0 {
		return nil, nil
	}
	out, err := r.git(ctx, r.root, "log", "--no-color", "-n", strconv.Itoa(limit), logFormat)
	if err != nil {
		return nil, err
	}
	var refs []models.CommitRef
	for _, rec := range parseLog(out) {
		refs = append(refs, models.CommitRef{
			SHA:      rec.SHA,
			ShortSHA: rec.ShortSHA,
			Subject:  rec.Subject(),
			Author:   rec.Author,
			Date:     rec.Date,
		})
	}
	return refs, nil
}

// Commit implements Reader.
func (r *CLIReader) Commit(ctx context.Context, sha string) (models.CommitRecord, error) {
	if err := r.validateSHA(sha); err != nil {
		return models.CommitRecord{}, err
	}
	out, err := r.git(ctx, r.root, "show", "--no-color", "--no-patch", logFormat, sha)
	if err != nil {
		return models.CommitRecord{}, err
	}
	recs := parseLog(out)
	if len(recs) == 0 {
		return models.CommitRecord{}, nil
	}
	rec := recs[0]

	// --root lists the files of the initial commit too.
	names, err := r.git(ctx, r.root, "diff-tree", "--root", "--no-commit-id", "-r", "-M", "--name-status", "-z", sha)
	if err != nil {
		return models.CommitRecord{}, err
	}
	stats, err := r.git(ctx, r.root, "diff-tree", "--root", "--no-commit-id", "-r", "-M", "--numstat", "-z", sha)
	if err != nil {
		return models.CommitRecord{}, err
	}
	counts := parseNumstat(stats)
	for _, f := range parseNameStatus(names) {
		if r.opts.Filter.Excluded(f.Path) {
			continue
		}
		lc := counts[f.Path]
		f.Additions, f.Deletions, f.Binary = lc.added, lc.deleted, lc.binary
		rec.Files = append(rec.Files, f)
	}
	return rec, nil
}

// parseLog splits output produced with logFormat.
func parseLog(out string) []models.CommitRecord {
	var recs []models.CommitRecord
	for _, chunk := range strings.Split(out, recordSep) {
		fields := strings.Split(chunk, fieldSep)
		if len(fields) < 5 {
			continue
		}
		rec := models.CommitRecord{
			SHA:      strings.TrimSpace(fields[0]),
			ShortSHA: fields[1],
			Author:   fields[2],
			Message:  strings.TrimSpace(fields[4]),
		}
		if secs, err := strconv.ParseInt(fields[3], 10, 64); err == nil {
			rec.Date = time.Unix(secs, 0)
		}
		recs = append(recs, rec)
	}
	return recs
}

// parseNameStatus reads `git diff-tree --name-status -z` output.
func parseNameStatus(out string) []models.FileChange {
	var files []models.FileChange
	records := strings.Split(out, "\x00")
	for i := 0; i < len(records); i++ {
		code := records[i]
		if code == "" || i+1 >= len(records) {
			continue
		}
		st, ok := statusFromCode(code[0])
		if !ok {
			i++
			continue
		}
		fc := models.FileChange{Status: st, Path: records[i+1]}
		i++
		if st == models.StatusRenamed && i+1 < len(records) {
			fc.OldPath = fc.Path
			fc.Path = records[i+1]
			i++
		}
		files = append(files, fc)
	}
	return files
}
