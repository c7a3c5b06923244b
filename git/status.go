package git

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grovetools/grw/pkg/models"
)

// untrackedLineLimit caps the size of untracked files whose lines are counted.
const untrackedLineLimit = 1 << 20

// statusReport is the parsed form of `git status --porcelain=v2 --branch -z`.
type statusReport struct {
	Head   string
	Branch string
	Ahead  int
	Behind int
	Files  []models.FileChange
}

// parseStatus reads NUL-separated porcelain v2 output. A path with both staged
// and unstaged changes yields two entries, one per side.
func parseStatus(out string) statusReport {
	var r statusReport
	records := strings.Split(out, "\x00")
	for i := 0; i < len(records); i++ {
		rec := records[i]
		if rec == "" {
			continue
		}
		switch rec[0] {
		case '#':
			parseBranchHeader(&r, rec)
		case '1':
			// 1 XY sub mH mI mW hH hI path
			fields := strings.SplitN(rec, " ", 9)
			if len(fields) < 9 {
				continue
			}
			r.Files = append(r.Files, changesFromXY(fields[1], fields[8], "")...)
		case '2':
			// 2 XY sub mH mI mW hH hI Xscore path, then origPath as the next record
			fields := strings.SplitN(rec, " ", 10)
			if len(fields) < 10 {
				continue
			}
			orig := ""
			if i+1 < len(records) {
				orig = records[i+1]
				i++
			}
			r.Files = append(r.Files, changesFromXY(fields[1], fields[9], orig)...)
		case 'u':
			// u XY sub m1 m2 m3 mW h1 h2 h3 path
			fields := strings.SplitN(rec, " ", 11)
			if len(fields) < 11 {
				continue
			}
			r.Files = append(r.Files, models.FileChange{Path: fields[10], Status: models.StatusModified})
		case '?':
			r.Files = append(r.Files, models.FileChange{Path: strings.TrimPrefix(rec, "? "), Status: models.StatusUntracked})
		}
	}
	return r
}

func parseBranchHeader(r *statusReport, rec string) {
	fields := strings.Fields(rec)
	if len(fields) < 3 {
		return
	}
	switch fields[1] {
	case "branch.oid":
		if fields[2] != "(initial)" {
			r.Head = fields[2]
		}
	case "branch.head":
		if fields[2] == "(detached)" {
			r.Branch = "HEAD"
		} else {
			r.Branch = fields[2]
		}
	case "branch.ab":
		if len(fields) >= 4 {
			r.Ahead, _ = strconv.Atoi(strings.TrimPrefix(fields[2], "+"))
			r.Behind, _ = strconv.Atoi(strings.TrimPrefix(fields[3], "-"))
		}
	}
}

// changesFromXY splits an XY status pair into its staged and unstaged halves.
func changesFromXY(xy, path, orig string) []models.FileChange {
	if len(xy) < 2 {
		return nil
	}
	var out []models.FileChange
	if st, ok := statusFromCode(xy[0]); ok {
		fc := models.FileChange{Path: path, Status: st, Staged: true}
		if st == models.StatusRenamed {
			fc.OldPath = orig
		}
		out = append(out, fc)
	}
	if st, ok := statusFromCode(xy[1]); ok {
		fc := models.FileChange{Path: path, Status: st}
		if st == models.StatusRenamed {
			fc.OldPath = orig
		}
		out = append(out, fc)
	}
	return out
}

func statusFromCode(c byte) (models.FileStatus, bool) {
	switch c {
	case 'A':
		return models.StatusAdded, true
	case 'M', 'T':
		return models.StatusModified, true
	case 'D':
		return models.StatusDeleted, true
	case 'R', 'C':
		return models.StatusRenamed, true
	default:
		return "", false
	}
}

type lineCount struct {
	added, deleted int
	binary         bool
}

// parseNumstat reads `git diff --numstat -z` output keyed by destination path.
// Binary files report "-" for both counts.
func parseNumstat(out string) map[string]lineCount {
	counts := make(map[string]lineCount)
	records := strings.Split(out, "\x00")
	for i := 0; i < len(records); i++ {
		rec := records[i]
		if rec == "" {
			continue
		}
		fields := strings.SplitN(rec, "\t", 3)
		if len(fields) < 3 {
			continue
		}
		path := fields[2]
		if path == "" {
			// Renames print an empty path followed by the old and new paths.
			if i+2 >= len(records) {
				break
			}
			path = records[i+2]
			i += 2
		}
		var lc lineCount
		if fields[0] == "-" || fields[1] == "-" {
			lc.binary = true
		} else {
			lc.added, _ = strconv.Atoi(fields[0])
			lc.deleted, _ = strconv.Atoi(fields[1])
		}
		counts[path] = lc
	}
	return counts
}

// countFileLines counts the lines of an untracked file. Large and binary
// files count as zero.
func countFileLines(root, path string) (int, bool) {
	full := filepath.Join(root, filepath.FromSlash(path))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() || info.Size() > untrackedLineLimit {
		return 0, false
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return 0, false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return 0, true
	}
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), untrackedLineLimit)
	for sc.Scan() {
		n++
	}
	return n, false
}

// computeStats aggregates a file list into RepoStats.
func computeStats(files []models.FileChange, ahead, behind int) models.RepoStats {
	s := models.RepoStats{Ahead: ahead, Behind: behind}
	for _, f := range files {
		switch {
		case f.Status == models.StatusUntracked:
			s.Untracked++
		case f.Staged:
			s.Staged++
		default:
			s.Unstaged++
		}
		s.Additions += f.Additions
		s.Deletions += f.Deletions
	}
	return s
}
