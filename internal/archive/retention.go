package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// filePrefix starts every generated archive name.
const filePrefix = "aisim-run-"

// Info holds metadata for retention decisions.
type Info struct {
	Path      string
	Size      int64
	CreatedAt time.Time
}

// RetentionPolicy decides which archives to keep.
type RetentionPolicy interface {
	Apply(archives []Info) (keep []Info)
}

// CountPolicy keeps the N most recent archives.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount archives (assumed sorted newest-first).
func (p *CountPolicy) Apply(archives []Info) []Info {
	if len(archives) <= p.MaxCount {
		return archives
	}
	return archives[:p.MaxCount]
}

// AgePolicy keeps archives newer than MaxAge.
type AgePolicy struct {
	MaxAge time.Duration
}

// Apply keeps archives whose CreatedAt is within MaxAge of now.
func (p *AgePolicy) Apply(archives []Info) []Info {
	cutoff := time.Now().Add(-p.MaxAge)
	var keep []Info
	for _, a := range archives {
		if a.CreatedAt.After(cutoff) {
			keep = append(keep, a)
		}
	}
	return keep
}

// CompositePolicy keeps an archive if ANY sub-policy wants it.
type CompositePolicy struct {
	Policies []RetentionPolicy
}

// Apply returns the union of archives kept by any sub-policy.
func (p *CompositePolicy) Apply(archives []Info) []Info {
	kept := make(map[string]bool)
	for _, policy := range p.Policies {
		for _, a := range policy.Apply(archives) {
			kept[a.Path] = true
		}
	}

	var result []Info
	for _, a := range archives {
		if kept[a.Path] {
			result = append(result, a)
		}
	}
	return result
}

// GeneratePath creates a timestamped archive filename in dir.
func GeneratePath(dir, runID string, compress bool) string {
	ts := time.Now().UTC().Format("20060102-150405")
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("%s%s-%s.json", filePrefix, ts, short)
	if compress {
		name += ".gz"
	}
	return filepath.Join(dir, name)
}

// List scans dir for archive files and returns them sorted newest-first.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading archive directory: %w", err)
	}

	var archives []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		archives = append(archives, Info{
			Path:      filepath.Join(dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	// Timestamp is embedded in the name.
	sort.Slice(archives, func(i, j int) bool {
		return filepath.Base(archives[i].Path) > filepath.Base(archives[j].Path)
	})
	return archives, nil
}

// ApplyRetention deletes archives not kept by the policy.
func ApplyRetention(dir string, policy RetentionPolicy) (deleted []string, err error) {
	archives, err := List(dir)
	if err != nil {
		return nil, err
	}

	keepSet := make(map[string]bool)
	for _, a := range policy.Apply(archives) {
		keepSet[a.Path] = true
	}

	for _, a := range archives {
		if keepSet[a.Path] {
			continue
		}
		if err := os.Remove(a.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(a.Path), err)
		}
		deleted = append(deleted, a.Path)
	}
	return deleted, nil
}

// ParseDuration parses duration strings like "30d", "2w", "720h".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", string(suffix), s)
	}
}
