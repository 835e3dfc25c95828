package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func makeInfos(n int) []Info {
	now := time.Now()
	infos := make([]Info, n)
	for i := range infos {
		infos[i] = Info{
			Path:      filepath.Join("/tmp", filePrefix+string(rune('a'+i))),
			Size:      100,
			CreatedAt: now.Add(-time.Duration(i) * 24 * time.Hour),
		}
	}
	return infos
}

func TestCountPolicy(t *testing.T) {
	infos := makeInfos(5)
	keep := (&CountPolicy{MaxCount: 3}).Apply(infos)
	if len(keep) != 3 || keep[0].Path != infos[0].Path {
		t.Errorf("CountPolicy kept %d, want newest 3", len(keep))
	}
	if got := (&CountPolicy{MaxCount: 10}).Apply(infos); len(got) != 5 {
		t.Errorf("CountPolicy with room kept %d, want 5", len(got))
	}
}

func TestAgePolicy(t *testing.T) {
	keep := (&AgePolicy{MaxAge: 36 * time.Hour}).Apply(makeInfos(5))
	if len(keep) != 2 {
		t.Errorf("AgePolicy kept %d, want 2", len(keep))
	}
}

func TestCompositePolicy_Union(t *testing.T) {
	infos := makeInfos(5)
	p := &CompositePolicy{Policies: []RetentionPolicy{
		&CountPolicy{MaxCount: 1},
		&AgePolicy{MaxAge: 60 * time.Hour},
	}}
	if keep := p.Apply(infos); len(keep) != 3 {
		t.Errorf("CompositePolicy kept %d, want 3", len(keep))
	}
}

func TestApplyRetention(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		filePrefix + "20260101-000000-aaaaaaaa.json",
		filePrefix + "20260102-000000-bbbbbbbb.json",
		filePrefix + "20260103-000000-cccccccc.json.gz",
		"unrelated.txt",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	list, err := List(dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 || filepath.Base(list[0].Path) != names[2] {
		t.Fatalf("List() = %v, want 3 archives newest first", list)
	}

	deleted, err := ApplyRetention(dir, &CountPolicy{MaxCount: 1})
	if err != nil {
		t.Fatalf("ApplyRetention() error = %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("ApplyRetention() deleted %v, want 2 files", deleted)
	}
	if _, err := os.Stat(filepath.Join(dir, "unrelated.txt")); err != nil {
		t.Error("ApplyRetention() touched a non-archive file")
	}
	if _, err := os.Stat(filepath.Join(dir, names[2])); err != nil {
		t.Error("ApplyRetention() removed the newest archive")
	}
}

func TestList_MissingDir(t *testing.T) {
	list, err := List(filepath.Join(t.TempDir(), "nope"))
	if err != nil || list != nil {
		t.Errorf("List(missing) = %v, %v", list, err)
	}
}

func TestGeneratePath(t *testing.T) {
	p := GeneratePath("/var/archives", "0b6f2c1e-8d4a-4c8e-9a57-3f0d1b2c3d4e", true)
	base := filepath.Base(p)
	if filepath.Dir(p) != "/var/archives" {
		t.Errorf("GeneratePath() dir = %s", filepath.Dir(p))
	}
	if len(base) < len(filePrefix) || base[:len(filePrefix)] != filePrefix {
		t.Errorf("GeneratePath() = %s, want prefix %s", base, filePrefix)
	}
	if filepath.Ext(base) != ".gz" {
		t.Errorf("GeneratePath() = %s, want .gz", base)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"720h", 720 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"", 0, true},
		{"5x", 0, true},
		{"d", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
