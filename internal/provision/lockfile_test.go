// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/extdeps/extdeps/internal/testutil"
	"github.com/extdeps/extdeps/pkg/depspec"
)

func lockedDesc(name string) depspec.Descriptor {
	return depspec.Descriptor{
		Name:       depspec.DependencyName(name),
		TargetPath: "/src/external_libs/" + "x",
		GitURL:     depspec.GitURL("https://example.invalid/" + name + ".git"),
		Commit:     "377524efcadcfe67a060b5e029191f975e676376",
	}
}

func TestLockFile_SaveLoad(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(time.Time{})
	path := filepath.Join(t.TempDir(), LockFileName)

	lock := NewLockFile()
	desc := lockedDesc("util_dmx")
	desc.Branch = "master"
	lock.Record(desc, &Result{Name: desc.Name, TargetPath: desc.TargetPath, Commit: desc.Commit, Action: ActionCloned}, clock.Now())

	if err := lock.Save(path, clock.Now()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "[[dependency]]") || !strings.Contains(string(raw), "377524efcadcfe67a060b5e029191f975e676376") {
		t.Errorf("unexpected lock content:\n%s", raw)
	}

	loaded, err := LoadLockFile(path)
	if err != nil {
		t.Fatalf("LoadLockFile() error = %v", err)
	}
	if loaded.Version != LockFileVersion {
		t.Errorf("Version = %d, want %d", loaded.Version, LockFileVersion)
	}
	got, ok := loaded.Lookup("util_dmx")
	if !ok {
		t.Fatal("Lookup(util_dmx) not found")
	}
	if got.Commit != desc.Commit || got.Branch != "master" || got.GitURL != desc.GitURL {
		t.Errorf("Lookup() = %+v", got)
	}
	if !got.ProvisionedAt.Equal(clock.Now()) {
		t.Errorf("ProvisionedAt = %v, want %v", got.ProvisionedAt, clock.Now())
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("temporary file left behind")
	}
}

func TestLoadLockFile_Missing(t *testing.T) {
	t.Parallel()

	lock, err := LoadLockFile(filepath.Join(t.TempDir(), LockFileName))
	if err != nil {
		t.Fatalf("LoadLockFile() error = %v", err)
	}
	if len(lock.Dependencies) != 0 || lock.Version != LockFileVersion {
		t.Errorf("LoadLockFile(missing) = %+v, want empty lock", lock)
	}
}

func TestLoadLockFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
		wantMsg string
	}{
		{"future version", "version = 99\n", ErrUnsupportedLockVersion, "version 99"},
		{"syntax", "version = \n", nil, LockFileName + ":1:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), LockFileName)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadLockFile(path)
			if err == nil {
				t.Fatal("LoadLockFile() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLockFile_Record(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(time.Time{})
	lock := NewLockFile()

	for _, name := range []string{"zlib", "util_dmx", "glm"} {
		d := lockedDesc(name)
		lock.Record(d, &Result{Name: d.Name, TargetPath: d.TargetPath, Commit: d.Commit, Action: ActionCloned}, clock.Now())
	}
	var names []string
	for _, d := range lock.Dependencies {
		names = append(names, string(d.Name))
	}
	if want := []string{"glm", "util_dmx", "zlib"}; !slices.Equal(names, want) {
		t.Errorf("names = %v, want sorted %v", names, want)
	}

	first := clock.Now()
	clock.Advance(time.Hour)

	d := lockedDesc("glm")
	lock.Record(d, &Result{Name: d.Name, TargetPath: d.TargetPath, Commit: d.Commit, Action: ActionUnchanged}, clock.Now())
	if got, _ := lock.Lookup("glm"); !got.ProvisionedAt.Equal(first) {
		t.Errorf("unchanged dependency timestamp moved to %v", got.ProvisionedAt)
	}

	d.Commit = "1111111111111111111111111111111111111111"
	lock.Record(d, &Result{Name: d.Name, TargetPath: d.TargetPath, Commit: d.Commit, Action: ActionFetched}, clock.Now())
	got, _ := lock.Lookup("glm")
	if got.Commit != d.Commit || !got.ProvisionedAt.Equal(clock.Now()) {
		t.Errorf("updated entry = %+v", got)
	}
	if len(lock.Dependencies) != 3 {
		t.Errorf("len(Dependencies) = %d, want 3", len(lock.Dependencies))
	}
}

func TestLockFile_Prune(t *testing.T) {
	t.Parallel()

	lock := NewLockFile()
	for _, name := range []string{"a", "b", "c"} {
		d := lockedDesc(name)
		lock.Record(d, &Result{Name: d.Name, Commit: d.Commit, Action: ActionCloned}, time.Now())
	}

	removed := lock.Prune([]depspec.DependencyName{"a", "c"})
	if !slices.Equal(removed, []depspec.DependencyName{"b"}) {
		t.Errorf("Prune() removed %v, want [b]", removed)
	}
	if _, ok := lock.Lookup("b"); ok {
		t.Error("b still present after Prune")
	}
	if len(lock.Dependencies) != 2 {
		t.Errorf("len(Dependencies) = %d, want 2", len(lock.Dependencies))
	}
}
