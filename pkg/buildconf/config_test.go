// SPDX-License-Identifier: MPL-2.0

package buildconf

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestConfig_AppendFlags_PreservesOrder(t *testing.T) {
	t.Parallel()

	cfg, err := New().AppendFlags("-DA=1", "-DB=2")
	if err != nil {
		t.Fatalf("AppendFlags() error = %v", err)
	}
	if got, want := cfg.Flags(), []string{"-DA=1", "-DB=2"}; !slices.Equal(got, want) {
		t.Errorf("Flags() = %v, want %v", got, want)
	}

	cfg, err = cfg.AppendFlags("-DA=3")
	if err != nil {
		t.Fatalf("AppendFlags() error = %v", err)
	}
	if got, want := cfg.Flags(), []string{"-DA=1", "-DB=2", "-DA=3"}; !slices.Equal(got, want) {
		t.Errorf("Flags() = %v, want %v", got, want)
	}
}

func TestConfig_AppendTargets_Additive(t *testing.T) {
	t.Parallel()

	cfg, err := New().AppendTargets("core")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err = cfg.AppendTargets("pr_dmx")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cfg.Targets(), []string{"core", "pr_dmx"}; !slices.Equal(got, want) {
		t.Errorf("Targets() = %v, want %v", got, want)
	}
}

func TestConfig_Targets_Dedup(t *testing.T) {
	t.Parallel()

	cfg, _ := New().AppendTargets("a", "b", "a", "c", "b")
	if got, want := cfg.Targets(), []string{"a", "b", "c"}; !slices.Equal(got, want) {
		t.Errorf("Targets() = %v, want %v", got, want)
	}
	if got, want := cfg.AllTargets(), []string{"a", "b", "a", "c", "b"}; !slices.Equal(got, want) {
		t.Errorf("AllTargets() = %v, want %v", got, want)
	}
}

func TestConfig_EmptyValueRejected(t *testing.T) {
	t.Parallel()

	base, _ := New().AppendFlags("-DA=1")

	got, err := base.AppendFlags("-DB=2", "")
	if !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("AppendFlags(empty) error = %v, want ErrEmptyValue", err)
	}
	if !slices.Equal(got.Flags(), []string{"-DA=1"}) {
		t.Errorf("config changed on error: %v", got.Flags())
	}

	if _, err := base.AppendTargets(""); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("AppendTargets(empty) error = %v, want ErrEmptyValue", err)
	}
}

func TestConfig_Immutable(t *testing.T) {
	t.Parallel()

	parent, _ := New().AppendFlags("-DA=1")
	// Force spare capacity in the parent so a naive append would alias.
	parent, _ = parent.AppendFlags("-DB=2")

	left, _ := parent.AppendFlags("-DLEFT=1")
	right, _ := parent.AppendFlags("-DRIGHT=1")

	if got := left.Flags(); got[len(got)-1] != "-DLEFT=1" {
		t.Errorf("left.Flags() = %v", got)
	}
	if got := right.Flags(); got[len(got)-1] != "-DRIGHT=1" {
		t.Errorf("right.Flags() = %v", got)
	}
	if n, _ := parent.Len(); n != 2 {
		t.Errorf("parent has %d flags, want 2", n)
	}

	flags := parent.Flags()
	flags[0] = "mutated"
	if parent.Flags()[0] != "-DA=1" {
		t.Error("Flags() returned an aliased slice")
	}
}

func TestConfig_Define(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{"path", "PME_EXTERNAL_LIB_LOCATION", "/src/external_libs", "-DPME_EXTERNAL_LIB_LOCATION=/src/external_libs", false},
		{"path with spaces", "LOC", "/my libs/x", "-DLOC=/my libs/x", false},
		{"empty value", "EMPTY", "", "-DEMPTY=", false},
		{"empty key", "", "x", "", true},
		{"key with equals", "A=B", "x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := New().Define(tt.key, tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDefineKey) {
					t.Fatalf("Define() error = %v, want ErrInvalidDefineKey", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Define() error = %v", err)
			}
			if got := cfg.Flags(); len(got) != 1 || got[0] != tt.want {
				t.Errorf("Flags() = %v, want [%s]", got, tt.want)
			}
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	t.Parallel()

	a, _ := New().AppendFlags("-DA=1")
	a, _ = a.AppendTargets("x")
	b, _ := New().AppendFlags("-DB=2")
	b, _ = b.AppendTargets("y")

	m := a.Merge(b)
	if got, want := m.Flags(), []string{"-DA=1", "-DB=2"}; !slices.Equal(got, want) {
		t.Errorf("Flags() = %v, want %v", got, want)
	}
	if got, want := m.Targets(), []string{"x", "y"}; !slices.Equal(got, want) {
		t.Errorf("Targets() = %v, want %v", got, want)
	}
	if !New().Merge(New()).IsEmpty() {
		t.Error("merging empty configs should be empty")
	}
}

func TestParseDefine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		flag     string
		key, val string
		ok       bool
	}{
		{"-DA=1", "A", "1", true},
		{"-DA=", "A", "", true},
		{"-DA=b=c", "A", "b=c", true},
		{"-DA", "", "", false},
		{"-D=1", "", "", false},
		{"--fresh", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			t.Parallel()

			k, v, ok := ParseDefine(tt.flag)
			if k != tt.key || v != tt.val || ok != tt.ok {
				t.Errorf("ParseDefine(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.flag, k, v, ok, tt.key, tt.val, tt.ok)
			}
		})
	}
}

func TestConfig_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	cfg, _ := New().AppendFlags("-DA=1", "-DB=2")
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next, _ := cfg.AppendFlags("-DC=3")
			if len(next.Flags()) != 3 {
				t.Error("unexpected flag count")
			}
		}()
	}
	wg.Wait()
	if n, _ := cfg.Len(); n != 2 {
		t.Errorf("shared config changed: %d flags", n)
	}
}
