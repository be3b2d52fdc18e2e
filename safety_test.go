package sekit

import (
	"errors"
	"testing"
)

func TestRemoveGuardDefaults(t *testing.T) {
	guard := NewRemoveGuard()

	blocked := []string{
		"root://foo.bar.gov//",
		"root://foo.bar.gov//store",
		"root://foo.bar.gov//store/user",
		"root://foo.bar.gov//store/user/jdoe",
	}
	for _, path := range blocked {
		if err := guard.Check(path); !IsRmSafety(err) {
			t.Errorf("Check(%q) = %v, want rm safety error", path, err)
		}
	}

	allowed := []string{
		"root://foo.bar.gov//store/user/jdoe/output",
		"root://foo.bar.gov//store/user/jdoe/output/file.root",
		"root://foo.bar.gov//store/group/something",
	}
	for _, path := range allowed {
		if err := guard.Check(path); err != nil {
			t.Errorf("Check(%q) = %v, want nil", path, err)
		}
	}
}

func TestRemoveGuardRequiresRemote(t *testing.T) {
	guard := NewRemoveGuard()
	err := guard.Check("/store/user/jdoe/output")
	if !errors.Is(err, ErrRemoteRequired) {
		t.Errorf("Check(local path) = %v, want ErrRemoteRequired", err)
	}
}

func TestRemoveGuardPatternDepth(t *testing.T) {
	// Patterns only match paths at their own segment depth: an exact
	// blacklist entry blocks at any depth, a wildcard entry does not
	// reach deeper than its own number of segments.
	guard := &RemoveGuard{Blacklist: []string{"/data/*/raw"}}

	if err := guard.Check("root://foo.bar.gov//data/2023/raw"); !IsRmSafety(err) {
		t.Errorf("pattern at matching depth = %v, want rm safety error", err)
	}
	if err := guard.Check("root://foo.bar.gov//data/2023/raw/file"); err != nil {
		t.Errorf("pattern at deeper path = %v, want nil", err)
	}
	if err := guard.Check("root://foo.bar.gov//data/raw"); err != nil {
		t.Errorf("pattern at shallower path = %v, want nil", err)
	}
}

func TestRemoveGuardExactEntryAnyDepth(t *testing.T) {
	guard := &RemoveGuard{Blacklist: []string{"/precious"}}
	if err := guard.Check("root://foo.bar.gov//precious"); !IsRmSafety(err) {
		t.Errorf("exact entry = %v, want rm safety error", err)
	}
	// Exact entries do not block children, only the path itself
	if err := guard.Check("root://foo.bar.gov//precious/child"); err != nil {
		t.Errorf("child of exact entry = %v, want nil", err)
	}
}

func TestRemoveGuardWhitelist(t *testing.T) {
	guard := &RemoveGuard{
		Blacklist: DefaultRmBlacklist,
		Whitelist: []string{"/store/user/jdoe/scratch"},
	}

	if err := guard.Check("root://foo.bar.gov//store/user/jdoe/scratch/old"); err != nil {
		t.Errorf("whitelisted path = %v, want nil", err)
	}
	if err := guard.Check("root://foo.bar.gov//store/user/jdoe/important"); !IsRmSafety(err) {
		t.Errorf("non-whitelisted path = %v, want rm safety error", err)
	}
}

func TestRemoveGuardEscapesRegexMeta(t *testing.T) {
	// Literal parts of a pattern must not be interpreted as regexp
	// syntax: '.' matches only a dot.
	guard := &RemoveGuard{Blacklist: []string{"/a.b/*"}}
	if err := guard.Check("root://foo.bar.gov//axb/child"); err != nil {
		t.Errorf("Check(/axb/child) = %v, want nil", err)
	}
	if err := guard.Check("root://foo.bar.gov//a.b/child"); !IsRmSafety(err) {
		t.Errorf("Check(/a.b/child) = %v, want rm safety error", err)
	}
}
