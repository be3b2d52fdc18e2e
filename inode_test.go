package sekit

import (
	"testing"
	"time"
)

func TestInodeAccessors(t *testing.T) {
	modTime := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	inode, err := NewInode("root://foo.bar.gov//store/user/test/file.root", modTime, false, 2048)
	if err != nil {
		t.Fatalf("NewInode error = %v", err)
	}

	if got := inode.Basename(); got != "file.root" {
		t.Errorf("Basename = %q, want %q", got, "file.root")
	}
	if got := inode.Dirname(); got != "root://foo.bar.gov//store/user/test" {
		t.Errorf("Dirname = %q", got)
	}
	if got := inode.Server(); got != "root://foo.bar.gov" {
		t.Errorf("Server = %q", got)
	}
	if got := inode.PathNoServer(); got != "/store/user/test/file.root" {
		t.Errorf("PathNoServer = %q", got)
	}
	if !inode.IsFile() {
		t.Error("IsFile = false, want true")
	}
	if got := inode.SizeHuman(); got != "2.0 kb" {
		t.Errorf("SizeHuman = %q, want %q", got, "2.0 kb")
	}
}

func TestInodeEqual(t *testing.T) {
	modTime := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	a, _ := NewInode("root://foo.bar.gov//store/f", modTime, false, 1)
	b, _ := NewInode("root://foo.bar.gov//store/f", modTime, false, 1)
	c, _ := NewInode("root://foo.bar.gov//store/f", modTime, false, 2)

	if !a.Equal(b) {
		t.Error("identical inodes not equal")
	}
	if a.Equal(c) {
		t.Error("inodes with different sizes equal")
	}
	if a.Equal(nil) {
		t.Error("inode equal to nil")
	}
}

func TestBytesHuman(t *testing.T) {
	tests := []struct {
		num  float64
		want string
	}{
		{0, "0.0 b"},
		{100, "100.0 b"},
		{2048, "2.0 kb"},
		{1536, "1.5 kb"},
		{3 * 1024 * 1024, "3.0 Mb"},
		{5 * 1024 * 1024 * 1024, "5.0 Gb"},
	}
	for _, tt := range tests {
		if got := BytesHuman(tt.num); got != tt.want {
			t.Errorf("BytesHuman(%v) = %q, want %q", tt.num, got, tt.want)
		}
	}
}
