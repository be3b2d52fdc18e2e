package gfal

import (
	"testing"
	"time"
)

func TestParseLongLine(t *testing.T) {
	dir := "root://foo.bar.gov//store/user/jdoe"

	inode, err := parseLongLine("-rw-r--r--   1 0     0     1048576 Jan  5 2023 out_1.root", dir)
	if err != nil {
		t.Fatalf("parseLongLine error = %v", err)
	}
	if inode.Path != dir+"/out_1.root" {
		t.Errorf("Path = %q", inode.Path)
	}
	if inode.IsDir {
		t.Error("IsDir = true, want false")
	}
	if inode.Size != 1048576 {
		t.Errorf("Size = %d, want 1048576", inode.Size)
	}
	if want := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC); !inode.ModTime.Equal(want) {
		t.Errorf("ModTime = %v, want %v", inode.ModTime, want)
	}

	dirInode, err := parseLongLine("drwxr-xr-x   1 0     0        4096 Jan  5 2023 logs", dir)
	if err != nil {
		t.Fatalf("parseLongLine error = %v", err)
	}
	if !dirInode.IsDir {
		t.Error("IsDir = false, want true")
	}

	if _, err := parseLongLine("not a listing line", dir); err == nil {
		t.Error("parseLongLine accepted a malformed line")
	}
}

func TestParseListingTimeRecent(t *testing.T) {
	// The no-year shape assumes the current year
	got, err := parseListingTime("Jul", "20", "10:30")
	if err != nil {
		t.Fatalf("parseListingTime error = %v", err)
	}
	if got.Year() != time.Now().Year() {
		t.Errorf("Year = %d, want %d", got.Year(), time.Now().Year())
	}
	if got.Month() != time.July || got.Day() != 20 || got.Hour() != 10 || got.Minute() != 30 {
		t.Errorf("parseListingTime = %v", got)
	}
}

func TestJoinEntry(t *testing.T) {
	dir := "root://foo.bar.gov//store/user/jdoe"
	tests := []struct {
		name string
		want string
	}{
		{"out_1.root", dir + "/out_1.root"},
		{"root://foo.bar.gov//store/user/jdoe/file.root", "root://foo.bar.gov//store/user/jdoe/file.root"},
	}
	for _, tt := range tests {
		if got := joinEntry(dir, tt.name); got != tt.want {
			t.Errorf("joinEntry(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFileURL(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/local.root", "file:///tmp/local.root"},
		{"root://foo.bar.gov//store/x", "root://foo.bar.gov//store/x"},
		{"somehost:/home/user/file", "somehost:/home/user/file"},
		{"relative.root", "relative.root"},
	}
	for _, tt := range tests {
		if got := fileURL(tt.path); got != tt.want {
			t.Errorf("fileURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
