package xrd

import (
	"testing"
	"time"

	"github.com/gobeaver/sekit"
)

func TestParseStatLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantPath string
		wantDir  bool
		wantSize int64
		wantTime time.Time
		wantErr  bool
	}{
		{
			name:     "directory",
			line:     "drwxr-xr-x 2023-05-01 12:00:00        4096 /store/user/jdoe",
			wantPath: "root://foo.bar.gov//store/user/jdoe",
			wantDir:  true,
			wantSize: 4096,
			wantTime: time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "file",
			line:     "-rw-r--r-- 2023-07-20 10:30:00     1048576 /store/user/jdoe/out.root",
			wantPath: "root://foo.bar.gov//store/user/jdoe/out.root",
			wantDir:  false,
			wantSize: 1048576,
			wantTime: time.Date(2023, 7, 20, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "wrong field count",
			line:    "drwxr-xr-x 2023-05-01 12:00:00 /store/user/jdoe",
			wantErr: true,
		},
		{
			name:    "garbage size",
			line:    "drwxr-xr-x 2023-05-01 12:00:00 huge /store/user/jdoe",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inode, err := parseStatLine(tt.line, "root://foo.bar.gov")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseStatLine(%q) succeeded, want error", tt.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStatLine(%q) error = %v", tt.line, err)
			}
			if inode.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", inode.Path, tt.wantPath)
			}
			if inode.IsDir != tt.wantDir {
				t.Errorf("IsDir = %v, want %v", inode.IsDir, tt.wantDir)
			}
			if inode.Size != tt.wantSize {
				t.Errorf("Size = %d, want %d", inode.Size, tt.wantSize)
			}
			if !inode.ModTime.Equal(tt.wantTime) {
				t.Errorf("ModTime = %v, want %v", inode.ModTime, tt.wantTime)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	b := New()
	caps := b.Capabilities()
	for _, op := range []sekit.Op{sekit.OpStat, sekit.OpListdir, sekit.OpCopy, sekit.OpRemove, sekit.OpMkdir, sekit.OpCat} {
		if !caps.Has(op) {
			t.Errorf("capability %s missing", op)
		}
	}
}
