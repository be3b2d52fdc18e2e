package sekit

import (
	"errors"
	"testing"
)

func TestHasProtocol(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"root://foo.bar.gov//store/user", true},
		{"gsiftp://foo.bar.edu//store", true},
		{"/store/user/test", false},
		{"somehost:/home/user", false},
		{"relative/path", false},
	}
	for _, tt := range tests {
		if got := HasProtocol(tt.path); got != tt.want {
			t.Errorf("HasProtocol(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsSSH(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"somehost:/home/user", true},
		{"user@host:/home/user", true},
		{"root://foo.bar.gov//store", false},
		{"/store/user/test", false},
	}
	for _, tt := range tests {
		if got := IsSSH(tt.path); got != tt.want {
			t.Errorf("IsSSH(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSplitURI(t *testing.T) {
	tests := []struct {
		name         string
		uri          string
		wantProtocol string
		wantServer   string
		wantLfn      string
		wantErr      error
	}{
		{
			name:         "canonical",
			uri:          "root://foo.bar.gov//store/user/test",
			wantProtocol: "root",
			wantServer:   "foo.bar.gov",
			wantLfn:      "/store/user/test",
		},
		{
			name:    "no protocol",
			uri:     "/store/user/test",
			wantErr: ErrFormat,
		},
		{
			name:    "no double slash after server",
			uri:     "root://foo.bar.gov/store",
			wantErr: ErrFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			protocol, server, lfn, err := SplitURI(tt.uri)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SplitURI(%q) error = %v, want %v", tt.uri, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitURI(%q) error = %v", tt.uri, err)
			}
			if protocol != tt.wantProtocol || server != tt.wantServer || lfn != tt.wantLfn {
				t.Errorf("SplitURI(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.uri, protocol, server, lfn, tt.wantProtocol, tt.wantServer, tt.wantLfn)
			}
		})
	}
}

func TestSplitServer(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		server     string
		wantServer string
		wantLfn    string
		wantErr    error
	}{
		{
			name:       "embedded server",
			path:       "root://foo.bar.gov//store/user",
			wantServer: "root://foo.bar.gov",
			wantLfn:    "/store/user",
		},
		{
			name:       "explicit server",
			path:       "/store/user",
			server:     "root://foo.bar.gov",
			wantServer: "root://foo.bar.gov",
			wantLfn:    "/store/user",
		},
		{
			name:       "agreeing servers",
			path:       "root://foo.bar.gov//store/user",
			server:     "root://foo.bar.gov",
			wantServer: "root://foo.bar.gov",
			wantLfn:    "/store/user",
		},
		{
			name:    "conflicting servers",
			path:    "root://foo.bar.gov//store/user",
			server:  "root://other.host.edu",
			wantErr: ErrConflict,
		},
		{
			name:    "no server at all",
			path:    "/store/user",
			wantErr: ErrNoServer,
		},
		{
			name:    "relative lfn",
			path:    "store/user",
			server:  "root://foo.bar.gov",
			wantErr: ErrFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, lfn, err := SplitServer(tt.path, tt.server)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SplitServer(%q, %q) error = %v, want %v", tt.path, tt.server, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitServer(%q, %q) error = %v", tt.path, tt.server, err)
			}
			if server != tt.wantServer || lfn != tt.wantLfn {
				t.Errorf("SplitServer(%q, %q) = (%q, %q), want (%q, %q)",
					tt.path, tt.server, server, lfn, tt.wantServer, tt.wantLfn)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		server string
		want   string
	}{
		{
			name: "already canonical",
			path: "root://foo.bar.gov//store/user/test",
			want: "root://foo.bar.gov//store/user/test",
		},
		{
			name:   "bare lfn plus server",
			path:   "/store/user/test",
			server: "root://foo.bar.gov",
			want:   "root://foo.bar.gov//store/user/test",
		},
		{
			name: "cleans dots and duplicate slashes",
			path: "root://foo.bar.gov//store//user/./test/../test",
			want: "root://foo.bar.gov//store/user/test",
		},
		{
			name:   "ssh passthrough",
			path:   "somehost:/home/user//messy/./path",
			server: "root://foo.bar.gov",
			want:   "somehost:/home/user//messy/./path",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.path, tt.server)
			if err != nil {
				t.Fatalf("Format(%q, %q) error = %v", tt.path, tt.server, err)
			}
			if got != tt.want {
				t.Errorf("Format(%q, %q) = %q, want %q", tt.path, tt.server, got, tt.want)
			}
			// Formatting is idempotent
			again, err := Format(got, "")
			if err != nil {
				t.Fatalf("Format(%q, \"\") error = %v", got, err)
			}
			if again != got {
				t.Errorf("Format not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestDirname(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"root://foo.bar.gov//store/user/test", "root://foo.bar.gov//store/user"},
		{"root://foo.bar.gov//store", "root://foo.bar.gov//"},
		{"root://foo.bar.gov//", "root://foo.bar.gov//"},
		{"/store/user/test", "/store/user"},
		{"/", "/"},
	}
	for _, tt := range tests {
		got, err := Dirname(tt.path)
		if err != nil {
			t.Fatalf("Dirname(%q) error = %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("Dirname(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParentDirs(t *testing.T) {
	parents, err := ParentDirs("root://foo.bar.gov//store/user/test")
	if err != nil {
		t.Fatalf("ParentDirs error = %v", err)
	}
	want := []string{
		"root://foo.bar.gov//store/user",
		"root://foo.bar.gov//store",
		"root://foo.bar.gov//",
	}
	if len(parents) != len(want) {
		t.Fatalf("ParentDirs = %v, want %v", parents, want)
	}
	for i := range want {
		if parents[i] != want[i] {
			t.Errorf("ParentDirs[%d] = %q, want %q", i, parents[i], want[i])
		}
	}
}

func TestProtocol(t *testing.T) {
	protocol, err := Protocol("root://foo.bar.gov//store/user", "")
	if err != nil {
		t.Fatalf("Protocol error = %v", err)
	}
	if protocol != "root" {
		t.Errorf("Protocol = %q, want %q", protocol, "root")
	}

	protocol, err = Protocol("/store/user", "gsiftp://foo.bar.edu")
	if err != nil {
		t.Fatalf("Protocol error = %v", err)
	}
	if protocol != "gsiftp" {
		t.Errorf("Protocol = %q, want %q", protocol, "gsiftp")
	}
}
