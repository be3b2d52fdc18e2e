package sekit_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gobeaver/sekit"
	"github.com/gobeaver/sekit/driver/memory"
)

func TestSessionFormat(t *testing.T) {
	se, _ := newFakeSession(t, 20)

	got, err := se.Format("/store/user/test")
	if err != nil {
		t.Fatalf("Format error = %v", err)
	}
	if got != fakeServer+"//store/user/test" {
		t.Errorf("Format = %q", got)
	}

	// An embedded server wins over the configured default
	got, err = se.Format("root://other.host.gov//store/x")
	if err != nil {
		t.Fatalf("Format error = %v", err)
	}
	if got != "root://other.host.gov//store/x" {
		t.Errorf("Format = %q", got)
	}
}

func TestStatCaching(t *testing.T) {
	fake := memory.New()
	modTime := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := fake.PutFile(fakeServer+"//store/user/test/file.root", []byte("data"), modTime); err != nil {
		t.Fatalf("PutFile error = %v", err)
	}
	sekit.RegisterBackend(sekit.BackendFake, fake)
	t.Cleanup(func() { sekit.RegisterBackend(sekit.BackendFake, memory.New()) })

	s, err := sekit.NewSession(
		&sekit.Config{DefaultServer: fakeServer},
		sekit.WithCache(sekit.NewMemoryCache()),
	)
	if err != nil {
		t.Fatalf("NewSession error = %v", err)
	}
	se := s.Using(sekit.BackendFake)
	ctx := context.Background()

	inode, err := se.Stat(ctx, "/store/user/test/file.root")
	if err != nil {
		t.Fatalf("Stat error = %v", err)
	}
	if inode.Size != 4 {
		t.Errorf("Stat size = %d, want 4", inode.Size)
	}

	// Remove the file behind the cache's back; the cached inode must
	// still be served.
	if err := fake.Remove(ctx, fakeServer+"//store/user/test/file.root", false); err != nil {
		t.Fatalf("Remove error = %v", err)
	}
	cached, err := se.Stat(ctx, "/store/user/test/file.root")
	if err != nil {
		t.Fatalf("Stat after removal = %v, want cached result", err)
	}
	if !cached.Equal(inode) {
		t.Errorf("cached inode = %v, want %v", cached, inode)
	}

	// An uncached session sees the truth
	fresh, err := sekit.NewSession(&sekit.Config{DefaultServer: fakeServer})
	if err != nil {
		t.Fatalf("NewSession error = %v", err)
	}
	_, err = fresh.Using(sekit.BackendFake).Stat(ctx, "/store/user/test/file.root")
	if !sekit.IsNoSuchPath(err) {
		t.Errorf("uncached Stat = %v, want no-such-path", err)
	}
}

func TestRemoveSafety(t *testing.T) {
	se, _ := newFakeSession(t, 20)
	ctx := context.Background()

	// The gate runs before any backend: blacklisted paths fail even
	// though they exist on the fake element.
	err := se.Remove(ctx, "/store/user/test", true)
	if !sekit.IsRmSafety(err) {
		t.Errorf("Remove(blacklisted) = %v, want rm safety error", err)
	}

	// Directories require the recursive flag
	err = se.Remove(ctx, "/store/user/test/sample", false)
	if !errors.Is(err, sekit.ErrNotRecursive) {
		t.Errorf("Remove(dir, recursive=false) = %v, want ErrNotRecursive", err)
	}

	// A legitimate remove goes through
	if err := se.Remove(ctx, "/store/user/test/sample/log.txt", false); err != nil {
		t.Fatalf("Remove error = %v", err)
	}
	exists, err := se.Exists(ctx, "/store/user/test/sample/log.txt")
	if err != nil || exists {
		t.Errorf("Exists after remove = (%v, %v), want (false, nil)", exists, err)
	}
}

func TestRemoveRecursive(t *testing.T) {
	se, _ := newFakeSession(t, 20)
	ctx := context.Background()

	if err := se.Remove(ctx, "/store/user/test/sample", true); err != nil {
		t.Fatalf("Remove error = %v", err)
	}
	for _, path := range []string{
		"/store/user/test/sample",
		"/store/user/test/sample/out_1.root",
	} {
		exists, err := se.Exists(ctx, path)
		if err != nil || exists {
			t.Errorf("Exists(%s) after recursive remove = (%v, %v)", path, exists, err)
		}
	}
}

func TestPutAndCat(t *testing.T) {
	se, _ := newFakeSession(t, 20)
	ctx := context.Background()

	path := "/store/user/test/notes.txt"
	formatted, err := se.Format(path)
	if err != nil {
		t.Fatalf("Format error = %v", err)
	}
	if err := se.Put(ctx, formatted, "hello world\n"); err != nil {
		t.Fatalf("Put error = %v", err)
	}
	contents, err := se.Cat(ctx, path)
	if err != nil {
		t.Fatalf("Cat error = %v", err)
	}
	if contents != "hello world\n" {
		t.Errorf("Cat = %q", contents)
	}
}

func TestPutRequiresRemote(t *testing.T) {
	se, _ := newFakeSession(t, 20)
	err := se.Put(context.Background(), "/tmp/local-file", "x")
	if !errors.Is(err, sekit.ErrRemoteRequired) {
		t.Errorf("Put(local) = %v, want ErrRemoteRequired", err)
	}
}

func TestCopyToLocal(t *testing.T) {
	se, _ := newFakeSession(t, 20)
	ctx := context.Background()

	dst := filepath.Join(t.TempDir(), "out_1.root")
	err := se.Copy(ctx, fakeServer+"//store/user/test/sample/out_1.root", dst)
	if err != nil {
		t.Fatalf("Copy error = %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile error = %v", err)
	}
	if len(data) != 1024 {
		t.Errorf("copied size = %d, want 1024", len(data))
	}
}

func TestMkdir(t *testing.T) {
	se, _ := newFakeSession(t, 20)
	ctx := context.Background()

	if err := se.Mkdir(ctx, "/store/user/test/new/deep/dir"); err != nil {
		t.Fatalf("Mkdir error = %v", err)
	}
	isdir, err := se.IsDir(ctx, "/store/user/test/new/deep/dir")
	if err != nil || !isdir {
		t.Errorf("IsDir after Mkdir = (%v, %v), want (true, nil)", isdir, err)
	}
	// Parents exist too
	isdir, err = se.IsDir(ctx, "/store/user/test/new")
	if err != nil || !isdir {
		t.Errorf("IsDir(parent) = (%v, %v), want (true, nil)", isdir, err)
	}
	// Creating an existing directory is fine
	if err := se.Mkdir(ctx, "/store/user/test/new"); err != nil {
		t.Errorf("Mkdir(existing) = %v, want nil", err)
	}
}

func TestGuardedBackend(t *testing.T) {
	_, fake := newFakeSession(t, 20)
	guarded := sekit.NewGuardedBackend(fake, nil)
	ctx := context.Background()

	err := guarded.Remove(ctx, fakeServer+"//store/user/test", true)
	if !sekit.IsRmSafety(err) {
		t.Errorf("guarded Remove = %v, want rm safety error", err)
	}
	// Reads pass through untouched
	if _, err := guarded.Stat(ctx, fakeServer+"//store/user/test/README.txt"); err != nil {
		t.Errorf("guarded Stat = %v, want nil", err)
	}
}
