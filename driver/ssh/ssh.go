// Package ssh serves "host:/path" style paths over SFTP. Unlike the
// other drivers it needs no external tool; connections are made with the
// Go ssh and sftp libraries and reused per host.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	cryptossh "golang.org/x/crypto/ssh"

	"github.com/gobeaver/sekit"
)

// Config holds the SSH connection settings shared by all hosts.
type Config struct {
	// User is the login name. Empty means the current user.
	User string

	// KeyFile is the path to a PEM encoded private key. Empty tries the
	// usual ~/.ssh candidates.
	KeyFile string

	// Password enables password authentication when set.
	Password string

	// Port is the SSH port. Zero means 22.
	Port int
}

// Backend serves ssh-style paths over SFTP, one cached connection per
// host.
type Backend struct {
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	clients map[string]*sftp.Client
}

// Option configures the backend.
type Option func(*Backend)

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) {
		b.log = log
	}
}

// New creates an ssh backend.
func New(cfg Config, opts ...Option) *Backend {
	b := &Backend{
		cfg:     cfg,
		log:     zap.NewNop(),
		clients: make(map[string]*sftp.Client),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return sekit.BackendSSH }

// CheckInstalled always reports true; the driver is library-based and
// needs no external tool. Whether a host is actually reachable only
// shows at connection time.
func (b *Backend) CheckInstalled() bool { return true }

func (b *Backend) Capabilities() sekit.OpSet {
	return sekit.AllOps()
}

// Close closes all cached connections.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	for host, client := range b.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
		}
		delete(b.clients, host)
	}
	return errors.Join(errs...)
}

// splitPath splits "host:/some/path" into host and path.
func splitPath(path string) (host, lfn string, err error) {
	if !sekit.IsSSH(path) {
		return "", "", &sekit.PathError{Op: "split", Path: path, Err: sekit.ErrFormat}
	}
	host, lfn, _ = strings.Cut(path, ":")
	return host, lfn, nil
}

func (b *Backend) client(host string) (*sftp.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if client, ok := b.clients[host]; ok {
		return client, nil
	}

	sshCfg, err := b.sshConfig()
	if err != nil {
		return nil, err
	}
	port := b.cfg.Port
	if port == 0 {
		port = 22
	}
	b.log.Debug("dialing", zap.String("host", host), zap.Int("port", port))
	conn, err := cryptossh.Dial("tcp", fmt.Sprintf("%s:%d", host, port), sshCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", sekit.ErrHostUnreachable, host, err)
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create sftp client for %s: %w", host, err)
	}
	b.clients[host] = client
	return client, nil
}

func (b *Backend) sshConfig() (*cryptossh.ClientConfig, error) {
	username := b.cfg.User
	if username == "" {
		u, err := user.Current()
		if err != nil {
			return nil, err
		}
		username = u.Username
	}

	cfg := &cryptossh.ClientConfig{
		User: username,
		// Grid worker nodes have no curated known_hosts
		HostKeyCallback: cryptossh.InsecureIgnoreHostKey(),
	}

	for _, keyFile := range b.keyCandidates() {
		pem, err := os.ReadFile(keyFile)
		if err != nil {
			continue
		}
		signer, err := cryptossh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key %s: %w", keyFile, err)
		}
		cfg.Auth = append(cfg.Auth, cryptossh.PublicKeys(signer))
		break
	}
	if b.cfg.Password != "" {
		cfg.Auth = append(cfg.Auth, cryptossh.Password(b.cfg.Password))
	}
	if len(cfg.Auth) == 0 {
		return nil, errors.New("no ssh authentication method available")
	}
	return cfg, nil
}

func (b *Backend) keyCandidates() []string {
	if b.cfg.KeyFile != "" {
		return []string{b.cfg.KeyFile}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}
}

// wrapError maps sftp errors onto package sentinels.
func wrapError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, os.ErrNotExist):
		err = sekit.ErrNoSuchPath
	case errors.Is(err, os.ErrPermission):
		err = sekit.ErrPermission
	}
	return &sekit.PathError{Op: op, Path: path, Err: err}
}

func (b *Backend) Stat(ctx context.Context, path string) (*sekit.Inode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	host, lfn, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	client, err := b.client(host)
	if err != nil {
		return nil, err
	}
	info, err := client.Stat(lfn)
	if err != nil {
		return nil, wrapError("stat", path, err)
	}
	return &sekit.Inode{
		Path:    path,
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
	}, nil
}

func (b *Backend) Listdir(ctx context.Context, dir string, withStat bool) ([]sekit.Inode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	host, lfn, err := splitPath(dir)
	if err != nil {
		return nil, err
	}
	client, err := b.client(host)
	if err != nil {
		return nil, err
	}
	infos, err := client.ReadDir(lfn)
	if err != nil {
		return nil, wrapError("listdir", dir, err)
	}

	contents := make([]sekit.Inode, 0, len(infos))
	for _, info := range infos {
		path := host + ":" + strings.TrimRight(lfn, "/") + "/" + info.Name()
		if withStat {
			contents = append(contents, sekit.Inode{
				Path:    path,
				ModTime: info.ModTime(),
				IsDir:   info.IsDir(),
				Size:    info.Size(),
			})
		} else {
			contents = append(contents, sekit.Inode{Path: path})
		}
	}
	return contents, nil
}

// Copy transfers between the local filesystem and a remote host. Exactly
// one side must be ssh-style; remote-to-remote transfers are not
// supported.
func (b *Backend) Copy(ctx context.Context, src, dst string, opts *sekit.CopyOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opts == nil {
		opts = sekit.DefaultCopyOptions()
	}
	switch {
	case sekit.IsSSH(src) && sekit.IsSSH(dst):
		return &sekit.PathError{Op: "cp", Path: src + " -> " + dst, Err: sekit.ErrNotSupported}
	case sekit.IsSSH(dst):
		return b.upload(src, dst, opts)
	case sekit.IsSSH(src):
		return b.download(src, dst, opts)
	default:
		return &sekit.PathError{Op: "cp", Path: src + " -> " + dst, Err: sekit.ErrRemoteRequired}
	}
}

func (b *Backend) upload(src, dst string, opts *sekit.CopyOptions) error {
	host, lfn, err := splitPath(dst)
	if err != nil {
		return err
	}
	client, err := b.client(host)
	if err != nil {
		return err
	}
	if !opts.Force {
		if _, err := client.Stat(lfn); err == nil {
			return wrapError("cp", dst, os.ErrExist)
		}
	}
	if opts.CreateParentDirectory {
		if err := client.MkdirAll(filepath.Dir(lfn)); err != nil {
			return wrapError("cp", dst, err)
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return wrapError("cp", src, err)
	}
	defer in.Close()
	out, err := client.Create(lfn)
	if err != nil {
		return wrapError("cp", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return wrapError("cp", dst, err)
	}
	return out.Close()
}

func (b *Backend) download(src, dst string, opts *sekit.CopyOptions) error {
	host, lfn, err := splitPath(src)
	if err != nil {
		return err
	}
	client, err := b.client(host)
	if err != nil {
		return err
	}
	if !opts.Force {
		if _, err := os.Stat(dst); err == nil {
			return wrapError("cp", dst, os.ErrExist)
		}
	}
	if opts.CreateParentDirectory {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return wrapError("cp", dst, err)
		}
	}

	in, err := client.Open(lfn)
	if err != nil {
		return wrapError("cp", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return wrapError("cp", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return wrapError("cp", dst, err)
	}
	return out.Close()
}

func (b *Backend) Remove(ctx context.Context, path string, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	host, lfn, err := splitPath(path)
	if err != nil {
		return err
	}
	client, err := b.client(host)
	if err != nil {
		return err
	}
	info, err := client.Stat(lfn)
	if err != nil {
		return wrapError("rm", path, err)
	}
	if info.IsDir() {
		if !recursive {
			return &sekit.PathError{Op: "rm", Path: path, Err: sekit.ErrNotRecursive}
		}
		return wrapError("rm", path, client.RemoveAll(lfn))
	}
	return wrapError("rm", path, client.Remove(lfn))
}

func (b *Backend) Mkdir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	host, lfn, err := splitPath(path)
	if err != nil {
		return err
	}
	client, err := b.client(host)
	if err != nil {
		return err
	}
	return wrapError("mkdir", path, client.MkdirAll(lfn))
}

func (b *Backend) Cat(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	host, lfn, err := splitPath(path)
	if err != nil {
		return "", err
	}
	client, err := b.client(host)
	if err != nil {
		return "", err
	}
	f, err := client.Open(lfn)
	if err != nil {
		return "", wrapError("cat", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", wrapError("cat", path, err)
	}
	return string(data), nil
}

var _ sekit.Backend = (*Backend)(nil)
