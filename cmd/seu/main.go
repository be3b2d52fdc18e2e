// Command seu is the command line front end for storage-element
// operations: ls, du, rm, mkdir, cat.
//
// Common flags, accepted by every subcommand:
//
//	-v       verbose (debug) logging
//	-d       dry mode; commands are logged but not executed
//	-i name  pin one backend instead of the selection heuristic
//	-fake    run against a seeded in-memory storage element
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gobeaver/sekit"
	"github.com/gobeaver/sekit/driver/eos"
	"github.com/gobeaver/sekit/driver/gfal"
	"github.com/gobeaver/sekit/driver/memory"
	_ "github.com/gobeaver/sekit/driver/ssh"
	"github.com/gobeaver/sekit/driver/xrd"
	"github.com/gobeaver/sekit/run"
)

const usage = `usage: seu <command> [options] [paths...]

commands:
  ls       list paths (-l long output, -sort name|date|size)
  du       disk usage of matching paths (-s sort by size)
  rm       remove paths (-r recursive, -y skip confirmation)
  mkdir    create directories
  cat      print file contents
  version  print the version
`

func main() {
	os.Exit(mainE())
}

func mainE() int {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "ls":
		err = cmdLs(args)
	case "du":
		err = cmdDu(args)
	case "rm":
		err = cmdRm(args)
	case "mkdir":
		err = cmdMkdir(args)
	case "cat":
		err = cmdCat(args)
	case "version":
		fmt.Println(sekit.Version)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "seu: unknown command %q\n%s", cmd, usage)
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "seu %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

// commonFlags are the options every subcommand accepts.
type commonFlags struct {
	verbose bool
	dry     bool
	impl    string
	fake    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "verbose (debug) logging")
	fs.BoolVar(&c.dry, "d", false, "log commands instead of running them")
	fs.StringVar(&c.impl, "i", "", "backend to use (xrd, gfal, eos, ssh, fake)")
	fs.BoolVar(&c.fake, "fake", false, "run against a seeded in-memory storage element")
}

// setup builds the session the subcommand operates on.
func (c *commonFlags) setup() (*sekit.Session, error) {
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	logger, err := sekit.NewLogger(level)
	if err != nil {
		return nil, err
	}

	cfg, err := sekit.GetConfig()
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if c.dry {
		dryRunner := run.New(run.WithDry(), run.WithLogger(logger))
		sekit.RegisterBackend(sekit.BackendXrd, xrd.New(xrd.WithRunner(dryRunner)))
		sekit.RegisterBackend(sekit.BackendGfal, gfal.New(gfal.WithRunner(dryRunner)))
		sekit.RegisterBackend(sekit.BackendEos, eos.New(eos.WithRunner(dryRunner)))
	}

	se, err := sekit.NewSession(cfg, sekit.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	if c.fake {
		if cfg.DefaultServer == "" {
			cfg.DefaultServer = "root://fake.se"
		}
		seedFake(logger)
		return se.Using(sekit.BackendFake), nil
	}
	if c.impl != "" {
		se = se.Using(c.impl)
	}
	return se, nil
}

// seedFake registers a fake storage element holding a small toy tree, so
// every command has something to chew on.
func seedFake(logger *zap.Logger) {
	fake := memory.New()
	now := time.Now()
	for i := 1; i <= 3; i++ {
		path := fmt.Sprintf("root://fake.se//store/user/test/sample/out_%d.root", i)
		_ = fake.PutFile(path, []byte(strings.Repeat("x", 1024*i)), now.Add(-time.Duration(i)*time.Hour))
	}
	_ = fake.PutFile("root://fake.se//store/user/test/README.txt", []byte("fake storage element\n"), now)
	sekit.RegisterBackend(sekit.BackendFake, fake)
	logger.Debug("seeded fake storage element")
}

// expand resolves wildcards in paths and checks that everything is
// remote.
func expand(ctx context.Context, se *sekit.Session, paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		if !sekit.HasProtocol(path) && !sekit.IsSSH(path) {
			p, err := se.Format(path)
			if err != nil {
				return nil, err
			}
			path = p
		}
		if strings.Contains(path, "*") {
			matches, err := se.LsWildcard(ctx, path, false)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				out = append(out, m.Path)
			}
		} else {
			out = append(out, path)
		}
	}
	return out, nil
}

func cmdLs(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	common.register(fs)
	long := fs.Bool("l", false, "include mtime and size in the output")
	sortBy := fs.String("sort", "name", "sort long output by name, date or size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	se, err := common.setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"/"}
	}
	for _, path := range paths {
		var contents []sekit.Inode
		if strings.Contains(path, "*") {
			contents, err = se.LsWildcard(ctx, path, *long)
		} else {
			var opts []sekit.LsOption
			if *long {
				opts = append(opts, sekit.WithStat())
			}
			contents, err = se.Ls(ctx, path, opts...)
		}
		if err != nil {
			return err
		}
		if !*long {
			for _, inode := range contents {
				fmt.Println(inode.Path)
			}
			continue
		}
		switch *sortBy {
		case "date":
			sort.Slice(contents, func(i, j int) bool {
				return contents[i].ModTime.After(contents[j].ModTime)
			})
		case "size":
			sort.Slice(contents, func(i, j int) bool {
				return contents[i].Size > contents[j].Size
			})
		}
		for _, inode := range contents {
			fmt.Printf("%s  %-8s  %s\n",
				inode.ModTime.Format("2006-01-02 15:04"),
				inode.SizeHuman(),
				inode.Path)
		}
	}
	return nil
}

func cmdDu(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("du", flag.ExitOnError)
	common.register(fs)
	bySize := fs.Bool("s", false, "sort by size instead of name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	se, err := common.setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	for _, path := range fs.Args() {
		inodes, err := se.LsWildcard(ctx, path, true)
		if err != nil {
			return err
		}
		if *bySize {
			sort.Slice(inodes, func(i, j int) bool { return inodes[i].Size > inodes[j].Size })
		}
		for _, inode := range inodes {
			fmt.Printf("%-8s %s\n", inode.SizeHuman(), inode.Path)
		}
	}
	return nil
}

func cmdRm(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	common.register(fs)
	recursive := fs.Bool("r", false, "recursive remove (required for directories)")
	yes := fs.Bool("y", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	se, err := common.setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if fs.NArg() == 0 {
		return fmt.Errorf("pass at least one path")
	}
	paths, err := expand(ctx, se, fs.Args())
	if err != nil {
		return err
	}
	stdin := bufio.NewReader(os.Stdin)
	for _, path := range paths {
		if !*yes && !confirmRm(stdin, path, *recursive) {
			continue
		}
		if err := se.Remove(ctx, path, *recursive); err != nil {
			return err
		}
	}
	return nil
}

func confirmRm(stdin *bufio.Reader, path string, recursive bool) bool {
	rFlag := ""
	if recursive {
		rFlag = "-r "
	}
	for {
		fmt.Printf("rm %s%s [y/n]? ", rFlag, path)
		answer, err := stdin.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y":
			return true
		case "n":
			return false
		}
	}
}

func cmdMkdir(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("mkdir", flag.ExitOnError)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	se, err := common.setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if fs.NArg() == 0 {
		return fmt.Errorf("pass at least one path")
	}
	for _, path := range fs.Args() {
		if strings.Contains(path, "*") {
			return fmt.Errorf("wildcards not allowed: %s", path)
		}
		if err := se.Mkdir(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func cmdCat(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("cat", flag.ExitOnError)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	se, err := common.setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if fs.NArg() == 0 {
		return fmt.Errorf("pass at least one path")
	}
	paths, err := expand(ctx, se, fs.Args())
	if err != nil {
		return err
	}
	for _, path := range paths {
		contents, err := se.Cat(ctx, path)
		if err != nil {
			return err
		}
		fmt.Print(contents)
	}
	return nil
}
