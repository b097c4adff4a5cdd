package portreclaim

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/c9s/goprocinfo/linux"
)

// tcpListen is the kernel's TCP_LISTEN state in /proc/net/tcp.
const tcpListen = 0x0A

// ProcFinder finds listening sockets through procfs.
type ProcFinder struct {
	Root string
}

func NewProcFinder() *ProcFinder {
	return &ProcFinder{Root: "/proc"}
}

var _ Finder = (*ProcFinder)(nil)

func (f *ProcFinder) Listeners(ctx context.Context, port int) ([]int, error) {
	inodes := map[string]struct{}{}
	tables := []struct {
		name   string
		decode linux.NetIPDecoder
	}{
		{"net/tcp", linux.NetIPv4Decoder},
		{"net/tcp6", linux.NetIPv6Decoder},
	}
	for _, table := range tables {
		path := filepath.Join(f.Root, table.name)
		found, err := listenInodes(path, table.decode, port)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for _, ino := range found {
			inodes[ino] = struct{}{}
		}
	}
	if len(inodes) == 0 {
		return nil, nil
	}
	return f.owners(ctx, inodes)
}

// listenInodes returns the inodes of sockets in the LISTEN state on port,
// read from a /proc/net/tcp formatted table.
func listenInodes(path string, decode linux.NetIPDecoder, port int) ([]string, error) {
	table, err := linux.ReadNetTCPSockets(path, decode)
	if err != nil {
		return nil, err
	}
	suffix := ":" + strconv.Itoa(port)
	var out []string
	for _, s := range table.Sockets {
		if s.Status != tcpListen || s.Inode == 0 {
			continue
		}
		if !strings.HasSuffix(s.LocalAddress, suffix) {
			continue
		}
		out = append(out, strconv.FormatUint(s.Inode, 10))
	}
	return out, nil
}

// owners maps socket inodes to the pids holding them open. Processes we
// cannot inspect are ignored.
func (f *ProcFinder) owners(ctx context.Context, inodes map[string]struct{}) ([]int, error) {
	entries, err := os.ReadDir(f.Root)
	if err != nil {
		return nil, err
	}

	seen := map[int]struct{}{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() {
			continue
		}
		fdDir := filepath.Join(f.Root, e.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			continue
		}
		for _, fd := range fds {
			link, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil || !strings.HasPrefix(link, "socket:[") {
				continue
			}
			ino := strings.TrimSuffix(strings.TrimPrefix(link, "socket:["), "]")
			if _, ok := inodes[ino]; ok {
				seen[pid] = struct{}{}
				break
			}
		}
	}

	pids := make([]int, 0, len(seen))
	for pid := range seen {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids, nil
}
