package portreclaim

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aiproductguy/lightpipe/internal/infra/execx"
)

// LsofFinder asks lsof for listening pids. Used where procfs is unavailable.
type LsofFinder struct {
	runner execx.Runner
}

func NewLsofFinder(r execx.Runner) *LsofFinder {
	if r == nil {
		r = execx.NewOSRunner()
	}
	return &LsofFinder{runner: r}
}

var _ Finder = (*LsofFinder)(nil)

func (f *LsofFinder) Listeners(ctx context.Context, port int) ([]int, error) {
	out, err := f.runner.Output(ctx, "lsof", "-t", fmt.Sprintf("-i:%d", port), "-sTCP:LISTEN")
	if err != nil {
		// lsof exits 1 with no output when nothing matches.
		if len(bytes.TrimSpace(out)) == 0 {
			return nil, nil
		}
		return nil, err
	}
	return parsePIDs(out), nil
}

func parsePIDs(out []byte) []int {
	seen := map[int]struct{}{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		pid, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err != nil || pid <= 0 {
			continue
		}
		seen[pid] = struct{}{}
	}

	pids := make([]int, 0, len(seen))
	for pid := range seen {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}
