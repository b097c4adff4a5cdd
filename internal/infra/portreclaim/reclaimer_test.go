package portreclaim

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

type fakeFinder struct {
	pids []int
	err  error
}

func (f fakeFinder) Listeners(context.Context, int) ([]int, error) {
	return f.pids, f.err
}

func newTestReclaimer(finder Finder, killed *[]int, slept *time.Duration) *Reclaimer {
	return New(time.Second,
		WithFinder(finder),
		WithSelf(1),
		WithProcessName(func(pid int) string { return "proc" }),
		WithKill(func(pid int) error {
			*killed = append(*killed, pid)
			return nil
		}),
		WithSleep(func(_ context.Context, d time.Duration) error {
			*slept += d
			return nil
		}),
	)
}

func TestReclaim_KillsListenersAndWaits(t *testing.T) {
	var killed []int
	var slept time.Duration
	r := newTestReclaimer(fakeFinder{pids: []int{10, 20}}, &killed, &slept)

	res, err := r.Reclaim(context.Background(), 9099)
	if err != nil {
		t.Fatalf("Reclaim error: %v", err)
	}
	if !reflect.DeepEqual(killed, []int{10, 20}) {
		t.Fatalf("killed = %v", killed)
	}
	if slept != time.Second {
		t.Fatalf("expected one grace wait, slept %v", slept)
	}
	if res.Port != 9099 || len(res.Killed) != 2 || res.Killed[0].Name != "proc" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestReclaim_SkipsSelf(t *testing.T) {
	var killed []int
	var slept time.Duration
	r := newTestReclaimer(fakeFinder{pids: []int{1}}, &killed, &slept)

	res, err := r.Reclaim(context.Background(), 9099)
	if err != nil {
		t.Fatalf("Reclaim error: %v", err)
	}
	if len(killed) != 0 || slept != 0 {
		t.Fatalf("expected no kill and no wait, killed=%v slept=%v", killed, slept)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].PID != 1 {
		t.Fatalf("expected self to be skipped: %+v", res)
	}
}

func TestReclaim_FreePortDoesNotWait(t *testing.T) {
	var killed []int
	var slept time.Duration
	r := newTestReclaimer(fakeFinder{}, &killed, &slept)

	if _, err := r.Reclaim(context.Background(), 9099); err != nil {
		t.Fatalf("Reclaim error: %v", err)
	}
	if slept != 0 {
		t.Fatalf("expected no wait, slept %v", slept)
	}
}

func TestReclaim_Errors(t *testing.T) {
	var killed []int
	var slept time.Duration

	r := newTestReclaimer(fakeFinder{}, &killed, &slept)
	if _, err := r.Reclaim(context.Background(), 70000); !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected KindInvalidConfig, got %v", err)
	}

	r = newTestReclaimer(fakeFinder{err: errors.New("boom")}, &killed, &slept)
	if _, err := r.Reclaim(context.Background(), 9099); !domain.IsKind(err, domain.KindExecution) {
		t.Fatalf("expected KindExecution, got %v", err)
	}

	r = New(0, WithFinder(fakeFinder{pids: []int{5}}), WithSelf(1),
		WithProcessName(func(int) string { return "" }),
		WithKill(func(int) error { return errors.New("permission denied") }))
	if _, err := r.Reclaim(context.Background(), 9099); !domain.IsKind(err, domain.KindExecution) {
		t.Fatalf("expected KindExecution on kill failure, got %v", err)
	}
}
