package usecase

import (
	"context"
	"log/slog"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

type FreePort struct {
	reclaimer ports.PortReclaimer
	log       *slog.Logger
}

func NewFreePort(r ports.PortReclaimer, log *slog.Logger) *FreePort {
	return &FreePort{reclaimer: r, log: orDiscard(log)}
}

func (uc *FreePort) Execute(ctx context.Context, port int) (domain.PortReclaim, error) {
	res, err := uc.reclaimer.Reclaim(ctx, port)
	if err != nil {
		return res, err
	}
	if len(res.Killed) == 0 {
		uc.log.Info("port.free", "port", port)
	} else {
		uc.log.Info("port.reclaimed", "port", port, "killed", len(res.Killed))
	}
	return res, nil
}
