package kitchen

import (
	"context"
	"log"
	"time"
)

// Poller refreshes the board from the Order Store at a fixed interval.
type Poller struct {
	svc      *Service
	interval time.Duration
}

func NewPoller(svc *Service, interval time.Duration) *Poller {
	return &Poller{svc: svc, interval: interval}
}

// Run polls until ctx is done. It refreshes once immediately.
// This should be called as a goroutine: go poller.Run(ctx)
func (p *Poller) Run(ctx context.Context) {
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if err := p.svc.Refresh(ctx); err != nil {
		log.Printf("WARN: kitchen refresh: %v", err)
	}
}
