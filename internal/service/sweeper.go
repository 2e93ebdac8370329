package service

import (
	"context"
	"log"
	"time"

	"github.com/quivio/quivio/internal/repository"
)

// Sweeper periodically opens capsules whose open date has passed without a
// user-initiated open. It drives the exact same transition and dispatch
// path as the user path, so the resulting recipient states are identical.
type Sweeper struct {
	capsuleRepo repository.CapsuleRepository
	capsules    *CapsuleService
	interval    time.Duration
}

func NewSweeper(capsuleRepo repository.CapsuleRepository, capsules *CapsuleService, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Sweeper{
		capsuleRepo: capsuleRepo,
		capsules:    capsules,
		interval:    interval,
	}
}

// Run sweeps once immediately and then on every tick until ctx is
// cancelled. Errors in one iteration are logged and never stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("capsule sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep opens every due capsule and schedules its dispatch. Returns the
// number of capsules opened by this pass.
func (s *Sweeper) Sweep(ctx context.Context) int {
	now := time.Now().UTC()

	due, err := s.capsuleRepo.FindDue(ctx, now)
	if err != nil {
		log.Printf("ERROR capsule sweep: %v", err)
		return 0
	}

	opened := 0
	for i := range due {
		won, err := s.capsules.openAndDispatch(ctx, &due[i], now)
		if err != nil {
			log.Printf("ERROR sweep opening capsule %s: %v", due[i].ID, err)
			continue
		}
		if won {
			opened++
		}
	}

	if len(due) > 0 {
		log.Printf("capsule sweep: %d due, %d opened", len(due), opened)
	}
	return opened
}
