package chatroom

import (
	"context"
	"log/slog"
	"time"

	"kinship/internal/models"
	"kinship/internal/observability"
)

// MutualPairSource pages through mutual-follow pairs in (A, B) order.
type MutualPairSource interface {
	MutualPairs(ctx context.Context, after models.UserPair, limit int) ([]models.UserPair, error)
}

// UserSource loads a user with its profile.
type UserSource interface {
	GetByIDWithProfile(ctx context.Context, id string) (*models.User, error)
}

// ReconcileResult summarises one pass.
type ReconcileResult struct {
	Pairs       int
	Provisioned int
	Failed      int
}

// Reconciler repairs rooms that async provisioning lost: every mutual pair without a room
// gets one. Existing rooms are not rewritten.
type Reconciler struct {
	pairs    MutualPairSource
	users    UserSource
	store    RoomStore
	writer   Provisioner
	pageSize int
	log      *observability.ServiceLogger
}

// NewReconciler builds a reconciler that writes through writer.
func NewReconciler(pairs MutualPairSource, users UserSource, store RoomStore, writer Provisioner) *Reconciler {
	return &Reconciler{
		pairs:    pairs,
		users:    users,
		store:    store,
		writer:   writer,
		pageSize: 200,
		log:      observability.NewServiceLogger("room-reconciler"),
	}
}

// Run makes one full pass. Per-pair failures are counted and logged; only failures to read
// the follow graph abort the pass.
func (r *Reconciler) Run(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	after := models.UserPair{}
	for {
		page, err := r.pairs.MutualPairs(ctx, after, r.pageSize)
		if err != nil {
			return res, err
		}
		for _, pair := range page {
			res.Pairs++
			written, err := r.ensure(ctx, pair)
			switch {
			case err != nil:
				res.Failed++
				r.log.Warn(ctx, "room reconcile failed",
					slog.String("room_id", RoomID(pair.A, pair.B)), slog.String("error", err.Error()))
			case written:
				res.Provisioned++
				observability.RoomProvisioning.WithLabelValues("reconciled").Inc()
			}
		}
		if len(page) < r.pageSize {
			break
		}
		after = page[len(page)-1]
	}
	r.log.Info(ctx, "room reconcile pass finished",
		slog.Int("pairs", res.Pairs), slog.Int("provisioned", res.Provisioned), slog.Int("failed", res.Failed))
	return res, nil
}

func (r *Reconciler) ensure(ctx context.Context, pair models.UserPair) (bool, error) {
	exists, err := r.store.Exists(ctx, RoomKey(pair.A, pair.B))
	if err != nil || exists {
		return false, err
	}
	a, err := r.users.GetByIDWithProfile(ctx, pair.A)
	if err != nil {
		return false, err
	}
	b, err := r.users.GetByIDWithProfile(ctx, pair.B)
	if err != nil {
		return false, err
	}
	if err := r.writer.Provision(ctx, ParticipantFromUser(a), ParticipantFromUser(b)); err != nil {
		return false, err
	}
	return true, nil
}

// RunEvery runs a pass immediately and then on every tick until ctx is cancelled.
func (r *Reconciler) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
			r.log.Error(ctx, "room reconcile pass aborted", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
