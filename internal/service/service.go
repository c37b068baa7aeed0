package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"restodesk/backend/internal/cache"
	"restodesk/backend/internal/domain"
	"restodesk/backend/internal/reorder"
	"restodesk/backend/internal/store"
	"restodesk/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo     store.Repository
	cache    cache.Cache
	reorder  *reorder.Engine
	statsTTL time.Duration
}

func New(repo store.Repository, cacheStore cache.Cache, reorderEngine *reorder.Engine) *Service {
	if cacheStore == nil {
		cacheStore = cache.Noop{}
	}
	if reorderEngine == nil {
		reorderEngine = reorder.NewEngine(cacheStore, 0)
	}

	return &Service{
		repo:     repo,
		cache:    cacheStore,
		reorder:  reorderEngine,
		statsTTL: 15 * time.Second,
	}
}

func (s *Service) requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	return nil
}

// actingEmployee loads the employee an operation is performed by and checks
// the capability it needs. An empty capability only checks existence.
func (s *Service) actingEmployee(ctx context.Context, employeeID string, need domain.Capability) (*domain.Employee, error) {
	emp, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: employee %s not found", store.ErrValidation, employeeID)
		}
		return nil, err
	}
	if !emp.Active {
		return nil, fmt.Errorf("%w: employee %s is inactive", store.ErrValidation, employeeID)
	}
	if need != "" && !emp.Can(need) {
		return nil, fmt.Errorf("%w: employee %s lacks capability %s", store.ErrValidation, employeeID, need)
	}
	return emp, nil
}

func (s *Service) logAudit(ctx context.Context, action string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:        xid.New("audit"),
		Actor:     actor.Username,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s: %v", action, err)
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func shiftStatsCacheKey(shiftID string) string {
	return "resto:shift-stats:" + shiftID
}

func (s *Service) invalidateShiftStats(ctx context.Context, shiftID string) {
	if shiftID == "" {
		return
	}
	if err := s.cache.Delete(ctx, shiftStatsCacheKey(shiftID)); err != nil {
		log.Printf("[cache] WARN: failed to invalidate shift stats %s: %v", shiftID, err)
	}
}
