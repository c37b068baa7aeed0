package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"restodesk/backend/internal/domain"
	"restodesk/backend/internal/store"
	"restodesk/backend/internal/xid"
)

// OpenShift opens the system-wide cash shift. The storage layer enforces
// that only one shift can be open; completed orders left behind by a
// previous shift are attached to the new one.
func (s *Service) OpenShift(ctx context.Context, req domain.OpenShiftRequest) (domain.CashShift, error) {
	if _, err := s.actingEmployee(ctx, req.EmployeeID, domain.CapAcceptCash); err != nil {
		return domain.CashShift{}, err
	}
	if req.StartCashCents < 0 {
		return domain.CashShift{}, fmt.Errorf("%w: start cash must not be negative", store.ErrValidation)
	}

	shift, err := s.repo.OpenShift(ctx, domain.CashShift{
		ID:             xid.New("shf"),
		OpenedBy:       req.EmployeeID,
		Status:         domain.ShiftStatusOpen,
		OpenedAt:       time.Now().UTC(),
		StartCashCents: req.StartCashCents,
	})
	if err != nil {
		return domain.CashShift{}, err
	}

	if attached, err := s.repo.AttachOrphanOrders(ctx, shift.ID); err != nil {
		log.Printf("[shift] WARN: failed to attach orphan orders to %s: %v", shift.ID, err)
	} else if attached > 0 {
		log.Printf("[shift] attached %d orphan orders to %s", attached, shift.ID)
	}

	s.logAudit(ctx, "shift_open", fmt.Sprintf("shift=%s,start_cash=%d", shift.ID, shift.StartCashCents))
	return *shift, nil
}

func (s *Service) ActiveShift(ctx context.Context) (domain.CashShift, error) {
	shift, err := s.repo.GetOpenShift(ctx)
	if err != nil {
		return domain.CashShift{}, err
	}
	return *shift, nil
}

// AddShiftTransaction posts a manual cash adjustment. Corrections are a new
// opposite-direction transaction, never an edit.
func (s *Service) AddShiftTransaction(ctx context.Context, req domain.ShiftTransactionRequest) (domain.CashTransaction, error) {
	if req.Type != domain.CashTxIn && req.Type != domain.CashTxOut {
		return domain.CashTransaction{}, fmt.Errorf("%w: transaction type must be in or out", store.ErrValidation)
	}
	if req.AmountCents <= 0 {
		return domain.CashTransaction{}, fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}

	actor, _ := ActorFromContext(ctx)
	tx, err := s.repo.AddCashTransaction(ctx, domain.CashTransaction{
		ID:          xid.New("txn"),
		ShiftID:     req.ShiftID,
		Type:        req.Type,
		AmountCents: req.AmountCents,
		Comment:     strings.TrimSpace(req.Comment),
		CreatedBy:   actor.Username,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return domain.CashTransaction{}, err
	}

	s.invalidateShiftStats(ctx, req.ShiftID)
	s.logAudit(ctx, "shift_transaction", fmt.Sprintf("shift=%s,type=%s,amount=%d", req.ShiftID, req.Type, req.AmountCents))
	return *tx, nil
}

// ShiftStatistics aggregates the Z-report figures for a shift. Theoretical
// cash is start cash plus all linked cash sales plus manual service
// movements; OutstandingCents shows how much of it employees still hold.
func (s *Service) ShiftStatistics(ctx context.Context, shiftID string) (domain.ShiftStatistics, error) {
	var cached domain.ShiftStatistics
	if ok, err := s.cache.Get(ctx, shiftStatsCacheKey(shiftID), &cached); err == nil && ok {
		return cached, nil
	}

	stats, err := s.computeShiftStatistics(ctx, shiftID)
	if err != nil {
		return domain.ShiftStatistics{}, err
	}

	if err := s.cache.Set(ctx, shiftStatsCacheKey(shiftID), &stats, s.statsTTL); err != nil {
		log.Printf("[cache] WARN: failed to cache shift stats %s: %v", shiftID, err)
	}
	return stats, nil
}

func (s *Service) computeShiftStatistics(ctx context.Context, shiftID string) (domain.ShiftStatistics, error) {
	shift, err := s.repo.GetShift(ctx, shiftID)
	if err != nil {
		return domain.ShiftStatistics{}, err
	}

	cashCents, cardCents, turnedInCents, err := s.repo.GetShiftSales(ctx, shiftID)
	if err != nil {
		return domain.ShiftStatistics{}, err
	}

	txs, err := s.repo.ListCashTransactions(ctx, shiftID)
	if err != nil {
		return domain.ShiftStatistics{}, err
	}
	var serviceIn, serviceOut int64
	for _, tx := range txs {
		switch tx.Type {
		case domain.CashTxIn:
			serviceIn += tx.AmountCents
		case domain.CashTxOut:
			serviceOut += tx.AmountCents
		}
	}

	return domain.ShiftStatistics{
		ShiftID:              shiftID,
		StartCashCents:       shift.StartCashCents,
		CashSalesCents:       cashCents,
		CardSalesCents:       cardCents,
		TurnedInCashCents:    turnedInCents,
		ServiceInCents:       serviceIn,
		ServiceOutCents:      serviceOut,
		TheoreticalCashCents: shift.StartCashCents + cashCents + serviceIn - serviceOut,
		TotalSalesCents:      cashCents + cardCents,
		OutstandingCents:     cashCents - turnedInCents,
	}, nil
}

// CloseShift archives the open shift. It refuses while any employee still
// holds cash; the final statistics are snapshotted onto the shift row.
func (s *Service) CloseShift(ctx context.Context, req domain.CloseShiftRequest) (domain.CashShift, error) {
	stats, err := s.computeShiftStatistics(ctx, req.ShiftID)
	if err != nil {
		return domain.CashShift{}, err
	}

	closed, err := s.repo.CloseOpenShift(ctx, req.ShiftID, stats, req.EndCashActualCents, time.Now().UTC())
	if err != nil {
		return domain.CashShift{}, err
	}

	s.invalidateShiftStats(ctx, req.ShiftID)
	variance := req.EndCashActualCents - stats.TheoreticalCashCents
	s.logAudit(ctx, "shift_close", fmt.Sprintf("shift=%s,end_cash=%d,variance=%d", req.ShiftID, req.EndCashActualCents, variance))
	return *closed, nil
}

// LinkOrderToShift associates an order's revenue with the currently open
// shift. Already-linked orders are left alone.
func (s *Service) LinkOrderToShift(ctx context.Context, orderID string) error {
	shift, err := s.repo.GetOpenShift(ctx)
	if err != nil {
		return err
	}
	return s.repo.LinkOrderToShift(ctx, orderID, shift.ID)
}

func (s *Service) ListShiftTransactions(ctx context.Context, shiftID string) ([]domain.CashTransaction, error) {
	return s.repo.ListCashTransactions(ctx, shiftID)
}
