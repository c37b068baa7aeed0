package service

import (
	"context"
	"fmt"
	"time"

	"restodesk/backend/internal/domain"
	"restodesk/backend/internal/store"
)

// debtorFor picks which employee holds the cash for an order: the courier
// who delivered it, otherwise the waiter who served it, otherwise whoever
// completed it.
func debtorFor(order *domain.Order) string {
	if order.CourierID != "" {
		return order.CourierID
	}
	if order.WaiterID != "" {
		return order.WaiterID
	}
	return order.CompletedBy
}

// RegisterEmployeeDebt puts a cash order's total into an employee's custody
// balance. Completion normally does this atomically with the status change;
// this operation exists for corrections.
func (s *Service) RegisterEmployeeDebt(ctx context.Context, orderID string, employeeID string) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.PaymentMethod != domain.PaymentCash {
		return fmt.Errorf("%w: order %s is not paid in cash", store.ErrValidation, orderID)
	}
	if _, err := s.actingEmployee(ctx, employeeID, ""); err != nil {
		return err
	}

	reason := fmt.Sprintf("cash custody for order %s", orderID)
	if _, err := s.repo.AdjustEmployeeBalance(ctx, employeeID, order.TotalCents, reason, false, time.Now().UTC()); err != nil {
		return err
	}
	s.logAudit(ctx, "debt_register", fmt.Sprintf("order=%s,employee=%s,amount=%d", orderID, employeeID, order.TotalCents))
	return nil
}

// UnregisterEmployeeDebt takes a previously registered cash order back out
// of its debtor's balance. The balance is clamped at zero: an employee who
// already handed cash over cannot go negative over a late cancellation, the
// mismatch is only logged.
func (s *Service) UnregisterEmployeeDebt(ctx context.Context, orderID string) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.PaymentMethod != domain.PaymentCash || order.CashTurnedIn {
		return nil
	}
	debtorID := debtorFor(order)
	if debtorID == "" {
		return nil
	}

	reason := fmt.Sprintf("cancelled order %s", orderID)
	if _, err := s.repo.AdjustEmployeeBalance(ctx, debtorID, -order.TotalCents, reason, true, time.Now().UTC()); err != nil {
		return err
	}
	s.logAudit(ctx, "debt_unregister", fmt.Sprintf("order=%s,employee=%s,amount=%d", orderID, debtorID, order.TotalCents))
	return nil
}

// ProcessHandover transfers an employee's held cash for the given orders to
// the shift: the orders are marked turned in, the balance drops by their
// total and a handover transaction is posted, all atomically.
func (s *Service) ProcessHandover(ctx context.Context, req domain.HandoverRequest) (domain.HandoverResult, error) {
	if len(req.OrderIDs) == 0 {
		return domain.HandoverResult{}, fmt.Errorf("%w: no orders to hand over", store.ErrValidation)
	}
	if _, err := s.actingEmployee(ctx, req.EmployeeID, ""); err != nil {
		return domain.HandoverResult{}, err
	}

	result, err := s.repo.ProcessHandover(ctx, req.ShiftID, req.EmployeeID, req.OrderIDs, time.Now().UTC())
	if err != nil {
		return domain.HandoverResult{}, err
	}

	s.invalidateShiftStats(ctx, req.ShiftID)
	s.logAudit(ctx, "handover", fmt.Sprintf("shift=%s,employee=%s,received=%d,orders=%d", req.ShiftID, req.EmployeeID, result.ReceivedCents, len(result.OrderIDs)))
	return *result, nil
}

// ListDebtors returns employees still holding cash, for the shift dashboard
// and the close-shift precondition message.
func (s *Service) ListDebtors(ctx context.Context) ([]domain.Employee, error) {
	return s.repo.ListDebtors(ctx)
}

// ListUnturnedCashOrders lists the cash orders an employee has not yet
// handed over, the pick list for ProcessHandover.
func (s *Service) ListUnturnedCashOrders(ctx context.Context, employeeID string) ([]domain.Order, error) {
	return s.repo.ListUnturnedCashOrders(ctx, employeeID)
}

func (s *Service) ListBalanceHistory(ctx context.Context, employeeID string, limit int) ([]domain.BalanceHistory, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListBalanceHistory(ctx, employeeID, limit)
}
