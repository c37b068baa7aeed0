package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"restodesk/backend/internal/domain"
	"restodesk/backend/internal/store"
	"restodesk/backend/internal/xid"
)

func (s *Service) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	order.ID = xid.New("ord")
	order.Status = domain.OrderStatusNew
	order.CreatedAt = time.Now().UTC()
	order.TotalCents = s.orderTotal(ctx, order.Lines)

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	s.logAudit(ctx, "order_create", fmt.Sprintf("order=%s,type=%s,total=%d", created.ID, created.Type, created.TotalCents))
	return *created, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return *order, nil
}

// SendOrderToKitchen freezes the order's composition and hands it to
// production.
func (s *Service) SendOrderToKitchen(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.repo.SetOrderStatus(ctx, orderID, domain.OrderStatusInKitchen, "")
	if err != nil {
		return domain.Order{}, err
	}
	s.logAudit(ctx, "order_to_kitchen", "order="+orderID)
	return *order, nil
}

// MarkOrderReady moves the order to ready and deducts its inventory: once
// the food is plated the ingredients are gone whether or not the order is
// later completed.
func (s *Service) MarkOrderReady(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.repo.SetOrderStatus(ctx, orderID, domain.OrderStatusReady, "")
	if err != nil {
		return domain.Order{}, err
	}
	if _, err := s.DeductForOrder(ctx, orderID); err != nil {
		log.Printf("[orders] WARN: deduction failed for ready order %s: %v", orderID, err)
	}
	return *order, nil
}

// CompleteOrder runs the completion sequence: the status flips exactly once,
// the order is linked to the open shift, a cash order's total moves into the
// responsible employee's custody, and the inventory is deducted if it has
// not been already. The financial posting is atomic with the status change;
// a deduction failure is logged but never blocks completion.
func (s *Service) CompleteOrder(ctx context.Context, orderID string, req domain.CompleteOrderRequest) (domain.Order, error) {
	acting, err := s.actingEmployee(ctx, req.EmployeeID, domain.CapManageOrders)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	shiftID := ""
	if shift, err := s.repo.GetOpenShift(ctx); err == nil {
		shiftID = shift.ID
	} else if !errors.Is(err, store.ErrNoOpenShift) {
		return domain.Order{}, err
	}

	debtorID := ""
	debtReason := ""
	if order.PaymentMethod == domain.PaymentCash {
		candidate := *order
		candidate.CompletedBy = acting.ID
		debtorID = debtorFor(&candidate)
		debtReason = fmt.Sprintf("cash custody for order %s", orderID)
	}

	completed, err := s.repo.CompleteOrder(ctx, orderID, acting.ID, shiftID, debtorID, debtReason, time.Now().UTC())
	if err != nil {
		return domain.Order{}, err
	}

	if _, err := s.DeductForOrder(ctx, orderID); err != nil {
		log.Printf("[orders] WARN: deduction failed for completed order %s: %v", orderID, err)
	}

	s.invalidateShiftStats(ctx, shiftID)
	s.logAudit(ctx, "order_complete", fmt.Sprintf("order=%s,employee=%s,debtor=%s", orderID, acting.ID, debtorID))
	return *completed, nil
}

// CancelOrder runs the cancellation sequence. For a previously completed
// order the custody debt is unregistered first, always. The operator then
// either returns the deducted stock or writes it off as waste; waste with a
// penalty charges the order's prime cost to the responsible employee.
func (s *Service) CancelOrder(ctx context.Context, orderID string, req domain.CancelOrderRequest) (domain.Order, error) {
	acting, err := s.actingEmployee(ctx, req.EmployeeID, domain.CapCancelOrders)
	if err != nil {
		return domain.Order{}, err
	}

	action := req.Action
	if action == "" {
		action = domain.CancelActionReturn
	}
	if action != domain.CancelActionReturn && action != domain.CancelActionWaste {
		return domain.Order{}, fmt.Errorf("%w: unknown cancel action %q", store.ErrValidation, action)
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	wasCompleted := order.IsCompleted()

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "cancelled"
	}

	cancelled, _, err := s.repo.CancelOrder(ctx, orderID, reason, action == domain.CancelActionWaste, time.Now().UTC())
	if err != nil {
		return domain.Order{}, err
	}

	if wasCompleted {
		if err := s.UnregisterEmployeeDebt(ctx, orderID); err != nil {
			log.Printf("[orders] WARN: failed to unregister debt for %s: %v", orderID, err)
		}
	}

	if cancelled.InventoryDeducted {
		switch action {
		case domain.CancelActionReturn:
			if _, err := s.ReverseDeduction(ctx, orderID); err != nil {
				log.Printf("[orders] WARN: failed to return stock for %s: %v", orderID, err)
			}
		case domain.CancelActionWaste:
			comment := fmt.Sprintf("waste on cancellation of order %s", orderID)
			if _, err := s.repo.ConvertOrderDeductionsToWriteoff(ctx, orderID, comment); err != nil {
				log.Printf("[orders] WARN: failed to convert deductions for %s: %v", orderID, err)
			}
			if req.ApplyPenalty {
				if err := s.applyWastePenalty(ctx, cancelled, acting.ID); err != nil {
					log.Printf("[orders] WARN: failed to apply waste penalty for %s: %v", orderID, err)
				}
			}
		}
	}

	s.invalidateShiftStats(ctx, cancelled.ShiftID)
	s.logAudit(ctx, "order_cancel", fmt.Sprintf("order=%s,action=%s,penalty=%t", orderID, action, req.ApplyPenalty))
	final, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return *cancelled, nil
	}
	return *final, nil
}

// applyWastePenalty charges the wasted order's prime cost to whoever was
// responsible for it: the waiter, else the courier, else the canceller.
func (s *Service) applyWastePenalty(ctx context.Context, order *domain.Order, actingID string) error {
	cost, err := s.OrderPrimeCost(ctx, order.ID)
	if err != nil {
		return err
	}
	if cost <= 0 {
		return nil
	}

	targetID := order.WaiterID
	if targetID == "" {
		targetID = order.CourierID
	}
	if targetID == "" {
		targetID = actingID
	}

	reason := fmt.Sprintf("prime cost penalty for wasted order %s", order.ID)
	if _, err := s.repo.AdjustEmployeeBalance(ctx, targetID, cost, reason, false, time.Now().UTC()); err != nil {
		return err
	}
	s.logAudit(ctx, "waste_penalty", fmt.Sprintf("order=%s,employee=%s,amount=%d", order.ID, targetID, cost))
	return nil
}

// UpdateOrderLines replaces the order's composition. The storage layer
// rejects the edit once the order has reached the kitchen or its inventory
// has been deducted.
func (s *Service) UpdateOrderLines(ctx context.Context, orderID string, lines []domain.OrderLine) (domain.Order, error) {
	for _, line := range lines {
		if line.ProductID == "" || line.Qty <= 0 {
			return domain.Order{}, fmt.Errorf("%w: each line needs a product and a positive quantity", store.ErrValidation)
		}
	}

	total := s.orderTotal(ctx, lines)
	updated, err := s.repo.UpdateOrderLines(ctx, orderID, lines, total)
	if err != nil {
		return domain.Order{}, err
	}
	s.logAudit(ctx, "order_lines_update", fmt.Sprintf("order=%s,lines=%d,total=%d", orderID, len(lines), total))
	return *updated, nil
}

func (s *Service) orderTotal(ctx context.Context, lines []domain.OrderLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.PriceCents * int64(line.Qty)
		for _, lineMod := range line.Modifiers {
			mod, err := s.repo.GetModifier(ctx, lineMod.ModifierID)
			if err != nil {
				continue
			}
			count := int64(lineMod.Qty)
			if count < 1 {
				count = 1
			}
			total += mod.PriceCents * count * int64(line.Qty)
		}
	}
	return total
}
