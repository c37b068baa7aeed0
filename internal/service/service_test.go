package service

import (
	"context"
	"errors"
	"testing"

	"restodesk/backend/internal/domain"
	"restodesk/backend/internal/store"
	"restodesk/backend/internal/store/memory"
)

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	return New(repo, nil, nil), repo
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func mustStock(t *testing.T, repo *memory.Store, warehouseID string, ingredientID string) int64 {
	t.Helper()
	qty, err := repo.GetStock(context.Background(), warehouseID, ingredientID)
	if err != nil {
		t.Fatalf("get stock %s/%s: %v", warehouseID, ingredientID, err)
	}
	return qty
}

func createBorschOrder(t *testing.T, svc *Service, ctx context.Context, orderType string, payment string, qty int) domain.Order {
	t.Helper()
	order, err := svc.CreateOrder(ctx, domain.Order{
		Type:          orderType,
		PaymentMethod: payment,
		Lines:         []domain.OrderLine{{ProductID: "prod-borsch", Qty: qty, PriceCents: 25000}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

// --- shifts ---

func TestOpenShiftAllowsOnlyOne(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	first, err := svc.OpenShift(ctx, domain.OpenShiftRequest{EmployeeID: "emp-manager", StartCashCents: 10000})
	if err != nil {
		t.Fatalf("open shift: %v", err)
	}
	if first.Status != domain.ShiftStatusOpen || first.StartCashCents != 10000 {
		t.Fatalf("unexpected shift state: %+v", first)
	}

	_, err = svc.OpenShift(ctx, domain.OpenShiftRequest{EmployeeID: "emp-courier", StartCashCents: 0})
	if !errors.Is(err, store.ErrShiftAlreadyOpen) {
		t.Fatalf("expected ErrShiftAlreadyOpen, got %v", err)
	}

	active, err := svc.ActiveShift(ctx)
	if err != nil {
		t.Fatalf("active shift: %v", err)
	}
	if active.ID != first.ID {
		t.Fatalf("expected active shift %s, got %s", first.ID, active.ID)
	}
}

func TestOpenShiftRequiresAcceptCashCapability(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	if _, err := repo.CreateEmployee(ctx, domain.Employee{
		ID: "emp-cook", Name: "Cook", Active: true,
		Capabilities: []domain.Capability{domain.CapManageStock},
	}); err != nil {
		t.Fatalf("create employee: %v", err)
	}

	_, err := svc.OpenShift(ctx, domain.OpenShiftRequest{EmployeeID: "emp-cook"})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for missing capability, got %v", err)
	}
}

func TestAddShiftTransactionRejectsBadInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	shift, err := svc.OpenShift(ctx, domain.OpenShiftRequest{EmployeeID: "emp-manager"})
	if err != nil {
		t.Fatalf("open shift: %v", err)
	}

	_, err = svc.AddShiftTransaction(ctx, domain.ShiftTransactionRequest{ShiftID: shift.ID, Type: "handover", AmountCents: 100})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for manual handover type, got %v", err)
	}
	_, err = svc.AddShiftTransaction(ctx, domain.ShiftTransactionRequest{ShiftID: shift.ID, Type: domain.CashTxIn, AmountCents: 0})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
}

// --- recipe deduction ---

func TestOrderDeductionExpandsSemiFinishedRecipes(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	order := createBorschOrder(t, svc, ctx, domain.OrderTypeInHouse, domain.PaymentCash, 2)
	if _, err := svc.SendOrderToKitchen(ctx, order.ID); err != nil {
		t.Fatalf("to kitchen: %v", err)
	}
	if _, err := svc.MarkOrderReady(ctx, order.ID); err != nil {
		t.Fatalf("mark ready: %v", err)
	}

	// 2 portions: 600 beets, 100 dough expanded to 80 flour and 20 water.
	// The kitchen is a production station, so everything posts against its
	// linked storage warehouse.
	if got := mustStock(t, repo, "wh-main", "ing-beets"); got != 9400 {
		t.Fatalf("beets: expected 9400, got %d", got)
	}
	if got := mustStock(t, repo, "wh-main", "ing-flour"); got != 19920 {
		t.Fatalf("flour: expected 19920, got %d", got)
	}
	if got := mustStock(t, repo, "wh-main", "ing-water"); got != 49980 {
		t.Fatalf("water: expected 49980, got %d", got)
	}

	// Repeating the deduction must not move stock again.
	if _, err := svc.DeductForOrder(ctx, order.ID); err != nil {
		t.Fatalf("second deduct: %v", err)
	}
	if got := mustStock(t, repo, "wh-main", "ing-beets"); got != 9400 {
		t.Fatalf("beets after repeat: expected 9400, got %d", got)
	}
}

func TestDeliveryOrderTriggersAutoDeductionRule(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	order := createBorschOrder(t, svc, ctx, domain.OrderTypeDelivery, domain.PaymentCard, 1)
	if _, err := svc.MarkOrderReady(ctx, order.ID); err != nil {
		t.Fatalf("mark ready: %v", err)
	}

	if got := mustStock(t, repo, "wh-main", "ing-box"); got != 199000 {
		t.Fatalf("box: expected 199000, got %d", got)
	}
	if got := mustStock(t, repo, "wh-main", "ing-beets"); got != 9700 {
		t.Fatalf("beets: expected 9700, got %d", got)
	}
}

func TestModifierDeductsFromItsOwnWarehouse(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	order, err := svc.CreateOrder(ctx, domain.Order{
		Type:          domain.OrderTypeInHouse,
		PaymentMethod: domain.PaymentCard,
		Lines: []domain.OrderLine{{
			ProductID: "prod-borsch", Qty: 1, PriceCents: 25000,
			Modifiers: []domain.OrderLineModifier{{ModifierID: "mod-cola", Qty: 1}},
		}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.TotalCents != 25250 {
		t.Fatalf("expected total 25250 with modifier, got %d", order.TotalCents)
	}

	if _, err := svc.MarkOrderReady(ctx, order.ID); err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	if got := mustStock(t, repo, "wh-bar", "ing-cola"); got != 47000 {
		t.Fatalf("cola: expected 47000, got %d", got)
	}
}

func TestCancelWithReturnRestoresStock(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	order := createBorschOrder(t, svc, ctx, domain.OrderTypeInHouse, domain.PaymentCard, 1)
	if _, err := svc.MarkOrderReady(ctx, order.ID); err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	if got := mustStock(t, repo, "wh-main", "ing-beets"); got != 9700 {
		t.Fatalf("beets after deduction: expected 9700, got %d", got)
	}

	cancelled, err := svc.CancelOrder(ctx, order.ID, domain.CancelOrderRequest{
		Action: domain.CancelActionReturn, Reason: "guest left", EmployeeID: "emp-manager",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !cancelled.IsCancelled() {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}

	if got := mustStock(t, repo, "wh-main", "ing-beets"); got != 10000 {
		t.Fatalf("beets restored: expected 10000, got %d", got)
	}
	if got := mustStock(t, repo, "wh-main", "ing-flour"); got != 20000 {
		t.Fatalf("flour restored: expected 20000, got %d", got)
	}
	if got := mustStock(t, repo, "wh-main", "ing-water"); got != 50000 {
		t.Fatalf("water restored: expected 50000, got %d", got)
	}
}

func TestCancelWithWasteKeepsLossAndChargesPenalty(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	order, err := svc.CreateOrder(ctx, domain.Order{
		Type:          domain.OrderTypeInHouse,
		PaymentMethod: domain.PaymentCard,
		WaiterID:      "emp-courier",
		Lines:         []domain.OrderLine{{ProductID: "prod-borsch", Qty: 1, PriceCents: 25000}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := svc.MarkOrderReady(ctx, order.ID); err != nil {
		t.Fatalf("mark ready: %v", err)
	}

	if _, err := svc.CancelOrder(ctx, order.ID, domain.CancelOrderRequest{
		Action:       domain.CancelActionWaste,
		ApplyPenalty: true,
		Reason:       "dropped the plate",
		EmployeeID:   "emp-manager",
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Wasted food stays gone.
	if got := mustStock(t, repo, "wh-main", "ing-beets"); got != 9700 {
		t.Fatalf("beets: expected 9700 after waste, got %d", got)
	}

	// The deduction documents become writeoffs so the loss survives in the
	// ledger.
	writeoffs, err := repo.ListInventoryDocsByOrder(ctx, order.ID, domain.DocTypeWriteoff)
	if err != nil {
		t.Fatalf("list writeoffs: %v", err)
	}
	if len(writeoffs) == 0 {
		t.Fatalf("expected deduction documents converted to writeoff")
	}
	deductions, _ := repo.ListInventoryDocsByOrder(ctx, order.ID, domain.DocTypeDeduction)
	if len(deductions) != 0 {
		t.Fatalf("expected no deduction documents left, got %d", len(deductions))
	}

	// Prime cost of one portion: 300 beets at 250, 40 flour at 180, 10 water
	// at 10, all per thousand.
	waiter, err := repo.GetEmployee(ctx, "emp-courier")
	if err != nil {
		t.Fatalf("get employee: %v", err)
	}
	if waiter.CashBalanceCents != 82 {
		t.Fatalf("expected penalty of 82 on waiter balance, got %d", waiter.CashBalanceCents)
	}
}

func TestOrderCompositionFreezesInKitchen(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	order := createBorschOrder(t, svc, ctx, domain.OrderTypeInHouse, domain.PaymentCard, 1)

	updated, err := svc.UpdateOrderLines(ctx, order.ID, []domain.OrderLine{
		{ProductID: "prod-borsch", Qty: 3, PriceCents: 25000},
	})
	if err != nil {
		t.Fatalf("update lines: %v", err)
	}
	if updated.TotalCents != 75000 {
		t.Fatalf("expected recomputed total 75000, got %d", updated.TotalCents)
	}

	if _, err := svc.SendOrderToKitchen(ctx, order.ID); err != nil {
		t.Fatalf("to kitchen: %v", err)
	}
	_, err = svc.UpdateOrderLines(ctx, order.ID, []domain.OrderLine{
		{ProductID: "prod-borsch", Qty: 1, PriceCents: 25000},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected frozen composition error, got %v", err)
	}
}

// --- custody ---

func TestCompleteCashOrderRegistersCustody(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	shift, err := svc.OpenShift(ctx, domain.OpenShiftRequest{EmployeeID: "emp-manager", StartCashCents: 5000})
	if err != nil {
		t.Fatalf("open shift: %v", err)
	}

	order := createBorschOrder(t, svc, ctx, domain.OrderTypeInHouse, domain.PaymentCash, 1)
	completed, err := svc.CompleteOrder(ctx, order.ID, domain.CompleteOrderRequest{EmployeeID: "emp-manager"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.ShiftID != shift.ID {
		t.Fatalf("expected order linked to shift %s, got %q", shift.ID, completed.ShiftID)
	}
	if completed.CashTurnedIn {
		t.Fatalf("expected cash not yet turned in")
	}

	debtors, err := svc.ListDebtors(ctx)
	if err != nil {
		t.Fatalf("list debtors: %v", err)
	}
	if len(debtors) != 1 || debtors[0].ID != "emp-manager" {
		t.Fatalf("expected emp-manager as sole debtor, got %+v", debtors)
	}
	if debtors[0].CashBalanceCents != order.TotalCents {
		t.Fatalf("expected custody balance %d, got %d", order.TotalCents, debtors[0].CashBalanceCents)
	}

	unturned, err := svc.ListUnturnedCashOrders(ctx, "emp-manager")
	if err != nil {
		t.Fatalf("list unturned: %v", err)
	}
	if len(unturned) != 1 || unturned[0].ID != order.ID {
		t.Fatalf("expected the completed order in unturned list, got %+v", unturned)
	}

	// The completion is one-shot.
	_, err = svc.CompleteOrder(ctx, order.ID, domain.CompleteOrderRequest{EmployeeID: "emp-manager"})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error on second completion, got %v", err)
	}
}

func TestCourierHoldsCashBeforeCompleter(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	if _, err := svc.OpenShift(ctx, domain.OpenShiftRequest{EmployeeID: "emp-manager"}); err != nil {
		t.Fatalf("open shift: %v", err)
	}

	order, err := svc.CreateOrder(ctx, domain.Order{
		Type:          domain.OrderTypeDelivery,
		PaymentMethod: domain.PaymentCash,
		CourierID:     "emp-courier",
		Lines:         []domain.OrderLine{{ProductID: "prod-borsch", Qty: 1, PriceCents: 30000}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := svc.CompleteOrder(ctx, order.ID, domain.CompleteOrderRequest{EmployeeID: "emp-manager"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	courier, _ := repo.GetEmployee(ctx, "emp-courier")
	manager, _ := repo.GetEmployee(ctx, "emp-manager")
	if courier.CashBalanceCents != 30000 {
		t.Fatalf("expected courier to hold 30000, got %d", courier.CashBalanceCents)
	}
	if manager.CashBalanceCents != 0 {
		t.Fatalf("expected completer balance 0, got %d", manager.CashBalanceCents)
	}
}

func TestHandoverMovesCashToShift(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	shift, err := svc.OpenShift(ctx, domain.OpenShiftRequest{EmployeeID: "emp-manager"})
	if err != nil {
		t.Fatalf("open shift: %v", err)
	}

	first := createBorschOrder(t, svc, ctx, domain.OrderTypeInHouse, domain.PaymentCash, 1)
	second := createBorschOrder(t, svc, ctx, domain.OrderTypeInHouse, domain.PaymentCash, 2)
	for _, orderID := range []string{first.ID, second.ID} {
		if _, err := svc.CompleteOrder(ctx, orderID, domain.CompleteOrderRequest{EmployeeID: "emp-manager"}); err != nil {
			t.Fatalf("complete %s: %v", orderID, err)
		}
	}

	result, err := svc.ProcessHandover(ctx, domain.HandoverRequest{
		ShiftID: shift.ID, EmployeeID: "emp-manager", OrderIDs: []string{first.ID, second.ID},
	})
	if err != nil {
		t.Fatalf("handover: %v", err)
	}
	if result.ReceivedCents != first.TotalCents+second.TotalCents {
		t.Fatalf("expected received %d, got %d", first.TotalCents+second.TotalCents, result.ReceivedCents)
	}
	if result.NewBalanceCents != 0 {
		t.Fatalf("expected balance 0 after handover, got %d", result.NewBalanceCents)
	}

	emp, _ := repo.GetEmployee(ctx, "emp-manager")
	if emp.CashBalanceCents != 0 {
		t.Fatalf("expected employee balance 0, got %d", emp.CashBalanceCents)
	}

	// Handing the same orders over again receives nothing.
	again, err := svc.ProcessHandover(ctx, domain.HandoverRequest{
		ShiftID: shift.ID, EmployeeID: "emp-manager", OrderIDs: []string{first.ID, second.ID},
	})
	if err != nil {
		t.Fatalf("second handover: %v", err)
	}
	if again.ReceivedCents != 0 {
		t.Fatalf("expected no cash on repeated handover, got %d", again.ReceivedCents)
	}
}

func TestHandoverRejectsOrdersOfAnotherEmployee(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	shift, err := svc.OpenShift(ctx, domain.OpenShiftRequest{EmployeeID: "emp-manager"})
	if err != nil {
		t.Fatalf("open shift: %v", err)
	}
	order := createBorschOrder(t, svc, ctx, domain.OrderTypeInHouse, domain.PaymentCash, 1)
	if _, err := svc.CompleteOrder(ctx, order.ID, domain.CompleteOrderRequest{EmployeeID: "emp-manager"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err = svc.ProcessHandover(ctx, domain.HandoverRequest{
		ShiftID: shift.ID, EmployeeID: "emp-courier", OrderIDs: []string{order.ID},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error when handover exceeds balance, got %v", err)
	}
}

func TestCloseShiftBlockedUntilCashHandedOver(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	shift, err := svc.OpenShift(ctx, domain.OpenShiftRequest{EmployeeID: "emp-manager", StartCashCents: 10000})
	if err != nil {
		t.Fatalf("open shift: %v", err)
	}
	order := createBorschOrder(t, svc, ctx, domain.OrderTypeInHouse, domain.PaymentCash, 1)
	if _, err := svc.CompleteOrder(ctx, order.ID, domain.CompleteOrderRequest{EmployeeID: "emp-manager"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err = svc.CloseShift(ctx, domain.CloseShiftRequest{ShiftID: shift.ID, EndCashActualCents: 35000})
	if !errors.Is(err, store.ErrOutstandingCustody) {
		t.Fatalf("expected ErrOutstandingCustody, got %v", err)
	}

	if _, err := svc.ProcessHandover(ctx, domain.HandoverRequest{
		ShiftID: shift.ID, EmployeeID: "emp-manager", OrderIDs: []string{order.ID},
	}); err != nil {
		t.Fatalf("handover: %v", err)
	}

	closed, err := svc.CloseShift(ctx, domain.CloseShiftRequest{ShiftID: shift.ID, EndCashActualCents: 35000})
	if err != nil {
		t.Fatalf("close shift: %v", err)
	}
	if closed.Status != domain.ShiftStatusClosed || closed.ClosedAt == nil {
		t.Fatalf("expected closed shift with timestamp, got %+v", closed)
	}
	if closed.CashSalesCents != order.TotalCents {
		t.Fatalf("expected snapshotted cash sales %d, got %d", order.TotalCents, closed.CashSalesCents)
	}

	_, err = svc.ActiveShift(ctx)
	if !errors.Is(err, store.ErrNoOpenShift) {
		t.Fatalf("expected ErrNoOpenShift after close, got %v", err)
	}
}

func TestShiftStatisticsTheoreticalCash(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	shift, err := svc.OpenShift(ctx, domain.OpenShiftRequest{EmployeeID: "emp-manager", StartCashCents: 10000})
	if err != nil {
		t.Fatalf("open shift: %v", err)
	}

	cashOrder, err := svc.CreateOrder(ctx, domain.Order{
		Type: domain.OrderTypeInHouse, PaymentMethod: domain.PaymentCash,
		Lines: []domain.OrderLine{{ProductID: "prod-borsch", Qty: 2, PriceCents: 25000}},
	})
	if err != nil {
		t.Fatalf("create cash order: %v", err)
	}
	cardOrder, err := svc.CreateOrder(ctx, domain.Order{
		Type: domain.OrderTypeInHouse, PaymentMethod: domain.PaymentCard,
		Lines: []domain.OrderLine{{ProductID: "prod-borsch", Qty: 1, PriceCents: 30000}},
	})
	if err != nil {
		t.Fatalf("create card order: %v", err)
	}
	for _, orderID := range []string{cashOrder.ID, cardOrder.ID} {
		if _, err := svc.CompleteOrder(ctx, orderID, domain.CompleteOrderRequest{EmployeeID: "emp-manager"}); err != nil {
			t.Fatalf("complete %s: %v", orderID, err)
		}
	}

	if _, err := svc.AddShiftTransaction(ctx, domain.ShiftTransactionRequest{
		ShiftID: shift.ID, Type: domain.CashTxIn, AmountCents: 2000, Comment: "change fund top-up",
	}); err != nil {
		t.Fatalf("service in: %v", err)
	}
	if _, err := svc.AddShiftTransaction(ctx, domain.ShiftTransactionRequest{
		ShiftID: shift.ID, Type: domain.CashTxOut, AmountCents: 500, Comment: "window cleaner",
	}); err != nil {
		t.Fatalf("service out: %v", err)
	}

	stats, err := svc.ShiftStatistics(ctx, shift.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.CashSalesCents != 50000 || stats.CardSalesCents != 30000 {
		t.Fatalf("unexpected sales split: %+v", stats)
	}
	if stats.TheoreticalCashCents != 10000+50000+2000-500 {
		t.Fatalf("expected theoretical cash 61500, got %d", stats.TheoreticalCashCents)
	}
	if stats.OutstandingCents != 50000 {
		t.Fatalf("expected outstanding 50000 before handover, got %d", stats.OutstandingCents)
	}
	if stats.TotalSalesCents != 80000 {
		t.Fatalf("expected total sales 80000, got %d", stats.TotalSalesCents)
	}

	if _, err := svc.ProcessHandover(ctx, domain.HandoverRequest{
		ShiftID: shift.ID, EmployeeID: "emp-manager", OrderIDs: []string{cashOrder.ID},
	}); err != nil {
		t.Fatalf("handover: %v", err)
	}

	stats, err = svc.ShiftStatistics(ctx, shift.ID)
	if err != nil {
		t.Fatalf("statistics after handover: %v", err)
	}
	if stats.TurnedInCashCents != 50000 || stats.OutstandingCents != 0 {
		t.Fatalf("expected all cash turned in, got %+v", stats)
	}
	// The handover itself does not change the theoretical drawer contents.
	if stats.TheoreticalCashCents != 61500 {
		t.Fatalf("expected theoretical cash unchanged at 61500, got %d", stats.TheoreticalCashCents)
	}
}

// --- recipes ---

func TestSaveRecipeComponentsRejectsCycles(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	err := svc.SaveRecipeComponents(ctx, "ing-dough", []domain.RecipeComponent{
		{ParentID: "ing-dough", ChildID: "ing-dough", GrossMilli: 1000},
	})
	if !errors.Is(err, store.ErrRecipeCycle) {
		t.Fatalf("expected cycle error for self reference, got %v", err)
	}

	if _, err := svc.CreateIngredient(ctx, domain.Ingredient{
		ID: "ing-starter", Name: "Starter", Unit: "kg", CostCents: 120, IsSemiFinished: true,
	}); err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	if err := svc.SaveRecipeComponents(ctx, "ing-starter", []domain.RecipeComponent{
		{ParentID: "ing-starter", ChildID: "ing-dough", GrossMilli: 500},
	}); err != nil {
		t.Fatalf("save starter recipe: %v", err)
	}

	err = svc.SaveRecipeComponents(ctx, "ing-dough", []domain.RecipeComponent{
		{ParentID: "ing-dough", ChildID: "ing-starter", GrossMilli: 100},
	})
	if !errors.Is(err, store.ErrRecipeCycle) {
		t.Fatalf("expected cycle error through starter, got %v", err)
	}
}

func TestSaveRecipeComponentsRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()
	ctx := WithActor(context.Background(), domain.Actor{Username: "cashier", Role: "cashier"})

	err := svc.SaveRecipeComponents(ctx, "ing-dough", nil)
	if err == nil || errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected admin role error, got %v", err)
	}
}

// --- inventory documents ---

func TestProcessMovementRejectsDeductionType(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	_, err := svc.ProcessMovement(ctx, domain.MovementRequest{
		Type:              domain.DocTypeDeduction,
		SourceWarehouseID: "wh-main",
		Items:             []domain.MovementItemRequest{{IngredientID: "ing-beets", QtyMilli: 100}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for deduction type, got %v", err)
	}
}

func TestSupplyUpdatesMovingAverageCost(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	// 10 kg on hand at 250, supplying 10 kg at 300 averages to 275.
	if _, err := svc.ProcessMovement(ctx, domain.MovementRequest{
		Type:              domain.DocTypeSupply,
		TargetWarehouseID: "wh-main",
		Items:             []domain.MovementItemRequest{{IngredientID: "ing-beets", QtyMilli: 10000, PriceCents: 300}},
	}); err != nil {
		t.Fatalf("supply: %v", err)
	}

	if got := mustStock(t, repo, "wh-main", "ing-beets"); got != 20000 {
		t.Fatalf("expected stock 20000, got %d", got)
	}
	ing, err := repo.GetIngredient(ctx, "ing-beets")
	if err != nil {
		t.Fatalf("get ingredient: %v", err)
	}
	if ing.CostCents != 275 {
		t.Fatalf("expected moving average cost 275, got %d", ing.CostCents)
	}
}

func TestStocktakePostsSurplusAndShortage(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	result, err := svc.ProcessStocktake(ctx, domain.StocktakeRequest{
		WarehouseID: "wh-main",
		Counts: []domain.StocktakeCountRequest{
			{IngredientID: "ing-beets", CountedMilli: 9000},
			{IngredientID: "ing-flour", CountedMilli: 21000},
		},
	})
	if err != nil {
		t.Fatalf("stocktake: %v", err)
	}
	if result.ShortageDoc == nil || result.ShortageDoc.Type != domain.DocTypeWriteoff {
		t.Fatalf("expected shortage writeoff, got %+v", result.ShortageDoc)
	}
	if result.SurplusDoc == nil || result.SurplusDoc.Type != domain.DocTypeSupply {
		t.Fatalf("expected surplus supply, got %+v", result.SurplusDoc)
	}

	if got := mustStock(t, repo, "wh-main", "ing-beets"); got != 9000 {
		t.Fatalf("beets: expected counted 9000, got %d", got)
	}
	if got := mustStock(t, repo, "wh-main", "ing-flour"); got != 21000 {
		t.Fatalf("flour: expected counted 21000, got %d", got)
	}
	// Water was not counted and stays untouched.
	if got := mustStock(t, repo, "wh-main", "ing-water"); got != 50000 {
		t.Fatalf("water: expected untouched 50000, got %d", got)
	}
}

func TestProductionWritesOffComponentsAndSuppliesBatch(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	result, err := svc.ProcessProduction(ctx, domain.ProductionRequest{
		WarehouseID: "wh-main", IngredientID: "ing-dough", QtyMilli: 2000,
	})
	if err != nil {
		t.Fatalf("production: %v", err)
	}

	// 2 kg of dough: 1.6 kg flour at 180 plus 0.4 l water at 10 costs 292,
	// so 146 per unit.
	if result.UnitCostCents != 146 {
		t.Fatalf("expected unit cost 146, got %d", result.UnitCostCents)
	}
	if got := mustStock(t, repo, "wh-main", "ing-flour"); got != 18400 {
		t.Fatalf("flour: expected 18400, got %d", got)
	}
	if got := mustStock(t, repo, "wh-main", "ing-water"); got != 49600 {
		t.Fatalf("water: expected 49600, got %d", got)
	}
	if got := mustStock(t, repo, "wh-main", "ing-dough"); got != 2000 {
		t.Fatalf("dough: expected 2000, got %d", got)
	}
}

func TestProductionRejectsPlainIngredient(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	_, err := svc.ProcessProduction(ctx, domain.ProductionRequest{
		WarehouseID: "wh-main", IngredientID: "ing-beets", QtyMilli: 1000,
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for non semi-finished good, got %v", err)
	}
}

// --- suppliers ---

func TestSupplierDebtTracksSuppliesAndPayments(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	supplier, err := svc.CreateSupplier(ctx, domain.Supplier{ID: "sup-veg", Name: "Veg Wholesale"})
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}

	// 10 kg at 300 per kg is a 3000 invoice, 1000 paid on delivery.
	if _, err := svc.ProcessMovement(ctx, domain.MovementRequest{
		Type:              domain.DocTypeSupply,
		TargetWarehouseID: "wh-main",
		SupplierID:        supplier.ID,
		PaidCents:         1000,
		Items:             []domain.MovementItemRequest{{IngredientID: "ing-beets", QtyMilli: 10000, PriceCents: 300}},
	}); err != nil {
		t.Fatalf("supply: %v", err)
	}

	debts, err := svc.SupplierDebts(ctx)
	if err != nil {
		t.Fatalf("debts: %v", err)
	}
	if len(debts) != 1 || debts[0].OutstandingCents != 2000 {
		t.Fatalf("expected outstanding 2000, got %+v", debts)
	}

	remainder, err := svc.PaySupplier(ctx, supplier.ID, domain.SupplierPaymentRequest{AmountCents: 5000})
	if err != nil {
		t.Fatalf("pay supplier: %v", err)
	}
	if remainder != 3000 {
		t.Fatalf("expected unapplied remainder 3000, got %d", remainder)
	}

	debts, _ = svc.SupplierDebts(ctx)
	if debts[0].OutstandingCents != 0 {
		t.Fatalf("expected no outstanding debt, got %d", debts[0].OutstandingCents)
	}
}

// --- reorder ---

func TestReorderReportFlagsFastMovingIngredient(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	// Burn through most of the beets so the trailing consumption dwarfs what
	// is left on the shelf.
	if _, err := svc.ProcessMovement(ctx, domain.MovementRequest{
		Type:              domain.DocTypeWriteoff,
		SourceWarehouseID: "wh-main",
		Items:             []domain.MovementItemRequest{{IngredientID: "ing-beets", QtyMilli: 9000}},
	}); err != nil {
		t.Fatalf("writeoff: %v", err)
	}

	report, err := svc.ReorderReport(ctx, "wh-main", 7)
	if err != nil {
		t.Fatalf("reorder report: %v", err)
	}
	if report.WarehouseID != "wh-main" || report.WindowDays != 7 {
		t.Fatalf("unexpected report header: %+v", report)
	}

	var beets *domain.ReorderSuggestion
	for i := range report.Suggestions {
		if report.Suggestions[i].IngredientID == "ing-beets" {
			beets = &report.Suggestions[i]
		}
	}
	if beets == nil {
		t.Fatalf("expected a suggestion for ing-beets, got %+v", report.Suggestions)
	}
	if beets.OnHandMilli != 1000 || beets.ConsumedMilli != 9000 {
		t.Fatalf("unexpected suggestion figures: %+v", beets)
	}
	if beets.SuggestedQtyMilli <= 0 || beets.Urgency < 0.8 {
		t.Fatalf("expected urgent restock suggestion, got %+v", beets)
	}
}
