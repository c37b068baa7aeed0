package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"restodesk/backend/internal/domain"
	"restodesk/backend/internal/store"
)

func TestOrderDeductionIsIdempotentAndReversible(t *testing.T) {
	databaseURL := os.Getenv("RESTODESK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set RESTODESK_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	stamp := time.Now().UnixNano()
	warehouseID := fmt.Sprintf("wh-it-%d", stamp)
	ingredientID := fmt.Sprintf("ing-it-%d", stamp)
	orderID := fmt.Sprintf("ord-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM inventory_doc_items WHERE ingredient_id = $1`, ingredientID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM inventory_docs WHERE linked_order_id = $1`, orderID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stock_levels WHERE warehouse_id = $1`, warehouseID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM ingredients WHERE id = $1`, ingredientID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM warehouses WHERE id = $1`, warehouseID)
	})

	if _, err := s.CreateWarehouse(ctx, domain.Warehouse{ID: warehouseID, Name: "IT Storage"}); err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	if _, err := s.CreateIngredient(ctx, domain.Ingredient{ID: ingredientID, Name: "IT Beets", Unit: "kg", CostCents: 250}); err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	if _, err := s.AdjustStock(ctx, warehouseID, ingredientID, 5000); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	if _, err := s.CreateOrder(ctx, domain.Order{
		ID:            orderID,
		Type:          domain.OrderTypeInHouse,
		PaymentMethod: domain.PaymentCash,
		TotalCents:    12000,
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	docs := []domain.InventoryDoc{{
		SourceWarehouseID: warehouseID,
		Items:             []domain.InventoryDocItem{{IngredientID: ingredientID, QtyMilli: 600}},
	}}

	if _, err := s.DeductOrderInventory(ctx, orderID, docs); err != nil {
		t.Fatalf("deduct: %v", err)
	}
	qty, err := s.GetStock(ctx, warehouseID, ingredientID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if qty != 4400 {
		t.Fatalf("expected stock 4400 after deduction, got %d", qty)
	}

	if _, err := s.DeductOrderInventory(ctx, orderID, docs); !errors.Is(err, store.ErrAlreadyDeducted) {
		t.Fatalf("expected ErrAlreadyDeducted on second deduction, got %v", err)
	}
	qty, _ = s.GetStock(ctx, warehouseID, ingredientID)
	if qty != 4400 {
		t.Fatalf("stock changed on duplicate deduction: %d", qty)
	}

	returns := []domain.InventoryDoc{{
		TargetWarehouseID: warehouseID,
		Items:             []domain.InventoryDocItem{{IngredientID: ingredientID, QtyMilli: 600}},
	}}
	if _, err := s.ReverseOrderDeduction(ctx, orderID, returns); err != nil {
		t.Fatalf("reverse: %v", err)
	}
	qty, _ = s.GetStock(ctx, warehouseID, ingredientID)
	if qty != 5000 {
		t.Fatalf("expected stock restored to 5000, got %d", qty)
	}

	if _, err := s.ReverseOrderDeduction(ctx, orderID, returns); !errors.Is(err, store.ErrNotDeducted) {
		t.Fatalf("expected ErrNotDeducted on second reversal, got %v", err)
	}
}
