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
)

// ProcessMovement creates and immediately posts a manual inventory document
// (supply, transfer, writeoff or return). Deduction documents are reserved
// for the order lifecycle and cannot be posted by hand.
func (s *Service) ProcessMovement(ctx context.Context, req domain.MovementRequest) (domain.InventoryDoc, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.InventoryDoc{}, err
	}

	switch req.Type {
	case domain.DocTypeSupply, domain.DocTypeTransfer, domain.DocTypeWriteoff, domain.DocTypeReturn:
	default:
		return domain.InventoryDoc{}, fmt.Errorf("%w: movement type %q not allowed", store.ErrValidation, req.Type)
	}
	if len(req.Items) == 0 {
		return domain.InventoryDoc{}, fmt.Errorf("%w: movement needs at least one item", store.ErrValidation)
	}
	if req.Type == domain.DocTypeSupply && req.PaidCents < 0 {
		return domain.InventoryDoc{}, fmt.Errorf("%w: paid amount must not be negative", store.ErrValidation)
	}

	actor, _ := ActorFromContext(ctx)
	doc := domain.InventoryDoc{
		Type:              req.Type,
		SourceWarehouseID: req.SourceWarehouseID,
		TargetWarehouseID: req.TargetWarehouseID,
		SupplierID:        req.SupplierID,
		Comment:           strings.TrimSpace(req.Comment),
		PaidCents:         req.PaidCents,
		CreatedBy:         actor.Username,
		CreatedAt:         time.Now().UTC(),
	}
	for _, item := range req.Items {
		doc.Items = append(doc.Items, domain.InventoryDocItem{
			IngredientID: item.IngredientID,
			QtyMilli:     item.QtyMilli,
			PriceCents:   item.PriceCents,
		})
	}

	posted, err := s.repo.PostInventoryDoc(ctx, doc)
	if err != nil {
		return domain.InventoryDoc{}, err
	}

	s.logAudit(ctx, "inventory_movement", fmt.Sprintf("doc=%s,type=%s,items=%d", posted.ID, posted.Type, len(posted.Items)))
	return *posted, nil
}

// DeductForOrder resolves the order into per-warehouse deduction documents
// and posts them atomically with the order's deducted flag. A second call
// for the same order is a clean no-op.
func (s *Service) DeductForOrder(ctx context.Context, orderID string) ([]domain.InventoryDoc, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.InventoryDeducted {
		return nil, nil
	}

	instructions, err := s.resolveOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	if len(instructions) == 0 {
		log.Printf("[inventory] WARN order %s resolved to no deduction instructions", orderID)
		return nil, nil
	}

	docs := buildDeductionDocs(order, instructions)
	posted, err := s.repo.DeductOrderInventory(ctx, orderID, docs)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyDeducted) {
			return nil, nil
		}
		return nil, err
	}

	s.logAudit(ctx, "order_deduct", fmt.Sprintf("order=%s,docs=%d", orderID, len(posted)))
	return posted, nil
}

func buildDeductionDocs(order *domain.Order, instructions []deductionInstruction) []domain.InventoryDoc {
	byWarehouse := make(map[string]*domain.InventoryDoc)
	ordered := make([]string, 0, 2)
	for _, inst := range instructions {
		doc, ok := byWarehouse[inst.WarehouseID]
		if !ok {
			doc = &domain.InventoryDoc{
				Type:              domain.DocTypeDeduction,
				SourceWarehouseID: inst.WarehouseID,
				LinkedOrderID:     order.ID,
				Comment:           fmt.Sprintf("deduction for order %s", order.ID),
				CreatedAt:         time.Now().UTC(),
			}
			byWarehouse[inst.WarehouseID] = doc
			ordered = append(ordered, inst.WarehouseID)
		}
		doc.Items = append(doc.Items, domain.InventoryDocItem{
			IngredientID: inst.IngredientID,
			QtyMilli:     inst.QtyMilli,
		})
	}

	docs := make([]domain.InventoryDoc, 0, len(ordered))
	for _, warehouseID := range ordered {
		docs = append(docs, *byWarehouse[warehouseID])
	}
	return docs
}

// ReverseDeduction restores exactly the quantities of the order's original
// deduction documents. It reads the posted items back rather than resolving
// recipes again: recipes may have changed since the order was deducted.
func (s *Service) ReverseDeduction(ctx context.Context, orderID string) ([]domain.InventoryDoc, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.InventoryDeducted {
		return nil, nil
	}
	if order.SkipInventoryReturn {
		log.Printf("[inventory] order %s marked as waste, skipping stock return", orderID)
		return nil, nil
	}

	deductions, err := s.repo.ListInventoryDocsByOrder(ctx, orderID, domain.DocTypeDeduction)
	if err != nil {
		return nil, err
	}
	if len(deductions) == 0 {
		log.Printf("[inventory] WARN order %s flagged deducted but has no deduction documents", orderID)
		return nil, nil
	}

	returns := make([]domain.InventoryDoc, 0, len(deductions))
	for _, deduction := range deductions {
		returns = append(returns, domain.InventoryDoc{
			Type:              domain.DocTypeReturn,
			TargetWarehouseID: deduction.SourceWarehouseID,
			LinkedOrderID:     orderID,
			Comment:           fmt.Sprintf("return for order %s", orderID),
			CreatedAt:         time.Now().UTC(),
			Items:             deduction.Items,
		})
	}

	posted, err := s.repo.ReverseOrderDeduction(ctx, orderID, returns)
	if err != nil {
		if errors.Is(err, store.ErrNotDeducted) {
			return nil, nil
		}
		return nil, err
	}

	s.logAudit(ctx, "order_reverse_deduction", fmt.Sprintf("order=%s,docs=%d", orderID, len(posted)))
	return posted, nil
}

// OrderPrimeCost prices the order's resolved composition at current
// ingredient costs.
func (s *Service) OrderPrimeCost(ctx context.Context, orderID string) (int64, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	instructions, err := s.resolveOrder(ctx, order)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(instructions))
	for _, inst := range instructions {
		ids = append(ids, inst.IngredientID)
	}
	ingredients, err := s.repo.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, inst := range instructions {
		ing, ok := ingredients[inst.IngredientID]
		if !ok {
			continue
		}
		total += ing.CostCents * inst.QtyMilli / 1000
	}
	return total, nil
}

// ProcessStocktake reconciles a physical count against the ledger: surplus
// becomes a supply document, shortage a writeoff document. Uncounted
// ingredients are left untouched.
func (s *Service) ProcessStocktake(ctx context.Context, req domain.StocktakeRequest) (domain.StocktakeResult, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.StocktakeResult{}, err
	}
	if req.WarehouseID == "" || len(req.Counts) == 0 {
		return domain.StocktakeResult{}, fmt.Errorf("%w: stocktake needs a warehouse and counts", store.ErrValidation)
	}

	ids := make([]string, 0, len(req.Counts))
	for _, count := range req.Counts {
		ids = append(ids, count.IngredientID)
	}
	ingredients, err := s.repo.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return domain.StocktakeResult{}, err
	}

	var surplus, shortage []domain.InventoryDocItem
	for _, count := range req.Counts {
		ing, ok := ingredients[count.IngredientID]
		if !ok {
			log.Printf("[inventory] WARN stocktake count for unknown ingredient %s skipped", count.IngredientID)
			continue
		}
		current, err := s.repo.GetStock(ctx, req.WarehouseID, count.IngredientID)
		if err != nil {
			return domain.StocktakeResult{}, err
		}
		diff := count.CountedMilli - current
		switch {
		case diff > 0:
			surplus = append(surplus, domain.InventoryDocItem{IngredientID: count.IngredientID, QtyMilli: diff, PriceCents: ing.CostCents})
		case diff < 0:
			shortage = append(shortage, domain.InventoryDocItem{IngredientID: count.IngredientID, QtyMilli: -diff, PriceCents: ing.CostCents})
		}
	}

	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		comment = "stocktake adjustment"
	}

	var result domain.StocktakeResult
	if len(surplus) > 0 {
		doc, err := s.repo.PostInventoryDoc(ctx, domain.InventoryDoc{
			Type:              domain.DocTypeSupply,
			TargetWarehouseID: req.WarehouseID,
			Comment:           comment + " (surplus)",
			CreatedAt:         time.Now().UTC(),
			Items:             surplus,
		})
		if err != nil {
			return domain.StocktakeResult{}, err
		}
		result.SurplusDoc = doc
	}
	if len(shortage) > 0 {
		doc, err := s.repo.PostInventoryDoc(ctx, domain.InventoryDoc{
			Type:              domain.DocTypeWriteoff,
			SourceWarehouseID: req.WarehouseID,
			Comment:           comment + " (shortage)",
			CreatedAt:         time.Now().UTC(),
			Items:             shortage,
		})
		if err != nil {
			return domain.StocktakeResult{}, err
		}
		result.ShortageDoc = doc
	}

	s.logAudit(ctx, "stocktake", fmt.Sprintf("warehouse=%s,surplus=%d,shortage=%d", req.WarehouseID, len(surplus), len(shortage)))
	return result, nil
}

// ProcessProduction turns raw components into a batch of a semi-finished
// good: its recipe is expanded one level, the components are written off and
// the produced quantity is supplied back at the computed unit cost.
func (s *Service) ProcessProduction(ctx context.Context, req domain.ProductionRequest) (domain.ProductionResult, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.ProductionResult{}, err
	}
	if req.QtyMilli <= 0 {
		return domain.ProductionResult{}, fmt.Errorf("%w: production quantity must be positive", store.ErrValidation)
	}

	produced, err := s.repo.GetIngredient(ctx, req.IngredientID)
	if err != nil {
		return domain.ProductionResult{}, err
	}
	if !produced.IsSemiFinished {
		return domain.ProductionResult{}, fmt.Errorf("%w: %s is not a semi-finished good", store.ErrValidation, produced.Name)
	}

	components, err := s.repo.ListRecipeComponents(ctx)
	if err != nil {
		return domain.ProductionResult{}, err
	}
	var recipe []domain.RecipeComponent
	for _, comp := range components {
		if comp.ParentID == req.IngredientID {
			recipe = append(recipe, comp)
		}
	}
	if len(recipe) == 0 {
		return domain.ProductionResult{}, fmt.Errorf("%w: %s has no recipe", store.ErrValidation, produced.Name)
	}

	ids := make([]string, 0, len(recipe))
	for _, comp := range recipe {
		ids = append(ids, comp.ChildID)
	}
	ingredients, err := s.repo.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return domain.ProductionResult{}, err
	}

	var rawItems []domain.InventoryDocItem
	var batchCost int64
	for _, comp := range recipe {
		qty := req.QtyMilli * comp.GrossMilli / 1000
		if qty <= 0 {
			continue
		}
		ing, ok := ingredients[comp.ChildID]
		if !ok {
			log.Printf("[inventory] WARN production component %s missing, skipped", comp.ChildID)
			continue
		}
		rawItems = append(rawItems, domain.InventoryDocItem{IngredientID: comp.ChildID, QtyMilli: qty, PriceCents: ing.CostCents})
		batchCost += ing.CostCents * qty / 1000
	}
	if len(rawItems) == 0 {
		return domain.ProductionResult{}, fmt.Errorf("%w: recipe resolved to no components", store.ErrValidation)
	}

	unitCost := batchCost * 1000 / req.QtyMilli

	writeoff, err := s.repo.PostInventoryDoc(ctx, domain.InventoryDoc{
		Type:              domain.DocTypeWriteoff,
		SourceWarehouseID: req.WarehouseID,
		Comment:           fmt.Sprintf("production of %s", produced.Name),
		CreatedAt:         time.Now().UTC(),
		Items:             rawItems,
	})
	if err != nil {
		return domain.ProductionResult{}, err
	}

	supply, err := s.repo.PostInventoryDoc(ctx, domain.InventoryDoc{
		Type:              domain.DocTypeSupply,
		TargetWarehouseID: req.WarehouseID,
		Comment:           fmt.Sprintf("production of %s", produced.Name),
		CreatedAt:         time.Now().UTC(),
		Items:             []domain.InventoryDocItem{{IngredientID: req.IngredientID, QtyMilli: req.QtyMilli, PriceCents: unitCost}},
	})
	if err != nil {
		return domain.ProductionResult{}, err
	}

	s.logAudit(ctx, "production", fmt.Sprintf("ingredient=%s,qty=%d,unit_cost=%d", req.IngredientID, req.QtyMilli, unitCost))
	return domain.ProductionResult{WriteoffDoc: writeoff, SupplyDoc: supply, UnitCostCents: unitCost}, nil
}

func (s *Service) ListStockLevels(ctx context.Context, warehouseID string) ([]domain.StockLevel, error) {
	return s.repo.ListStockLevels(ctx, warehouseID)
}

func (s *Service) ListInventoryDocs(ctx context.Context, docType string, limit int) ([]domain.InventoryDoc, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListInventoryDocs(ctx, docType, limit)
}

// ReorderReport scores what a warehouse should restock, from consumption
// over the trailing window.
func (s *Service) ReorderReport(ctx context.Context, warehouseID string, windowDays int) (domain.ReorderReport, error) {
	if windowDays < 1 {
		windowDays = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	consumed, err := s.repo.ConsumptionSince(ctx, warehouseID, since)
	if err != nil {
		return domain.ReorderReport{}, err
	}
	onHand, err := s.repo.ListStockLevels(ctx, warehouseID)
	if err != nil {
		return domain.ReorderReport{}, err
	}
	ids := make([]string, 0, len(consumed))
	for id := range consumed {
		ids = append(ids, id)
	}
	ingredients, err := s.repo.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return domain.ReorderReport{}, err
	}
	return s.reorder.Suggest(ctx, warehouseID, windowDays, onHand, consumed, ingredients), nil
}
