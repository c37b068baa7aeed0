package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"restodesk/backend/internal/domain"
	"restodesk/backend/internal/store"
)

// deductionInstruction is one resolved stock movement: take QtyMilli of the
// ingredient from the warehouse.
type deductionInstruction struct {
	WarehouseID  string
	IngredientID string
	QtyMilli     int64
}

// recipeGraph carries everything needed to expand an order into flat
// deduction instructions, loaded once per resolution.
type recipeGraph struct {
	warehouses  map[string]domain.Warehouse
	fallbackID  string
	ingredients map[string]domain.Ingredient
	components  map[string][]domain.RecipeComponent
}

func (s *Service) loadRecipeGraph(ctx context.Context) (*recipeGraph, error) {
	warehouses, err := s.repo.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.repo.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}
	components, err := s.repo.ListRecipeComponents(ctx)
	if err != nil {
		return nil, err
	}

	graph := &recipeGraph{
		warehouses:  make(map[string]domain.Warehouse, len(warehouses)),
		ingredients: make(map[string]domain.Ingredient, len(ingredients)),
		components:  make(map[string][]domain.RecipeComponent),
	}
	for _, wh := range warehouses {
		graph.warehouses[wh.ID] = wh
		if graph.fallbackID == "" && !wh.IsProduction {
			graph.fallbackID = wh.ID
		}
	}
	if graph.fallbackID == "" && len(warehouses) > 0 {
		graph.fallbackID = warehouses[0].ID
	}
	for _, ing := range ingredients {
		graph.ingredients[ing.ID] = ing
	}
	for _, comp := range components {
		graph.components[comp.ParentID] = append(graph.components[comp.ParentID], comp)
	}
	return graph, nil
}

// storageFor resolves the warehouse a deduction actually posts against. A
// production station (kitchen, bar) holds no stock of its own; its linked
// warehouse is used instead, one hop only.
func (g *recipeGraph) storageFor(warehouseID string) string {
	if warehouseID == "" {
		return g.fallbackID
	}
	wh, ok := g.warehouses[warehouseID]
	if !ok {
		return g.fallbackID
	}
	if wh.IsProduction && wh.LinkedWarehouseID != "" {
		if _, ok := g.warehouses[wh.LinkedWarehouseID]; ok {
			return wh.LinkedWarehouseID
		}
	}
	return wh.ID
}

// expand walks the semi-finished composition down to plain ingredients,
// multiplying gross ratios. A visited set guards against legacy cyclic data;
// configuration-time validation rejects new cycles, so hitting one here only
// logs and skips.
func (g *recipeGraph) expand(ingredientID string, qtyMilli int64, warehouseID string, visited map[string]bool, out *[]deductionInstruction) {
	if qtyMilli <= 0 {
		return
	}
	ing, ok := g.ingredients[ingredientID]
	if !ok {
		log.Printf("[inventory] WARN unknown ingredient %s skipped during deduction", ingredientID)
		return
	}
	comps := g.components[ingredientID]
	if !ing.IsSemiFinished || len(comps) == 0 {
		*out = append(*out, deductionInstruction{WarehouseID: warehouseID, IngredientID: ingredientID, QtyMilli: qtyMilli})
		return
	}
	if visited[ingredientID] {
		log.Printf("[inventory] WARN recipe cycle at %s skipped during deduction", ingredientID)
		return
	}
	visited[ingredientID] = true
	for _, comp := range comps {
		g.expand(comp.ChildID, qtyMilli*comp.GrossMilli/1000, warehouseID, visited, out)
	}
	delete(visited, ingredientID)
}

// resolveOrder turns an order's lines, their modifiers and the matching
// auto-deduction rules into flat per-warehouse instructions. Data gaps
// (missing tech card, ingredient or warehouse) are skipped with a warning so
// one bad dish never blocks the rest of the order.
func (s *Service) resolveOrder(ctx context.Context, order *domain.Order) ([]deductionInstruction, error) {
	graph, err := s.loadRecipeGraph(ctx)
	if err != nil {
		return nil, err
	}

	takeaway := order.Type != domain.OrderTypeInHouse
	instructions := make([]deductionInstruction, 0, len(order.Lines)*2)

	for _, line := range order.Lines {
		if line.Qty <= 0 {
			continue
		}
		card, err := s.repo.GetTechCardByProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Printf("[inventory] WARN product %s has no tech card, order %s line skipped", line.ProductID, order.ID)
				continue
			}
			return nil, err
		}
		warehouseID := graph.storageFor(card.WarehouseID)
		if warehouseID == "" {
			log.Printf("[inventory] WARN no warehouse resolvable for product %s, order %s line skipped", line.ProductID, order.ID)
			continue
		}
		for _, item := range card.Items {
			if item.TakeawayOnly && !takeaway {
				continue
			}
			qty := item.NetMilli * int64(line.Qty)
			graph.expand(item.IngredientID, qty, warehouseID, map[string]bool{}, &instructions)
		}

		for _, lineMod := range line.Modifiers {
			mod, err := s.repo.GetModifier(ctx, lineMod.ModifierID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					log.Printf("[inventory] WARN modifier %s missing, order %s line skipped", lineMod.ModifierID, order.ID)
					continue
				}
				return nil, err
			}
			count := int64(lineMod.Qty)
			if count < 1 {
				count = 1
			}
			modWarehouse := graph.storageFor(mod.WarehouseID)
			if modWarehouse == "" {
				log.Printf("[inventory] WARN no warehouse for modifier %s, order %s skipped", mod.ID, order.ID)
				continue
			}
			instructions = append(instructions, deductionInstruction{
				WarehouseID:  modWarehouse,
				IngredientID: mod.IngredientID,
				QtyMilli:     mod.QtyMilli * count * int64(line.Qty),
			})
		}
	}

	rules, err := s.repo.ListAutoDeductionRules(ctx)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		if rule.TriggerType != domain.TriggerAll && rule.TriggerType != order.Type {
			continue
		}
		warehouseID := graph.storageFor(rule.WarehouseID)
		if warehouseID == "" {
			log.Printf("[inventory] WARN no warehouse for rule %s, order %s skipped", rule.ID, order.ID)
			continue
		}
		instructions = append(instructions, deductionInstruction{
			WarehouseID:  warehouseID,
			IngredientID: rule.IngredientID,
			QtyMilli:     rule.QtyMilli,
		})
	}

	return mergeInstructions(instructions), nil
}

// mergeInstructions folds duplicate (warehouse, ingredient) pairs and sorts
// the result so downstream documents are deterministic.
func mergeInstructions(instructions []deductionInstruction) []deductionInstruction {
	type key struct{ warehouseID, ingredientID string }
	merged := make(map[key]int64, len(instructions))
	for _, inst := range instructions {
		if inst.QtyMilli <= 0 {
			continue
		}
		merged[key{inst.WarehouseID, inst.IngredientID}] += inst.QtyMilli
	}

	result := make([]deductionInstruction, 0, len(merged))
	for k, qty := range merged {
		result = append(result, deductionInstruction{WarehouseID: k.warehouseID, IngredientID: k.ingredientID, QtyMilli: qty})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].WarehouseID == result[j].WarehouseID {
			return result[i].IngredientID < result[j].IngredientID
		}
		return result[i].WarehouseID < result[j].WarehouseID
	})
	return result
}

// SaveRecipeComponents replaces a semi-finished ingredient's composition.
// The new edge set is checked against the rest of the graph so a cycle can
// never be configured.
func (s *Service) SaveRecipeComponents(ctx context.Context, parentID string, components []domain.RecipeComponent) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	existing, err := s.repo.ListRecipeComponents(ctx)
	if err != nil {
		return err
	}
	adjacency := make(map[string][]string)
	for _, comp := range existing {
		if comp.ParentID == parentID {
			continue
		}
		adjacency[comp.ParentID] = append(adjacency[comp.ParentID], comp.ChildID)
	}
	for _, comp := range components {
		if comp.ParentID != parentID {
			return fmt.Errorf("%w: component parent mismatch", store.ErrValidation)
		}
		adjacency[parentID] = append(adjacency[parentID], comp.ChildID)
	}

	if hasPathBack(adjacency, parentID) {
		return store.ErrRecipeCycle
	}

	if err := s.repo.ReplaceRecipeComponents(ctx, parentID, components); err != nil {
		return err
	}
	s.logAudit(ctx, "recipe_save", fmt.Sprintf("parent=%s,components=%d", parentID, len(components)))
	return nil
}

// hasPathBack reports whether any walk from start's children reaches start
// again, i.e. the proposed edges close a cycle.
func hasPathBack(adjacency map[string][]string, start string) bool {
	stack := append([]string{}, adjacency[start]...)
	seen := map[string]bool{}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == start {
			return true
		}
		if seen[node] {
			continue
		}
		seen[node] = true
		stack = append(stack, adjacency[node]...)
	}
	return false
}
