package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"restodesk/backend/internal/domain"
	"restodesk/backend/internal/store"
	"restodesk/backend/internal/xid"
)

type Store struct {
	mu               sync.RWMutex
	warehouses       map[string]domain.Warehouse
	ingredients      map[string]domain.Ingredient
	recipeComponents map[string][]domain.RecipeComponent
	techCards        map[string]domain.TechCard
	modifiers        map[string]domain.Modifier
	autoRules        map[string]domain.AutoDeductionRule
	suppliers        map[string]domain.Supplier
	employees        map[string]domain.Employee
	balanceHistory   []domain.BalanceHistory
	stock            map[string]map[string]int64
	docs             map[string]domain.InventoryDoc
	docIDs           []string
	orders           map[string]domain.Order
	shifts           map[string]domain.CashShift
	openShiftID      string
	cashTxs          []domain.CashTransaction
	auditLogs        []domain.AuditLog
	usersByUsername  map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		warehouses:       make(map[string]domain.Warehouse),
		ingredients:      make(map[string]domain.Ingredient),
		recipeComponents: make(map[string][]domain.RecipeComponent),
		techCards:        make(map[string]domain.TechCard),
		modifiers:        make(map[string]domain.Modifier),
		autoRules:        make(map[string]domain.AutoDeductionRule),
		suppliers:        make(map[string]domain.Supplier),
		employees:        make(map[string]domain.Employee),
		balanceHistory:   make([]domain.BalanceHistory, 0, 64),
		stock:            make(map[string]map[string]int64),
		docs:             make(map[string]domain.InventoryDoc),
		docIDs:           make([]string, 0, 64),
		orders:           make(map[string]domain.Order),
		shifts:           make(map[string]domain.CashShift),
		cashTxs:          make([]domain.CashTransaction, 0, 64),
		auditLogs:        make([]domain.AuditLog, 0, 128),
		usersByUsername:  seedUsers(),
	}
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; if
// unset, hardcoded dev defaults are used with a warning. These accounts are
// never used in production (the backend uses PostgreSQL when DATABASE_URL is
// set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store preloaded with a small demo restaurant: a main
// storage warehouse, a production kitchen linked to it, a bar, a handful of
// ingredients including one semi-finished good, a tech card, a packaging
// rule and two employees.
func NewSeeded() *Store {
	s := New()

	warehouses := []domain.Warehouse{
		{ID: "wh-main", Name: "Main Storage"},
		{ID: "wh-bar", Name: "Bar"},
		{ID: "wh-kitchen", Name: "Kitchen", IsProduction: true, LinkedWarehouseID: "wh-main"},
	}
	for _, wh := range warehouses {
		s.warehouses[wh.ID] = wh
	}

	ingredients := []domain.Ingredient{
		{ID: "ing-beets", Name: "Beets", Unit: "kg", CostCents: 250},
		{ID: "ing-flour", Name: "Flour", Unit: "kg", CostCents: 180},
		{ID: "ing-water", Name: "Water", Unit: "l", CostCents: 10},
		{ID: "ing-dough", Name: "Dough", Unit: "kg", CostCents: 160, IsSemiFinished: true},
		{ID: "ing-cola", Name: "Cola Bottle", Unit: "pcs", CostCents: 90},
		{ID: "ing-box", Name: "Delivery Box", Unit: "pcs", CostCents: 45},
	}
	for _, ing := range ingredients {
		s.ingredients[ing.ID] = ing
	}

	s.recipeComponents["ing-dough"] = []domain.RecipeComponent{
		{ParentID: "ing-dough", ChildID: "ing-flour", GrossMilli: 800},
		{ParentID: "ing-dough", ChildID: "ing-water", GrossMilli: 200},
	}

	s.techCards["prod-borsch"] = domain.TechCard{
		ID:          "tc-borsch",
		ProductID:   "prod-borsch",
		Name:        "Borsch",
		WarehouseID: "wh-kitchen",
		Items: []domain.TechCardItem{
			{IngredientID: "ing-beets", GrossMilli: 350, NetMilli: 300},
			{IngredientID: "ing-dough", GrossMilli: 50, NetMilli: 50},
		},
	}

	s.modifiers["mod-cola"] = domain.Modifier{
		ID: "mod-cola", Name: "Cola", IngredientID: "ing-cola", QtyMilli: 1000, WarehouseID: "wh-bar", PriceCents: 250,
	}

	s.autoRules["rule-box"] = domain.AutoDeductionRule{
		ID: "rule-box", Name: "Delivery packaging", TriggerType: domain.TriggerDelivery,
		IngredientID: "ing-box", QtyMilli: 1000, WarehouseID: "wh-main",
	}

	s.employees["emp-courier"] = domain.Employee{
		ID: "emp-courier", Name: "Demo Courier", Active: true,
		Capabilities: []domain.Capability{domain.CapAcceptCash},
	}
	s.employees["emp-manager"] = domain.Employee{
		ID: "emp-manager", Name: "Demo Manager", Active: true,
		Capabilities: []domain.Capability{domain.CapManageOrders, domain.CapCancelOrders, domain.CapAcceptCash, domain.CapManageStock},
	}

	s.stock["wh-main"] = map[string]int64{
		"ing-beets": 10000, "ing-flour": 20000, "ing-water": 50000, "ing-box": 200000,
	}
	s.stock["wh-bar"] = map[string]int64{"ing-cola": 48000}

	return s
}

// --- catalog / configuration ---

func (s *Store) CreateWarehouse(_ context.Context, wh domain.Warehouse) (*domain.Warehouse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(wh.Name) == "" {
		return nil, fmt.Errorf("%w: warehouse name is required", store.ErrValidation)
	}
	if wh.ID == "" {
		wh.ID = xid.New("wh")
	}
	if _, exists := s.warehouses[wh.ID]; exists {
		return nil, fmt.Errorf("%w: warehouse %s exists", store.ErrValidation, wh.ID)
	}
	if wh.LinkedWarehouseID != "" {
		if _, ok := s.warehouses[wh.LinkedWarehouseID]; !ok {
			return nil, store.ErrNotFound
		}
	}
	s.warehouses[wh.ID] = wh
	created := wh
	return &created, nil
}

func (s *Store) GetWarehouse(_ context.Context, id string) (*domain.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wh, ok := s.warehouses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyWh := wh
	return &copyWh, nil
}

func (s *Store) ListWarehouses(_ context.Context) ([]domain.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Warehouse, 0, len(s.warehouses))
	for _, wh := range s.warehouses {
		result = append(result, wh)
	}
	slices.SortFunc(result, func(a, b domain.Warehouse) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

func (s *Store) CreateIngredient(_ context.Context, ing domain.Ingredient) (*domain.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(ing.Name) == "" || strings.TrimSpace(ing.Unit) == "" {
		return nil, fmt.Errorf("%w: ingredient name and unit are required", store.ErrValidation)
	}
	if ing.ID == "" {
		ing.ID = xid.New("ing")
	}
	if _, exists := s.ingredients[ing.ID]; exists {
		return nil, fmt.Errorf("%w: ingredient %s exists", store.ErrValidation, ing.ID)
	}
	s.ingredients[ing.ID] = ing
	created := ing
	return &created, nil
}

func (s *Store) GetIngredient(_ context.Context, id string) (*domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ing, ok := s.ingredients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyIng := ing
	return &copyIng, nil
}

func (s *Store) ListIngredients(_ context.Context) ([]domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Ingredient, 0, len(s.ingredients))
	for _, ing := range s.ingredients {
		result = append(result, ing)
	}
	slices.SortFunc(result, func(a, b domain.Ingredient) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

func (s *Store) GetIngredientsByIDs(_ context.Context, ids []string) (map[string]domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Ingredient, len(ids))
	for _, id := range ids {
		if ing, ok := s.ingredients[id]; ok {
			result[id] = ing
		}
	}
	return result, nil
}

func (s *Store) UpdateIngredientCost(_ context.Context, id string, costCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ing, ok := s.ingredients[id]
	if !ok {
		return store.ErrNotFound
	}
	if costCents < 0 {
		return fmt.Errorf("%w: cost must not be negative", store.ErrValidation)
	}
	ing.CostCents = costCents
	s.ingredients[id] = ing
	return nil
}

func (s *Store) ReplaceRecipeComponents(_ context.Context, parentID string, components []domain.RecipeComponent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ingredients[parentID]; !ok {
		return store.ErrNotFound
	}
	for _, comp := range components {
		if comp.ParentID != parentID {
			return fmt.Errorf("%w: component parent mismatch", store.ErrValidation)
		}
		if comp.GrossMilli <= 0 {
			return fmt.Errorf("%w: component amount must be positive", store.ErrValidation)
		}
		if _, ok := s.ingredients[comp.ChildID]; !ok {
			return store.ErrNotFound
		}
	}
	if len(components) == 0 {
		delete(s.recipeComponents, parentID)
		return nil
	}
	replaced := make([]domain.RecipeComponent, len(components))
	copy(replaced, components)
	s.recipeComponents[parentID] = replaced
	return nil
}

func (s *Store) ListRecipeComponents(_ context.Context) ([]domain.RecipeComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.RecipeComponent, 0, len(s.recipeComponents)*2)
	for _, comps := range s.recipeComponents {
		result = append(result, comps...)
	}
	slices.SortFunc(result, func(a, b domain.RecipeComponent) int {
		if a.ParentID == b.ParentID {
			return strings.Compare(a.ChildID, b.ChildID)
		}
		return strings.Compare(a.ParentID, b.ParentID)
	})
	return result, nil
}

func (s *Store) CreateTechCard(_ context.Context, card domain.TechCard) (*domain.TechCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if card.ProductID == "" || len(card.Items) == 0 {
		return nil, fmt.Errorf("%w: tech card needs a product and items", store.ErrValidation)
	}
	if _, exists := s.techCards[card.ProductID]; exists {
		return nil, fmt.Errorf("%w: product %s already has a tech card", store.ErrValidation, card.ProductID)
	}
	for _, item := range card.Items {
		if _, ok := s.ingredients[item.IngredientID]; !ok {
			return nil, store.ErrNotFound
		}
		if item.NetMilli <= 0 {
			return nil, fmt.Errorf("%w: item net amount must be positive", store.ErrValidation)
		}
	}
	if card.ID == "" {
		card.ID = xid.New("tc")
	}
	card.Items = slices.Clone(card.Items)
	s.techCards[card.ProductID] = card
	created := card
	return &created, nil
}

func (s *Store) GetTechCardByProduct(_ context.Context, productID string) (*domain.TechCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.techCards[productID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyCard := card
	copyCard.Items = slices.Clone(card.Items)
	return &copyCard, nil
}

func (s *Store) ListTechCards(_ context.Context) ([]domain.TechCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.TechCard, 0, len(s.techCards))
	for _, card := range s.techCards {
		card.Items = slices.Clone(card.Items)
		result = append(result, card)
	}
	slices.SortFunc(result, func(a, b domain.TechCard) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

func (s *Store) CreateModifier(_ context.Context, mod domain.Modifier) (*domain.Modifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(mod.Name) == "" || mod.IngredientID == "" || mod.QtyMilli <= 0 {
		return nil, fmt.Errorf("%w: modifier needs a name, ingredient and quantity", store.ErrValidation)
	}
	if _, ok := s.ingredients[mod.IngredientID]; !ok {
		return nil, store.ErrNotFound
	}
	if mod.ID == "" {
		mod.ID = xid.New("mod")
	}
	s.modifiers[mod.ID] = mod
	created := mod
	return &created, nil
}

func (s *Store) GetModifier(_ context.Context, id string) (*domain.Modifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mod, ok := s.modifiers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyMod := mod
	return &copyMod, nil
}

func (s *Store) ListModifiers(_ context.Context) ([]domain.Modifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Modifier, 0, len(s.modifiers))
	for _, mod := range s.modifiers {
		result = append(result, mod)
	}
	slices.SortFunc(result, func(a, b domain.Modifier) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

func (s *Store) CreateAutoDeductionRule(_ context.Context, rule domain.AutoDeductionRule) (*domain.AutoDeductionRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch rule.TriggerType {
	case domain.TriggerDelivery, domain.TriggerPickup, domain.TriggerInHouse, domain.TriggerAll:
	default:
		return nil, fmt.Errorf("%w: unknown trigger type %q", store.ErrValidation, rule.TriggerType)
	}
	if rule.IngredientID == "" || rule.WarehouseID == "" || rule.QtyMilli <= 0 {
		return nil, fmt.Errorf("%w: rule needs an ingredient, warehouse and quantity", store.ErrValidation)
	}
	if _, ok := s.ingredients[rule.IngredientID]; !ok {
		return nil, store.ErrNotFound
	}
	if _, ok := s.warehouses[rule.WarehouseID]; !ok {
		return nil, store.ErrNotFound
	}
	if rule.ID == "" {
		rule.ID = xid.New("rule")
	}
	s.autoRules[rule.ID] = rule
	created := rule
	return &created, nil
}

func (s *Store) ListAutoDeductionRules(_ context.Context) ([]domain.AutoDeductionRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AutoDeductionRule, 0, len(s.autoRules))
	for _, rule := range s.autoRules {
		result = append(result, rule)
	}
	slices.SortFunc(result, func(a, b domain.AutoDeductionRule) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(supplier.Name) == "" {
		return nil, fmt.Errorf("%w: supplier name is required", store.ErrValidation)
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	s.suppliers[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		result = append(result, sup)
	}
	slices.SortFunc(result, func(a, b domain.Supplier) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

func (s *Store) GetSupplierDebts(_ context.Context) ([]domain.SupplierDebt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]*domain.SupplierDebt, len(s.suppliers))
	for id, sup := range s.suppliers {
		byID[id] = &domain.SupplierDebt{SupplierID: id, Name: sup.Name}
	}
	for _, docID := range s.docIDs {
		doc := s.docs[docID]
		if doc.Type != domain.DocTypeSupply || doc.SupplierID == "" {
			continue
		}
		debt, ok := byID[doc.SupplierID]
		if !ok {
			continue
		}
		debt.DeliveredCents += docValueCents(doc)
		debt.PaidCents += doc.PaidCents
	}
	result := make([]domain.SupplierDebt, 0, len(byID))
	for _, debt := range byID {
		debt.OutstandingCents = debt.DeliveredCents - debt.PaidCents
		result = append(result, *debt)
	}
	slices.SortFunc(result, func(a, b domain.SupplierDebt) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

// ApplySupplierPayment spreads a payment over the supplier's unpaid supply
// documents, oldest first, and returns the unapplied remainder.
func (s *Store) ApplySupplierPayment(_ context.Context, supplierID string, amountCents int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amountCents <= 0 {
		return 0, fmt.Errorf("%w: payment must be positive", store.ErrValidation)
	}
	if _, ok := s.suppliers[supplierID]; !ok {
		return 0, store.ErrNotFound
	}

	remaining := amountCents
	for _, docID := range s.docIDs {
		if remaining <= 0 {
			break
		}
		doc := s.docs[docID]
		if doc.Type != domain.DocTypeSupply || doc.SupplierID != supplierID {
			continue
		}
		due := docValueCents(doc) - doc.PaidCents
		if due <= 0 {
			continue
		}
		applied := min(due, remaining)
		doc.PaidCents += applied
		remaining -= applied
		s.docs[docID] = doc
	}
	return remaining, nil
}

func docValueCents(doc domain.InventoryDoc) int64 {
	var total int64
	for _, item := range doc.Items {
		total += item.PriceCents * item.QtyMilli / 1000
	}
	return total
}

// --- employees and custody ---

func (s *Store) CreateEmployee(_ context.Context, emp domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(emp.Name) == "" {
		return nil, fmt.Errorf("%w: employee name is required", store.ErrValidation)
	}
	if emp.ID == "" {
		emp.ID = xid.New("emp")
	}
	if _, exists := s.employees[emp.ID]; exists {
		return nil, fmt.Errorf("%w: employee %s exists", store.ErrValidation, emp.ID)
	}
	emp.Capabilities = slices.Clone(emp.Capabilities)
	s.employees[emp.ID] = emp
	created := emp
	return &created, nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, ok := s.employees[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyEmp := emp
	copyEmp.Capabilities = slices.Clone(emp.Capabilities)
	return &copyEmp, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		emp.Capabilities = slices.Clone(emp.Capabilities)
		result = append(result, emp)
	}
	slices.SortFunc(result, func(a, b domain.Employee) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

func (s *Store) ListDebtors(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Employee, 0)
	for _, emp := range s.employees {
		if emp.CashBalanceCents > 0 {
			emp.Capabilities = slices.Clone(emp.Capabilities)
			result = append(result, emp)
		}
	}
	slices.SortFunc(result, func(a, b domain.Employee) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

func (s *Store) AdjustEmployeeBalance(_ context.Context, employeeID string, deltaCents int64, reason string, clampToZero bool, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.adjustBalanceLocked(employeeID, deltaCents, reason, clampToZero, at)
}

func (s *Store) adjustBalanceLocked(employeeID string, deltaCents int64, reason string, clampToZero bool, at time.Time) (int64, error) {
	emp, ok := s.employees[employeeID]
	if !ok {
		return 0, store.ErrNotFound
	}
	newBalance := emp.CashBalanceCents + deltaCents
	if newBalance < 0 {
		if !clampToZero {
			return 0, fmt.Errorf("%w: balance would go negative", store.ErrValidation)
		}
		log.Printf("[memory-store] WARN balance of %s clamped to zero (was %d, delta %d)", employeeID, emp.CashBalanceCents, deltaCents)
		newBalance = 0
	}
	emp.CashBalanceCents = newBalance
	s.employees[employeeID] = emp
	s.balanceHistory = append(s.balanceHistory, domain.BalanceHistory{
		ID:              xid.New("bal"),
		EmployeeID:      employeeID,
		AmountCents:     deltaCents,
		NewBalanceCents: newBalance,
		Reason:          reason,
		CreatedAt:       at,
	})
	return newBalance, nil
}

func (s *Store) ListBalanceHistory(_ context.Context, employeeID string, limit int) ([]domain.BalanceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.BalanceHistory, 0)
	for _, entry := range s.balanceHistory {
		if employeeID == "" || entry.EmployeeID == employeeID {
			result = append(result, entry)
		}
	}
	slices.Reverse(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- stock ledger and movement documents ---

func (s *Store) AdjustStock(_ context.Context, warehouseID string, ingredientID string, deltaMilli int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.adjustStockLocked(warehouseID, ingredientID, deltaMilli), nil
}

func (s *Store) adjustStockLocked(warehouseID string, ingredientID string, deltaMilli int64) int64 {
	levels, ok := s.stock[warehouseID]
	if !ok {
		levels = make(map[string]int64)
		s.stock[warehouseID] = levels
	}
	levels[ingredientID] += deltaMilli
	return levels[ingredientID]
}

func (s *Store) GetStock(_ context.Context, warehouseID string, ingredientID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stock[warehouseID][ingredientID], nil
}

func (s *Store) ListStockLevels(_ context.Context, warehouseID string) ([]domain.StockLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockLevel, 0, len(s.stock[warehouseID]))
	for ingID, qty := range s.stock[warehouseID] {
		result = append(result, domain.StockLevel{WarehouseID: warehouseID, IngredientID: ingID, QtyMilli: qty})
	}
	slices.SortFunc(result, func(a, b domain.StockLevel) int { return strings.Compare(a.IngredientID, b.IngredientID) })
	return result, nil
}

func (s *Store) PostInventoryDoc(_ context.Context, doc domain.InventoryDoc) (*domain.InventoryDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posted, err := s.postDocLocked(doc)
	if err != nil {
		return nil, err
	}
	return posted, nil
}

// postDocLocked validates the whole document before mutating anything, so a
// bad item never leaves a half-applied document behind.
func (s *Store) postDocLocked(doc domain.InventoryDoc) (*domain.InventoryDoc, error) {
	if len(doc.Items) == 0 {
		return nil, fmt.Errorf("%w: document has no items", store.ErrValidation)
	}
	switch doc.Type {
	case domain.DocTypeSupply, domain.DocTypeReturn:
		if _, ok := s.warehouses[doc.TargetWarehouseID]; !ok {
			return nil, fmt.Errorf("%w: target warehouse required", store.ErrValidation)
		}
	case domain.DocTypeWriteoff, domain.DocTypeDeduction:
		if _, ok := s.warehouses[doc.SourceWarehouseID]; !ok {
			return nil, fmt.Errorf("%w: source warehouse required", store.ErrValidation)
		}
	case domain.DocTypeTransfer:
		if _, ok := s.warehouses[doc.SourceWarehouseID]; !ok {
			return nil, fmt.Errorf("%w: source warehouse required", store.ErrValidation)
		}
		if _, ok := s.warehouses[doc.TargetWarehouseID]; !ok {
			return nil, fmt.Errorf("%w: target warehouse required", store.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown document type %q", store.ErrValidation, doc.Type)
	}
	for _, item := range doc.Items {
		if item.QtyMilli <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", store.ErrValidation)
		}
		if _, ok := s.ingredients[item.IngredientID]; !ok {
			return nil, store.ErrNotFound
		}
	}

	if doc.ID == "" {
		doc.ID = xid.New("doc")
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	for _, item := range doc.Items {
		switch doc.Type {
		case domain.DocTypeSupply:
			if item.PriceCents > 0 {
				s.updateMovingCostLocked(item.IngredientID, item.QtyMilli, item.PriceCents)
			}
			s.adjustStockLocked(doc.TargetWarehouseID, item.IngredientID, item.QtyMilli)
		case domain.DocTypeReturn:
			s.adjustStockLocked(doc.TargetWarehouseID, item.IngredientID, item.QtyMilli)
		case domain.DocTypeTransfer:
			s.adjustStockLocked(doc.SourceWarehouseID, item.IngredientID, -item.QtyMilli)
			s.adjustStockLocked(doc.TargetWarehouseID, item.IngredientID, item.QtyMilli)
		case domain.DocTypeWriteoff, domain.DocTypeDeduction:
			s.adjustStockLocked(doc.SourceWarehouseID, item.IngredientID, -item.QtyMilli)
		}
	}

	doc.Processed = true
	doc.Items = slices.Clone(doc.Items)
	s.docs[doc.ID] = doc
	s.docIDs = append(s.docIDs, doc.ID)
	posted := doc
	posted.Items = slices.Clone(doc.Items)
	return &posted, nil
}

// updateMovingCostLocked folds a supplied batch into the ingredient's moving
// average cost, weighted by the total on-hand quantity across warehouses.
func (s *Store) updateMovingCostLocked(ingredientID string, qtyMilli int64, priceCents int64) {
	ing, ok := s.ingredients[ingredientID]
	if !ok {
		return
	}
	var onHand int64
	for _, levels := range s.stock {
		if q := levels[ingredientID]; q > 0 {
			onHand += q
		}
	}
	if onHand+qtyMilli <= 0 {
		ing.CostCents = priceCents
	} else {
		ing.CostCents = (ing.CostCents*onHand + priceCents*qtyMilli) / (onHand + qtyMilli)
	}
	s.ingredients[ingredientID] = ing
}

func (s *Store) ListInventoryDocs(_ context.Context, docType string, limit int) ([]domain.InventoryDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.InventoryDoc, 0, len(s.docIDs))
	for i := len(s.docIDs) - 1; i >= 0; i-- {
		doc := s.docs[s.docIDs[i]]
		if docType != "" && doc.Type != docType {
			continue
		}
		doc.Items = slices.Clone(doc.Items)
		result = append(result, doc)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) ListInventoryDocsByOrder(_ context.Context, orderID string, docType string) ([]domain.InventoryDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.InventoryDoc, 0, 2)
	for _, docID := range s.docIDs {
		doc := s.docs[docID]
		if doc.LinkedOrderID != orderID {
			continue
		}
		if docType != "" && doc.Type != docType {
			continue
		}
		doc.Items = slices.Clone(doc.Items)
		result = append(result, doc)
	}
	return result, nil
}

func (s *Store) ConvertOrderDeductionsToWriteoff(_ context.Context, orderID string, comment string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	converted := 0
	for _, docID := range s.docIDs {
		doc := s.docs[docID]
		if doc.LinkedOrderID != orderID || doc.Type != domain.DocTypeDeduction {
			continue
		}
		doc.Type = domain.DocTypeWriteoff
		doc.Comment = comment
		s.docs[docID] = doc
		converted++
	}
	return converted, nil
}

func (s *Store) ConsumptionSince(_ context.Context, warehouseID string, since time.Time) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	consumed := make(map[string]int64)
	for _, docID := range s.docIDs {
		doc := s.docs[docID]
		if doc.SourceWarehouseID != warehouseID {
			continue
		}
		if doc.Type != domain.DocTypeDeduction && doc.Type != domain.DocTypeWriteoff {
			continue
		}
		if doc.CreatedAt.Before(since) {
			continue
		}
		for _, item := range doc.Items {
			consumed[item.IngredientID] += item.QtyMilli
		}
	}
	return consumed, nil
}

// --- orders ---

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch order.Type {
	case domain.OrderTypeDelivery, domain.OrderTypePickup, domain.OrderTypeInHouse:
	default:
		return nil, fmt.Errorf("%w: unknown order type %q", store.ErrValidation, order.Type)
	}
	switch order.PaymentMethod {
	case domain.PaymentCash, domain.PaymentCard:
	default:
		return nil, fmt.Errorf("%w: unknown payment method %q", store.ErrValidation, order.PaymentMethod)
	}
	if order.ID == "" {
		order.ID = xid.New("ord")
	}
	if _, exists := s.orders[order.ID]; exists {
		return nil, fmt.Errorf("%w: order %s exists", store.ErrValidation, order.ID)
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusNew
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.Lines = cloneLines(order.Lines)
	s.orders[order.ID] = order
	created := order
	created.Lines = cloneLines(order.Lines)
	return &created, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyOrder := order
	copyOrder.Lines = cloneLines(order.Lines)
	return &copyOrder, nil
}

func (s *Store) UpdateOrderLines(_ context.Context, orderID string, lines []domain.OrderLine, totalCents int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if order.InKitchen() || order.IsCancelled() {
		return nil, fmt.Errorf("%w: order composition is frozen", store.ErrValidation)
	}
	if order.InventoryDeducted {
		return nil, fmt.Errorf("%w: order composition is frozen", store.ErrValidation)
	}
	order.Lines = cloneLines(lines)
	order.TotalCents = totalCents
	s.orders[orderID] = order
	updated := order
	updated.Lines = cloneLines(order.Lines)
	return &updated, nil
}

func (s *Store) SetOrderStatus(_ context.Context, orderID string, status string, reason string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	switch status {
	case domain.OrderStatusNew, domain.OrderStatusInKitchen, domain.OrderStatusReady:
	default:
		// completion and cancellation go through their dedicated operations
		return nil, fmt.Errorf("%w: status %q needs its lifecycle operation", store.ErrValidation, status)
	}
	if order.IsCompleted() || order.IsCancelled() {
		return nil, fmt.Errorf("%w: order is closed", store.ErrValidation)
	}
	order.Status = status
	if reason != "" {
		order.CancelReason = reason
	}
	s.orders[orderID] = order
	updated := order
	updated.Lines = cloneLines(order.Lines)
	return &updated, nil
}

func (s *Store) LinkOrderToShift(_ context.Context, orderID string, shiftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	if order.ShiftID != "" {
		return nil
	}
	if _, ok := s.shifts[shiftID]; !ok {
		return store.ErrNotFound
	}
	order.ShiftID = shiftID
	s.orders[orderID] = order
	return nil
}

func (s *Store) ListUnturnedCashOrders(_ context.Context, employeeID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range s.orders {
		if !order.IsCompleted() || order.PaymentMethod != domain.PaymentCash || order.CashTurnedIn {
			continue
		}
		if employeeID != "" && order.CourierID != employeeID && order.WaiterID != employeeID && order.CompletedBy != employeeID {
			continue
		}
		order.Lines = cloneLines(order.Lines)
		result = append(result, order)
	}
	slices.SortFunc(result, func(a, b domain.Order) int { return strings.Compare(a.ID, b.ID) })
	return result, nil
}

func (s *Store) CompleteOrder(_ context.Context, orderID string, completedBy string, shiftID string, debtorID string, debtReason string, at time.Time) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if order.IsCompleted() {
		return nil, fmt.Errorf("%w: order already completed", store.ErrValidation)
	}
	if order.IsCancelled() {
		return nil, fmt.Errorf("%w: order is cancelled", store.ErrValidation)
	}

	order.Status = domain.OrderStatusCompleted
	order.CompletedBy = completedBy
	if shiftID != "" && order.ShiftID == "" {
		order.ShiftID = shiftID
	}
	if debtorID != "" {
		if _, err := s.adjustBalanceLocked(debtorID, order.TotalCents, debtReason, false, at); err != nil {
			return nil, err
		}
	}
	s.orders[orderID] = order
	completed := order
	completed.Lines = cloneLines(order.Lines)
	return &completed, nil
}

func (s *Store) CancelOrder(_ context.Context, orderID string, reason string, skipReturn bool, at time.Time) (*domain.Order, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	if order.IsCancelled() {
		return nil, "", fmt.Errorf("%w: order already cancelled", store.ErrValidation)
	}
	prev := order.Status
	order.Status = domain.OrderStatusCancelled
	order.CancelReason = reason
	order.SkipInventoryReturn = skipReturn
	s.orders[orderID] = order
	cancelled := order
	cancelled.Lines = cloneLines(order.Lines)
	return &cancelled, prev, nil
}

func (s *Store) DeductOrderInventory(_ context.Context, orderID string, docs []domain.InventoryDoc) ([]domain.InventoryDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if order.InventoryDeducted {
		return nil, store.ErrAlreadyDeducted
	}
	order.InventoryDeducted = true
	s.orders[orderID] = order

	posted := make([]domain.InventoryDoc, 0, len(docs))
	for _, doc := range docs {
		doc.Type = domain.DocTypeDeduction
		doc.LinkedOrderID = orderID
		result, err := s.postDocLocked(doc)
		if err != nil {
			return nil, err
		}
		posted = append(posted, *result)
	}
	return posted, nil
}

func (s *Store) ReverseOrderDeduction(_ context.Context, orderID string, docs []domain.InventoryDoc) ([]domain.InventoryDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !order.InventoryDeducted {
		return nil, store.ErrNotDeducted
	}
	order.InventoryDeducted = false
	s.orders[orderID] = order

	posted := make([]domain.InventoryDoc, 0, len(docs))
	for _, doc := range docs {
		doc.Type = domain.DocTypeReturn
		doc.LinkedOrderID = orderID
		result, err := s.postDocLocked(doc)
		if err != nil {
			return nil, err
		}
		posted = append(posted, *result)
	}
	return posted, nil
}

func cloneLines(lines []domain.OrderLine) []domain.OrderLine {
	if lines == nil {
		return nil
	}
	result := make([]domain.OrderLine, len(lines))
	for i, line := range lines {
		line.Modifiers = slices.Clone(line.Modifiers)
		result[i] = line
	}
	return result
}

// --- cash shifts ---

func (s *Store) OpenShift(_ context.Context, shift domain.CashShift) (*domain.CashShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openShiftID != "" {
		return nil, store.ErrShiftAlreadyOpen
	}
	if shift.StartCashCents < 0 {
		return nil, fmt.Errorf("%w: start cash must not be negative", store.ErrValidation)
	}
	if shift.ID == "" {
		shift.ID = xid.New("shf")
	}
	shift.Status = domain.ShiftStatusOpen
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}
	s.shifts[shift.ID] = shift
	s.openShiftID = shift.ID
	opened := shift
	return &opened, nil
}

func (s *Store) GetShift(_ context.Context, id string) (*domain.CashShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, ok := s.shifts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) GetOpenShift(_ context.Context) (*domain.CashShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.openShiftID == "" {
		return nil, store.ErrNoOpenShift
	}
	shift := s.shifts[s.openShiftID]
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) CloseOpenShift(_ context.Context, shiftID string, stats domain.ShiftStatistics, endCashActualCents int64, at time.Time) (*domain.CashShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[shiftID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen || s.openShiftID != shiftID {
		return nil, store.ErrNoOpenShift
	}
	for _, emp := range s.employees {
		if emp.CashBalanceCents > 0 {
			return nil, store.ErrOutstandingCustody
		}
	}

	shift.Status = domain.ShiftStatusClosed
	closedAt := at
	shift.ClosedAt = &closedAt
	shift.EndCashActualCents = endCashActualCents
	shift.CashSalesCents = stats.CashSalesCents
	shift.CardSalesCents = stats.CardSalesCents
	shift.ServiceInCents = stats.ServiceInCents
	shift.ServiceOutCents = stats.ServiceOutCents
	s.shifts[shiftID] = shift
	s.openShiftID = ""
	closed := shift
	return &closed, nil
}

func (s *Store) AttachOrphanOrders(_ context.Context, shiftID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shifts[shiftID]; !ok {
		return 0, store.ErrNotFound
	}
	attached := 0
	for id, order := range s.orders {
		if order.IsCompleted() && order.ShiftID == "" {
			order.ShiftID = shiftID
			s.orders[id] = order
			attached++
		}
	}
	return attached, nil
}

func (s *Store) AddCashTransaction(_ context.Context, tx domain.CashTransaction) (*domain.CashTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch tx.Type {
	case domain.CashTxIn, domain.CashTxOut, domain.CashTxHandover:
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %q", store.ErrValidation, tx.Type)
	}
	if tx.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}
	shift, ok := s.shifts[tx.ShiftID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrNoOpenShift
	}
	if tx.ID == "" {
		tx.ID = xid.New("txn")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	s.cashTxs = append(s.cashTxs, tx)
	created := tx
	return &created, nil
}

func (s *Store) ListCashTransactions(_ context.Context, shiftID string) ([]domain.CashTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CashTransaction, 0)
	for _, tx := range s.cashTxs {
		if tx.ShiftID == shiftID {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (s *Store) GetShiftSales(_ context.Context, shiftID string) (int64, int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cashCents, cardCents, turnedInCents int64
	for _, order := range s.orders {
		if order.ShiftID != shiftID || !order.IsCompleted() {
			continue
		}
		switch order.PaymentMethod {
		case domain.PaymentCash:
			cashCents += order.TotalCents
			if order.CashTurnedIn {
				turnedInCents += order.TotalCents
			}
		case domain.PaymentCard:
			cardCents += order.TotalCents
		}
	}
	return cashCents, cardCents, turnedInCents, nil
}

func (s *Store) ProcessHandover(_ context.Context, shiftID string, employeeID string, orderIDs []string, at time.Time) (*domain.HandoverResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.shifts[shiftID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen || s.openShiftID != shiftID {
		return nil, store.ErrNoOpenShift
	}
	emp, ok := s.employees[employeeID]
	if !ok {
		return nil, store.ErrNotFound
	}

	eligible := make([]string, 0, len(orderIDs))
	var total int64
	for _, orderID := range orderIDs {
		order, ok := s.orders[orderID]
		if !ok {
			return nil, store.ErrNotFound
		}
		if !order.IsCompleted() || order.PaymentMethod != domain.PaymentCash || order.CashTurnedIn {
			continue
		}
		eligible = append(eligible, orderID)
		total += order.TotalCents
	}
	if total > emp.CashBalanceCents {
		return nil, fmt.Errorf("%w: handover exceeds employee balance", store.ErrValidation)
	}

	for _, orderID := range eligible {
		order := s.orders[orderID]
		order.CashTurnedIn = true
		if order.ShiftID == "" {
			order.ShiftID = shiftID
		}
		s.orders[orderID] = order
	}

	newBalance := emp.CashBalanceCents
	if total > 0 {
		var err error
		newBalance, err = s.adjustBalanceLocked(employeeID, -total, fmt.Sprintf("handover to shift %s", shiftID), false, at)
		if err != nil {
			return nil, err
		}
		s.cashTxs = append(s.cashTxs, domain.CashTransaction{
			ID:          xid.New("txn"),
			ShiftID:     shiftID,
			Type:        domain.CashTxHandover,
			AmountCents: total,
			Comment:     fmt.Sprintf("handover by %s", employeeID),
			CreatedBy:   employeeID,
			CreatedAt:   at,
		})
	}

	return &domain.HandoverResult{
		ShiftID:         shiftID,
		EmployeeID:      employeeID,
		OrderIDs:        eligible,
		ReceivedCents:   total,
		NewBalanceCents: newBalance,
	}, nil
}

// --- users and audit ---

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" {
		return fmt.Errorf("%w: username is required", store.ErrValidation)
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return fmt.Errorf("%w: username taken", store.ErrValidation)
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		result = append(result, user)
	}
	slices.SortFunc(result, func(a, b domain.UserAccount) int { return strings.Compare(a.Username, b.Username) })
	return result, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0)
	for _, entry := range s.auditLogs {
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && entry.CreatedAt.After(to) {
			continue
		}
		result = append(result, entry)
	}
	slices.Reverse(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
