package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"restodesk/backend/internal/domain"
	"restodesk/backend/internal/store"
	"restodesk/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// schemaSQL is applied idempotently at startup. The partial unique index on
// cash_shifts enforces the single-open-shift invariant at the database
// level: a second concurrent open fails with a unique violation instead of
// slipping past a check-then-insert.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS warehouses (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	is_production BOOLEAN NOT NULL DEFAULT false,
	linked_warehouse_id TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS ingredients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	unit TEXT NOT NULL,
	cost_cents BIGINT NOT NULL DEFAULT 0,
	is_semi_finished BOOLEAN NOT NULL DEFAULT false
);
CREATE TABLE IF NOT EXISTS recipe_components (
	parent_id TEXT NOT NULL REFERENCES ingredients(id),
	child_id TEXT NOT NULL REFERENCES ingredients(id),
	gross_milli BIGINT NOT NULL,
	PRIMARY KEY (parent_id, child_id)
);
CREATE TABLE IF NOT EXISTS tech_cards (
	id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	warehouse_id TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS tech_card_items (
	card_id TEXT NOT NULL REFERENCES tech_cards(id),
	ingredient_id TEXT NOT NULL REFERENCES ingredients(id),
	gross_milli BIGINT NOT NULL,
	net_milli BIGINT NOT NULL,
	takeaway_only BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (card_id, ingredient_id)
);
CREATE TABLE IF NOT EXISTS modifiers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	ingredient_id TEXT NOT NULL REFERENCES ingredients(id),
	qty_milli BIGINT NOT NULL,
	warehouse_id TEXT NOT NULL DEFAULT '',
	price_cents BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS auto_deduction_rules (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	trigger_type TEXT NOT NULL,
	ingredient_id TEXT NOT NULL REFERENCES ingredients(id),
	qty_milli BIGINT NOT NULL,
	warehouse_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS suppliers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS employees (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	cash_balance_cents BIGINT NOT NULL DEFAULT 0,
	capabilities JSONB NOT NULL DEFAULT '[]',
	active BOOLEAN NOT NULL DEFAULT true
);
CREATE TABLE IF NOT EXISTS balance_history (
	id TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id),
	amount_cents BIGINT NOT NULL,
	new_balance_cents BIGINT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS stock_levels (
	warehouse_id TEXT NOT NULL,
	ingredient_id TEXT NOT NULL,
	qty_milli BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (warehouse_id, ingredient_id)
);
CREATE TABLE IF NOT EXISTS inventory_docs (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	source_warehouse_id TEXT NOT NULL DEFAULT '',
	target_warehouse_id TEXT NOT NULL DEFAULT '',
	supplier_id TEXT NOT NULL DEFAULT '',
	comment TEXT NOT NULL DEFAULT '',
	linked_order_id TEXT NOT NULL DEFAULT '',
	paid_cents BIGINT NOT NULL DEFAULT 0,
	processed BOOLEAN NOT NULL DEFAULT false,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS inventory_docs_order_idx ON inventory_docs (linked_order_id) WHERE linked_order_id <> '';
CREATE TABLE IF NOT EXISTS inventory_doc_items (
	doc_id TEXT NOT NULL REFERENCES inventory_docs(id),
	ingredient_id TEXT NOT NULL,
	qty_milli BIGINT NOT NULL,
	price_cents BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (doc_id, ingredient_id)
);
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	type TEXT NOT NULL,
	payment_method TEXT NOT NULL,
	total_cents BIGINT NOT NULL DEFAULT 0,
	courier_id TEXT NOT NULL DEFAULT '',
	waiter_id TEXT NOT NULL DEFAULT '',
	completed_by TEXT NOT NULL DEFAULT '',
	shift_id TEXT NOT NULL DEFAULT '',
	cash_turned_in BOOLEAN NOT NULL DEFAULT false,
	inventory_deducted BOOLEAN NOT NULL DEFAULT false,
	skip_inventory_return BOOLEAN NOT NULL DEFAULT false,
	cancel_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	lines JSONB NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS cash_shifts (
	id TEXT PRIMARY KEY,
	opened_by TEXT NOT NULL,
	status TEXT NOT NULL,
	opened_at TIMESTAMPTZ NOT NULL,
	closed_at TIMESTAMPTZ,
	start_cash_cents BIGINT NOT NULL DEFAULT 0,
	cash_sales_cents BIGINT NOT NULL DEFAULT 0,
	card_sales_cents BIGINT NOT NULL DEFAULT 0,
	service_in_cents BIGINT NOT NULL DEFAULT 0,
	service_out_cents BIGINT NOT NULL DEFAULT 0,
	end_cash_actual_cents BIGINT NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS cash_shifts_single_open ON cash_shifts ((1)) WHERE status = 'open';
CREATE TABLE IF NOT EXISTS cash_transactions (
	id TEXT PRIMARY KEY,
	shift_id TEXT NOT NULL REFERENCES cash_shifts(id),
	type TEXT NOT NULL,
	amount_cents BIGINT NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password TEXT NOT NULL,
	role TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// --- catalog / configuration ---

func (s *Store) CreateWarehouse(ctx context.Context, wh domain.Warehouse) (*domain.Warehouse, error) {
	if wh.Name == "" {
		return nil, fmt.Errorf("%w: warehouse name is required", store.ErrValidation)
	}
	if wh.ID == "" {
		wh.ID = xid.New("wh")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO warehouses (id, name, is_production, linked_warehouse_id)
		VALUES ($1,$2,$3,$4)
	`, wh.ID, wh.Name, wh.IsProduction, wh.LinkedWarehouseID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: warehouse %s exists", store.ErrValidation, wh.ID)
		}
		return nil, err
	}
	created := wh
	return &created, nil
}

func (s *Store) GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error) {
	var wh domain.Warehouse
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, is_production, linked_warehouse_id
		FROM warehouses
		WHERE id = $1
	`, id).Scan(&wh.ID, &wh.Name, &wh.IsProduction, &wh.LinkedWarehouseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &wh, nil
}

func (s *Store) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, is_production, linked_warehouse_id
		FROM warehouses
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	warehouses := make([]domain.Warehouse, 0, 8)
	for rows.Next() {
		var wh domain.Warehouse
		if err := rows.Scan(&wh.ID, &wh.Name, &wh.IsProduction, &wh.LinkedWarehouseID); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, wh)
	}
	return warehouses, rows.Err()
}

func (s *Store) CreateIngredient(ctx context.Context, ing domain.Ingredient) (*domain.Ingredient, error) {
	if ing.Name == "" || ing.Unit == "" {
		return nil, fmt.Errorf("%w: ingredient name and unit are required", store.ErrValidation)
	}
	if ing.ID == "" {
		ing.ID = xid.New("ing")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingredients (id, name, unit, cost_cents, is_semi_finished)
		VALUES ($1,$2,$3,$4,$5)
	`, ing.ID, ing.Name, ing.Unit, ing.CostCents, ing.IsSemiFinished)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: ingredient %s exists", store.ErrValidation, ing.ID)
		}
		return nil, err
	}
	created := ing
	return &created, nil
}

func (s *Store) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	var ing domain.Ingredient
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, unit, cost_cents, is_semi_finished
		FROM ingredients
		WHERE id = $1
	`, id).Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.CostCents, &ing.IsSemiFinished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &ing, nil
}

func (s *Store) ListIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, unit, cost_cents, is_semi_finished
		FROM ingredients
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := make([]domain.Ingredient, 0, 64)
	for rows.Next() {
		var ing domain.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.CostCents, &ing.IsSemiFinished); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

func (s *Store) GetIngredientsByIDs(ctx context.Context, ids []string) (map[string]domain.Ingredient, error) {
	result := make(map[string]domain.Ingredient, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, unit, cost_cents, is_semi_finished
		FROM ingredients
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ing domain.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.CostCents, &ing.IsSemiFinished); err != nil {
			return nil, err
		}
		result[ing.ID] = ing
	}
	return result, rows.Err()
}

func (s *Store) UpdateIngredientCost(ctx context.Context, id string, costCents int64) error {
	if costCents < 0 {
		return fmt.Errorf("%w: cost must not be negative", store.ErrValidation)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE ingredients SET cost_cents = $2 WHERE id = $1`, id, costCents)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ReplaceRecipeComponents(ctx context.Context, parentID string, components []domain.RecipeComponent) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM ingredients WHERE id = $1)`, parentID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_components WHERE parent_id = $1`, parentID); err != nil {
		return err
	}
	for _, comp := range components {
		if comp.ParentID != parentID || comp.GrossMilli <= 0 {
			return fmt.Errorf("%w: bad recipe component", store.ErrValidation)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_components (parent_id, child_id, gross_milli)
			VALUES ($1,$2,$3)
		`, comp.ParentID, comp.ChildID, comp.GrossMilli); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListRecipeComponents(ctx context.Context) ([]domain.RecipeComponent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT parent_id, child_id, gross_milli
		FROM recipe_components
		ORDER BY parent_id, child_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	components := make([]domain.RecipeComponent, 0, 32)
	for rows.Next() {
		var comp domain.RecipeComponent
		if err := rows.Scan(&comp.ParentID, &comp.ChildID, &comp.GrossMilli); err != nil {
			return nil, err
		}
		components = append(components, comp)
	}
	return components, rows.Err()
}

func (s *Store) CreateTechCard(ctx context.Context, card domain.TechCard) (*domain.TechCard, error) {
	if card.ProductID == "" || len(card.Items) == 0 {
		return nil, fmt.Errorf("%w: tech card needs a product and items", store.ErrValidation)
	}
	if card.ID == "" {
		card.ID = xid.New("tc")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tech_cards (id, product_id, name, warehouse_id)
		VALUES ($1,$2,$3,$4)
	`, card.ID, card.ProductID, card.Name, card.WarehouseID); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: product %s already has a tech card", store.ErrValidation, card.ProductID)
		}
		return nil, err
	}
	for _, item := range card.Items {
		if item.NetMilli <= 0 {
			return nil, fmt.Errorf("%w: item net amount must be positive", store.ErrValidation)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tech_card_items (card_id, ingredient_id, gross_milli, net_milli, takeaway_only)
			VALUES ($1,$2,$3,$4,$5)
		`, card.ID, item.IngredientID, item.GrossMilli, item.NetMilli, item.TakeawayOnly); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := card
	return &created, nil
}

func (s *Store) GetTechCardByProduct(ctx context.Context, productID string) (*domain.TechCard, error) {
	var card domain.TechCard
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, name, warehouse_id
		FROM tech_cards
		WHERE product_id = $1
	`, productID).Scan(&card.ID, &card.ProductID, &card.Name, &card.WarehouseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ingredient_id, gross_milli, net_milli, takeaway_only
		FROM tech_card_items
		WHERE card_id = $1
		ORDER BY ingredient_id
	`, card.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.TechCardItem
		if err := rows.Scan(&item.IngredientID, &item.GrossMilli, &item.NetMilli, &item.TakeawayOnly); err != nil {
			return nil, err
		}
		card.Items = append(card.Items, item)
	}
	return &card, rows.Err()
}

func (s *Store) ListTechCards(ctx context.Context) ([]domain.TechCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, name, warehouse_id
		FROM tech_cards
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]domain.TechCard, 0, 32)
	byID := make(map[string]int)
	for rows.Next() {
		var card domain.TechCard
		if err := rows.Scan(&card.ID, &card.ProductID, &card.Name, &card.WarehouseID); err != nil {
			return nil, err
		}
		byID[card.ID] = len(cards)
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT card_id, ingredient_id, gross_milli, net_milli, takeaway_only
		FROM tech_card_items
		ORDER BY card_id, ingredient_id
	`)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var cardID string
		var item domain.TechCardItem
		if err := itemRows.Scan(&cardID, &item.IngredientID, &item.GrossMilli, &item.NetMilli, &item.TakeawayOnly); err != nil {
			return nil, err
		}
		if idx, ok := byID[cardID]; ok {
			cards[idx].Items = append(cards[idx].Items, item)
		}
	}
	return cards, itemRows.Err()
}

func (s *Store) CreateModifier(ctx context.Context, mod domain.Modifier) (*domain.Modifier, error) {
	if mod.Name == "" || mod.IngredientID == "" || mod.QtyMilli <= 0 {
		return nil, fmt.Errorf("%w: modifier needs a name, ingredient and quantity", store.ErrValidation)
	}
	if mod.ID == "" {
		mod.ID = xid.New("mod")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO modifiers (id, name, ingredient_id, qty_milli, warehouse_id, price_cents)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, mod.ID, mod.Name, mod.IngredientID, mod.QtyMilli, mod.WarehouseID, mod.PriceCents)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: modifier %s exists", store.ErrValidation, mod.ID)
		}
		return nil, err
	}
	created := mod
	return &created, nil
}

func (s *Store) GetModifier(ctx context.Context, id string) (*domain.Modifier, error) {
	var mod domain.Modifier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, ingredient_id, qty_milli, warehouse_id, price_cents
		FROM modifiers
		WHERE id = $1
	`, id).Scan(&mod.ID, &mod.Name, &mod.IngredientID, &mod.QtyMilli, &mod.WarehouseID, &mod.PriceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &mod, nil
}

func (s *Store) ListModifiers(ctx context.Context) ([]domain.Modifier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ingredient_id, qty_milli, warehouse_id, price_cents
		FROM modifiers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	modifiers := make([]domain.Modifier, 0, 16)
	for rows.Next() {
		var mod domain.Modifier
		if err := rows.Scan(&mod.ID, &mod.Name, &mod.IngredientID, &mod.QtyMilli, &mod.WarehouseID, &mod.PriceCents); err != nil {
			return nil, err
		}
		modifiers = append(modifiers, mod)
	}
	return modifiers, rows.Err()
}

func (s *Store) CreateAutoDeductionRule(ctx context.Context, rule domain.AutoDeductionRule) (*domain.AutoDeductionRule, error) {
	switch rule.TriggerType {
	case domain.TriggerDelivery, domain.TriggerPickup, domain.TriggerInHouse, domain.TriggerAll:
	default:
		return nil, fmt.Errorf("%w: unknown trigger type %q", store.ErrValidation, rule.TriggerType)
	}
	if rule.IngredientID == "" || rule.WarehouseID == "" || rule.QtyMilli <= 0 {
		return nil, fmt.Errorf("%w: rule needs an ingredient, warehouse and quantity", store.ErrValidation)
	}
	if rule.ID == "" {
		rule.ID = xid.New("rule")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auto_deduction_rules (id, name, trigger_type, ingredient_id, qty_milli, warehouse_id)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, rule.ID, rule.Name, rule.TriggerType, rule.IngredientID, rule.QtyMilli, rule.WarehouseID)
	if err != nil {
		return nil, err
	}
	created := rule
	return &created, nil
}

func (s *Store) ListAutoDeductionRules(ctx context.Context) ([]domain.AutoDeductionRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, trigger_type, ingredient_id, qty_milli, warehouse_id
		FROM auto_deduction_rules
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]domain.AutoDeductionRule, 0, 8)
	for rows.Next() {
		var rule domain.AutoDeductionRule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.TriggerType, &rule.IngredientID, &rule.QtyMilli, &rule.WarehouseID); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, fmt.Errorf("%w: supplier name is required", store.ErrValidation)
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, phone)
		VALUES ($1,$2,$3)
	`, supplier.ID, supplier.Name, supplier.Phone)
	if err != nil {
		return nil, err
	}
	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone
		FROM suppliers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 16)
	for rows.Next() {
		var sup domain.Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Phone); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, rows.Err()
}

func (s *Store) GetSupplierDebts(ctx context.Context) ([]domain.SupplierDebt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name,
			COALESCE(SUM(i.price_cents * i.qty_milli / 1000), 0) AS delivered,
			COALESCE(d.paid, 0) AS paid
		FROM suppliers s
		LEFT JOIN inventory_docs doc ON doc.supplier_id = s.id AND doc.type = 'supply'
		LEFT JOIN inventory_doc_items i ON i.doc_id = doc.id
		LEFT JOIN LATERAL (
			SELECT SUM(paid_cents) AS paid
			FROM inventory_docs
			WHERE supplier_id = s.id AND type = 'supply'
		) d ON true
		GROUP BY s.id, s.name, d.paid
		ORDER BY s.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	debts := make([]domain.SupplierDebt, 0, 16)
	for rows.Next() {
		var debt domain.SupplierDebt
		if err := rows.Scan(&debt.SupplierID, &debt.Name, &debt.DeliveredCents, &debt.PaidCents); err != nil {
			return nil, err
		}
		debt.OutstandingCents = debt.DeliveredCents - debt.PaidCents
		debts = append(debts, debt)
	}
	return debts, rows.Err()
}

func (s *Store) ApplySupplierPayment(ctx context.Context, supplierID string, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, fmt.Errorf("%w: payment must be positive", store.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1)`, supplierID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, store.ErrNotFound
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, paid_cents
		FROM inventory_docs
		WHERE supplier_id = $1 AND type = 'supply'
		ORDER BY created_at
		FOR UPDATE
	`, supplierID)
	if err != nil {
		return 0, err
	}
	type docState struct {
		id   string
		paid int64
	}
	docs := make([]docState, 0, 16)
	for rows.Next() {
		var d docState
		if err := rows.Scan(&d.id, &d.paid); err != nil {
			_ = rows.Close()
			return 0, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, err
	}
	_ = rows.Close()

	remaining := amountCents
	for _, d := range docs {
		if remaining <= 0 {
			break
		}
		var value int64
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(price_cents * qty_milli / 1000), 0)
			FROM inventory_doc_items
			WHERE doc_id = $1
		`, d.id).Scan(&value); err != nil {
			return 0, err
		}
		due := value - d.paid
		if due <= 0 {
			continue
		}
		applied := due
		if remaining < due {
			applied = remaining
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE inventory_docs SET paid_cents = paid_cents + $2 WHERE id = $1
		`, d.id, applied); err != nil {
			return 0, err
		}
		remaining -= applied
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return remaining, nil
}

// --- employees and custody ---

func (s *Store) CreateEmployee(ctx context.Context, emp domain.Employee) (*domain.Employee, error) {
	if emp.Name == "" {
		return nil, fmt.Errorf("%w: employee name is required", store.ErrValidation)
	}
	if emp.ID == "" {
		emp.ID = xid.New("emp")
	}
	caps, err := json.Marshal(emp.Capabilities)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, cash_balance_cents, capabilities, active)
		VALUES ($1,$2,$3,$4,$5)
	`, emp.ID, emp.Name, emp.CashBalanceCents, caps, emp.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: employee %s exists", store.ErrValidation, emp.ID)
		}
		return nil, err
	}
	created := emp
	return &created, nil
}

func scanEmployee(row interface{ Scan(...any) error }) (*domain.Employee, error) {
	var emp domain.Employee
	var caps []byte
	if err := row.Scan(&emp.ID, &emp.Name, &emp.CashBalanceCents, &caps, &emp.Active); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(caps, &emp.Capabilities); err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, cash_balance_cents, capabilities, active
		FROM employees
		WHERE id = $1
	`, id)
	emp, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return emp, nil
}

func (s *Store) listEmployeesWhere(ctx context.Context, where string) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, cash_balance_cents, capabilities, active
		FROM employees
		`+where+`
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 16)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.listEmployeesWhere(ctx, "")
}

func (s *Store) ListDebtors(ctx context.Context) ([]domain.Employee, error) {
	return s.listEmployeesWhere(ctx, "WHERE cash_balance_cents > 0")
}

func (s *Store) AdjustEmployeeBalance(ctx context.Context, employeeID string, deltaCents int64, reason string, clampToZero bool, at time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	newBalance, err := adjustBalanceTx(ctx, tx, employeeID, deltaCents, reason, clampToZero, at)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func adjustBalanceTx(ctx context.Context, tx *sql.Tx, employeeID string, deltaCents int64, reason string, clampToZero bool, at time.Time) (int64, error) {
	var balance int64
	err := tx.QueryRowContext(ctx, `
		SELECT cash_balance_cents FROM employees WHERE id = $1 FOR UPDATE
	`, employeeID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrNotFound
		}
		return 0, err
	}

	newBalance := balance + deltaCents
	if newBalance < 0 {
		if !clampToZero {
			return 0, fmt.Errorf("%w: balance would go negative", store.ErrValidation)
		}
		newBalance = 0
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE employees SET cash_balance_cents = $2 WHERE id = $1
	`, employeeID, newBalance); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO balance_history (id, employee_id, amount_cents, new_balance_cents, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, xid.New("bal"), employeeID, deltaCents, newBalance, reason, at); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *Store) ListBalanceHistory(ctx context.Context, employeeID string, limit int) ([]domain.BalanceHistory, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, amount_cents, new_balance_cents, reason, created_at
		FROM balance_history
		WHERE ($1 = '' OR employee_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, employeeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]domain.BalanceHistory, 0, limit)
	for rows.Next() {
		var entry domain.BalanceHistory
		if err := rows.Scan(&entry.ID, &entry.EmployeeID, &entry.AmountCents, &entry.NewBalanceCents, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		history = append(history, entry)
	}
	return history, rows.Err()
}

// --- stock ledger and movement documents ---

func (s *Store) AdjustStock(ctx context.Context, warehouseID string, ingredientID string, deltaMilli int64) (int64, error) {
	var newQty int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO stock_levels (warehouse_id, ingredient_id, qty_milli)
		VALUES ($1,$2,$3)
		ON CONFLICT (warehouse_id, ingredient_id)
		DO UPDATE SET qty_milli = stock_levels.qty_milli + EXCLUDED.qty_milli
		RETURNING qty_milli
	`, warehouseID, ingredientID, deltaMilli).Scan(&newQty)
	return newQty, err
}

func adjustStockTx(ctx context.Context, tx *sql.Tx, warehouseID string, ingredientID string, deltaMilli int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stock_levels (warehouse_id, ingredient_id, qty_milli)
		VALUES ($1,$2,$3)
		ON CONFLICT (warehouse_id, ingredient_id)
		DO UPDATE SET qty_milli = stock_levels.qty_milli + EXCLUDED.qty_milli
	`, warehouseID, ingredientID, deltaMilli)
	return err
}

func (s *Store) GetStock(ctx context.Context, warehouseID string, ingredientID string) (int64, error) {
	var qty int64
	err := s.db.QueryRowContext(ctx, `
		SELECT qty_milli FROM stock_levels WHERE warehouse_id = $1 AND ingredient_id = $2
	`, warehouseID, ingredientID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return qty, err
}

func (s *Store) ListStockLevels(ctx context.Context, warehouseID string) ([]domain.StockLevel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT warehouse_id, ingredient_id, qty_milli
		FROM stock_levels
		WHERE warehouse_id = $1
		ORDER BY ingredient_id
	`, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make([]domain.StockLevel, 0, 64)
	for rows.Next() {
		var level domain.StockLevel
		if err := rows.Scan(&level.WarehouseID, &level.IngredientID, &level.QtyMilli); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

// insertDocTx writes the document and its items and applies the stock
// deltas, all inside the caller's transaction. Supply prices fold into each
// ingredient's moving-average cost, weighted by total on-hand stock.
func insertDocTx(ctx context.Context, tx *sql.Tx, doc *domain.InventoryDoc) error {
	if len(doc.Items) == 0 {
		return fmt.Errorf("%w: document has no items", store.ErrValidation)
	}
	switch doc.Type {
	case domain.DocTypeSupply, domain.DocTypeReturn:
		if doc.TargetWarehouseID == "" {
			return fmt.Errorf("%w: target warehouse required", store.ErrValidation)
		}
	case domain.DocTypeWriteoff, domain.DocTypeDeduction:
		if doc.SourceWarehouseID == "" {
			return fmt.Errorf("%w: source warehouse required", store.ErrValidation)
		}
	case domain.DocTypeTransfer:
		if doc.SourceWarehouseID == "" || doc.TargetWarehouseID == "" {
			return fmt.Errorf("%w: transfer needs both warehouses", store.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown document type %q", store.ErrValidation, doc.Type)
	}

	if doc.ID == "" {
		doc.ID = xid.New("doc")
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.Processed = true

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_docs (
			id, type, source_warehouse_id, target_warehouse_id, supplier_id,
			comment, linked_order_id, paid_cents, processed, created_by, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, doc.ID, doc.Type, doc.SourceWarehouseID, doc.TargetWarehouseID, doc.SupplierID,
		doc.Comment, doc.LinkedOrderID, doc.PaidCents, doc.Processed, doc.CreatedBy, doc.CreatedAt); err != nil {
		return err
	}

	for _, item := range doc.Items {
		if item.QtyMilli <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", store.ErrValidation)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_doc_items (doc_id, ingredient_id, qty_milli, price_cents)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (doc_id, ingredient_id)
			DO UPDATE SET qty_milli = inventory_doc_items.qty_milli + EXCLUDED.qty_milli
		`, doc.ID, item.IngredientID, item.QtyMilli, item.PriceCents); err != nil {
			return err
		}

		switch doc.Type {
		case domain.DocTypeSupply:
			if item.PriceCents > 0 {
				if err := updateMovingCostTx(ctx, tx, item.IngredientID, item.QtyMilli, item.PriceCents); err != nil {
					return err
				}
			}
			if err := adjustStockTx(ctx, tx, doc.TargetWarehouseID, item.IngredientID, item.QtyMilli); err != nil {
				return err
			}
		case domain.DocTypeReturn:
			if err := adjustStockTx(ctx, tx, doc.TargetWarehouseID, item.IngredientID, item.QtyMilli); err != nil {
				return err
			}
		case domain.DocTypeTransfer:
			if err := adjustStockTx(ctx, tx, doc.SourceWarehouseID, item.IngredientID, -item.QtyMilli); err != nil {
				return err
			}
			if err := adjustStockTx(ctx, tx, doc.TargetWarehouseID, item.IngredientID, item.QtyMilli); err != nil {
				return err
			}
		case domain.DocTypeWriteoff, domain.DocTypeDeduction:
			if err := adjustStockTx(ctx, tx, doc.SourceWarehouseID, item.IngredientID, -item.QtyMilli); err != nil {
				return err
			}
		}
	}
	return nil
}

func updateMovingCostTx(ctx context.Context, tx *sql.Tx, ingredientID string, qtyMilli int64, priceCents int64) error {
	var cost int64
	err := tx.QueryRowContext(ctx, `
		SELECT cost_cents FROM ingredients WHERE id = $1 FOR UPDATE
	`, ingredientID).Scan(&cost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}

	var onHand int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(qty_milli), 0) FROM stock_levels WHERE ingredient_id = $1 AND qty_milli > 0
	`, ingredientID).Scan(&onHand); err != nil {
		return err
	}

	newCost := priceCents
	if onHand+qtyMilli > 0 {
		newCost = (cost*onHand + priceCents*qtyMilli) / (onHand + qtyMilli)
	}
	_, err = tx.ExecContext(ctx, `UPDATE ingredients SET cost_cents = $2 WHERE id = $1`, ingredientID, newCost)
	return err
}

func (s *Store) PostInventoryDoc(ctx context.Context, doc domain.InventoryDoc) (*domain.InventoryDoc, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertDocTx(ctx, tx, &doc); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	posted := doc
	return &posted, nil
}

func (s *Store) loadDocItems(ctx context.Context, docs []domain.InventoryDoc) error {
	if len(docs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(docs))
	byID := make(map[string]int, len(docs))
	for i, doc := range docs {
		ids = append(ids, doc.ID)
		byID[doc.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, ingredient_id, qty_milli, price_cents
		FROM inventory_doc_items
		WHERE doc_id = ANY($1)
		ORDER BY doc_id, ingredient_id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var docID string
		var item domain.InventoryDocItem
		if err := rows.Scan(&docID, &item.IngredientID, &item.QtyMilli, &item.PriceCents); err != nil {
			return err
		}
		if idx, ok := byID[docID]; ok {
			docs[idx].Items = append(docs[idx].Items, item)
		}
	}
	return rows.Err()
}

func scanDocs(rows *sql.Rows) ([]domain.InventoryDoc, error) {
	docs := make([]domain.InventoryDoc, 0, 16)
	for rows.Next() {
		var doc domain.InventoryDoc
		if err := rows.Scan(&doc.ID, &doc.Type, &doc.SourceWarehouseID, &doc.TargetWarehouseID,
			&doc.SupplierID, &doc.Comment, &doc.LinkedOrderID, &doc.PaidCents, &doc.Processed,
			&doc.CreatedBy, &doc.CreatedAt); err != nil {
			return nil, err
		}
		doc.CreatedAt = doc.CreatedAt.UTC()
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

const docColumns = `id, type, source_warehouse_id, target_warehouse_id, supplier_id,
	comment, linked_order_id, paid_cents, processed, created_by, created_at`

func (s *Store) ListInventoryDocs(ctx context.Context, docType string, limit int) ([]domain.InventoryDoc, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+docColumns+`
		FROM inventory_docs
		WHERE ($1 = '' OR type = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, docType, limit)
	if err != nil {
		return nil, err
	}
	docs, err := scanDocs(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := s.loadDocItems(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) ListInventoryDocsByOrder(ctx context.Context, orderID string, docType string) ([]domain.InventoryDoc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+docColumns+`
		FROM inventory_docs
		WHERE linked_order_id = $1 AND ($2 = '' OR type = $2)
		ORDER BY created_at, id
	`, orderID, docType)
	if err != nil {
		return nil, err
	}
	docs, err := scanDocs(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := s.loadDocItems(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) ConvertOrderDeductionsToWriteoff(ctx context.Context, orderID string, comment string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory_docs
		SET type = 'writeoff', comment = $2
		WHERE linked_order_id = $1 AND type = 'deduction'
	`, orderID, comment)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func (s *Store) ConsumptionSince(ctx context.Context, warehouseID string, since time.Time) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.ingredient_id, SUM(i.qty_milli)
		FROM inventory_doc_items i
		JOIN inventory_docs d ON d.id = i.doc_id
		WHERE d.source_warehouse_id = $1
			AND d.type IN ('deduction', 'writeoff')
			AND d.created_at >= $2
		GROUP BY i.ingredient_id
	`, warehouseID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	consumed := make(map[string]int64)
	for rows.Next() {
		var ingredientID string
		var qty int64
		if err := rows.Scan(&ingredientID, &qty); err != nil {
			return nil, err
		}
		consumed[ingredientID] = qty
	}
	return consumed, rows.Err()
}

// --- orders ---

const orderColumns = `id, status, type, payment_method, total_cents, courier_id, waiter_id,
	completed_by, shift_id, cash_turned_in, inventory_deducted, skip_inventory_return,
	cancel_reason, created_at, lines`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var order domain.Order
	var lines []byte
	if err := row.Scan(&order.ID, &order.Status, &order.Type, &order.PaymentMethod, &order.TotalCents,
		&order.CourierID, &order.WaiterID, &order.CompletedBy, &order.ShiftID, &order.CashTurnedIn,
		&order.InventoryDeducted, &order.SkipInventoryReturn, &order.CancelReason, &order.CreatedAt, &lines); err != nil {
		return nil, err
	}
	order.CreatedAt = order.CreatedAt.UTC()
	if err := json.Unmarshal(lines, &order.Lines); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
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
	if order.Status == "" {
		order.Status = domain.OrderStatusNew
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, status, type, payment_method, total_cents, courier_id, waiter_id,
			completed_by, shift_id, cash_turned_in, inventory_deducted,
			skip_inventory_return, cancel_reason, created_at, lines
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, order.ID, order.Status, order.Type, order.PaymentMethod, order.TotalCents,
		order.CourierID, order.WaiterID, order.CompletedBy, order.ShiftID, order.CashTurnedIn,
		order.InventoryDeducted, order.SkipInventoryReturn, order.CancelReason, order.CreatedAt, lines)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: order %s exists", store.ErrValidation, order.ID)
		}
		return nil, err
	}
	created := order
	return &created, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *Store) UpdateOrderLines(ctx context.Context, orderID string, lines []domain.OrderLine, totalCents int64) (*domain.Order, error) {
	payload, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE orders
		SET lines = $2, total_cents = $3
		WHERE id = $1
			AND status = 'new'
			AND inventory_deducted = false
		RETURNING `+orderColumns+`
	`, orderID, payload, totalCents)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := s.GetOrder(ctx, orderID); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: order composition is frozen", store.ErrValidation)
		}
		return nil, err
	}
	return order, nil
}

func (s *Store) SetOrderStatus(ctx context.Context, orderID string, status string, reason string) (*domain.Order, error) {
	switch status {
	case domain.OrderStatusNew, domain.OrderStatusInKitchen, domain.OrderStatusReady:
	default:
		return nil, fmt.Errorf("%w: status %q needs its lifecycle operation", store.ErrValidation, status)
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2, cancel_reason = CASE WHEN $3 = '' THEN cancel_reason ELSE $3 END
		WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
		RETURNING `+orderColumns+`
	`, orderID, status, reason)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := s.GetOrder(ctx, orderID); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: order is closed", store.ErrValidation)
		}
		return nil, err
	}
	return order, nil
}

func (s *Store) LinkOrderToShift(ctx context.Context, orderID string, shiftID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET shift_id = $2 WHERE id = $1 AND shift_id = ''
	`, orderID, shiftID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// either already linked (fine) or missing
		if _, err := s.GetOrder(ctx, orderID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListUnturnedCashOrders(ctx context.Context, employeeID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = 'completed'
			AND payment_method = 'cash'
			AND cash_turned_in = false
			AND ($1 = '' OR courier_id = $1 OR waiter_id = $1 OR completed_by = $1)
		ORDER BY id
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 16)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// CompleteOrder flips the order to completed exactly once and, for cash
// orders, moves the total into the debtor's custody balance in the same
// transaction. A concurrent second completion loses the compare-and-set and
// gets a validation error instead of double-posting.
func (s *Store) CompleteOrder(ctx context.Context, orderID string, completedBy string, shiftID string, debtorID string, debtReason string, at time.Time) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = 'completed',
			completed_by = $2,
			shift_id = CASE WHEN shift_id = '' THEN $3 ELSE shift_id END
		WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
		RETURNING `+orderColumns+`
	`, orderID, completedBy, shiftID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := s.GetOrder(ctx, orderID); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: order already closed", store.ErrValidation)
		}
		return nil, err
	}

	if debtorID != "" {
		if _, err := adjustBalanceTx(ctx, tx, debtorID, order.TotalCents, debtReason, false, at); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) CancelOrder(ctx context.Context, orderID string, reason string, skipReturn bool, at time.Time) (*domain.Order, string, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = tx.Rollback() }()

	var prevStatus string
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM orders WHERE id = $1 FOR UPDATE
	`, orderID).Scan(&prevStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", store.ErrNotFound
		}
		return nil, "", err
	}
	if prevStatus == domain.OrderStatusCancelled {
		return nil, "", fmt.Errorf("%w: order already cancelled", store.ErrValidation)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = 'cancelled', cancel_reason = $2, skip_inventory_return = $3
		WHERE id = $1
		RETURNING `+orderColumns+`
	`, orderID, reason, skipReturn)
	order, err := scanOrder(row)
	if err != nil {
		return nil, "", err
	}

	if err := tx.Commit(); err != nil {
		return nil, "", err
	}
	return order, prevStatus, nil
}

// DeductOrderInventory takes the deducted flag with a compare-and-set and
// posts the deduction documents inside the same transaction, so a rolled
// back failure leaves the flag unset and a concurrent duplicate call
// cleanly loses.
func (s *Store) DeductOrderInventory(ctx context.Context, orderID string, docs []domain.InventoryDoc) ([]domain.InventoryDoc, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET inventory_deducted = true
		WHERE id = $1 AND inventory_deducted = false
	`, orderID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, getErr := s.GetOrder(ctx, orderID); getErr != nil {
			return nil, getErr
		}
		return nil, store.ErrAlreadyDeducted
	}

	posted := make([]domain.InventoryDoc, 0, len(docs))
	for _, doc := range docs {
		doc.Type = domain.DocTypeDeduction
		doc.LinkedOrderID = orderID
		if err := insertDocTx(ctx, tx, &doc); err != nil {
			return nil, err
		}
		posted = append(posted, doc)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return posted, nil
}

func (s *Store) ReverseOrderDeduction(ctx context.Context, orderID string, docs []domain.InventoryDoc) ([]domain.InventoryDoc, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET inventory_deducted = false
		WHERE id = $1 AND inventory_deducted = true
	`, orderID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, getErr := s.GetOrder(ctx, orderID); getErr != nil {
			return nil, getErr
		}
		return nil, store.ErrNotDeducted
	}

	posted := make([]domain.InventoryDoc, 0, len(docs))
	for _, doc := range docs {
		doc.Type = domain.DocTypeReturn
		doc.LinkedOrderID = orderID
		if err := insertDocTx(ctx, tx, &doc); err != nil {
			return nil, err
		}
		posted = append(posted, doc)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return posted, nil
}

// --- cash shifts ---

const shiftColumns = `id, opened_by, status, opened_at, closed_at, start_cash_cents,
	cash_sales_cents, card_sales_cents, service_in_cents, service_out_cents, end_cash_actual_cents`

func scanShift(row interface{ Scan(...any) error }) (*domain.CashShift, error) {
	var shift domain.CashShift
	var closedAt sql.NullTime
	if err := row.Scan(&shift.ID, &shift.OpenedBy, &shift.Status, &shift.OpenedAt, &closedAt,
		&shift.StartCashCents, &shift.CashSalesCents, &shift.CardSalesCents,
		&shift.ServiceInCents, &shift.ServiceOutCents, &shift.EndCashActualCents); err != nil {
		return nil, err
	}
	shift.OpenedAt = shift.OpenedAt.UTC()
	if closedAt.Valid {
		at := closedAt.Time.UTC()
		shift.ClosedAt = &at
	}
	return &shift, nil
}

// OpenShift relies on the cash_shifts_single_open partial unique index: two
// concurrent opens race on the insert and the loser gets
// ErrShiftAlreadyOpen.
func (s *Store) OpenShift(ctx context.Context, shift domain.CashShift) (*domain.CashShift, error) {
	if shift.StartCashCents < 0 {
		return nil, fmt.Errorf("%w: start cash must not be negative", store.ErrValidation)
	}
	if shift.ID == "" {
		shift.ID = xid.New("shf")
	}
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen
	shift.ClosedAt = nil

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_shifts (
			id, opened_by, status, opened_at, closed_at, start_cash_cents,
			cash_sales_cents, card_sales_cents, service_in_cents, service_out_cents, end_cash_actual_cents
		)
		VALUES ($1,$2,$3,$4,NULL,$5,0,0,0,0,0)
	`, shift.ID, shift.OpenedBy, shift.Status, shift.OpenedAt, shift.StartCashCents)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrShiftAlreadyOpen
		}
		return nil, err
	}
	opened := shift
	return &opened, nil
}

func (s *Store) GetShift(ctx context.Context, id string) (*domain.CashShift, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shiftColumns+`
		FROM cash_shifts
		WHERE id = $1
	`, id)
	shift, err := scanShift(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return shift, nil
}

func (s *Store) GetOpenShift(ctx context.Context) (*domain.CashShift, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shiftColumns+`
		FROM cash_shifts
		WHERE status = 'open'
		LIMIT 1
	`)
	shift, err := scanShift(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoOpenShift
		}
		return nil, err
	}
	return shift, nil
}

// CloseOpenShift refuses while any employee still holds cash, then closes
// via an UPDATE guarded on status = 'open', snapshotting the final
// statistics onto the row.
func (s *Store) CloseOpenShift(ctx context.Context, shiftID string, stats domain.ShiftStatistics, endCashActualCents int64, at time.Time) (*domain.CashShift, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var debtors bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM employees WHERE cash_balance_cents > 0)
	`).Scan(&debtors); err != nil {
		return nil, err
	}
	if debtors {
		return nil, store.ErrOutstandingCustody
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE cash_shifts
		SET status = 'closed',
			closed_at = $2,
			end_cash_actual_cents = $3,
			cash_sales_cents = $4,
			card_sales_cents = $5,
			service_in_cents = $6,
			service_out_cents = $7
		WHERE id = $1 AND status = 'open'
		RETURNING `+shiftColumns+`
	`, shiftID, at, endCashActualCents, stats.CashSalesCents, stats.CardSalesCents,
		stats.ServiceInCents, stats.ServiceOutCents)
	shift, err := scanShift(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := s.GetShift(ctx, shiftID); getErr != nil {
				return nil, getErr
			}
			return nil, store.ErrNoOpenShift
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *Store) AttachOrphanOrders(ctx context.Context, shiftID string) (int, error) {
	if _, err := s.GetShift(ctx, shiftID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET shift_id = $1
		WHERE status = 'completed' AND shift_id = ''
	`, shiftID)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func (s *Store) AddCashTransaction(ctx context.Context, tx domain.CashTransaction) (*domain.CashTransaction, error) {
	switch tx.Type {
	case domain.CashTxIn, domain.CashTxOut, domain.CashTxHandover:
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %q", store.ErrValidation, tx.Type)
	}
	if tx.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}
	if tx.ID == "" {
		tx.ID = xid.New("txn")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM cash_shifts WHERE id = $1`, tx.ShiftID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.ShiftStatusOpen {
		return nil, store.ErrNoOpenShift
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cash_transactions (id, shift_id, type, amount_cents, comment, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, tx.ID, tx.ShiftID, tx.Type, tx.AmountCents, tx.Comment, tx.CreatedBy, tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := tx
	return &created, nil
}

func (s *Store) ListCashTransactions(ctx context.Context, shiftID string) ([]domain.CashTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_id, type, amount_cents, comment, created_by, created_at
		FROM cash_transactions
		WHERE shift_id = $1
		ORDER BY created_at, id
	`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.CashTransaction, 0, 16)
	for rows.Next() {
		var tx domain.CashTransaction
		if err := rows.Scan(&tx.ID, &tx.ShiftID, &tx.Type, &tx.AmountCents, &tx.Comment, &tx.CreatedBy, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.CreatedAt = tx.CreatedAt.UTC()
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *Store) GetShiftSales(ctx context.Context, shiftID string) (int64, int64, int64, error) {
	var cashCents, cardCents, turnedInCents int64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(total_cents) FILTER (WHERE payment_method = 'cash'), 0),
			COALESCE(SUM(total_cents) FILTER (WHERE payment_method = 'card'), 0),
			COALESCE(SUM(total_cents) FILTER (WHERE payment_method = 'cash' AND cash_turned_in), 0)
		FROM orders
		WHERE shift_id = $1 AND status = 'completed'
	`, shiftID).Scan(&cashCents, &cardCents, &turnedInCents)
	return cashCents, cardCents, turnedInCents, err
}

// ProcessHandover marks the employee's eligible orders as turned in,
// debits the custody balance and posts the handover transaction in one
// transaction; the order rows are locked so a duplicate handover finds
// nothing eligible.
func (s *Store) ProcessHandover(ctx context.Context, shiftID string, employeeID string, orderIDs []string, at time.Time) (*domain.HandoverResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM cash_shifts WHERE id = $1`, shiftID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.ShiftStatusOpen {
		return nil, store.ErrNoOpenShift
	}

	var balance int64
	err = tx.QueryRowContext(ctx, `
		SELECT cash_balance_cents FROM employees WHERE id = $1 FOR UPDATE
	`, employeeID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, total_cents
		FROM orders
		WHERE id = ANY($1)
			AND status = 'completed'
			AND payment_method = 'cash'
			AND cash_turned_in = false
		ORDER BY id
		FOR UPDATE
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	eligible := make([]string, 0, len(orderIDs))
	var total int64
	for rows.Next() {
		var id string
		var cents int64
		if err := rows.Scan(&id, &cents); err != nil {
			_ = rows.Close()
			return nil, err
		}
		eligible = append(eligible, id)
		total += cents
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if total > balance {
		return nil, fmt.Errorf("%w: handover exceeds employee balance", store.ErrValidation)
	}

	newBalance := balance
	if total > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET cash_turned_in = true,
				shift_id = CASE WHEN shift_id = '' THEN $2 ELSE shift_id END
			WHERE id = ANY($1)
		`, eligible, shiftID); err != nil {
			return nil, err
		}

		newBalance, err = adjustBalanceTx(ctx, tx, employeeID, -total, fmt.Sprintf("handover to shift %s", shiftID), false, at)
		if err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cash_transactions (id, shift_id, type, amount_cents, comment, created_by, created_at)
			VALUES ($1,$2,'handover',$3,$4,$5,$6)
		`, xid.New("txn"), shiftID, total, fmt.Sprintf("handover by %s", employeeID), employeeID, at); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
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

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" {
		return fmt.Errorf("%w: username is required", store.ErrValidation)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: username taken", store.ErrValidation)
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor, action, detail, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, entry.ID, entry.Actor, entry.Action, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	if to.IsZero() {
		to = time.Now().UTC().Add(time.Hour)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
