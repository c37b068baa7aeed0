package store

import (
	"context"
	"errors"
	"time"

	"restodesk/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrShiftAlreadyOpen   = errors.New("a shift is already open")
	ErrNoOpenShift        = errors.New("no open shift")
	ErrOutstandingCustody = errors.New("employees still hold cash")
	ErrAlreadyDeducted    = errors.New("inventory already deducted")
	ErrNotDeducted        = errors.New("inventory not deducted")
	ErrRecipeCycle        = errors.New("recipe would form a cycle")
	ErrValidation         = errors.New("validation failed")
)

// Repository is the persistence contract shared by the postgres and memory
// implementations. Methods that pair a guard flag with dependent mutations
// (CompleteOrder, DeductOrderInventory, ReverseOrderDeduction, Handover,
// CloseOpenShift) must apply the check and the writes atomically: the flag
// update acts as a compare-and-set, and a second caller gets a sentinel
// error instead of a double posting.
type Repository interface {
	// catalog / configuration
	CreateWarehouse(ctx context.Context, wh domain.Warehouse) (*domain.Warehouse, error)
	GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]domain.Warehouse, error)
	CreateIngredient(ctx context.Context, ing domain.Ingredient) (*domain.Ingredient, error)
	GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error)
	ListIngredients(ctx context.Context) ([]domain.Ingredient, error)
	GetIngredientsByIDs(ctx context.Context, ids []string) (map[string]domain.Ingredient, error)
	UpdateIngredientCost(ctx context.Context, id string, costCents int64) error
	ReplaceRecipeComponents(ctx context.Context, parentID string, components []domain.RecipeComponent) error
	ListRecipeComponents(ctx context.Context) ([]domain.RecipeComponent, error)
	CreateTechCard(ctx context.Context, card domain.TechCard) (*domain.TechCard, error)
	GetTechCardByProduct(ctx context.Context, productID string) (*domain.TechCard, error)
	ListTechCards(ctx context.Context) ([]domain.TechCard, error)
	CreateModifier(ctx context.Context, mod domain.Modifier) (*domain.Modifier, error)
	GetModifier(ctx context.Context, id string) (*domain.Modifier, error)
	ListModifiers(ctx context.Context) ([]domain.Modifier, error)
	CreateAutoDeductionRule(ctx context.Context, rule domain.AutoDeductionRule) (*domain.AutoDeductionRule, error)
	ListAutoDeductionRules(ctx context.Context) ([]domain.AutoDeductionRule, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplierDebts(ctx context.Context) ([]domain.SupplierDebt, error)
	ApplySupplierPayment(ctx context.Context, supplierID string, amountCents int64) (int64, error)

	// employees and custody
	CreateEmployee(ctx context.Context, emp domain.Employee) (*domain.Employee, error)
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	ListDebtors(ctx context.Context) ([]domain.Employee, error)
	AdjustEmployeeBalance(ctx context.Context, employeeID string, deltaCents int64, reason string, clampToZero bool, at time.Time) (int64, error)
	ListBalanceHistory(ctx context.Context, employeeID string, limit int) ([]domain.BalanceHistory, error)

	// stock ledger and movement documents
	AdjustStock(ctx context.Context, warehouseID string, ingredientID string, deltaMilli int64) (int64, error)
	GetStock(ctx context.Context, warehouseID string, ingredientID string) (int64, error)
	ListStockLevels(ctx context.Context, warehouseID string) ([]domain.StockLevel, error)
	PostInventoryDoc(ctx context.Context, doc domain.InventoryDoc) (*domain.InventoryDoc, error)
	ListInventoryDocs(ctx context.Context, docType string, limit int) ([]domain.InventoryDoc, error)
	ListInventoryDocsByOrder(ctx context.Context, orderID string, docType string) ([]domain.InventoryDoc, error)
	ConvertOrderDeductionsToWriteoff(ctx context.Context, orderID string, comment string) (int, error)
	ConsumptionSince(ctx context.Context, warehouseID string, since time.Time) (map[string]int64, error)

	// orders
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrderLines(ctx context.Context, orderID string, lines []domain.OrderLine, totalCents int64) (*domain.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, status string, reason string) (*domain.Order, error)
	LinkOrderToShift(ctx context.Context, orderID string, shiftID string) error
	ListUnturnedCashOrders(ctx context.Context, employeeID string) ([]domain.Order, error)
	CompleteOrder(ctx context.Context, orderID string, completedBy string, shiftID string, debtorID string, debtReason string, at time.Time) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string, reason string, skipReturn bool, at time.Time) (*domain.Order, string, error)
	DeductOrderInventory(ctx context.Context, orderID string, docs []domain.InventoryDoc) ([]domain.InventoryDoc, error)
	ReverseOrderDeduction(ctx context.Context, orderID string, docs []domain.InventoryDoc) ([]domain.InventoryDoc, error)

	// cash shifts
	OpenShift(ctx context.Context, shift domain.CashShift) (*domain.CashShift, error)
	GetShift(ctx context.Context, id string) (*domain.CashShift, error)
	GetOpenShift(ctx context.Context) (*domain.CashShift, error)
	CloseOpenShift(ctx context.Context, shiftID string, stats domain.ShiftStatistics, endCashActualCents int64, at time.Time) (*domain.CashShift, error)
	AttachOrphanOrders(ctx context.Context, shiftID string) (int, error)
	AddCashTransaction(ctx context.Context, tx domain.CashTransaction) (*domain.CashTransaction, error)
	ListCashTransactions(ctx context.Context, shiftID string) ([]domain.CashTransaction, error)
	GetShiftSales(ctx context.Context, shiftID string) (cashCents int64, cardCents int64, turnedInCashCents int64, err error)
	ProcessHandover(ctx context.Context, shiftID string, employeeID string, orderIDs []string, at time.Time) (*domain.HandoverResult, error)

	// users and audit
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}
