package domain

import "time"

// Money is carried as int64 cents. Stock quantities are carried as int64
// thousandths of the ingredient's unit (*Milli fields), mirroring
// three-decimal warehouse scales without floating point.

const (
	OrderStatusNew       = "new"
	OrderStatusInKitchen = "in_kitchen"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	OrderTypeDelivery = "delivery"
	OrderTypePickup   = "pickup"
	OrderTypeInHouse  = "in_house"
)

const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

const (
	DocTypeSupply    = "supply"
	DocTypeTransfer  = "transfer"
	DocTypeWriteoff  = "writeoff"
	DocTypeDeduction = "deduction"
	DocTypeReturn    = "return"
)

const (
	CashTxIn       = "in"
	CashTxOut      = "out"
	CashTxHandover = "handover"
)

const (
	TriggerDelivery = "delivery"
	TriggerPickup   = "pickup"
	TriggerInHouse  = "in_house"
	TriggerAll      = "all"
)

// CancelActionReturn puts the deducted stock back; CancelActionWaste keeps
// the loss in the ledger and may charge prime cost to an employee.
const (
	CancelActionReturn = "return"
	CancelActionWaste  = "waste"
)

type Capability string

const (
	CapManageOrders Capability = "manage_orders"
	CapCancelOrders Capability = "cancel_orders"
	CapAcceptCash   Capability = "accept_cash"
	CapManageStock  Capability = "manage_stock"
)

type Warehouse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	IsProduction      bool   `json:"is_production"`
	LinkedWarehouseID string `json:"linked_warehouse_id,omitempty"`
}

type Ingredient struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Unit           string `json:"unit"`
	CostCents      int64  `json:"cost_cents"`
	IsSemiFinished bool   `json:"is_semi_finished"`
}

// RecipeComponent is one edge of the semi-finished composition graph:
// producing 1 unit of Parent consumes GrossMilli thousandths of Child.
type RecipeComponent struct {
	ParentID   string `json:"parent_id"`
	ChildID    string `json:"child_id"`
	GrossMilli int64  `json:"gross_milli"`
}

type TechCard struct {
	ID          string         `json:"id"`
	ProductID   string         `json:"product_id"`
	Name        string         `json:"name"`
	WarehouseID string         `json:"warehouse_id,omitempty"`
	Items       []TechCardItem `json:"items"`
}

type TechCardItem struct {
	IngredientID string `json:"ingredient_id"`
	GrossMilli   int64  `json:"gross_milli"`
	NetMilli     int64  `json:"net_milli"`
	TakeawayOnly bool   `json:"takeaway_only"`
}

type Modifier struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IngredientID string `json:"ingredient_id"`
	QtyMilli     int64  `json:"qty_milli"`
	WarehouseID  string `json:"warehouse_id,omitempty"`
	PriceCents   int64  `json:"price_cents"`
}

type AutoDeductionRule struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TriggerType  string `json:"trigger_type"`
	IngredientID string `json:"ingredient_id"`
	QtyMilli     int64  `json:"qty_milli"`
	WarehouseID  string `json:"warehouse_id"`
}

type StockLevel struct {
	WarehouseID  string `json:"warehouse_id"`
	IngredientID string `json:"ingredient_id"`
	QtyMilli     int64  `json:"qty_milli"`
}

type Supplier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type InventoryDoc struct {
	ID                string             `json:"id"`
	Type              string             `json:"type"`
	SourceWarehouseID string             `json:"source_warehouse_id,omitempty"`
	TargetWarehouseID string             `json:"target_warehouse_id,omitempty"`
	SupplierID        string             `json:"supplier_id,omitempty"`
	Comment           string             `json:"comment,omitempty"`
	LinkedOrderID     string             `json:"linked_order_id,omitempty"`
	PaidCents         int64              `json:"paid_cents"`
	Processed         bool               `json:"processed"`
	CreatedBy         string             `json:"created_by,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	Items             []InventoryDocItem `json:"items"`
}

type InventoryDocItem struct {
	IngredientID string `json:"ingredient_id"`
	QtyMilli     int64  `json:"qty_milli"`
	PriceCents   int64  `json:"price_cents"`
}

type CashShift struct {
	ID                 string     `json:"id"`
	OpenedBy           string     `json:"opened_by"`
	Status             string     `json:"status"`
	OpenedAt           time.Time  `json:"opened_at"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
	StartCashCents     int64      `json:"start_cash_cents"`
	CashSalesCents     int64      `json:"cash_sales_cents"`
	CardSalesCents     int64      `json:"card_sales_cents"`
	ServiceInCents     int64      `json:"service_in_cents"`
	ServiceOutCents    int64      `json:"service_out_cents"`
	EndCashActualCents int64      `json:"end_cash_actual_cents"`
}

type CashTransaction struct {
	ID          string    `json:"id"`
	ShiftID     string    `json:"shift_id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	Comment     string    `json:"comment,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Employee struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	CashBalanceCents int64        `json:"cash_balance_cents"`
	Capabilities     []Capability `json:"capabilities"`
	Active           bool         `json:"active"`
}

func (e Employee) Can(c Capability) bool {
	for _, have := range e.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

type BalanceHistory struct {
	ID              string    `json:"id"`
	EmployeeID      string    `json:"employee_id"`
	AmountCents     int64     `json:"amount_cents"`
	NewBalanceCents int64     `json:"new_balance_cents"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
}

type OrderLineModifier struct {
	ModifierID string `json:"modifier_id"`
	Qty        int    `json:"qty"`
}

type OrderLine struct {
	ProductID  string              `json:"product_id"`
	Qty        int                 `json:"qty"`
	PriceCents int64               `json:"price_cents"`
	Modifiers  []OrderLineModifier `json:"modifiers,omitempty"`
}

type Order struct {
	ID                  string      `json:"id"`
	Status              string      `json:"status"`
	Type                string      `json:"type"`
	PaymentMethod       string      `json:"payment_method"`
	TotalCents          int64       `json:"total_cents"`
	CourierID           string      `json:"courier_id,omitempty"`
	WaiterID            string      `json:"waiter_id,omitempty"`
	CompletedBy         string      `json:"completed_by,omitempty"`
	ShiftID             string      `json:"shift_id,omitempty"`
	CashTurnedIn        bool        `json:"cash_turned_in"`
	InventoryDeducted   bool        `json:"inventory_deducted"`
	SkipInventoryReturn bool        `json:"skip_inventory_return"`
	CancelReason        string      `json:"cancel_reason,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	Lines               []OrderLine `json:"lines"`
}

func (o Order) IsCompleted() bool { return o.Status == OrderStatusCompleted }
func (o Order) IsCancelled() bool { return o.Status == OrderStatusCancelled }

// InKitchen reports whether the order has reached production. From that
// point its composition is frozen.
func (o Order) InKitchen() bool {
	return o.Status == OrderStatusInKitchen || o.Status == OrderStatusReady || o.IsCompleted()
}

type AuditLog struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// --- request / response payloads ---

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type OpenShiftRequest struct {
	EmployeeID     string `json:"employee_id"`
	StartCashCents int64  `json:"start_cash_cents"`
}

type CloseShiftRequest struct {
	ShiftID            string `json:"shift_id"`
	EndCashActualCents int64  `json:"end_cash_actual_cents"`
}

type ShiftTransactionRequest struct {
	ShiftID     string `json:"shift_id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Comment     string `json:"comment"`
}

type HandoverRequest struct {
	ShiftID    string   `json:"shift_id"`
	EmployeeID string   `json:"employee_id"`
	OrderIDs   []string `json:"order_ids"`
}

type HandoverResult struct {
	ShiftID         string   `json:"shift_id"`
	EmployeeID      string   `json:"employee_id"`
	OrderIDs        []string `json:"order_ids"`
	ReceivedCents   int64    `json:"received_cents"`
	NewBalanceCents int64    `json:"new_balance_cents"`
}

// ShiftStatistics is the Z-report payload. TheoreticalCashCents is start
// cash plus cash sales plus manual service movements; OutstandingCents is
// the share of cash sales employees have not yet handed over.
type ShiftStatistics struct {
	ShiftID              string `json:"shift_id"`
	StartCashCents       int64  `json:"start_cash_cents"`
	CashSalesCents       int64  `json:"cash_sales_cents"`
	CardSalesCents       int64  `json:"card_sales_cents"`
	TurnedInCashCents    int64  `json:"turned_in_cash_cents"`
	ServiceInCents       int64  `json:"service_in_cents"`
	ServiceOutCents      int64  `json:"service_out_cents"`
	TheoreticalCashCents int64  `json:"theoretical_cash_cents"`
	TotalSalesCents      int64  `json:"total_sales_cents"`
	OutstandingCents     int64  `json:"outstanding_cents"`
}

type MovementItemRequest struct {
	IngredientID string `json:"ingredient_id"`
	QtyMilli     int64  `json:"qty_milli"`
	PriceCents   int64  `json:"price_cents"`
}

type MovementRequest struct {
	Type              string                `json:"type"`
	SourceWarehouseID string                `json:"source_warehouse_id,omitempty"`
	TargetWarehouseID string                `json:"target_warehouse_id,omitempty"`
	SupplierID        string                `json:"supplier_id,omitempty"`
	Comment           string                `json:"comment,omitempty"`
	PaidCents         int64                 `json:"paid_cents,omitempty"`
	Items             []MovementItemRequest `json:"items"`
}

type StocktakeCountRequest struct {
	IngredientID string `json:"ingredient_id"`
	CountedMilli int64  `json:"counted_milli"`
}

type StocktakeRequest struct {
	WarehouseID string                  `json:"warehouse_id"`
	Counts      []StocktakeCountRequest `json:"counts"`
	Comment     string                  `json:"comment,omitempty"`
}

type StocktakeResult struct {
	SurplusDoc  *InventoryDoc `json:"surplus_doc,omitempty"`
	ShortageDoc *InventoryDoc `json:"shortage_doc,omitempty"`
}

type ProductionRequest struct {
	WarehouseID  string `json:"warehouse_id"`
	IngredientID string `json:"ingredient_id"`
	QtyMilli     int64  `json:"qty_milli"`
}

type ProductionResult struct {
	WriteoffDoc   *InventoryDoc `json:"writeoff_doc"`
	SupplyDoc     *InventoryDoc `json:"supply_doc"`
	UnitCostCents int64         `json:"unit_cost_cents"`
}

type CompleteOrderRequest struct {
	EmployeeID string `json:"employee_id"`
}

type CancelOrderRequest struct {
	Action       string `json:"action"`
	ApplyPenalty bool   `json:"apply_penalty"`
	Reason       string `json:"reason"`
	EmployeeID   string `json:"employee_id"`
	ManagerPIN   string `json:"manager_pin,omitempty"`
}

type SupplierPaymentRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type SupplierDebt struct {
	SupplierID       string `json:"supplier_id"`
	Name             string `json:"name"`
	DeliveredCents   int64  `json:"delivered_cents"`
	PaidCents        int64  `json:"paid_cents"`
	OutstandingCents int64  `json:"outstanding_cents"`
}

// ReorderSuggestion ranks ingredients worth restocking, from recent
// consumption versus on-hand stock.
type ReorderSuggestion struct {
	IngredientID      string  `json:"ingredient_id"`
	Name              string  `json:"name"`
	WarehouseID       string  `json:"warehouse_id"`
	OnHandMilli       int64   `json:"on_hand_milli"`
	ConsumedMilli     int64   `json:"consumed_milli"`
	SuggestedQtyMilli int64   `json:"suggested_qty_milli"`
	Urgency           float64 `json:"urgency"`
}

type ReorderReport struct {
	WarehouseID string              `json:"warehouse_id"`
	WindowDays  int                 `json:"window_days"`
	Suggestions []ReorderSuggestion `json:"suggestions"`
	LatencyMS   int64               `json:"latency_ms"`
}
