package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer pricing tiers. A sale without a customer is a walk-in and is
// always priced at the retail tier.
const (
	ClassificationRetail    = "retail"
	ClassificationWholesale = "wholesale"
)

// Business status of a sale. Separate from the deletion state machine:
// a cancelled sale is still an active (visible) record.
const (
	SaleStatusCompleted = "completed"
	SaleStatusPending   = "pending"
	SaleStatusCancelled = "cancelled"
)

// Deletion lifecycle of a sale. Stock moves only on the
// active <-> soft_deleted transitions; purging is terminal and never
// touches stock again.
const (
	SaleStateActive      = "active"
	SaleStateSoftDeleted = "soft_deleted"
)

// Discount kinds. An empty type means "no discount".
const (
	DiscountNone       = ""
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Discount is a tagged variant: Type selects how Value is interpreted.
// Percentage values are 0..100; fixed values are absolute amounts.
type Discount struct {
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`
}

func (d Discount) IsZero() bool {
	return d.Type == DiscountNone
}

type Product struct {
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Brand          string          `json:"brand"`
	UnitOfMeasure  string          `json:"unit_of_measure"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	StockQty       int             `json:"stock_qty"`
	SupplierID     string          `json:"supplier_id,omitempty"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type ProductCreateRequest struct {
	SKU            string          `json:"sku" validate:"required"`
	Name           string          `json:"name" validate:"required"`
	Brand          string          `json:"brand"`
	UnitOfMeasure  string          `json:"unit_of_measure" validate:"required"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	InitialStock   int             `json:"initial_stock" validate:"min=0"`
	SupplierID     string          `json:"supplier_id"`
}

type ProductUpdateRequest struct {
	Name           *string          `json:"name,omitempty"`
	Brand          *string          `json:"brand,omitempty"`
	UnitOfMeasure  *string          `json:"unit_of_measure,omitempty"`
	RetailPrice    *decimal.Decimal `json:"retail_price,omitempty"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price,omitempty"`
	CostPrice      *decimal.Decimal `json:"cost_price,omitempty"`
	StockQty       *int             `json:"stock_qty,omitempty"`
	SupplierID     *string          `json:"supplier_id,omitempty"`
	Active         *bool            `json:"active,omitempty"`
}

type ProductPriceHistory struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Tier      string          `json:"tier"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	ChangedBy string          `json:"changed_by"`
	ChangedAt time.Time       `json:"changed_at"`
}

type Customer struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	DisplayName    string          `json:"display_name,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Address        string          `json:"address,omitempty"`
	Classification string          `json:"classification"`
	CreditLimit    decimal.Decimal `json:"credit_limit"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name           string          `json:"name" validate:"required"`
	DisplayName    string          `json:"display_name"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	Classification string          `json:"classification" validate:"omitempty,oneof=retail wholesale"`
	CreditLimit    decimal.Decimal `json:"credit_limit"`
}

type CustomerUpdateRequest struct {
	Name           *string          `json:"name,omitempty"`
	DisplayName    *string          `json:"display_name,omitempty"`
	Phone          *string          `json:"phone,omitempty"`
	Address        *string          `json:"address,omitempty"`
	Classification *string          `json:"classification,omitempty"`
	CreditLimit    *decimal.Decimal `json:"credit_limit,omitempty"`
}

type Supplier struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Address   string          `json:"address,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type SupplierCreateRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// SaleItem carries the catalog snapshot taken at sale time. The
// snapshot fields are never re-read from the products table; later
// catalog edits must not change a stored invoice.
type SaleItem struct {
	ProductSKU     string          `json:"product_sku"`
	ProductName    string          `json:"product_name"`
	Brand          string          `json:"brand,omitempty"`
	UnitOfMeasure  string          `json:"unit_of_measure"`
	Qty            int             `json:"qty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       Discount        `json:"discount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineSubtotal   decimal.Decimal `json:"line_subtotal"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

type Sale struct {
	ID                  string          `json:"id"`
	CustomerID          string          `json:"customer_id,omitempty"`
	CashierUsername     string          `json:"cashier_username"`
	IdempotencyKey      string          `json:"idempotency_key,omitempty"`
	Items               []SaleItem      `json:"items"`
	OrderDiscount       Discount        `json:"order_discount"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	ItemDiscountTotal   decimal.Decimal `json:"item_discount_total"`
	OrderDiscountAmount decimal.Decimal `json:"order_discount_amount"`
	GrandTotal          decimal.Decimal `json:"grand_total"`
	Status              string          `json:"status"`
	State               string          `json:"state"`
	PaymentMethod       string          `json:"payment_method"`
	CreatedAt           time.Time       `json:"created_at"`
	DeletedAt           *time.Time      `json:"deleted_at,omitempty"`
}

type SaleItemRequest struct {
	ProductSKU    string           `json:"product_id" validate:"required"`
	Qty           int              `json:"quantity" validate:"required,min=1"`
	DiscountType  string           `json:"item_discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue *decimal.Decimal `json:"item_discount_value,omitempty"`
}

type SaleCreateRequest struct {
	CustomerID     string            `json:"customer_id"`
	Items          []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	DiscountType   string            `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue  *decimal.Decimal  `json:"discount_value,omitempty"`
	PaymentMethod  string            `json:"payment_method"`
	IdempotencyKey string            `json:"idempotency_key"`
}

// ChangeFlags is a display hint produced by diffing a line-item
// snapshot against the live catalog. It never feeds back into stored
// totals.
type ChangeFlags struct {
	NameChanged    bool `json:"name_changed"`
	BrandChanged   bool `json:"brand_changed"`
	UOMChanged     bool `json:"uom_changed"`
	PriceChanged   bool `json:"price_changed"`
	ProductDeleted bool `json:"product_deleted"`
}

func (f ChangeFlags) Any() bool {
	return f.NameChanged || f.BrandChanged || f.UOMChanged || f.PriceChanged || f.ProductDeleted
}

type SaleItemView struct {
	SaleItem
	Changes ChangeFlags `json:"changes"`
}

type SaleView struct {
	Sale
	Items      []SaleItemView `json:"items"`
	HasChanges bool           `json:"has_changes"`
}

// SaleFilter drives the list/reporting read path. Product name is
// matched against the stored snapshot, not the live catalog.
type SaleFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Status      string
	State       string
	CustomerID  string
	ProductName string
	MinTotal    *decimal.Decimal
	MaxTotal    *decimal.Decimal
	SortBy      string
	SortDesc    bool
	Limit       int
}

// Sortable columns for SaleFilter.SortBy.
const (
	SortByDate     = "date"
	SortByAmount   = "amount"
	SortByCustomer = "customer"
	SortByStatus   = "status"
)

type Payment struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customer_id,omitempty"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	ReferenceNo string          `json:"reference_no,omitempty"`
	PaidAt      time.Time       `json:"paid_at"`
}

type PaymentCreateRequest struct {
	CustomerID  string          `json:"customer_id"`
	SupplierID  string          `json:"supplier_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" validate:"required"`
	ReferenceNo string          `json:"reference_no"`
	PaidAt      string          `json:"paid_at"`
}

type DailyReport struct {
	Date          string          `json:"date"`
	Sales         int64           `json:"sales"`
	GrossSales    decimal.Decimal `json:"gross_sales"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	NetSales      decimal.Decimal `json:"net_sales"`
	ByPayment     []PaymentTotal  `json:"by_payment"`
}

type PaymentTotal struct {
	PaymentMethod string          `json:"payment_method"`
	Sales         int64           `json:"sales"`
	Total         decimal.Decimal `json:"total"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type Actor struct {
	Username string
	Role     string
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

// UserAccount is the persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type CashierCreateRequest struct {
	Username string `json:"username" validate:"required,min=4"`
	Password string `json:"password" validate:"required,min=6"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
