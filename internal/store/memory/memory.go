// Package memory implements store.Repository with in-process maps.
// It backs local development and the test suites; the behavior
// (atomicity of sale + stock, deletion state machine, snapshot
// immutability) matches the postgres store.
package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	priceHistory    map[string][]domain.ProductPriceHistory
	customers       map[string]domain.Customer
	suppliers       map[string]domain.Supplier
	salesByID       map[string]*domain.Sale
	saleIDByIdemKey map[string]string
	payments        []domain.Payment
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		priceHistory:    make(map[string][]domain.ProductPriceHistory),
		customers:       make(map[string]domain.Customer),
		suppliers:       make(map[string]domain.Supplier),
		salesByID:       make(map[string]*domain.Sale),
		saleIDByIdemKey: make(map[string]string),
		payments:        make([]domain.Payment, 0, 64),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store preloaded with a small catalog, one retail
// and one wholesale customer, and dev user accounts for login.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	seedProducts := []domain.Product{
		{SKU: "SKU-BERAS-01", Name: "Beras Premium 5kg", Brand: "Cap Lumbung", UnitOfMeasure: "sack", RetailPrice: dec("78.00"), WholesalePrice: dec("71.50"), CostPrice: dec("64.00"), StockQty: 100, SupplierID: "sup-sembako-01"},
		{SKU: "SKU-MINYAK-01", Name: "Minyak Goreng 2L", Brand: "Tropis", UnitOfMeasure: "bottle", RetailPrice: dec("36.00"), WholesalePrice: dec("32.00"), CostPrice: dec("28.50"), StockQty: 100, SupplierID: "sup-sembako-01"},
		{SKU: "SKU-GULA-01", Name: "Gula Pasir 1kg", Brand: "Manis Jaya", UnitOfMeasure: "pack", RetailPrice: dec("17.50"), WholesalePrice: dec("15.75"), CostPrice: dec("14.00"), StockQty: 100, SupplierID: "sup-sembako-01"},
		{SKU: "SKU-KOPI-01", Name: "Kopi Bubuk 200g", Brand: "Aroma", UnitOfMeasure: "pack", RetailPrice: dec("24.00"), WholesalePrice: decimal.Zero, CostPrice: dec("18.00"), StockQty: 60},
		{SKU: "SKU-SABUN-01", Name: "Sabun Mandi Batang", Brand: "Segar", UnitOfMeasure: "pcs", RetailPrice: dec("7.25"), WholesalePrice: dec("6.10"), CostPrice: dec("5.20"), StockQty: 200},
	}
	for _, p := range seedProducts {
		p.Active = true
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.SKU] = p
	}

	s.suppliers["sup-sembako-01"] = domain.Supplier{
		ID:        "sup-sembako-01",
		Name:      "PT Sembako Makmur",
		Phone:     "0211234567",
		Balance:   decimal.Zero,
		CreatedAt: now,
	}

	s.customers["cust-andi-01"] = domain.Customer{
		ID:             "cust-andi-01",
		Name:           "Andi Wijaya",
		Classification: domain.ClassificationRetail,
		CreditLimit:    dec("500.00"),
		Balance:        decimal.Zero,
		CreatedAt:      now,
	}
	s.customers["cust-tokobesar-01"] = domain.Customer{
		ID:             "cust-tokobesar-01",
		Name:           "Toko Besar Sejahtera",
		DisplayName:    "Toko Besar",
		Phone:          "0812000111",
		Address:        "Jl. Pasar Baru 12",
		Classification: domain.ClassificationWholesale,
		CreditLimit:    dec("10000.00"),
		Balance:        decimal.Zero,
		CreatedAt:      now,
	}

	s.usersByUsername = seedUsers()
	return s
}

// seedUsers builds the dev/demo login accounts. Passwords come from
// SEED_ADMIN_PASSWORD / SEED_CASHIER_PASSWORD, with a warning when the
// hardcoded defaults are used.
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

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// --- products ---

func (s *Store) ListProducts(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active && !includeInactive {
			continue
		}
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return strings.Compare(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.SKU == "" || product.Name == "" || product.StockQty < 0 {
		return nil, store.ErrValidation
	}
	if _, exists := s.products[product.SKU]; exists {
		return nil, store.ErrConflict
	}

	product.Active = true
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.UpdatedAt = product.CreatedAt
	s.products[product.SKU] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[sku]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := product
	return &copied, nil
}

func (s *Store) GetProductsBySKUs(_ context.Context, skus []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(skus))
	for _, sku := range skus {
		if p, exists := s.products[sku]; exists && p.Active {
			result[sku] = p
		}
	}
	return result, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.products[product.SKU]
	if !exists {
		return nil, store.ErrNotFound
	}
	if product.Name == "" || product.StockQty < 0 {
		return nil, store.ErrValidation
	}

	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.SKU] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeactivateProduct(_ context.Context, sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[sku]
	if !exists {
		return store.ErrNotFound
	}
	product.Active = false
	product.UpdatedAt = time.Now().UTC()
	s.products[sku] = product
	return nil
}

func (s *Store) CreatePriceHistory(_ context.Context, entry domain.ProductPriceHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("ph")
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	s.priceHistory[entry.SKU] = append(s.priceHistory[entry.SKU], entry)
	return nil
}

func (s *Store) ListPriceHistory(_ context.Context, sku string, limit int) ([]domain.ProductPriceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 50
	}
	history := slices.Clone(s.priceHistory[sku])
	slices.SortFunc(history, func(a, b domain.ProductPriceHistory) int {
		return b.ChangedAt.Compare(a.ChangedAt)
	})
	if len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// --- customers ---

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.Name == "" {
		return nil, store.ErrValidation
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if _, exists := s.customers[customer.ID]; exists {
		return nil, store.ErrConflict
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	s.customers[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := customer
	return &copied, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return strings.Compare(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.customers[customer.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if customer.Name == "" {
		return nil, store.ErrValidation
	}
	customer.CreatedAt = existing.CreatedAt
	customer.Balance = existing.Balance
	s.customers[customer.ID] = customer
	updated := customer
	return &updated, nil
}

func (s *Store) CountSalesByCustomer(_ context.Context, customerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sale := range s.salesByID {
		if sale.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

// --- suppliers ---

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if supplier.Name == "" {
		return nil, store.ErrValidation
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}
	s.suppliers[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := supplier
	return &copied, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		suppliers = append(suppliers, sup)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		return strings.Compare(a.Name, b.Name)
	})
	return suppliers, nil
}

// --- sales ---

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sale.Items) == 0 {
		return nil, store.ErrValidation
	}

	if sale.IdempotencyKey != "" {
		if existingID, ok := s.saleIDByIdemKey[sale.IdempotencyKey]; ok {
			existing := cloneSale(s.salesByID[existingID])
			return existing, nil
		}
	}

	// All-or-nothing: verify every line before mutating any stock.
	needed := make(map[string]int, len(sale.Items))
	for _, item := range sale.Items {
		if item.Qty < 1 {
			return nil, store.ErrValidation
		}
		needed[item.ProductSKU] += item.Qty
	}
	for sku, qty := range needed {
		product, exists := s.products[sku]
		if !exists || !product.Active {
			return nil, store.ErrNotFound
		}
		if product.StockQty < qty {
			return nil, &store.StockError{SKU: sku, Requested: qty, Available: product.StockQty}
		}
	}
	for sku, qty := range needed {
		product := s.products[sku]
		product.StockQty -= qty
		product.UpdatedAt = time.Now().UTC()
		s.products[sku] = product
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.Status == "" {
		sale.Status = domain.SaleStatusCompleted
	}
	sale.State = domain.SaleStateActive
	sale.DeletedAt = nil

	s.applyCreditDelta(sale, false)

	stored := cloneSale(&sale)
	s.salesByID[sale.ID] = stored
	if sale.IdempotencyKey != "" {
		s.saleIDByIdemKey[sale.IdempotencyKey] = sale.ID
	}
	return cloneSale(stored), nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) FindSaleByIdempotencyKey(_ context.Context, key string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.saleIDByIdemKey[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSale(s.salesByID[id]), nil
}

func (s *Store) ListSales(_ context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := filter.State
	if state == "" {
		state = domain.SaleStateActive
	}

	sales := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if sale.State != state {
			continue
		}
		if filter.Status != "" && sale.Status != filter.Status {
			continue
		}
		if filter.CustomerID != "" && sale.CustomerID != filter.CustomerID {
			continue
		}
		if filter.StartDate != nil && sale.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && !sale.CreatedAt.Before(*filter.EndDate) {
			continue
		}
		if filter.MinTotal != nil && sale.GrandTotal.LessThan(*filter.MinTotal) {
			continue
		}
		if filter.MaxTotal != nil && sale.GrandTotal.GreaterThan(*filter.MaxTotal) {
			continue
		}
		if filter.ProductName != "" && !saleMatchesProductName(sale, filter.ProductName) {
			continue
		}
		sales = append(sales, *cloneSale(sale))
	}

	sortSales(sales, filter.SortBy, filter.SortDesc)
	if filter.Limit > 0 && len(sales) > filter.Limit {
		sales = sales[:filter.Limit]
	}
	return sales, nil
}

// saleMatchesProductName matches against the stored line-item
// snapshots, never the live catalog.
func saleMatchesProductName(sale *domain.Sale, name string) bool {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, item := range sale.Items {
		if strings.Contains(strings.ToLower(item.ProductName), needle) {
			return true
		}
	}
	return false
}

func sortSales(sales []domain.Sale, sortBy string, desc bool) {
	less := func(a, b domain.Sale) int {
		switch sortBy {
		case domain.SortByAmount:
			return a.GrandTotal.Cmp(b.GrandTotal)
		case domain.SortByCustomer:
			return strings.Compare(a.CustomerID, b.CustomerID)
		case domain.SortByStatus:
			return strings.Compare(a.Status, b.Status)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	slices.SortStableFunc(sales, func(a, b domain.Sale) int {
		cmp := less(a, b)
		if desc {
			return -cmp
		}
		return cmp
	})
}

func (s *Store) SoftDeleteSale(_ context.Context, id string, at time.Time) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.State != domain.SaleStateActive {
		return nil, store.ErrConflict
	}

	// Credit every line's quantity back to stock.
	for _, item := range sale.Items {
		if product, ok := s.products[item.ProductSKU]; ok {
			product.StockQty += item.Qty
			product.UpdatedAt = at
			s.products[item.ProductSKU] = product
		}
	}

	s.applyCreditDelta(*sale, true)

	sale.State = domain.SaleStateSoftDeleted
	deletedAt := at.UTC()
	sale.DeletedAt = &deletedAt
	return cloneSale(sale), nil
}

func (s *Store) RestoreSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.State != domain.SaleStateSoftDeleted {
		return nil, store.ErrConflict
	}

	needed := make(map[string]int, len(sale.Items))
	for _, item := range sale.Items {
		needed[item.ProductSKU] += item.Qty
	}
	for sku, qty := range needed {
		product, exists := s.products[sku]
		if !exists {
			return nil, store.ErrNotFound
		}
		if product.StockQty < qty {
			return nil, &store.StockError{SKU: sku, Requested: qty, Available: product.StockQty}
		}
	}
	for sku, qty := range needed {
		product := s.products[sku]
		product.StockQty -= qty
		product.UpdatedAt = time.Now().UTC()
		s.products[sku] = product
	}

	s.applyCreditDelta(*sale, false)

	sale.State = domain.SaleStateActive
	sale.DeletedAt = nil
	return cloneSale(sale), nil
}

func (s *Store) PurgeSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return store.ErrNotFound
	}
	if sale.State != domain.SaleStateSoftDeleted {
		return store.ErrConflict
	}

	delete(s.salesByID, id)
	if sale.IdempotencyKey != "" {
		delete(s.saleIDByIdemKey, sale.IdempotencyKey)
	}
	return nil
}

// applyCreditDelta keeps the customer running balance in step with
// credit sales: the balance grows when a credit sale becomes active
// and shrinks when it is soft-deleted.
func (s *Store) applyCreditDelta(sale domain.Sale, reverse bool) {
	if sale.PaymentMethod != "credit" || sale.CustomerID == "" {
		return
	}
	customer, ok := s.customers[sale.CustomerID]
	if !ok {
		return
	}
	if reverse {
		customer.Balance = customer.Balance.Sub(sale.GrandTotal)
	} else {
		customer.Balance = customer.Balance.Add(sale.GrandTotal)
	}
	s.customers[sale.CustomerID] = customer
}

func cloneSale(sale *domain.Sale) *domain.Sale {
	copied := *sale
	copied.Items = slices.Clone(sale.Items)
	if sale.DeletedAt != nil {
		at := *sale.DeletedAt
		copied.DeletedAt = &at
	}
	return &copied
}

// --- payments ---

func (s *Store) CreatePayment(_ context.Context, payment domain.Payment) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payment.Amount.IsNegative() || payment.Amount.IsZero() {
		return nil, store.ErrValidation
	}
	if (payment.CustomerID == "") == (payment.SupplierID == "") {
		return nil, store.ErrValidation
	}

	if payment.CustomerID != "" {
		customer, exists := s.customers[payment.CustomerID]
		if !exists {
			return nil, store.ErrNotFound
		}
		customer.Balance = customer.Balance.Sub(payment.Amount)
		s.customers[payment.CustomerID] = customer
	} else {
		supplier, exists := s.suppliers[payment.SupplierID]
		if !exists {
			return nil, store.ErrNotFound
		}
		supplier.Balance = supplier.Balance.Sub(payment.Amount)
		s.suppliers[payment.SupplierID] = supplier
	}

	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now().UTC()
	}
	s.payments = append(s.payments, payment)
	created := payment
	return &created, nil
}

func (s *Store) ListPayments(_ context.Context, customerID string, supplierID string, limit int) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.Payment, 0, limit)
	for i := len(s.payments) - 1; i >= 0 && len(result) < limit; i-- {
		p := s.payments[i]
		if customerID != "" && p.CustomerID != customerID {
			continue
		}
		if supplierID != "" && p.SupplierID != supplierID {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

// --- reporting ---

func (s *Store) GetDailyReport(_ context.Context, from time.Time, to time.Time) (domain.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.DailyReport{
		GrossSales:    decimal.Zero,
		TotalDiscount: decimal.Zero,
		NetSales:      decimal.Zero,
	}
	byPayment := make(map[string]*domain.PaymentTotal)

	for _, sale := range s.salesByID {
		if sale.State != domain.SaleStateActive || sale.Status != domain.SaleStatusCompleted {
			continue
		}
		if sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}
		report.Sales++
		report.GrossSales = report.GrossSales.Add(sale.Subtotal)
		report.TotalDiscount = report.TotalDiscount.Add(sale.ItemDiscountTotal).Add(sale.OrderDiscountAmount)
		report.NetSales = report.NetSales.Add(sale.GrandTotal)

		entry, ok := byPayment[sale.PaymentMethod]
		if !ok {
			entry = &domain.PaymentTotal{PaymentMethod: sale.PaymentMethod, Total: decimal.Zero}
			byPayment[sale.PaymentMethod] = entry
		}
		entry.Sales++
		entry.Total = entry.Total.Add(sale.GrandTotal)
	}

	methods := make([]string, 0, len(byPayment))
	for method := range byPayment {
		methods = append(methods, method)
	}
	slices.Sort(methods)
	for _, method := range methods {
		report.ByPayment = append(report.ByPayment, *byPayment[method])
	}
	return report, nil
}

// --- audit logs ---

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

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(result) < limit; i-- {
		entry := s.auditLogs[i]
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrValidation
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
