package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/xid"
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

// --- products ---

const productColumns = `sku, name, brand, unit_of_measure, retail_price, wholesale_price, cost_price, stock_qty, COALESCE(supplier_id,''), active, created_at, updated_at`

func scanProduct(scanner interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	err := scanner.Scan(&p.SKU, &p.Name, &p.Brand, &p.UnitOfMeasure, &p.RetailPrice, &p.WholesalePrice, &p.CostPrice, &p.StockQty, &p.SupplierID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 OR active = true)
		ORDER BY name
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.StockQty < 0 {
		return nil, store.ErrValidation
	}

	product.Active = true
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.UpdatedAt = product.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (sku, name, brand, unit_of_measure, retail_price, wholesale_price, cost_price, stock_qty, supplier_id, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, product.SKU, product.Name, product.Brand, product.UnitOfMeasure, product.RetailPrice, product.WholesalePrice, product.CostPrice, product.StockQty, nullIfEmpty(product.SupplierID), product.Active, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE sku = $1
	`, sku)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) GetProductsBySKUs(ctx context.Context, skus []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE active = true AND sku = ANY($1)
	`, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.SKU] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.StockQty < 0 {
		return nil, store.ErrValidation
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, brand = $3, unit_of_measure = $4, retail_price = $5, wholesale_price = $6,
			cost_price = $7, stock_qty = $8, supplier_id = $9, active = $10, updated_at = now()
		WHERE sku = $1
	`, product.SKU, product.Name, product.Brand, product.UnitOfMeasure, product.RetailPrice, product.WholesalePrice, product.CostPrice, product.StockQty, nullIfEmpty(product.SupplierID), product.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) DeactivateProduct(ctx context.Context, sku string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET active = false, updated_at = now()
		WHERE sku = $1
	`, sku)
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

func (s *Store) CreatePriceHistory(ctx context.Context, entry domain.ProductPriceHistory) error {
	if entry.ID == "" {
		entry.ID = xid.New("ph")
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_price_history (id, sku, tier, old_price, new_price, changed_by, changed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, entry.SKU, entry.Tier, entry.OldPrice, entry.NewPrice, entry.ChangedBy, entry.ChangedAt)
	return err
}

func (s *Store) ListPriceHistory(ctx context.Context, sku string, limit int) ([]domain.ProductPriceHistory, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, tier, old_price, new_price, changed_by, changed_at
		FROM product_price_history
		WHERE sku = $1
		ORDER BY changed_at DESC
		LIMIT $2
	`, sku, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]domain.ProductPriceHistory, 0, limit)
	for rows.Next() {
		var entry domain.ProductPriceHistory
		if err := rows.Scan(&entry.ID, &entry.SKU, &entry.Tier, &entry.OldPrice, &entry.NewPrice, &entry.ChangedBy, &entry.ChangedAt); err != nil {
			return nil, err
		}
		entry.ChangedAt = entry.ChangedAt.UTC()
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

// --- customers ---

const customerColumns = `id, name, COALESCE(display_name,''), COALESCE(phone,''), COALESCE(address,''), classification, credit_limit, balance, created_at`

func scanCustomer(scanner interface{ Scan(...any) error }) (domain.Customer, error) {
	var c domain.Customer
	err := scanner.Scan(&c.ID, &c.Name, &c.DisplayName, &c.Phone, &c.Address, &c.Classification, &c.CreditLimit, &c.Balance, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrValidation
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, display_name, phone, address, classification, credit_limit, balance, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, customer.ID, customer.Name, nullIfEmpty(customer.DisplayName), nullIfEmpty(customer.Phone), nullIfEmpty(customer.Address), customer.Classification, customer.CreditLimit, customer.Balance, customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE id = $1
	`, id)
	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrValidation
	}

	// Balance is driven by sales and payments, never by profile edits.
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $2, display_name = $3, phone = $4, address = $5, classification = $6, credit_limit = $7
		WHERE id = $1
	`, customer.ID, customer.Name, nullIfEmpty(customer.DisplayName), nullIfEmpty(customer.Phone), nullIfEmpty(customer.Address), customer.Classification, customer.CreditLimit)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetCustomer(ctx, customer.ID)
}

func (s *Store) CountSalesByCustomer(ctx context.Context, customerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)::int
		FROM sales
		WHERE customer_id = $1
	`, customerID).Scan(&count)
	return count, err
}

// --- suppliers ---

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, store.ErrValidation
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, phone, address, balance, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, supplier.ID, supplier.Name, nullIfEmpty(supplier.Phone), nullIfEmpty(supplier.Address), supplier.Balance, supplier.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := supplier
	return &created, nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(phone,''), COALESCE(address,''), balance, created_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.Address, &supplier.Balance, &supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	supplier.CreatedAt = supplier.CreatedAt.UTC()
	return &supplier, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(phone,''), COALESCE(address,''), balance, created_at
		FROM suppliers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var supplier domain.Supplier
		if err := rows.Scan(&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.Address, &supplier.Balance, &supplier.CreatedAt); err != nil {
			return nil, err
		}
		supplier.CreatedAt = supplier.CreatedAt.UTC()
		suppliers = append(suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

// --- sales ---

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, store.ErrValidation
	}

	if sale.IdempotencyKey != "" {
		if existing, err := s.FindSaleByIdempotencyKey(ctx, sale.IdempotencyKey); err == nil {
			return existing, nil
		}
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	needed := make(map[string]int, len(sale.Items))
	skus := make([]string, 0, len(sale.Items))
	for _, item := range sale.Items {
		if item.Qty < 1 {
			return nil, store.ErrValidation
		}
		if _, seen := needed[item.ProductSKU]; !seen {
			skus = append(skus, item.ProductSKU)
		}
		needed[item.ProductSKU] += item.Qty
	}

	stock, err := lockStock(ctx, pgTx, skus)
	if err != nil {
		return nil, err
	}
	for _, sku := range skus {
		available, exists := stock[sku]
		if !exists {
			return nil, store.ErrNotFound
		}
		if available < needed[sku] {
			return nil, &store.StockError{SKU: sku, Requested: needed[sku], Available: available}
		}
	}
	for _, sku := range skus {
		if err := adjustStock(ctx, pgTx, sku, -needed[sku]); err != nil {
			return nil, err
		}
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

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO sales (
			id, customer_id, cashier_username, idempotency_key, order_discount_type, order_discount_value,
			subtotal, item_discount_total, order_discount_amount, grand_total,
			status, state, payment_method, created_at, deleted_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NULL)
	`, sale.ID, nullIfEmpty(sale.CustomerID), sale.CashierUsername, nullIfEmpty(sale.IdempotencyKey),
		sale.OrderDiscount.Type, sale.OrderDiscount.Value, sale.Subtotal, sale.ItemDiscountTotal,
		sale.OrderDiscountAmount, sale.GrandTotal, sale.Status, sale.State, sale.PaymentMethod, sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.FindSaleByIdempotencyKey(ctx, sale.IdempotencyKey)
			if lookupErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	for i, item := range sale.Items {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO sale_items (
				sale_id, position, product_sku, product_name, brand, unit_of_measure,
				qty, unit_price, discount_type, discount_value, discount_amount, line_subtotal, line_total
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`, sale.ID, i, item.ProductSKU, item.ProductName, item.Brand, item.UnitOfMeasure,
			item.Qty, item.UnitPrice, item.Discount.Type, item.Discount.Value, item.DiscountAmount, item.LineSubtotal, item.LineTotal)
		if err != nil {
			return nil, err
		}
	}

	if err := applyCreditDelta(ctx, pgTx, sale, false); err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return &sale, nil
}

func lockStock(ctx context.Context, pgTx *sql.Tx, skus []string) (map[string]int, error) {
	rows, err := pgTx.QueryContext(ctx, `
		SELECT sku, stock_qty
		FROM products
		WHERE active = true AND sku = ANY($1)
		FOR UPDATE
	`, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stock := make(map[string]int, len(skus))
	for rows.Next() {
		var sku string
		var qty int
		if err := rows.Scan(&sku, &qty); err != nil {
			return nil, err
		}
		stock[sku] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stock, nil
}

func adjustStock(ctx context.Context, pgTx *sql.Tx, sku string, delta int) error {
	_, err := pgTx.ExecContext(ctx, `
		UPDATE products
		SET stock_qty = stock_qty + $2, updated_at = now()
		WHERE sku = $1
	`, sku, delta)
	return err
}

// applyCreditDelta keeps the customer running balance in step with
// credit sales across the active <-> soft_deleted transitions.
func applyCreditDelta(ctx context.Context, pgTx *sql.Tx, sale domain.Sale, reverse bool) error {
	if sale.PaymentMethod != "credit" || sale.CustomerID == "" {
		return nil
	}
	delta := sale.GrandTotal
	if reverse {
		delta = delta.Neg()
	}
	_, err := pgTx.ExecContext(ctx, `
		UPDATE customers
		SET balance = balance + $2
		WHERE id = $1
	`, sale.CustomerID, delta)
	return err
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return s.findSale(ctx, "id", id)
}

func (s *Store) FindSaleByIdempotencyKey(ctx context.Context, key string) (*domain.Sale, error) {
	return s.findSale(ctx, "idempotency_key", key)
}

func (s *Store) findSale(ctx context.Context, column string, value string) (*domain.Sale, error) {
	if column != "id" && column != "idempotency_key" {
		return nil, fmt.Errorf("unsupported lookup column")
	}

	var sale domain.Sale
	var customerID sql.NullString
	var idemKey sql.NullString
	var deletedAt sql.NullTime

	query := fmt.Sprintf(`
		SELECT id, customer_id, cashier_username, idempotency_key, order_discount_type, order_discount_value,
			subtotal, item_discount_total, order_discount_amount, grand_total,
			status, state, payment_method, created_at, deleted_at
		FROM sales
		WHERE %s = $1
	`, column)

	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&sale.ID,
		&customerID,
		&sale.CashierUsername,
		&idemKey,
		&sale.OrderDiscount.Type,
		&sale.OrderDiscount.Value,
		&sale.Subtotal,
		&sale.ItemDiscountTotal,
		&sale.OrderDiscountAmount,
		&sale.GrandTotal,
		&sale.Status,
		&sale.State,
		&sale.PaymentMethod,
		&sale.CreatedAt,
		&deletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if customerID.Valid {
		sale.CustomerID = customerID.String
	}
	if idemKey.Valid {
		sale.IdempotencyKey = idemKey.String
	}
	if deletedAt.Valid {
		at := deletedAt.Time.UTC()
		sale.DeletedAt = &at
	}
	sale.CreatedAt = sale.CreatedAt.UTC()

	items, err := s.loadSaleItems(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (s *Store) loadSaleItems(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_sku, product_name, brand, unit_of_measure,
			qty, unit_price, discount_type, discount_value, discount_amount, line_subtotal, line_total
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY position ASC
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ProductSKU, &item.ProductName, &item.Brand, &item.UnitOfMeasure,
			&item.Qty, &item.UnitPrice, &item.Discount.Type, &item.Discount.Value, &item.DiscountAmount, &item.LineSubtotal, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	state := filter.State
	if state == "" {
		state = domain.SaleStateActive
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 200
	}

	conditions := []string{"s.state = $1"}
	args := []any{state}
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conditions = append(conditions, "s.status = "+arg(filter.Status))
	}
	if filter.CustomerID != "" {
		conditions = append(conditions, "s.customer_id = "+arg(filter.CustomerID))
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "s.created_at >= "+arg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "s.created_at < "+arg(*filter.EndDate))
	}
	if filter.MinTotal != nil {
		conditions = append(conditions, "s.grand_total >= "+arg(*filter.MinTotal))
	}
	if filter.MaxTotal != nil {
		conditions = append(conditions, "s.grand_total <= "+arg(*filter.MaxTotal))
	}
	if filter.ProductName != "" {
		// Matches the stored line-item snapshot, never the live catalog.
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM sale_items si
			WHERE si.sale_id = s.id AND si.product_name ILIKE `+arg("%"+strings.TrimSpace(filter.ProductName)+"%")+`
		)`)
	}

	orderBy := "s.created_at"
	switch filter.SortBy {
	case domain.SortByAmount:
		orderBy = "s.grand_total"
	case domain.SortByCustomer:
		orderBy = "COALESCE(s.customer_id,'')"
	case domain.SortByStatus:
		orderBy = "s.status"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	query := `
		SELECT s.id
		FROM sales s
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY ` + orderBy + ` ` + direction + `, s.id ASC
		LIMIT ` + arg(limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sales := make([]domain.Sale, 0, len(ids))
	for _, id := range ids {
		sale, err := s.GetSale(ctx, id)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	return sales, nil
}

func (s *Store) SoftDeleteSale(ctx context.Context, id string, at time.Time) (*domain.Sale, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	sale, err := lockSale(ctx, pgTx, id)
	if err != nil {
		return nil, err
	}
	if sale.State != domain.SaleStateActive {
		return nil, store.ErrConflict
	}

	items, err := s.loadSaleItems(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := adjustStock(ctx, pgTx, item.ProductSKU, item.Qty); err != nil {
			return nil, err
		}
	}

	if err := applyCreditDelta(ctx, pgTx, *sale, true); err != nil {
		return nil, err
	}

	deletedAt := at.UTC()
	_, err = pgTx.ExecContext(ctx, `
		UPDATE sales
		SET state = $2, deleted_at = $3
		WHERE id = $1
	`, id, domain.SaleStateSoftDeleted, deletedAt)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	sale.Items = items
	sale.State = domain.SaleStateSoftDeleted
	sale.DeletedAt = &deletedAt
	return sale, nil
}

func (s *Store) RestoreSale(ctx context.Context, id string) (*domain.Sale, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	sale, err := lockSale(ctx, pgTx, id)
	if err != nil {
		return nil, err
	}
	if sale.State != domain.SaleStateSoftDeleted {
		return nil, store.ErrConflict
	}

	items, err := s.loadSaleItems(ctx, id)
	if err != nil {
		return nil, err
	}
	needed := make(map[string]int, len(items))
	skus := make([]string, 0, len(items))
	for _, item := range items {
		if _, seen := needed[item.ProductSKU]; !seen {
			skus = append(skus, item.ProductSKU)
		}
		needed[item.ProductSKU] += item.Qty
	}

	stock, err := lockStock(ctx, pgTx, skus)
	if err != nil {
		return nil, err
	}
	for _, sku := range skus {
		available, exists := stock[sku]
		if !exists {
			return nil, store.ErrNotFound
		}
		if available < needed[sku] {
			return nil, &store.StockError{SKU: sku, Requested: needed[sku], Available: available}
		}
	}
	for _, sku := range skus {
		if err := adjustStock(ctx, pgTx, sku, -needed[sku]); err != nil {
			return nil, err
		}
	}

	if err := applyCreditDelta(ctx, pgTx, *sale, false); err != nil {
		return nil, err
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE sales
		SET state = $2, deleted_at = NULL
		WHERE id = $1
	`, id, domain.SaleStateActive)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	sale.Items = items
	sale.State = domain.SaleStateActive
	sale.DeletedAt = nil
	return sale, nil
}

func (s *Store) PurgeSale(ctx context.Context, id string) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	sale, err := lockSale(ctx, pgTx, id)
	if err != nil {
		return err
	}
	if sale.State != domain.SaleStateSoftDeleted {
		return store.ErrConflict
	}

	if _, err := pgTx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, id); err != nil {
		return err
	}
	if _, err := pgTx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id); err != nil {
		return err
	}

	return pgTx.Commit()
}

// lockSale reads the full sale row under FOR UPDATE so callers can
// return it to the API unchanged apart from the state transition.
func lockSale(ctx context.Context, pgTx *sql.Tx, id string) (*domain.Sale, error) {
	var sale domain.Sale
	var customerID sql.NullString
	var idemKey sql.NullString
	var deletedAt sql.NullTime
	err := pgTx.QueryRowContext(ctx, `
		SELECT id, customer_id, cashier_username, idempotency_key, order_discount_type, order_discount_value,
			subtotal, item_discount_total, order_discount_amount, grand_total,
			status, state, payment_method, created_at, deleted_at
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&sale.ID,
		&customerID,
		&sale.CashierUsername,
		&idemKey,
		&sale.OrderDiscount.Type,
		&sale.OrderDiscount.Value,
		&sale.Subtotal,
		&sale.ItemDiscountTotal,
		&sale.OrderDiscountAmount,
		&sale.GrandTotal,
		&sale.Status,
		&sale.State,
		&sale.PaymentMethod,
		&sale.CreatedAt,
		&deletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if customerID.Valid {
		sale.CustomerID = customerID.String
	}
	if idemKey.Valid {
		sale.IdempotencyKey = idemKey.String
	}
	if deletedAt.Valid {
		at := deletedAt.Time.UTC()
		sale.DeletedAt = &at
	}
	sale.CreatedAt = sale.CreatedAt.UTC()
	return &sale, nil
}

// --- payments ---

func (s *Store) CreatePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	if payment.Amount.IsNegative() || payment.Amount.IsZero() {
		return nil, store.ErrValidation
	}
	if (payment.CustomerID == "") == (payment.SupplierID == "") {
		return nil, store.ErrValidation
	}
	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now().UTC()
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var table, counterpartyID string
	if payment.CustomerID != "" {
		table, counterpartyID = "customers", payment.CustomerID
	} else {
		table, counterpartyID = "suppliers", payment.SupplierID
	}

	res, err := pgTx.ExecContext(ctx, `
		UPDATE `+table+`
		SET balance = balance - $2
		WHERE id = $1
	`, counterpartyID, payment.Amount)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO payments (id, customer_id, supplier_id, amount, method, reference_no, paid_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, payment.ID, nullIfEmpty(payment.CustomerID), nullIfEmpty(payment.SupplierID), payment.Amount, payment.Method, nullIfEmpty(payment.ReferenceNo), payment.PaidAt)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	created := payment
	return &created, nil
}

func (s *Store) ListPayments(ctx context.Context, customerID string, supplierID string, limit int) ([]domain.Payment, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(customer_id,''), COALESCE(supplier_id,''), amount, method, COALESCE(reference_no,''), paid_at
		FROM payments
		WHERE ($1 = '' OR customer_id = $1)
			AND ($2 = '' OR supplier_id = $2)
		ORDER BY paid_at DESC
		LIMIT $3
	`, customerID, supplierID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0, limit)
	for rows.Next() {
		var payment domain.Payment
		if err := rows.Scan(&payment.ID, &payment.CustomerID, &payment.SupplierID, &payment.Amount, &payment.Method, &payment.ReferenceNo, &payment.PaidAt); err != nil {
			return nil, err
		}
		payment.PaidAt = payment.PaidAt.UTC()
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

// --- reporting ---

func (s *Store) GetDailyReport(ctx context.Context, from time.Time, to time.Time) (domain.DailyReport, error) {
	report := domain.DailyReport{
		GrossSales:    decimal.Zero,
		TotalDiscount: decimal.Zero,
		NetSales:      decimal.Zero,
		ByPayment:     make([]domain.PaymentTotal, 0, 4),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::bigint,
			COALESCE(SUM(subtotal),0),
			COALESCE(SUM(item_discount_total + order_discount_amount),0),
			COALESCE(SUM(grand_total),0)
		FROM sales
		WHERE state = $1
			AND status = $2
			AND created_at >= $3
			AND created_at < $4
	`, domain.SaleStateActive, domain.SaleStatusCompleted, from, to).Scan(
		&report.Sales,
		&report.GrossSales,
		&report.TotalDiscount,
		&report.NetSales,
	)
	if err != nil {
		return report, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payment_method, COUNT(*)::bigint, COALESCE(SUM(grand_total),0)
		FROM sales
		WHERE state = $1
			AND status = $2
			AND created_at >= $3
			AND created_at < $4
		GROUP BY payment_method
		ORDER BY payment_method
	`, domain.SaleStateActive, domain.SaleStatusCompleted, from, to)
	if err != nil {
		return report, err
	}
	defer rows.Close()

	for rows.Next() {
		var row domain.PaymentTotal
		if err := rows.Scan(&row.PaymentMethod, &row.Sales, &row.Total); err != nil {
			return report, err
		}
		report.ByPayment = append(report.ByPayment, row)
	}
	if err := rows.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// --- audit logs ---

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1
			AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrValidation
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrValidation
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
