package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"warungpos/backend/internal/cache"
	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/metrics"
	"warungpos/backend/internal/pricing"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	// WholesaleFallbackToRetail controls what happens when a wholesale
	// customer buys a product without a wholesale price.
	WholesaleFallbackToRetail bool
	ReportCacheTTL            time.Duration
}

type Service struct {
	repo        store.Repository
	reportCache cache.ReportCache
	opts        Options
}

func New(repo store.Repository, reportCache cache.ReportCache, opts Options) *Service {
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	if opts.ReportCacheTTL < 1 {
		opts.ReportCacheTTL = 30 * time.Second
	}

	return &Service{
		repo:        repo,
		reportCache: reportCache,
		opts:        opts,
	}
}

// --- products ---

func (s *Service) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, includeInactive)
}

func (s *Service) GetProduct(ctx context.Context, sku string) (domain.Product, error) {
	product, err := s.repo.GetProductBySKU(ctx, strings.ToUpper(strings.TrimSpace(sku)))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)

	if req.SKU == "" || req.Name == "" || req.UnitOfMeasure == "" {
		return domain.Product{}, fmt.Errorf("%w: sku, name and unit_of_measure are required", store.ErrValidation)
	}
	if req.RetailPrice.IsNegative() || req.RetailPrice.IsZero() {
		return domain.Product{}, fmt.Errorf("%w: retail_price must be positive", store.ErrValidation)
	}
	if req.WholesalePrice.IsNegative() || req.CostPrice.IsNegative() || req.InitialStock < 0 {
		return domain.Product{}, fmt.Errorf("%w: prices and stock must not be negative", store.ErrValidation)
	}

	product := domain.Product{
		SKU:            req.SKU,
		Name:           req.Name,
		Brand:          strings.TrimSpace(req.Brand),
		UnitOfMeasure:  strings.TrimSpace(req.UnitOfMeasure),
		RetailPrice:    req.RetailPrice.Round(2),
		WholesalePrice: req.WholesalePrice.Round(2),
		CostPrice:      req.CostPrice.Round(2),
		StockQty:       req.InitialStock,
		SupplierID:     strings.TrimSpace(req.SupplierID),
		Active:         true,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.SKU, fmt.Sprintf("name=%s,retail=%s,stock=%d", created.Name, created.RetailPrice, created.StockQty))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, sku string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}

	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return domain.Product{}, fmt.Errorf("%w: sku is required", store.ErrValidation)
	}

	existing, err := s.repo.GetProductBySKU(ctx, sku)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Brand != nil {
		updated.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.UnitOfMeasure != nil {
		updated.UnitOfMeasure = strings.TrimSpace(*req.UnitOfMeasure)
	}
	if req.RetailPrice != nil {
		if req.RetailPrice.IsNegative() || req.RetailPrice.IsZero() {
			return domain.Product{}, fmt.Errorf("%w: retail_price must be positive", store.ErrValidation)
		}
		updated.RetailPrice = req.RetailPrice.Round(2)
	}
	if req.WholesalePrice != nil {
		if req.WholesalePrice.IsNegative() {
			return domain.Product{}, fmt.Errorf("%w: wholesale_price must not be negative", store.ErrValidation)
		}
		updated.WholesalePrice = req.WholesalePrice.Round(2)
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return domain.Product{}, fmt.Errorf("%w: cost_price must not be negative", store.ErrValidation)
		}
		updated.CostPrice = req.CostPrice.Round(2)
	}
	if req.StockQty != nil {
		if *req.StockQty < 0 {
			return domain.Product{}, fmt.Errorf("%w: stock_qty must not be negative", store.ErrValidation)
		}
		updated.StockQty = *req.StockQty
	}
	if req.SupplierID != nil {
		updated.SupplierID = strings.TrimSpace(*req.SupplierID)
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}
	if updated.Name == "" || updated.UnitOfMeasure == "" {
		return domain.Product{}, fmt.Errorf("%w: name and unit_of_measure must not be empty", store.ErrValidation)
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.recordPriceChange(ctx, *existing, *saved, actor.Username)
	s.logAudit(ctx, "product_update", "product", saved.SKU, fmt.Sprintf("name=%s,retail=%s,wholesale=%s,stock=%d", saved.Name, saved.RetailPrice, saved.WholesalePrice, saved.StockQty))
	return *saved, nil
}

func (s *Service) DeactivateProduct(ctx context.Context, sku string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}

	sku = strings.ToUpper(strings.TrimSpace(sku))
	if err := s.repo.DeactivateProduct(ctx, sku); err != nil {
		return err
	}
	s.logAudit(ctx, "product_deactivate", "product", sku, "")
	return nil
}

func (s *Service) ListProductPriceHistory(ctx context.Context, sku string, limit int) ([]domain.ProductPriceHistory, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, fmt.Errorf("%w: sku is required", store.ErrValidation)
	}
	return s.repo.ListPriceHistory(ctx, sku, limit)
}

// recordPriceChange writes one history row per tier that moved.
// History is informational; stored sale snapshots never consult it.
func (s *Service) recordPriceChange(ctx context.Context, before domain.Product, after domain.Product, changedBy string) {
	changes := []struct {
		tier string
		old  decimal.Decimal
		new  decimal.Decimal
	}{
		{domain.ClassificationRetail, before.RetailPrice, after.RetailPrice},
		{domain.ClassificationWholesale, before.WholesalePrice, after.WholesalePrice},
	}
	for _, change := range changes {
		if change.old.Equal(change.new) {
			continue
		}
		err := s.repo.CreatePriceHistory(ctx, domain.ProductPriceHistory{
			ID:        xid.New("ph"),
			SKU:       after.SKU,
			Tier:      change.tier,
			OldPrice:  change.old,
			NewPrice:  change.new,
			ChangedBy: changedBy,
			ChangedAt: time.Now().UTC(),
		})
		if err != nil {
			zap.L().Warn("failed to record price history",
				zap.String("sku", after.SKU),
				zap.String("tier", change.tier),
				zap.Error(err))
		}
	}
}

// --- customers ---

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Customer{}, fmt.Errorf("%w: name is required", store.ErrValidation)
	}
	if req.Classification == "" {
		req.Classification = domain.ClassificationRetail
	}
	if req.Classification != domain.ClassificationRetail && req.Classification != domain.ClassificationWholesale {
		return domain.Customer{}, fmt.Errorf("%w: classification must be retail or wholesale", store.ErrValidation)
	}
	if req.CreditLimit.IsNegative() {
		return domain.Customer{}, fmt.Errorf("%w: credit_limit must not be negative", store.ErrValidation)
	}

	customer := domain.Customer{
		ID:             xid.New("cust"),
		Name:           req.Name,
		DisplayName:    strings.TrimSpace(req.DisplayName),
		Phone:          strings.TrimSpace(req.Phone),
		Address:        strings.TrimSpace(req.Address),
		Classification: req.Classification,
		CreditLimit:    req.CreditLimit.Round(2),
		Balance:        decimal.Zero,
	}

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_create", "customer", created.ID, fmt.Sprintf("name=%s,classification=%s", created.Name, created.Classification))
	return *created, nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	existing, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.DisplayName != nil {
		updated.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}
	if req.CreditLimit != nil {
		if req.CreditLimit.IsNegative() {
			return domain.Customer{}, fmt.Errorf("%w: credit_limit must not be negative", store.ErrValidation)
		}
		updated.CreditLimit = req.CreditLimit.Round(2)
	}
	if req.Classification != nil && *req.Classification != existing.Classification {
		if *req.Classification != domain.ClassificationRetail && *req.Classification != domain.ClassificationWholesale {
			return domain.Customer{}, fmt.Errorf("%w: classification must be retail or wholesale", store.ErrValidation)
		}
		// Classification is frozen once the customer has purchase
		// history; reclassifying would misprice every future receipt
		// relative to the existing ones.
		count, err := s.repo.CountSalesByCustomer(ctx, id)
		if err != nil {
			return domain.Customer{}, err
		}
		if count > 0 {
			return domain.Customer{}, fmt.Errorf("%w: classification cannot change after the customer has sales", store.ErrValidation)
		}
		updated.Classification = *req.Classification
	}
	if updated.Name == "" {
		return domain.Customer{}, fmt.Errorf("%w: name must not be empty", store.ErrValidation)
	}

	saved, err := s.repo.UpdateCustomer(ctx, updated)
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_update", "customer", saved.ID, fmt.Sprintf("name=%s,classification=%s", saved.Name, saved.Classification))
	return *saved, nil
}

// --- suppliers ---

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Supplier{}, fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Supplier{}, fmt.Errorf("%w: name is required", store.ErrValidation)
	}

	supplier := domain.Supplier{
		ID:      xid.New("sup"),
		Name:    req.Name,
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
		Balance: decimal.Zero,
	}

	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}

	s.logAudit(ctx, "supplier_create", "supplier", created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// --- sales ---

func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	actor, _ := ActorFromContext(ctx)

	if len(req.Items) == 0 {
		metrics.SalesFailedTotal.WithLabelValues("empty_cart").Inc()
		return domain.Sale{}, fmt.Errorf("%w: cart must contain at least one item", store.ErrValidation)
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}
	if !isSupportedPaymentMethod(req.PaymentMethod) {
		return domain.Sale{}, fmt.Errorf("%w: unsupported payment method %q", store.ErrValidation, req.PaymentMethod)
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}

	if existing, err := s.repo.FindSaleByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
		return *existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Sale{}, err
	}

	classification := domain.ClassificationRetail
	if req.CustomerID != "" {
		customer, err := s.repo.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Sale{}, fmt.Errorf("%w: customer %s", store.ErrNotFound, req.CustomerID)
			}
			return domain.Sale{}, err
		}
		classification = customer.Classification
	} else if req.PaymentMethod == "credit" {
		return domain.Sale{}, fmt.Errorf("%w: credit sales require a customer", store.ErrValidation)
	}

	skus := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Qty < 1 {
			metrics.SalesFailedTotal.WithLabelValues("invalid_quantity").Inc()
			return domain.Sale{}, fmt.Errorf("%w: quantity must be at least 1 for %s", store.ErrValidation, item.ProductSKU)
		}
		skus = append(skus, strings.ToUpper(strings.TrimSpace(item.ProductSKU)))
	}

	products, err := s.repo.GetProductsBySKUs(ctx, skus)
	if err != nil {
		return domain.Sale{}, err
	}

	saleItems := make([]domain.SaleItem, 0, len(req.Items))
	lineResults := make([]pricing.LineResult, 0, len(req.Items))
	for i, item := range req.Items {
		sku := skus[i]
		product, exists := products[sku]
		if !exists {
			metrics.SalesFailedTotal.WithLabelValues("unknown_product").Inc()
			return domain.Sale{}, fmt.Errorf("%w: product %s", store.ErrNotFound, sku)
		}

		unitPrice, err := pricing.ResolvePrice(product, classification, s.opts.WholesaleFallbackToRetail)
		if err != nil {
			zap.L().Error("price resolution failed",
				zap.String("sku", sku),
				zap.String("classification", classification),
				zap.Error(err))
			return domain.Sale{}, err
		}

		discount := domain.Discount{Type: item.DiscountType}
		if item.DiscountValue != nil {
			discount.Value = *item.DiscountValue
		}
		if discount.Type == domain.DiscountNone && !discount.Value.IsZero() {
			return domain.Sale{}, fmt.Errorf("%w: discount value without a type on %s", store.ErrValidation, sku)
		}

		line, err := pricing.ComputeLine(pricing.Line{UnitPrice: unitPrice, Qty: item.Qty, Discount: discount})
		if err != nil {
			return domain.Sale{}, fmt.Errorf("%w: %s on %s", store.ErrValidation, err, sku)
		}
		if line.Clamped {
			metrics.DiscountClampsTotal.Inc()
			zap.L().Warn("item discount clamped to line subtotal",
				zap.String("sku", sku),
				zap.String("subtotal", line.Subtotal.String()))
		}

		lineResults = append(lineResults, line)
		saleItems = append(saleItems, domain.SaleItem{
			ProductSKU:     sku,
			ProductName:    product.Name,
			Brand:          product.Brand,
			UnitOfMeasure:  product.UnitOfMeasure,
			Qty:            item.Qty,
			UnitPrice:      unitPrice,
			Discount:       discount,
			DiscountAmount: line.DiscountAmount,
			LineSubtotal:   line.Subtotal,
			LineTotal:      line.Total,
		})
	}

	orderDiscount := domain.Discount{Type: req.DiscountType}
	if req.DiscountValue != nil {
		orderDiscount.Value = *req.DiscountValue
	}
	if orderDiscount.Type == domain.DiscountNone && !orderDiscount.Value.IsZero() {
		return domain.Sale{}, fmt.Errorf("%w: order discount value without a type", store.ErrValidation)
	}

	totals, err := pricing.ComputeTotals(lineResults, orderDiscount)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("%w: %s", store.ErrValidation, err)
	}
	if totals.Clamped {
		metrics.DiscountClampsTotal.Inc()
		zap.L().Warn("order discount clamped to discountable base",
			zap.String("subtotal", totals.Subtotal.String()))
	}

	sale := domain.Sale{
		ID:                  xid.New("sale"),
		CustomerID:          req.CustomerID,
		CashierUsername:     actor.Username,
		IdempotencyKey:      req.IdempotencyKey,
		Items:               saleItems,
		OrderDiscount:       orderDiscount,
		Subtotal:            totals.Subtotal,
		ItemDiscountTotal:   totals.ItemDiscountTotal,
		OrderDiscountAmount: totals.OrderDiscountAmount,
		GrandTotal:          totals.GrandTotal,
		Status:              domain.SaleStatusCompleted,
		State:               domain.SaleStateActive,
		PaymentMethod:       req.PaymentMethod,
		CreatedAt:           time.Now().UTC(),
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		var stockErr *store.StockError
		if errors.As(err, &stockErr) {
			metrics.StockRejectionsTotal.Inc()
			metrics.SalesFailedTotal.WithLabelValues("insufficient_stock").Inc()
		}
		return domain.Sale{}, err
	}

	metrics.SalesCreatedTotal.Inc()
	s.logAudit(ctx, "sale_create", "sale", created.ID, fmt.Sprintf("total=%s,payment=%s,items=%d", created.GrandTotal, created.PaymentMethod, len(created.Items)))
	return *created, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.SaleView, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.SaleView{}, err
	}
	return s.buildSaleView(ctx, *sale)
}

func (s *Service) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.SaleView, error) {
	sales, err := s.repo.ListSales(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]domain.SaleView, 0, len(sales))
	for _, sale := range sales {
		view, err := s.buildSaleView(ctx, sale)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) ListDeletedSales(ctx context.Context, filter domain.SaleFilter) ([]domain.SaleView, error) {
	filter.State = domain.SaleStateSoftDeleted
	return s.ListSales(ctx, filter)
}

// buildSaleView decorates stored snapshots with diff flags against the
// live catalog. The stored amounts pass through untouched.
func (s *Service) buildSaleView(ctx context.Context, sale domain.Sale) (domain.SaleView, error) {
	skus := make([]string, 0, len(sale.Items))
	for _, item := range sale.Items {
		skus = append(skus, item.ProductSKU)
	}
	products, err := s.repo.GetProductsBySKUs(ctx, skus)
	if err != nil {
		return domain.SaleView{}, err
	}

	view := domain.SaleView{
		Sale:  sale,
		Items: make([]domain.SaleItemView, 0, len(sale.Items)),
	}
	for _, item := range sale.Items {
		flags := diffSnapshot(item, products)
		if flags.Any() {
			view.HasChanges = true
		}
		view.Items = append(view.Items, domain.SaleItemView{SaleItem: item, Changes: flags})
	}
	return view, nil
}

func diffSnapshot(item domain.SaleItem, catalog map[string]domain.Product) domain.ChangeFlags {
	product, exists := catalog[item.ProductSKU]
	if !exists {
		return domain.ChangeFlags{ProductDeleted: true}
	}

	return domain.ChangeFlags{
		NameChanged:  product.Name != item.ProductName,
		BrandChanged: product.Brand != item.Brand,
		UOMChanged:   product.UnitOfMeasure != item.UnitOfMeasure,
		PriceChanged: !product.RetailPrice.Equal(item.UnitPrice) && !product.WholesalePrice.Equal(item.UnitPrice),
	}
}

func (s *Service) DeleteSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.SoftDeleteSale(ctx, id, time.Now().UTC())
	if err != nil {
		return domain.Sale{}, err
	}

	metrics.SalesDeletedTotal.Inc()
	s.logAudit(ctx, "sale_delete", "sale", sale.ID, fmt.Sprintf("total=%s", sale.GrandTotal))
	return *sale, nil
}

func (s *Service) RestoreSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.RestoreSale(ctx, id)
	if err != nil {
		var stockErr *store.StockError
		if errors.As(err, &stockErr) {
			metrics.StockRejectionsTotal.Inc()
		}
		return domain.Sale{}, err
	}

	metrics.SalesRestoredTotal.Inc()
	s.logAudit(ctx, "sale_restore", "sale", sale.ID, fmt.Sprintf("total=%s", sale.GrandTotal))
	return *sale, nil
}

func (s *Service) PurgeSale(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}

	if err := s.repo.PurgeSale(ctx, id); err != nil {
		return err
	}

	metrics.SalesPurgedTotal.Inc()
	s.logAudit(ctx, "sale_purge", "sale", id, "")
	return nil
}

// --- payments ---

func (s *Service) CreatePayment(ctx context.Context, req domain.PaymentCreateRequest) (domain.Payment, error) {
	if (req.CustomerID == "") == (req.SupplierID == "") {
		return domain.Payment{}, fmt.Errorf("%w: exactly one of customer_id or supplier_id is required", store.ErrValidation)
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return domain.Payment{}, fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			return domain.Payment{}, fmt.Errorf("%w: paid_at must be RFC3339", store.ErrValidation)
		}
		paidAt = parsed.UTC()
	}

	payment := domain.Payment{
		ID:          xid.New("pay"),
		CustomerID:  req.CustomerID,
		SupplierID:  req.SupplierID,
		Amount:      req.Amount.Round(2),
		Method:      req.Method,
		ReferenceNo: strings.TrimSpace(req.ReferenceNo),
		PaidAt:      paidAt,
	}

	created, err := s.repo.CreatePayment(ctx, payment)
	if err != nil {
		return domain.Payment{}, err
	}

	counterparty := created.CustomerID
	if counterparty == "" {
		counterparty = created.SupplierID
	}
	s.logAudit(ctx, "payment_create", "payment", created.ID, fmt.Sprintf("counterparty=%s,amount=%s", counterparty, created.Amount))
	return *created, nil
}

func (s *Service) ListPayments(ctx context.Context, customerID string, supplierID string, limit int) ([]domain.Payment, error) {
	return s.repo.ListPayments(ctx, customerID, supplierID, limit)
}

// --- reporting ---

func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return domain.DailyReport{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrValidation)
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	cacheKey := "report:daily:" + date
	if cached, hit, err := s.reportCache.Get(ctx, cacheKey); err == nil && hit {
		return *cached, nil
	} else if err != nil {
		zap.L().Warn("report cache read failed", zap.Error(err))
	}

	report, err := s.repo.GetDailyReport(ctx, from, to)
	if err != nil {
		return domain.DailyReport{}, err
	}
	report.Date = date

	if err := s.reportCache.Set(ctx, cacheKey, &report, s.opts.ReportCacheTTL); err != nil {
		zap.L().Warn("report cache write failed", zap.Error(err))
	}
	return report, nil
}

// --- audit logs ---

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("%w: admin role required", store.ErrForbidden)
	}

	day := time.Now().UTC()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrValidation)
		}
		day = parsed
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		zap.L().Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity", entityType+"/"+entityID),
			zap.Error(err))
	}
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case "cash", "qris", "debit", "transfer", "credit":
		return true
	}
	return false
}
