package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/store/memory"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.NewSeeded()
	svc := New(repo, nil, Options{WholesaleFallbackToRetail: true})
	return svc, repo
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "cashier", Role: "cashier"})
}

func seedProduct(t *testing.T, svc *Service, sku string, retail string, wholesale string, stock int) domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		SKU:            sku,
		Name:           "Product " + sku,
		Brand:          "BrandX",
		UnitOfMeasure:  "pcs",
		RetailPrice:    dec(retail),
		WholesalePrice: dec(wholesale),
		InitialStock:   stock,
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", sku, err)
	}
	return product
}

func seedCustomer(t *testing.T, svc *Service, classification string) domain.Customer {
	t.Helper()
	customer, err := svc.CreateCustomer(cashierCtx(), domain.CustomerCreateRequest{
		Name:           "Customer " + classification,
		Classification: classification,
		CreditLimit:    dec("1000.00"),
	})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

func TestCreateSaleRetailWithDiscounts(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-A", "150.00", "0", 10)
	customer := seedCustomer(t, svc, domain.ClassificationRetail)

	ten := dec("10")
	five := dec("5")
	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		CustomerID: customer.ID,
		Items: []domain.SaleItemRequest{
			{ProductSKU: "SKU-A", Qty: 2, DiscountType: domain.DiscountPercentage, DiscountValue: &ten},
		},
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: &five,
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if !sale.Subtotal.Equal(dec("300.00")) {
		t.Fatalf("expected subtotal 300.00, got %s", sale.Subtotal)
	}
	if !sale.ItemDiscountTotal.Equal(dec("30.00")) {
		t.Fatalf("expected item discounts 30.00, got %s", sale.ItemDiscountTotal)
	}
	if !sale.OrderDiscountAmount.Equal(dec("13.50")) {
		t.Fatalf("expected order discount 13.50, got %s", sale.OrderDiscountAmount)
	}
	if !sale.GrandTotal.Equal(dec("256.50")) {
		t.Fatalf("expected grand total 256.50, got %s", sale.GrandTotal)
	}

	product, err := svc.GetProduct(context.Background(), "SKU-A")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.StockQty != 8 {
		t.Fatalf("expected stock 8 after sale, got %d", product.StockQty)
	}
}

func TestCreateSaleWholesalePricing(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-W", "100.00", "80.00", 10)
	customer := seedCustomer(t, svc, domain.ClassificationWholesale)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		CustomerID: customer.ID,
		Items:      []domain.SaleItemRequest{{ProductSKU: "SKU-W", Qty: 3}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if !sale.Items[0].UnitPrice.Equal(dec("80.00")) {
		t.Fatalf("expected wholesale unit price 80.00, got %s", sale.Items[0].UnitPrice)
	}
	if !sale.GrandTotal.Equal(dec("240.00")) {
		t.Fatalf("expected grand total 240.00, got %s", sale.GrandTotal)
	}
}

func TestCreateSaleWholesaleFallback(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-NF", "25.00", "0", 10)
	customer := seedCustomer(t, svc, domain.ClassificationWholesale)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		CustomerID: customer.ID,
		Items:      []domain.SaleItemRequest{{ProductSKU: "SKU-NF", Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if !sale.Items[0].UnitPrice.Equal(dec("25.00")) {
		t.Fatalf("expected retail fallback 25.00, got %s", sale.Items[0].UnitPrice)
	}
}

func TestCreateSaleWholesaleFallbackDisabled(t *testing.T) {
	repo := memory.NewSeeded()
	svc := New(repo, nil, Options{WholesaleFallbackToRetail: false})
	seedProduct(t, svc, "SKU-NF2", "25.00", "0", 10)
	customer := seedCustomer(t, svc, domain.ClassificationWholesale)

	_, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		CustomerID: customer.ID,
		Items:      []domain.SaleItemRequest{{ProductSKU: "SKU-NF2", Qty: 1}},
	})
	if err == nil {
		t.Fatalf("expected pricing failure with fallback disabled")
	}
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-LOW", "10.00", "0", 2)

	_, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-LOW", Qty: 5}},
	})
	var stockErr *store.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
	if stockErr.SKU != "SKU-LOW" || stockErr.Requested != 5 || stockErr.Available != 2 {
		t.Fatalf("unexpected stock error detail: %+v", stockErr)
	}

	// Nothing is persisted on rejection.
	product, err := svc.GetProduct(context.Background(), "SKU-LOW")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.StockQty != 2 {
		t.Fatalf("expected stock unchanged at 2, got %d", product.StockQty)
	}
}

func TestCreateSaleMultiLineAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-OK", "10.00", "0", 50)
	seedProduct(t, svc, "SKU-SHORT", "10.00", "0", 1)

	_, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{
			{ProductSKU: "SKU-OK", Qty: 3},
			{ProductSKU: "SKU-SHORT", Qty: 2},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	okProduct, _ := svc.GetProduct(context.Background(), "SKU-OK")
	if okProduct.StockQty != 50 {
		t.Fatalf("expected no partial decrement, got %d", okProduct.StockQty)
	}
}

func TestCreateSaleIdempotencyReplay(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-IDEM", "10.00", "0", 10)

	req := domain.SaleCreateRequest{
		Items:          []domain.SaleItemRequest{{ProductSKU: "SKU-IDEM", Qty: 2}},
		IdempotencyKey: "idem-test-1",
	}
	first, err := svc.CreateSale(cashierCtx(), req)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.CreateSale(cashierCtx(), req)
	if err != nil {
		t.Fatalf("replay create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected replay to return the same sale, got %s and %s", first.ID, second.ID)
	}

	product, _ := svc.GetProduct(context.Background(), "SKU-IDEM")
	if product.StockQty != 8 {
		t.Fatalf("expected single decrement to 8, got %d", product.StockQty)
	}
}

func TestSaleSnapshotSurvivesCatalogEdit(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-SNAP", "20.00", "0", 10)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-SNAP", Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	newName := "Renamed Product"
	newPrice := dec("99.00")
	if _, err := svc.UpdateProduct(adminCtx(), "SKU-SNAP", domain.ProductUpdateRequest{
		Name:        &newName,
		RetailPrice: &newPrice,
	}); err != nil {
		t.Fatalf("update product: %v", err)
	}

	view, err := svc.GetSale(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if view.Items[0].ProductName != "Product SKU-SNAP" {
		t.Fatalf("snapshot name changed: %s", view.Items[0].ProductName)
	}
	if !view.Items[0].UnitPrice.Equal(dec("20.00")) {
		t.Fatalf("snapshot price changed: %s", view.Items[0].UnitPrice)
	}
	if !view.GrandTotal.Equal(dec("20.00")) {
		t.Fatalf("stored total changed: %s", view.GrandTotal)
	}
	if !view.HasChanges {
		t.Fatalf("expected change flags after catalog edit")
	}
	if !view.Items[0].Changes.NameChanged || !view.Items[0].Changes.PriceChanged {
		t.Fatalf("expected name and price flags, got %+v", view.Items[0].Changes)
	}
}

func TestGetSaleFlagsDeletedProduct(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-GONE", "12.00", "0", 5)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-GONE", Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if err := svc.DeactivateProduct(adminCtx(), "SKU-GONE"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	view, err := svc.GetSale(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if !view.Items[0].Changes.ProductDeleted {
		t.Fatalf("expected deleted-product flag, got %+v", view.Items[0].Changes)
	}
}

func TestDeleteRestorePurgeLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-LIFE", "10.00", "0", 10)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-LIFE", Qty: 4}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	product, _ := svc.GetProduct(context.Background(), "SKU-LIFE")
	if product.StockQty != 6 {
		t.Fatalf("expected stock 6 after sale, got %d", product.StockQty)
	}

	deleted, err := svc.DeleteSale(cashierCtx(), sale.ID)
	if err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if deleted.State != domain.SaleStateSoftDeleted || deleted.DeletedAt == nil {
		t.Fatalf("expected soft_deleted state with timestamp, got %+v", deleted)
	}
	product, _ = svc.GetProduct(context.Background(), "SKU-LIFE")
	if product.StockQty != 10 {
		t.Fatalf("expected stock credited back to 10, got %d", product.StockQty)
	}

	// Deleted sales leave the default listing and appear in the
	// deleted listing.
	active, err := svc.ListSales(context.Background(), domain.SaleFilter{})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	for _, v := range active {
		if v.ID == sale.ID {
			t.Fatalf("soft-deleted sale still listed as active")
		}
	}
	deletedList, err := svc.ListDeletedSales(context.Background(), domain.SaleFilter{})
	if err != nil {
		t.Fatalf("list deleted: %v", err)
	}
	if len(deletedList) != 1 || deletedList[0].ID != sale.ID {
		t.Fatalf("expected sale in deleted listing")
	}

	restored, err := svc.RestoreSale(cashierCtx(), sale.ID)
	if err != nil {
		t.Fatalf("restore sale: %v", err)
	}
	if restored.State != domain.SaleStateActive || restored.DeletedAt != nil {
		t.Fatalf("expected active state after restore, got %+v", restored)
	}
	product, _ = svc.GetProduct(context.Background(), "SKU-LIFE")
	if product.StockQty != 6 {
		t.Fatalf("expected stock re-debited to 6, got %d", product.StockQty)
	}

	if _, err := svc.DeleteSale(cashierCtx(), sale.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := svc.PurgeSale(adminCtx(), sale.ID); err != nil {
		t.Fatalf("purge sale: %v", err)
	}
	if _, err := svc.GetSale(context.Background(), sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after purge, got %v", err)
	}
	// Purge never touches stock.
	product, _ = svc.GetProduct(context.Background(), "SKU-LIFE")
	if product.StockQty != 10 {
		t.Fatalf("expected stock 10 after delete+purge, got %d", product.StockQty)
	}
}

func TestRestoreFailsWhenStockConsumed(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-RACE", "10.00", "0", 5)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-RACE", Qty: 5}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if _, err := svc.DeleteSale(cashierCtx(), sale.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}

	// Someone else buys the credited-back stock.
	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-RACE", Qty: 3}},
	}); err != nil {
		t.Fatalf("competing sale: %v", err)
	}

	_, err = svc.RestoreSale(cashierCtx(), sale.ID)
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock on restore, got %v", err)
	}

	// The failed restore leaves the sale in the deleted holding area.
	deletedList, _ := svc.ListDeletedSales(context.Background(), domain.SaleFilter{})
	if len(deletedList) != 1 || deletedList[0].ID != sale.ID {
		t.Fatalf("expected sale still soft-deleted after failed restore")
	}
}

func TestPurgeRequiresAdminAndDeletedState(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-P", "10.00", "0", 5)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-P", Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if err := svc.PurgeSale(cashierCtx(), sale.ID); !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected forbidden purging as cashier, got %v", err)
	}
	if err := svc.PurgeSale(adminCtx(), sale.ID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict purging an active sale, got %v", err)
	}
}

func TestCustomerClassificationFrozenAfterSales(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-C", "10.00", "0", 10)
	customer := seedCustomer(t, svc, domain.ClassificationRetail)

	wholesale := domain.ClassificationWholesale
	if _, err := svc.UpdateCustomer(cashierCtx(), customer.ID, domain.CustomerUpdateRequest{
		Classification: &wholesale,
	}); err != nil {
		t.Fatalf("reclassify before sales should work: %v", err)
	}

	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		CustomerID: customer.ID,
		Items:      []domain.SaleItemRequest{{ProductSKU: "SKU-C", Qty: 1}},
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	retail := domain.ClassificationRetail
	_, err := svc.UpdateCustomer(cashierCtx(), customer.ID, domain.CustomerUpdateRequest{
		Classification: &retail,
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected classification change to be rejected, got %v", err)
	}
}

func TestCreditSaleAdjustsCustomerBalance(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-CR", "50.00", "0", 10)
	customer := seedCustomer(t, svc, domain.ClassificationRetail)

	sale, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		CustomerID:    customer.ID,
		Items:         []domain.SaleItemRequest{{ProductSKU: "SKU-CR", Qty: 2}},
		PaymentMethod: "credit",
	})
	if err != nil {
		t.Fatalf("create credit sale: %v", err)
	}

	loaded, _ := svc.GetCustomer(context.Background(), customer.ID)
	if !loaded.Balance.Equal(dec("100.00")) {
		t.Fatalf("expected balance 100.00, got %s", loaded.Balance)
	}

	if _, err := svc.DeleteSale(cashierCtx(), sale.ID); err != nil {
		t.Fatalf("delete credit sale: %v", err)
	}
	loaded, _ = svc.GetCustomer(context.Background(), customer.ID)
	if !loaded.Balance.IsZero() {
		t.Fatalf("expected balance reversed to zero, got %s", loaded.Balance)
	}

	if _, err := svc.CreatePayment(cashierCtx(), domain.PaymentCreateRequest{
		CustomerID: customer.ID,
		Amount:     dec("40.00"),
		Method:     "cash",
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	loaded, _ = svc.GetCustomer(context.Background(), customer.ID)
	if !loaded.Balance.Equal(dec("-40.00")) {
		t.Fatalf("expected balance -40.00 after payment, got %s", loaded.Balance)
	}
}

func TestListSalesFiltersAndSorts(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-F1", "10.00", "0", 100)
	seedProduct(t, svc, "SKU-F2", "200.00", "0", 100)

	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-F1", Qty: 1}},
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-F2", Qty: 2}},
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	minTotal := dec("100.00")
	bigOnly, err := svc.ListSales(context.Background(), domain.SaleFilter{MinTotal: &minTotal})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(bigOnly) != 1 || !bigOnly[0].GrandTotal.Equal(dec("400.00")) {
		t.Fatalf("expected only the 400.00 sale, got %d results", len(bigOnly))
	}

	byName, err := svc.ListSales(context.Background(), domain.SaleFilter{ProductName: "product sku-f1"})
	if err != nil {
		t.Fatalf("list by product name: %v", err)
	}
	if len(byName) != 1 || !byName[0].GrandTotal.Equal(dec("10.00")) {
		t.Fatalf("expected snapshot-name match for SKU-F1, got %d results", len(byName))
	}

	sorted, err := svc.ListSales(context.Background(), domain.SaleFilter{SortBy: domain.SortByAmount, SortDesc: true})
	if err != nil {
		t.Fatalf("list sorted: %v", err)
	}
	if len(sorted) != 2 || !sorted[0].GrandTotal.Equal(dec("400.00")) {
		t.Fatalf("expected amount-descending order")
	}
}

func TestDailyReportAggregates(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-R", "100.00", "0", 100)

	ten := dec("10")
	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items:         []domain.SaleItemRequest{{ProductSKU: "SKU-R", Qty: 2, DiscountType: domain.DiscountPercentage, DiscountValue: &ten}},
		PaymentMethod: "cash",
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items:         []domain.SaleItemRequest{{ProductSKU: "SKU-R", Qty: 1}},
		PaymentMethod: "qris",
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	report, err := svc.DailyReport(context.Background(), today)
	if err != nil {
		t.Fatalf("daily report: %v", err)
	}
	if report.Sales != 2 {
		t.Fatalf("expected 2 sales, got %d", report.Sales)
	}
	if !report.GrossSales.Equal(dec("300.00")) {
		t.Fatalf("expected gross 300.00, got %s", report.GrossSales)
	}
	if !report.TotalDiscount.Equal(dec("20.00")) {
		t.Fatalf("expected discounts 20.00, got %s", report.TotalDiscount)
	}
	if !report.NetSales.Equal(dec("280.00")) {
		t.Fatalf("expected net 280.00, got %s", report.NetSales)
	}
	if len(report.ByPayment) != 2 {
		t.Fatalf("expected 2 payment method rows, got %d", len(report.ByPayment))
	}
}

func TestAuditLogWrittenForMutations(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-AUD", "10.00", "0", 10)

	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-AUD", Qty: 1}},
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	logs, err := svc.ListAuditLogs(adminCtx(), "", 100)
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	found := false
	for _, entry := range logs {
		if entry.Action == "sale_create" && entry.ActorUsername == "cashier" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a sale_create audit entry")
	}
}

func TestPriceHistoryRecordedOnUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-PH", "10.00", "8.00", 10)

	newRetail := dec("12.00")
	if _, err := svc.UpdateProduct(adminCtx(), "SKU-PH", domain.ProductUpdateRequest{RetailPrice: &newRetail}); err != nil {
		t.Fatalf("update product: %v", err)
	}

	history, err := svc.ListProductPriceHistory(context.Background(), "SKU-PH", 10)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(history))
	}
	entry := history[0]
	if entry.Tier != domain.ClassificationRetail || !entry.OldPrice.Equal(dec("10.00")) || !entry.NewPrice.Equal(dec("12.00")) {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
}

func TestCreateSaleValidation(t *testing.T) {
	svc, _ := newTestService(t)
	seedProduct(t, svc, "SKU-V", "10.00", "0", 10)

	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-V", Qty: 0}},
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if _, err := svc.CreateSale(cashierCtx(), domain.SaleCreateRequest{
		Items: []domain.SaleItemRequest{{ProductSKU: "SKU-MISSING", Qty: 1}},
	}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}
