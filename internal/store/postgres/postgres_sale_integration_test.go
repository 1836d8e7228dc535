package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
)

func TestSoftDeleteSaleRestocksInventory(t *testing.T) {
	databaseURL := os.Getenv("WARUNGPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set WARUNGPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	sku := fmt.Sprintf("SKU-DEL-IT-%d", stamp)
	saleID := fmt.Sprintf("sale-del-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE sku = $1`, sku)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (sku, name, brand, unit_of_measure, retail_price, wholesale_price, cost_price, stock_qty, active, created_at, updated_at)
		VALUES ($1, 'Produk Hapus IT', 'IT', 'pcs', 10.00, 9.00, 7.50, 10, true, now(), now())
	`, sku); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	price := decimal.RequireFromString("10.00")
	created, err := s.CreateSale(ctx, domain.Sale{
		ID:              saleID,
		CashierUsername: "it-test",
		Items: []domain.SaleItem{{
			ProductSKU:    sku,
			ProductName:   "Produk Hapus IT",
			Brand:         "IT",
			UnitOfMeasure: "pcs",
			Qty:           4,
			UnitPrice:     price,
			LineSubtotal:  price.Mul(decimal.NewFromInt(4)),
			LineTotal:     price.Mul(decimal.NewFromInt(4)),
		}},
		Subtotal:      price.Mul(decimal.NewFromInt(4)),
		GrandTotal:    price.Mul(decimal.NewFromInt(4)),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	product, err := s.GetProductBySKU(ctx, sku)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.StockQty != 6 {
		t.Fatalf("expected stock 6 after sale, got %d", product.StockQty)
	}

	deleted, err := s.SoftDeleteSale(ctx, created.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if deleted.State != domain.SaleStateSoftDeleted {
		t.Fatalf("expected soft_deleted state, got %q", deleted.State)
	}
	// The returned record must be the full sale, not just the state
	// transition fields.
	if !deleted.Subtotal.Equal(created.Subtotal) || !deleted.GrandTotal.Equal(created.GrandTotal) {
		t.Fatalf("expected totals to match original, got subtotal %s grand %s", deleted.Subtotal, deleted.GrandTotal)
	}
	if deleted.CashierUsername != "it-test" {
		t.Fatalf("expected cashier attribution preserved, got %q", deleted.CashierUsername)
	}
	if deleted.CreatedAt.IsZero() {
		t.Fatalf("expected created_at preserved on deleted sale")
	}
	if deleted.DeletedAt == nil {
		t.Fatalf("expected deleted_at set on deleted sale")
	}

	product, err = s.GetProductBySKU(ctx, sku)
	if err != nil {
		t.Fatalf("get product after delete: %v", err)
	}
	if product.StockQty != 10 {
		t.Fatalf("expected stock restored to 10, got %d", product.StockQty)
	}

	restored, err := s.RestoreSale(ctx, created.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.State != domain.SaleStateActive {
		t.Fatalf("expected active state after restore, got %q", restored.State)
	}
	if !restored.GrandTotal.Equal(created.GrandTotal) || restored.CashierUsername != "it-test" || restored.CreatedAt.IsZero() {
		t.Fatalf("expected restored sale to carry full record, got %+v", restored)
	}
	if restored.DeletedAt != nil {
		t.Fatalf("expected deleted_at cleared on restore")
	}
	if len(restored.Items) != 1 || restored.Items[0].Qty != 4 {
		t.Fatalf("expected restored sale items intact, got %+v", restored.Items)
	}

	product, err = s.GetProductBySKU(ctx, sku)
	if err != nil {
		t.Fatalf("get product after restore: %v", err)
	}
	if product.StockQty != 6 {
		t.Fatalf("expected stock re-debited to 6, got %d", product.StockQty)
	}
}
