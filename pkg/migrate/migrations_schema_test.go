package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("invalid migrations dir: %v", err)
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CHECK (status IN ('PENDING', 'COMPLETED', 'PAYMENT_FAILED', 'CANCELLED'))",
		"razorpay_order_id TEXT UNIQUE",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCouponsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_coupons.sql")

	checks := []string{
		"CHECK (usage_count >= 0)",
		"CONSTRAINT uq_coupon_usages_user_coupon UNIQUE (user_id, coupon_id)",
		"FOREIGN KEY (coupon_id) REFERENCES coupons(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProductsMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_products.sql")

	if !strings.Contains(content, "CHECK (stock >= 0)") {
		t.Errorf("stock column must carry a non-negative check")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
