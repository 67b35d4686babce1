// Package migrations registers the shop schema. Import it for side effects.
package migrations

import (
	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/pkg/migration"
	"github.com/shashiranjanraj/shopfront/pkg/queue"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260101000000_create_users_table", tables{&models.User{}})
	migration.Register("20260101000001_create_products_table", tables{&models.Product{}})
	migration.Register("20260101000002_create_carts_tables", tables{&models.Cart{}, &models.CartItem{}})
	migration.Register("20260101000003_create_orders_tables", tables{&models.Order{}, &models.OrderItem{}})
	migration.Register("20260101000004_create_failed_jobs_table", tables{&queue.FailedJobRecord{}})
}

// tables creates its models on Up and drops them in reverse order on Down.
type tables []any

func (t tables) Up(db *gorm.DB) error {
	return db.AutoMigrate(t...)
}

func (t tables) Down(db *gorm.DB) error {
	for i := len(t) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(t[i]); err != nil {
			return err
		}
	}
	return nil
}
