package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/pkg/mail"
	"github.com/shashiranjanraj/shopfront/pkg/notification"
	"github.com/shashiranjanraj/shopfront/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayWindow(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	from, to := DayWindow(time.Date(2026, 3, 4, 15, 30, 0, 0, loc))

	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, 3, 4, 23, 59, 59, 999999999, loc), to)
}

type line struct {
	productID uint
	qty       int
}

func placeOrder(t *testing.T, svcs *CheckoutService, carts *CartService, userID uint, lines ...line) models.Order {
	t.Helper()
	ctx := context.Background()
	for _, l := range lines {
		_, err := carts.Add(ctx, userID, l.productID, l.qty)
		require.NoError(t, err)
	}
	order, err := svcs.Checkout(ctx, userID)
	require.NoError(t, err)
	return order
}

func TestAggregateDay(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, db, "test@example.com", models.RoleUser)
	a := seedProduct(t, db, "A", "10.00", 50)
	b := seedProduct(t, db, "B", "20.00", 50)
	carts, checkout := NewCartService(db), NewCheckoutService(db, nil)

	placeOrder(t, checkout, carts, user.ID, line{a.ID, 2}, line{b.ID, 1})
	// A later price change must not affect revenue already booked.
	_, err := NewCatalogService(db, nil, 0, nil).UpdatePrice(ctx, a.ID, mustDecimal("15.00"))
	require.NoError(t, err)
	placeOrder(t, checkout, carts, user.ID, line{a.ID, 1})

	// An order from yesterday is outside the window.
	old := placeOrder(t, checkout, carts, user.ID, line{b.ID, 4})
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(0, 0, -1)).Error)

	svc := NewReportService(db, nil, nil, nil)
	report, err := svc.ForDay(ctx, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalOrders)
	assert.Equal(t, "55.00", report.TotalSales.StringFixed(2))
	require.Len(t, report.Products, 2)
	assert.Equal(t, "A", report.Products[0].Name)
	assert.Equal(t, 3, report.Products[0].Quantity)
	assert.Equal(t, "35.00", report.Products[0].Revenue.StringFixed(2))
	assert.Equal(t, "B", report.Products[1].Name)
	assert.Equal(t, 1, report.Products[1].Quantity)
	assert.Equal(t, "20.00", report.Products[1].Revenue.StringFixed(2))
}

func TestAggregateEmptyDay(t *testing.T) {
	report, err := NewReportService(newTestDB(t), nil, nil, nil).ForDay(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, report.TotalOrders)
	assert.True(t, report.TotalSales.IsZero())
	assert.Empty(t, report.Products)
}

func TestSendDailyMailsAdminsAndArchives(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedUser(t, db, "admin@example.com", models.RoleAdmin)
	user := seedUser(t, db, "test@example.com", models.RoleUser)
	a := seedProduct(t, db, "A", "10.00", 5)
	b := seedProduct(t, db, "B", "20.00", 5)
	placeOrder(t, NewCheckoutService(db, nil), NewCartService(db), user.ID, line{a.ID, 2}, line{b.ID, 1})

	fake := &mail.Fake{}
	disk, err := storage.NewLocalDisk(t.TempDir(), "")
	require.NoError(t, err)
	svc := NewReportService(db,
		NewAdminDirectory(db, []string{"admin@example.com"}),
		notification.New(fake, ""),
		disk)

	today := time.Now()
	report, admins, err := svc.SendDaily(ctx, today)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "40.00", report.TotalSales.StringFixed(2))

	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"admin@example.com"}, sent[0].Recipients())
	assert.Contains(t, sent[0].TextBody(), "Total Sales: $40.00")
	assert.Contains(t, sent[0].TextBody(), "- A: 2 units - $20.00")
	assert.Contains(t, sent[0].HTMLBody(), "Daily Sales Report")

	archived, err := disk.Get(ctx, ArchivePath(report.Date)+".txt")
	require.NoError(t, err)
	assert.Equal(t, sent[0].TextBody(), string(archived))
	assert.True(t, disk.Exists(ctx, ArchivePath(report.Date)+".html"))
}

func TestSendDailyWithoutAdminFails(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "test@example.com", models.RoleUser)
	fake := &mail.Fake{}
	svc := NewReportService(db,
		NewAdminDirectory(db, []string{"admin@example.com"}),
		notification.New(fake, ""),
		nil)

	_, _, err := svc.SendDaily(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrAdminMissing)
	assert.Empty(t, fake.Sent())
}

func TestSendDailyReportsMailFailure(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "admin@example.com", models.RoleAdmin)
	fake := &mail.Fake{}
	fake.SetErr(errors.New("smtp down"))
	svc := NewReportService(db,
		NewAdminDirectory(db, []string{"admin@example.com"}),
		notification.New(fake, ""),
		nil)

	_, _, err := svc.SendDaily(context.Background(), time.Now())
	assert.ErrorContains(t, err, "smtp down")
}
