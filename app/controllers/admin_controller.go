package controllers

import (
	"time"

	"github.com/shashiranjanraj/shopfront/app/resources"
	"github.com/shashiranjanraj/shopfront/app/services"
	"github.com/shashiranjanraj/shopfront/pkg/ctx"
	"github.com/shopspring/decimal"
)

type AdminController struct {
	catalog *services.CatalogService
	reports *services.ReportService
	now     func() time.Time
}

func NewAdminController(catalog *services.CatalogService, reports *services.ReportService) *AdminController {
	return &AdminController{catalog: catalog, reports: reports, now: time.Now}
}

type restockInput struct {
	Amount int `json:"amount" validate:"required,min=1"`
}

type priceInput struct {
	Price string `json:"price" validate:"required,decimal=2,gte=0"`
}

type reportQuery struct {
	Date string `json:"date" validate:"nullable,date"`
}

func (ac *AdminController) Restock(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound()
		return
	}
	var in restockInput
	if !c.BindJSON(&in) {
		return
	}
	product, err := ac.catalog.Restock(c.Context(), id, in.Amount)
	if err != nil {
		fail(c, err, nil)
		return
	}
	c.Message("Product restocked.", resources.NewProduct(product))
}

func (ac *AdminController) UpdatePrice(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound()
		return
	}
	var in priceInput
	if !c.BindJSON(&in) {
		return
	}
	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		c.ValidationError(map[string]string{"price": "The price must be a number."})
		return
	}
	product, err := ac.catalog.UpdatePrice(c.Context(), id, price)
	if err != nil {
		fail(c, err, nil)
		return
	}
	c.Message("Price updated.", resources.NewProduct(product))
}

// DailyReport aggregates one day's sales (today by default) without
// sending mail.
func (ac *AdminController) DailyReport(c *ctx.Context) {
	q := reportQuery{Date: c.Query("date")}
	if errs := c.Validate(q); len(errs) > 0 {
		c.ValidationError(errs)
		return
	}
	day := ac.now()
	if q.Date != "" {
		parsed, _ := time.ParseInLocation(time.DateOnly, q.Date, time.Local)
		day = parsed
	}
	report, err := ac.reports.ForDay(c.Context(), day)
	if err != nil {
		fail(c, err, nil)
		return
	}
	c.Success(resources.NewSalesReport(report))
}
