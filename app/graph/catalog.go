// Package graph exposes the catalog as a GraphQL query API.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/app/services"
	gql "github.com/shashiranjanraj/shopfront/pkg/graphql"
)

// Catalog reads products.
type Catalog interface {
	List(ctx context.Context) ([]models.Product, error)
	Find(ctx context.Context, id uint) (models.Product, error)
}

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.String},
		// Decimal string so clients never see float rounding.
		"price": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(productView).Price, nil
			},
		},
		"stockQuantity": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"lowStock":      &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
	},
})

type productView struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	StockQuantity int    `json:"stockQuantity"`
	LowStock      bool   `json:"lowStock"`
}

func view(p models.Product, threshold int) productView {
	return productView{
		ID:            int(p.ID),
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
		LowStock:      p.IsLowStock(threshold),
	}
}

// NewSchema builds the products/product queries over catalog.
func NewSchema(catalog Catalog, threshold int) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(productType))),
				Args: graphql.FieldConfigArgument{
					"lowStock": &graphql.ArgumentConfig{Type: graphql.Boolean},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					products, err := catalog.List(p.Context)
					if err != nil {
						return nil, err
					}
					onlyLow, _ := p.Args["lowStock"].(bool)
					out := make([]productView, 0, len(products))
					for _, pr := range products {
						if onlyLow && !pr.IsLowStock(threshold) {
							continue
						}
						out = append(out, view(pr, threshold))
					}
					return out, nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(int)
					if id < 1 {
						return nil, fmt.Errorf("invalid product id %d", id)
					}
					pr, err := catalog.Find(p.Context, uint(id))
					if errors.Is(err, services.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return view(pr, threshold), nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}
