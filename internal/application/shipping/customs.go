package shipping

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/shipbridge/backend/internal/domain/shipping"
)

// ProductAttributes are the two customs values looked up per product.
type ProductAttributes struct {
	HarmonizedTariffCode string
	CountryOfOrigin      string
}

// ProductAttributeLookup resolves customs attributes for one product of one
// consignor organization.
type ProductAttributeLookup interface {
	Lookup(ctx context.Context, productCode, organizationCode string) (ProductAttributes, error)
}

// CustomsEnricher produces the customs products block for international
// carriers, one lookup per order line.
type CustomsEnricher struct {
	lookup ProductAttributeLookup
}

// NewCustomsEnricher creates an enricher over the given lookup.
func NewCustomsEnricher(lookup ProductAttributeLookup) *CustomsEnricher {
	return &CustomsEnricher{lookup: lookup}
}

// Enrich issues one lookup per order line, concurrently, and assembles one
// Product per line in the original line order. Any line failing fails the
// whole shipment with shipping.ErrEnrichmentFailed; a partial products block
// is never valid for customs filing.
func (e *CustomsEnricher) Enrich(ctx context.Context, lines []shipping.OrderLine, consignorCode string) ([]shipping.Product, error) {
	products := make([]shipping.Product, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		g.Go(func() error {
			attrs, err := e.lookup.Lookup(ctx, line.ProductCode, consignorCode)
			if err != nil {
				return fmt.Errorf("%w: product %q: %v", shipping.ErrEnrichmentFailed, line.ProductCode, err)
			}
			products[i] = shipping.Product{
				Description: line.Description,
				Quantity:    line.QuantityMet,
				Value: shipping.MonetaryValue{
					Currency: "USD",
					Amount:   line.UnitPrice.InexactFloat64(),
				},
				CountryOfOrigin:      attrs.CountryOfOrigin,
				HarmonizedTariffCode: attrs.HarmonizedTariffCode,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}
