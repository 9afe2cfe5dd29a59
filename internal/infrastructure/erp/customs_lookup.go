package erp

import (
	"context"
	"fmt"

	"github.com/beevik/etree"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
	"github.com/shipbridge/backend/internal/domain/document"
)

// nativeNamespace is the CargoWise native query schema.
const nativeNamespace = "http://www.cargowise.com/Schemas/Native"

// apiNameProductLookup names the lookup operation in logs; the adapter
// routes by payload, not by name.
const apiNameProductLookup = "ProductLookup"

// addOnValuesPath locates the product's custom add-on values in the adapter
// response. The collection is positional: the first value is the harmonized
// tariff code, the second the country of origin.
const addOnValuesPath = "UniversalResponse.Data.Native.Body.Product.GenCustomAddOnValueCollection.GenCustomAddOnValue"

// Ensure CustomsLookup implements the enricher's lookup port
var _ shippingapp.ProductAttributeLookup = (*CustomsLookup)(nil)

// CustomsLookup resolves customs attributes for a product by querying the
// ERP adapter's native product endpoint.
type CustomsLookup struct {
	client shippingapp.ERPClient
}

// NewCustomsLookup creates a lookup over the given adapter client.
func NewCustomsLookup(client shippingapp.ERPClient) *CustomsLookup {
	return &CustomsLookup{client: client}
}

// Lookup queries the product of one consignor organization and extracts its
// customs attributes from the add-on value collection.
func (l *CustomsLookup) Lookup(ctx context.Context, productCode, organizationCode string) (shippingapp.ProductAttributes, error) {
	query := buildProductQuery(productCode, organizationCode)

	body, err := l.client.Send(ctx, apiNameProductLookup, query)
	if err != nil {
		return shippingapp.ProductAttributes{}, err
	}

	root, err := document.Parse([]byte(body))
	if err != nil {
		return shippingapp.ProductAttributes{}, fmt.Errorf("erp: product %s lookup response: %w", productCode, err)
	}

	values := document.List(root, addOnValuesPath)
	if len(values) < 2 {
		return shippingapp.ProductAttributes{}, fmt.Errorf("erp: product %s has %d custom add-on values, need 2", productCode, len(values))
	}

	return shippingapp.ProductAttributes{
		HarmonizedTariffCode: addOnValue(values[0]),
		CountryOfOrigin:      addOnValue(values[1]),
	}, nil
}

// addOnValue reads one GenCustomAddOnValue entry: a rich entry carries a
// Value child, a bare one is its own value.
func addOnValue(n *document.Node) string {
	if v := document.String(n, "Value", ""); v != "" {
		return v
	}
	return n.Text()
}

// buildProductQuery renders the native query retrieving one product of one
// consignor organization.
func buildProductQuery(productCode, organizationCode string) string {
	doc := etree.NewDocument()
	native := doc.CreateElement("Native")
	native.CreateAttr("xmlns", nativeNamespace)
	native.CreateAttr("version", "2.0")

	product := native.CreateElement("Body").CreateElement("Product")
	group := product.CreateElement("CriteriaGroup")
	group.CreateAttr("Type", "Key")

	code := group.CreateElement("Criteria")
	code.CreateAttr("Entity", "OrgSupplierPart")
	code.CreateAttr("FieldName", "PartNum")
	code.SetText(productCode)

	org := group.CreateElement("Criteria")
	org.CreateAttr("Entity", "OrgSupplierPart.OrgHeader")
	org.CreateAttr("FieldName", "Code")
	org.SetText(organizationCode)

	doc.Indent(4)
	out, _ := doc.WriteToString()
	return out
}
