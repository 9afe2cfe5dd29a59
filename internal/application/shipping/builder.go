package shipping

import (
	"fmt"
	"strings"

	"github.com/shipbridge/backend/internal/domain/document"
	"github.com/shipbridge/backend/internal/domain/shipping"
)

// Paths into the normalized UniversalShipment document. The document root
// already had UniversalInterchange.Body stripped by the time these apply.
const (
	pathAddresses    = "UniversalShipment.Shipment.OrganizationAddressCollection.OrganizationAddress"
	pathServiceLevel = "UniversalShipment.Shipment.CarrierServiceLevel.Code"
	pathSignature    = "UniversalShipment.Shipment.IsSignatureRequired"
	pathShipmentKey  = "UniversalShipment.Shipment.DataContext.DataSourceCollection.DataSource.Key"
	pathOrderNumber  = "UniversalShipment.Shipment.Order.OrderNumber"
	pathClientRef    = "UniversalShipment.Shipment.Order.ClientReference"
	pathOrderLines   = "UniversalShipment.Shipment.Order.OrderLineCollection.OrderLine"
	pathPackingLines = "UniversalShipment.Shipment.PackingLineCollection.PackingLine"
)

// PayloadBuilder composes the parser, resolver, and carrier rules into the
// canonical outbound carrier payload. It is synchronous and side-effect
// free; missing optional fields degrade to defaults and never raise.
type PayloadBuilder struct {
	shipFrom   shipping.CarrierAddress
	production bool
}

// NewPayloadBuilder creates a builder with the fixed ship-from block. When
// production is false, payloads for customs-flagged carriers request a test
// label.
func NewPayloadBuilder(shipFrom shipping.CarrierAddress, production bool) *PayloadBuilder {
	return &PayloadBuilder{shipFrom: shipFrom, production: production}
}

// Build parses the raw freight XML and maps it into a BuildResult. It fails
// only with shipping.ErrMalformedDocument, when the XML does not parse or
// the UniversalShipment root under UniversalInterchange.Body is absent.
func (b *PayloadBuilder) Build(raw []byte) (*shipping.BuildResult, error) {
	parsed, err := document.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrMalformedDocument, err)
	}

	root, ok := document.Resolve(parsed, "UniversalInterchange.Body")
	if !ok {
		return nil, fmt.Errorf("%w: missing UniversalInterchange.Body element", shipping.ErrMalformedDocument)
	}
	if _, ok := document.Resolve(root, "UniversalShipment"); !ok {
		return nil, fmt.Errorf("%w: missing UniversalShipment element", shipping.ErrMalformedDocument)
	}

	consignee := selectAddress(root, shipping.AddressTypeConsignee)
	transportDoc := selectAddress(root, shipping.AddressTypeTransportDocumentary)
	consignorDoc := selectAddress(root, shipping.AddressTypeConsignorDocumentary)

	transportCompany := transportDoc.OrganizationCode
	serviceLevel := document.String(root, pathServiceLevel, "")
	serviceCode, found := shipping.ServiceCode(transportCompany, serviceLevel)

	shipmentKey := document.String(root, pathShipmentKey, "")
	orderNumber := document.String(root, pathOrderNumber, "")
	clientRef := document.String(root, pathClientRef, "")
	labelRef := strings.Join([]string{orderNumber, shipmentKey, clientRef}, ",")

	orderLines := collectOrderLines(root)

	payload := shipping.CarrierPayload{
		LabelDownloadType: "inline",
		Shipment: shipping.CarrierShipment{
			ServiceCode:        serviceCode,
			ExternalShipmentID: shipmentKey,
			ShipmentNumber:     orderNumber,
			ExternalOrderID:    clientRef,
			Confirmation:       shipping.SignatureConfirmation(document.String(root, pathSignature, "")),
			ShipFrom:           b.shipFrom,
			ShipTo:             shipToAddress(consignee, transportCompany),
			Items:              carrierItems(orderLines),
			Packages:           collectPackages(root, labelRef),
		},
	}

	if id, ok := shipping.CarrierID(transportCompany); ok {
		payload.Shipment.CarrierID = id
	}

	if shipping.RequiresCustomsBlock(transportCompany) {
		payload.Shipment.Customs = &shipping.CustomsBlock{
			Contents:    "Merchandise",
			NonDelivery: "return_to_sender",
		}
		if !b.production {
			payload.TestLabel = true
		}
	}

	return &shipping.BuildResult{
		Payload:            payload,
		Skip:               !found,
		ExternalShipmentID: shipmentKey,
		ShipmentNumber:     orderNumber,
		ServiceLevel:       serviceLevel,
		TransportCompany:   transportCompany,
		ConsignorCode:      consignorDoc.OrganizationCode,
		OrderLines:         orderLines,
	}, nil
}

// selectAddress filters the document's address collection by address type.
// First match wins; no match leaves every field empty.
func selectAddress(root *document.Node, addrType shipping.AddressType) shipping.Address {
	for _, n := range document.List(root, pathAddresses) {
		if document.String(n, "AddressType", "") != string(addrType) {
			continue
		}
		return shipping.Address{
			OrganizationCode: document.String(n, "OrganizationCode", ""),
			AddressType:      addrType,
			Contact:          document.String(n, "Contact", ""),
			CompanyName:      document.String(n, "CompanyName", ""),
			Line1:            document.String(n, "Address1", ""),
			Line2:            document.String(n, "Address2", ""),
			Line3:            document.String(n, "AdditionalAddressInformation", ""),
			City:             document.String(n, "City", ""),
			State:            document.String(n, "State._", ""),
			PostalCode:       document.String(n, "Postcode", ""),
			CountryCode:      document.String(n, "Country.Code", ""),
			Phone:            document.String(n, "Phone", ""),
			Email:            document.String(n, "Email", ""),
			IsResidential:    document.String(n, "IsResidential", ""),
		}
	}
	return shipping.Address{AddressType: addrType}
}

// shipToAddress maps the consignee onto the carrier payload, applying the
// residential rule and the territory country override.
func shipToAddress(consignee shipping.Address, transportCompany string) shipping.CarrierAddress {
	return shipping.CarrierAddress{
		Name:                        consignee.Contact,
		CompanyName:                 consignee.CompanyName,
		Phone:                       consignee.Phone,
		Email:                       consignee.Email,
		AddressLine1:                consignee.Line1,
		AddressLine2:                consignee.Line2,
		AddressLine3:                consignee.Line3,
		CityLocality:                consignee.City,
		StateProvince:               consignee.State,
		PostalCode:                  consignee.PostalCode,
		CountryCode:                 shipping.CountryCodeOverride(transportCompany, consignee.CountryCode, consignee.State),
		AddressResidentialIndicator: shipping.ResidentialIndicator(consignee.IsResidential),
	}
}

// collectOrderLines reads the order line collection, tolerating the
// zero/one/many shape a repeated XML tag can take.
func collectOrderLines(root *document.Node) []shipping.OrderLine {
	nodes := document.List(root, pathOrderLines)
	lines := make([]shipping.OrderLine, 0, len(nodes))
	for _, n := range nodes {
		lines = append(lines, shipping.OrderLine{
			ProductCode: document.String(n, "Product.Code", ""),
			Description: document.String(n, "Product.Description", ""),
			QuantityMet: document.Float(n, "QuantityMet", 0),
			UnitPrice:   shipping.ParseDecimal(document.String(n, "UnitPriceAfterDiscount", "")),
		})
	}
	return lines
}

func carrierItems(lines []shipping.OrderLine) []shipping.CarrierItem {
	items := make([]shipping.CarrierItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, shipping.CarrierItem{
			SKU:      line.ProductCode,
			Name:     line.Description,
			Quantity: line.QuantityMet,
		})
	}
	return items
}

// collectPackages reads the packing line collection into carrier packages.
// Every package carries the same composite label reference.
func collectPackages(root *document.Node, labelRef string) []shipping.Package {
	nodes := document.List(root, pathPackingLines)
	packages := make([]shipping.Package, 0, len(nodes))
	for _, n := range nodes {
		packages = append(packages, shipping.Package{
			Weight: shipping.Weight{
				Value: document.Float(n, "Weight", 0),
				Unit:  "pound",
			},
			Dimensions: shipping.Dimensions{
				Height: document.Float(n, "Height", 0),
				Width:  document.Float(n, "Width", 0),
				Length: document.Float(n, "Length", 0),
				Unit:   "inch",
			},
			LabelMessages: shipping.LabelMessages{Reference1: labelRef},
		})
	}
	return packages
}
