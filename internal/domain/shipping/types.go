package shipping

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AddressType identifies a role an organization address plays on the
// shipment. The document's address collection is filtered by this value;
// the first match per type wins.
type AddressType string

const (
	AddressTypeConsignee            AddressType = "ConsigneeAddress"
	AddressTypeTransportDocumentary AddressType = "TransportCompanyDocumentaryAddress"
	AddressTypeConsignorDocumentary AddressType = "ConsignorDocumentaryAddress"
)

// Address is an organization address selected from the inbound document.
// Missing fields stay empty; selection never fails.
type Address struct {
	OrganizationCode string
	AddressType      AddressType
	Contact          string
	CompanyName      string
	Line1            string
	Line2            string
	Line3            string
	City             string
	State            string
	PostalCode       string
	CountryCode      string
	Phone            string
	Email            string
	IsResidential    string
}

// OrderLine is one line of the shipment's order.
type OrderLine struct {
	ProductCode string
	Description string
	QuantityMet float64
	UnitPrice   decimal.Decimal
}

// PackingLine is one physical package of the shipment.
type PackingLine struct {
	Weight float64
	Height float64
	Width  float64
	Length float64
}

// ---------------------------------------------------------------------------
// Carrier-facing payload (ShipEngine wire format)
// ---------------------------------------------------------------------------

// CarrierPayload is the canonical outbound carrier API payload.
type CarrierPayload struct {
	LabelDownloadType string          `json:"label_download_type"`
	TestLabel         bool            `json:"test_label,omitempty"`
	Shipment          CarrierShipment `json:"shipment"`
}

// CarrierShipment is the shipment block of the carrier payload.
type CarrierShipment struct {
	CarrierID          string         `json:"carrier_id,omitempty"`
	ServiceCode        string         `json:"service_code"`
	ExternalShipmentID string         `json:"external_shipment_id"`
	ShipmentNumber     string         `json:"shipment_number"`
	ExternalOrderID    string         `json:"external_order_id"`
	Confirmation       string         `json:"confirmation"`
	ShipFrom           CarrierAddress `json:"ship_from"`
	ShipTo             CarrierAddress `json:"ship_to"`
	Items              []CarrierItem  `json:"items"`
	Packages           []Package      `json:"packages"`
	Customs            *CustomsBlock  `json:"customs,omitempty"`
}

// CarrierAddress is an address in the carrier payload.
type CarrierAddress struct {
	Name                        string `json:"name"`
	CompanyName                 string `json:"company_name,omitempty"`
	Phone                       string `json:"phone"`
	Email                       string `json:"email,omitempty"`
	AddressLine1                string `json:"address_line1"`
	AddressLine2                string `json:"address_line2,omitempty"`
	AddressLine3                string `json:"address_line3,omitempty"`
	CityLocality                string `json:"city_locality"`
	StateProvince               string `json:"state_province"`
	PostalCode                  string `json:"postal_code"`
	CountryCode                 string `json:"country_code"`
	AddressResidentialIndicator string `json:"address_residential_indicator"`
}

// CarrierItem is one order line in the carrier payload.
type CarrierItem struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// Package is one physical package in the carrier payload.
type Package struct {
	Weight        Weight        `json:"weight"`
	Dimensions    Dimensions    `json:"dimensions"`
	LabelMessages LabelMessages `json:"label_messages"`
}

// Weight is a package weight in pounds.
type Weight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Dimensions are package dimensions in inches.
type Dimensions struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Unit   string  `json:"unit"`
}

// LabelMessages carries the composite reference printed on the label.
// Reference1 is "orderNumber,externalShipmentKey,clientReference"; the field
// order and comma joining are load-bearing for downstream label scanning.
type LabelMessages struct {
	Reference1 string `json:"reference1"`
}

// CustomsBlock is the customs declaration required for international
// carriers.
type CustomsBlock struct {
	Contents    string    `json:"contents"`
	NonDelivery string    `json:"non_delivery"`
	Products    []Product `json:"products"`
}

// Product is one customs product entry, enriched per order line.
type Product struct {
	Description          string        `json:"description"`
	Quantity             float64       `json:"quantity"`
	Value                MonetaryValue `json:"value"`
	CountryOfOrigin      string        `json:"country_of_origin"`
	HarmonizedTariffCode string        `json:"harmonized_tariff_code"`
}

// MonetaryValue is a currency amount in the carrier payload.
type MonetaryValue struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// BuildResult is the outcome of payload construction. When Skip is true the
// payload is still populated (for logging) but must not be sent to the
// carrier.
type BuildResult struct {
	Payload            CarrierPayload
	Skip               bool
	ExternalShipmentID string
	ShipmentNumber     string
	ServiceLevel       string
	TransportCompany   string
	ConsignorCode      string
	OrderLines         []OrderLine
}

// ParseDecimal parses a decimal from a string, returning zero on any
// failure. Inbound documents degrade to defaults rather than erroring.
func ParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
