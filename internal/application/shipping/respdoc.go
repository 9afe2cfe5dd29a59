package shipping

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/shipbridge/backend/internal/domain/shipping"
)

// cargowiseNamespace is the schema namespace of every document sent back to
// the ERP.
const cargowiseNamespace = "http://www.cargowise.com/Schemas/Universal/2011/11"

// LabelEventDocument builds the UniversalEvent XML attaching the carrier
// label to the originating shipment. The label image arrives as a
// data-URI-style string; only the base64 half after the first comma is
// embedded, verbatim.
func LabelEventDocument(resp *shipping.CarrierResponse, shipmentID string) (string, error) {
	doc := etree.NewDocument()

	event := doc.CreateElement("UniversalEvent")
	event.CreateAttr("xmlns", cargowiseNamespace)
	event.CreateAttr("version", "1.1")

	inner := event.CreateElement("Event")
	addDataTarget(inner, shipmentID)
	inner.CreateElement("EventTime").SetText(resp.CreatedAt)
	inner.CreateElement("EventType").SetText("DDI")
	inner.CreateElement("EventReference").SetText("LBL")
	inner.CreateElement("IsEstimate").SetText("false")

	attached := inner.CreateElement("AttachedDocumentCollection").CreateElement("AttachedDocument")
	attached.CreateElement("FileName").SetText(fmt.Sprintf("label %s.pdf", shipmentID))
	attached.CreateElement("ImageData").SetText(labelImageData(resp.LabelDownload.Href))
	attached.CreateElement("Type").CreateElement("Code").SetText("LBL")
	attached.CreateElement("IsPublished").SetText("true")

	return render(doc)
}

// TrackingDocument builds the UniversalShipment XML reporting the carrier
// tracking number against the order.
func TrackingDocument(resp *shipping.CarrierResponse, shipmentID, orderNumber string) (string, error) {
	doc := etree.NewDocument()

	root := doc.CreateElement("UniversalShipment")
	root.CreateAttr("xmlns:ns0", cargowiseNamespace)

	shipment := root.CreateElement("Shipment")
	shipment.CreateAttr("xmlns", cargowiseNamespace)
	addDataTarget(shipment, shipmentID)

	order := shipment.CreateElement("Order")
	order.CreateElement("OrderNumber").SetText(orderNumber)
	order.CreateElement("TransportReference").SetText(resp.TrackingNumber)

	return render(doc)
}

// ErrorNoteDocument builds the UniversalShipment XML carrying a free-text
// internal note describing a processing failure. The detail is JSON
// serialized into the note text so the ERP side sees the condition verbatim.
func ErrorNoteDocument(shipmentID string, detail any) (string, error) {
	noteText, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		noteText = []byte(fmt.Sprintf("%q", fmt.Sprint(detail)))
	}

	doc := etree.NewDocument()

	root := doc.CreateElement("UniversalShipment")
	root.CreateAttr("xmlns:ns0", cargowiseNamespace)

	shipment := root.CreateElement("Shipment")
	shipment.CreateAttr("xmlns", cargowiseNamespace)
	addDataTarget(shipment, shipmentID)

	notes := shipment.CreateElement("NoteCollection")
	notes.CreateAttr("Content", "Partial")
	note := notes.CreateElement("Note")
	note.CreateElement("Description").SetText("Internal Work Notes")
	note.CreateElement("IsCustomDescription").SetText("false")
	note.CreateElement("NoteText").SetText(string(noteText) + "\n")
	note.CreateElement("NoteContext").CreateElement("Code").SetText("AAA")
	note.CreateElement("Visibility").CreateElement("Code").SetText("INT")

	return render(doc)
}

// addDataTarget writes the DataContext/DataTargetCollection block keying the
// document back to its originating shipment. The ERP joins on this key;
// Type is always WarehouseOrder.
func addDataTarget(parent *etree.Element, shipmentID string) {
	target := parent.CreateElement("DataContext").
		CreateElement("DataTargetCollection").
		CreateElement("DataTarget")
	target.CreateElement("Type").SetText("WarehouseOrder")
	target.CreateElement("Key").SetText(shipmentID)
}

// labelImageData extracts the base64 payload half of a data URI, split on
// the first comma.
func labelImageData(href string) string {
	parts := strings.SplitN(href, ",", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// render serializes a document headless (no XML declaration) with 4-space
// indentation, matching what the ERP adapter expects.
func render(doc *etree.Document) (string, error) {
	doc.Indent(4)
	out, err := doc.WriteToString()
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(out, "\n"), nil
}
