package shipping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipbridge/backend/internal/domain/document"
	"github.com/shipbridge/backend/internal/domain/shipping"
)

func carrierResponse() *shipping.CarrierResponse {
	return &shipping.CarrierResponse{
		TrackingNumber: "1Z999AA10123456784",
		CreatedAt:      "2024-03-01T12:00:00Z",
		LabelDownload:  shipping.LabelDownload{Href: "data:application/pdf;base64,JVBERi0xLjQ="},
	}
}

func TestLabelEventDocument(t *testing.T) {
	out, err := LabelEventDocument(carrierResponse(), "S00012345")
	require.NoError(t, err)

	// Headless output, rooted at the namespaced UniversalEvent.
	assert.True(t, strings.HasPrefix(out, "<UniversalEvent"))
	assert.Contains(t, out, `xmlns="http://www.cargowise.com/Schemas/Universal/2011/11"`)

	root, err := document.Parse([]byte(out))
	require.NoError(t, err)

	assert.Equal(t, "WarehouseOrder", document.String(root, "UniversalEvent.Event.DataContext.DataTargetCollection.DataTarget.Type", ""))
	assert.Equal(t, "S00012345", document.String(root, "UniversalEvent.Event.DataContext.DataTargetCollection.DataTarget.Key", ""))
	assert.Equal(t, "2024-03-01T12:00:00Z", document.String(root, "UniversalEvent.Event.EventTime", ""))
	assert.Equal(t, "DDI", document.String(root, "UniversalEvent.Event.EventType", ""))
	assert.Equal(t, "LBL", document.String(root, "UniversalEvent.Event.EventReference", ""))
	assert.Equal(t, "false", document.String(root, "UniversalEvent.Event.IsEstimate", ""))

	attached := "UniversalEvent.Event.AttachedDocumentCollection.AttachedDocument"
	assert.Equal(t, "label S00012345.pdf", document.String(root, attached+".FileName", ""))
	// Only the base64 half after the first comma is embedded.
	assert.Equal(t, "JVBERi0xLjQ=", document.String(root, attached+".ImageData", ""))
	assert.Equal(t, "LBL", document.String(root, attached+".Type.Code", ""))
	assert.Equal(t, "true", document.String(root, attached+".IsPublished", ""))
}

func TestLabelEventDocument_HrefWithoutComma(t *testing.T) {
	resp := carrierResponse()
	resp.LabelDownload.Href = "no-data-uri-here"

	out, err := LabelEventDocument(resp, "S1")
	require.NoError(t, err)

	root, err := document.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "", document.String(root, "UniversalEvent.Event.AttachedDocumentCollection.AttachedDocument.ImageData", "missing"))
}

func TestTrackingDocument(t *testing.T) {
	out, err := TrackingDocument(carrierResponse(), "S00012345", "ORD-777")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<UniversalShipment"))
	assert.Contains(t, out, `xmlns:ns0="http://www.cargowise.com/Schemas/Universal/2011/11"`)

	root, err := document.Parse([]byte(out))
	require.NoError(t, err)

	assert.Equal(t, "S00012345", document.String(root, "UniversalShipment.Shipment.DataContext.DataTargetCollection.DataTarget.Key", ""))
	assert.Equal(t, "ORD-777", document.String(root, "UniversalShipment.Shipment.Order.OrderNumber", ""))
	assert.Equal(t, "1Z999AA10123456784", document.String(root, "UniversalShipment.Shipment.Order.TransportReference", ""))
}

func TestErrorNoteDocument(t *testing.T) {
	out, err := ErrorNoteDocument("S00012345", "Invalid service level received: ZZZ")
	require.NoError(t, err)

	root, err := document.Parse([]byte(out))
	require.NoError(t, err)

	assert.Equal(t, "Partial", document.String(root, "UniversalShipment.Shipment.NoteCollection.Content", ""))
	note := "UniversalShipment.Shipment.NoteCollection.Note"
	assert.Equal(t, "Internal Work Notes", document.String(root, note+".Description", ""))
	assert.Equal(t, "false", document.String(root, note+".IsCustomDescription", ""))
	assert.Equal(t, "AAA", document.String(root, note+".NoteContext.Code", ""))
	assert.Equal(t, "INT", document.String(root, note+".Visibility.Code", ""))

	// The detail is JSON serialized into the note text.
	assert.Contains(t, document.String(root, note+".NoteText", ""), `"Invalid service level received: ZZZ"`)
	assert.Equal(t, "S00012345", document.String(root, "UniversalShipment.Shipment.DataContext.DataTargetCollection.DataTarget.Key", ""))
}

func TestResponseDocumentsAreDeterministic(t *testing.T) {
	a, err := LabelEventDocument(carrierResponse(), "S1")
	require.NoError(t, err)
	b, err := LabelEventDocument(carrierResponse(), "S1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
