package erp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipbridge/backend/internal/domain/shipping"
	infraconfig "github.com/shipbridge/backend/internal/infrastructure/config"
)

func newTestEAdapter(t *testing.T, handler http.HandlerFunc) *EAdapterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewEAdapterClient(&infraconfig.ErpAdapterConfig{
		Endpoint: srv.URL,
		Username: "adapter-user",
		Password: "adapter-pass",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestSend_Success(t *testing.T) {
	var gotUser, gotPass, gotContentType, gotBody string

	client := newTestEAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		gotUser, gotPass = user, pass
		gotContentType = r.Header.Get("Content-Type")
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<UniversalResponse><Status>PRS</Status></UniversalResponse>`))
	})

	body, err := client.Send(context.Background(), shipping.APINameAddDocument, "<UniversalEvent/>")
	require.NoError(t, err)

	assert.Equal(t, "adapter-user", gotUser)
	assert.Equal(t, "adapter-pass", gotPass)
	assert.Equal(t, "application/xml", gotContentType)
	assert.Equal(t, "<UniversalEvent/>", gotBody)
	assert.Contains(t, body, "PRS")
}

func TestSend_HTTPError(t *testing.T) {
	client := newTestEAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad credentials"))
	})

	_, err := client.Send(context.Background(), shipping.APINameAddTracking, "<UniversalEvent/>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.Contains(t, err.Error(), "bad credentials")
	assert.Contains(t, err.Error(), shipping.APINameAddTracking)
}

func TestSend_AdapterRejection(t *testing.T) {
	client := newTestEAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<UniversalResponse><Status>ERR</Status><ProcessingLog>No recipient found</ProcessingLog></UniversalResponse>`))
	})

	_, err := client.Send(context.Background(), shipping.APINameAddDocument, "<UniversalEvent/>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR")
	assert.Contains(t, err.Error(), "No recipient found")
}

func TestSend_NonXMLResponsePassedThrough(t *testing.T) {
	client := newTestEAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	body, err := client.Send(context.Background(), shipping.APINameErrorUpload, "<UniversalShipment/>")
	require.NoError(t, err)
	assert.Equal(t, "OK", body)
}

func TestNewEAdapterClient_Validation(t *testing.T) {
	_, err := NewEAdapterClient(nil)
	assert.Error(t, err)

	_, err = NewEAdapterClient(&infraconfig.ErpAdapterConfig{})
	assert.Error(t, err)
}
