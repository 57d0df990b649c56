package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triggerRequest(t *testing.T, method, url, body string, base64Body bool, headers map[string][]string, query map[string]string) *http.Request {
	t.Helper()
	var in HTTPTriggerRequest
	in.Data.Req.Method = method
	in.Data.Req.URL = url
	in.Data.Req.Body = body
	in.Data.Req.IsBase64Encoded = base64Body
	in.Data.Req.Headers = headers
	in.Data.Req.Query = query
	b, err := json.Marshal(in)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/HttpTrigger", bytes.NewReader(b))
}

func decodeTriggerResponse(t *testing.T, w *httptest.ResponseRecorder) HTTPTriggerResponse {
	t.Helper()
	var out HTTPTriggerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHandleHttpTrigger_JSONPassthrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/receipts/parse", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		// a JSON body that happens to be valid base64 must not be decoded
		assert.Equal(t, "abcd", string(b))
		assert.Equal(t, "1", r.URL.Query().Get("debug"))
		WriteJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})

	deps := &Dependencies{}
	w := httptest.NewRecorder()
	req := triggerRequest(t, http.MethodPost, "http://localhost:7071/api/receipts/parse", "abcd", false,
		map[string][]string{"Content-Type": {"application/json"}}, map[string]string{"debug": "1"})
	deps.HandleHttpTrigger(mux)(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	out := decodeTriggerResponse(t, w)
	assert.Equal(t, http.StatusOK, out.Outputs.Res.StatusCode)
	assert.JSONEq(t, `{"ok":"yes"}`, out.Outputs.Res.Body)
	assert.False(t, out.Outputs.Res.IsBase64Encoded)
}

func TestHandleHttpTrigger_DecodesBase64(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/receipts/upload", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, "raw multipart", string(b))
		w.WriteHeader(http.StatusAccepted)
	})

	deps := &Dependencies{}
	w := httptest.NewRecorder()
	encoded := base64.StdEncoding.EncodeToString([]byte("raw multipart"))
	req := triggerRequest(t, http.MethodPost, "http://localhost:7071/api/receipts/upload", encoded, false,
		map[string][]string{"Content-Type": {"multipart/form-data; boundary=xyz"}}, nil)
	deps.HandleHttpTrigger(mux)(w, req)

	out := decodeTriggerResponse(t, w)
	assert.Equal(t, http.StatusAccepted, out.Outputs.Res.StatusCode)
}

func TestHandleHttpTrigger_BinaryResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transactions/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", xlsxContentType)
		w.Write([]byte{0x50, 0x4b, 0x03, 0x04})
	})

	deps := &Dependencies{}
	w := httptest.NewRecorder()
	req := triggerRequest(t, http.MethodGet, "http://localhost:7071/api/transactions/export", "", false, nil, nil)
	deps.HandleHttpTrigger(mux)(w, req)

	out := decodeTriggerResponse(t, w)
	assert.True(t, out.Outputs.Res.IsBase64Encoded)
	decoded, err := base64.StdEncoding.DecodeString(out.Outputs.Res.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x50, 0x4b, 0x03, 0x04}, decoded)
}

func TestHandleHttpTrigger_BadPayload(t *testing.T) {
	deps := &Dependencies{}
	w := httptest.NewRecorder()
	deps.HandleHttpTrigger(http.NewServeMux())(w, httptest.NewRequest(http.MethodPost, "/HttpTrigger", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIsBinaryContentType(t *testing.T) {
	assert.True(t, isBinaryContentType("image/png"))
	assert.True(t, isBinaryContentType("multipart/form-data; boundary=x"))
	assert.True(t, isBinaryContentType(xlsxContentType))
	assert.False(t, isBinaryContentType("application/json; charset=utf-8"))
	assert.False(t, isBinaryContentType(""))
}
