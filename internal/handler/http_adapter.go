package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
)

// HTTPTriggerRequest represents the structure of the JSON payload for HTTP triggers.
type HTTPTriggerRequest struct {
	Data struct {
		Req struct {
			URL             string              `json:"Url"`
			Method          string              `json:"Method"`
			Query           map[string]string   `json:"Query"`
			Headers         map[string][]string `json:"Headers"`
			Params          map[string]string   `json:"Params"`
			Body            string              `json:"Body"`
			IsBase64Encoded bool                `json:"isBase64Encoded"`
		} `json:"req"`
	} `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// HTTPTriggerResponse represents the structure of the JSON response for HTTP triggers.
type HTTPTriggerResponse struct {
	Outputs struct {
		Res struct {
			StatusCode      int               `json:"statusCode"`
			Headers         map[string]string `json:"headers"`
			Body            string            `json:"body"`
			IsBase64Encoded bool              `json:"isBase64Encoded,omitempty"`
		} `json:"res"`
	} `json:"Outputs"`
	Logs        []string `json:"Logs,omitempty"`
	ReturnValue any      `json:"ReturnValue,omitempty"`
}

// HandleHttpTrigger adapts the Azure Functions JSON POST request to a standard HTTP request/response.
// It wraps the provided Next handler (usually the ServeMux).
func (d *Dependencies) HandleHttpTrigger(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var invokeReq HTTPTriggerRequest
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			slog.Error("failed to read HTTP trigger body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		if err := json.Unmarshal(bodyBytes, &invokeReq); err != nil {
			slog.Error("failed to unmarshal HTTP trigger request", "error", err)
			http.Error(w, "Failed to unmarshal request", http.StatusBadRequest)
			return
		}

		reqData := invokeReq.Data.Req
		slog.Info("processing wrapped HTTP request", "method", reqData.Method, "url", reqData.URL)

		target, err := url.Parse(reqData.URL)
		if err != nil {
			slog.Error("invalid wrapped request URL", "url", reqData.URL, "error", err)
			http.Error(w, "Invalid request URL", http.StatusBadRequest)
			return
		}
		if len(reqData.Query) > 0 {
			q := target.Query()
			for k, v := range reqData.Query {
				if !q.Has(k) {
					q.Set(k, v)
				}
			}
			target.RawQuery = q.Encode()
		}

		contentType := firstHeader(reqData.Headers, "Content-Type")
		var bodyReader io.Reader = http.NoBody
		if reqData.Body != "" {
			body := []byte(reqData.Body)
			// Multipart uploads arrive base64 encoded even when the flag is unset.
			if reqData.IsBase64Encoded || isBinaryContentType(contentType) {
				if decoded, err := base64.StdEncoding.DecodeString(reqData.Body); err == nil {
					body = decoded
				} else {
					slog.Debug("body is not base64, using raw", "error", err)
				}
			}
			bodyReader = bytes.NewReader(body)
		}

		newReq, err := http.NewRequestWithContext(r.Context(), reqData.Method, target.String(), bodyReader)
		if err != nil {
			slog.Error("failed to create internal request", "error", err)
			http.Error(w, "Failed to create internal request", http.StatusInternalServerError)
			return
		}

		for k, v := range reqData.Headers {
			for _, val := range v {
				newReq.Header.Add(k, val)
			}
		}

		slog.Debug("internal request prepared",
			"method", newReq.Method,
			"path", newReq.URL.Path,
			"content_type", newReq.Header.Get("Content-Type"),
			"content_length", newReq.ContentLength,
		)

		recorder := httptest.NewRecorder()
		next.ServeHTTP(recorder, newReq)

		respResult := recorder.Result()
		respBodyBytes, _ := io.ReadAll(respResult.Body)
		respResult.Body.Close()

		respHeaders := make(map[string]string)
		for k, v := range respResult.Header {
			respHeaders[k] = strings.Join(v, ", ")
		}

		jsonResp := HTTPTriggerResponse{}
		jsonResp.Outputs.Res.StatusCode = respResult.StatusCode
		jsonResp.Outputs.Res.Headers = respHeaders
		if isBinaryContentType(respResult.Header.Get("Content-Type")) {
			jsonResp.Outputs.Res.Body = base64.StdEncoding.EncodeToString(respBodyBytes)
			jsonResp.Outputs.Res.IsBase64Encoded = true
		} else {
			jsonResp.Outputs.Res.Body = string(respBodyBytes)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(jsonResp); err != nil {
			slog.Error("failed to encode HTTP trigger response", "error", err)
		}
	}
}

func firstHeader(headers map[string][]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// isBinaryContentType reports whether a body of this type cannot travel as plain text.
func isBinaryContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case mediaType == "multipart/form-data",
		mediaType == "application/octet-stream",
		mediaType == "application/pdf",
		mediaType == xlsxContentType,
		strings.HasPrefix(mediaType, "image/"):
		return true
	}
	return false
}
