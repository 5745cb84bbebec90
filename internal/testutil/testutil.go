package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/USSTM/doc-gateway/internal/config"
)

// TestServer runs requests directly against a handler
type TestServer struct {
	Handler http.Handler
}

func NewTestServer(t *testing.T, handler http.Handler) *TestServer {
	t.Helper()
	return &TestServer{Handler: handler}
}

// Request represents a test HTTP request
type Request struct {
	Method      string
	Path        string
	Body        interface{}
	Headers     map[string]string
	QueryParams map[string]string
	// File, when set, is sent as the multipart "file" part instead of Body
	File *FilePart
}

type FilePart struct {
	Name        string
	ContentType string
	Content     []byte
}

// Response represents a test HTTP response
type Response struct {
	*httptest.ResponseRecorder
	Raw  []byte
	Body map[string]interface{}
}

// MakeRequest creates and executes a test HTTP request
func (ts *TestServer) MakeRequest(t *testing.T, req Request) *Response {
	t.Helper()

	var body io.Reader
	contentType := ""

	switch {
	case req.File != nil:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + req.File.Name + `"`}
		if req.File.ContentType != "" {
			header["Content-Type"] = []string{req.File.ContentType}
		}
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("Failed to create multipart part: %v", err)
		}
		if _, err := part.Write(req.File.Content); err != nil {
			t.Fatalf("Failed to write multipart part: %v", err)
		}
		if err := mw.Close(); err != nil {
			t.Fatalf("Failed to close multipart writer: %v", err)
		}
		body = buf
		contentType = mw.FormDataContentType()
	case req.Body != nil:
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		body = bytes.NewReader(bodyBytes)
		contentType = "application/json"
	}

	httpReq := httptest.NewRequest(req.Method, req.Path, body)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if req.QueryParams != nil {
		q := httpReq.URL.Query()
		for key, value := range req.QueryParams {
			q.Add(key, value)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	recorder := httptest.NewRecorder()
	ts.Handler.ServeHTTP(recorder, httpReq)

	raw := recorder.Body.Bytes()
	var responseBody map[string]interface{}
	if len(raw) > 0 && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		if err := json.Unmarshal(raw, &responseBody); err != nil {
			t.Logf("Failed to decode response body: %v", err)
		}
	}

	return &Response{
		ResponseRecorder: recorder,
		Raw:              raw,
		Body:             responseBody,
	}
}

// AuthenticatedRequest creates a request with authentication headers
func (ts *TestServer) AuthenticatedRequest(t *testing.T, req Request, token string) *Response {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	req.Headers["Authorization"] = "Bearer " + token
	return ts.MakeRequest(t, req)
}

// DecodeJSON unmarshals the raw response body into v
func (r *Response) DecodeJSON(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Raw, v); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", r.Raw, err)
	}
}

// ErrorCode returns error.code from an error envelope
func (r *Response) ErrorCode() string {
	envelope, _ := r.Body["error"].(map[string]interface{})
	code, _ := envelope["code"].(string)
	return code
}

// TestConfig returns a config suitable for building a router in tests
func TestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", AppEnv: "test"},
		JWT: config.JWTConfig{
			SigningKey: "test-signing-key",
			Issuer:     "doc-gateway-test",
			Expiry:     time.Hour,
		},
		Storage: config.StorageConfig{Driver: "disk", MaxFileSize: 1 << 20},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
		RateLimit: config.RateLimitConfig{AuthRequests: 1000, AuthWindow: time.Minute},
	}
}

// AssertJSON checks if the response body contains expected JSON fields
func AssertJSON(t *testing.T, resp *Response, field string, expected interface{}) {
	if resp.Body[field] != expected {
		t.Errorf("Expected %s to be %v, got %v", field, expected, resp.Body[field])
	}
}

// AssertJSONExists checks if a JSON field exists in the response
func AssertJSONExists(t *testing.T, resp *Response, field string) {
	if _, exists := resp.Body[field]; !exists {
		t.Errorf("Expected field %s to exist in response", field)
	}
}
