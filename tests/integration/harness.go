package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acikit/go-aci-validator/internal/aci"
	"github.com/acikit/go-aci-validator/internal/api"
	"github.com/acikit/go-aci-validator/internal/domain"
	"github.com/acikit/go-aci-validator/internal/registry"
	"github.com/acikit/go-aci-validator/internal/validator"
)

// testAdminToken guards the mutating endpoints in every harness instance.
const testAdminToken = "integration-admin-token"

// TestHarness provides a complete test environment: a fake IDOL backend,
// the validator wired to real HTTP clients, a seeded registry and the
// full router behind an httptest server.
type TestHarness struct {
	T      *testing.T
	Server *httptest.Server
	Store  *registry.Store
	IDOL   *FakeIDOL
	Logger *zap.Logger

	// Client is a pre-configured HTTP client for making requests
	Client *http.Client

	// BaseURL is the URL of the test server
	BaseURL string
}

// NewTestHarness creates a new test harness with a running test server.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()

	h := &TestHarness{
		T:      t,
		Logger: logger,
		Client: &http.Client{},
		IDOL:   NewFakeIDOL(t),
		Store:  registry.NewStore(),
	}

	opts := aci.ClientOptions{Timeout: 5 * time.Second}
	v := validator.New(
		aci.NewClient(opts, logger),
		aci.NewIndexClient(opts, logger),
		logger,
	)
	monitor := registry.NewMonitor(h.Store, v, time.Minute, 5*time.Second, logger)

	router := api.NewRouter(api.RouterConfig{AdminToken: testAdminToken}, h.Store, monitor, logger)

	h.Server = httptest.NewServer(router)
	h.BaseURL = h.Server.URL

	t.Cleanup(func() {
		h.Server.Close()
	})

	return h
}

// FakeIDOL emulates an IDOL content engine: an ACI port answering
// action=GetVersion/GetStatus/GetChildren and an index port answering
// DRETEST with a fixed error line.
type FakeIDOL struct {
	ACIHost     string
	ACIPort     int
	IndexPort   int
	ProductCSV  string
	IndexErrLn  string
	ServicePort int

	aciSrv   *httptest.Server
	indexSrv *httptest.Server
}

// NewFakeIDOL starts the two backend listeners. The fake reports itself as
// an AXE (Content) engine whose service port is the ACI listener itself, so
// service pings land on a live socket.
func NewFakeIDOL(t *testing.T) *FakeIDOL {
	t.Helper()

	f := &FakeIDOL{
		ProductCSV: "AXE",
		IndexErrLn: "ERRORID autn:INVALIDCOMMAND",
	}

	f.indexSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, f.IndexErrLn)
	}))
	f.aciSrv = httptest.NewServer(http.HandlerFunc(f.serveACI))

	f.ACIHost, f.ACIPort = splitHostPort(t, f.aciSrv.URL)
	_, f.IndexPort = splitHostPort(t, f.indexSrv.URL)
	f.ServicePort = f.ACIPort

	t.Cleanup(func() {
		f.aciSrv.Close()
		f.indexSrv.Close()
	})

	return f
}

func (f *FakeIDOL) serveACI(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("action") {
	case "GetVersion":
		fmt.Fprintf(w, `<autnresponse><response>SUCCESS</response><responsedata><producttypecsv>%s</producttypecsv></responsedata></autnresponse>`, f.ProductCSV)
	case "GetStatus":
		fmt.Fprintf(w, `<autnresponse><response>SUCCESS</response><responsedata><aciport>%d</aciport><indexport>%d</indexport><serviceport>%d</serviceport></responsedata></autnresponse>`, f.ACIPort, f.IndexPort, f.ServicePort)
	case "GetChildren":
		fmt.Fprintf(w, `<autnresponse><response>SUCCESS</response><responsedata><port>%d</port><serviceport>%d</serviceport></responsedata></autnresponse>`, f.ACIPort, f.ServicePort)
	default:
		fmt.Fprint(w, `<autnresponse><response>ERROR</response><responsedata><error><errorstring>unknown action</errorstring></error></responsedata></autnresponse>`)
	}
}

// Descriptor returns a descriptor pointing at the fake backend. The index
// error message matches the fake's DRETEST reply, so index port discovery
// confirms.
func (f *FakeIDOL) Descriptor() domain.ServerDescriptor {
	return domain.ServerDescriptor{
		Host:              f.ACIHost,
		Port:              f.ACIPort,
		ProductTypes:      []domain.ProductType{domain.ProductTypeAXE},
		IndexErrorMessage: f.IndexErrLn,
	}
}

func splitHostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(rawURL, "http://"))
	if err != nil {
		t.Fatalf("Failed to parse test server URL %q: %v", rawURL, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Failed to parse test server port %q: %v", portStr, err)
	}
	return host, port
}

// Request makes an HTTP request to the test server
func (h *TestHarness) Request(method, path string, body interface{}) *Response {
	h.T.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			h.T.Fatalf("Failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, h.BaseURL+path, bodyReader)
	if err != nil {
		h.T.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return h.Do(req)
}

// Do executes an HTTP request and returns a Response wrapper
func (h *TestHarness) Do(req *http.Request) *Response {
	h.T.Helper()

	resp, err := h.Client.Do(req)
	if err != nil {
		h.T.Fatalf("Request failed: %v", err)
	}

	return &Response{
		T:        h.T,
		Response: resp,
	}
}

// GET makes a GET request
func (h *TestHarness) GET(path string) *Response {
	return h.Request(http.MethodGet, path, nil)
}

// POST makes a POST request with a JSON body
func (h *TestHarness) POST(path string, body interface{}) *Response {
	return h.Request(http.MethodPost, path, body)
}

// WithAuth returns a request builder that sends the given bearer token
func (h *TestHarness) WithAuth(token string) *AuthenticatedClient {
	return &AuthenticatedClient{
		harness: h,
		token:   token,
	}
}

// AuthenticatedClient wraps the harness with auth headers
type AuthenticatedClient struct {
	harness *TestHarness
	token   string
}

// POST makes an authenticated POST request
func (c *AuthenticatedClient) POST(path string, body interface{}) *Response {
	c.harness.T.Helper()
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}
	req, _ := http.NewRequest(http.MethodPost, c.harness.BaseURL+path, bodyReader)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.harness.Do(req)
}

// Response wraps an HTTP response with assertion helpers
type Response struct {
	T        *testing.T
	Response *http.Response
	body     []byte
	bodyRead bool
}

// Body returns the response body as bytes
func (r *Response) Body() []byte {
	r.T.Helper()
	if !r.bodyRead {
		var err error
		r.body, err = io.ReadAll(r.Response.Body)
		if err != nil {
			r.T.Fatalf("Failed to read response body: %v", err)
		}
		r.Response.Body.Close()
		r.bodyRead = true
	}
	return r.body
}

// JSON unmarshals the response body into the given target
func (r *Response) JSON(target interface{}) *Response {
	r.T.Helper()
	if err := json.Unmarshal(r.Body(), target); err != nil {
		r.T.Fatalf("Failed to unmarshal response: %v\nBody: %s", err, string(r.Body()))
	}
	return r
}

// Status asserts the response status code
func (r *Response) Status(expected int) *Response {
	r.T.Helper()
	if r.Response.StatusCode != expected {
		r.T.Errorf("Expected status %d, got %d\nBody: %s", expected, r.Response.StatusCode, string(r.Body()))
	}
	return r
}

// BodyContains asserts that the response body contains a substring
func (r *Response) BodyContains(substr string) *Response {
	r.T.Helper()
	if !strings.Contains(string(r.Body()), substr) {
		r.T.Errorf("Expected body to contain %q\nBody: %s", substr, string(r.Body()))
	}
	return r
}
