// Package api provides the HTTP surface of the validator service.
package api

// APIVersion represents the current API version supported by this server.
// This allows frontends to auto-detect capabilities and use appropriate
// endpoints. Versioning refers to capability levels, not URL prefixes: REST
// endpoints live at /api/... without a version prefix.
const (
	// APIVersion1 is the original API version.
	APIVersion1 = 1

	// CurrentAPIVersion is the highest API version supported by this server.
	CurrentAPIVersion = APIVersion1
)

// APICapabilities describes the features available at each API version.
var APICapabilities = map[int][]string{
	APIVersion1: {
		"server-registry",
		"validation",
		"ad-hoc-validation",
	},
}

// StatusResponse is the response from the /status endpoint.
type StatusResponse struct {
	Status       string   `json:"status"`
	Service      string   `json:"service"`
	APIVersion   int      `json:"api_version"`
	Capabilities []string `json:"capabilities,omitempty"`
	Servers      int      `json:"servers"`
}
