// Package domain holds the core data model for ACI server descriptors and
// validation outcomes. Descriptors are value types: every transformation
// (Merge, WithIndexServer, WithServiceServer) returns a new value and never
// mutates the receiver.
package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Protocol is the transport protocol used to reach a server port.
type Protocol string

const (
	ProtocolHTTP  Protocol = "HTTP"
	ProtocolHTTPS Protocol = "HTTPS"
)

// ProbeOrder is the order in which protocols are tried when probing a
// discovered port. HTTP goes first: an HTTP request against an HTTPS-only
// server fails quickly, whereas an HTTPS request against a plain HTTP server
// can hang until the client times out.
var ProbeOrder = []Protocol{ProtocolHTTP, ProtocolHTTPS}

// OrDefault returns the protocol, falling back to HTTP when unset.
func (p Protocol) OrDefault() Protocol {
	if p == "" {
		return ProtocolHTTP
	}
	return p
}

// Scheme returns the URL scheme for the protocol.
func (p Protocol) Scheme() string {
	if p.OrDefault() == ProtocolHTTPS {
		return "https"
	}
	return "http"
}

// Address identifies one reachable port of a server.
type Address struct {
	Protocol Protocol `json:"protocol"`
	Host     string   `json:"host"`
	Port     int      `json:"port"`
}

// URL returns the base URL for the address.
func (a Address) URL() string {
	return fmt.Sprintf("%s://%s:%d", a.Protocol.Scheme(), a.Host, a.Port)
}

// ServerDescriptor describes the connection parameters of one ACI server:
// the primary ACI port plus optional index and service ports behind the same
// host. A zero port means "unset"; an empty protocol means HTTP.
//
// IndexErrorMessage doubles as a capability flag: when set, the server is
// expected to expose an index port, and validation must confirm it.
type ServerDescriptor struct {
	Protocol Protocol `json:"protocol,omitempty" yaml:"protocol,omitempty" envconfig:"PROTOCOL"`
	Host     string   `json:"host,omitempty" yaml:"host,omitempty" envconfig:"HOST"`
	Port     int      `json:"port,omitempty" yaml:"port,omitempty" envconfig:"PORT"`

	IndexProtocol Protocol `json:"index_protocol,omitempty" yaml:"index_protocol,omitempty" envconfig:"INDEX_PROTOCOL"`
	IndexPort     int      `json:"index_port,omitempty" yaml:"index_port,omitempty" envconfig:"INDEX_PORT"`

	ServiceProtocol Protocol `json:"service_protocol,omitempty" yaml:"service_protocol,omitempty" envconfig:"SERVICE_PROTOCOL"`
	ServicePort     int      `json:"service_port,omitempty" yaml:"service_port,omitempty" envconfig:"SERVICE_PORT"`

	// ProductTypes is the set of product types this server may report.
	// Order is preserved; it determines the order of friendly names in an
	// IncorrectServerType outcome.
	ProductTypes []ProductType `json:"product_types,omitempty" yaml:"product_types,omitempty"`

	// ProductTypeRegex matches reported product-type tokens instead of
	// ProductTypes when set. Connectors report open-ended type names, so a
	// fixed set does not work for them.
	ProductTypeRegex string `json:"product_type_regex,omitempty" yaml:"product_type_regex,omitempty" envconfig:"PRODUCT_TYPE_REGEX"`

	// IndexErrorMessage is the exact error message expected from the index
	// port in response to a test command. Unset means the server does not
	// support indexing.
	IndexErrorMessage string `json:"index_error_message,omitempty" yaml:"index_error_message,omitempty" envconfig:"INDEX_ERROR_MESSAGE"`
}

// Merge fills every unset field of the descriptor from other and returns the
// result. Fields set on the receiver win. Merging with nil returns the
// receiver unchanged.
func (s ServerDescriptor) Merge(other *ServerDescriptor) ServerDescriptor {
	if other == nil {
		return s
	}

	out := s

	if out.Protocol == "" {
		out.Protocol = other.Protocol
	}
	if out.Host == "" {
		out.Host = other.Host
	}
	if out.Port == 0 {
		out.Port = other.Port
	}
	if out.IndexProtocol == "" {
		out.IndexProtocol = other.IndexProtocol
	}
	if out.IndexPort == 0 {
		out.IndexPort = other.IndexPort
	}
	if out.ServiceProtocol == "" {
		out.ServiceProtocol = other.ServiceProtocol
	}
	if out.ServicePort == 0 {
		out.ServicePort = other.ServicePort
	}
	if len(out.ProductTypes) == 0 {
		out.ProductTypes = other.ProductTypes
	}
	if out.ProductTypeRegex == "" {
		out.ProductTypeRegex = other.ProductTypeRegex
	}
	if out.IndexErrorMessage == "" {
		out.IndexErrorMessage = other.IndexErrorMessage
	}

	return out
}

// WithIndexServer returns a copy of the descriptor with the index port
// details replaced by addr.
func (s ServerDescriptor) WithIndexServer(addr Address) ServerDescriptor {
	out := s
	out.IndexProtocol = addr.Protocol
	out.IndexPort = addr.Port
	return out
}

// WithServiceServer returns a copy of the descriptor with the service port
// details replaced by addr.
func (s ServerDescriptor) WithServiceServer(addr Address) ServerDescriptor {
	out := s
	out.ServiceProtocol = addr.Protocol
	out.ServicePort = addr.Port
	return out
}

// SupportsIndexing reports whether the descriptor expects the server to
// expose an index port.
func (s ServerDescriptor) SupportsIndexing() bool {
	return s.IndexErrorMessage != ""
}

// Address returns the primary ACI port of the server.
func (s ServerDescriptor) Address() Address {
	return Address{Protocol: s.Protocol.OrDefault(), Host: s.Host, Port: s.Port}
}

// IndexAddress returns the index port of the server.
func (s ServerDescriptor) IndexAddress() Address {
	return Address{Protocol: s.IndexProtocol.OrDefault(), Host: s.Host, Port: s.IndexPort}
}

// ServiceAddress returns the service port of the server.
func (s ServerDescriptor) ServiceAddress() Address {
	return Address{Protocol: s.ServiceProtocol.OrDefault(), Host: s.Host, Port: s.ServicePort}
}

// CheckRequiredFields verifies the fields needed before any remote call is
// worth attempting: a port in [1,65535] and a non-blank host.
func (s ServerDescriptor) CheckRequiredFields() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port number must be between 1 and 65535, got %d", s.Port)
	}
	if strings.TrimSpace(s.Host) == "" {
		return fmt.Errorf("host name must not be blank")
	}
	return nil
}

// CompileProductTypeRegex compiles ProductTypeRegex, anchored so the pattern
// must match a whole product-type token.
func (s ServerDescriptor) CompileProductTypeRegex() (*regexp.Regexp, error) {
	if s.ProductTypeRegex == "" {
		return nil, nil
	}
	re, err := regexp.Compile("^(?:" + s.ProductTypeRegex + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid product type regex %q: %w", s.ProductTypeRegex, err)
	}
	return re, nil
}
