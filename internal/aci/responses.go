package aci

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/acikit/go-aci-validator/internal/domain"
)

// envelope is the outer ACI response document. Every action response carries
// an <action>, a <response> status and action-specific <responsedata>.
type envelope struct {
	XMLName     xml.Name `xml:"autnresponse"`
	Response    string   `xml:"response"`
	ErrorString string   `xml:"responsedata>error>errorstring"`
}

// checkEnvelope verifies the response status of an ACI response body.
func checkEnvelope(body []byte, action Action) error {
	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("malformed %s response: %w", action, err)
	}
	if !strings.EqualFold(env.Response, "SUCCESS") {
		if env.ErrorString != "" {
			return fmt.Errorf("%s failed: %s", action, env.ErrorString)
		}
		return fmt.Errorf("%s failed with response %q", action, env.Response)
	}
	return nil
}

// VersionData is the payload of a GetVersion response.
type VersionData struct {
	ProductTypeCSV string
}

// ProductTypes splits the producttypecsv field into its tokens, dropping
// empty entries.
func (d VersionData) ProductTypes() []string {
	var types []string
	for _, token := range strings.Split(d.ProductTypeCSV, ",") {
		if token = strings.TrimSpace(token); token != "" {
			types = append(types, token)
		}
	}
	return types
}

// ChildPorts is the payload of a GetChildren response. ServicePort is 0 when
// the server does not report one.
type ChildPorts struct {
	Port        int
	ServicePort int
}

// StatusPorts is the payload of a GetStatus response. IndexPort is nil when
// the server does not report an index port, which is distinct from reporting
// port 0.
type StatusPorts struct {
	ACIPort     int
	IndexPort   *int
	ServicePort int
}

// GetVersion issues a GetVersion action and decodes the product types.
func GetVersion(ctx context.Context, ex Executor, addr domain.Address) (VersionData, error) {
	body, err := ex.Execute(ctx, addr, ActionGetVersion, nil)
	if err != nil {
		return VersionData{}, err
	}
	if err := checkEnvelope(body, ActionGetVersion); err != nil {
		return VersionData{}, err
	}

	var resp struct {
		ProductTypeCSV string `xml:"responsedata>producttypecsv"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return VersionData{}, fmt.Errorf("malformed GetVersion response: %w", err)
	}
	return VersionData{ProductTypeCSV: resp.ProductTypeCSV}, nil
}

// GetChildren issues a GetChildren action and decodes the reported ports.
func GetChildren(ctx context.Context, ex Executor, addr domain.Address) (ChildPorts, error) {
	body, err := ex.Execute(ctx, addr, ActionGetChildren, nil)
	if err != nil {
		return ChildPorts{}, err
	}
	if err := checkEnvelope(body, ActionGetChildren); err != nil {
		return ChildPorts{}, err
	}

	var resp struct {
		Port        int `xml:"responsedata>port"`
		ServicePort int `xml:"responsedata>serviceport"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return ChildPorts{}, fmt.Errorf("malformed GetChildren response: %w", err)
	}
	return ChildPorts{Port: resp.Port, ServicePort: resp.ServicePort}, nil
}

// GetStatus issues a GetStatus action and decodes the reported ports.
func GetStatus(ctx context.Context, ex Executor, addr domain.Address) (StatusPorts, error) {
	body, err := ex.Execute(ctx, addr, ActionGetStatus, nil)
	if err != nil {
		return StatusPorts{}, err
	}
	if err := checkEnvelope(body, ActionGetStatus); err != nil {
		return StatusPorts{}, err
	}

	var resp struct {
		ACIPort     int  `xml:"responsedata>aciport"`
		IndexPort   *int `xml:"responsedata>indexport"`
		ServicePort int  `xml:"responsedata>serviceport"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return StatusPorts{}, fmt.Errorf("malformed GetStatus response: %w", err)
	}
	return StatusPorts{ACIPort: resp.ACIPort, IndexPort: resp.IndexPort, ServicePort: resp.ServicePort}, nil
}

// Ping issues a GetStatus action purely as a reachability probe. The response
// body is not inspected; completing the round trip is the success signal.
func Ping(ctx context.Context, ex Executor, addr domain.Address) error {
	_, err := ex.Execute(ctx, addr, ActionGetStatus, nil)
	return err
}
