package domain

// ProductType identifies the kind of IDOL component behind an ACI port, as
// reported in the producttypecsv field of a GetVersion response.
type ProductType string

const (
	ProductTypeAXE                ProductType = "AXE"
	ProductTypeDAH                ProductType = "DAH"
	ProductTypeDIH                ProductType = "DIH"
	ProductTypeIDOLProxy          ProductType = "IDOLPROXY"
	ProductTypeQMS                ProductType = "QMS"
	ProductTypeServiceCoordinator ProductType = "SERVICECOORDINATOR"
	ProductTypeUAServer           ProductType = "UASERVER"
	ProductTypeView               ProductType = "VIEWSERVER"
)

// friendlyNames maps product-type tokens to the names shown to users.
// Tokens without an entry fall back to the raw token.
var friendlyNames = map[ProductType]string{
	ProductTypeAXE:                "Content",
	ProductTypeDAH:                "Distributed Action Handler",
	ProductTypeDIH:                "Distributed Index Handler",
	ProductTypeIDOLProxy:          "IDOL Proxy",
	ProductTypeQMS:                "Query Manipulation Service",
	ProductTypeServiceCoordinator: "Coordinator",
	ProductTypeUAServer:           "Community",
	ProductTypeView:               "View",
}

// FriendlyName returns the human-readable name for the product type.
func (p ProductType) FriendlyName() string {
	if name, ok := friendlyNames[p]; ok {
		return name
	}
	return string(p)
}

// FriendlyNames returns the friendly names of the given product types,
// preserving order.
func FriendlyNames(types []ProductType) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.FriendlyName())
	}
	return names
}
