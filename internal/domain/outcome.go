package domain

// Validation enumerates the reasons a descriptor can fail validation.
type Validation string

const (
	// ValidationRequiredFieldMissing means host or port failed the local
	// field checks; no remote call was attempted.
	ValidationRequiredFieldMissing Validation = "REQUIRED_FIELD_MISSING"
	// ValidationConnectionError means the version call to the ACI port
	// failed outright.
	ValidationConnectionError Validation = "CONNECTION_ERROR"
	// ValidationServicePortError means the server answered but no working
	// service port was established (indexing not expected).
	ValidationServicePortError Validation = "SERVICE_PORT_ERROR"
	// ValidationServiceOrIndexPortError is the indexing-expected variant of
	// ValidationServicePortError.
	ValidationServiceOrIndexPortError Validation = "SERVICE_OR_INDEX_PORT_ERROR"
	// ValidationFetchPortError means port discovery or probing failed.
	ValidationFetchPortError Validation = "FETCH_PORT_ERROR"
	// ValidationIncorrectServerType means the server reported product types
	// outside the configured set.
	ValidationIncorrectServerType Validation = "INCORRECT_SERVER_TYPE"
	// ValidationRegexMatchError means no reported product type matched the
	// configured pattern.
	ValidationRegexMatchError Validation = "REGULAR_EXPRESSION_MATCH_ERROR"
)

// ValidationOutcome is the result of validating one descriptor against the
// live server. Invalid outcomes carry exactly one reason; valid outcomes
// carry none. FriendlyNames is populated only for INCORRECT_SERVER_TYPE and
// lists the product types the descriptor would have accepted, in configured
// order.
type ValidationOutcome struct {
	Valid         bool       `json:"valid"`
	Reason        Validation `json:"reason,omitempty"`
	FriendlyNames []string   `json:"friendly_names,omitempty"`
}

// ValidOutcome returns a passing outcome.
func ValidOutcome() ValidationOutcome {
	return ValidationOutcome{Valid: true}
}

// InvalidOutcome returns a failing outcome with the given reason.
func InvalidOutcome(reason Validation) ValidationOutcome {
	return ValidationOutcome{Valid: false, Reason: reason}
}

// IncorrectServerType returns a failing outcome listing the accepted
// product types by friendly name.
func IncorrectServerType(types []ProductType) ValidationOutcome {
	return ValidationOutcome{
		Valid:         false,
		Reason:        ValidationIncorrectServerType,
		FriendlyNames: FriendlyNames(types),
	}
}
