// Package validator implements the liveness and identity validation of ACI
// server descriptors: a fixed sequence of small remote calls that checks the
// server is reachable, is the expected product, and has working index and
// service ports.
package validator

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/acikit/go-aci-validator/internal/aci"
	"github.com/acikit/go-aci-validator/internal/domain"
)

// IndexProbeResult classifies one index-port probe attempt. The index
// protocol has no clean "yes, this is an index port" answer: confirmation is
// an error response whose message matches a configured fingerprint, so the
// three-way split keeps that ambiguity explicit.
type IndexProbeResult int

const (
	// IndexProbeConfirmed means the port answered the test command with the
	// expected error message.
	IndexProbeConfirmed IndexProbeResult = iota
	// IndexProbeNotConfirmed means the port answered, but not with the
	// expected message (or accepted the command outright).
	IndexProbeNotConfirmed
	// IndexProbeTransportError means the port could not be reached at all.
	IndexProbeTransportError
)

// Validator runs the discovery and validation pipeline for server
// descriptors. It holds no per-validation state; a single Validator may be
// used concurrently.
type Validator struct {
	executor aci.Executor
	index    aci.IndexExecutor
	logger   *zap.Logger
}

// New creates a Validator. index may be nil when no indexing capability is
// available; descriptors that expect an index port will then fail discovery.
func New(executor aci.Executor, index aci.IndexExecutor, logger *zap.Logger) *Validator {
	return &Validator{
		executor: executor,
		index:    index,
		logger:   logger.Named("validator"),
	}
}

// Validate checks the descriptor against the live server and reports the
// outcome. No error ever escapes: every failure inside the pipeline maps to
// a typed ValidationOutcome.
func (v *Validator) Validate(ctx context.Context, sd domain.ServerDescriptor) domain.ValidationOutcome {
	outcome, _ := v.Run(ctx, sd)
	return outcome
}

// Run is Validate plus the discovery result: when the pipeline reaches port
// discovery successfully, the returned descriptor carries the confirmed
// index and service details. It is nil whenever discovery did not complete.
func (v *Validator) Run(ctx context.Context, sd domain.ServerDescriptor) (domain.ValidationOutcome, *domain.ServerDescriptor) {
	// if the host or port is missing further testing is futile
	if err := sd.CheckRequiredFields(); err != nil {
		return domain.InvalidOutcome(domain.ValidationRequiredFieldMissing), nil
	}

	re, err := sd.CompileProductTypeRegex()
	if err != nil {
		v.logger.Warn("product type regex does not compile",
			zap.String("host", sd.Host), zap.Error(err))
		return domain.InvalidOutcome(domain.ValidationRegexMatchError), nil
	}

	matches, err := v.testServerVersion(ctx, sd, re)
	if err != nil {
		v.logger.Debug("error validating server version",
			zap.String("host", sd.Host), zap.Int("port", sd.Port), zap.Error(err))
		return domain.InvalidOutcome(domain.ValidationConnectionError), nil
	}

	if !matches {
		if re == nil {
			return domain.IncorrectServerType(sd.ProductTypes), nil
		}
		// friendly names make no sense for a regex
		return domain.InvalidOutcome(domain.ValidationRegexMatchError), nil
	}

	fetched, err := v.FetchServerDetails(ctx, sd)
	if err != nil {
		v.logger.Debug("error establishing ports",
			zap.String("host", sd.Host), zap.Int("port", sd.Port), zap.Error(err))
		return domain.InvalidOutcome(domain.ValidationFetchPortError), nil
	}

	if !sd.SupportsIndexing() {
		if fetched.ServicePort > 0 {
			return domain.ValidOutcome(), &fetched
		}
		return domain.InvalidOutcome(domain.ValidationServicePortError), &fetched
	}
	if fetched.ServicePort > 0 && fetched.IndexPort > 0 {
		return domain.ValidOutcome(), &fetched
	}
	return domain.InvalidOutcome(domain.ValidationServiceOrIndexPortError), &fetched
}

// FetchServerDetails discovers the index and service ports of the server and
// returns a new descriptor with the confirmed details filled in. Discovered
// ports replace any configured index/service values; a port that cannot be
// confirmed is an error, except for an absent service port, which is left at
// zero for the caller to judge.
func (v *Validator) FetchServerDetails(ctx context.Context, sd domain.ServerDescriptor) (domain.ServerDescriptor, error) {
	ports, err := v.determinePorts(ctx, sd)
	if err != nil {
		return domain.ServerDescriptor{}, err
	}

	out := sd
	out.IndexProtocol, out.IndexPort = "", 0
	out.ServiceProtocol, out.ServicePort = "", 0

	if ports.indexPort != nil {
		indexAddr, err := v.testIndexPort(ctx, sd, *ports.indexPort)
		if err != nil {
			return domain.ServerDescriptor{}, err
		}
		out = out.WithIndexServer(indexAddr)
	}

	if ports.servicePort > 0 {
		serviceAddr, err := v.testServicePort(ctx, sd, ports.servicePort)
		if err != nil {
			return domain.ServerDescriptor{}, err
		}
		out = out.WithServiceServer(serviceAddr)
	}

	return out, nil
}

// ports holds the port numbers reported by the server. indexPort is nil when
// the server did not report one, which is distinct from reporting zero.
type ports struct {
	aciPort     int
	indexPort   *int
	servicePort int
}

func (v *Validator) determinePorts(ctx context.Context, sd domain.ServerDescriptor) (ports, error) {
	addr := sd.Address()

	// GetStatus does not always report ports, but does when an index port is
	// in use; GetChildren covers the rest.
	if sd.SupportsIndexing() {
		status, err := aci.GetStatus(ctx, v.executor, addr)
		if err != nil {
			return ports{}, fmt.Errorf("unable to connect to ACI server: %w", err)
		}
		return ports{aciPort: status.ACIPort, indexPort: status.IndexPort, servicePort: status.ServicePort}, nil
	}

	children, err := aci.GetChildren(ctx, v.executor, addr)
	if err != nil {
		return ports{}, fmt.Errorf("unable to connect to ACI server: %w", err)
	}
	return ports{aciPort: children.Port, servicePort: children.ServicePort}, nil
}

func (v *Validator) testServerVersion(ctx context.Context, sd domain.ServerDescriptor, re *regexp.Regexp) (bool, error) {
	version, err := aci.GetVersion(ctx, v.executor, sd.Address())
	if err != nil {
		return false, err
	}

	reported := version.ProductTypes()

	if re != nil {
		for _, token := range reported {
			if re.MatchString(token) {
				return true, nil
			}
		}
		return false, nil
	}

	// Community reports its product name as just IDOL, so match on the
	// product type tokens rather than the name.
	tokens := make(map[string]struct{}, len(reported))
	for _, token := range reported {
		tokens[token] = struct{}{}
	}
	for _, productType := range sd.ProductTypes {
		if _, ok := tokens[string(productType)]; ok {
			return true, nil
		}
	}
	return false, nil
}

// testIndexPort confirms the index port by probing it over HTTP, then HTTPS.
// HTTP goes first: an HTTP probe of an HTTPS-only port fails quickly, the
// reverse ordering risks a long timeout.
func (v *Validator) testIndexPort(ctx context.Context, sd domain.ServerDescriptor, port int) (domain.Address, error) {
	if v.index == nil {
		return domain.Address{}, fmt.Errorf("no indexing capability configured, cannot confirm index port %d", port)
	}

	for _, protocol := range domain.ProbeOrder {
		addr := domain.Address{Protocol: protocol, Host: sd.Host, Port: port}

		switch v.ProbeIndexPort(ctx, addr, sd.IndexErrorMessage) {
		case IndexProbeConfirmed:
			return addr, nil
		case IndexProbeTransportError:
			// treated the same as not confirmed: move on to the next protocol
			v.logger.Debug("index probe transport error",
				zap.String("protocol", string(protocol)),
				zap.String("host", sd.Host), zap.Int("port", port))
		}
	}

	return domain.Address{}, fmt.Errorf("server does not have a valid index port")
}

// ProbeIndexPort sends the index test command to addr and classifies the
// result. Confirmation is an *aci.IndexError whose message exactly equals
// the configured fingerprint; a well-behaved index port rejects the test
// command with that message.
func (v *Validator) ProbeIndexPort(ctx context.Context, addr domain.Address, fingerprint string) IndexProbeResult {
	err := v.index.TestCommand(ctx, addr)
	if err == nil {
		// the command was accepted, which an index port would not do
		return IndexProbeNotConfirmed
	}

	var indexErr *aci.IndexError
	if errors.As(err, &indexErr) {
		if indexErr.Message == fingerprint {
			return IndexProbeConfirmed
		}
		return IndexProbeNotConfirmed
	}
	return IndexProbeTransportError
}

// testServicePort confirms the service port with a plain reachability probe,
// HTTP first for the same reason as testIndexPort.
func (v *Validator) testServicePort(ctx context.Context, sd domain.ServerDescriptor, port int) (domain.Address, error) {
	for _, protocol := range domain.ProbeOrder {
		addr := domain.Address{Protocol: protocol, Host: sd.Host, Port: port}

		if err := aci.Ping(ctx, v.executor, addr); err == nil {
			return addr, nil
		} else {
			v.logger.Debug("service probe failed",
				zap.String("protocol", string(protocol)),
				zap.String("host", sd.Host), zap.Int("port", port), zap.Error(err))
		}
	}

	return domain.Address{}, fmt.Errorf("server does not have a valid service port")
}
