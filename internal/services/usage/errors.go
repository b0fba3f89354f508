package usage

import "fmt"

// Endpoint names one of the monitoring endpoints.
type Endpoint string

const (
	EndpointModelUsage Endpoint = "model-usage"
	EndpointToolUsage  Endpoint = "tool-usage"
	EndpointQuotaLimit Endpoint = "quota/limit"
)

const monitorPathPrefix = "/api/monitor/usage/"

// Path returns the URL path of the endpoint.
func (e Endpoint) Path() string {
	return monitorPathPrefix + string(e)
}

// UnrecognizedEndpointError is returned when a base URL matches no known
// vendor domain.
type UnrecognizedEndpointError struct {
	URL string
}

func (e *UnrecognizedEndpointError) Error() string {
	return fmt.Sprintf("unrecognized base URL: %s", e.URL)
}

// TransportError is a network level failure, including reading the body.
type TransportError struct {
	Err      error
	Endpoint Endpoint
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is returned for any non-200 response.
type HTTPStatusError struct {
	Endpoint Endpoint
	Body     string
	Status   int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.Status, e.Endpoint, e.Body)
}

// SchemaError is returned when a 200 response does not match the expected
// shape. RawBody always holds the full payload.
type SchemaError struct {
	Err      error
	Endpoint Endpoint
	RawBody  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("parse error for %s: %v - response was: %s", e.Endpoint, e.Err, e.RawBody)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
