package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Operation identifies one of the producer's arithmetic endpoints
type Operation int

const (
	// OperationUnknown is the zero value and never sent to the producer
	OperationUnknown Operation = iota
	// OperationAdd sums both operands
	OperationAdd
	// OperationMultiply multiplies both operands
	OperationMultiply
	// OperationDivide divides the first operand by the second
	OperationDivide
)

// Operations lists every supported operation in CLI order
var Operations = []Operation{OperationAdd, OperationMultiply, OperationDivide}

// ParseOperation converts a subcommand name into an Operation
func ParseOperation(name string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "add":
		return OperationAdd, nil
	case "multiply":
		return OperationMultiply, nil
	case "divide":
		return OperationDivide, nil
	default:
		return OperationUnknown, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
}

// String returns the lower-case operation name
func (o Operation) String() string {
	switch o {
	case OperationAdd:
		return "add"
	case OperationMultiply:
		return "multiply"
	case OperationDivide:
		return "divide"
	default:
		return "unknown"
	}
}

// Path returns the producer endpoint for the operation
func (o Operation) Path() string {
	if o == OperationUnknown {
		return ""
	}
	return "/" + o.String()
}

// Symbol returns the infix symbol used when printing results
func (o Operation) Symbol() string {
	switch o {
	case OperationAdd:
		return "+"
	case OperationMultiply:
		return "*"
	case OperationDivide:
		return "/"
	default:
		return "?"
	}
}

// Valid reports whether o is one of the known operations
func (o Operation) Valid() bool {
	return o >= OperationAdd && o <= OperationDivide
}

// ParamNames holds the query parameter names the producer expects
type ParamNames struct {
	First  string
	Second string
}

// DefaultParamNames is the canonical producer contract
var DefaultParamNames = ParamNames{First: "x", Second: "y"}

// Validate checks that both names are set and distinct
func (p ParamNames) Validate() error {
	if p.First == "" || p.Second == "" {
		return fmt.Errorf("%w: parameter names must not be empty", ErrInvalidConfig)
	}
	if p.First == p.Second {
		return fmt.Errorf("%w: parameter names must differ (both %q)", ErrInvalidConfig, p.First)
	}
	return nil
}

// RequestInfo describes the outbound half of an interaction
type RequestInfo struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ResponseInfo describes the inbound half of an interaction
type ResponseInfo struct {
	StatusCode int               `json:"status_code"`
	Status     string            `json:"status,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"body,omitempty"`
}

// ValidationResult is the verdict an Interceptor returns for an interaction
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Interaction is one captured request/response pair
type Interaction struct {
	ID               string            `json:"id"`
	Timestamp        time.Time         `json:"timestamp"`
	Request          RequestInfo       `json:"request"`
	Response         ResponseInfo      `json:"response"`
	ValidationResult *ValidationResult `json:"validation_result,omitempty"`
}

// RequestURI returns the path with its encoded query string
func (r RequestInfo) RequestURI() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + encodeQuery(r.Query)
}

// ResultKind classifies the outcome of a single client call
type ResultKind int

const (
	// KindOK means the producer returned a numeric result
	KindOK ResultKind = iota
	// KindAPIError means the producer answered with an error or malformed body
	KindAPIError
	// KindTransportError means no response was received
	KindTransportError
	// KindValidationError means the interceptor rejected the interaction
	KindValidationError
	// KindOther covers errors raised before a request was built
	KindOther
)

// String returns the string representation of a ResultKind
func (k ResultKind) String() string {
	switch k {
	case KindOK:
		return "OK"
	case KindAPIError:
		return "API_ERROR"
	case KindTransportError:
		return "TRANSPORT_ERROR"
	case KindValidationError:
		return "VALIDATION_ERROR"
	default:
		return "OTHER"
	}
}

// FormatNumber renders a float the way the producer contract and CLI expect:
// integral values without a decimal point, others with the shortest exact form.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
