// Package calculator provides a client for the calculator producer API.
//
// The producer exposes three GET endpoints, /add, /multiply and /divide, each
// taking two numeric query parameters and answering {"result": n} on success or
// {"error": "..."} with a 4xx status on failure.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := calculator.NewClient(
//		"http://localhost:10001",
//		logger,
//		calculator.WithTimeout(5*time.Second),
//		calculator.WithInterceptor(validator),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sum, err := client.Add(ctx, 5, 3)
//
// # Error Handling
//
// Every call makes exactly one request and is never retried. Failures are
// reported as one of:
//
//   - *TransportError: no response was received (refused, DNS, timeout)
//   - *APIError: the producer answered with an error body, or with a body
//     that carries neither field (IsMalformed reports true)
//   - *ValidationError: the attached Interceptor rejected the interaction
//
// Kind classifies any returned error:
//
//	switch calculator.Kind(err) {
//	case calculator.KindTransportError:
//		// producer down
//	}
//
// # Interceptors
//
// An Interceptor sees each completed interaction once. A rejection replaces
// the numeric result even when the producer answered 200. If the interceptor
// itself fails, the call proceeds unvalidated and a warning is logged.
package calculator
