// Package contract provides interceptors that check calculator interactions
// against a published producer schema.
//
// A Schema lists the producer's endpoints, their query parameters and the
// body expected for each status code. Response specs may carry rules,
// expressions evaluated with expr-lang against the typed query, the decoded
// body and the status:
//
//	rules:
//	  - approx(body.result, query.x + query.y)
//
// Helpers available to rules are approx(a, b), has(field) and finite(v).
//
// Interceptors:
//
//   - Validator: checks interactions locally against a Schema
//   - RemoteValidator: delegates to a contract validation service
//   - Recorder: captures interactions, wrapping either of the above
//
// Mock is an http.RoundTripper answering from schema examples, for tests and
// offline runs. BuildConsumer turns recorded interactions into the list of
// endpoints and fields a consumer depends on.
package contract
