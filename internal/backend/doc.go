// Package backend talks to the Gemini API on behalf of the proxy service.
//
// Every call runs through one circuit breaker. Answers without a usable
// payload are reported as ErrNoData and do not count as breaker failures,
// neither do client side (4xx) API errors. When the breaker is open calls
// fail fast with ErrUnavailable.
package backend
