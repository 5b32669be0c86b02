// Package gateway is the client side of the parrot proxy. It turns the four
// proxy endpoints into typed Go calls and classifies every failure as a
// ServerError or an InvalidResponseError.
package gateway
