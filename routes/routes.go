// Package routes wires controllers and middleware into the gin engine.
//
//   - api.go: /v1 API and health probes
//   - web.go: landing and documentation pages
package routes
