// Package answer pulls the machine-readable answers block out of an agent's
// final response.
package answer
