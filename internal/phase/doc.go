// Package phase defines the ordered model processing phases.
package phase
