// Package textutil formats model output for terminals and renders numbered
// excerpts of source files.
package textutil
