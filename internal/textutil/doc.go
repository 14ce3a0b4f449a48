// Package textutil derives filesystem-safe names from source paths and voice
// names.
package textutil
