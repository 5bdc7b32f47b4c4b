// Package textutil holds small string helpers for filenames and counts.
package textutil
