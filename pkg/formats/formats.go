// Package formats provides binary codecs for terragen output files.
package formats

// Note: TGRD (terrain grid tile) is implemented in tgrd.go
