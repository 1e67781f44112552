// Package rate parses the --rate flag's grammar: either a frequency
// ("100hz") or a byte-unit throughput literal ("1kb", "100 MB").
package rate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes the two Rate variants.
type Kind int

const (
	Hz Kind = iota
	Throughput
)

// Rate is a tagged union of a message frequency or a byte throughput.
type Rate struct {
	Kind           Kind
	HzValue        float64
	BytesPerSecond uint64
}

// ErrInvalidRate is returned by Parse when the input matches neither the
// Hz grammar nor a recognized byte-unit literal.
var ErrInvalidRate = fmt.Errorf("rate: invalid rate literal")

var hzPattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*hz\s*$`)

// decimal SI byte units, matching the original implementation's
// byte_unit-crate default (decimal, not binary).
var byteUnits = map[string]uint64{
	"b":  1,
	"kb": 1_000,
	"mb": 1_000_000,
	"gb": 1_000_000_000,
	"tb": 1_000_000_000_000,
}

var byteUnitPattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([a-z]+)\s*$`)

// Parse parses a rate literal: either a frequency ("100hz") or a decimal
// byte-unit throughput ("1kb", "100 MB").
func Parse(s string) (Rate, error) {
	if m := hzPattern.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Rate{}, ErrInvalidRate
		}
		return Rate{Kind: Hz, HzValue: v}, nil
	}

	if m := byteUnitPattern.FindStringSubmatch(s); m != nil {
		unit := strings.ToLower(m[2])
		if unit == "hz" {
			return Rate{}, ErrInvalidRate
		}
		mult, ok := byteUnits[unit]
		if !ok {
			return Rate{}, ErrInvalidRate
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Rate{}, ErrInvalidRate
		}
		return Rate{Kind: Throughput, BytesPerSecond: uint64(v * float64(mult))}, nil
	}

	return Rate{}, ErrInvalidRate
}
