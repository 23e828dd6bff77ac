// Package size provides a byte-count flag type so capture buffer sizes can
// be given with a data unit on the command line.
package size

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count. It implements flag.Value:
// --buffer-size=2mb
type Size int64

const (
	_ = 1 << (iota * 10)
	kb
	mb
	gb
)

// Set parses a decimal count with an optional b, kb, mb or gb suffix,
// case-insensitive. The empty string leaves the value unchanged so an unset
// flag keeps its default.
func (siz *Size) Set(value string) error {
	if value == "" {
		return nil
	}
	v := strings.ToLower(value)
	unit := int64(1)
	switch {
	case strings.HasSuffix(v, "kb"):
		unit, v = kb, v[:len(v)-2]
	case strings.HasSuffix(v, "mb"):
		unit, v = mb, v[:len(v)-2]
	case strings.HasSuffix(v, "gb"):
		unit, v = gb, v[:len(v)-2]
	case strings.HasSuffix(v, "b"):
		v = v[:len(v)-1]
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid size %q", value)
	}
	*siz = Size(n * unit)
	return nil
}

func (siz *Size) String() string {
	return strconv.FormatInt(int64(*siz), 10)
}
