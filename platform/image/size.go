package image

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	sderr "github.com/touchpi/sdimage/errors"
)

// RequestedSize is a parsed image size argument: N bytes absolute, or +N
// bytes relative to the current size.
type RequestedSize struct {
	Set      bool
	Relative bool
	Bytes    uint64
}

func ParseRequestedSize(arg string) (RequestedSize, error) {
	if arg == "" {
		return RequestedSize{}, nil
	}

	relative := strings.HasPrefix(arg, "+")

	bytes, err := ParseByteCount(strings.TrimPrefix(arg, "+"))
	if err != nil {
		return RequestedSize{}, sderr.Wrapf(sderr.KindUsage, err, "Parsing image size `%s'", arg)
	}

	return RequestedSize{Set: true, Relative: relative, Bytes: bytes}, nil
}

// Target returns the size the image should have, given its current size.
func (s RequestedSize) Target(currentSize uint64) (uint64, error) {
	if !s.Set {
		return currentSize, nil
	}

	if !s.Relative {
		return s.Bytes, nil
	}

	if s.Bytes > math.MaxInt64-currentSize {
		return 0, sderr.Newf(sderr.KindUsage, "Growing %d bytes by %d bytes overflows", currentSize, s.Bytes)
	}

	return currentSize + s.Bytes, nil
}

func (s RequestedSize) String() string {
	if !s.Set {
		return "unchanged"
	}

	if s.Relative {
		return fmt.Sprintf("+%d", s.Bytes)
	}

	return fmt.Sprintf("%d", s.Bytes)
}

// ParseByteCount parses a plain decimal byte count that fits an int64.
func ParseByteCount(arg string) (uint64, error) {
	bytes, err := strconv.ParseUint(arg, 10, 63)
	if err != nil {
		return 0, sderr.Wrapf(sderr.KindUsage, err, "`%s' is not a byte count", arg)
	}

	return bytes, nil
}
