package errors

import (
	"errors"
	"fmt"

	bosherr "github.com/cloudfoundry/bosh-utils/errors"
)

type Kind string

const (
	KindUnknown          Kind = "unknown"
	KindUsage            Kind = "usage"
	KindImageNotFound    Kind = "image-not-found"
	KindIO               Kind = "io"
	KindCapacityExceeded Kind = "capacity-exceeded"
	KindRegionTooSmall   Kind = "region-too-small"
	KindCommitFailure    Kind = "commit-failure"
	KindNoPartitions     Kind = "no-partitions"
	KindUnsupportedTable Kind = "unsupported-table"
)

// KindError carries a Kind so that the CLI can map it to an exit code after
// any amount of bosherr wrapping.
type KindError struct {
	Kind Kind
	Msg  string
}

func (e KindError) Error() string {
	return e.Msg
}

func New(kind Kind, msg string) error {
	return KindError{Kind: kind, Msg: msg}
}

func Newf(kind Kind, msg string, args ...interface{}) error {
	return KindError{Kind: kind, Msg: fmt.Sprintf(msg, args...)}
}

// Wrap attaches kind to cause, keeping cause's message.
func Wrap(kind Kind, cause error, msg string) error {
	return bosherr.WrapComplexError(cause, KindError{Kind: kind, Msg: msg})
}

func Wrapf(kind Kind, cause error, msg string, args ...interface{}) error {
	return Wrap(kind, cause, fmt.Sprintf(msg, args...))
}

// KindOf returns the outermost Kind found in err. The Err of a
// bosherr.ComplexError is checked before its Cause.
func KindOf(err error) Kind {
	for err != nil {
		var kindErr KindError
		switch typed := err.(type) {
		case KindError:
			return typed.Kind
		case bosherr.ComplexError:
			if kind := KindOf(typed.Err); kind != KindUnknown {
				return kind
			}
			err = typed.Cause
			continue
		case *bosherr.ComplexError:
			if kind := KindOf(typed.Err); kind != KindUnknown {
				return kind
			}
			err = typed.Cause
			continue
		}

		if errors.As(err, &kindErr) {
			return kindErr.Kind
		}
		err = errors.Unwrap(err)
	}

	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
