package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/keyshift/internal/types"
)

// Auth errors are mapped by the auth interceptor. Handlers map the rest:
// unknown mappings to NOT_FOUND, rejected definitions to INVALID_ARGUMENT,
// context expiry to DEADLINE_EXCEEDED or CANCELED, anything else from the
// store to UNAVAILABLE.
func storeError(err error) error {
	switch {
	case errors.Is(err, types.ErrMappingNotFound):
		return status.Error(codes.NotFound, err.Error())
	case isDefinitionError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}

var definitionErrors = []error{
	types.ErrEmptyMappingName,
	types.ErrEmptyPath,
	types.ErrEmptySegment,
	types.ErrPathTooDeep,
	types.ErrUnsupportedValue,
	types.ErrMissingTarget,
	types.ErrAmbiguousRule,
	types.ErrEachWithoutSource,
	types.ErrEmptyEach,
	types.ErrInvalidCoercion,
	types.ErrCoercionFailed,
	types.ErrTooManyRules,
}

func isDefinitionError(err error) bool {
	for _, target := range definitionErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
