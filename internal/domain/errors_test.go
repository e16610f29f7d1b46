package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akimon658/twittra/internal/domain"
)

func TestDatabaseErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &domain.DatabaseError{Op: "find_by_id", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "find_by_id")
}

func TestNoTokenError_PurposeVariants(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"user fetch", domain.NoTokenForUserFetch()},
		{"user icon", domain.NoTokenForUserIcon()},
		{"stamp fetch", domain.NoTokenForStampFetch()},
		{"stamp image", domain.NoTokenForStampImage()},
		{"stamps list", domain.NoTokenForStampsList()},
	}
	seen := map[string]bool{}
	for _, tc := range cases {
		msg := tc.err.Error()
		assert.False(t, seen[msg], "purpose messages must be distinct: %s", msg)
		seen[msg] = true
	}
}

func TestNoTokenForUser_IncludesUserID(t *testing.T) {
	id := domain.NewID()
	err := domain.NoTokenForUser(id)
	assert.Contains(t, err.Error(), id.String())
}

func TestAPIError_PreservesStatus(t *testing.T) {
	err := &domain.APIError{Status: 404, Message: "not found"}
	assert.Equal(t, 404, err.Status)
}
