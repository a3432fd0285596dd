package xerrors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errShortBalance = Derive(ErrConflict, "ledger: insufficient balance")
	errUnknownKind  = Derive(ErrNotFound, "nft: kind not found")
	errBadAmount    = Derive(ErrInvalidInput, "nft: invalid amount")
)

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "credit alice"))
	assert.NoError(t, Wrapf(nil, "credit %s", "alice"))
	assert.NoError(t, WithCode(nil, "insufficient_balance"))
}

func TestWrapKeepsChain(t *testing.T) {
	err := Wrapf(errShortBalance, "debit %d from %s", 4, "alice/LAND")
	require.Error(t, err)
	assert.Equal(t, "debit 4 from alice/LAND: ledger: insufficient balance", err.Error())
	assert.True(t, Is(err, errShortBalance))
	assert.True(t, Is(err, ErrConflict))

	err = Wrap(err, "transfer")
	assert.Equal(t, "transfer: debit 4 from alice/LAND: ledger: insufficient balance", err.Error())
	assert.True(t, Is(err, ErrConflict))
}

func TestDeriveCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category error
		others   []error
	}{
		{"conflict", errShortBalance, ErrConflict, []error{ErrNotFound, ErrInvalidInput}},
		{"not found", errUnknownKind, ErrNotFound, []error{ErrConflict, ErrInternal}},
		{"invalid input", errBadAmount, ErrInvalidInput, []error{ErrTimeout, ErrUnavailable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Is(tt.err, tt.category))
			for _, other := range tt.others {
				assert.False(t, Is(tt.err, other), "%v should not match %v", tt.err, other)
			}
			// 消息不带类别前缀
			assert.False(t, strings.HasPrefix(tt.err.Error(), tt.category.Error()+":"), tt.err.Error())
		})
	}

	assert.False(t, Is(errShortBalance, Derive(ErrConflict, "ledger: insufficient balance")),
		"two derived sentinels with the same message are distinct")
}

func TestCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bare sentinel", errShortBalance, ""},
		{"coded", WithCode(errShortBalance, "insufficient_balance"), "insufficient_balance"},
		{"wrapped after code", Wrap(WithCode(errUnknownKind, "kind_not_found"), "issue"), "kind_not_found"},
		{"outermost code wins", WithCode(WithCode(errBadAmount, "inner"), "outer"), "outer"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestCodedError(t *testing.T) {
	err := WithCode(errShortBalance, "insufficient_balance")
	assert.Equal(t, "[insufficient_balance] ledger: insufficient balance", err.Error())
	assert.True(t, Is(err, ErrConflict))

	var coded *CodedError
	require.True(t, As(err, &coded))
	assert.Equal(t, errShortBalance, coded.Cause)

	assert.Equal(t, "[empty]", (&CodedError{Code: "empty"}).Error())
}

func TestJoinMatchesEveryMember(t *testing.T) {
	err := Join(nil, Wrap(errUnknownKind, "kind LAND"), WithCode(errBadAmount, "invalid_amount"))
	require.Error(t, err)
	assert.True(t, Is(err, ErrNotFound))
	assert.True(t, Is(err, ErrInvalidInput))
	assert.Equal(t, "invalid_amount", GetCode(err))

	assert.NoError(t, Join(nil, nil))
}

func TestMust(t *testing.T) {
	assert.Equal(t, 42, Must(42, nil))
	assert.PanicsWithValue(t, "must: boom", func() {
		Must(0, errors.New("boom"))
	})
}
