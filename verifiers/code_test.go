package verifiers_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-secure-access/verifiers"
)

// stubCodeSource hands out a fixed code sequence, or a forced error.
type stubCodeSource struct {
	next int
	err  error
}

func (s *stubCodeSource) NewVerificationCode() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.next++
	return fmt.Sprintf("%06d", s.next), nil
}

// codesFixture holds the verifier under test together with its controllable
// clock.
type codesFixture struct {
	source *stubCodeSource
	now    time.Time
	codes  *verifiers.Codes
}

func setupCodesFixture(t *testing.T) *codesFixture {
	t.Helper()

	f := &codesFixture{
		source: &stubCodeSource{},
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	codes, err := verifiers.NewCodes(f.source, verifiers.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)

	f.codes = codes
	return f
}

// TestNewCodes_RequiresSource tests constructor validation
func TestNewCodes_RequiresSource(t *testing.T) {
	_, err := verifiers.NewCodes(nil)

	require.Error(t, err)
	require.Contains(t, err.Error(), "code source is required")
}

// TestVerify_MatchesIssuedCode tests the happy path and that a match consumes
// the code: it is single use
func TestVerify_MatchesIssuedCode(t *testing.T) {
	f := setupCodesFixture(t)

	code, err := f.codes.Issue(registeredUser)
	require.NoError(t, err)
	require.Len(t, code, 6)

	ok, err := f.codes.Verify(context.Background(), registeredUser, code)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.codes.Verify(context.Background(), registeredUser, code)
	require.NoError(t, err)
	require.False(t, ok, "a verified code must not be accepted twice")
}

// TestVerify_WrongCode tests that a mismatch is rejected without consuming
// the outstanding code
func TestVerify_WrongCode(t *testing.T) {
	f := setupCodesFixture(t)

	code, err := f.codes.Issue(registeredUser)
	require.NoError(t, err)

	ok, err := f.codes.Verify(context.Background(), registeredUser, "000000")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.codes.Verify(context.Background(), registeredUser, code)
	require.NoError(t, err)
	require.True(t, ok, "the right code should still work after a failed guess")
}

// TestVerify_UnknownUsername tests rejection when nothing was ever issued
func TestVerify_UnknownUsername(t *testing.T) {
	f := setupCodesFixture(t)

	ok, err := f.codes.Verify(context.Background(), "nobody", "123456")

	require.NoError(t, err)
	require.False(t, ok)
}

// TestVerify_ExpiredCode tests that a code past its deadline is dropped on
// presentation and never matches again
func TestVerify_ExpiredCode(t *testing.T) {
	f := setupCodesFixture(t)

	code, err := f.codes.Issue(registeredUser)
	require.NoError(t, err)

	f.now = f.now.Add(verifiers.DefaultCodeTTL + time.Second)

	ok, err := f.codes.Verify(context.Background(), registeredUser, code)
	require.NoError(t, err)
	require.False(t, ok)

	// Drop happened on presentation; rewinding the clock cannot revive it.
	f.now = f.now.Add(-2 * time.Second)
	ok, err = f.codes.Verify(context.Background(), registeredUser, code)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestVerify_CustomTTL tests the WithTTL option boundary
func TestVerify_CustomTTL(t *testing.T) {
	f := &codesFixture{
		source: &stubCodeSource{},
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	codes, err := verifiers.NewCodes(f.source,
		verifiers.WithNowTime(func() time.Time { return f.now }),
		verifiers.WithTTL(30*time.Second),
	)
	require.NoError(t, err)

	code, err := codes.Issue(registeredUser)
	require.NoError(t, err)

	f.now = f.now.Add(30 * time.Second)
	ok, err := codes.Verify(context.Background(), registeredUser, code)
	require.NoError(t, err)
	require.True(t, ok, "code should be live exactly at its deadline")
}

// TestIssue_ReplacesPreviousCode tests that issuing again invalidates the
// earlier code
func TestIssue_ReplacesPreviousCode(t *testing.T) {
	f := setupCodesFixture(t)

	first, err := f.codes.Issue(registeredUser)
	require.NoError(t, err)
	second, err := f.codes.Issue(registeredUser)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	ok, err := f.codes.Verify(context.Background(), registeredUser, first)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.codes.Verify(context.Background(), registeredUser, second)
	require.NoError(t, err)
	require.True(t, ok)
}

// TestIssue_SourceFailure tests that a failing code source aborts the issue
func TestIssue_SourceFailure(t *testing.T) {
	f := setupCodesFixture(t)
	f.source.err = fmt.Errorf("entropy exhausted")

	_, err := f.codes.Issue(registeredUser)

	require.Error(t, err)
	require.Contains(t, err.Error(), "entropy exhausted")
}

// TestCodes_PerUsernameIsolation tests that codes are tracked per principal
func TestCodes_PerUsernameIsolation(t *testing.T) {
	f := setupCodesFixture(t)

	aliceCode, err := f.codes.Issue("alice")
	require.NoError(t, err)
	bobCode, err := f.codes.Issue("bob")
	require.NoError(t, err)

	ok, err := f.codes.Verify(context.Background(), "alice", bobCode)
	require.NoError(t, err)
	require.False(t, ok, "one principal's code must not unlock another")

	ok, err = f.codes.Verify(context.Background(), "alice", aliceCode)
	require.NoError(t, err)
	require.True(t, ok)
}
