package checkin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPrimaryID(t *testing.T) {
	dir := []Registrant{
		{Key: "m1", PrimaryID: "2025-001", DisplayName: "Ana"},
		{Key: "m2", PrimaryID: "2025-002", DisplayName: "Ben"},
	}

	got, err := Match("2025-002", dir)
	require.NoError(t, err)
	assert.Equal(t, "m2", got.Key)

	// normalization makes formatting irrelevant
	got, err = Match("2025 001", dir)
	require.NoError(t, err)
	assert.Equal(t, "m1", got.Key)
}

func TestMatchPrimaryBeatsEarlierSecondary(t *testing.T) {
	// m1 appears first but only matches via a secondary id; the primary
	// hit on m2 must win.
	dir := []Registrant{
		{Key: "m1", PrimaryID: "1111-111", SecondaryIDs: []string{"2025-001"}},
		{Key: "m2", PrimaryID: "2025-001"},
	}

	got, err := Match("2025-001", dir)
	require.NoError(t, err)
	assert.Equal(t, "m2", got.Key)
}

func TestMatchSecondaryIDs(t *testing.T) {
	dir := []Registrant{
		{Key: "m1", PrimaryID: "1111-111", SecondaryIDs: []string{"9999999", "0007-123"}},
	}

	got, err := Match("0007123", dir)
	require.NoError(t, err)
	assert.Equal(t, "m1", got.Key)
}

func TestMatchTieResolvesToSnapshotOrder(t *testing.T) {
	dir := []Registrant{
		{Key: "first", PrimaryID: "2025-001"},
		{Key: "second", PrimaryID: "2025-001"},
	}

	got, err := Match("2025-001", dir)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Key)
}

func TestMatchNotFound(t *testing.T) {
	dir := []Registrant{{Key: "m1", PrimaryID: "2025-001"}}

	_, err := Match("2025-999", dir)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Match("", dir)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Match("---", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
