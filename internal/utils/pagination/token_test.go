package pagination_test

import (
	"testing"
	"time"

	"github.com/finacore/bankledger/internal/utils/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	id := "3f1f8e42-70a4-4f3c-9f2f-0b9d5a8c1a2b"

	token := pagination.EncodeToken(createdAt, id)
	gotTime, gotID, err := pagination.DecodeToken(token)

	require.NoError(t, err)
	assert.True(t, createdAt.Equal(gotTime))
	assert.Equal(t, id, gotID)
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	cases := []string{
		"not-base64!!!",
		"",
		// Valid base64 of a payload without the separator.
		"bm8tc2VwYXJhdG9y",
		// Valid base64 of "garbage|id" with an unparseable timestamp.
		"Z2FyYmFnZXxpZA==",
	}
	for _, tc := range cases {
		_, _, err := pagination.DecodeToken(tc)
		assert.Error(t, err, tc)
	}
}

func TestEncodeTokenNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2026, 3, 14, 11, 0, 0, 0, loc)

	token := pagination.EncodeToken(local, "id-1")
	gotTime, _, err := pagination.DecodeToken(token)

	require.NoError(t, err)
	assert.True(t, local.Equal(gotTime))
	assert.Equal(t, time.UTC, gotTime.Location())
}
