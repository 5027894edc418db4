package common

import (
	"encoding/json"
	"testing"

	"github.com/gaze-network/token-sale/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddressFromHex(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name     string
		input    string
		expected Address
		err      bool
	}

	testCases := []testCase{
		{
			name:     "with prefix",
			input:    "0x00000000000000000000000000000000000000ff",
			expected: BytesToAddress([]byte{0xff}),
		},
		{
			name:     "without prefix",
			input:    "00000000000000000000000000000000000000ff",
			expected: BytesToAddress([]byte{0xff}),
		},
		{
			name:     "upper case",
			input:    "0x00000000000000000000000000000000000000FF",
			expected: BytesToAddress([]byte{0xff}),
		},
		{
			name:  "too short",
			input: "0xff",
			err:   true,
		},
		{
			name:  "not hex",
			input: "0xzz000000000000000000000000000000000000ff",
			err:   true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			actual, err := NewAddressFromHex(tc.input)
			if tc.err {
				assert.ErrorIs(t, err, errs.InvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestAddressJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Owner Address `json:"owner"`
	}

	in := payload{Owner: MustAddress("0x1111111111111111111111111111111111111111")}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"0x1111111111111111111111111111111111111111"}`, string(data))

	var out payload
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"owner":"0x11"}`), &out))
}

func TestAddressCompare(t *testing.T) {
	t.Parallel()

	a := BytesToAddress([]byte{1})
	b := BytesToAddress([]byte{2})
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, ZeroAddress.IsZero())
	assert.False(t, a.IsZero())
}
