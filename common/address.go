package common

import (
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common/errs"
)

// AddressLength is the byte length of an account identity.
const AddressLength = 20

// Address identifies an account, a contract-like component or a payment asset.
type Address [AddressLength]byte

// ZeroAddress is the mint origin. It can never send, receive or approve.
var ZeroAddress = Address{}

// NewAddressFromHex parses a hex string with an optional 0x prefix.
func NewAddressFromHex(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != AddressLength*2 {
		return Address{}, errors.Wrapf(errs.InvalidArgument, "invalid address length %d", len(s))
	}
	var a Address
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return Address{}, errors.Wrap(errs.InvalidArgument, err.Error())
	}
	return a, nil
}

// MustAddress is like [NewAddressFromHex] but panics on malformed input. Intended for constants and tests.
func MustAddress(s string) Address {
	a, err := NewAddressFromHex(s)
	if err != nil {
		panic(err)
	}
	return a
}

// BytesToAddress returns the address built from the last 20 bytes of b, left padded with zeros.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) Bytes() []byte {
	return a[:]
}

// String returns the lowercase 0x-prefixed hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := NewAddressFromHex(string(text))
	if err != nil {
		return errors.WithStack(err)
	}
	*a = parsed
	return nil
}

// Compare orders addresses bytewise. Used to keep query results deterministic.
func (a Address) Compare(b Address) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
