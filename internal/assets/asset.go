// Package assets implements the AssetId tagged union (native denom vs
// contract address) and its canonical byte encoding, which doubles as the
// storage key for every per-asset record in the engine.
package assets

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the two AssetId variants.
type Kind uint8

const (
	// KindNative tags a chain-native denom, e.g. a bank coin.
	KindNative Kind = 0
	// KindContract tags a smart-contract token (e.g. a CW20-style address).
	KindContract Kind = 1
)

// DenomMaxLength bounds native denom length, per the denomination rules.
const DenomMaxLength = 128

var (
	// ErrDenomMalformed reports a native denom failing the character rules.
	ErrDenomMalformed = errors.New("assets: denom malformed")
	// ErrAddressMalformed reports a contract address failing validation.
	ErrAddressMalformed = errors.New("assets: address malformed")
	// ErrEmptyPayload reports an AssetId with no tag or empty payload.
	ErrEmptyPayload = errors.New("assets: empty payload")
)

// ID is a tagged identifier discriminating a native denom from a contract
// address. Equality is over the tag plus payload; two IDs of different Kind
// are never equal even if their payload strings match.
type ID struct {
	kind    Kind
	payload string
}

// Native builds a native AssetId, validating the denom.
func Native(denom string) (ID, error) {
	if err := ValidateNativeDenom(denom); err != nil {
		return ID{}, err
	}
	return ID{kind: KindNative, payload: denom}, nil
}

// Contract builds a contract AssetId, validating the address.
func Contract(address string) (ID, error) {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return ID{}, err
	}
	return ID{kind: KindContract, payload: normalized}, nil
}

// Kind returns the asset's discriminant.
func (a ID) Kind() Kind { return a.kind }

// IsNative reports whether a is a native denom.
func (a ID) IsNative() bool { return a.kind == KindNative }

// IsContract reports whether a is a contract address.
func (a ID) IsContract() bool { return a.kind == KindContract }

// Payload returns the denom or address string.
func (a ID) Payload() string { return a.payload }

// Equal reports whether a and other refer to the same asset.
func (a ID) Equal(other ID) bool {
	return a.kind == other.kind && a.payload == other.payload
}

// Bytes returns the canonical 1-byte-tag + UTF-8 encoding used as a storage
// key. This encoding is a normative external contract: history and iteration
// order depend on it being stable.
func (a ID) Bytes() []byte {
	out := make([]byte, 0, 1+len(a.payload))
	out = append(out, byte(a.kind))
	out = append(out, []byte(a.payload)...)
	return out
}

// String renders a human-readable form, e.g. for logging.
func (a ID) String() string {
	switch a.kind {
	case KindNative:
		return "native:" + a.payload
	case KindContract:
		return "contract:" + a.payload
	default:
		return fmt.Sprintf("unknown(%d):%s", a.kind, a.payload)
	}
}

type jsonID struct {
	Kind    Kind   `json:"kind"`
	Payload string `json:"payload"`
}

// MarshalJSON renders the AssetId as a tagged object, used by the store
// layer's JSON-encoded records.
func (a ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonID{Kind: a.kind, Payload: a.payload})
}

// UnmarshalJSON parses the form produced by MarshalJSON, re-validating the
// payload the same way Native/Contract do.
func (a *ID) UnmarshalJSON(data []byte) error {
	var j jsonID
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	switch j.Kind {
	case KindNative:
		id, err := Native(j.Payload)
		if err != nil {
			return err
		}
		*a = id
	case KindContract:
		id, err := Contract(j.Payload)
		if err != nil {
			return err
		}
		*a = id
	default:
		return fmt.Errorf("assets: unknown kind tag %d", j.Kind)
	}
	return nil
}

// FromBytes decodes the canonical encoding produced by Bytes. Used when
// replaying storage keys back into typed IDs (e.g. store iteration).
func FromBytes(b []byte) (ID, error) {
	if len(b) < 2 {
		return ID{}, ErrEmptyPayload
	}
	kind := Kind(b[0])
	payload := string(b[1:])
	switch kind {
	case KindNative:
		return Native(payload)
	case KindContract:
		return Contract(payload)
	default:
		return ID{}, fmt.Errorf("assets: unknown kind tag %d", b[0])
	}
}

// ValidateNativeDenom checks the denomination rules: length in [3,128],
// first character an ASCII letter, subsequent characters ASCII alphanumeric
// or one of "/ : . _ -".
func ValidateNativeDenom(denom string) error {
	if len(denom) < 3 || len(denom) > DenomMaxLength {
		return fmt.Errorf("%w: %q must be between 3 and %d characters", ErrDenomMalformed, denom, DenomMaxLength)
	}
	first := denom[0]
	if !isASCIIAlpha(first) {
		return fmt.Errorf("%w: %q must start with an ASCII letter", ErrDenomMalformed, denom)
	}
	for i := 1; i < len(denom); i++ {
		c := denom[i]
		if isASCIIAlphaNumeric(c) || isAllowedDenomPunct(c) {
			continue
		}
		return fmt.Errorf("%w: %q contains invalid character %q", ErrDenomMalformed, denom, string(c))
	}
	return nil
}

func isASCIIAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIIAlphaNumeric(c byte) bool {
	return isASCIIAlpha(c) || (c >= '0' && c <= '9')
}

func isAllowedDenomPunct(c byte) bool {
	switch c {
	case '/', ':', '.', '_', '-':
		return true
	default:
		return false
	}
}
