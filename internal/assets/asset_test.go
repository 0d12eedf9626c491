package assets

import "testing"

func TestValidateNativeDenomAccepts(t *testing.T) {
	for _, denom := range []string{"uusdc", "ibc/ABCDEF0123", "factory/paloma1abc/token", "a.b-c_d"} {
		if err := ValidateNativeDenom(denom); err != nil {
			t.Errorf("expected %q to be valid, got %v", denom, err)
		}
	}
}

func TestValidateNativeDenomRejects(t *testing.T) {
	cases := []string{
		"",
		"ab",
		"1abc",
		"abc!",
		string(make([]byte, DenomMaxLength+1)),
	}
	for _, denom := range cases {
		if err := ValidateNativeDenom(denom); err == nil {
			t.Errorf("expected %q to be rejected", denom)
		}
	}
}

func TestNativeRoundTrip(t *testing.T) {
	id, err := Native("uusdc")
	if err != nil {
		t.Fatalf("Native: %v", err)
	}
	decoded, err := FromBytes(id.Bytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !decoded.Equal(id) {
		t.Fatalf("round trip mismatch: %v vs %v", decoded, id)
	}
}

func TestContractRoundTrip(t *testing.T) {
	id, err := Contract("0xAbCdEf0123456789aBcDeF0123456789aBCdEF01")
	if err != nil {
		t.Fatalf("Contract: %v", err)
	}
	if id.Payload() != "0xabcdef0123456789abcdef0123456789abcdef01" {
		t.Fatalf("unexpected normalized payload: %s", id.Payload())
	}
	decoded, err := FromBytes(id.Bytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !decoded.Equal(id) {
		t.Fatalf("round trip mismatch")
	}
}

func TestNativeAndContractNeverEqual(t *testing.T) {
	native, _ := Native("abc")
	contract, err := Contract("0x000000000000000000000000000000000000000a")
	if err != nil {
		t.Fatalf("Contract: %v", err)
	}
	if native.Equal(contract) {
		t.Fatalf("native and contract ids must never compare equal")
	}
}
