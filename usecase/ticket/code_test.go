package ticket

import (
	"regexp"
	"testing"
)

var codePattern = regexp.MustCompile(`^[ABCDEFGHJKLMNPQRSTUVWXYZ]{4}-[0-9]{4}$`)

func TestGenerateCodeFormat(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if !codePattern.MatchString(code) {
			t.Fatalf("malformed code %q", code)
		}
		seen[code] = struct{}{}
	}
	// 200 draws from a ~3.3M code space colliding down to a handful would
	// indicate a broken generator
	if len(seen) < 190 {
		t.Errorf("suspiciously many collisions: %d distinct codes", len(seen))
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	payload, err := EncodePayload("order-1", "KWRT-4821", 1748779200)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}

	orderID, code, err := DecodePayload(payload)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if orderID != "order-1" || code != "KWRT-4821" {
		t.Errorf("roundtrip mismatch: %q / %q", orderID, code)
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, payload := range []string{
		"not base64 at all!!!",
		"bm90IGpzb24=",             // valid base64, not JSON
		"eyJvcmRlcl9pZCI6IjEifQ==", // JSON without a code
		"",
	} {
		if _, _, err := DecodePayload(payload); err == nil {
			t.Errorf("payload %q should be rejected", payload)
		}
	}
}

func TestLooksLikeClaimCode(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"KWRT-4821", true},
		{"ABCD-0000", true},
		{"kwrt-4821", false}, // lower case
		{"KWRT-482", false},  // too short
		{"KWRT-48211", false},
		{"KWRT48211", false},  // no dash
		{"KWIT-4821", false},  // I is excluded
		{"KWOT-4821", false},  // O is excluded
		{"KWRT-48a1", false},  // letter in digit block
		{"", false},
	}
	for _, tc := range cases {
		if got := looksLikeClaimCode(tc.in); got != tc.want {
			t.Errorf("looksLikeClaimCode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
