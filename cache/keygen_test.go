package cache

import "testing"

func TestFingerprintStableUnderParamOrder(t *testing.T) {
	url := "https://kr.api.riotgames.com/lol/match/v5/matches/by-puuid/abc/ids"

	p1 := map[string]string{}
	p1["count"] = "5"
	p1["queue"] = "420"
	p1["start"] = "0"

	p2 := map[string]string{}
	p2["start"] = "0"
	p2["queue"] = "420"
	p2["count"] = "5"

	k1 := Fingerprint(url, p1)
	k2 := Fingerprint(url, p2)
	if k1 != k2 {
		t.Errorf("Fingerprint not stable under param order: %s != %s", k1, k2)
	}
}

func TestFingerprintDistinguishesRequests(t *testing.T) {
	tests := []struct {
		name    string
		urlA    string
		paramsA map[string]string
		urlB    string
		paramsB map[string]string
	}{
		{
			name: "different URLs",
			urlA: "https://example.com/a",
			urlB: "https://example.com/b",
		},
		{
			name:    "different param values",
			urlA:    "https://example.com/a",
			paramsA: map[string]string{"count": "5"},
			urlB:    "https://example.com/a",
			paramsB: map[string]string{"count": "10"},
		},
		{
			name:    "param present vs absent",
			urlA:    "https://example.com/a",
			paramsA: map[string]string{"count": "5"},
			urlB:    "https://example.com/a",
		},
	}

	for _, tt := range tests {
		kA := Fingerprint(tt.urlA, tt.paramsA)
		kB := Fingerprint(tt.urlB, tt.paramsB)
		if kA == kB {
			t.Errorf("%s: expected different fingerprints, both %s", tt.name, kA)
		}
	}
}

func TestFingerprintEmptyAndNilParamsAgree(t *testing.T) {
	url := "https://example.com/summoner"
	if Fingerprint(url, nil) != Fingerprint(url, map[string]string{}) {
		t.Error("nil and empty params should produce the same fingerprint")
	}
}

func TestFingerprintIsHexDigest(t *testing.T) {
	k := Fingerprint("https://example.com", map[string]string{"a": "1"})
	if len(k) != 64 {
		t.Errorf("expected 64-char sha256 hex digest, got %d chars: %s", len(k), k)
	}
	for _, r := range k {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("unexpected character %q in fingerprint %s", r, k)
		}
	}
}
