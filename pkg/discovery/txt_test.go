package discovery

import "testing"

func TestTXTValidate(t *testing.T) {
	cases := []struct {
		name    string
		txt     TXT
		wantErr error
	}{
		{"valid", TXT{ID: "AA:BB:CC:DD:EE:FF", Model: "HAP1,1"}, nil},
		{"bad id lowercase", TXT{ID: "aa:bb:cc:dd:ee:ff", Model: "HAP1,1"}, ErrInvalidID},
		{"bad id shape", TXT{ID: "AABBCCDDEEFF", Model: "HAP1,1"}, ErrInvalidID},
		{"missing model", TXT{ID: "AA:BB:CC:DD:EE:FF"}, ErrInvalidModel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.txt.Validate(); err != tc.wantErr {
				t.Fatalf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestTXTEncodeDefaultsAndOmission(t *testing.T) {
	txt := TXT{
		ID:           "AA:BB:CC:DD:EE:FF",
		Model:        "HAP1,1",
		ConfigNumber: 3,
		Category:     5,
	}
	records := txt.Encode()

	want := map[string]bool{
		"c#=3":                 false,
		"ff=0":                 false,
		"id=AA:BB:CC:DD:EE:FF": false,
		"md=HAP1,1":            false,
		"pv=1.1":               false,
		"s#=1":                 false,
		"sf=0":                 false,
		"ci=5":                 false,
	}
	for _, r := range records {
		if _, ok := want[r]; !ok {
			t.Fatalf("unexpected record %q", r)
		}
		want[r] = true
	}
	for k, seen := range want {
		if !seen {
			t.Fatalf("missing expected record %q in %v", k, records)
		}
	}
	for _, r := range records {
		if r == "sh=" || (len(r) >= 3 && r[:3] == "sh=") {
			t.Fatalf("SetupHash record present despite being unset: %v", records)
		}
	}
}

func TestTXTEncodeIncludesSetupHashWhenSet(t *testing.T) {
	txt := TXT{ID: "AA:BB:CC:DD:EE:FF", Model: "HAP1,1", Category: 5, SetupHash: "ABCD1234"}
	records := txt.Encode()

	found := false
	for _, r := range records {
		if r == "sh=ABCD1234" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sh=ABCD1234 in %v", records)
	}
}
