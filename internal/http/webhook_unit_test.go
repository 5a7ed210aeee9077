package http

import "testing"

func strptr(s string) *string { return &s }

func TestResolveName(t *testing.T) {
	cases := []struct {
		name  string
		first *string
		last  *string
		want  string
	}{
		{"both", strptr("Ann"), strptr("Lee"), "Ann Lee"},
		{"first only", strptr("Ann"), nil, "Ann"},
		{"last only", nil, strptr("Lee"), "Lee"},
		{"both nil", nil, nil, "Unnamed User"},
		{"both empty", strptr(""), strptr(""), "Unnamed User"},
		{"whitespace", strptr("  Ann "), strptr("  "), "Ann"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveName(tc.first, tc.last); got != tc.want {
				t.Fatalf("resolveName(%v, %v) = %q, want %q", tc.first, tc.last, got, tc.want)
			}
		})
	}
}

func TestResolveEmail(t *testing.T) {
	addrs := []emailAddress{
		{ID: "a", EmailAddress: "a@x.com"},
		{ID: "b", EmailAddress: "b@x.com"},
	}

	got := resolveEmail(webhookUserData{EmailAddresses: addrs, PrimaryEmailAddressID: "b"})
	if got != "b@x.com" {
		t.Fatalf("primary match: got %q", got)
	}

	// unmatched primary id falls back to the first address
	got = resolveEmail(webhookUserData{EmailAddresses: addrs, PrimaryEmailAddressID: "zzz"})
	if got != "a@x.com" {
		t.Fatalf("fallback: got %q", got)
	}

	if got = resolveEmail(webhookUserData{}); got != "" {
		t.Fatalf("empty list: got %q", got)
	}
}
