package adapters

import "testing"

func TestUSCongressAdapterImplementsAdapter(t *testing.T) {
	var _ Adapter = (*USCongressAdapter)(nil)
}

func TestExtractMemberNamesAnchorPattern(t *testing.T) {
	html := `<a href="/members/jane-smith">Jane Smith</a>`
	names := extractMemberNames(html)
	if len(names) != 1 || names[0] != "Jane Smith" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestExtractMemberNamesDedupesAcrossPatterns(t *testing.T) {
	html := `<a href="/members/jane-smith">Jane Smith</a><td>Jane Smith</td>`
	names := extractMemberNames(html)
	if len(names) != 1 {
		t.Fatalf("expected dedup to one name, got %v", names)
	}
}

func TestExtractMemberNamesSkipsShortOrSingleWord(t *testing.T) {
	html := `<td>Ab</td><td>Solo</td>`
	names := extractMemberNames(html)
	if len(names) != 0 {
		t.Fatalf("expected no names extracted, got %v", names)
	}
}

func TestAlphanumericPrefixStripsPunctuationAndTruncates(t *testing.T) {
	got := alphanumericPrefix("O'Brien-Smith III", 8)
	want := "OBrienSm"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUSCongressAdapterParseDedupesByPrimaryName(t *testing.T) {
	payloads := []congressPayload{
		{Chamber: "house", Source: "html", Body: `<td>Jane Smith</td>`},
		{Chamber: "senate", Source: "html", Body: `<td>Jane Smith</td><td>John Doe</td>`},
	}
	data := encodeCongressPayloads(payloads)

	a := NewUSCongressAdapter(0)
	subjects, err := a.Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subjects) != 2 {
		t.Fatalf("expected 2 deduped subjects, got %d: %+v", len(subjects), subjects)
	}
	for _, s := range subjects {
		if s.Country != "US" {
			t.Fatalf("expected country US, got %q", s.Country)
		}
	}
}

func TestEncodeDecodeCongressPayloadsRoundTrip(t *testing.T) {
	payloads := []congressPayload{
		{Chamber: "house", Source: "html", Body: "<html>\nmultiline\nbody</html>"},
		{Chamber: "senate", Source: "api", Body: "{}"},
	}
	data := encodeCongressPayloads(payloads)
	got := decodeCongressPayloads(data)

	if len(got) != len(payloads) {
		t.Fatalf("expected %d payloads, got %d", len(payloads), len(got))
	}
	for i, p := range payloads {
		if got[i] != p {
			t.Fatalf("payload %d mismatch: got %+v, want %+v", i, got[i], p)
		}
	}
}
