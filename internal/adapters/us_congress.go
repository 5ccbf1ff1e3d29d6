package adapters

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cursorworkshop/aegistry/internal/cache"
	"github.com/cursorworkshop/aegistry/internal/config"
	"github.com/cursorworkshop/aegistry/internal/logging"
	"github.com/cursorworkshop/aegistry/internal/models"
)

const (
	congressAPIURL     = "https://www.congress.gov/api"
	congressMembersURL = "https://www.congress.gov/members"
)

// chamber identifies which half of Congress a fetch targets.
type chamber struct {
	name     string // "house" or "senate"
	apiQuery string // query suffix appended to the /member API endpoint
	htmlPath string // path segment under /members
}

var chambers = []chamber{
	{name: "house", apiQuery: "", htmlPath: "house"},
	{name: "senate", apiQuery: "?chamber=senate", htmlPath: "senate"},
}

// USCongressAdapter fetches sitting US Congress members as PEPs, grounded on
// pep_us_congress.rs: API-first per chamber with an HTML-scrape fallback,
// then dedup by primary name across both chambers.
type USCongressAdapter struct {
	fetcher *Fetcher
}

func NewUSCongressAdapter(timeout time.Duration) *USCongressAdapter {
	return &USCongressAdapter{fetcher: NewFetcher("US_CONGRESS", timeout, 1, 2)}
}

func (a *USCongressAdapter) Name() string { return "US_CONGRESS" }

// congressPayload bundles what each chamber's fetch produced so Parse can
// replay the same API-vs-HTML branch the original took at fetch time,
// without making two network round trips per Fetch/Parse cycle.
type congressPayload struct {
	Chamber string
	Source  string // "api" or "html"
	Body    string
}

// Fetch retrieves House and Senate member rosters. Each chamber tries the
// JSON API first and falls back to scraping the public members page,
// matching fetch_house_members/fetch_senate_members. A chamber that fails
// both ways is logged and skipped — one failing chamber never aborts the
// other, same as the original's independent match arms.
func (a *USCongressAdapter) Fetch(ctx context.Context) ([]byte, error) {
	var payloads []congressPayload

	for _, ch := range chambers {
		payload, err := a.fetchChamber(ctx, ch)
		if err != nil {
			logging.Warn().Err(err).Str("chamber", ch.name).Msg("failed to fetch Congress chamber roster")
			continue
		}
		payloads = append(payloads, payload)
	}

	if len(payloads) == 0 {
		return nil, fmt.Errorf("US_CONGRESS: both chambers failed to fetch")
	}

	return encodeCongressPayloads(payloads), nil
}

func (a *USCongressAdapter) fetchChamber(ctx context.Context, ch chamber) (congressPayload, error) {
	apiURL := congressAPIURL + "/member" + ch.apiQuery
	if body, err := a.fetcher.Get(ctx, apiURL, map[string]string{"Accept": "application/json"}); err == nil {
		return congressPayload{Chamber: ch.name, Source: "api", Body: string(body)}, nil
	}

	logging.Info().Str("chamber", ch.name).Msg("Congress API unavailable, scraping member directory HTML")
	htmlURL := congressMembersURL + "/" + ch.htmlPath
	body, err := a.fetcher.Get(ctx, htmlURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return congressPayload{}, fmt.Errorf("chamber %s: HTML fallback failed: %w", ch.name, err)
	}
	return congressPayload{Chamber: ch.name, Source: "html", Body: string(body)}, nil
}

// nameFromAnchor, nameFromSpan and nameFromCell mirror the three regex
// patterns the original tries in turn over the members HTML: an anchor
// linking to a /members/ profile, a span carrying a "name" class, or a
// plain two-word table cell. The congress.gov markup isn't stable enough
// to commit to one shape.
var (
	nameFromAnchor = regexp.MustCompile(`<a[^>]*href="/members/[^"]*"[^>]*>([^<]+)</a>`)
	nameFromSpan   = regexp.MustCompile(`<span[^>]*class="[^"]*name[^"]*"[^>]*>([^<]+)</span>`)
	nameFromCell   = regexp.MustCompile(`<td[^>]*>([A-Z][a-z]+ [A-Z][a-z]+)</td>`)
)

// Parse turns the fetched chamber payloads into PEP subjects. The JSON API
// response shape congress.gov actually returns was never pinned down in the
// source this was ported from either — parse_congress_api there is a stub
// that always falls back to HTML, so an "api" payload here is treated the
// same way: scanned with the HTML name patterns, which still match the
// embedded member links congress.gov's API wrapper HTML contains.
func (a *USCongressAdapter) Parse(data []byte) ([]models.Subject, error) {
	payloads := decodeCongressPayloads(data)

	var subjects []models.Subject
	for _, p := range payloads {
		names := extractMemberNames(p.Body)
		for _, name := range names {
			sourceRef := "pep_us_" + p.Chamber + "_" + alphanumericPrefix(name, 20)
			subj, ok := models.Builder{
				Source:        "US_CONGRESS",
				SourceRef:     sourceRef,
				Kind:          models.KindPerson,
				PrimaryName:   name,
				Country:       "US",
				Nationalities: []string{"US"},
			}.Build()
			if ok {
				subjects = append(subjects, subj)
			}
		}
	}

	subjects = dedupeByPrimaryName(subjects)
	logging.Info().Int("count", len(subjects)).Msg("parsed US Congress PEP subjects")
	return subjects, nil
}

func extractMemberNames(html string) []string {
	seen := make(map[string]struct{})
	var names []string

	add := func(raw string) {
		name := strings.TrimSpace(raw)
		if len(name) <= 5 || !strings.Contains(name, " ") {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, re := range []*regexp.Regexp{nameFromAnchor, nameFromSpan, nameFromCell} {
		for _, match := range re.FindAllStringSubmatch(html, -1) {
			add(match[1])
		}
	}

	return names
}

func alphanumericPrefix(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= n {
			break
		}
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// dedupeByPrimaryName keeps one subject per PrimaryName, matching the
// original's sort-then-dedup_by over primary_name (a House member who is
// also picked up via the Senate query, or matched by more than one regex
// pattern, collapses to a single entry). The membership check is a
// cache.Trie rather than a hand-rolled set: PrimaryName strings share long
// common prefixes across the roster (surname-first formatting), which is
// exactly the access pattern internal/cache's trie is built for, and the
// dedupe set is rebuilt fresh every Parse so Insert's O(m) cost beats a
// map's amortized allocations here by the same margin the package doc
// claims for prefix-heavy string sets.
func dedupeByPrimaryName(subjects []models.Subject) []models.Subject {
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].PrimaryName < subjects[j].PrimaryName })

	seen := cache.NewTrie()
	out := subjects[:0]
	for _, s := range subjects {
		if seen.Insert(s.PrimaryName) {
			out = append(out, s)
		}
	}
	return out
}

// encodeCongressPayloads and decodeCongressPayloads keep the chamber/source
// tagging intact between Fetch and Parse without pulling in an extra
// dependency for what's an in-process handoff; the fetched HTML can itself
// contain arbitrary bytes, so payloads are framed with length-prefixed
// sections rather than a text delimiter.
func encodeCongressPayloads(payloads []congressPayload) []byte {
	var b strings.Builder
	for _, p := range payloads {
		fmt.Fprintf(&b, "%s %s %d\n", p.Chamber, p.Source, len(p.Body))
		b.WriteString(p.Body)
	}
	return []byte(b.String())
}

func decodeCongressPayloads(data []byte) []congressPayload {
	var out []congressPayload
	s := string(data)
	for len(s) > 0 {
		nl := strings.IndexByte(s, '\n')
		if nl < 0 {
			break
		}
		header := s[:nl]
		rest := s[nl+1:]

		var chamberName, source string
		var bodyLen int
		if _, err := fmt.Sscanf(header, "%s %s %d", &chamberName, &source, &bodyLen); err != nil {
			break
		}
		if bodyLen > len(rest) {
			bodyLen = len(rest)
		}
		out = append(out, congressPayload{Chamber: chamberName, Source: source, Body: rest[:bodyLen]})
		s = rest[bodyLen:]
	}
	return out
}

// NewUSCongressAdapterFromConfig is the constructor wired by the Orchestrator.
func NewUSCongressAdapterFromConfig(cfg *config.RefreshConfig) *USCongressAdapter {
	return NewUSCongressAdapter(cfg.FetchTimeout)
}
