package parser

import (
	"encoding/json"
	"math/rand"
	"regexp"
	"strings"

	"github.com/adjebara/people-search/backend/internal/model/profile"
)

// The upstream summarizer is asked for one JSON object per person, but its
// output routinely interleaves prose with the objects, truncates them, or
// drops the JSON entirely. Extraction therefore runs three strategies in
// order and takes the first one that yields records.
var (
	anyObject     = regexp.MustCompile(`\{[\s\S]*\}`)
	personObject  = regexp.MustCompile(`\{\s*"full_name"[\s\S]*?\}`)
	stripNoise    = strings.NewReplacer("{", "", "}", "", `"`, "")
	fallbackScore = 90
)

// ScoreFunc supplies the synthetic match score attached to extracted
// records. It is a presentation confidence heuristic, not upstream data.
type ScoreFunc func() int

// RandomScore draws uniformly from [85,99].
func RandomScore() int {
	return 85 + rand.Intn(15)
}

// Parser turns raw upstream text into profile records. It never fails and
// never returns an empty slice, whatever the input looks like.
type Parser struct {
	score ScoreFunc
}

// New builds a Parser. A nil score function means RandomScore.
func New(score ScoreFunc) *Parser {
	if score == nil {
		score = RandomScore
	}
	return &Parser{score: score}
}

// Parse extracts an ordered list of profile records from rawText.
func (p *Parser) Parse(rawText string) []profile.Record {
	if records := p.fromObjects(rawText); len(records) > 0 {
		return records
	}
	if records := p.fromLines(rawText); len(records) > 0 {
		return records
	}
	return []profile.Record{p.wholeText(rawText)}
}

// fromObjects scans for brace-delimited fragments opening with a full_name
// key and decodes each one strictly. A fragment that fails to decode still
// produces a record: its stripped text becomes the description.
func (p *Parser) fromObjects(rawText string) []profile.Record {
	if !anyObject.MatchString(rawText) {
		return nil
	}

	fragments := personObject.FindAllString(rawText, -1)
	records := make([]profile.Record, 0, len(fragments))
	for i, fragment := range fragments {
		var raw profile.RawRecord
		if err := json.Unmarshal([]byte(fragment), &raw); err != nil {
			records = append(records, profile.Record{
				FullName:    profile.PlaceholderName(i),
				Description: stripNoise.Replace(fragment),
				MatchScore:  p.score(),
			})
			continue
		}
		records = append(records, raw.Normalize(i, p.score()))
	}
	return records
}

// fromLines walks non-blank lines keeping a single in-progress person. A
// name marker flushes the previous person and starts a new one; a
// description marker fills in the current person, if any.
func (p *Parser) fromLines(rawText string) []profile.Record {
	var records []profile.Record
	var current profile.RawRecord

	flush := func() {
		if current.FullName == "" {
			return
		}
		records = append(records, current.Normalize(len(records), p.score()))
	}

	for _, line := range strings.Split(rawText, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "full_name") || strings.Contains(lower, "full name"):
			flush()
			current = profile.RawRecord{FullName: labelValue(line)}
		case strings.Contains(lower, "description") && current.FullName != "":
			current.Description = labelValue(line)
		}
	}
	flush()
	return records
}

// wholeText produces the last-resort single record carrying the entire
// response, so the UI always has a row to show.
func (p *Parser) wholeText(rawText string) profile.Record {
	description := rawText
	if description == "" {
		description = profile.NoResults
	}
	return profile.Record{
		FullName:    profile.FallbackName,
		Description: description,
		MatchScore:  fallbackScore,
	}
}

// ExtractRaw returns the well-formed person objects embedded in text, with
// no fallbacks and no scoring. Used server-side to keep the canonical
// record set behind a summary.
func ExtractRaw(text string) []profile.RawRecord {
	var records []profile.RawRecord
	for _, fragment := range personObject.FindAllString(text, -1) {
		var raw profile.RawRecord
		if err := json.Unmarshal([]byte(fragment), &raw); err != nil {
			continue
		}
		records = append(records, raw)
	}
	return records
}

// labelValue strips a leading label prefix (everything through the last
// colon or quote) and a trailing quote/comma tail from a line like
//
//	"full_name": "Jane Doe",   or   Full Name: Jane Doe
func labelValue(line string) string {
	if i := strings.LastIndexAny(line, `:"`); i >= 0 {
		line = line[i+1:]
	}
	if i := strings.IndexAny(line, `",`); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
