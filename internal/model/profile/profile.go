package profile

import "fmt"

// Fallback texts used whenever the upstream service omits a field. The
// frontend renders them verbatim, so they read like copy, not error codes.
const (
	NoDescription = "No description available"
	NoResults     = "No results found"

	// FallbackName names the single synthetic record produced when no
	// person could be extracted from a response at all.
	FallbackName = "Search Result"
)

// Record is a person profile extracted from upstream search output. Every
// materialized Record has a non-empty FullName and Description.
type Record struct {
	FullName    string `json:"fullName"`
	Description string `json:"description"`
	MatchScore  int    `json:"matchScore"`
	AvatarRef   string `json:"avatarRef,omitempty"` // reserved for future imagery, never set
}

// RawRecord is the loosely structured person row the upstream service
// returns. Both fields are optional on the wire; Normalize fills the gaps.
type RawRecord struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
}

// PlaceholderName is the positional stand-in for a person whose name could
// not be recovered. Index is zero-based.
func PlaceholderName(index int) string {
	return fmt.Sprintf("Person %d", index+1)
}

// Normalize converts a raw upstream row into a Record, substituting the
// positional placeholder and description sentinel for missing fields.
func (r RawRecord) Normalize(index, score int) Record {
	name := r.FullName
	if name == "" {
		name = PlaceholderName(index)
	}
	description := r.Description
	if description == "" {
		description = NoDescription
	}
	return Record{FullName: name, Description: description, MatchScore: score}
}
