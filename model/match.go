package model

// Range is a half-open byte span [Start, End) within a document's text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Match is a single occurrence of a provider pattern in a document. The
// request URL is fully built when the match is found and never recomputed.
type Match struct {
	Range      Range  `json:"range"`
	ProviderID string `json:"providerId"`
	RequestURL string `json:"requestUrl"`
}

// Key returns the resolution cache key for the match. Matches with the same
// provider and request URL share one resolution.
func (m Match) Key() Key {
	return Key{
		ProviderID: m.ProviderID,
		RequestURL: m.RequestURL,
	}
}

// Key identifies a lens resolution.
type Key struct {
	ProviderID string
	RequestURL string
}

func (k Key) String() string {
	return k.ProviderID + ":" + k.RequestURL
}
