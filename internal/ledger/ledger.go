// Package ledger reads the per-offer code verification files written by the
// offline checker into data/pages/<slug>.json.
package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/whpcodes/promo-directory/internal/slug"
)

// Entry is one verification record for a promo code.
type Entry struct {
	Code       string `json:"code"`
	Status     string `json:"status"`
	CheckedAt  string `json:"checkedAt,omitempty"`
	VerifiedAt string `json:"verifiedAt,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Ledger is the verification history for one offer.
type Ledger struct {
	WhopURL     string  `json:"whopUrl,omitempty"`
	LastUpdated string  `json:"lastUpdated,omitempty"`
	Ledger      []Entry `json:"ledger"`
}

// Reader resolves ledgers from a directory of per-slug JSON files.
type Reader struct {
	dir string
}

// NewReader creates a Reader over dir.
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Load returns the ledger for the slug. Missing or malformed files yield an
// empty ledger; the verification panel just shows no history.
func (r *Reader) Load(rawSlug string) *Ledger {
	empty := &Ledger{Ledger: []Entry{}}

	name := slug.Normalize(rawSlug)
	if name == "" {
		return empty
	}

	raw, err := os.ReadFile(filepath.Join(r.dir, name+".json"))
	if err != nil {
		return empty
	}

	var l Ledger
	if err := json.Unmarshal(raw, &l); err != nil {
		return empty
	}
	if l.Ledger == nil {
		l.Ledger = []Entry{}
	}
	return &l
}
