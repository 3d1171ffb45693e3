package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Whop-Premium":          "whop-premium",
		"whop%20premium":        "whop-premium",
		"whop%2520premium":      "whop-premium", // double-encoded
		"trading–signals":  "trading-signals",
		"trading—signals":  "trading-signals",
		"café-deals":       "cafe-deals",
		"  Spaced   Out  ":      "spaced-out",
		"under_score":           "under-score",
		"already-canonical":     "already-canonical",
		"Mixed--Dashes―-x": "mixed-dashes-x",
		"":                      "",
		"%zz-bad-escape":        "zz-bad-escape",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Whop%20Premium", "café–deals", "a%2Db", "--x--",
		"plain", "", "UPPER CASE 42!",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("Hello World"))
	assert.Equal(t, "my-app-20", Slugify("My App 2.0!"))
	// Slugify must not treat % as an escape, names can legitimately carry it.
	assert.Equal(t, "50-off-deals", Slugify("50% Off Deals"))
}
