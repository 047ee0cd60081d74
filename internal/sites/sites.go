// Package sites holds the static knowledge base of well-known hostnames.
// A hit here bypasses the cache and the model entirely.
package sites

// Profile describes the fixed classification of a known hostname.
type Profile struct {
	Category      string
	Difficulty    string
	IsDistraction bool
}

// known maps bare hostnames (leading "www." already stripped) to their
// profiles. Matching is exact and case-sensitive; subdomains do not inherit.
var known = map[string]Profile{
	"youtube.com":       {Category: "entertainment", Difficulty: "easy", IsDistraction: true},
	"facebook.com":      {Category: "social", Difficulty: "easy", IsDistraction: true},
	"instagram.com":     {Category: "social", Difficulty: "easy", IsDistraction: true},
	"twitter.com":       {Category: "social", Difficulty: "easy", IsDistraction: true},
	"x.com":             {Category: "social", Difficulty: "easy", IsDistraction: true},
	"reddit.com":        {Category: "social", Difficulty: "medium", IsDistraction: true},
	"netflix.com":       {Category: "entertainment", Difficulty: "easy", IsDistraction: true},
	"tiktok.com":        {Category: "entertainment", Difficulty: "easy", IsDistraction: true},
	"github.com":        {Category: "work", Difficulty: "medium", IsDistraction: false},
	"stackoverflow.com": {Category: "work", Difficulty: "medium", IsDistraction: false},
	"linkedin.com":      {Category: "work", Difficulty: "easy", IsDistraction: false},
	"wikipedia.org":     {Category: "educational", Difficulty: "medium", IsDistraction: false},
	"arxiv.org":         {Category: "educational", Difficulty: "hard", IsDistraction: false},
	"medium.com":        {Category: "educational", Difficulty: "medium", IsDistraction: false},
}

// Lookup returns the profile for a hostname, if one exists.
func Lookup(hostname string) (Profile, bool) {
	p, ok := known[hostname]
	return p, ok
}
