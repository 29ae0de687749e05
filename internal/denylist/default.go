package denylist

// DefaultPatterns are the substrings that mark an outbound request as an
// attempt to bulk-copy the page. Matching is case-insensitive.
var DefaultPatterns = Patterns{
	URLs: []string{
		"download",
		"scrape",
		"extract",
		"copy",
		"steal",
		"hack",
	},
}
