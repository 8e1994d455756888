package fetcher

import "regexp"

// postIDPattern matches a Reddit comments permalink and captures the post
// id, e.g. "https://www.reddit.com/r/test/comments/t3_12345/title/" ->
// "t3_12345". Entries whose link does not match are silently dropped, per
// the boundary behavior: an RSS entry without /comments/{id}/ contributes
// no post.
var postIDPattern = regexp.MustCompile(`/comments/([a-z0-9_]+)/`)

// extractPostID returns the post id embedded in a permalink, and false if
// the permalink does not contain a recognizable /comments/{id}/ segment.
func extractPostID(permalink string) (string, bool) {
	m := postIDPattern.FindStringSubmatch(permalink)
	if m == nil {
		return "", false
	}
	return m[1], true
}
