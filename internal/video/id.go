package video

import "regexp"

// idPattern matches a video ID following a "v=" marker. IDs use the URL-safe
// base64 alphabet (letters, digits, underscore, hyphen), so the match stops
// at the next query separator.
var idPattern = regexp.MustCompile(`v=([\w-]+)`)

// bareID matches a string made entirely of ID characters.
var bareID = regexp.MustCompile(`^[\w-]+$`)

// ExtractID pulls the video ID out of a watch URL. The leftmost "v=" marker
// wins. Inputs without a marker are returned unchanged, so bare IDs pass
// through as-is.
func ExtractID(urlOrID string) string {
	if m := idPattern.FindStringSubmatch(urlOrID); m != nil {
		return m[1]
	}
	return urlOrID
}

// IsID reports whether s is a bare video ID. URL and path characters are
// outside the ID alphabet, so anything that fails this check must not be
// used to build filesystem paths.
func IsID(s string) bool {
	return bareID.MatchString(s)
}

// WatchURL builds the canonical watch page URL for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
