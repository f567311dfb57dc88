package captions

import "strings"

// Filter collapses cue-formatted caption text into plain transcript lines.
//
// Auto-generated captions repeat each line across overlapping cues and wrap
// the live line in karaoke markup (<c> spans, inline timestamps). Every
// timing line arms a capture; the first plain line after it is kept unless
// it matches the previously kept line. The suppression is adjacent-only:
// text that legitimately repeats later in the video survives.
func Filter(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	pastHeader := false
	captureNext := false
	var content []string

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if strings.Contains(line, "-->") {
			pastHeader = true
			captureNext = true
			continue
		}

		// Everything before the first timing line is file header.
		if !pastHeader {
			continue
		}

		if captureNext && line != "" && !strings.Contains(line, "<") && !strings.Contains(line, ">") {
			if n := len(content); n == 0 || content[n-1] != line {
				content = append(content, line)
			}
			captureNext = false
		}
	}

	return strings.Join(content, "\n")
}

// Flatten rewrites a filtered transcript as a single line: newlines become
// spaces and carriage returns are dropped.
func Flatten(transcript string) string {
	transcript = strings.ReplaceAll(transcript, "\n", " ")
	return strings.ReplaceAll(transcript, "\r", "")
}
