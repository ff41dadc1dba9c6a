package tubesage

import (
	"fmt"
	"strings"
)

// ComposeKey renders a key as "platform:videoId".
func ComposeKey(platform, videoID string) string {
	return platform + ":" + videoID
}

// ParseKey splits "platform:videoId". The platform part never contains a colon;
// everything after the first colon is the video id.
func ParseKey(s string) (ResourceKey, error) {
	platform, videoID, ok := strings.Cut(s, ":")
	if !ok || platform == "" || videoID == "" {
		return ResourceKey{}, fmt.Errorf("invalid resource key %q", s)
	}
	return ResourceKey{Platform: platform, VideoID: videoID}, nil
}

// QuizValid reports whether every question has unique options and an answer
// that is one of them.
func QuizValid(questions []QuizQuestion) bool {
	if len(questions) == 0 {
		return false
	}
	for _, q := range questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 {
			return false
		}
		seen := make(map[string]struct{}, len(q.Options))
		found := false
		for _, o := range q.Options {
			if _, dup := seen[o]; dup {
				return false
			}
			seen[o] = struct{}{}
			if o == q.Answer || optionLabel(o) == q.Answer {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// optionLabel returns "A" for "A. text" style options.
func optionLabel(option string) string {
	if len(option) >= 2 && option[1] == '.' {
		return option[:1]
	}
	return ""
}
