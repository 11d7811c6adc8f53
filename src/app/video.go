package app

import (
	"regexp"
	"strings"
)

const embedPrefix = "https://www.youtube.com/embed/"

var youtubeID = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// EmbedURL rewrites a YouTube share link into its embeddable form. Inputs that
// are already embeddable, or that do not carry an 11 character video id, are
// returned unchanged.
func EmbedURL(input string) string {
	input = strings.TrimSpace(input)
	if input == "" || strings.Contains(input, "embed/") {
		return input
	}
	m := youtubeID.FindStringSubmatch(input)
	if m == nil || len(m[2]) != 11 {
		return input
	}
	return embedPrefix + m[2]
}

// VideoMap maps a category (or All) to a video URL.
type VideoMap map[string]string

// Resolve picks the video for category: the category's own entry, then the
// All entry, then fallback. An empty result means no video.
func (m VideoMap) Resolve(category, fallback string) string {
	if category != All {
		if v := m[category]; v != "" {
			return v
		}
	}
	if v := m[All]; v != "" {
		return v
	}
	return fallback
}

func (m VideoMap) Clone() VideoMap {
	out := make(VideoMap, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// With returns a copy of m where category points at the normalized url.
// An empty url removes the entry.
func (m VideoMap) With(category, url string) VideoMap {
	out := m.Clone()
	if embed := EmbedURL(url); embed != "" {
		out[category] = embed
	} else {
		delete(out, category)
	}
	return out
}

// ValidVideoKey reports whether key can index a VideoMap.
func ValidVideoKey(key string) bool {
	return key == All || ValidCategory(key)
}
