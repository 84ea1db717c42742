package bot

import "strings"

// category returns the first path segment of an article link under the
// site prefix, or "" when the link doesn't match the expected shape.
// Only lowercase letters and hyphens qualify, mirroring the site's
// category slugs.
func (b *Bot) category(link string) string {
	rest, ok := strings.CutPrefix(link, b.site.LinkPrefix)
	if !ok {
		return ""
	}

	segment, _, ok := strings.Cut(rest, "/")
	if !ok || segment == "" {
		return ""
	}

	for _, r := range segment {
		if (r < 'a' || r > 'z') && r != '-' {
			return ""
		}
	}

	return segment
}

func (b *Bot) excluded(category string) bool {
	for _, excluded := range b.site.ExcludedCategories {
		if category == excluded {
			return true
		}
	}
	return false
}

// deriveTags splits a category slug into hashtag words.
// "ricerca-e-universita" becomes ["ricerca", "universita"]: one-letter
// fragments like the conjunction are dropped.
func deriveTags(category string) []string {
	if category == "" {
		return nil
	}

	var tags []string
	for _, fragment := range strings.Split(category, "-") {
		if len(fragment) > 1 {
			tags = append(tags, fragment)
		}
	}
	return tags
}
