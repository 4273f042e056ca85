package blog

import (
	"strings"
	"unicode/utf8"
)

// Field limits. Lengths are counted in characters, not bytes.
const (
	maxNameLen        = 100
	maxTitleLen       = 255
	maxContentLen     = 100_000
	maxExcerptLen     = 1_000
	maxDescriptionLen = 1_000

	excerptLen = 200
)

// validateName checks a category name and returns the first problem found.
func validateName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required"
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 100 characters)"
	}
	return ""
}

func validateDescription(desc string) string {
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return "Description is too long (max 1,000 characters)"
	}
	return ""
}

// validateTitle checks a post title and returns the first problem found.
func validateTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Title is required"
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 255 characters)"
	}
	return ""
}

// validateContent only requires a non-empty string; whitespace counts.
func validateContent(content string) string {
	if content == "" {
		return "Content is required"
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 100,000 characters)"
	}
	return ""
}

func validateExcerpt(excerpt string) string {
	if utf8.RuneCountInString(excerpt) > maxExcerptLen {
		return "Excerpt is too long (max 1,000 characters)"
	}
	return ""
}

// firstProblem returns the first non-empty message.
func firstProblem(msgs ...string) string {
	for _, m := range msgs {
		if m != "" {
			return m
		}
	}
	return ""
}

// defaultExcerpt returns the first excerptLen characters of content.
func defaultExcerpt(content string) string {
	if utf8.RuneCountInString(content) <= excerptLen {
		return content
	}
	return string([]rune(content)[:excerptLen])
}

// uniqueIDs drops repeated ids, keeping first-seen order. A nil input
// stays nil.
func uniqueIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
