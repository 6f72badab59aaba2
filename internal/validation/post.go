package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MaxCommentLength = 1000
	MaxTitleLength   = 200
	MaxTags          = 20
)

var (
	ErrTitleRequired       = errors.New("title is required")
	ErrTitleTooLong        = errors.New("title must be at most 200 characters")
	ErrDescriptionRequired = errors.New("description is required")
	ErrCommentRequired     = errors.New("comment text is required")
	ErrCommentTooLong      = errors.New("comment must be at most 1000 characters")
	ErrTooManyTags         = errors.New("a post can have at most 20 tags")
)

// ValidatePostFields checks the trimmed title and description of a new post.
func ValidatePostFields(title, description string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if description == "" {
		return ErrDescriptionRequired
	}
	return nil
}

// ValidateCommentText checks an already-trimmed comment body.
func ValidateCommentText(text string) error {
	if text == "" {
		return ErrCommentRequired
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

// NormalizeTags trims each tag, drops blanks and removes duplicates, keeping first-seen order.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > MaxTags {
		return nil, ErrTooManyTags
	}
	return out, nil
}

// SplitTags parses the comma-separated tags field of the upload form.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
