package store

import (
	"github.com/ludwig-forum/ludwig/internal/ludwigerr"
	"github.com/ludwig-forum/ludwig/internal/validation"
)

// ThreadInput is the validated shape of a create_thread call (§8.13:
// "create_thread rejects title > 1024 bytes, content_text >
// site.post_max_length, content_url > 2048 bytes").
type ThreadInput struct {
	Title          string `validate:"required,max=1024"`
	ContentURL     string `validate:"omitempty,max=2048"`
	ContentText    string `validate:"omitempty"`
	ContentWarning string `validate:"omitempty,max=256"`
}

// CommentInput is the validated shape of a create_comment call (§8.13:
// "create_comment rejects empty content and content > site.post_max_length").
type CommentInput struct {
	Content        string `validate:"required"`
	ContentWarning string `validate:"omitempty,max=256"`
}

var nameAllowed = [128]bool{}

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		nameAllowed[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		nameAllowed[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		nameAllowed[c] = true
	}
	nameAllowed['_'] = true
}

// ValidateName enforces the [A-Za-z0-9_]{1,64} constraint directly, since
// the validator package's built-in character-class tags don't model an
// underscore-inclusive alphanumeric set.
func ValidateName(op, name string) error {
	if len(name) == 0 || len(name) > 64 {
		return ludwigerr.New(ludwigerr.InvalidArgument, op, "name must be 1-64 bytes")
	}
	for _, r := range name {
		if r >= 128 || !nameAllowed[r] {
			return ludwigerr.New(ludwigerr.InvalidArgument, op, "name must match [A-Za-z0-9_]")
		}
	}
	return nil
}

// ValidateThreadInput checks title/content_url/content_warning bounds
// by hand, plus content_text against the site's configured
// post_max_length (passed in rather than read from settings, so callers
// control when a read of site config is needed).
func ValidateThreadInput(in ThreadInput, postMaxLength int) error {
	if len(in.Title) == 0 {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.ValidateThreadInput", "title is required")
	}
	if len(in.Title) > 1024 {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.ValidateThreadInput", "title exceeds 1024 bytes")
	}
	if len(in.ContentURL) > 2048 {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.ValidateThreadInput", "content_url exceeds 2048 bytes")
	}
	if len(in.ContentWarning) > 256 {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.ValidateThreadInput", "content_warning exceeds 256 bytes")
	}
	if postMaxLength > 0 && len(in.ContentText) > postMaxLength {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.ValidateThreadInput", "content_text exceeds post_max_length")
	}
	return nil
}

// ValidateCommentInput checks content non-emptiness and length (§8.13).
func ValidateCommentInput(in CommentInput, postMaxLength int) error {
	if len(in.Content) == 0 {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.ValidateCommentInput", "content is required")
	}
	if postMaxLength > 0 && len(in.Content) > postMaxLength {
		return ludwigerr.New(ludwigerr.InvalidArgument, "store.ValidateCommentInput", "content exceeds post_max_length")
	}
	return nil
}

// validateStructTags is a thin bridge to internal/validation for the few
// inputs (password length) better expressed as validator
// tags than hand rules.
func validateStructTags(op string, s any) error {
	if ve := validation.ValidateStruct(s); ve != nil {
		return ludwigerr.Wrap(ludwigerr.InvalidArgument, op, ve)
	}
	return nil
}

// PasswordInput validates a raw password before hashing (§3 LocalUser:
// PBKDF2-HMAC-SHA256).
type PasswordInput struct {
	Password string `validate:"required,min=8,max=256"`
}

// ValidatePassword enforces the minimum password length (§7 InvalidArgument
// example: "password too short").
func ValidatePassword(password string) error {
	return validateStructTags("store.ValidatePassword", &PasswordInput{Password: password})
}
