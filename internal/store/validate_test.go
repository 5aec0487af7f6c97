package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNameAcceptsAlphanumericUnderscore(t *testing.T) {
	assert.NoError(t, ValidateName("test.op", "valid_name_123"))
}

func TestValidateNameRejectsEmpty(t *testing.T) {
	assert.Error(t, ValidateName("test.op", ""))
}

func TestValidateNameRejectsTooLong(t *testing.T) {
	assert.Error(t, ValidateName("test.op", strings.Repeat("a", 65)))
}

func TestValidateNameRejectsDisallowedCharacters(t *testing.T) {
	assert.Error(t, ValidateName("test.op", "has a space"))
	assert.Error(t, ValidateName("test.op", "has-dash"))
	assert.Error(t, ValidateName("test.op", "emoji😀"))
}

func TestValidateThreadInputRejectsEmptyTitle(t *testing.T) {
	assert.Error(t, ValidateThreadInput(ThreadInput{}, 1000))
}

func TestValidateThreadInputRejectsOverlongTitle(t *testing.T) {
	in := ThreadInput{Title: strings.Repeat("a", 1025)}
	assert.Error(t, ValidateThreadInput(in, 1000))
}

func TestValidateThreadInputRespectsPostMaxLength(t *testing.T) {
	in := ThreadInput{Title: "ok", ContentText: strings.Repeat("x", 20)}
	assert.Error(t, ValidateThreadInput(in, 10))
	assert.NoError(t, ValidateThreadInput(in, 100))
}

func TestValidateCommentInputRejectsEmptyContent(t *testing.T) {
	assert.Error(t, ValidateCommentInput(CommentInput{}, 1000))
}

func TestValidateCommentInputRespectsPostMaxLength(t *testing.T) {
	in := CommentInput{Content: strings.Repeat("y", 50)}
	assert.Error(t, ValidateCommentInput(in, 10))
	assert.NoError(t, ValidateCommentInput(in, 100))
}

func TestValidatePasswordRejectsShort(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
}

func TestValidatePasswordAcceptsLongEnough(t *testing.T) {
	assert.NoError(t, ValidatePassword("a reasonably long password"))
}
