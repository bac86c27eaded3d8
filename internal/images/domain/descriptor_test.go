package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "review", NewCategory("review", "").String())
	assert.Equal(t, "member/profile", NewCategory("member", "profile").String())
	assert.Equal(t, "/images/member/profile/1_a.png", NewCategory("member", "profile").URL("1_a.png"))
	assert.False(t, NewCategory("review", "").HasSub())
}

func TestDescriptor_ETag(t *testing.T) {
	mod := time.Unix(1700000000, 0)
	a := &Descriptor{FileName: "1_a.png", Category: "review", Size: 10, ModifiedAt: &mod}
	b := &Descriptor{FileName: "1_a.png", Category: "review", Size: 10, ModifiedAt: &mod}

	assert.Equal(t, a.ETag(), b.ETag())
	assert.Regexp(t, `^W/"[0-9a-f]{16}"$`, a.ETag())

	b.Size = 11
	assert.NotEqual(t, a.ETag(), b.ETag())
}
