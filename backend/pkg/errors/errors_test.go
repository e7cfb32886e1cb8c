package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf_WalksWrapChain(t *testing.T) {
	err := fmt.Errorf("deleting post: %w", NewNotFound("Post", "p1"))

	assert.Equal(t, ErrorTypeNotFound, TypeOf(err))
	assert.True(t, IsErrorType(err, ErrorTypeNotFound))
	assert.False(t, IsErrorType(err, ErrorTypeConflict))

	var nf *ErrNotFound
	if assert.True(t, stderrors.As(err, &nf)) {
		assert.Equal(t, "p1", nf.ID)
	}
}

func TestTypeOf_Untyped(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("boom")))
	assert.False(t, IsErrorType(nil, ErrorTypeValidation))
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("toggle follow: %w", ErrSelfFollow)

	assert.True(t, stderrors.Is(err, ErrSelfFollow))
	assert.False(t, stderrors.Is(err, ErrNotOwner))
	assert.Equal(t, ErrorTypeUnauthorized, TypeOf(err))
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation keeps message", ErrMissingImage, "Image not found"},
		{"not found keeps message", NewNotFound("Post", "x"), "Post not found"},
		{"upstream is hidden", NewUpstream("media", stderrors.New("s3: access denied")), "Something went wrong"},
		{"storage is hidden", NewStorage("create post", stderrors.New("bolt: closed")), "Something went wrong"},
		{"untyped is hidden", stderrors.New("nil pointer"), "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicMessage(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewUpstream("media", nil)))
	assert.True(t, IsRetryable(NewStorage("follow", nil)))
	assert.False(t, IsRetryable(ErrEmptyText))
}
