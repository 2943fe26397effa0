package service

import (
	"errors"
	"fmt"
)

var (
	ErrInternal                     = errors.New("internal server error")
	ErrPostNotFound                 = errors.New("post not found")
	ErrNotPostAuthor                = errors.New("only the author can delete this post")
	ErrUserNotFound                 = errors.New("user not found")
	ErrNotProfileOwner              = errors.New("only the user can edit this profile")
	ErrEmailTaken                   = errors.New("email is already taken")
	ErrEmptyContent                 = errors.New("post content must not be empty")
	ErrAI                           = errors.New("AI Error")
	ErrFileMustBeImage              = errors.New("file must be an image")
	ErrFileMustHaveAValidExtension  = errors.New("file must have a valid extension")
	ErrFileTooLarge                 = errors.New("file is too large")
	ErrFailedToUploadPostImageToCDN = errors.New("failed to upload post image to CDN")
)

// AIError is returned when on-demand summarization fails. It carries the provider's message.
type AIError struct {
	Cause error
}

func (e *AIError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAI.Error(), e.Cause.Error())
}

func (e *AIError) Unwrap() []error {
	return []error{ErrAI, e.Cause}
}
