package handler

import (
	"errors"
	"net/http"

	"github.com/knownet/post-service/internal/service"
)

var (
	errNotAuthorized = errors.New("user is not authorized")
	errInvalidPostID = errors.New("invalid post ID")
	errInvalidUserID = errors.New("invalid user ID")
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotPostAuthor),
		errors.Is(err, service.ErrNotProfileOwner):
		return http.StatusForbidden
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrFileMustBeImage),
		errors.Is(err, service.ErrFileMustHaveAValidExtension),
		errors.Is(err, service.ErrFileTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAI),
		errors.Is(err, service.ErrFailedToUploadPostImageToCDN):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
