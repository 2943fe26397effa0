package dto

import (
	"mime/multipart"

	"github.com/knownet/post-service/internal/model"
)

type UpdateProfileRequest struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email           *string `json:"email" binding:"omitempty,email"`
	Bio             *string `json:"bio" binding:"omitempty,max=1000"`
	Major           *string `json:"major" binding:"omitempty,max=100"`
	GraduationYear  *string `json:"graduation_year" binding:"omitempty,max=10"`
	ProfileImageURL *string `json:"profile_image_url" binding:"omitempty,url"`
}

func (r UpdateProfileRequest) ToModel() model.ProfileUpdate {
	return model.ProfileUpdate{
		Name:            r.Name,
		Email:           r.Email,
		Bio:             r.Bio,
		Major:           r.Major,
		GraduationYear:  r.GraduationYear,
		ProfileImageURL: r.ProfileImageURL,
	}
}

type UploadProfileImageRequest struct {
	Image *multipart.FileHeader `form:"image" binding:"required"`
}
