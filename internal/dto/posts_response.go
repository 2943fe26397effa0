package dto

type TotalLikesResponse struct {
	TotalLikes int64 `json:"totalLikes"`
}
