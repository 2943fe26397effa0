package model

import "time"

type UserCounters struct {
	ID               string    `json:"id"`
	PostsCount       int64     `json:"posts_count"`
	LikesReceived    int64     `json:"likes_received"`
	AISummariesCount int64     `json:"ai_summaries_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type UserProfile struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Bio             *string   `json:"bio"`
	Major           *string   `json:"major"`
	GraduationYear  *string   `json:"graduation_year"`
	ProfileImageURL *string   `json:"profile_image_url"`
	JoinedDate      time.Time `json:"joined_date"`
}

// ProfileUpdate overwrites the non-nil fields of a profile.
type ProfileUpdate struct {
	Name            *string
	Email           *string
	Bio             *string
	Major           *string
	GraduationYear  *string
	ProfileImageURL *string
}

type UserStats struct {
	Profile    UserProfile  `json:"profile"`
	Counters   UserCounters `json:"counters"`
	TotalLikes int64        `json:"total_likes"`
}

// CounterDelta is applied to a user's counters in one update. Zero fields are left untouched.
type CounterDelta struct {
	Posts         int64
	LikesReceived int64
	AISummaries   int64
}

func (d CounterDelta) IsZero() bool {
	return d.Posts == 0 && d.LikesReceived == 0 && d.AISummaries == 0
}
