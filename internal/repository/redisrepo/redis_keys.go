package redisrepo

import "fmt"

const (
	POST_KEY        = "post:%s" // <postID>
	UNIQUE_TAGS_KEY = "posts:unique-tags"
)

func PostKey(postID string) string {
	return fmt.Sprintf(POST_KEY, postID)
}

func UniqueTagsKey() string {
	return UNIQUE_TAGS_KEY
}
