package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	publicFeedPattern = "feed:public:*"
	publicFeedKeyFmt  = "feed:public:p%d:l%d"
	userProfileKeyFmt = "user:profile:%s"
)

const (
	PublicFeedTTL  = 30 * time.Second
	UserProfileTTL = 5 * time.Minute
)

// PublicFeedKey names a cached public feed page.
func PublicFeedKey(page, limit int) string {
	return fmt.Sprintf(publicFeedKeyFmt, page, limit)
}

// UserProfileKey names a cached public profile, keyed by username.
func UserProfileKey(username string) string {
	return fmt.Sprintf(userProfileKeyFmt, username)
}

// Invalidate deletes key. Errors are ignored.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidatePublicFeed drops every cached public feed page.
func InvalidatePublicFeed(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, publicFeedPattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if iter.Err() != nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateUserProfile drops the cached profile for username.
func InvalidateUserProfile(ctx context.Context, username string) {
	Invalidate(ctx, UserProfileKey(username))
}
