package repository

import "context"

type FollowRepository interface {
	IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error)
	Follow(ctx context.Context, followerID, followingID int64) error
	Unfollow(ctx context.Context, followerID, followingID int64) error
}
