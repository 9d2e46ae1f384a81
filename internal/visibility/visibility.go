// Package visibility decides which posts a viewer may read. The same rules are expressed
// twice, as a Go predicate for gates and as a GORM scope for queries, and the tests hold the
// two in agreement.
package visibility

import (
	"kinship/internal/models"

	"gorm.io/gorm"
)

// Anonymous is the viewer ID of an unauthenticated caller.
const Anonymous = ""

// Visible reports whether viewerID may read a post owned by ownerID. mutual must be the
// current mutual-follow state between viewer and owner; it is only consulted for
// FRIEND_ONLY posts.
func Visible(viewerID, ownerID string, level models.Visibility, mutual bool) bool {
	if level == models.VisibilityPublic {
		return true
	}
	if viewerID == Anonymous {
		return false
	}
	if viewerID == ownerID {
		return true
	}
	return level == models.VisibilityFriendOnly && mutual
}

// mutualWithOwner matches when the viewer (first bind) and the post owner follow each other.
// Edges are stored per profile, so both ends are joined back to their users.
const mutualWithOwner = `EXISTS (
	SELECT 1 FROM follow_edges fwd
	JOIN profiles vp ON vp.id = fwd.follower_profile_id
	JOIN profiles op ON op.id = fwd.following_profile_id
	JOIN follow_edges rev ON rev.follower_profile_id = fwd.following_profile_id
		AND rev.following_profile_id = fwd.follower_profile_id
	WHERE vp.user_id = ? AND op.user_id = posts.user_id
)`

// Scope restricts a query over the posts table to rows viewerID may read.
func Scope(viewerID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == Anonymous {
			return db.Where("posts.visibility = ?", models.VisibilityPublic)
		}
		return db.Where(
			"(posts.visibility = ? OR posts.user_id = ? OR (posts.visibility = ? AND "+mutualWithOwner+"))",
			models.VisibilityPublic, viewerID, models.VisibilityFriendOnly, viewerID,
		)
	}
}
