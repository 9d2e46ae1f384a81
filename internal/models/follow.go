package models

import "time"

// FollowEdge is a directed relationship: FollowerProfileID follows FollowingProfileID.
// The composite primary key is the uniqueness guarantee the follow graph relies on.
type FollowEdge struct {
	FollowerProfileID  string    `gorm:"primaryKey;type:varchar(36);check:chk_follow_not_self,follower_profile_id <> following_profile_id" json:"follower_profile_id"`
	FollowingProfileID string    `gorm:"primaryKey;type:varchar(36);index:idx_follow_edges_following" json:"following_profile_id"`
	Follower           *Profile  `gorm:"foreignKey:FollowerProfileID;constraint:OnDelete:CASCADE" json:"-"`
	Following          *Profile  `gorm:"foreignKey:FollowingProfileID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (FollowEdge) TableName() string {
	return "follow_edges"
}

// RelationUser is the compact user summary shown in follower/following lists.
type RelationUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Relations is the follower/following view of a single user.
type Relations struct {
	Username       string         `json:"username"`
	Avatar         string         `json:"avatar"`
	FollowerCount  int            `json:"follower_count"`
	FollowingCount int            `json:"following_count"`
	Follower       []RelationUser `json:"follower"`
	Following      []RelationUser `json:"following"`
}

// UserPair is an unordered pair of user IDs, normalised so A < B.
type UserPair struct {
	A string
	B string
}

// NewUserPair orders the two IDs lexicographically.
func NewUserPair(x, y string) UserPair {
	if y < x {
		x, y = y, x
	}
	return UserPair{A: x, B: y}
}
