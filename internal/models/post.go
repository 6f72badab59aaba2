package models

import (
	"time"
)

// Post is a shared screenshot. UserID holds the owner's username, not the numeric user id.
type Post struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	UserID      string   `gorm:"not null;index;size:30" json:"user_id"`
	User        *User    `gorm:"foreignKey:UserID;references:Username;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	ImageURL    string   `gorm:"not null" json:"image_url"`
	PublicID    *string  `json:"public_id"`
	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text;not null" json:"description"`
	Game        string   `gorm:"not null;default:''" json:"game"`
	Tags        []string `gorm:"serializer:json;type:text" json:"tags"`
	IsPublic    bool     `gorm:"not null;default:false;index" json:"is_public"`

	Likes    []Like    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Comments []Comment `gorm:"constraint:OnDelete:CASCADE" json:"comments"`

	// LikedBy lists the ids of users who liked the post; filled by the repository.
	LikedBy []uint `gorm:"-" json:"likes"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLikedBy reports whether userID appears in the post's like set.
func (p *Post) IsLikedBy(userID uint) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Like records a single user's like on a post. A user likes a post at most once.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string {
	return "post_likes"
}

// Comment is an append-only remark on a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Username  string    `gorm:"not null" json:"username"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string {
	return "post_comments"
}
