package service

import (
	"context"
	"strings"

	"kinship/internal/models"
	"kinship/internal/repository"
	"kinship/internal/visibility"
)

// Pagination defaults for post listings.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PostPage is one page of visible posts.
type PostPage struct {
	Posts []*models.Post `json:"posts"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int64          `json:"total"`
}

// CreatePostInput carries the fields of a new post.
type CreatePostInput struct {
	Content    string
	Visibility models.Visibility
}

// UpdatePostInput carries optional changes to a post.
type UpdatePostInput struct {
	Content    *string
	Visibility *models.Visibility
}

// PostService serves posts, likes and comments under the visibility rules.
type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
}

// NewPostService returns a new PostService.
func NewPostService(posts repository.PostRepository, comments repository.CommentRepository, follows repository.FollowRepository) *PostService {
	return &PostService{posts: posts, comments: comments, follows: follows}
}

// List returns the page of posts viewerID may read, most recently updated first.
func (s *PostService) List(ctx context.Context, viewerID string, page, limit int) (*PostPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	posts, total, err := s.posts.ListVisible(ctx, viewerID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return &PostPage{Posts: posts, Page: page, Limit: limit, Total: total}, nil
}

// Get fetches one post through the same visibility filter as List.
func (s *PostService) Get(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	return s.posts.GetVisible(ctx, postID, viewerID)
}

// Comments lists a post's comments; they are visible exactly when the post is.
func (s *PostService) Comments(ctx context.Context, postID, viewerID string) ([]*models.Comment, error) {
	if _, err := s.posts.GetVisible(ctx, postID, viewerID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

// Create publishes a post owned by userID.
func (s *PostService) Create(ctx context.Context, userID string, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	level := in.Visibility
	if level == "" {
		level = models.VisibilityPublic
	}
	if !level.Valid() {
		return nil, models.NewValidationError("Invalid visibility")
	}
	post := &models.Post{UserID: userID, Content: content, Visibility: level}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update edits a post owned by userID.
func (s *PostService) Update(ctx context.Context, userID, postID string, in UpdatePostInput) (*models.Post, error) {
	post, err := s.ownedPost(ctx, userID, postID, "update")
	if err != nil {
		return nil, err
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, models.NewValidationError("Content cannot be empty")
		}
		post.Content = content
	}
	if in.Visibility != nil {
		if !in.Visibility.Valid() {
			return nil, models.NewValidationError("Invalid visibility")
		}
		post.Visibility = *in.Visibility
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetVisible(ctx, post.ID, userID)
}

// Delete removes a post owned by userID together with its likes and comments.
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	if _, err := s.ownedPost(ctx, userID, postID, "delete"); err != nil {
		return err
	}
	return s.posts.Delete(ctx, postID)
}

// Like records userID's like on a post they can see.
func (s *PostService) Like(ctx context.Context, userID, postID string) error {
	if _, err := s.visiblePost(ctx, userID, postID); err != nil {
		return err
	}
	return s.posts.Like(ctx, userID, postID)
}

// Unlike removes userID's like; unliking a post that was not liked is a VALIDATION_ERROR.
func (s *PostService) Unlike(ctx context.Context, userID, postID string) error {
	if _, err := s.visiblePost(ctx, userID, postID); err != nil {
		return err
	}
	removed, err := s.posts.Unlike(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewValidationError("You have not liked this post")
	}
	return nil
}

// AddComment attaches a comment to a post userID can see.
func (s *PostService) AddComment(ctx context.Context, userID, postID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if _, err := s.visiblePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	comment := &models.Comment{PostID: postID, UserID: userID, Content: content}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// visiblePost loads a post and applies the visibility predicate to it, so hidden posts are
// reported as NOT_FOUND exactly like missing ones.
func (s *PostService) visiblePost(ctx context.Context, viewerID, postID string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	mutual := false
	if post.Visibility == models.VisibilityFriendOnly && viewerID != post.UserID && viewerID != visibility.Anonymous {
		if mutual, err = s.follows.IsMutual(ctx, viewerID, post.UserID); err != nil {
			return nil, err
		}
	}
	if !visibility.Visible(viewerID, post.UserID, post.Visibility, mutual) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

func (s *PostService) ownedPost(ctx context.Context, userID, postID, action string) (*models.Post, error) {
	post, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewForbiddenError("You can only " + action + " your own posts")
	}
	return post, nil
}
