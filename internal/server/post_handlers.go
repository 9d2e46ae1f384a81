package server

import (
	"kinship/internal/models"
	"kinship/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Content    string `json:"content" validate:"required,max=5000"`
	Visibility string `json:"visibility" validate:"omitempty,visibility"`
}

type updatePostRequest struct {
	Content    *string `json:"content" validate:"omitempty,min=1,max=5000"`
	Visibility *string `json:"visibility" validate:"omitempty,visibility"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// GetPosts handles GET /api/v1/post?page&limit
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c)
	page, err := s.postService.List(c.UserContext(), currentUserID(c), p.Page, p.Limit)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Posts fetched successfully", page)
}

// GetPost handles GET /api/v1/post/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	post, err := s.postService.Get(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Post fetched successfully", post)
}

// GetComments handles GET /api/v1/post/:id/comment
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	comments, err := s.postService.Comments(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Comments fetched successfully", comments)
}

// CreatePost handles POST /api/v1/post
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := bindJSON(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	post, err := s.postService.Create(c.UserContext(), currentUserID(c), service.CreatePostInput{
		Content:    req.Content,
		Visibility: models.Visibility(req.Visibility),
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Post created successfully", post)
}

// UpdatePost handles PUT /api/v1/post/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req updatePostRequest
	if err := bindJSON(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	in := service.UpdatePostInput{Content: req.Content}
	if req.Visibility != nil {
		level := models.Visibility(*req.Visibility)
		in.Visibility = &level
	}
	post, err := s.postService.Update(c.UserContext(), currentUserID(c), postID, in)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Post updated successfully", post)
}

// DeletePost handles DELETE /api/v1/post/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.postService.Delete(c.UserContext(), currentUserID(c), postID); err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Post deleted successfully", nil)
}

// LikePost handles POST /api/v1/post/like/:id
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.postService.Like(c.UserContext(), currentUserID(c), postID); err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Liked this post successfully", nil)
}

// UnlikePost handles POST /api/v1/post/unlike/:id
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.postService.Unlike(c.UserContext(), currentUserID(c), postID); err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Unliked this post successfully", nil)
}

// CreateComment handles POST /api/v1/post/:id/comment
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	comment, err := s.postService.AddComment(c.UserContext(), currentUserID(c), postID, req.Content)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Comment created successfully", comment)
}
