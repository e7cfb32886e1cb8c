package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"instaclone/backend/internal/monitoring"
	"instaclone/backend/internal/social"
	apperrors "instaclone/backend/pkg/errors"
)

type commentRequest struct {
	Text string `json:"text" form:"text"`
}

func (s *Server) addPost(c *gin.Context) {
	image, err := readUpload(c, "image")
	if err != nil {
		uploadFailed(c, err, "Could not read image")
		return
	}

	post, err := s.social.AddPost(c.Request.Context(), currentUser(c), c.PostForm("caption"), image)
	if err != nil {
		s.fail(c, err, nil)
		return
	}

	monitoring.PostsCreated.Inc()
	respond(c, http.StatusCreated, "New Posts Added", gin.H{"post": post})
}

func (s *Server) listPosts(c *gin.Context) {
	posts, err := s.social.ListPosts(c.Request.Context())
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"posts": posts})
}

func (s *Server) listUserPosts(c *gin.Context) {
	posts, err := s.social.ListUserPosts(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"posts": posts})
}

func (s *Server) likePost(c *gin.Context) {
	if err := s.social.LikePost(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.fail(c, err, statusOverrides{apperrors.ErrorTypeNotFound: http.StatusUnauthorized})
		return
	}
	respond(c, http.StatusOK, "Post Liked", nil)
}

func (s *Server) dislikePost(c *gin.Context) {
	if err := s.social.DislikePost(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.fail(c, err, statusOverrides{apperrors.ErrorTypeNotFound: http.StatusUnauthorized})
		return
	}
	respond(c, http.StatusOK, "Post Disliked", nil)
}

func (s *Server) addComment(c *gin.Context) {
	var req commentRequest
	if !bindBody(c, &req) {
		return
	}

	comment, err := s.social.AddComment(c.Request.Context(), c.Param("id"), currentUser(c), req.Text)
	if err != nil {
		s.fail(c, err, statusOverrides{apperrors.ErrorTypeValidation: http.StatusUnauthorized})
		return
	}
	respond(c, http.StatusOK, "Comment Added", gin.H{"comment": comment})
}

func (s *Server) listComments(c *gin.Context) {
	comments, err := s.social.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, statusOverrides{apperrors.ErrorTypeNotFound: http.StatusForbidden})
		return
	}
	respond(c, http.StatusOK, "", gin.H{"comments": comments})
}

func (s *Server) deletePost(c *gin.Context) {
	if err := s.social.DeletePost(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.fail(c, err, statusOverrides{apperrors.ErrorTypeUnauthorized: http.StatusForbidden})
		return
	}
	respond(c, http.StatusOK, "post deleted", nil)
}

func (s *Server) toggleBookmark(c *gin.Context) {
	state, err := s.social.ToggleBookmark(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, statusOverrides{apperrors.ErrorTypeNotFound: http.StatusForbidden})
		return
	}

	message := "Post Removed from Bookmarks"
	if state == social.BookmarkSaved {
		message = "Post Added to Bookmarks"
	}
	respond(c, http.StatusOK, message, gin.H{"type": string(state)})
}
