package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"instaclone/backend/internal/monitoring"
	"instaclone/backend/internal/social"
	apperrors "instaclone/backend/pkg/errors"
)

type registerRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Fullname string `json:"fullname" form:"fullname"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		abort(c, http.StatusUnauthorized, "Something is missing, Please Check!")
		return
	}

	_, err := s.social.Register(c.Request.Context(), social.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Fullname: req.Fullname,
	})
	if err != nil {
		s.fail(c, err, statusOverrides{
			apperrors.ErrorTypeValidation: http.StatusUnauthorized,
			apperrors.ErrorTypeConflict:   http.StatusUnauthorized,
		})
		return
	}

	monitoring.RegisterSuccess.Inc()
	respond(c, http.StatusOK, "Account Created Successfully", nil)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		abort(c, http.StatusUnauthorized, "Please Enter Your Email")
		return
	}

	profile, err := s.social.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		monitoring.LoginFailure.WithLabelValues(string(apperrors.TypeOf(err))).Inc()
		s.fail(c, err, statusOverrides{
			apperrors.ErrorTypeValidation: http.StatusUnauthorized,
			apperrors.ErrorTypeNotFound:   http.StatusUnauthorized,
		})
		return
	}

	token, err := s.tokens.Issue(profile.ID)
	if err != nil {
		s.fail(c, apperrors.NewUpstream("session issuer", err), nil)
		return
	}

	s.setSession(c, token, int(s.tokens.TTL().Seconds()))
	monitoring.LoginSuccess.Inc()
	respond(c, http.StatusOK, "Welcome "+profile.Fullname, gin.H{"user": profile})
}

func (s *Server) logout(c *gin.Context) {
	s.setSession(c, "", -1)
	respond(c, http.StatusOK, "Logged Out Succesfully", nil)
}

func (s *Server) setSession(c *gin.Context, token string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) getProfile(c *gin.Context) {
	profile, err := s.social.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"user": profile})
}

func (s *Server) editProfile(c *gin.Context) {
	var in social.EditProfileInput
	if bio := c.PostForm("bio"); bio != "" {
		in.Bio = &bio
	}
	if gender := c.PostForm("gender"); gender != "" {
		in.Gender = &gender
	}

	picture, err := readUpload(c, "profilePicture")
	if err != nil {
		uploadFailed(c, err, "Could not read profile picture")
		return
	}
	in.Picture = picture

	user, err := s.social.EditProfile(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.fail(c, err, statusOverrides{apperrors.ErrorTypeNotFound: http.StatusUnauthorized})
		return
	}
	respond(c, http.StatusOK, "Profile Updated", gin.H{"user": user})
}

func (s *Server) suggestedUsers(c *gin.Context) {
	users, err := s.social.SuggestedUsers(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"users": users})
}

func (s *Server) followOrUnfollow(c *gin.Context) {
	following, err := s.social.ToggleFollow(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, statusOverrides{apperrors.ErrorTypeNotFound: http.StatusUnauthorized})
		return
	}

	monitoring.RecordFollow(following)
	if following {
		respond(c, http.StatusOK, "Followed Successfully", nil)
		return
	}
	respond(c, http.StatusOK, "Unfollowed Successfully", nil)
}

// uploadFailed answers 413 when the body limit was hit and 400 otherwise
func uploadFailed(c *gin.Context, err error, message string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abort(c, http.StatusRequestEntityTooLarge, "Upload too large")
		return
	}
	abort(c, http.StatusBadRequest, message)
}

// readUpload returns the named multipart file, or nil when the field is absent
func readUpload(c *gin.Context, field string) (*social.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &social.Upload{Data: data, ContentType: header.Header.Get("Content-Type")}, nil
}
