package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/application"
	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/pkg/helpers"
	"github.com/oksasatya/linkcircle/pkg/response"
)

type UserHandler struct {
	Svc    *application.ProfileService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.ProfileService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Username     string `json:"username" binding:"required,username"`
	Name         string `json:"name" binding:"omitempty,max=100"`
	ProfileImage string `json:"profileImage" binding:"omitempty,max=2048"`
}

type updateProfileRequest struct {
	Name     *string           `json:"name" binding:"omitempty,max=100"`
	Bio      *string           `json:"bio" binding:"omitempty,max=2000"`
	Headline *string           `json:"headline" binding:"omitempty,max=160"`
	Username *string           `json:"username" binding:"omitempty,username"`
	Socials  map[string]string `json:"socials" binding:"omitempty,max=20,dive,keys,max=32,endkeys,omitempty,linkurl"`
}

type linkRequest struct {
	ID    string `json:"id"`
	Title string `json:"title" binding:"required,max=100"`
	URL   string `json:"url" binding:"required,linkurl"`
	Icon  string `json:"icon" binding:"omitempty,max=64"`
}

type saveLinksRequest struct {
	Links []linkRequest `json:"links" binding:"max=100,dive"`
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUsers(users), "users", map[string]any{"count": len(users)})
}

func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	users, err := h.Svc.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUsers(users), "search results", map[string]any{"count": len(users)})
}

func (h *UserHandler) GetByEmail(c *gin.Context) {
	u, err := h.Svc.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUser(u), "user", nil)
}

// GetByUsername serves the public profile page data. The path segment is a
// username with or without its "@". Responses carry an ETag and honour
// If-None-Match.
func (h *UserHandler) GetByUsername(c *gin.Context) {
	u, err := h.Svc.GetByUsername(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	body := toUser(u)
	if tag, err := helpers.ETag(body); err == nil {
		c.Header("ETag", tag)
		c.Header("Cache-Control", "no-cache")
		if helpers.ETagMatches(c.GetHeader("If-None-Match"), tag) {
			c.Status(http.StatusNotModified)
			return
		}
	}
	response.Success(c, http.StatusOK, body, "user", nil)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.CreateUser(c.Request.Context(), application.CreateUserInput{
		Email:        req.Email,
		Username:     req.Username,
		Name:         req.Name,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toUser(u), "user created", nil)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.Param("id"), application.UpdateProfileInput{
		Name:     req.Name,
		Bio:      req.Bio,
		Headline: req.Headline,
		Username: req.Username,
		Socials:  entity.Socials(req.Socials),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUser(u), "profile updated", nil)
}

func (h *UserHandler) AddLink(c *gin.Context) {
	var req linkRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.AddLink(c.Request.Context(), c.Param("id"), application.LinkInput{Title: req.Title, URL: req.URL, Icon: req.Icon})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, u.Links, "link added", nil)
}

func (h *UserHandler) RemoveLink(c *gin.Context) {
	u, err := h.Svc.RemoveLink(c.Request.Context(), c.Param("id"), c.Param("linkId"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u.Links, "link removed", nil)
}

func (h *UserHandler) SaveLinks(c *gin.Context) {
	var req saveLinksRequest
	if !bindJSON(c, &req) {
		return
	}
	in := make([]application.LinkInputWithID, 0, len(req.Links))
	for _, l := range req.Links {
		in = append(in, application.LinkInputWithID{
			ID:        l.ID,
			LinkInput: application.LinkInput{Title: l.Title, URL: l.URL, Icon: l.Icon},
		})
	}
	u, err := h.Svc.ReplaceLinks(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u.Links, "links saved", nil)
}

// UploadProfileImage accepts a multipart form with the file in "image".
func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "image file is required", response.ErrorBody{Code: "MISSING_FIELD", Field: "image"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	u, err := h.Svc.UploadProfileImage(c.Request.Context(), c.Param("id"), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUser(u), "profile image updated", nil)
}
