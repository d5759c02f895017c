package handler

import (
	"net/http"

	"skbeauty-be/internal/user"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users user.Service
}

func NewAuthHandler(users user.Service) *AuthHandler {
	return &AuthHandler{users: users}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var params user.RegisterParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}
	if params.Username == "" || params.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required."})
		return
	}

	token, u, err := h.users.Register(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": u})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	token, u, err := h.users.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}

func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var body struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		FrontendURL string `json:"frontend_url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	target := body.Username
	if target == "" {
		target = body.Email
	}
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email is required."})
		return
	}

	if err := h.users.RequestPasswordReset(c.Request.Context(), target, body.FrontendURL); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "A password reset link has been sent to your email."})
}

func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var body struct {
		UID         string `json:"uid"`
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}
	if body.UID == "" || body.Token == "" || body.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid, token, and new_password are required."})
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), body.UID, body.Token, body.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully."})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var params user.UpdateProfileParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	u, err := h.users.UpdateProfile(c.Request.Context(), mustUserID(c), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
