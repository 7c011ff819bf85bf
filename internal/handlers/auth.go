package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"insurance-dms/internal/auth"
	"insurance-dms/internal/middleware"
	"insurance-dms/internal/models"
)

type loginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (h *Handler) ShowLogin(c *gin.Context) {
	render(c, http.StatusOK, "login.html", gin.H{"error": ""})
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "login.html", gin.H{"error": "Invalid form data"})
		return
	}

	user, err := h.Accounts.Authenticate(c.Request.Context(), form.Email, form.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		render(c, http.StatusBadRequest, "login.html", gin.H{"error": "Invalid email or password", "email": form.Email})
		return
	}
	if err != nil {
		h.pageError(c, err)
		return
	}
	// в админку пускаем только сотрудников
	if !user.IsStaff && !user.IsSuperuser {
		render(c, http.StatusForbidden, "login.html", gin.H{"error": "Your account has no access to the admin area"})
		return
	}

	sess := sessions.Default(c)
	sess.Set(middleware.SessionUserID, user.ID)
	_ = sess.Save()

	c.Redirect(http.StatusFound, "/claims")
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.Redirect(http.StatusFound, "/login")
}

// IssueToken выдаёт JWT для API по email и паролю.
func (h *Handler) IssueToken(c *gin.Context) {
	if !h.Auth.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "token auth is disabled"})
		return
	}

	var form loginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.Accounts.Authenticate(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	tok, err := auth.GenerateAccessToken(h.Auth, user.ID, user.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": tok,
		"token_type":   "Bearer",
		"expires_in":   int(h.Auth.TokenTTL.Seconds()),
	})
}
