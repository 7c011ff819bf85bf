package handlers

import (
	"github.com/gin-gonic/gin"

	"insurance-dms/internal/middleware"
)

// render оборачивает c.HTML и во все шаблоны прокидывает CurrentUser.
func render(c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if u := middleware.CurrentUser(c); u != nil {
		data["CurrentUser"] = u
		data["CurrentUsername"] = u.Username
		data["IsSuperuser"] = u.IsSuperuser
	}

	c.HTML(status, tmpl, data)
}
