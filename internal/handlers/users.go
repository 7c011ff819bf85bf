package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"insurance-dms/internal/accounts"
	"insurance-dms/internal/middleware"
	"insurance-dms/internal/models"
	"insurance-dms/internal/validation"
)

func (h *Handler) ListUsers(c *gin.Context) {
	q := models.UserQuery{Search: c.Query("q")}
	if v := c.Query("is_staff"); v != "" {
		staff := v == "true"
		q.IsStaff = &staff
	}
	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		q.IsActive = &active
	}

	users, err := h.Accounts.List(c.Request.Context(), q)
	if err != nil {
		h.pageError(c, err)
		return
	}
	render(c, http.StatusOK, "users_list.html", gin.H{
		"users": users,
		"query": q,
	})
}

func (h *Handler) ShowNewUser(c *gin.Context) {
	render(c, http.StatusOK, "users_new.html", gin.H{
		"form":   accounts.CreateUserInput{Flags: accounts.Flags{IsActive: true, IsStaff: true}},
		"errors": map[string][]string{},
	})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var in accounts.CreateUserInput
	if err := c.ShouldBind(&in); err != nil {
		render(c, http.StatusBadRequest, "users_new.html", gin.H{
			"form":   in,
			"errors": map[string][]string{"form": {"Invalid form data."}},
		})
		return
	}

	actor := middleware.Actor(c)
	_, err := h.Accounts.CreateUser(c.Request.Context(), &actor, in)
	if msgs, ok := formErrors(err); ok {
		in.Password = ""
		render(c, statusFor(err), "users_new.html", gin.H{
			"form":   in,
			"errors": msgs,
		})
		return
	}
	if err != nil {
		h.pageError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/users")
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.Accounts.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		h.pageError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/users")
}

//
// РЕДАКТИРОВАНИЕ
//

// ShowEditUser открывает профиль на редактирование: суперпользователю любой,
// остальным только свой.
func (h *Handler) ShowEditUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid user id")
		return
	}
	actor := middleware.Actor(c)
	if !actor.IsSuperuser && actor.UserID != id {
		h.pageError(c, models.ErrPermissionDenied)
		return
	}

	u, err := h.Accounts.Get(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	render(c, http.StatusOK, "users_edit.html", gin.H{
		"user":   u,
		"form":   editForm(u),
		"errors": map[string][]string{},
	})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid user id")
		return
	}
	ctx := c.Request.Context()

	var in accounts.UpdateUserInput
	if err := c.ShouldBind(&in); err != nil {
		c.String(http.StatusBadRequest, "invalid form data")
		return
	}

	_, err := h.Accounts.UpdateUser(ctx, middleware.Actor(c), id, in)
	if err == nil {
		c.Redirect(http.StatusFound, "/users")
		return
	}
	h.editUserError(c, id, in, err)
}

// ChangePassword задаёт новый пароль со страницы профиля.
func (h *Handler) ChangePassword(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid user id")
		return
	}
	ctx := c.Request.Context()

	err := h.Accounts.SetPassword(ctx, middleware.Actor(c), id, c.PostForm("password"))
	if err == nil {
		c.Redirect(http.StatusFound, "/users/"+c.Param("id")+"/edit")
		return
	}

	u, gerr := h.Accounts.Get(ctx, id)
	if gerr != nil {
		h.pageError(c, gerr)
		return
	}
	h.editUserError(c, id, editForm(u), err)
}

// editUserError перерисовывает форму с ошибками валидации; прочие ошибки
// уходят в pageError.
func (h *Handler) editUserError(c *gin.Context, id uint, form accounts.UpdateUserInput, err error) {
	msgs, ok := formErrors(err)
	if !ok {
		h.pageError(c, err)
		return
	}
	u, gerr := h.Accounts.Get(c.Request.Context(), id)
	if gerr != nil {
		h.pageError(c, gerr)
		return
	}
	render(c, statusFor(err), "users_edit.html", gin.H{
		"user":   u,
		"form":   form,
		"errors": msgs,
	})
}

// formErrors переводит ошибку в сообщения формы пользователя. Неверные
// флаги показываются у поля is_superuser.
func formErrors(err error) (map[string][]string, bool) {
	if ve, ok := validation.As(err); ok {
		return ve.Messages(), true
	}
	if errors.Is(err, models.ErrInvalidSuperuserFlags) {
		return map[string][]string{"is_superuser": {"A superuser must also be staff."}}, true
	}
	return nil, false
}

func editForm(u *models.User) accounts.UpdateUserInput {
	in := accounts.UpdateUserInput{
		UserForm: validation.UserForm{
			Email:    u.Email,
			Username: u.Username,
			FullName: u.FullName,
			Mobile:   u.Mobile,
		},
		Flags: accounts.Flags{
			IsActive:    u.IsActive,
			IsStaff:     u.IsStaff,
			IsSuperuser: u.IsSuperuser,
			IsGlobal:    u.IsGlobal,
			IsITDept:    u.IsITDept,
		},
	}
	if u.UserLevel != nil {
		in.UserLevel = string(*u.UserLevel)
	}
	return in
}
