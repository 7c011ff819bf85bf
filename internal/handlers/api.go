package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insurance-dms/internal/accounts"
	"insurance-dms/internal/middleware"
	"insurance-dms/internal/models"
)

type claimListResponse struct {
	Claims      []models.Claim `json:"claims"`
	Total       int64          `json:"total"`
	Page        int            `json:"page"`
	PerPage     int            `json:"per_page"`
	HasNext     bool           `json:"has_next"`
	TotalAmount string         `json:"total_amount"`
}

func (h *Handler) APIListClaims(c *gin.Context) {
	ctx := c.Request.Context()
	q := claimQuery(c)

	page, err := h.Claims.List(ctx, q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	summary, err := h.Claims.Summary(ctx, q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	claims := page.Claims
	if claims == nil {
		claims = []models.Claim{}
	}
	c.JSON(http.StatusOK, claimListResponse{
		Claims:      claims,
		Total:       page.Total,
		Page:        page.Page,
		PerPage:     page.PerPage,
		HasNext:     page.HasNext(),
		TotalAmount: summary.TotalAmount.StringFixed(2),
	})
}

func (h *Handler) APIGetClaim(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}
	claim, err := h.Claims.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *Handler) APICreateClaim(c *gin.Context) {
	in, done, err := h.claimInput(c)
	defer done()
	if err != nil {
		h.respondError(c, err)
		return
	}
	claim, err := h.Claims.Create(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, claim)
}

func (h *Handler) APIUpdateClaim(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}
	in, done, err := h.claimInput(c)
	defer done()
	if err != nil {
		h.respondError(c, err)
		return
	}
	claim, err := h.Claims.Update(c.Request.Context(), middleware.Actor(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *Handler) APILockClaim(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}
	if err := h.Claims.Lock(c.Request.Context(), middleware.Actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "lock": true})
}

func (h *Handler) APIDeleteClaim(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}
	if err := h.Claims.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) APICreateUser(c *gin.Context) {
	var in accounts.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	actor := middleware.Actor(c)
	u, err := h.Accounts.CreateUser(c.Request.Context(), &actor, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) APIUpdateUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var in accounts.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	u, err := h.Accounts.UpdateUser(c.Request.Context(), middleware.Actor(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) APISetPassword(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.Accounts.SetPassword(c.Request.Context(), middleware.Actor(c), id, req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
