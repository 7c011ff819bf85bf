package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"insurance-dms/internal/middleware"
	"insurance-dms/internal/models"
	"insurance-dms/internal/validation"
)

//
// СПИСОК / ПРОСМОТР
//

func (h *Handler) ListClaims(c *gin.Context) {
	ctx := c.Request.Context()
	q := claimQuery(c)

	page, err := h.Claims.List(ctx, q)
	if err != nil {
		h.pageError(c, err)
		return
	}
	summary, err := h.Claims.Summary(ctx, q)
	if err != nil {
		h.pageError(c, err)
		return
	}

	filters := c.Request.URL.Query()
	filters.Del("page")

	render(c, http.StatusOK, "claims_list.html", gin.H{
		"page":     page,
		"summary":  summary,
		"filters":  filters,
		"nextPage": page.Page + 1,
		"prevPage": page.Page - 1,
	})
}

func (h *Handler) ShowClaim(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid claim id")
		return
	}
	ctx := c.Request.Context()

	claim, err := h.Claims.Get(ctx, id)
	if err != nil {
		h.pageError(c, err)
		return
	}

	data := gin.H{"claim": claim}
	if claim.CreatedByID != nil {
		if creator, err := h.Accounts.Get(ctx, *claim.CreatedByID); err == nil {
			data["creator"] = creator
		}
	}
	if logs, err := h.Audit.ListAuditLogs(ctx, models.EntityClaim, claim.ID, 20); err == nil {
		data["logs"] = logs
	} else {
		h.Logger.WarnContext(ctx, "failed to load audit trail", "claim_id", claim.ID, "error", err)
	}

	render(c, http.StatusOK, "claims_detail.html", data)
}

//
// СОЗДАНИЕ / РЕДАКТИРОВАНИЕ
//

func (h *Handler) ShowNewClaim(c *gin.Context) {
	render(c, http.StatusOK, "claims_form.html", gin.H{
		"form":   validation.ClaimForm{},
		"errors": map[string][]string{},
		"isNew":  true,
	})
}

func (h *Handler) CreateClaim(c *gin.Context) {
	in, done, err := h.claimInput(c)
	defer done()
	if err == nil {
		var claim *models.Claim
		claim, err = h.Claims.Create(c.Request.Context(), middleware.Actor(c), in)
		if err == nil {
			c.Redirect(http.StatusFound, "/claims/"+strconv.FormatUint(uint64(claim.ID), 10))
			return
		}
	}

	if ve, ok := validation.As(err); ok {
		render(c, http.StatusUnprocessableEntity, "claims_form.html", gin.H{
			"form":   in.Form,
			"errors": ve.Messages(),
			"isNew":  true,
		})
		return
	}
	h.pageError(c, err)
}

func (h *Handler) ShowEditClaim(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid claim id")
		return
	}

	claim, err := h.Claims.Get(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	if claim.Lock {
		h.pageError(c, models.ErrRecordLocked)
		return
	}

	render(c, http.StatusOK, "claims_form.html", gin.H{
		"claim":  claim,
		"form":   validation.FormFromClaim(claim),
		"errors": map[string][]string{},
	})
}

func (h *Handler) UpdateClaim(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid claim id")
		return
	}

	in, done, err := h.claimInput(c)
	defer done()
	if err == nil {
		_, err = h.Claims.Update(c.Request.Context(), middleware.Actor(c), id, in)
		if err == nil {
			c.Redirect(http.StatusFound, "/claims/"+c.Param("id"))
			return
		}
	}

	if ve, ok := validation.As(err); ok {
		claim, gerr := h.Claims.Get(c.Request.Context(), id)
		if gerr != nil {
			h.pageError(c, gerr)
			return
		}
		render(c, http.StatusUnprocessableEntity, "claims_form.html", gin.H{
			"claim":  claim,
			"form":   in.Form,
			"errors": ve.Messages(),
		})
		return
	}
	h.pageError(c, err)
}

//
// БЛОКИРОВКА / УДАЛЕНИЕ
//

func (h *Handler) LockClaim(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid claim id")
		return
	}
	if err := h.Claims.Lock(c.Request.Context(), middleware.Actor(c), id); err != nil {
		h.pageError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/claims/"+c.Param("id"))
}

func (h *Handler) DeleteClaim(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid claim id")
		return
	}
	if err := h.Claims.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		h.pageError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/claims")
}

// ClaimDocument перенаправляет на временную ссылку на файл заявки.
// kind: document или voucher.
func (h *Handler) ClaimDocument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid claim id")
		return
	}
	url, err := h.Claims.DocumentURL(c.Request.Context(), id, c.Param("kind"))
	if err != nil {
		h.pageError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}
