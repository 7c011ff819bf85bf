package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"insurance-dms/internal/claims"
	"insurance-dms/internal/models"
	"insurance-dms/internal/validation"
)

// claimInput собирает поля и файлы заявки из multipart-формы. Проблемы с
// файлами попадают в in.Rejected и проверяются сервисом вместе с полями.
// Возвращённый closer нужно вызвать после обработки.
func (h *Handler) claimInput(c *gin.Context) (claims.Input, func(), error) {
	var in claims.Input
	var closers []io.Closer
	closeAll := func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}

	if err := c.ShouldBind(&in.Form); err != nil {
		return in, closeAll, validation.FieldError("form", validation.Required, "Invalid form data.")
	}

	in.Rejected = validation.Errors{}
	for _, f := range []struct {
		field string
		dst   **claims.Upload
	}{
		{"claim_document", &in.Document},
		{"payment_voucher", &in.Voucher},
	} {
		fh, err := c.FormFile(f.field)
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			continue
		}
		if err != nil {
			in.Rejected.Add(f.field, validation.Required, "Could not read the uploaded file.")
			continue
		}
		if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
			in.Rejected.Add(f.field, validation.TooLong, fmt.Sprintf("File must be at most %d MB.", h.MaxUploadBytes>>20))
			continue
		}
		file, err := fh.Open()
		if err != nil {
			return in, closeAll, fmt.Errorf("open upload %s: %w", f.field, err)
		}
		closers = append(closers, file)
		*f.dst = &claims.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        file,
		}
	}
	return in, closeAll, nil
}

// claimQuery разбирает фильтры списка заявок из query string. Неверные
// значения фильтров игнорируются.
func claimQuery(c *gin.Context) models.ClaimQuery {
	q := models.ClaimQuery{
		Search:  c.Query("q"),
		PerPage: models.DefaultPerPage,
	}
	if ct, ok := models.ParseClaimType(c.Query("claim_type")); ok {
		q.ClaimType = ct
	}
	if pt, ok := models.ParsePolicyType(c.Query("policy_type")); ok {
		q.PolicyType = pt
	}
	if fy, ok := models.ParseFiscalYear(c.Query("fiscal_year")); ok {
		q.FiscalYear = fy
	}
	q.PaidFrom = queryDate(c, "paid_from")
	q.PaidTo = queryDate(c, "paid_to")
	q.CreatedFrom = queryDate(c, "created_from")
	if to := queryDate(c, "created_to"); to != nil {
		// включительно до конца дня
		end := to.Add(24*time.Hour - time.Nanosecond)
		q.CreatedTo = &end
	}
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		q.Page = p
	}
	if n, err := strconv.Atoi(c.Query("per_page")); err == nil && n > 0 && n <= 500 {
		q.PerPage = n
	}
	return q
}

func queryDate(c *gin.Context, key string) *time.Time {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(validation.DateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
