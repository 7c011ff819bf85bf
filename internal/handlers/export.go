package handlers

import (
	"encoding/csv"
	"io"

	"github.com/gin-gonic/gin"

	"insurance-dms/internal/models"
	"insurance-dms/internal/validation"
)

var exportHeader = []string{
	"Policy No",
	"Claim Name",
	"Claim Type",
	"Policy Type",
	"Claim Amount",
	"Payment Date",
	"Voucher No",
	"Phone",
	"Email",
	"Fiscal Year",
	"Created At",
}

// ExportClaims отдаёт CSV по тем же фильтрам, что и список, без пагинации.
func (h *Handler) ExportClaims(c *gin.Context) {
	q := claimQuery(c)
	q.Page, q.PerPage = 1, 0

	page, err := h.Claims.List(c.Request.Context(), q)
	if err != nil {
		h.pageError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="insurance_claims.csv"`)
	if err := writeClaimsCSV(c.Writer, page.Claims); err != nil {
		h.Logger.ErrorContext(c.Request.Context(), "csv export failed", "error", err)
	}
}

func writeClaimsCSV(w io.Writer, claims []models.Claim) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, cl := range claims {
		var fy string
		if cl.FiscalYear != nil {
			fy = string(*cl.FiscalYear)
		}
		row := []string{
			cl.PolicyNo,
			cl.ClaimName,
			cl.ClaimType.Label(),
			cl.PolicyType.Label(),
			cl.ClaimAmount.StringFixed(2),
			cl.ClaimPaymentDate.Format(validation.DateLayout),
			cl.VoucherNo,
			cl.ClaimPhone,
			cl.ClaimEmail,
			fy,
			cl.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
