package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insurance-dms/internal/models"
)

const auditPageSize = 200

type auditRow struct {
	models.AuditLog
	Username string
}

// ListAuditLogs показывает последние записи журнала аудита.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	ctx := c.Request.Context()
	logs, err := h.Audit.ListAuditLogs(ctx, "", 0, auditPageSize)
	if err != nil {
		h.pageError(c, err)
		return
	}

	// подставляем имена пользователей
	names := map[uint]string{}
	rows := make([]auditRow, 0, len(logs))
	for _, l := range logs {
		row := auditRow{AuditLog: l, Username: "system"}
		if l.UserID != nil {
			name, seen := names[*l.UserID]
			if !seen {
				name = "deleted user"
				if u, err := h.Accounts.Get(ctx, *l.UserID); err == nil {
					name = u.Username
				}
				names[*l.UserID] = name
			}
			row.Username = name
		}
		rows = append(rows, row)
	}

	render(c, http.StatusOK, "audit_list.html", gin.H{"logs": rows})
}
