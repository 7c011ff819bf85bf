package handlers

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"insurance-dms/internal/claims"
	"insurance-dms/internal/models"
	"insurance-dms/internal/validation"
)

// FuncMap возвращает функции для шаблонов.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"eq":           func(a, b interface{}) bool { return a == b },
		"maskEmail":    maskEmail,
		"maskPhone":    maskPhone,
		"formatAmount": func(d decimal.Decimal) string { return claims.FormatAmount(d) },
		"formatDate":   formatDate,
		"formatTime":   func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"claimTypes":   func() []models.ClaimType { return models.ClaimTypes },
		"policyTypes":  func() []models.PolicyType { return models.PolicyTypes },
		"fiscalYears":  func() []models.FiscalYear { return models.FiscalYears },
		"designations": func() []models.Designation { return models.Designations },
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(validation.DateLayout)
}

// maskEmail оставляет два первых символа и домен: ja***@example.com.
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	r := []rune(local)
	if len(r) > 2 {
		r = r[:2]
	}
	return string(r) + "***@" + domain
}

// maskPhone оставляет две последние цифры.
func maskPhone(phone string) string {
	r := []rune(phone)
	if len(r) <= 4 {
		return "***"
	}
	return strings.Repeat("*", len(r)-2) + string(r[len(r)-2:])
}
