package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"insurance-dms/internal/models"
)

const DateLayout = "2006-01-02"

// AllowedExtensions: допустимые расширения документа заявки и платёжного
// поручения.
var AllowedExtensions = []string{"pdf", "jpg", "jpeg", "png"}

// суммы хранятся как numeric(12,2)
var maxAmount = decimal.New(1, 10)

// ClaimForm содержит поля заявки как есть. В ClaimDocument и PaymentVoucher
// лежат имена загруженных файлов, пусто если файла нет.
type ClaimForm struct {
	PolicyNo         string `json:"policy_no" form:"policy_no"`
	ClaimType        string `json:"claim_type" form:"claim_type"`
	PolicyType       string `json:"policy_type" form:"policy_type"`
	ClaimName        string `json:"claim_name" form:"claim_name"`
	ClaimPhone       string `json:"claim_phone" form:"claim_phone"`
	ClaimEmail       string `json:"claim_email" form:"claim_email"`
	ClaimAmount      string `json:"claim_amount" form:"claim_amount"`
	ClaimPaymentDate string `json:"claim_payment_date" form:"claim_payment_date"`
	VoucherNo        string `json:"voucher_no" form:"voucher_no"`
	Remarks          string `json:"remarks" form:"remarks"`
	FiscalYear       string `json:"fiscal_year" form:"fiscal_year"`

	ClaimDocument  string `json:"-" form:"-"`
	PaymentVoucher string `json:"-" form:"-"`
}

// FormFromClaim заполняет форму из сохранённой заявки для страницы редактирования.
func FormFromClaim(c *models.Claim) ClaimForm {
	f := ClaimForm{
		PolicyNo:         c.PolicyNo,
		ClaimType:        string(c.ClaimType),
		PolicyType:       string(c.PolicyType),
		ClaimName:        c.ClaimName,
		ClaimPhone:       c.ClaimPhone,
		ClaimEmail:       c.ClaimEmail,
		ClaimAmount:      c.ClaimAmount.StringFixed(2),
		ClaimPaymentDate: c.ClaimPaymentDate.Format(DateLayout),
		VoucherNo:        c.VoucherNo,
	}
	if c.Remarks != nil {
		f.Remarks = *c.Remarks
	}
	if c.FiscalYear != nil {
		f.FiscalYear = string(*c.FiscalYear)
	}
	return f
}

func (f *ClaimForm) Normalize() {
	f.PolicyNo = strings.TrimSpace(f.PolicyNo)
	f.ClaimType = strings.TrimSpace(f.ClaimType)
	f.PolicyType = strings.TrimSpace(f.PolicyType)
	f.ClaimName = CollapseSpaces(f.ClaimName)
	f.ClaimPhone = strings.TrimSpace(f.ClaimPhone)
	f.ClaimEmail = NormalizeEmail(f.ClaimEmail)
	f.ClaimAmount = strings.ReplaceAll(strings.TrimSpace(f.ClaimAmount), ",", "")
	f.ClaimPaymentDate = strings.TrimSpace(f.ClaimPaymentDate)
	f.VoucherNo = strings.TrimSpace(f.VoucherNo)
	f.Remarks = strings.TrimSpace(f.Remarks)
	f.FiscalYear = strings.TrimSpace(f.FiscalYear)
	f.ClaimDocument = strings.TrimSpace(f.ClaimDocument)
	f.PaymentVoucher = strings.TrimSpace(f.PaymentVoucher)
}

// Clean нормализует форму и превращает её в поля заявки. С requireFiles оба
// файла обязательны; у присланных файлов всегда проверяется расширение.
func (f *ClaimForm) Clean(requireFiles bool) (models.ClaimFields, error) {
	f.Normalize()

	var out models.ClaimFields
	errs := Errors{}

	out.PolicyNo = requiredText(errs, "policy_no", f.PolicyNo, 50)
	out.ClaimName = requiredText(errs, "claim_name", f.ClaimName, 200)
	out.VoucherNo = requiredText(errs, "voucher_no", f.VoucherNo, 50)
	out.ClaimPhone = optionalText(errs, "claim_phone", f.ClaimPhone, 20)

	checkEmail(errs, "claim_email", f.ClaimEmail, false)
	out.ClaimEmail = f.ClaimEmail

	switch ct, ok := models.ParseClaimType(f.ClaimType); {
	case f.ClaimType == "":
		errs.Add("claim_type", Required, "This field is required.")
	case !ok:
		errs.Add("claim_type", InvalidChoice, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", f.ClaimType))
	default:
		out.ClaimType = ct
	}

	switch pt, ok := models.ParsePolicyType(f.PolicyType); {
	case f.PolicyType == "":
		errs.Add("policy_type", Required, "This field is required.")
	case !ok:
		errs.Add("policy_type", InvalidChoice, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", f.PolicyType))
	default:
		out.PolicyType = pt
	}

	if f.FiscalYear != "" {
		if fy, ok := models.ParseFiscalYear(f.FiscalYear); ok {
			out.FiscalYear = &fy
		} else {
			errs.Add("fiscal_year", InvalidChoice, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", f.FiscalYear))
		}
	}

	if amount, ok := parseAmount(errs, f.ClaimAmount); ok {
		out.ClaimAmount = amount
	}

	if f.ClaimPaymentDate == "" {
		errs.Add("claim_payment_date", Required, "This field is required.")
	} else if d, err := time.Parse(DateLayout, f.ClaimPaymentDate); err != nil {
		errs.Add("claim_payment_date", InvalidDate, "Enter a valid date (YYYY-MM-DD).")
	} else {
		out.ClaimPaymentDate = d
	}

	if f.Remarks != "" {
		r := f.Remarks
		out.Remarks = &r
	}

	CheckAttachment(errs, "claim_document", f.ClaimDocument, requireFiles)
	CheckAttachment(errs, "payment_voucher", f.PaymentVoucher, requireFiles)

	if err := errs.Err(); err != nil {
		return models.ClaimFields{}, err
	}
	return out, nil
}

func parseAmount(errs Errors, raw string) (decimal.Decimal, bool) {
	if raw == "" {
		errs.Add("claim_amount", Required, "This field is required.")
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		errs.Add("claim_amount", InvalidAmount, "Enter a number.")
		return decimal.Decimal{}, false
	}
	ok := true
	if !d.Equal(d.Round(2)) {
		errs.Add("claim_amount", InvalidAmount, "Ensure that there are no more than 2 decimal places.")
		ok = false
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		errs.Add("claim_amount", InvalidAmount, "Ensure that there are no more than 10 digits before the decimal point.")
		ok = false
	}
	return d.Round(2), ok
}

// CheckAttachment добавляет ошибку к полю, если файла нет (а он обязателен)
// или расширение не разрешено.
func CheckAttachment(errs Errors, field, filename string, required bool) {
	if filename == "" {
		if required {
			errs.Add(field, Required, "This field is required.")
		}
		return
	}
	ext := FileExtension(filename)
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return
		}
	}
	errs.Add(field, UnsupportedFileType, fmt.Sprintf(
		"File extension %q is not allowed. Allowed extensions are: %s.",
		ext, strings.Join(AllowedExtensions, ", ")))
}

// FileExtension возвращает расширение name в нижнем регистре, без точки.
func FileExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func requiredText(errs Errors, field, value string, max int) string {
	if value == "" {
		errs.Add(field, Required, "This field is required.")
		return ""
	}
	return optionalText(errs, field, value, max)
}

func optionalText(errs Errors, field, value string, max int) string {
	if n := utf8.RuneCountInString(value); n > max {
		errs.Add(field, TooLong, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", max, n))
	}
	return value
}
