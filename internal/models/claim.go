package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ClaimType string
type PolicyType string

const (
	ClaimSurrender         ClaimType = "surrender"
	ClaimMaturity          ClaimType = "maturity"
	ClaimDeath             ClaimType = "death"
	ClaimForeignEmployment ClaimType = "foreign_employment"
	ClaimLoan              ClaimType = "loan"

	PolicyIndividual        PolicyType = "individual"
	PolicyTerm              PolicyType = "term"
	PolicyGroup             PolicyType = "group"
	PolicyGroupTransfer     PolicyType = "group_transfer"
	PolicyRastraSewak       PolicyType = "rastra_sewak"
	PolicyForeignEmployment PolicyType = "foreign_employment"
	PolicyLoan              PolicyType = "loan"
)

var ClaimTypes = []ClaimType{
	ClaimSurrender,
	ClaimMaturity,
	ClaimDeath,
	ClaimForeignEmployment,
	ClaimLoan,
}

var PolicyTypes = []PolicyType{
	PolicyIndividual,
	PolicyTerm,
	PolicyGroup,
	PolicyGroupTransfer,
	PolicyRastraSewak,
	PolicyForeignEmployment,
	PolicyLoan,
}

var claimTypeLabels = map[ClaimType]string{
	ClaimSurrender:         "Surrender",
	ClaimMaturity:          "Maturity",
	ClaimDeath:             "Death Claim",
	ClaimForeignEmployment: "Foreign Employment Claim",
	ClaimLoan:              "Loan",
}

var policyTypeLabels = map[PolicyType]string{
	PolicyIndividual:        "Individual Policy",
	PolicyTerm:              "Term Policy",
	PolicyGroup:             "Group Policy",
	PolicyGroupTransfer:     "Group Transfer Policy",
	PolicyRastraSewak:       "Rastra Sewak Transfer Policy",
	PolicyForeignEmployment: "Foreign Employment Policy",
	PolicyLoan:              "Loan",
}

func ParseClaimType(s string) (ClaimType, bool) {
	t := ClaimType(s)
	_, ok := claimTypeLabels[t]
	return t, ok
}

func (t ClaimType) Label() string { return claimTypeLabels[t] }

func (t ClaimType) Valid() bool {
	_, ok := claimTypeLabels[t]
	return ok
}

func ParsePolicyType(s string) (PolicyType, bool) {
	t := PolicyType(s)
	_, ok := policyTypeLabels[t]
	return t, ok
}

func (t PolicyType) Label() string { return policyTypeLabels[t] }

func (t PolicyType) Valid() bool {
	_, ok := policyTypeLabels[t]
	return ok
}

// FiscalYear: непальский финансовый год, например "2080/81".
type FiscalYear string

const (
	firstFiscalYear = 2070
	lastFiscalYear  = 2090
)

// FiscalYears: с 2070/71 по 2090/91.
var FiscalYears = func() []FiscalYear {
	out := make([]FiscalYear, 0, lastFiscalYear-firstFiscalYear+1)
	for y := firstFiscalYear; y <= lastFiscalYear; y++ {
		out = append(out, FiscalYear(fmt.Sprintf("%d/%02d", y, (y+1)%100)))
	}
	return out
}()

func ParseFiscalYear(s string) (FiscalYear, bool) {
	fy := FiscalYear(s)
	if !fy.Valid() {
		return "", false
	}
	return fy, true
}

func (fy FiscalYear) Valid() bool {
	for _, v := range FiscalYears {
		if v == fy {
			return true
		}
	}
	return false
}

// ClaimFields: редактируемая часть заявки, результат проверки формы.
type ClaimFields struct {
	PolicyNo         string          `gorm:"size:50;not null;index:idx_claims_policy_type,priority:1" json:"policy_no"`
	ClaimType        ClaimType       `gorm:"type:varchar(20);not null;index:idx_claims_policy_type,priority:2" json:"claim_type"`
	PolicyType       PolicyType      `gorm:"type:varchar(20);not null" json:"policy_type"`
	ClaimName        string          `gorm:"size:200;not null" json:"claim_name"`
	ClaimPhone       string          `gorm:"size:20" json:"claim_phone"`
	ClaimEmail       string          `gorm:"size:254" json:"claim_email"`
	ClaimAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"claim_amount"`
	ClaimPaymentDate time.Time       `gorm:"type:date;not null;index:idx_claims_payment_date" json:"claim_payment_date"`
	VoucherNo        string          `gorm:"size:50;not null" json:"voucher_no"`
	Remarks          *string         `gorm:"type:text" json:"remarks"`
	FiscalYear       *FiscalYear     `gorm:"type:varchar(10)" json:"fiscal_year"`
}

// Claim: страховая заявка или запись по займу.
type Claim struct {
	ID uint `gorm:"primaryKey" json:"id"`
	ClaimFields

	ClaimDocument  string `gorm:"size:255;not null" json:"claim_document"`
	PaymentVoucher string `gorm:"size:255;not null" json:"payment_voucher"`

	Lock bool `gorm:"not null;default:false" json:"lock"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// CreatedByID обнуляется при удалении пользователя.
	CreatedByID *uint `gorm:"index" json:"created_by_id"`
}

func (Claim) TableName() string { return "insurance_claims" }

func (c Claim) String() string {
	return fmt.Sprintf("%s - %s - %s", c.PolicyNo, c.ClaimName, c.ClaimType.Label())
}

// ClaimQuery: фильтры списка заявок. Нулевое значение = без фильтра.
type ClaimQuery struct {
	ClaimType   ClaimType
	PolicyType  PolicyType
	FiscalYear  FiscalYear
	PaidFrom    *time.Time
	PaidTo      *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Search      string

	Page    int
	PerPage int // 0 returns every match
}

const DefaultPerPage = 50

type ClaimPage struct {
	Claims  []Claim
	Total   int64
	Page    int
	PerPage int
}

func (p ClaimPage) HasNext() bool {
	return p.PerPage > 0 && int64(p.Page*p.PerPage) < p.Total
}

type ClaimSummary struct {
	TotalClaims int64
	TotalAmount decimal.Decimal
}
