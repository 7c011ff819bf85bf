package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClaimType(t *testing.T) {
	ct, ok := ParseClaimType("death")
	assert.True(t, ok)
	assert.Equal(t, ClaimDeath, ct)
	assert.Equal(t, "Death Claim", ct.Label())

	_, ok = ParseClaimType("Loan")
	assert.False(t, ok)
	assert.True(t, ClaimLoan.Valid())
	assert.False(t, ClaimType("fire").Valid())
}

func TestParsePolicyType(t *testing.T) {
	pt, ok := ParsePolicyType("rastra_sewak")
	assert.True(t, ok)
	assert.Equal(t, "Rastra Sewak Transfer Policy", pt.Label())

	_, ok = ParsePolicyType("")
	assert.False(t, ok)
}

func TestFiscalYears(t *testing.T) {
	assert.Equal(t, FiscalYear("2070/71"), FiscalYears[0])
	assert.Equal(t, FiscalYear("2090/91"), FiscalYears[len(FiscalYears)-1])
	assert.Len(t, FiscalYears, 21)

	fy, ok := ParseFiscalYear("2080/81")
	assert.True(t, ok)
	assert.Equal(t, FiscalYear("2080/81"), fy)

	_, ok = ParseFiscalYear("2080/82")
	assert.False(t, ok)
}

func TestDesignation(t *testing.T) {
	d, ok := ParseDesignation("deputy_ceo")
	assert.True(t, ok)
	assert.Equal(t, "Deputy CEO", d.Label())
	assert.False(t, Designation("intern").Valid())
	assert.Len(t, Designations, len(designationLabels))
}

func TestActor(t *testing.T) {
	assert.False(t, ActorFor(nil).CanEdit())
	assert.False(t, ActorFor(&User{ID: 3}).CanEdit())
	assert.True(t, ActorFor(&User{ID: 3, IsStaff: true}).CanEdit())
	assert.True(t, Actor{UserID: 1, IsSuperuser: true}.CanEdit())
	assert.False(t, Actor{IsStaff: true}.CanEdit())
}

func TestClaimString(t *testing.T) {
	c := Claim{ClaimFields: ClaimFields{PolicyNo: "P-1", ClaimName: "Ram Bahadur", ClaimType: ClaimMaturity}}
	assert.Equal(t, "P-1 - Ram Bahadur - Maturity", c.String())
	assert.Equal(t, "insurance_claims", Claim{}.TableName())
}

func TestClaimPageHasNext(t *testing.T) {
	assert.True(t, ClaimPage{Total: 120, Page: 2, PerPage: 50}.HasNext())
	assert.False(t, ClaimPage{Total: 100, Page: 2, PerPage: 50}.HasNext())
	assert.False(t, ClaimPage{Total: 100, Page: 1, PerPage: 0}.HasNext())
}

func TestStorageError(t *testing.T) {
	inner := assert.AnError
	err := &StorageError{Op: "claim.create", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.True(t, IsStorageError(err))
	assert.False(t, IsStorageError(ErrNotFound))
	assert.Equal(t, "storage: claim.create: "+inner.Error(), err.Error())
}
