package claims_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insurance-dms/internal/claims"
	"insurance-dms/internal/metrics"
	"insurance-dms/internal/models"
	"insurance-dms/internal/testutil"
	"insurance-dms/internal/validation"
)

var (
	staff     = models.Actor{UserID: 10, IsStaff: true}
	superuser = models.Actor{UserID: 1, IsStaff: true, IsSuperuser: true}
	viewer    = models.Actor{UserID: 20}
)

type fixture struct {
	svc   *claims.Service
	store *testutil.Store
	blobs *testutil.Blobs
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := testutil.NewStore()
	blobs := testutil.NewBlobs()
	return fixture{
		svc:   claims.NewService(store, blobs, nil, metrics.New()),
		store: store,
		blobs: blobs,
	}
}

func validForm() validation.ClaimForm {
	return validation.ClaimForm{
		PolicyNo:         "POL-001",
		ClaimType:        "death",
		PolicyType:       "term",
		ClaimName:        "Ram  Bahadur",
		ClaimPhone:       "9800000000",
		ClaimEmail:       "Ram@Example.com",
		ClaimAmount:      "1,234.5",
		ClaimPaymentDate: "2024-03-15",
		VoucherNo:        "V-100",
		FiscalYear:       "2080/81",
	}
}

func upload(name string) *claims.Upload {
	body := "content of " + name
	return &claims.Upload{Filename: name, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func validInput() claims.Input {
	return claims.Input{Form: validForm(), Document: upload("claim.PDF"), Voucher: upload("voucher.jpg")}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, staff, validInput())
	require.NoError(t, err)

	require.NotNil(t, c.CreatedByID)
	assert.Equal(t, staff.UserID, *c.CreatedByID)
	assert.False(t, c.Lock)
	assert.Equal(t, "Ram Bahadur", c.ClaimName)
	assert.Equal(t, "ram@example.com", c.ClaimEmail)
	assert.True(t, decimal.RequireFromString("1234.50").Equal(c.ClaimAmount))
	assert.True(t, strings.HasPrefix(c.ClaimDocument, "claims/documents/"))
	assert.True(t, strings.HasSuffix(c.ClaimDocument, ".pdf"))
	assert.True(t, strings.HasPrefix(c.PaymentVoucher, "claims/vouchers/"))

	assert.Equal(t, 2, f.blobs.Len())
	assert.Equal(t, "application/pdf", f.blobs.Types[c.ClaimDocument])
	assert.Equal(t, []byte("content of voucher.jpg"), f.blobs.Objects[c.PaymentVoucher])

	require.Len(t, f.store.Audit, 1)
	assert.Equal(t, models.ActionCreate, f.store.Audit[0].Action)
	require.NotNil(t, f.store.Audit[0].UserID)
	assert.Equal(t, staff.UserID, *f.store.Audit[0].UserID)
}

func TestCreateMissingDocument(t *testing.T) {
	f := newFixture(t)

	in := validInput()
	in.Document = nil
	_, err := f.svc.Create(context.Background(), staff, in)

	ve, ok := validation.As(err)
	require.True(t, ok, "got %v", err)
	assert.True(t, ve.Fields.Has("claim_document", validation.Required))
	assert.Equal(t, 0, f.store.Writes)
	assert.Equal(t, 0, f.blobs.Len())
}

func TestCreateRejectsUnsupportedFile(t *testing.T) {
	f := newFixture(t)

	in := validInput()
	in.Voucher = upload("voucher.exe")
	_, err := f.svc.Create(context.Background(), staff, in)

	assert.True(t, errors.Is(err, validation.UnsupportedFileType))
	assert.Equal(t, 0, f.blobs.Len())
}

func TestCreateReportsRejectedUploadWithFormIssues(t *testing.T) {
	f := newFixture(t)

	in := validInput()
	in.Form.PolicyNo = ""
	in.Document = nil
	in.Rejected = validation.Errors{}
	in.Rejected.Add("claim_document", validation.TooLong, "File must be at most 1 MB.")
	_, err := f.svc.Create(context.Background(), staff, in)

	ve, ok := validation.As(err)
	require.True(t, ok, "got %v", err)
	assert.True(t, ve.Fields.Has("policy_no", validation.Required))
	assert.True(t, ve.Fields.Has("claim_document", validation.TooLong))
	assert.False(t, ve.Fields.Has("claim_document", validation.Required))
	assert.Equal(t, 0, f.store.Writes)
	assert.Equal(t, 0, f.blobs.Len())
}

func TestCreateRequiresStaff(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), viewer, validInput())
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.Equal(t, 0, f.store.Writes)
}

func TestCreateRemovesBlobsWhenStoreFails(t *testing.T) {
	f := newFixture(t)
	f.store.Err = errors.New("connection refused")

	_, err := f.svc.Create(context.Background(), staff, validInput())
	require.Error(t, err)
	assert.True(t, models.IsStorageError(err))
	assert.Equal(t, 0, f.blobs.Len())
	assert.Len(t, f.blobs.Deleted, 2)
}

func TestCreateBlobFailure(t *testing.T) {
	f := newFixture(t)
	f.blobs.Err = errors.New("bucket missing")

	_, err := f.svc.Create(context.Background(), staff, validInput())
	assert.True(t, models.IsStorageError(err))
	assert.Equal(t, 0, f.store.Writes)
}

func TestUpdateLockedClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, staff, validInput())
	require.NoError(t, err)
	require.NoError(t, f.svc.Lock(ctx, staff, c.ID))

	in := claims.Input{Form: validForm()}
	in.Form.ClaimAmount = "9999"
	_, err = f.svc.Update(ctx, superuser, c.ID, in)
	assert.ErrorIs(t, err, models.ErrRecordLocked)

	stored, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1234.50").Equal(stored.ClaimAmount))
}

func TestUpdateLockedClaimSkipsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, staff, validInput())
	require.NoError(t, err)
	require.NoError(t, f.svc.Lock(ctx, staff, c.ID))

	_, err = f.svc.Update(ctx, staff, c.ID, claims.Input{Document: upload("new.pdf")})
	assert.ErrorIs(t, err, models.ErrRecordLocked)
	assert.Equal(t, 2, f.blobs.Len())
}

func TestUpdateLockedClaimWithRejectedUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, staff, validInput())
	require.NoError(t, err)
	require.NoError(t, f.svc.Lock(ctx, staff, c.ID))

	in := claims.Input{Form: validForm(), Rejected: validation.Errors{}}
	in.Rejected.Add("payment_voucher", validation.TooLong, "File must be at most 1 MB.")
	_, err = f.svc.Update(ctx, staff, c.ID, in)
	assert.ErrorIs(t, err, models.ErrRecordLocked)
}

func TestUpdateReplacesAttachment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, staff, validInput())
	require.NoError(t, err)
	oldDoc, oldVoucher := c.ClaimDocument, c.PaymentVoucher

	in := claims.Input{Form: validForm(), Document: upload("scan.png")}
	in.Form.ClaimAmount = "500"
	got, err := f.svc.Update(ctx, staff, c.ID, in)
	require.NoError(t, err)

	assert.NotEqual(t, oldDoc, got.ClaimDocument)
	assert.Equal(t, oldVoucher, got.PaymentVoucher)
	assert.True(t, decimal.NewFromInt(500).Equal(got.ClaimAmount))
	assert.Equal(t, []string{oldDoc}, f.blobs.Deleted)
	require.NotNil(t, got.CreatedByID)
	assert.Equal(t, staff.UserID, *got.CreatedByID)
}

func TestUpdateValidationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, staff, validInput())
	require.NoError(t, err)

	in := claims.Input{Form: validForm()}
	in.Form.ClaimType = "Loan"
	_, err = f.svc.Update(ctx, staff, c.ID, in)
	assert.True(t, errors.Is(err, validation.InvalidChoice))
}

func TestLockTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, staff, validInput())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Lock(ctx, viewer, c.ID), models.ErrPermissionDenied)
	require.NoError(t, f.svc.Lock(ctx, staff, c.ID))
	assert.ErrorIs(t, f.svc.Lock(ctx, staff, c.ID), models.ErrRecordLocked)
	assert.ErrorIs(t, f.svc.Lock(ctx, staff, 999), models.ErrNotFound)
}

func TestDeleteLockedClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, staff, validInput())
	require.NoError(t, err)
	require.NoError(t, f.svc.Lock(ctx, staff, c.ID))

	assert.ErrorIs(t, f.svc.Delete(ctx, staff, c.ID), models.ErrRecordLocked)
	_, err = f.svc.Get(ctx, c.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, superuser, c.ID))
	_, err = f.svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 0, f.blobs.Len())
}

func TestDeleteUnlockedClaimAsStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, staff, validInput())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, viewer, c.ID), models.ErrPermissionDenied)
	require.NoError(t, f.svc.Delete(ctx, staff, c.ID))
}

// lockingStore блокирует заявку сразу после того, как отдал её
// незаблокированную копию, как сделал бы параллельный запрос.
type lockingStore struct {
	*testutil.Store
}

func (s lockingStore) GetClaim(ctx context.Context, id uint) (*models.Claim, error) {
	c, err := s.Store.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Store.LockClaim(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func TestDeleteClaimLockedConcurrently(t *testing.T) {
	store := testutil.NewStore()
	blobs := testutil.NewBlobs()
	ctx := context.Background()

	c, err := claims.NewService(store, blobs, nil, nil).Create(ctx, staff, validInput())
	require.NoError(t, err)

	svc := claims.NewService(lockingStore{store}, blobs, nil, nil)
	assert.ErrorIs(t, svc.Delete(ctx, staff, c.ID), models.ErrRecordLocked)

	stored, err := store.GetClaim(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.Lock)
	assert.Equal(t, 2, blobs.Len())
}

func TestListAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, amount := range []string{"100", "200.50", "300"} {
		in := validInput()
		in.Form.ClaimAmount = amount
		_, err := f.svc.Create(ctx, staff, in)
		require.NoError(t, err)
	}
	in := validInput()
	in.Form.ClaimType = "maturity"
	in.Form.PolicyNo = "OTHER-9"
	_, err := f.svc.Create(ctx, staff, in)
	require.NoError(t, err)

	q := models.ClaimQuery{ClaimType: models.ClaimDeath, PerPage: 2}
	page, err := f.svc.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Claims, 2)
	assert.True(t, page.HasNext())

	sum, err := f.svc.Summary(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.TotalClaims)
	assert.True(t, decimal.RequireFromString("600.50").Equal(sum.TotalAmount))

	page, err = f.svc.List(ctx, models.ClaimQuery{Search: "other"})
	require.NoError(t, err)
	require.Len(t, page.Claims, 1)
	assert.Equal(t, "OTHER-9", page.Claims[0].PolicyNo)
}

func TestDocumentURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, staff, validInput())
	require.NoError(t, err)

	url, err := f.svc.DocumentURL(ctx, c.ID, claims.KindVoucher)
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.test/"+c.PaymentVoucher, url)

	_, err = f.svc.DocumentURL(ctx, c.ID, "receipt")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "Rs. 0.00"},
		{"12.5", "Rs. 12.50"},
		{"1234.5", "Rs. 1,234.50"},
		{"1234567.891", "Rs. 1,234,567.89"},
		{"100000", "Rs. 100,000.00"},
		{"-2500", "Rs. -2,500.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, claims.FormatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}
