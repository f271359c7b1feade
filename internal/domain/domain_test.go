package domain

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestClientValidation(t *testing.T) {
	c := Client{Name: "  ", Email: "not-an-email", Phone: "abc"}
	c.Normalize()

	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "phone")
	assert.Equal(t, ClientActive, c.Status)

	ok := Client{Name: "Acme", Email: " Ops@Acme.COM ", Phone: "+94 11 234-5678"}
	ok.Normalize()
	assert.NoError(t, ok.Validate())
	assert.Equal(t, "ops@acme.com", ok.Email)
}

func TestContainerNumberNormalization(t *testing.T) {
	c := Container{ContainerNumber: " msku 1234567 ", Type: Container40ftHC}
	c.Normalize()
	require.NoError(t, c.Validate())
	assert.Equal(t, "MSKU1234567", c.ContainerNumber)
	assert.Equal(t, ContainerAvailable, c.Status)

	bad := Container{ContainerNumber: "MSK123", Type: "53ft"}
	bad.Normalize()
	var ve *ValidationError
	require.ErrorAs(t, bad.Validate(), &ve)
	assert.Contains(t, ve.Fields, "containerNumber")
	assert.Contains(t, ve.Fields, "type")
}

func TestShipmentValidation(t *testing.T) {
	ship := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	eta := ship.AddDate(0, 0, -1)
	blank := " "
	s := Shipment{
		ClientID:          "c1",
		Origin:            "Colombo",
		Destination:       "colombo",
		WeightKg:          dec("-1"),
		ShippingDate:      &ship,
		EstimatedDelivery: &eta,
		ContainerID:       &blank,
	}
	s.Normalize()
	assert.Nil(t, s.ContainerID)

	var ve *ValidationError
	require.ErrorAs(t, s.Validate(), &ve)
	assert.Contains(t, ve.Fields, "destination")
	assert.Contains(t, ve.Fields, "weightKg")
	assert.Contains(t, ve.Fields, "estimatedDelivery")
}

func TestShipmentChangeStatus(t *testing.T) {
	s := Shipment{TrackingNumber: "CTC1", Status: ShipmentInTransit}
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.ChangeStatus(ShipmentDelivered, at))
	require.NotNil(t, s.ActualDelivery)
	assert.True(t, s.ActualDelivery.Equal(at))

	err := s.ChangeStatus(ShipmentInTransit, at)
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.ErrorIs(t, s.ChangeStatus("lost", at), ErrValidation)
	assert.False(t, s.Deletable())
}

func TestInvoiceRecalculate(t *testing.T) {
	inv := Invoice{
		ClientID:  "c1",
		Currency:  "usd",
		IssueDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		TaxRate:   dec("8"),
		Discount:  dec("10"),
		Items: []InvoiceItem{
			{Description: "Ocean freight", Quantity: dec("2"), UnitPrice: dec("1200.555")},
			{Description: "Handling", Quantity: dec("1.5"), UnitPrice: dec("40")},
		},
	}
	inv.Normalize()
	inv.Recalculate()
	require.NoError(t, inv.Validate())

	assert.Equal(t, "2401.11", inv.Items[0].Amount.StringFixed(2))
	assert.Equal(t, "60.00", inv.Items[1].Amount.StringFixed(2))
	assert.Equal(t, "2461.11", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "196.89", inv.TaxAmount.StringFixed(2))
	assert.Equal(t, "2648.00", inv.Total.StringFixed(2))
	assert.Equal(t, "USD", inv.Currency)
}

func TestInvoiceValidationRejectsBadItems(t *testing.T) {
	inv := Invoice{
		ClientID:  "c1",
		Currency:  "USD",
		IssueDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TaxRate:   dec("120"),
		Items:     []InvoiceItem{{Quantity: dec("0"), UnitPrice: dec("-1")}},
	}
	inv.Normalize()
	inv.Recalculate()

	var ve *ValidationError
	require.ErrorAs(t, inv.Validate(), &ve)
	for _, f := range []string{"items[0].description", "items[0].quantity", "items[0].unitPrice", "dueDate", "taxRate"} {
		assert.Contains(t, ve.Fields, f)
	}
}

func TestInvoicePaymentsAndOverdue(t *testing.T) {
	inv := Invoice{
		InvoiceNumber: "INV-2026-00001",
		Status:        InvoiceDraft,
		Total:         dec("100"),
		DueDate:       time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	now := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

	_, err := inv.ApplyPayment(dec("10"), now)
	assert.ErrorIs(t, err, ErrInvalidState)

	inv.Status = InvoiceSent
	assert.Equal(t, InvoiceOverdue, inv.EffectiveStatus(now))
	assert.Equal(t, InvoiceSent, inv.EffectiveStatus(time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)))

	paid, err := inv.ApplyPayment(dec("40"), now)
	require.NoError(t, err)
	assert.False(t, paid)
	assert.Equal(t, InvoicePartiallyPaid, inv.Status)
	assert.Equal(t, "60", inv.Balance().String())

	_, err = inv.ApplyPayment(dec("61"), now)
	assert.ErrorIs(t, err, ErrValidation)

	paid, err = inv.ApplyPayment(dec("60"), now)
	require.NoError(t, err)
	assert.True(t, paid)
	assert.Equal(t, InvoicePaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, InvoicePaid, inv.EffectiveStatus(now))
}

func TestAmountInWords(t *testing.T) {
	assert.Equal(t, "five dollars only", AmountInWords(dec("5"), "usd"))
	assert.Equal(t, "one euros and 40 cents", AmountInWords(dec("1.40"), "EUR"))
}

func TestIdentifiers(t *testing.T) {
	now := time.Date(2026, 1, 18, 0, 0, 0, 0, time.UTC)
	tn := NewTrackingNumber("ctc", now)
	assert.Regexp(t, regexp.MustCompile(`^CTC260118[A-Z2-9]{6}$`), tn)
	assert.NotEqual(t, tn, NewTrackingNumber("ctc", now))

	assert.Equal(t, "INV-2026-00042", InvoiceNumber("INV", 2026, 42))
	assert.Equal(t, "INV-2026-", InvoiceNumberStem("", 2026))
	assert.Equal(t, "INV-2026-123456", InvoiceNumber("INV", 2026, 123456))
	assert.Regexp(t, regexp.MustCompile(`^CTC-TKT-[A-Z2-9]{8}$`), NewTicketNumber("CTC"))
}

func TestTransactionCategoriesDependOnType(t *testing.T) {
	tx := Transaction{
		Type:     TransactionExpense,
		Category: "Freight",
		Amount:   dec("50"),
		Currency: "USD",
		Date:     time.Now(),
	}
	tx.Normalize()

	var ve *ValidationError
	require.ErrorAs(t, tx.Validate(), &ve)
	assert.Contains(t, ve.Fields, "category")

	tx.Type = TransactionIncome
	assert.NoError(t, tx.Validate())
}

func TestFinancialSummary(t *testing.T) {
	s := NewFinancialSummary(time.Time{}, time.Time{}, []CategoryTotal{
		{Type: TransactionIncome, Category: "freight", Total: dec("1000")},
		{Type: TransactionIncome, Category: "storage", Total: dec("250.50")},
		{Type: TransactionExpense, Category: "fuel", Total: dec("300.25")},
	}, nil)

	assert.Equal(t, "1250.5", s.TotalIncome.String())
	assert.Equal(t, "300.25", s.TotalExpense.String())
	assert.Equal(t, "950.25", s.NetProfit.String())
	assert.NotNil(t, s.ByMonth)
}

func TestPrincipalCan(t *testing.T) {
	admin := &Principal{UserType: UserTypeAdmin, Role: RoleAdmin}
	assert.True(t, admin.Can(PermTeamManage))

	op := &Principal{UserType: UserTypeAdmin, Role: RoleOperator, Permissions: []string{PermShipmentsRead}}
	assert.True(t, op.Can(PermShipmentsRead))
	assert.False(t, op.Can(PermFinanceRead))

	client := &Principal{UserType: UserTypeClient, Role: RoleAdmin, ClientID: "c1"}
	assert.False(t, client.Can(PermShipmentsRead))
	assert.True(t, client.IsClient())

	var none *Principal
	assert.False(t, none.Can(PermShipmentsRead))
}

func TestRoleValidation(t *testing.T) {
	r := Role{Name: " Dispatch ", Permissions: []string{PermShipmentsRead, PermShipmentsRead, "rockets:launch"}}
	r.Normalize()
	assert.Equal(t, "dispatch", r.Name)
	assert.Len(t, r.Permissions, 2)

	var ve *ValidationError
	require.ErrorAs(t, r.Validate(), &ve)
	assert.Contains(t, ve.Fields["permissions"], "rockets:launch")
}

func TestListParamsNormalize(t *testing.T) {
	p := ListParams{Page: -2, Limit: 1000, Search: "  acme "}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.Equal(t, "acme", p.Search)
	assert.Equal(t, 0, p.Offset())

	page := NewPage[int](nil, 41, ListParams{Page: 3, Limit: 20})
	assert.Equal(t, 3, page.TotalPages())
	assert.NotNil(t, page.Items)
}

func TestSettingsValidation(t *testing.T) {
	s := DefaultSettings()
	s.Normalize()
	require.NoError(t, s.Validate())

	s.Currency = "dollars"
	s.Timezone = "Mars/Olympus"
	s.InvoiceDueDays = 400
	var ve *ValidationError
	require.ErrorAs(t, s.Validate(), &ve)
	assert.Contains(t, ve.Fields, "currency")
	assert.Contains(t, ve.Fields, "timezone")
	assert.Contains(t, ve.Fields, "invoiceDueDays")
}

func TestCheckPassword(t *testing.T) {
	v := &ValidationError{}
	other := "different1"
	CheckPassword(v, "newPassword", "longenough", &other)
	assert.Contains(t, v.Fields, "confirmPassword")

	v = &ValidationError{}
	CheckPassword(v, "newPassword", "short", nil)
	assert.Contains(t, v.Fields, "newPassword")
}
