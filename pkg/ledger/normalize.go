package ledger

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/logger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/money"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/store"
)

// DefaultCurrency is used when neither the record nor the configuration
// names one.
const DefaultCurrency = "TRY"

// Field name variants seen in stored documents. The first entry is the one
// written by the encoders.
var (
	fieldAccountID     = []string{"cariId", "accountId", "cari_id", "account_id"}
	fieldAmount        = []string{"amount", "tutar"}
	fieldCurrency      = []string{"currency", "paraBirimi", "para_birimi"}
	fieldPaidAmount    = []string{"paidAmount", "paid_amount"}
	fieldReservationID = []string{"reservationId", "reservation_id", "rezervasyonId"}
	fieldTourID        = []string{"tourId", "tour_id", "relatedTourId"}
	fieldRelatedTourID = []string{"relatedTourId", "related_tour_id", "tourId"}
	fieldDebtID        = []string{"debtId", "debt_id"}
	fieldDescription   = []string{"description", "aciklama"}
	fieldNotes         = []string{"notes", "note", "notlar"}
	fieldPaymentDate   = []string{"date", "paymentDate", "payment_date"}
	fieldDueDate       = []string{"dueDate", "due_date"}
	fieldCreatedAt     = []string{"createdAt", "created_at"}
	fieldDebtDate      = []string{"createdAt", "created_at", "date"}
	fieldUpdatedAt     = []string{"updatedAt", "updated_at"}
	fieldMethod        = []string{"paymentMethod", "payment_method", "method"}
	fieldCounterparty  = []string{"counterparty", "payerName", "payeeName", "payer", "payee"}
	fieldSnapshot      = []string{"balanceSnapshot", "balance_snapshot", "balanceBefore"}
	fieldName          = []string{"name", "companyName", "fullName"}
	fieldPhone         = []string{"phone", "phoneNumber", "telefon"}
	fieldNationalID    = []string{"nationalId", "idNumber", "tcNo", "tckn"}
	fieldPassport      = []string{"passportNumber", "passport", "passportNo"}
	fieldLicense       = []string{"drivingLicense", "licenseNumber", "driverLicense"}
)

// Normalizer turns loosely-shaped store documents into typed records. It is
// the only place that knows about field aliases and legacy value formats.
// Malformed values degrade to zero values and are logged.
type Normalizer struct {
	defaultCurrency string
	log             zerolog.Logger
}

// NewNormalizer creates a Normalizer. Records without a currency get
// defaultCurrency.
func NewNormalizer(defaultCurrency string) *Normalizer {
	return &Normalizer{
		defaultCurrency: money.NormalizeCurrency(defaultCurrency, DefaultCurrency),
		log:             logger.WithComponent("normalizer"),
	}
}

// DefaultCurrency returns the currency assigned to records without one.
func (n *Normalizer) DefaultCurrency() string {
	return n.defaultCurrency
}

// Currency normalizes a currency code.
func (n *Normalizer) Currency(code string) string {
	return money.NormalizeCurrency(code, n.defaultCurrency)
}

// Account normalizes a cari account document.
func (n *Normalizer) Account(doc store.Document) Account {
	acc := Account{
		ID:            doc.ID(),
		Name:          stringField(doc, fieldName...),
		Kind:          AccountKind(strings.ToLower(stringField(doc, "kind", "type"))),
		Phone:         stringField(doc, fieldPhone...),
		Email:         stringField(doc, "email"),
		Address:       stringField(doc, "address"),
		TaxNumber:     stringField(doc, "taxNumber", "taxNo"),
		ContactPerson: stringField(doc, "contactPerson", "contact"),
		Period:        stringField(doc, "period", "season"),
		Currency:      n.Currency(stringField(doc, fieldCurrency...)),
		Notes:         stringField(doc, fieldNotes...),
		TotalDebt:     n.amount(doc, "totalDebt"),
		TotalPayment:  n.amount(doc, "totalPayment"),
		Balance:       n.amount(doc, "balance"),
		CreatedAt:     n.date(doc, fieldCreatedAt...),
		UpdatedAt:     n.date(doc, fieldUpdatedAt...),
	}
	if acc.Kind != KindCustomer {
		acc.Kind = KindSupplier
	}

	if raw, ok := doc["totals"].(map[string]any); ok {
		acc.Totals = make(map[string]Totals, len(raw))
		for cur, v := range raw {
			entry, ok := v.(map[string]any)
			if !ok {
				continue
			}
			code := n.Currency(cur)
			acc.Totals[code] = Totals{
				Currency:  code,
				TotalDebt: n.amount(store.Document(entry), "totalDebt"),
				TotalPaid: n.amount(store.Document(entry), "totalPaid"),
				Remaining: n.amount(store.Document(entry), "remaining"),
				Balance:   n.amount(store.Document(entry), "balance"),
			}
		}
	}

	return acc
}

// Debt normalizes a debt document. The stored status is ignored and derived
// from amount and paid amount.
func (n *Normalizer) Debt(doc store.Document) DebtRecord {
	d := DebtRecord{
		ID:            doc.ID(),
		AccountID:     stringField(doc, fieldAccountID...),
		Amount:        n.amount(doc, fieldAmount...),
		Currency:      n.Currency(stringField(doc, fieldCurrency...)),
		ReservationID: stringField(doc, fieldReservationID...),
		TourID:        stringField(doc, fieldTourID...),
		PaidAmount:    n.amount(doc, fieldPaidAmount...),
		Description:   stringField(doc, fieldDescription...),
		Notes:         stringField(doc, fieldNotes...),
		DueDate:       n.date(doc, fieldDueDate...),
		CreatedAt:     n.date(doc, fieldDebtDate...),
		UpdatedAt:     n.date(doc, fieldUpdatedAt...),
	}
	d.Status = DebtStatusFor(d.Amount, d.PaidAmount)
	return d
}

// Payment normalizes a payment document.
func (n *Normalizer) Payment(doc store.Document) PaymentRecord {
	p := PaymentRecord{
		ID:            doc.ID(),
		AccountID:     stringField(doc, fieldAccountID...),
		Amount:        n.amount(doc, fieldAmount...),
		Currency:      n.Currency(stringField(doc, fieldCurrency...)),
		PaymentDate:   n.date(doc, fieldPaymentDate...),
		Description:   stringField(doc, fieldDescription...),
		Method:        stringField(doc, fieldMethod...),
		Counterparty:  stringField(doc, fieldCounterparty...),
		DebtID:        stringField(doc, fieldDebtID...),
		ReservationID: stringField(doc, fieldReservationID...),
		CreatedAt:     n.date(doc, fieldCreatedAt...),
		UpdatedAt:     n.date(doc, fieldUpdatedAt...),
	}

	if raw, key := lookup(doc, fieldSnapshot...); raw != nil {
		snapshot, err := money.ParseAmount(raw)
		if err != nil {
			n.log.Warn().Str("id", p.ID).Str("field", key).Err(err).Msg("ignoring unreadable balance snapshot")
		} else {
			p.BalanceSnapshot = &snapshot
		}
	}

	return p
}

// FinancialEntry normalizes a financial entry document.
func (n *Normalizer) FinancialEntry(doc store.Document) FinancialEntry {
	return FinancialEntry{
		ID:            doc.ID(),
		Type:          stringField(doc, "type"),
		Category:      stringField(doc, "category"),
		Description:   stringField(doc, fieldDescription...),
		Amount:        n.amount(doc, fieldAmount...),
		Currency:      n.Currency(stringField(doc, fieldCurrency...)),
		Date:          n.date(doc, "date", "createdAt"),
		RelatedTourID: stringField(doc, fieldRelatedTourID...),
	}
}

// Customer normalizes a customer document.
func (n *Normalizer) Customer(doc store.Document) CustomerRecord {
	return CustomerRecord{
		ID:             doc.ID(),
		Name:           stringField(doc, fieldName...),
		Phone:          stringField(doc, fieldPhone...),
		Email:          stringField(doc, "email"),
		NationalID:     stringField(doc, fieldNationalID...),
		PassportNumber: stringField(doc, fieldPassport...),
		DrivingLicense: stringField(doc, fieldLicense...),
		SourceTourID:   stringField(doc, "sourceTourId", "createdFromTourId"),
	}
}

// Tour normalizes a tour document.
func (n *Normalizer) Tour(doc store.Document) Tour {
	return Tour{
		ID:                     doc.ID(),
		CustomerName:           stringField(doc, "customerName", "customer_name"),
		CustomerPhone:          stringField(doc, "customerPhone", "customer_phone"),
		CustomerNationalID:     stringField(doc, "customerNationalId", "customerIdNumber", "customerTcNo"),
		CustomerPassportNumber: stringField(doc, "customerPassportNumber", "customerPassport"),
		CustomerDrivingLicense: stringField(doc, "customerDrivingLicense", "customerLicenseNumber"),
		TourDate:               n.date(doc, "tourDate", "date"),
	}
}

// Debts normalizes a batch of debt documents.
func (n *Normalizer) Debts(docs []store.Document) []DebtRecord {
	out := make([]DebtRecord, 0, len(docs))
	for _, doc := range docs {
		out = append(out, n.Debt(doc))
	}
	return out
}

// Payments normalizes a batch of payment documents.
func (n *Normalizer) Payments(docs []store.Document) []PaymentRecord {
	out := make([]PaymentRecord, 0, len(docs))
	for _, doc := range docs {
		out = append(out, n.Payment(doc))
	}
	return out
}

// amount reads the first present amount field. Missing amounts are zero;
// unreadable ones are zero and logged.
func (n *Normalizer) amount(doc store.Document, keys ...string) decimal.Decimal {
	raw, key := lookup(doc, keys...)
	if raw == nil {
		return decimal.Zero
	}
	amount, err := money.ParseAmount(raw)
	if err != nil {
		if !errors.Is(err, money.ErrEmptyAmount) {
			n.log.Warn().Str("id", doc.ID()).Str("field", key).Err(err).Msg("treating unreadable amount as zero")
		}
		return decimal.Zero
	}
	return amount
}

// date reads the first present date field. Unreadable dates are the zero time
// and logged.
func (n *Normalizer) date(doc store.Document, keys ...string) time.Time {
	raw, key := lookup(doc, keys...)
	if raw == nil {
		return time.Time{}
	}
	t, ok := ParseDate(raw)
	if !ok {
		n.log.Warn().Str("id", doc.ID()).Str("field", key).Interface("value", raw).Msg("ignoring unreadable date")
	}
	return t
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
}

// ParseDate reads ISO-8601 strings, a few local formats, store timestamp
// wrappers ({seconds, nanoseconds} or {_seconds, _nanoseconds}) and unix
// seconds or milliseconds. Values without a zone are read as UTC.
func ParseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return unixTime(f)
		}
		return time.Time{}, false
	case map[string]any:
		return timestampWrapper(t)
	case store.Document:
		return timestampWrapper(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return unixTime(f)
	case float64:
		return unixTime(t)
	case int64:
		return unixTime(float64(t))
	case int:
		return unixTime(float64(t))
	default:
		return time.Time{}, false
	}
}

func timestampWrapper(m map[string]any) (time.Time, bool) {
	secs, ok := numberField(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, false
	}
	nanos, _ := numberField(m, "nanoseconds", "_nanoseconds", "nanos")
	return time.Unix(int64(secs), int64(nanos)).UTC(), true
}

// unixTime reads f as unix seconds, or milliseconds when it is too large to
// be seconds.
func unixTime(f float64) (time.Time, bool) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	if f >= 1e11 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

func numberField(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case int64:
			return float64(v), true
		case int:
			return float64(v), true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// lookup returns the first non-nil value among keys and the key it was found
// under.
func lookup(doc store.Document, keys ...string) (any, string) {
	for _, k := range keys {
		if v, ok := doc[k]; ok && v != nil {
			return v, k
		}
	}
	return nil, ""
}

func stringField(doc store.Document, keys ...string) string {
	raw, _ := lookup(doc, keys...)
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// AccountDocument encodes an account for storage. Cached totals are written
// separately by TotalsDocument.
func AccountDocument(a Account) store.Document {
	doc := store.Document{
		"name":     a.Name,
		"kind":     string(a.Kind),
		"currency": a.Currency,
	}
	if a.ID != "" {
		doc[store.FieldID] = a.ID
	}
	putString(doc, "phone", a.Phone)
	putString(doc, "email", a.Email)
	putString(doc, "address", a.Address)
	putString(doc, "taxNumber", a.TaxNumber)
	putString(doc, "contactPerson", a.ContactPerson)
	putString(doc, "period", a.Period)
	putString(doc, "notes", a.Notes)
	putTime(doc, "createdAt", a.CreatedAt)
	putTime(doc, "updatedAt", a.UpdatedAt)
	return doc
}

// TotalsDocument encodes the cached totals of an account. The scalar fields
// carry the totals of primary, the per-currency map carries all of them.
func TotalsDocument(s Summary, primary string, at time.Time) store.Document {
	primaryTotals := s.For(primary)
	totals := make(map[string]any, len(s))
	for cur, t := range s {
		totals[cur] = map[string]any{
			"totalDebt": t.TotalDebt.InexactFloat64(),
			"totalPaid": t.TotalPaid.InexactFloat64(),
			"remaining": t.Remaining.InexactFloat64(),
			"balance":   t.Balance.InexactFloat64(),
		}
	}
	return store.Document{
		"totalDebt":         primaryTotals.TotalDebt.InexactFloat64(),
		"totalPayment":      primaryTotals.TotalPaid.InexactFloat64(),
		"balance":           primaryTotals.Balance.InexactFloat64(),
		"totals":            totals,
		"totalsRefreshedAt": at.UTC().Format(time.RFC3339),
	}
}

// DebtDocument encodes a debt for storage. Status is derived.
func DebtDocument(d DebtRecord) store.Document {
	doc := store.Document{
		fieldAccountID[0]:  d.AccountID,
		fieldAmount[0]:     d.Amount.InexactFloat64(),
		fieldCurrency[0]:   d.Currency,
		fieldPaidAmount[0]: d.PaidAmount.InexactFloat64(),
		"status":           string(DebtStatusFor(d.Amount, d.PaidAmount)),
	}
	if d.ID != "" {
		doc[store.FieldID] = d.ID
	}
	putString(doc, fieldReservationID[0], d.ReservationID)
	putString(doc, fieldTourID[0], d.TourID)
	putString(doc, fieldDescription[0], d.Description)
	putString(doc, fieldNotes[0], d.Notes)
	putTime(doc, fieldDueDate[0], d.DueDate)
	putTime(doc, fieldCreatedAt[0], d.CreatedAt)
	putTime(doc, fieldUpdatedAt[0], d.UpdatedAt)
	return doc
}

// PaymentDocument encodes a payment for storage.
func PaymentDocument(p PaymentRecord) store.Document {
	doc := store.Document{
		fieldAccountID[0]: p.AccountID,
		fieldAmount[0]:    p.Amount.InexactFloat64(),
		fieldCurrency[0]:  p.Currency,
	}
	if p.ID != "" {
		doc[store.FieldID] = p.ID
	}
	if p.BalanceSnapshot != nil {
		doc[fieldSnapshot[0]] = p.BalanceSnapshot.InexactFloat64()
	}
	putString(doc, fieldDescription[0], p.Description)
	putString(doc, fieldMethod[0], p.Method)
	putString(doc, fieldCounterparty[0], p.Counterparty)
	putString(doc, fieldDebtID[0], p.DebtID)
	putString(doc, fieldReservationID[0], p.ReservationID)
	putTime(doc, fieldPaymentDate[0], p.PaymentDate)
	putTime(doc, fieldCreatedAt[0], p.CreatedAt)
	putTime(doc, fieldUpdatedAt[0], p.UpdatedAt)
	return doc
}

func putString(doc store.Document, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

func putTime(doc store.Document, key string, t time.Time) {
	if !t.IsZero() {
		doc[key] = t.UTC().Format(time.RFC3339)
	}
}
