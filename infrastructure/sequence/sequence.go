// Package sequence allocates the human-readable document numbers
// (INV-2024-0001, QTN-..., SHP-...) from the counters in the settings row.
//
// Allocation is a read: Next never persists. The counter moves only when the
// document is saved, via AdvanceTx (invoices, shipments) or IncrementTx
// (quotations). Counters never move backwards.
package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

// Kind selects one of the three counters.
type Kind int

const (
	KindInvoice Kind = iota
	KindQuotation
	KindShipment
)

// Prefix returns the document number prefix of k.
func (k Kind) Prefix() string {
	switch k {
	case KindInvoice:
		return "INV"
	case KindQuotation:
		return "QTN"
	case KindShipment:
		return "SHP"
	}
	return ""
}

func (k Kind) String() string {
	switch k {
	case KindInvoice:
		return "invoice"
	case KindQuotation:
		return "quotation"
	case KindShipment:
		return "shipment"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) column() (string, error) {
	switch k {
	case KindInvoice:
		return "last_invoice_no", nil
	case KindQuotation:
		return "last_quotation_no", nil
	case KindShipment:
		return "last_shipment_id", nil
	}
	return "", apperr.Validation("unknown sequence kind %d", int(k))
}

// ParseKind maps "invoice", "quotation" or "shipment" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invoice", "inv":
		return KindInvoice, nil
	case "quotation", "qtn":
		return KindQuotation, nil
	case "shipment", "shp":
		return KindShipment, nil
	}
	return 0, apperr.Validation("unknown sequence kind %q", s)
}

// Format renders PREFIX-YEAR-NNNN. Counters past 9999 simply grow wider.
func Format(kind Kind, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%04d", kind.Prefix(), year, n)
}

// Suffix parses the leading digits after the last '-' of number.
func Suffix(number string) (int64, bool) {
	idx := strings.LastIndex(number, "-")
	tail := strings.TrimSpace(number[idx+1:])
	end := 0
	for end < len(tail) && tail[end] >= '0' && tail[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(tail[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MaxCustomDigits bounds a custom suffix so it always parses back as a counter value.
const MaxCustomDigits = 18

// CustomInvoiceNumber builds INV-YEAR-NNNN from an operator-typed suffix.
// A number at or below the current counter is accepted as-is.
func CustomInvoiceNumber(year int, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.Validation("custom invoice number is empty")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", apperr.Validation("custom invoice number %q must be digits only", raw)
		}
	}
	if len(raw) > MaxCustomDigits {
		return "", apperr.Validation("custom invoice number %q is longer than %d digits", raw, MaxCustomDigits)
	}
	if len(raw) < 4 {
		raw = strings.Repeat("0", 4-len(raw)) + raw
	}
	return fmt.Sprintf("%s-%d-%s", KindInvoice.Prefix(), year, raw), nil
}

// Allocator reads counters and stamps numbers with the current year.
type Allocator struct {
	DB  *sqlite.DB
	Now func() time.Time
}

// New returns an Allocator using the wall clock.
func New(db *sqlite.DB) *Allocator {
	return &Allocator{DB: db, Now: time.Now}
}

// Clock returns the allocator's current time, falling back to the wall
// clock when Now is unset.
func (a *Allocator) Clock() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *Allocator) year() int {
	return a.Clock().Year()
}

// Next returns the number the next document of kind would get. It does not
// reserve it: two callers may observe the same value.
func (a *Allocator) Next(ctx context.Context, kind Kind) (string, error) {
	var number string
	err := a.DB.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		number, err = NextTx(ctx, tx, kind, a.year())
		return err
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// Increment confirms one quotation number in its own transaction.
func (a *Allocator) Increment(ctx context.Context, kind Kind) error {
	return a.DB.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return IncrementTx(ctx, tx, kind)
	})
}

// Year is the year used in freshly allocated numbers.
func (a *Allocator) Year() int {
	return a.year()
}

// Next is Allocator.Next with the wall clock.
func Next(ctx context.Context, db *sqlite.DB, kind Kind) (string, error) {
	return New(db).Next(ctx, kind)
}

// CurrentTx returns the stored counter for kind; a missing settings row reads as zero.
func CurrentTx(ctx context.Context, tx bun.IDB, kind Kind) (int64, error) {
	col, err := kind.column()
	if err != nil {
		return 0, err
	}
	var n int64
	err = tx.NewSelect().
		Model((*models.Settings)(nil)).
		Column(col).
		Where("id = ?", models.SettingsID).
		Scan(ctx, &n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Storage(fmt.Errorf("read %s counter: %w", kind, err))
	}
	return n, nil
}

// NextTx is Next inside a caller transaction.
func NextTx(ctx context.Context, tx bun.IDB, kind Kind, year int) (string, error) {
	n, err := CurrentTx(ctx, tx, kind)
	if err != nil {
		return "", err
	}
	return Format(kind, year, n+1), nil
}

// AdvanceTx moves the counter of kind up to the numeric suffix of number.
// A lower suffix or a non-numeric one leaves the counter untouched.
func AdvanceTx(ctx context.Context, tx bun.Tx, kind Kind, number string) error {
	n, ok := Suffix(number)
	if !ok {
		return nil
	}
	col, err := kind.column()
	if err != nil {
		return err
	}
	if err := ensureSettingsTx(ctx, tx); err != nil {
		return err
	}
	_, err = tx.NewUpdate().
		Model((*models.Settings)(nil)).
		Set("? = MAX(?, ?)", bun.Ident(col), bun.Ident(col), n).
		Where("id = ?", models.SettingsID).
		Exec(ctx)
	if err != nil {
		return apperr.Storage(fmt.Errorf("advance %s counter: %w", kind, err))
	}
	return nil
}

// IncrementTx adds one to the counter of kind.
func IncrementTx(ctx context.Context, tx bun.Tx, kind Kind) error {
	col, err := kind.column()
	if err != nil {
		return err
	}
	if err := ensureSettingsTx(ctx, tx); err != nil {
		return err
	}
	_, err = tx.NewUpdate().
		Model((*models.Settings)(nil)).
		Set("? = ? + 1", bun.Ident(col), bun.Ident(col)).
		Where("id = ?", models.SettingsID).
		Exec(ctx)
	if err != nil {
		return apperr.Storage(fmt.Errorf("increment %s counter: %w", kind, err))
	}
	return nil
}

// LoadSettings returns the counter row, zero-valued when absent.
func LoadSettings(ctx context.Context, tx bun.IDB) (models.Settings, error) {
	s := models.Settings{ID: models.SettingsID}
	err := tx.NewSelect().Model(&s).WherePK().Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{ID: models.SettingsID}, nil
	}
	if err != nil {
		return models.Settings{}, apperr.Storage(fmt.Errorf("load settings: %w", err))
	}
	return s, nil
}

func ensureSettingsTx(ctx context.Context, tx bun.Tx) error {
	_, err := tx.NewInsert().
		Model(&models.Settings{ID: models.SettingsID}).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return apperr.Storage(fmt.Errorf("ensure settings row: %w", err))
	}
	return nil
}
