package billing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

// fakeTx implements the slice of pgx.Tx that settlement touches; anything
// else panics through the embedded nil interface.
type fakeTx struct {
	pgx.Tx
	exec       func(sql string, args ...any) (pgconn.CommandTag, error)
	queryRow   func(sql string, args ...any) pgx.Row
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.exec(sql, args...)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.queryRow(sql, args...)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakePool struct {
	tx pgx.Tx
}

func (p fakePool) Begin(ctx context.Context) (pgx.Tx, error) { return p.tx, nil }

func (p fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("unexpected pool QueryRow")
}

func (p fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("unexpected pool Query")
}

// settlementTx wires a transaction where the invoice and item writes succeed
// and every order claim lands claimTag rows.
func settlementTx(t *testing.T, claimTag string, orderExists bool) *fakeTx {
	t.Helper()

	tx := &fakeTx{}
	tx.queryRow = func(sql string, args ...any) pgx.Row {
		switch {
		case strings.Contains(sql, "INSERT INTO invoices"):
			return fakeRow{scan: func(dest ...any) error {
				*(dest[0].(*time.Time)) = time.Now()
				return nil
			}}
		case strings.Contains(sql, "SELECT EXISTS"):
			return fakeRow{scan: func(dest ...any) error {
				*(dest[0].(*bool)) = orderExists
				return nil
			}}
		default:
			t.Fatalf("unexpected QueryRow: %s", sql)
			return nil
		}
	}
	tx.exec = func(sql string, args ...any) (pgconn.CommandTag, error) {
		switch {
		case strings.Contains(sql, "INSERT INTO invoice_items"):
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		case strings.Contains(sql, "UPDATE lab_orders"),
			strings.Contains(sql, "UPDATE prescription_orders"):
			return pgconn.NewCommandTag(claimTag), nil
		default:
			t.Fatalf("unexpected Exec: %s", sql)
			return pgconn.CommandTag{}, nil
		}
	}
	return tx
}

func settlementInvoice(labID uuid.UUID) *Invoice {
	return &Invoice{
		Number:    "INV-20250310-0A1B2C3D",
		PatientID: uuid.New(),
		IssuedOn:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Items: []LineItem{
			{Kind: KindLab, Description: "CBC", Quantity: 1, UnitPrice: dec("25"), LabOrderID: &labID},
		},
		Subtotal:   dec("25.00"),
		Tax:        dec("1.25"),
		Total:      dec("26.25"),
		PaidAmount: dec("26.25"),
		Balance:    dec("0"),
		Status:     InvoicePaid,
	}
}

func TestSettlementClaimsAndCommits(t *testing.T) {
	labID := uuid.New()
	tx := settlementTx(t, "UPDATE 1", true)
	repo := &PgRepository{pool: fakePool{tx: tx}}

	inv, err := repo.CreateInvoice(context.Background(), settlementInvoice(labID))
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.NotEqual(t, uuid.Nil, inv.ID)
	assert.Equal(t, inv.ID, inv.Items[0].InvoiceID)
}

func TestSettlementRollsBackLostClaim(t *testing.T) {
	labID := uuid.New()
	tx := settlementTx(t, "UPDATE 0", true)
	repo := &PgRepository{pool: fakePool{tx: tx}}

	_, err := repo.CreateInvoice(context.Background(), settlementInvoice(labID))
	assert.ErrorIs(t, err, ErrOrderAlreadyBilled)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestSettlementLostClaimOnUnknownOrder(t *testing.T) {
	labID := uuid.New()
	tx := settlementTx(t, "UPDATE 0", false)
	repo := &PgRepository{pool: fakePool{tx: tx}}

	_, err := repo.CreateInvoice(context.Background(), settlementInvoice(labID))
	assert.ErrorIs(t, err, ErrLabOrderNotFound)
	assert.False(t, tx.committed)
}
