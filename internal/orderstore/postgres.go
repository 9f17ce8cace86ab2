package orderstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/restopos/api/internal/enum"
	"github.com/restopos/api/internal/kitchen"
	"github.com/restopos/api/internal/order"
)

const maxOrderNumberRetries = 3

// ActiveWindow is how far back ListOrders looks.
const ActiveWindow = 24 * time.Hour

// DB is the subset of *pgxpool.Pool the Postgres store needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the authoritative Order Store. Lines are kept as a JSONB
// document per order; kitchen statuses and the pickup ledger live in their
// own tables so transitions are row-level and the ledger is append-only.
type Postgres struct {
	db  DB
	now func() time.Time
}

// NewPostgres creates a Postgres store over a pool.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

const nextOrderNumberSQL = `SELECT COALESCE(MAX(order_number), 0) + 1 FROM orders`

const insertOrderSQL = `
INSERT INTO orders (id, order_number, cart_id, lines, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`

const updateOrderSQL = `
UPDATE orders SET lines = $2, updated_at = $3
WHERE id = $1
RETURNING order_number, cart_id, created_at, updated_at`

const deleteRemovedStatusesSQL = `
DELETE FROM kitchen_statuses
WHERE order_id = $1 AND NOT (line_id::text = ANY($2::text[]))`

const lockOrderSQL = `SELECT lines FROM orders WHERE id = $1 FOR UPDATE`

const getStatusSQL = `
SELECT status FROM kitchen_statuses
WHERE order_id = $1 AND line_id = $2 AND kitchen = $3`

const upsertStatusSQL = `
INSERT INTO kitchen_statuses (order_id, line_id, kitchen, status, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (order_id, line_id, kitchen) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`

const insertLedgerSQL = `
INSERT INTO pickup_ledger (id, order_id, cart_line_id, kitchen, picked_up_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`

const listOrdersSQL = `
SELECT id, order_number, cart_id, lines, created_at, updated_at
FROM orders
WHERE created_at >= $1
ORDER BY created_at, order_number`

const listStatusesSQL = `
SELECT ks.order_id, ks.line_id, ks.kitchen, ks.status
FROM kitchen_statuses ks
JOIN orders o ON o.id = ks.order_id
WHERE o.created_at >= $1`

const listLedgerSQL = `
SELECT id, order_id, cart_line_id, kitchen, picked_up_at
FROM pickup_ledger
WHERE $1::text = '' OR kitchen = $1::text
ORDER BY picked_up_at, id`

// CreateOrder stores a new order and assigns its number. Retries up to
// maxOrderNumberRetries times when two transactions pick the same number.
func (p *Postgres) CreateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		out, err := p.createOrderTx(ctx, o)
		if err == nil {
			return out, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return order.Order{}, err
	}
	return order.Order{}, lastErr
}

// isOrderNumberConflict checks for a unique violation on the order number
// (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func (p *Postgres) createOrderTx(ctx context.Context, o order.Order) (order.Order, error) {
	if len(o.Lines) == 0 {
		return order.Order{}, fmt.Errorf("%w: order has no lines", order.ErrValidation)
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return order.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var number int32
	if err := tx.QueryRow(ctx, nextOrderNumberSQL).Scan(&number); err != nil {
		return order.Order{}, fmt.Errorf("get next order number: %w", err)
	}

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.Number = formatNumber(number)
	o.CreatedAt = p.now()
	o.UpdatedAt = o.CreatedAt

	lines, err := encodeLines(o.Lines)
	if err != nil {
		return order.Order{}, err
	}
	if _, err := tx.Exec(ctx, insertOrderSQL, o.ID, number, cartID(o.CartID), lines, o.CreatedAt); err != nil {
		return order.Order{}, fmt.Errorf("insert order: %w", err)
	}
	if err := writeStatuses(ctx, tx, o.ID, o.Lines, o.CreatedAt); err != nil {
		return order.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return o, nil
}

// UpdateOrder replaces the order's lines. Statuses of lines that are gone
// are dropped; statuses of surviving lines are left to the transitions.
func (p *Postgres) UpdateOrder(ctx context.Context, id uuid.UUID, o order.Order) (order.Order, error) {
	if len(o.Lines) == 0 {
		return order.Order{}, fmt.Errorf("%w: order has no lines", order.ErrValidation)
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return order.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	lines, err := encodeLines(o.Lines)
	if err != nil {
		return order.Order{}, err
	}

	var (
		number int32
		cart   pgtype.Text
	)
	o.ID = id
	err = tx.QueryRow(ctx, updateOrderSQL, id, lines, p.now()).Scan(&number, &cart, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return order.Order{}, fmt.Errorf("update order: %w", err)
	}
	o.Number = formatNumber(number)
	o.CartID = cart.String

	keep := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		keep = append(keep, l.ID.String())
	}
	if _, err := tx.Exec(ctx, deleteRemovedStatusesSQL, id, keep); err != nil {
		return order.Order{}, fmt.Errorf("delete removed statuses: %w", err)
	}

	statuses, err := orderStatuses(ctx, tx, id)
	if err != nil {
		return order.Order{}, err
	}
	for i := range o.Lines {
		o.Lines[i].KitchenStatuses = statuses[o.Lines[i].ID]
		if o.Lines[i].KitchenStatuses == nil {
			o.Lines[i].KitchenStatuses = make(map[string]string)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return o, nil
}

// MarkPrepared moves a kitchen's portion of a line to PREPARED.
func (p *Postgres) MarkPrepared(ctx context.Context, orderID, lineID uuid.UUID, k string) (string, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := p.transition(ctx, tx, orderID, lineID, k, enum.KitchenStatusPrepared); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return enum.KitchenStatusPrepared, nil
}

// MarkPickedUp moves a kitchen's portion of a line to PICKED_UP and appends
// the ledger entry in the same transaction.
func (p *Postgres) MarkPickedUp(ctx context.Context, orderID, lineID uuid.UUID, k string) (string, order.PickupLedgerEntry, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return "", order.PickupLedgerEntry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	at, err := p.transition(ctx, tx, orderID, lineID, k, enum.KitchenStatusPickedUp)
	if err != nil {
		return "", order.PickupLedgerEntry{}, err
	}

	entry := order.PickupLedgerEntry{
		ID:         uuid.New(),
		OrderID:    orderID,
		CartLineID: lineID,
		Kitchen:    k,
		PickedUpAt: at,
	}
	if _, err := tx.Exec(ctx, insertLedgerSQL, entry.ID, entry.OrderID, entry.CartLineID, entry.Kitchen, entry.PickedUpAt); err != nil {
		return "", order.PickupLedgerEntry{}, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", order.PickupLedgerEntry{}, fmt.Errorf("commit tx: %w", err)
	}
	return enum.KitchenStatusPickedUp, entry, nil
}

// transition locks the order row, checks the move against the current
// status and writes the new one.
func (p *Postgres) transition(ctx context.Context, tx pgx.Tx, orderID, lineID uuid.UUID, k, next string) (time.Time, error) {
	var payload []byte
	if err := tx.QueryRow(ctx, lockOrderSQL, orderID).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("%w: %s", ErrNotFound, orderID)
		}
		return time.Time{}, fmt.Errorf("lock order: %w", err)
	}

	var lines []order.CartLine
	if err := json.Unmarshal(payload, &lines); err != nil {
		return time.Time{}, fmt.Errorf("decode order lines: %w", err)
	}
	o := order.Order{ID: orderID, Lines: lines}
	line, ok := o.Line(lineID)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: line %s", ErrNotFound, lineID)
	}
	if !kitchen.Touches(*line, k) {
		return time.Time{}, kitchen.ErrPortionNotFound
	}

	current := enum.KitchenStatusPending
	err := tx.QueryRow(ctx, getStatusSQL, orderID, lineID, k).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, fmt.Errorf("get status: %w", err)
	}
	if err := kitchen.ValidateTransition(k, current, next); err != nil {
		return time.Time{}, err
	}

	at := p.now()
	if _, err := tx.Exec(ctx, upsertStatusSQL, orderID, lineID, k, next, at); err != nil {
		return time.Time{}, fmt.Errorf("write status: %w", err)
	}
	return at, nil
}

// ListOrders returns orders created within ActiveWindow with their statuses.
func (p *Postgres) ListOrders(ctx context.Context) ([]order.Order, error) {
	since := p.now().Add(-ActiveWindow)

	rows, err := p.db.Query(ctx, listOrdersSQL, since)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		var (
			o       order.Order
			number  int32
			cart    pgtype.Text
			payload []byte
		)
		if err := rows.Scan(&o.ID, &number, &cart, &payload, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if err := json.Unmarshal(payload, &o.Lines); err != nil {
			return nil, fmt.Errorf("decode order %s lines: %w", o.ID, err)
		}
		o.Number = formatNumber(number)
		o.CartID = cart.String
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	statuses, err := p.statusesSince(ctx, since)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		for j := range orders[i].Lines {
			l := &orders[i].Lines[j]
			l.KitchenStatuses = statuses[statusOwner{orders[i].ID, l.ID}]
			if l.KitchenStatuses == nil {
				l.KitchenStatuses = make(map[string]string)
			}
		}
	}
	return orders, nil
}

// Record implements kitchen.Ledger. Entries written by MarkPickedUp are
// already present and are left alone.
func (p *Postgres) Record(ctx context.Context, e order.PickupLedgerEntry) error {
	if _, err := p.db.Exec(ctx, insertLedgerSQL, e.ID, e.OrderID, e.CartLineID, e.Kitchen, e.PickedUpAt); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// List implements kitchen.Ledger. An empty kitchen lists all entries.
func (p *Postgres) List(ctx context.Context, k string) ([]order.PickupLedgerEntry, error) {
	rows, err := p.db.Query(ctx, listLedgerSQL, k)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	entries := []order.PickupLedgerEntry{}
	for rows.Next() {
		var e order.PickupLedgerEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.CartLineID, &e.Kitchen, &e.PickedUpAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return entries, nil
}

type statusOwner struct {
	orderID uuid.UUID
	lineID  uuid.UUID
}

func (p *Postgres) statusesSince(ctx context.Context, since time.Time) (map[statusOwner]map[string]string, error) {
	rows, err := p.db.Query(ctx, listStatusesSQL, since)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[statusOwner]map[string]string)
	for rows.Next() {
		var (
			key       statusOwner
			k, status string
		)
		if err := rows.Scan(&key.orderID, &key.lineID, &k, &status); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		if out[key] == nil {
			out[key] = make(map[string]string)
		}
		out[key][k] = status
	}
	return out, rows.Err()
}

func orderStatuses(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (map[uuid.UUID]map[string]string, error) {
	rows, err := tx.Query(ctx, `SELECT line_id, kitchen, status FROM kitchen_statuses WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]map[string]string)
	for rows.Next() {
		var (
			lineID    uuid.UUID
			k, status string
		)
		if err := rows.Scan(&lineID, &k, &status); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		if out[lineID] == nil {
			out[lineID] = make(map[string]string)
		}
		out[lineID][k] = status
	}
	return out, rows.Err()
}

func writeStatuses(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, lines []order.CartLine, at time.Time) error {
	for _, l := range lines {
		for k, status := range l.KitchenStatuses {
			if status == "" || status == enum.KitchenStatusPending {
				continue
			}
			if _, err := tx.Exec(ctx, upsertStatusSQL, orderID, l.ID, k, status, at); err != nil {
				return fmt.Errorf("write status: %w", err)
			}
		}
	}
	return nil
}

// encodeLines stores lines without their statuses; the kitchen_statuses
// table is the only source for those.
func encodeLines(lines []order.CartLine) ([]byte, error) {
	stripped := make([]order.CartLine, len(lines))
	for i, l := range lines {
		if l.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: line %d has no id", order.ErrValidation, i)
		}
		stripped[i] = l
		stripped[i].KitchenStatuses = nil
	}
	data, err := json.Marshal(stripped)
	if err != nil {
		return nil, fmt.Errorf("encode order lines: %w", err)
	}
	return data, nil
}

func cartID(id string) pgtype.Text {
	return pgtype.Text{String: id, Valid: id != ""}
}

func formatNumber(n int32) string {
	return fmt.Sprintf("%04d", n)
}
