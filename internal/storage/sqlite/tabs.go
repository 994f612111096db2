package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skeebs10/settlr/internal/models"
	"github.com/skeebs10/settlr/internal/storage"
)

// CreateTab persists a new tab aggregate to the database.
func (s *SQLiteStore) CreateTab(ctx context.Context, tab *models.Tab) error {
	if tab.ID == "" {
		tab.ID = uuid.New().String()
	}
	if tab.QRToken == "" {
		tab.QRToken = uuid.New().String()
	}
	if tab.Status == "" {
		tab.Status = models.TabOpen
	}
	if tab.TaxRateBps == 0 {
		tab.TaxRateBps = models.DefaultTaxRateBps
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if tab.CreatedAt.IsZero() {
		tab.CreatedAt = now
	}
	tab.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tabs (id, venue_name, table_name, host_id, status, tip_amount, tax_rate_bps, grace_ends_at, revision, qr_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tab.ID, tab.VenueName, tab.TableName, tab.HostID, string(tab.Status),
		int64(tab.TipAmount), tab.TaxRateBps, graceMillis(tab.GraceEndsAt), tab.Revision,
		tab.QRToken, tab.CreatedAt.UnixMilli(), tab.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tab: %w", err)
	}

	if err := insertChildren(ctx, tx, tab); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveTab replaces the stored aggregate in a single transaction: the tab
// row is updated and its items, claims, and participants are rewritten.
func (s *SQLiteStore) SaveTab(ctx context.Context, tab *models.Tab) error {
	tab.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE tabs SET venue_name = ?, table_name = ?, host_id = ?, status = ?, tip_amount = ?,
		        tax_rate_bps = ?, grace_ends_at = ?, revision = ?, updated_at = ?
		 WHERE id = ?`,
		tab.VenueName, tab.TableName, tab.HostID, string(tab.Status), int64(tab.TipAmount),
		tab.TaxRateBps, graceMillis(tab.GraceEndsAt), tab.Revision, tab.UpdatedAt.UnixMilli(),
		tab.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tab: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	// Child rows are rewritten wholesale; the aggregate is small and this
	// keeps replace-on-reclaim and claim removal trivially correct.
	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE tab_id = ?", tab.ID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM participants WHERE tab_id = ?", tab.ID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}

	if err := insertChildren(ctx, tx, tab); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertChildren writes the tab's items, claims, and participants.
func insertChildren(ctx context.Context, tx *sql.Tx, tab *models.Tab) error {
	for i := range tab.Items {
		item := &tab.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO items (id, tab_id, name, price, position) VALUES (?, ?, ?, ?, ?)",
			item.ID, tab.ID, item.Name, int64(item.Price), i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		for j := range item.Claims {
			c := &item.Claims[j]
			_, err := tx.ExecContext(ctx,
				"INSERT INTO claims (id, item_id, participant_id, claim_type, amount, created_at) VALUES (?, ?, ?, ?, ?, ?)",
				c.ID, item.ID, c.ParticipantID, string(c.Type), int64(c.Amount), c.CreatedAt.UnixMilli(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert claim: %w", err)
			}
		}
	}

	for i := range tab.Participants {
		p := &tab.Participants[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO participants (id, tab_id, display_name, is_host, paid_total) VALUES (?, ?, ?, ?, ?)",
			p.ID, tab.ID, p.DisplayName, boolToInt(p.IsHost), int64(p.PaidTotal),
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}

// GetTab retrieves a tab aggregate by ID, including items, claims, and
// participants. Derived fields are left for the caller to recompute.
func (s *SQLiteStore) GetTab(ctx context.Context, tabID string) (*models.Tab, error) {
	return s.getTab(ctx, "id", tabID)
}

// GetTabByToken retrieves the tab whose QR token matches.
func (s *SQLiteStore) GetTabByToken(ctx context.Context, qrToken string) (*models.Tab, error) {
	return s.getTab(ctx, "qr_token", qrToken)
}

func (s *SQLiteStore) getTab(ctx context.Context, column, value string) (*models.Tab, error) {
	tab := &models.Tab{}
	var status string
	var tip, createdAt, updatedAt int64
	var graceEnds sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, venue_name, table_name, host_id, status, tip_amount, tax_rate_bps, grace_ends_at, revision, qr_token, created_at, updated_at
		 FROM tabs WHERE `+column+` = ?`,
		value,
	).Scan(&tab.ID, &tab.VenueName, &tab.TableName, &tab.HostID, &status, &tip,
		&tab.TaxRateBps, &graceEnds, &tab.Revision, &tab.QRToken, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tab: %w", err)
	}

	tab.Status = models.TabStatus(status)
	tab.TipAmount = models.Cents(tip)
	tab.CreatedAt = time.UnixMilli(createdAt).UTC()
	tab.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if graceEnds.Valid {
		t := time.UnixMilli(graceEnds.Int64).UTC()
		tab.GraceEndsAt = &t
	}

	// Items in insertion order
	itemRows, err := s.db.QueryContext(ctx,
		"SELECT id, name, price FROM items WHERE tab_id = ? ORDER BY position",
		tab.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.Item
		var price int64
		if err := itemRows.Scan(&item.ID, &item.Name, &price); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Price = models.Cents(price)
		tab.Items = append(tab.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	// Claims for each item, oldest first
	for i := range tab.Items {
		item := &tab.Items[i]
		claimRows, err := s.db.QueryContext(ctx,
			"SELECT id, participant_id, claim_type, amount, created_at FROM claims WHERE item_id = ? ORDER BY created_at, id",
			item.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get claims: %w", err)
		}

		for claimRows.Next() {
			var c models.Claim
			var claimType string
			var amount, created int64
			if err := claimRows.Scan(&c.ID, &c.ParticipantID, &claimType, &amount, &created); err != nil {
				claimRows.Close()
				return nil, fmt.Errorf("failed to scan claim: %w", err)
			}
			c.ItemID = item.ID
			c.Type = models.ClaimType(claimType)
			c.Amount = models.Cents(amount)
			c.CreatedAt = time.UnixMilli(created).UTC()
			item.Claims = append(item.Claims, c)
		}
		claimRows.Close()
		if err := claimRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate claims: %w", err)
		}
	}

	// Participants, host first for stable display ordering
	pRows, err := s.db.QueryContext(ctx,
		"SELECT id, display_name, is_host, paid_total FROM participants WHERE tab_id = ? ORDER BY is_host DESC, display_name",
		tab.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer pRows.Close()

	for pRows.Next() {
		var p models.Participant
		var isHost int
		var paid int64
		if err := pRows.Scan(&p.ID, &p.DisplayName, &isHost, &paid); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.IsHost = isHost != 0
		p.PaidTotal = models.Cents(paid)
		tab.Participants = append(tab.Participants, p)
	}
	if err := pRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return tab, nil
}

// ListTabs returns staff-dashboard summaries of all tabs, newest first.
// Claimed subtotals are aggregated in SQL rather than loading every
// aggregate.
func (s *SQLiteStore) ListTabs(ctx context.Context) ([]models.TabSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.venue_name, t.table_name, t.status, t.created_at,
		       COALESCE((SELECT SUM(i.price) FROM items i WHERE i.tab_id = t.id), 0),
		       COALESCE((SELECT SUM(c.amount) FROM claims c JOIN items i ON c.item_id = i.id WHERE i.tab_id = t.id), 0),
		       COALESCE((SELECT SUM(MAX(0,
		           COALESCE((SELECT SUM(c.amount) FROM claims c JOIN items i ON c.item_id = i.id
		                     WHERE i.tab_id = t.id AND c.participant_id = p.id), 0) - p.paid_total))
		          FROM participants p WHERE p.tab_id = t.id AND p.is_host = 0), 0),
		       (SELECT COUNT(*) FROM participants p WHERE p.tab_id = t.id)
		FROM tabs t
		ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}
	defer rows.Close()

	var summaries []models.TabSummary
	for rows.Next() {
		var sum models.TabSummary
		var status string
		var createdAt, subtotal, claimed, unpaid int64
		if err := rows.Scan(&sum.ID, &sum.VenueName, &sum.TableName, &status, &createdAt,
			&subtotal, &claimed, &unpaid, &sum.ParticipantCount); err != nil {
			return nil, fmt.Errorf("failed to scan tab summary: %w", err)
		}
		sum.Status = models.TabStatus(status)
		sum.CreatedAt = time.UnixMilli(createdAt).UTC()
		sum.ItemsSubtotal = models.Cents(subtotal)
		sum.ClaimedSubtotal = models.Cents(claimed)
		sum.UnpaidToHost = models.Cents(unpaid)
		if subtotal > 0 {
			sum.ClaimedPercentage = int((claimed*100 + subtotal/2) / subtotal)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tab summaries: %w", err)
	}

	return summaries, nil
}

func graceMillis(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
