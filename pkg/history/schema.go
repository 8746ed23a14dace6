// Package history provides a local SQLite log of committed financial
// postings (applied credits, applied discounts, payments) for audit and
// stats, independent of the backend.
package history

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Posting history table
-- One row per committed two-phase mutation issued from this machine
CREATE TABLE IF NOT EXISTS posting_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    workflow TEXT NOT NULL,            -- 'credit', 'discount' or 'payment'
    building_id INTEGER NOT NULL,
    invoice_id INTEGER NOT NULL,
    amount REAL NOT NULL,
    posting_date TEXT NOT NULL,        -- YYYY-MM-DD
    reference TEXT,
    recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_posting_history_invoice
    ON posting_history(invoice_id);

CREATE INDEX IF NOT EXISTS idx_posting_history_workflow
    ON posting_history(workflow);
`

// InitializeSchema creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
