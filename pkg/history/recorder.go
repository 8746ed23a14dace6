package history

import (
	"database/sql"
	"fmt"
	"time"
)

// Posting is one recorded two-phase mutation.
type Posting struct {
	ID          int64
	Workflow    string
	BuildingID  int64
	InvoiceID   int64
	Amount      float64
	PostingDate string
	Reference   string
	RecordedAt  time.Time
}

// Recorder manages posting history operations.
type Recorder struct {
	conn *Connection
}

// NewRecorder creates a Recorder on an open connection.
func NewRecorder(conn *Connection) *Recorder {
	return &Recorder{conn: conn}
}

// Record appends one posting.
func (r *Recorder) Record(p Posting) error {
	query := `
		INSERT INTO posting_history (workflow, building_id, invoice_id, amount, posting_date, reference)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.conn.Exec(query,
		p.Workflow,
		p.BuildingID,
		p.InvoiceID,
		p.Amount,
		p.PostingDate,
		p.Reference,
	)
	if err != nil {
		return fmt.Errorf("failed to record posting: %w", err)
	}
	return nil
}

// List returns the most recent postings, newest first.
func (r *Recorder) List(limit int) ([]Posting, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, workflow, building_id, invoice_id, amount, posting_date, reference, recorded_at
		FROM posting_history
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`
	rows, err := r.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	defer rows.Close()

	var postings []Posting
	for rows.Next() {
		var p Posting
		var ref sql.NullString
		if err := rows.Scan(&p.ID, &p.Workflow, &p.BuildingID, &p.InvoiceID,
			&p.Amount, &p.PostingDate, &ref, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		p.Reference = ref.String
		postings = append(postings, p)
	}
	return postings, nil
}

// Stats summarizes the posting history.
type Stats struct {
	TotalCredits   int
	TotalDiscounts int
	TotalPayments  int
	LastPosting    sql.NullString
}

// GetStats aggregates posting counts per workflow.
func (r *Recorder) GetStats() (*Stats, error) {
	var stats Stats

	counts := map[string]*int{
		"credit":   &stats.TotalCredits,
		"discount": &stats.TotalDiscounts,
		"payment":  &stats.TotalPayments,
	}
	for workflow, dst := range counts {
		err := r.conn.QueryRow(`SELECT COUNT(*) FROM posting_history WHERE workflow = ?`, workflow).Scan(dst)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s postings: %w", workflow, err)
		}
	}

	err := r.conn.QueryRow(`SELECT MAX(recorded_at) FROM posting_history`).Scan(&stats.LastPosting)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last posting time: %w", err)
	}

	return &stats, nil
}
