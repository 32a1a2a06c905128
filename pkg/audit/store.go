package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
)

const insertMessage = `
	INSERT INTO messages (facility, severity, timestamp, hostname, appname, procid, msgid,
		principal_id, request_id, connection_id, result, sdata, message)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const selectRequestMessages = `
	SELECT severity, timestamp, msgid, principal_id, request_id, connection_id, result, message
	FROM messages
	WHERE request_id = $1
	ORDER BY timestamp, id`

// Store persists audit events to the messages table.
type Store struct {
	db       *sql.DB
	hostname string
	now      func() time.Time
}

// Message is one persisted audit line. The principal, request, connection
// and result are copied out of the structured data into their own columns.
type Message struct {
	Facility     int                          `json:"facility"`
	Severity     Severity                     `json:"severity"`
	Timestamp    time.Time                    `json:"timestamp"`
	Hostname     string                       `json:"hostname,omitempty"`
	Procid       string                       `json:"procid,omitempty"`
	Msgid        string                       `json:"msgid"`
	PrincipalID  string                       `json:"principal_id,omitempty"`
	RequestID    string                       `json:"request_id,omitempty"`
	ConnectionID string                       `json:"connection_id,omitempty"`
	Result       string                       `json:"result,omitempty"`
	Sdata        map[string]map[string]string `json:"sdata,omitempty"`
	Message      string                       `json:"message"`
}

// NewStore opens the database named by AUDIT_DATABASE_URL. It returns nil
// when the variable is unset.
func NewStore() (*Store, error) {
	dbURL := os.Getenv("AUDIT_DATABASE_URL")
	if dbURL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	return NewStoreWithDB(db), nil
}

// NewStoreWithDB creates a store on an open database.
func NewStoreWithDB(db *sql.DB) *Store {
	hostname, _ := os.Hostname()
	return &Store{db: db, hostname: hostname, now: time.Now}
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// NewMessage captures event as it would be persisted at t.
func NewMessage(event Event, t time.Time) Message {
	sd := event.StructuredData()
	return Message{
		Facility:     event.Facility(),
		Severity:     event.Severity(),
		Timestamp:    t.UTC(),
		Msgid:        event.MessageID(),
		PrincipalID:  sd[SDIDAuth]["user"],
		RequestID:    sd[SDIDRequest]["id"],
		ConnectionID: sd[SDIDRequest]["connection"],
		Result:       sd[SDIDAction]["result"],
		Sdata:        sd,
		Message:      event.Message(),
	}
}

// Save persists event.
func (s *Store) Save(event Event) error {
	if s.db == nil {
		return nil
	}

	m := NewMessage(event, s.now())
	sdata, err := json.Marshal(m.Sdata)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(insertMessage,
		m.Facility,
		int(m.Severity),
		m.Timestamp,
		s.hostname,
		AppName,
		os.Getpid(),
		m.Msgid,
		nullable(m.PrincipalID),
		nullable(m.RequestID),
		nullable(m.ConnectionID),
		nullable(m.Result),
		sdata,
		m.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to save %s audit message: %w", m.Msgid, err)
	}
	return nil
}

// ForRequest returns the audit trail of one execution request, oldest first.
func (s *Store) ForRequest(ctx context.Context, requestID string) ([]Message, error) {
	if s.db == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, selectRequestMessages, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail of request %s: %w", requestID, err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			m                                   Message
			severity                            int
			principal, request, conn, resultCol sql.NullString
		)
		if err := rows.Scan(&severity, &m.Timestamp, &m.Msgid, &principal, &request, &conn, &resultCol, &m.Message); err != nil {
			return nil, err
		}
		m.Severity = Severity(severity)
		m.PrincipalID = principal.String
		m.RequestID = request.String
		m.ConnectionID = conn.String
		m.Result = resultCol.String
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
