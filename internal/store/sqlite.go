package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/otomarket/chat-platform/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements DataStore over a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite connects to the SQLite database at the provided DSN and runs
// migrations.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn must be provided")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// go-sqlite3 serializes writers; a single pooled connection also keeps
	// :memory: databases coherent across goroutines.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			user1_id TEXT NOT NULL,
			user2_id TEXT NOT NULL,
			car_id TEXT NOT NULL DEFAULT '',
			unread_user1 INTEGER NOT NULL DEFAULT 0,
			unread_user2 INTEGER NOT NULL DEFAULT 0,
			last_message TEXT NOT NULL DEFAULT '',
			last_message_at DATETIME,
			is_escalated INTEGER NOT NULL DEFAULT 0,
			resolved_by TEXT NOT NULL DEFAULT '',
			resolved_at DATETIME,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_user1 ON rooms(user1_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_user2 ON rooms(user2_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_activity ON rooms(last_message_at DESC)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			body TEXT NOT NULL,
			type TEXT NOT NULL,
			channel TEXT NOT NULL,
			is_read INTEGER NOT NULL DEFAULT 0,
			read_at DATETIME,
			reply_to_id TEXT NOT NULL DEFAULT '',
			deleted INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(room_id) REFERENCES rooms(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(room_id, receiver_id, is_read)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			message_id TEXT PRIMARY KEY,
			file_url TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			media_type TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(message_id) REFERENCES messages(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateRoom inserts a new room.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *model.Room) error {
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, user1_id, user2_id, car_id, is_escalated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		room.ID, room.User1ID, room.User2ID, room.CarID, boolToInt(room.IsEscalated), room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

const roomColumns = `id, user1_id, user2_id, car_id, unread_user1, unread_user2,
	last_message, last_message_at, is_escalated, resolved_by, resolved_at, created_at`

// GetRoom fetches one room by ID, self-rooms included.
func (s *SQLiteStore) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// ListRooms returns the user's rooms ordered by last activity, never-active
// rooms last. Degenerate self-rooms are filtered out.
func (s *SQLiteStore) ListRooms(ctx context.Context, userID string) ([]model.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms
		 WHERE (user1_id = ? OR user2_id = ?) AND user1_id != user2_id
		 ORDER BY last_message_at IS NULL, last_message_at DESC, created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, *room)
	}
	return out, rows.Err()
}

// EscalateRoom flags a room for staff intervention.
func (s *SQLiteStore) EscalateRoom(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET is_escalated = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("escalate room: %w", err)
	}
	return requireAffected(res)
}

// ResolveRoom closes an escalation episode. Resolution is terminal: a room
// with resolved_at already set is not updated again.
func (s *SQLiteStore) ResolveRoom(ctx context.Context, id, staffID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET resolved_by = ?, resolved_at = ? WHERE id = ? AND resolved_at IS NULL`,
		staffID, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("resolve room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve room affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetRoom(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyResolved
	}
	return nil
}

// InsertMessage stores a message and updates the room preview, activity time
// and the receiver's unread counter in one transaction.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *model.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, room_id, sender_id, receiver_id, body, type, channel, is_read, reply_to_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.RoomID, msg.SenderID, msg.ReceiverID, msg.Body,
		string(msg.Type), string(msg.Channel), boolToInt(msg.IsRead), msg.ReplyToID, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE rooms SET
			last_message = ?,
			last_message_at = ?,
			unread_user1 = unread_user1 + CASE WHEN user1_id = ? THEN 1 ELSE 0 END,
			unread_user2 = unread_user2 + CASE WHEN user2_id = ? AND user1_id != user2_id THEN 1 ELSE 0 END
		 WHERE id = ?`,
		preview(msg), msg.CreatedAt, msg.ReceiverID, msg.ReceiverID, msg.RoomID,
	)
	if err != nil {
		return fmt.Errorf("touch room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit message: %w", err)
	}
	return nil
}

// ListMessages returns all non-deleted messages for a room ascending by send
// time, with any attachment joined.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.room_id, m.sender_id, m.receiver_id, m.body, m.type, m.channel,
		        m.is_read, m.read_at, m.reply_to_id, m.created_at,
		        a.file_url, a.file_name, a.file_size, a.media_type, a.created_at
		 FROM messages m
		 LEFT JOIN attachments a ON a.message_id = m.id
		 WHERE m.room_id = ? AND m.deleted = 0
		 ORDER BY m.created_at ASC, m.id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var (
			m        model.Message
			typ, ch  string
			isRead   int
			readAt   sql.NullTime
			fileURL  sql.NullString
			fileName sql.NullString
			fileSize sql.NullInt64
			media    sql.NullString
			attAt    sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.ReceiverID, &m.Body, &typ, &ch,
			&isRead, &readAt, &m.ReplyToID, &m.CreatedAt,
			&fileURL, &fileName, &fileSize, &media, &attAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Type = model.MessageType(typ)
		m.Channel = model.Channel(ch)
		m.IsRead = isRead != 0
		if readAt.Valid {
			t := readAt.Time
			m.ReadAt = &t
		}
		if fileURL.Valid {
			m.Attachment = &model.Attachment{
				MessageID: m.ID,
				FileURL:   fileURL.String,
				FileName:  fileName.String,
				FileSize:  fileSize.Int64,
				MediaType: media.String,
				CreatedAt: attAt.Time,
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag for unread inbound messages and resets the
// receiver's unread counter. Calling it with nothing unread is a no-op.
func (s *SQLiteStore) MarkRead(ctx context.Context, roomID, receiverID string, at time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE messages SET is_read = 1, read_at = ?
		 WHERE room_id = ? AND receiver_id = ? AND is_read = 0`,
		at.UTC(), roomID, receiverID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark read affected: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE rooms SET
			unread_user1 = CASE WHEN user1_id = ? THEN 0 ELSE unread_user1 END,
			unread_user2 = CASE WHEN user2_id = ? THEN 0 ELSE unread_user2 END
		 WHERE id = ?`,
		receiverID, receiverID, roomID,
	)
	if err != nil {
		return 0, fmt.Errorf("reset unread counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit mark read: %w", err)
	}
	return updated, nil
}

// SoftDeleteMessage flags the sender's own message as deleted.
func (s *SQLiteStore) SoftDeleteMessage(ctx context.Context, id, senderID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET deleted = 1 WHERE id = ? AND sender_id = ?`, id, senderID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return requireAffected(res)
}

// InsertAttachment stores the file record for a message.
func (s *SQLiteStore) InsertAttachment(ctx context.Context, att *model.Attachment) error {
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments (message_id, file_url, file_name, file_size, media_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		att.MessageID, att.FileURL, att.FileName, att.FileSize, att.MediaType, att.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func scanRoom(row interface{ Scan(...any) error }) (*model.Room, error) {
	var (
		r          model.Room
		lastMsgAt  sql.NullTime
		escalated  int
		resolvedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.User1ID, &r.User2ID, &r.CarID, &r.UnreadUser1, &r.UnreadUser2,
		&r.LastMessage, &lastMsgAt, &escalated, &r.ResolvedBy, &resolvedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastMsgAt.Valid {
		t := lastMsgAt.Time
		r.LastMessageAt = &t
	}
	r.IsEscalated = escalated != 0
	if resolvedAt.Valid {
		t := resolvedAt.Time
		r.ResolvedAt = &t
	}
	return &r, nil
}

// preview truncates the body for the room list. Envelope payloads are left
// as-is; the listing layer normalizes them before display.
func preview(msg *model.Message) string {
	const max = 120
	if len(msg.Body) <= max {
		return msg.Body
	}
	return msg.Body[:max]
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
