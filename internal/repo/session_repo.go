package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/carevault/carevault/internal/model"
	"github.com/carevault/carevault/internal/pkg/dbutil"
	appErr "github.com/carevault/carevault/internal/pkg/errors"
)

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) CreateSession(ctx context.Context, session *model.ChatSession) error {
	data := map[string]interface{}{
		"id":      session.ID,
		"user_id": session.UserID,
		"title":   session.Title,
		"ctime":   session.Ctime,
		"mtime":   session.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("chat_sessions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SessionRepo) GetSession(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	where := map[string]interface{}{
		"id":      sessionID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("chat_sessions", where, []string{"id", "user_id", "title", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var session model.ChatSession
	if err := rows.Scan(&session.ID, &session.UserID, &session.Title, &session.Ctime, &session.Mtime); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepo) ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "mtime desc",
	}
	sqlStr, args, err := builder.BuildSelect("chat_sessions", where, []string{"id", "user_id", "title", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	sessions := make([]model.ChatSession, 0)
	for rows.Next() {
		var session model.ChatSession
		if err := rows.Scan(&session.ID, &session.UserID, &session.Title, &session.Ctime, &session.Mtime); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *SessionRepo) TouchSession(ctx context.Context, sessionID string, mtime int64) error {
	sqlStr, args, err := builder.BuildUpdate("chat_sessions",
		map[string]interface{}{"id": sessionID},
		map[string]interface{}{"mtime": mtime},
	)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SessionRepo) CreateMessage(ctx context.Context, msg *model.ChatMessage) error {
	data := map[string]interface{}{
		"id":         msg.ID,
		"session_id": msg.SessionID,
		"user_id":    msg.UserID,
		"role":       msg.Role,
		"content":    msg.Content,
		"ctime":      msg.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("chat_messages", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListRecentMessages returns the newest messages first; callers reverse the
// slice to rebuild conversational order.
func (r *SessionRepo) ListRecentMessages(ctx context.Context, sessionID string, limit uint) ([]model.ChatMessage, error) {
	where := map[string]interface{}{
		"session_id": sessionID,
		"_orderby":   "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	sqlStr, args, err := builder.BuildSelect("chat_messages", where, []string{"id", "session_id", "user_id", "role", "content", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	messages := make([]model.ChatMessage, 0)
	for rows.Next() {
		var msg model.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.UserID, &msg.Role, &msg.Content, &msg.Ctime); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
