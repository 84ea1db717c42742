// Package store persists processed articles in an embedded SQLite table.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Article is one processed feed entry. PostID and MessageID are optional:
// an empty PostID means the detail page never yielded one, a zero
// MessageID means no channel message exists (bootstrap records, or a
// failed send).
type Article struct {
	ID        int64
	PostID    string
	Title     string
	Link      string
	Published int64 // epoch seconds from the feed
	MessageID int64 // telegram message id
}

// Store manages the articles table. The bot runs one poll cycle at a
// time, so access is never contended.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id TEXT,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		published INTEGER NOT NULL,
		telegram_message_id INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_articles_link ON articles(link);
	CREATE INDEX IF NOT EXISTS idx_articles_post_id ON articles(post_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count)
	return count, err
}

// FindByLink returns the article with the given link, or nil if none.
func (s *Store) FindByLink(link string) (*Article, error) {
	return s.findOne(`SELECT id, post_id, title, link, published, telegram_message_id
		FROM articles WHERE link = ? LIMIT 1`, link)
}

// FindByPostID returns the article with the given post id, or nil if none.
func (s *Store) FindByPostID(postID string) (*Article, error) {
	if postID == "" {
		return nil, nil
	}
	return s.findOne(`SELECT id, post_id, title, link, published, telegram_message_id
		FROM articles WHERE post_id = ? LIMIT 1`, postID)
}

func (s *Store) findOne(query string, arg any) (*Article, error) {
	var (
		a         Article
		postID    sql.NullString
		messageID sql.NullInt64
	)

	err := s.db.QueryRow(query, arg).Scan(&a.ID, &postID, &a.Title, &a.Link, &a.Published, &messageID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.PostID = postID.String
	a.MessageID = messageID.Int64
	return &a, nil
}

// Insert stores a new article and returns its id.
func (s *Store) Insert(a *Article) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO articles (post_id, title, link, published, telegram_message_id)
		VALUES (?, ?, ?, ?, ?)`,
		nullString(a.PostID), a.Title, a.Link, a.Published, nullInt64(a.MessageID),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// Update rewrites the mutable fields of an existing article.
func (s *Store) Update(a *Article) error {
	_, err := s.db.Exec(
		`UPDATE articles SET post_id = ?, title = ?, link = ?, telegram_message_id = ?
		WHERE id = ?`,
		nullString(a.PostID), a.Title, a.Link, nullInt64(a.MessageID), a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	return nil
}

// Prune deletes all but the keepLastN most recently inserted articles.
// Insertion order is the autoincrement id, not the published timestamp.
func (s *Store) Prune(keepLastN int) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM articles WHERE id NOT IN (
			SELECT id FROM articles ORDER BY id DESC LIMIT ?
		)`, keepLastN,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune articles: %w", err)
	}

	return result.RowsAffected()
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
