package database

import (
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var DB *sql.DB

// Open opens a SQLite database at path with foreign keys enabled and the
// catalog schema in place. Callers own closing the handle.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// SQLite serializes writes anyway; a single connection keeps
	// transactions from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func InitDB() error {
	dbPath := os.Getenv("SQLITE_DB_PATH")
	var err error
	DB, err = Open(dbPath)
	return err
}

func createSchema(db *sql.DB) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			is_admin BOOLEAN DEFAULT FALSE,
			status TEXT DEFAULT 'active',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Create videos table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			classification TEXT NOT NULL,
			file_name TEXT NOT NULL,
			uploader_id TEXT NOT NULL,
			date_uploaded TEXT NOT NULL,
			FOREIGN KEY (uploader_id) REFERENCES users(id)
		)
	`)
	if err != nil {
		return err
	}

	// Create tags table; the unique index is what makes concurrent
	// ensure-tag calls safe.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tags (
			id TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create video<->tag association table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS video_tags (
			video_id TEXT NOT NULL,
			tag_id TEXT NOT NULL,
			PRIMARY KEY (video_id, tag_id),
			FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE,
			FOREIGN KEY (tag_id) REFERENCES tags(id)
		)
	`)
	return err
}

func CreateDefaultAdmin() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")

	// Check if admin already exists
	var count int
	err := DB.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count)
	if err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists")
		return nil
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// Create admin user
	currentTime := time.Now().Format("2006-01-02 15:04:05")
	_, err = DB.Exec(`
		INSERT INTO users (id, email, password, is_admin, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), email, string(hashedPassword), true, "active", currentTime, currentTime)

	return err
}
