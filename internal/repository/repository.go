package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contactbook/internal/model"
)

// ErrNotFound is returned when no contact row matches the given id.
var ErrNotFound = errors.New("contact not found")

// ErrEmailTaken is returned when an insert or update violates the unique
// constraint on the email column.
var ErrEmailTaken = errors.New("email already exists")

// schema creates the contacts table. Running it against a database where the
// table already exists is a no-op.
const schema = `
	CREATE TABLE IF NOT EXISTS contacts (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(150) UNIQUE,
		phone VARCHAR(30),
		company VARCHAR(100),
		notes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// ContactRepository exposes the CRUD operations over contacts. It is
// constructed once at startup and handed to the HTTP layer; tests substitute
// an implementation backed by a mock database.
type ContactRepository interface {
	// EnsureSchema creates the contacts table if it does not exist yet.
	EnsureSchema() error

	// Ping executes a trivial round-trip query against the database.
	Ping() error

	// FindPage returns one page of contacts matching the search text,
	// newest first. An empty search text matches all contacts.
	FindPage(search string, page int, limit int) (model.ContactPage, error)

	// FindByID returns the contact with the given id, or ErrNotFound.
	FindByID(id int64) (model.Contact, error)

	// Insert stores a new contact and returns it with the assigned id and
	// creation timestamp. Returns ErrEmailTaken on a duplicate email.
	Insert(contact model.Contact) (model.Contact, error)

	// UpdateByID overwrites the submitted fields of the contact with the
	// given id and returns the full updated row. Returns ErrNotFound if the
	// id does not exist and ErrEmailTaken on a duplicate email.
	UpdateByID(id int64, update model.ContactUpdate) (model.Contact, error)

	// DeleteByID removes the contact with the given id, or ErrNotFound.
	DeleteByID(id int64) error
}

// Connect opens a database connection. The connection parameters are taken
// from the system's environment variables.
func Connect() (*sql.DB, error) {
	name := os.Getenv("DBNAME")
	if name == "" {
		name = "contacts"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		os.Getenv("DBUSER"), os.Getenv("DBPWD"), os.Getenv("DBHOST"), name)
	return sql.Open("mysql", dsn)
}

// mysqlRepository implements ContactRepository on a MySQL database.
type mysqlRepository struct {
	db *sqlx.DB
}

// NewMySQL wraps the specified sql database in a ContactRepository. The
// database argument can be a real database for production use or a mock
// database within unit tests.
func NewMySQL(sqlDB *sql.DB) ContactRepository {
	return &mysqlRepository{db: sqlx.NewDb(sqlDB, "mysql")}
}

func (r *mysqlRepository) EnsureSchema() error {
	_, err := r.db.Exec(schema)
	return err
}

func (r *mysqlRepository) Ping() error {
	var ok int
	return r.db.Get(&ok, "SELECT 1")
}

func (r *mysqlRepository) FindPage(search string, page int, limit int) (model.ContactPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	// The WHERE clause is shared between the count and the page select so
	// that total always refers to the same set of rows.
	where := ""
	var args []interface{}
	if search != "" {
		where = "WHERE name LIKE ? OR email LIKE ? OR phone LIKE ? "
		like := "%" + escapeLike(search) + "%"
		args = append(args, like, like, like)
	}

	result := model.ContactPage{Data: []model.Contact{}, Page: page, Limit: limit}
	err := r.db.Get(&result.Total, "SELECT COUNT(*) FROM contacts "+where, args...)
	if err != nil {
		return model.ContactPage{}, err
	}
	result.Pages = (result.Total + limit - 1) / limit

	offset := (page - 1) * limit
	query := "SELECT * FROM contacts " + where +
		"ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	err = r.db.Select(&result.Data, query, append(args, limit, offset)...)
	if err != nil {
		return model.ContactPage{}, err
	}
	return result, nil
}

// escapeLike escapes the LIKE wildcard characters so that the search text is
// matched as a literal substring.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *mysqlRepository) FindByID(id int64) (model.Contact, error) {
	var contact model.Contact
	err := r.db.Get(&contact, "SELECT * FROM contacts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, ErrNotFound
	}
	if err != nil {
		return model.Contact{}, err
	}
	return contact, nil
}

func (r *mysqlRepository) Insert(contact model.Contact) (model.Contact, error) {
	result, err := r.db.Exec(
		"INSERT INTO contacts (name, email, phone, company, notes) VALUES (?, ?, ?, ?, ?)",
		contact.Name, contact.Email, contact.Phone, contact.Company, contact.Notes)
	if err != nil {
		if isDuplicateEntry(err) {
			return model.Contact{}, ErrEmailTaken
		}
		return model.Contact{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Contact{}, err
	}
	// Re-select so that the response carries the created_at timestamp
	// assigned by the database.
	return r.FindByID(id)
}

func (r *mysqlRepository) UpdateByID(id int64, update model.ContactUpdate) (model.Contact, error) {
	existing, err := r.FindByID(id)
	if err != nil {
		return model.Contact{}, err
	}
	merged := mergeContact(existing, update)
	_, err = r.db.Exec(
		"UPDATE contacts SET name = ?, email = ?, phone = ?, company = ?, notes = ? WHERE id = ?",
		merged.Name, merged.Email, merged.Phone, merged.Company, merged.Notes, id)
	if err != nil {
		if isDuplicateEntry(err) {
			return model.Contact{}, ErrEmailTaken
		}
		return model.Contact{}, err
	}
	return r.FindByID(id)
}

// mergeContact applies the submitted fields onto the stored contact. Fields
// that were not submitted keep their stored value.
func mergeContact(existing model.Contact, update model.ContactUpdate) model.Contact {
	if update.Name != nil {
		existing.Name = *update.Name
	}
	if update.Email != nil {
		existing.Email = update.Email
	}
	if update.Phone != nil {
		existing.Phone = update.Phone
	}
	if update.Company != nil {
		existing.Company = update.Company
	}
	if update.Notes != nil {
		existing.Notes = update.Notes
	}
	return existing
}

func (r *mysqlRepository) DeleteByID(id int64) error {
	result, err := r.db.Exec("DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateEntry reports whether err is the MySQL duplicate-key error, the
// way the database signals a violation of the unique constraint on email.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
