package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"usergate.org/internal/user"
)

var testCols = []string{"id", "external_id", "name", "last_name", "email", "phone", "role", "created_at", "updated_at"}

func testRow(id int64, ext, email string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(testCols).AddRow(id, ext, "Ada", "Lovelace", email, "", "USER", now, now)
}

func TestSaveReturnsAssignedID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("insert into users").
		WithArgs("sub-1", "Ada", "Lovelace", "ada@example.com", "", "USER").
		WillReturnRows(testRow(7, "sub-1", "ada@example.com"))

	s := NewWithDB(db)
	got, err := s.Save(context.Background(), user.User{
		ExternalID: "sub-1", Name: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Role: "USER",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got.ID != 7 || got.ExternalID != "sub-1" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveMapsUniqueViolations(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("insert into users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectQuery("insert into users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_external_id_key"})

	s := NewWithDB(db)
	if _, err := s.Save(context.Background(), user.User{}); !errors.Is(err, user.ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}
	if _, err := s.Save(context.Background(), user.User{}); !errors.Is(err, user.ErrDuplicateExternalID) {
		t.Fatalf("want ErrDuplicateExternalID, got %v", err)
	}
}

func TestFindByExternalIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users where external_id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	s := NewWithDB(db)
	if _, err := s.FindByExternalID(context.Background(), "missing"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users where email").
		WithArgs("ada@example.com").
		WillReturnRows(testRow(3, "sub-3", "ada@example.com"))

	s := NewWithDB(db)
	got, err := s.FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got.ID != 3 || got.Email != "ada@example.com" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestExistsByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select exists").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	s := NewWithDB(db)
	ok, err := s.ExistsByEmail(context.Background(), "ada@example.com")
	if err != nil || !ok {
		t.Fatalf("ExistsByEmail: %v %v", ok, err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from users").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewWithDB(db)
	if err := s.Delete(context.Background(), "missing"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListReturnsPageAndTotal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery("select .* from users order by id").
		WithArgs(2, 10).
		WillReturnRows(testRow(11, "sub-11", "a@example.com").AddRow(
			12, "sub-12", "Bea", "Byte", "b@example.com", "", "USER", time.Now(), time.Now(),
		))

	s := NewWithDB(db)
	users, total, err := s.List(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 42 || len(users) != 2 {
		t.Fatalf("got total=%d len=%d", total, len(users))
	}
	if users[1].ExternalID != "sub-12" {
		t.Fatalf("unexpected order: %+v", users)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
