package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQuery     = `(?s)^\s*INSERT\s+INTO\s+users\s*\(name,\s*email,\s*age,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`
	selectByEmail   = `(?s)^\s*SELECT\s+id,\s*name,\s*email,\s*age,\s*password_hash,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	selectByID      = `(?s)^\s*SELECT\s+id,\s*name,\s*email,\s*age,\s*password_hash,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	selectAll       = `(?s)^\s*SELECT\s+.*\s+FROM\s+users\s+ORDER\s+BY\s+id\s*$`
	updateQuery     = `(?s)^\s*UPDATE\s+users\s+SET\s+name\s*=\s*COALESCE\(\$1,\s*name\),.*password_hash\s*=\s*COALESCE\(\$4,\s*password_hash\),\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$5\s+RETURNING\s+.*$`
	deleteUserQuery = `(?s)^\s*DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
)

var userCols = []string{"id", "name", "email", "age", "password_hash", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(insertQuery).
		WithArgs("Alice", "a@x.com", 30, "$2a$10$hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	u, err := repo.Create(context.Background(), &models.User{Name: "Alice", Email: "a@x.com", Age: 30, PasswordHash: "$2a$10$hash"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, now, u.CreatedAt)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WithArgs("Alice", "a@x.com", 30, "h").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Name: "Alice", Email: "a@x.com", Age: 30, PasswordHash: "h"})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Name: "Alice", Email: "a@x.com", Age: 30, PasswordHash: "h"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestGetByEmail(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		setup   func(m sqlmock.Sqlmock)
		wantErr error
		wantID  int64
	}{
		{
			name: "found",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectByEmail).WithArgs("a@x.com").
					WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "A", "a@x.com", 30, "h", now, now))
			},
			wantID: 1,
		},
		{
			name: "not found",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectByEmail).WithArgs("a@x.com").WillReturnError(sql.ErrNoRows)
			},
			wantErr: common.ErrorNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			tt.setup(mock)

			u, err := repo.GetByEmail(context.Background(), "a@x.com")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, u.ID)
			assert.Equal(t, "h", u.PasswordHash)
		})
	}
}

func TestGetByID_NotFoundAndDBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectByID).WithArgs(int64(5)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(selectByID).WithArgs(int64(6)).WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), 5)
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.GetByID(context.Background(), 6)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(selectAll).WillReturnRows(sqlmock.NewRows(userCols).
		AddRow(int64(1), "A", "a@x.com", 30, "h1", now, now).
		AddRow(int64(2), "B", "b@x.com", 25, "h2", now, now))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b@x.com", list[1].Email)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectAll).WillReturnRows(sqlmock.NewRows(userCols))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUpdate(t *testing.T) {
	now := time.Now()
	name := "New"

	tests := []struct {
		name    string
		result  func(e *sqlmock.ExpectedQuery)
		wantErr error
	}{
		{
			name: "success",
			result: func(e *sqlmock.ExpectedQuery) {
				e.WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "New", "a@x.com", 30, "h", now, now))
			},
		},
		{
			name:    "missing user",
			result:  func(e *sqlmock.ExpectedQuery) { e.WillReturnError(sql.ErrNoRows) },
			wantErr: common.ErrorNotFound,
		},
		{
			name:    "email taken",
			result:  func(e *sqlmock.ExpectedQuery) { e.WillReturnError(&pgconn.PgError{Code: "23505"}) },
			wantErr: common.ErrorAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			tt.result(mock.ExpectQuery(updateQuery).WithArgs("New", nil, nil, nil, int64(1)))

			u, err := repo.Update(context.Background(), 1, models.UserUpdate{Name: &name})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "New", u.Name)
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		result  driver.Result
		wantErr error
	}{
		{name: "deleted", result: sqlmock.NewResult(0, 1)},
		{name: "missing", result: sqlmock.NewResult(0, 0), wantErr: common.ErrorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(deleteUserQuery).WithArgs(int64(3)).WillReturnResult(tt.result)

			err := repo.Delete(context.Background(), 3)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDelete_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(deleteUserQuery).WithArgs(int64(3)).WillReturnError(errors.New("db err"))

	err := repo.Delete(context.Background(), 3)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}
