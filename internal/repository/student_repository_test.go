package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcmou/course-outline-api/internal/models"
)

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT nextval").
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(23)))
	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{Person: models.Person{FirstName: "Jane", LastName: "Doe", Age: 20}}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.Len(t, student.Code, 6)
	assert.Equal(t, "23", student.Code[4:])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByCode(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "account_id", "first_name", "last_name", "age", "gender", "code", "course_id", "created_at", "updated_at"}).
		AddRow("student-1", nil, "Jane", "Doe", 20, true, "000123", nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, account_id, first_name").
		WithArgs("000123").
		WillReturnRows(rows)

	student, err := repo.FindByCode(context.Background(), "000123")
	require.NoError(t, err)
	assert.Equal(t, "student-1", student.ID)
	assert.Nil(t, student.AccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
