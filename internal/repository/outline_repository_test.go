package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutlineRepositoryAttachEvaluations(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewOutlineRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO outline_evaluations").
		WithArgs("outline-1", "eval-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO outline_evaluations").
		WithArgs("outline-1", "eval-2").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.AttachEvaluations(context.Background(), "outline-1", []string{"eval-1", "eval-2"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutlineRepositoryAttachRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewOutlineRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO outline_evaluations").
		WithArgs("outline-1", "eval-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO outline_evaluations").
		WithArgs("outline-1", "eval-2").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.AttachEvaluations(context.Background(), "outline-1", []string{"eval-1", "eval-2"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutlineRepositoryAttachNothing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewOutlineRepository(db)

	err := repo.AttachCourses(context.Background(), "outline-1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutlineRepositoryListEvaluations(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewOutlineRepository(db)

	rows := sqlmock.NewRows([]string{"id", "percentage", "method", "note", "created_at"}).
		AddRow("eval-1", 60.0, "final exam", "", time.Now()).
		AddRow("eval-2", 40.0, "coursework", "", time.Now())
	mock.ExpectQuery("SELECT e.id, e.percentage").
		WithArgs("outline-1").
		WillReturnRows(rows)

	evaluations, err := repo.ListEvaluations(context.Background(), "outline-1")
	require.NoError(t, err)
	require.Len(t, evaluations, 2)
	assert.Equal(t, 60.0, evaluations[0].Percentage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutlineRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewOutlineRepository(db)

	outlineRows := sqlmock.NewRows([]string{"id", "name", "credit", "overview", "image", "is_approved", "lecturer_id", "lesson_id", "created_at", "updated_at"}).
		AddRow("outline-1", "Algorithms", 3, "Sorting", "", false, "lect-1", "lesson-1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT o.id, o.name").
		WithArgs("outline-1").
		WillReturnRows(outlineRows)
	mock.ExpectQuery("SELECT e.id, e.percentage").
		WithArgs("outline-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "percentage", "method", "note", "created_at"}))
	mock.ExpectQuery("SELECT c.id, c.year").
		WithArgs("outline-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "year", "created_at"}))

	outline, err := repo.FindByID(context.Background(), "outline-1")
	require.NoError(t, err)
	assert.Equal(t, "Algorithms", outline.Name)
	assert.Empty(t, outline.Evaluations)
	assert.NoError(t, mock.ExpectationsWereMet())
}
