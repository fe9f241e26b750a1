package workflow

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGenerateUniqueTag_FirstDrawFree(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	tag, err := generateUniqueTag(context.Background(), db, 1, "AST-", 6)
	if err != nil {
		t.Fatalf("generateUniqueTag: %v", err)
	}
	if !strings.HasPrefix(tag, "AST-") {
		t.Errorf("tag %q missing prefix", tag)
	}
	if ok, _ := regexp.MatchString(`^AST-\d{6}$`, tag); !ok {
		t.Errorf("tag %q does not match fixed-width format", tag)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGenerateUniqueTag_SuccessiveTagsDistinct(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		tag, err := generateUniqueTag(context.Background(), db, 1, "AST-", 12)
		if err != nil {
			t.Fatalf("generateUniqueTag #%d: %v", i+1, err)
		}
		if seen[tag] {
			t.Fatalf("tag %q allocated twice", tag)
		}
		seen[tag] = true
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGenerateUniqueTag_Exhaustion(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// Every draw collides.
	for i := 0; i < tagAttempts; i++ {
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	}

	_, err = generateUniqueTag(context.Background(), db, 1, "AST-", 1)
	if !errors.Is(err, ErrTagExhausted) {
		t.Errorf("expected ErrTagExhausted, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGenerateUniqueTag_LengthBounds(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	for _, length := range []int{0, -1, 19} {
		if _, err := generateUniqueTag(context.Background(), db, 1, "AST-", length); !errors.Is(err, ErrValidation) {
			t.Errorf("length %d: expected ErrValidation, got %v", length, err)
		}
	}
}
