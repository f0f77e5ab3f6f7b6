package catalog

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLRepository_FindByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"product_code", "name", "price", "description", "variants", "discounts", "images", "specifications"}).
		AddRow("P-ABC", "Trail Jacket", 129.95, "Waterproof shell", []byte(`["S","M"]`), 10.0, []byte(`["jacket.png"]`), []byte(`{"color":"green"}`))

	mock.ExpectQuery("SELECT product_code, name, price, description, variants, discounts, images, specifications").
		WithArgs("Trail Jacket").
		WillReturnRows(rows)

	repo := NewSQLRepository(db)
	rec, err := repo.FindByName(context.Background(), "Trail Jacket")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "P-ABC", rec.ProductCode)
	assert.Equal(t, []string{"S", "M"}, rec.Variants)
	assert.Equal(t, []string{"jacket.png"}, rec.Images)
	assert.Equal(t, map[string]string{"color": "green"}, rec.Specifications)
}

func TestSQLRepository_FindByName_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT product_code, name, price, description").
		WithArgs("Unknown").
		WillReturnRows(sqlmock.NewRows([]string{"product_code", "name", "price", "description", "variants", "discounts", "images", "specifications"}))

	repo := NewSQLRepository(db)
	rec, err := repo.FindByName(context.Background(), "Unknown")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSQLRepository_Create_DuplicateEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO catalog_products").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Trail Jacket'"})

	repo := NewSQLRepository(db)
	err = repo.Create(context.Background(), &Record{ProductCode: "P-ABC", Name: "Trail Jacket"})
	assert.ErrorIs(t, err, ErrDuplicateRecord)
}

func TestSQLRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO catalog_products").
		WithArgs(
			"P-ABC",
			"Trail Jacket",
			129.95,
			"Waterproof shell",
			[]byte(`["S","M"]`),
			10.0,
			[]byte(`["jacket.png"]`),
			[]byte(`{"color":"green"}`),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewSQLRepository(db)
	err = repo.Create(context.Background(), &Record{
		ProductCode:    "P-ABC",
		Name:           "Trail Jacket",
		Price:          129.95,
		Description:    "Waterproof shell",
		Variants:       []string{"S", "M"},
		Discounts:      10,
		Images:         []string{"jacket.png"},
		Specifications: map[string]string{"color": "green"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
