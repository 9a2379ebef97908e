package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/models"
	"github.com/learnhub/course-checkout/repository"
	"github.com/learnhub/course-checkout/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartSnapshot_UsesLivePrices(t *testing.T) {
	db := setupSQLiteDB(t)
	carts := setupCartRepo(t)
	a := seedCourse(t, db, "Go Basics", 120000, int64Ptr(100000))
	b := seedCourse(t, db, "Distributed Systems", 250000, nil)
	fillCart(t, carts, "user-1", a, b)

	builder := services.NewCartSnapshotBuilder(carts, repository.NewGormCourseRepository(db), "VND", testLogger)
	snap, err := builder.Build(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, snap.Items, 2)
	assert.Equal(t, a.ID, snap.Items[0].CourseID)
	assert.True(t, snap.Items[0].UnitPrice.Equal(decimal.NewFromInt(100000)))
	assert.True(t, snap.Items[1].UnitPrice.Equal(decimal.NewFromInt(250000)))
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(350000)))
	assert.Equal(t, "VND", snap.Currency)

	// Price changes after add-to-cart are picked up at checkout.
	require.NoError(t, db.Model(&models.Course{}).Where("id = ?", b.ID).Update("price", decimal.NewFromInt(200000)).Error)
	snap, err = builder.Build(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(300000)))
}

func TestCartSnapshot_SkipsDeletedCourses(t *testing.T) {
	db := setupSQLiteDB(t)
	carts := setupCartRepo(t)
	a := seedCourse(t, db, "Go Basics", 100000, nil)
	b := seedCourse(t, db, "Retired", 250000, nil)
	fillCart(t, carts, "user-1", a, b)
	require.NoError(t, db.Delete(&models.Course{}, "id = ?", b.ID).Error)

	snap, err := services.NewCartSnapshotBuilder(carts, repository.NewGormCourseRepository(db), "VND", testLogger).
		Build(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(100000)))
}

func TestCartSnapshot_Empty(t *testing.T) {
	db := setupSQLiteDB(t)
	carts := setupCartRepo(t)
	builder := services.NewCartSnapshotBuilder(carts, repository.NewGormCourseRepository(db), "VND", testLogger)

	_, err := builder.Build(context.Background(), "user-1")
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)

	// Every item unresolvable counts as empty.
	fillCart(t, carts, "user-1", models.Course{ID: uuid.New()})
	_, err = builder.Build(context.Background(), "user-1")
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
}
