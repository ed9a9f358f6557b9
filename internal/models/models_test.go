package models

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestCategoryValid(t *testing.T) {
	assert.Equal(t, CategoryWork.Valid(), true)
	assert.Equal(t, CategoryHealth.Valid(), true)
	assert.Equal(t, Category("chores").Valid(), false)
	assert.Equal(t, Category("").Valid(), false)
}

func TestValidPriority(t *testing.T) {
	assert.Equal(t, ValidPriority(PriorityLow), true)
	assert.Equal(t, ValidPriority(PriorityHigh), true)
	assert.Equal(t, ValidPriority(0), false)
	assert.Equal(t, ValidPriority(4), false)
}

func TestPatchApplyMergesOnlySetFields(t *testing.T) {
	item := Item{
		ID:        "a",
		Title:     "Buy milk",
		Priority:  PriorityMedium,
		Category:  CategoryPersonal,
		Order:     1,
		CreatedAt: time.Now(),
	}

	completed := true
	patch := Patch{Completed: &completed}
	patch.Apply(&item)

	assert.Equal(t, item.Completed, true)
	assert.Equal(t, item.Title, "Buy milk")
	assert.Equal(t, item.Priority, PriorityMedium)
	assert.Equal(t, item.Order, int64(1))

	title := "Buy oat milk"
	category := CategoryShopping
	patch = Patch{Title: &title, Category: &category}
	patch.Apply(&item)

	assert.Equal(t, item.Title, "Buy oat milk")
	assert.Equal(t, item.Category, CategoryShopping)
	assert.Equal(t, item.Completed, true)
}

func TestPatchValidate(t *testing.T) {
	badPriority := 5
	err := Patch{Priority: &badPriority}.Validate()
	assert.NotEqual(t, err, nil)

	badCategory := Category("chores")
	err = Patch{Category: &badCategory}.Validate()
	assert.NotEqual(t, err, nil)

	// Empty titles are allowed while the user composes.
	empty := ""
	err = Patch{Title: &empty}.Validate()
	assert.Equal(t, err, nil)
}

func TestPatchIsZero(t *testing.T) {
	assert.Equal(t, Patch{}.IsZero(), true)
	done := false
	assert.Equal(t, Patch{Completed: &done}.IsZero(), false)
}
