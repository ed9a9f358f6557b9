package models

import (
	"fmt"
	"time"
)

// Priority levels. Three ordinal steps, display styling only.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// ValidPriority reports whether p is one of the three supported levels.
func ValidPriority(p int) bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// Category groups items into a fixed set of buckets. Adding a value is a
// schema migration, not a silent widening.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryShopping Category = "shopping"
	CategoryStudy    Category = "study"
	CategoryHealth   Category = "health"
)

// ValidCategories enumerates the categories supported by the list.
var ValidCategories = map[Category]struct{}{
	CategoryWork:     {},
	CategoryPersonal: {},
	CategoryShopping: {},
	CategoryStudy:    {},
	CategoryHealth:   {},
}

// Valid reports whether the category belongs to the closed enumeration.
func (c Category) Valid() bool {
	_, ok := ValidCategories[c]
	return ok
}

// Item represents a single todo entry. ID is assigned by the store on
// creation and never changes afterwards.
type Item struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	Priority    int       `json:"priority" db:"priority"`
	Completed   bool      `json:"completed" db:"completed"`
	Category    Category  `json:"category" db:"category"`
	Order       int64     `json:"order" db:"position"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Patch is a partial update: nil fields are left untouched, everything
// else is merged over the stored item.
type Patch struct {
	Title       *string
	Description *string
	Priority    *int
	Completed   *bool
	Category    *Category
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Completed == nil && p.Category == nil
}

// Validate rejects values outside the closed enumerations. An empty title
// is allowed; the user may still be composing it.
func (p Patch) Validate() error {
	if p.Priority != nil && !ValidPriority(*p.Priority) {
		return fmt.Errorf("priority must be between %d and %d", PriorityLow, PriorityHigh)
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("unknown category %q", *p.Category)
	}
	return nil
}

// Apply merges the patch into the item. The caller refreshes UpdatedAt.
func (p Patch) Apply(item *Item) {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Priority != nil {
		item.Priority = *p.Priority
	}
	if p.Completed != nil {
		item.Completed = *p.Completed
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
}
