package task

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// DefaultCategoryColor is used when no color is given
const DefaultCategoryColor = "#808080"

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Category groups tasks for its owner
type Category struct {
	shared.BaseEntity
	Name    string
	Color   string
	OwnerID uuid.UUID
}

// NewCategory creates a category
func NewCategory(ownerID uuid.UUID, name, color string) (*Category, error) {
	c := &Category{
		BaseEntity: shared.NewBaseEntity(),
		OwnerID:    ownerID,
	}
	if err := c.Update(name, color); err != nil {
		return nil, err
	}
	return c, nil
}

// Update changes name and color
func (c *Category) Update(name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot exceed 100 characters")
	}
	if color == "" {
		color = DefaultCategoryColor
	}
	if !colorPattern.MatchString(color) {
		return shared.NewDomainError("INVALID_CATEGORY_COLOR", "Color must be a hex value like #1A2B3C")
	}
	c.Name = name
	c.Color = strings.ToUpper(color)
	c.Touch()
	return nil
}

// IsOwnedBy reports whether userID owns the category
func (c *Category) IsOwnedBy(userID uuid.UUID) bool {
	return c.OwnerID == userID
}
