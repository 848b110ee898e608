package models

import (
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

// ConstraintKind distinguishes must-hold rules from preferences.
type ConstraintKind string

const (
	ConstraintKindHard ConstraintKind = "hard"
	ConstraintKindSoft ConstraintKind = "soft"
)

// Valid reports whether the kind is known.
func (k ConstraintKind) Valid() bool {
	return k == ConstraintKindHard || k == ConstraintKindSoft
}

// ConstraintCategory selects the config schema of a constraint.
type ConstraintCategory string

const (
	CategoryMinStaff           ConstraintCategory = "min_staff"
	CategoryMaxStaff           ConstraintCategory = "max_staff"
	CategoryMaxConsecutiveDays ConstraintCategory = "max_consecutive_days"
	CategoryMonthlyHours       ConstraintCategory = "monthly_hours"
	CategoryFixedDayOff        ConstraintCategory = "fixed_day_off"
	CategoryStaffCompatibility ConstraintCategory = "staff_compatibility"
	CategoryRestHours          ConstraintCategory = "rest_hours"
)

// ConstraintCategories lists every supported category.
var ConstraintCategories = []ConstraintCategory{
	CategoryMinStaff,
	CategoryMaxStaff,
	CategoryMaxConsecutiveDays,
	CategoryMonthlyHours,
	CategoryFixedDayOff,
	CategoryStaffCompatibility,
	CategoryRestHours,
}

// Valid reports whether the category is known.
func (c ConstraintCategory) Valid() bool {
	for _, known := range ConstraintCategories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3

	// HardConstraintWeight outranks every soft priority.
	HardConstraintWeight = MaxPriority + 1
)

// Constraint is a scheduling rule judged by the optimizer and validator.
type Constraint struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Kind      ConstraintKind     `json:"type"`
	Category  ConstraintCategory `json:"category"`
	Config    ConstraintConfig   `json:"config"`
	IsActive  bool               `json:"is_active"`
	Priority  *int               `json:"priority"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Weight is the enforcement weight. Hard constraints always weigh the same
// regardless of their stored priority.
func (c Constraint) Weight() int {
	if c.Kind == ConstraintKindHard {
		return HardConstraintWeight
	}
	if c.Priority == nil {
		return DefaultPriority
	}
	return *c.Priority
}

// Validate checks the definition and its category config.
func (c Constraint) Validate() error {
	if c.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if !c.Kind.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("type %q must be hard or soft", c.Kind))
	}
	if !c.Category.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category %q", c.Category))
	}
	if err := ValidatePriority(c.Priority); err != nil {
		return err
	}
	if c.Config == nil {
		return appErrors.InvalidConfig("config", "config is required")
	}
	if c.Config.Category() != c.Category {
		return appErrors.InvalidConfig("config", fmt.Sprintf("config for %s cannot be attached to a %s constraint", c.Config.Category(), c.Category))
	}
	return c.Config.Validate()
}

// ValidatePriority accepts a nil priority or one within bounds.
func ValidatePriority(priority *int) error {
	if priority == nil {
		return nil
	}
	if *priority < MinPriority || *priority > MaxPriority {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("priority must be between %d and %d", MinPriority, MaxPriority))
	}
	return nil
}

type constraintWire struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Kind      ConstraintKind     `json:"type"`
	Category  ConstraintCategory `json:"category"`
	Config    json.RawMessage    `json:"config"`
	IsActive  bool               `json:"is_active"`
	Priority  *int               `json:"priority"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// UnmarshalJSON decodes the config using the schema of the declared category.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	var wire constraintWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	cfg, err := ParseConstraintConfig(wire.Category, wire.Config)
	if err != nil {
		return err
	}
	*c = Constraint{
		ID:        wire.ID,
		Name:      wire.Name,
		Kind:      wire.Kind,
		Category:  wire.Category,
		Config:    cfg,
		IsActive:  wire.IsActive,
		Priority:  wire.Priority,
		CreatedAt: wire.CreatedAt,
		UpdatedAt: wire.UpdatedAt,
	}
	return nil
}

// ConstraintFilter narrows a constraint listing. Nil fields match everything.
type ConstraintFilter struct {
	IsActive *bool
	Kind     *ConstraintKind
	Category *ConstraintCategory
}

// Matches reports whether c passes the filter.
func (f ConstraintFilter) Matches(c Constraint) bool {
	if f.IsActive != nil && c.IsActive != *f.IsActive {
		return false
	}
	if f.Kind != nil && c.Kind != *f.Kind {
		return false
	}
	if f.Category != nil && c.Category != *f.Category {
		return false
	}
	return true
}

// CacheKey renders the filter as a stable cache key suffix.
func (f ConstraintFilter) CacheKey() string {
	active, kind, category := "*", "*", "*"
	if f.IsActive != nil {
		active = fmt.Sprintf("%t", *f.IsActive)
	}
	if f.Kind != nil {
		kind = string(*f.Kind)
	}
	if f.Category != nil {
		category = string(*f.Category)
	}
	return fmt.Sprintf("active=%s:type=%s:category=%s", active, kind, category)
}

// ConstraintPatch is a partial update. A category change must carry a config
// for the new category.
type ConstraintPatch struct {
	Name     *string
	Kind     *ConstraintKind
	Category *ConstraintCategory
	Config   ConstraintConfig
	IsActive *bool
	Priority *int
}

// Empty reports whether the patch changes nothing.
func (p ConstraintPatch) Empty() bool {
	return p.Name == nil && p.Kind == nil && p.Category == nil && p.Config == nil && p.IsActive == nil && p.Priority == nil
}

// Apply returns current with the patch applied and validated.
func (p ConstraintPatch) Apply(current Constraint) (Constraint, error) {
	next := current
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Kind != nil {
		next.Kind = *p.Kind
	}
	if p.Category != nil && *p.Category != current.Category {
		if p.Config == nil {
			return Constraint{}, appErrors.InvalidConfig("config", fmt.Sprintf("changing category to %s requires a matching config", *p.Category))
		}
		next.Category = *p.Category
	}
	if p.Config != nil {
		next.Config = p.Config
	}
	if p.IsActive != nil {
		next.IsActive = *p.IsActive
	}
	if p.Priority != nil {
		priority := *p.Priority
		next.Priority = &priority
	}
	if err := next.Validate(); err != nil {
		return Constraint{}, err
	}
	return next, nil
}
