package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/session"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

const constraintCachePrefix = "constraints:"

type constraintGateway interface {
	ListConstraints(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, error)
	GetConstraint(ctx context.Context, id string) (*models.Constraint, error)
	CreateConstraint(ctx context.Context, def models.Constraint) (*models.Constraint, error)
	UpdateConstraint(ctx context.Context, id string, patch models.ConstraintPatch) (*models.Constraint, error)
	DeleteConstraint(ctx context.Context, id string) error
}

type constraintCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

type textSanitizer interface {
	PlainText(input string) string
}

// ConstraintService is the constraint registry of a planning session.
// Definitions are validated against their category schema before the
// backend sees them.
type ConstraintService struct {
	gateway   constraintGateway
	cache     constraintCache
	sanitizer textSanitizer
	validator *validator.Validate
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewConstraintService constructs the registry. cache may be nil.
func NewConstraintService(gateway constraintGateway, cache constraintCache, sanitizer textSanitizer, validate *validator.Validate, cacheTTL time.Duration, logger *zap.Logger) *ConstraintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintService{
		gateway:   gateway,
		cache:     cache,
		sanitizer: sanitizer,
		validator: validate,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// List returns constraints matching filter. An unfiltered list also becomes
// the session's constraint list.
func (s *ConstraintService) List(ctx context.Context, state *session.State, filter models.ConstraintFilter) ([]models.Constraint, error) {
	key := constraintCachePrefix + filter.CacheKey()
	var list []models.Constraint
	hit := false
	if s.cache != nil {
		var err error
		hit, err = s.cache.Get(ctx, key, &list)
		if err != nil {
			s.logger.Sugar().Warnw("constraint cache read failed", "key", key, "error", err)
			hit = false
		}
	}
	if !hit {
		fetched, err := s.gateway.ListConstraints(ctx, filter)
		if err != nil {
			return nil, err
		}
		list = fetched
		if list == nil {
			list = []models.Constraint{}
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, list, s.cacheTTL); err != nil {
				s.logger.Sugar().Warnw("constraint cache write failed", "key", key, "error", err)
			}
		}
	}

	if filter == (models.ConstraintFilter{}) {
		state.SetConstraints(list)
	}
	return list, nil
}

// Create validates a definition and stores it.
func (s *ConstraintService) Create(ctx context.Context, state *session.State, req dto.CreateConstraintRequest) (*models.Constraint, error) {
	req.Name = s.plain(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, requestError(err)
	}
	category := models.ConstraintCategory(req.Category)
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category %q", req.Category))
	}
	cfg, err := models.ParseConstraintConfig(category, req.Config)
	if err != nil {
		return nil, err
	}

	def := models.Constraint{
		Name:     req.Name,
		Kind:     models.ConstraintKind(req.Type),
		Category: category,
		Config:   cfg,
		IsActive: true,
		Priority: req.Priority,
	}
	if req.IsActive != nil {
		def.IsActive = *req.IsActive
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	created, err := s.gateway.CreateConstraint(ctx, def)
	if err != nil {
		return nil, err
	}
	state.UpsertConstraint(*created)
	s.invalidate(ctx)
	s.logger.Sugar().Infow("constraint created", "session_id", state.ID, "constraint_id", created.ID, "category", created.Category)
	return created, nil
}

// Update applies a partial change. The merged result is validated locally
// before the backend is called.
func (s *ConstraintService) Update(ctx context.Context, state *session.State, id string, req dto.UpdateConstraintRequest) (*models.Constraint, error) {
	if req.Name != nil {
		name := s.plain(*req.Name)
		req.Name = &name
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, requestError(err)
	}

	current, ok := state.FindConstraint(id)
	if !ok {
		fetched, err := s.gateway.GetConstraint(ctx, id)
		if err != nil {
			return nil, err
		}
		current = *fetched
	}

	patch, err := buildPatch(current, req)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}
	if _, err := patch.Apply(current); err != nil {
		return nil, err
	}

	updated, err := s.gateway.UpdateConstraint(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	state.UpsertConstraint(*updated)
	s.invalidate(ctx)
	s.logger.Sugar().Infow("constraint updated", "session_id", state.ID, "constraint_id", id)
	return updated, nil
}

// Delete hard-deletes a constraint.
func (s *ConstraintService) Delete(ctx context.Context, state *session.State, id string) error {
	if err := s.gateway.DeleteConstraint(ctx, id); err != nil {
		return err
	}
	state.RemoveConstraint(id)
	s.invalidate(ctx)
	s.logger.Sugar().Infow("constraint deleted", "session_id", state.ID, "constraint_id", id)
	return nil
}

type constraintPreset struct {
	Name     string                 `yaml:"name"`
	Type     string                 `yaml:"type"`
	Category string                 `yaml:"category"`
	IsActive *bool                  `yaml:"is_active"`
	Priority *int                   `yaml:"priority"`
	Config   map[string]interface{} `yaml:"config"`
}

type presetDocument struct {
	Constraints []constraintPreset `yaml:"constraints"`
}

// Import creates every preset of a YAML document. Invalid presets are
// reported and skipped; the rest are still created.
func (s *ConstraintService) Import(ctx context.Context, state *session.State, data []byte) (dto.ConstraintImportResult, error) {
	var doc presetDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return dto.ConstraintImportResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "constraint presets are not valid YAML")
	}
	if len(doc.Constraints) == 0 {
		return dto.ConstraintImportResult{}, appErrors.Clone(appErrors.ErrValidation, "document contains no constraints")
	}

	result := dto.ConstraintImportResult{Created: []models.Constraint{}, Failed: []dto.ConstraintImportFailure{}}
	for i, preset := range doc.Constraints {
		created, err := s.importPreset(ctx, state, preset)
		if err != nil {
			if !isDomainError(err) {
				return result, err
			}
			domainErr := appErrors.FromError(err)
			result.Failed = append(result.Failed, dto.ConstraintImportFailure{
				Index: i,
				Name:  preset.Name,
				Code:  domainErr.Code,
				Field: domainErr.Field,
				Error: domainErr.Message,
			})
			continue
		}
		result.Created = append(result.Created, *created)
	}

	s.logger.Sugar().Infow("constraint presets imported", "session_id", state.ID, "created", len(result.Created), "failed", len(result.Failed))
	return result, nil
}

func (s *ConstraintService) importPreset(ctx context.Context, state *session.State, preset constraintPreset) (*models.Constraint, error) {
	raw, err := json.Marshal(preset.Config)
	if err != nil {
		return nil, appErrors.InvalidConfig("config", "config must be a mapping")
	}
	if preset.Config == nil {
		raw = nil
	}
	return s.Create(ctx, state, dto.CreateConstraintRequest{
		Name:     preset.Name,
		Type:     preset.Type,
		Category: preset.Category,
		Config:   raw,
		IsActive: preset.IsActive,
		Priority: preset.Priority,
	})
}

func (s *ConstraintService) plain(input string) string {
	if s.sanitizer == nil {
		return strings.TrimSpace(input)
	}
	return s.sanitizer.PlainText(input)
}

func (s *ConstraintService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, constraintCachePrefix+"*"); err != nil {
		s.logger.Sugar().Warnw("constraint cache invalidation failed", "pattern", constraintCachePrefix+"*", "error", err)
	}
}

func buildPatch(current models.Constraint, req dto.UpdateConstraintRequest) (models.ConstraintPatch, error) {
	patch := models.ConstraintPatch{Name: req.Name, IsActive: req.IsActive, Priority: req.Priority}
	if req.Type != nil {
		kind := models.ConstraintKind(*req.Type)
		patch.Kind = &kind
	}
	category := current.Category
	if req.Category != nil {
		next := models.ConstraintCategory(*req.Category)
		if !next.Valid() {
			return models.ConstraintPatch{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category %q", *req.Category))
		}
		patch.Category = &next
		category = next
	}
	if len(req.Config) > 0 && string(req.Config) != "null" {
		cfg, err := models.ParseConstraintConfig(category, req.Config)
		if err != nil {
			return models.ConstraintPatch{}, err
		}
		patch.Config = cfg
	}
	return patch, nil
}

func requestError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		e := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("%s failed %s validation", strings.ToLower(first.Field()), first.Tag()))
		e.Field = strings.ToLower(first.Field())
		return e
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
}

func isDomainError(err error) bool {
	var domainErr *appErrors.Error
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Status < 500
}
