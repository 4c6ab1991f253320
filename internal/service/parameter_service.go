package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lawn-engine/internal/engine"
	"lawn-engine/internal/logger"
	"lawn-engine/internal/model"
	"lawn-engine/internal/repo"
)

// ParameterInput is the writable part of an internal parameter. A nil field is left
// untouched by a partial update and cleared by a full one.
type ParameterInput struct {
	ParameterName   *string `json:"parameter_name"`
	ProductionValue *string `json:"production_value"`
	DefaultValue    *string `json:"default_value"`
}

type ParameterService struct {
	repo repo.ParameterRepo
	log  *logger.Logger
}

func NewParameterService(r repo.ParameterRepo, log *logger.Logger) *ParameterService {
	return &ParameterService{repo: r, log: log.With("service", "ParameterService")}
}

func (s *ParameterService) List(ctx context.Context) ([]model.InternalParameter, error) {
	return s.repo.List(ctx)
}

func (s *ParameterService) Get(ctx context.Context, id uint) (*model.InternalParameter, error) {
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrParameterNotFound
	}
	return p, err
}

func (s *ParameterService) Create(ctx context.Context, in ParameterInput) (*model.InternalParameter, error) {
	if err := validateParameter(in, true); err != nil {
		return nil, err
	}
	p := &model.InternalParameter{
		ParameterName:   strings.TrimSpace(*in.ParameterName),
		ProductionValue: in.ProductionValue,
		DefaultValue:    in.DefaultValue,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces every field when partial is false and only the provided ones otherwise.
func (s *ParameterService) Update(ctx context.Context, id uint, in ParameterInput, partial bool) (*model.InternalParameter, error) {
	if err := validateParameter(in, !partial); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.ParameterName != nil {
		fields["parameter_name"] = strings.TrimSpace(*in.ParameterName)
	}
	if in.ProductionValue != nil || !partial {
		fields["production_value"] = in.ProductionValue
	}
	if in.DefaultValue != nil || !partial {
		fields["default_value"] = in.DefaultValue
	}
	p, err := s.repo.Update(ctx, id, fields)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrParameterNotFound
	}
	return p, err
}

func (s *ParameterService) Delete(ctx context.Context, id uint) error {
	err := s.repo.SoftDelete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrParameterNotFound
	}
	return err
}

// DefaultValues lists every engine tunable with its compiled default, overridden by any
// default_value stored for it.
func (s *ParameterService) DefaultValues(ctx context.Context) (map[string]string, error) {
	out := engine.DefaultValues()
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.DefaultValue != nil && strings.TrimSpace(*r.DefaultValue) != "" {
			out[r.ParameterName] = *r.DefaultValue
		}
	}
	return out, nil
}

// EngineParams builds the engine tunables from active rows. A row's production value
// wins over its default value; later rows win over earlier ones.
func (s *ParameterService) EngineParams(ctx context.Context) (engine.Params, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return engine.Params{}, fmt.Errorf("load internal parameters: %w", err)
	}
	values := make(map[string]string, len(rows))
	for _, r := range rows {
		switch {
		case r.ProductionValue != nil && strings.TrimSpace(*r.ProductionValue) != "":
			values[r.ParameterName] = *r.ProductionValue
		case r.DefaultValue != nil && strings.TrimSpace(*r.DefaultValue) != "":
			values[r.ParameterName] = *r.DefaultValue
		}
	}
	p, rejected := engine.ParamsFromValues(values)
	if len(rejected) > 0 {
		s.log.Warn("internal parameters rejected, using defaults", "names", rejected)
	}
	return p, nil
}

func validateParameter(in ParameterInput, requireName bool) error {
	if in.ParameterName == nil {
		if requireName {
			return fmt.Errorf("%w: parameter_name is required", ErrInputValidation)
		}
		return nil
	}
	name := strings.TrimSpace(*in.ParameterName)
	if name == "" {
		return fmt.Errorf("%w: parameter_name may not be blank", ErrInputValidation)
	}
	if len(name) > 512 {
		return fmt.Errorf("%w: parameter_name is longer than 512 characters", ErrInputValidation)
	}
	for _, v := range []*string{in.ProductionValue, in.DefaultValue} {
		if v != nil && len(*v) > 512 {
			return fmt.Errorf("%w: values are limited to 512 characters", ErrInputValidation)
		}
	}
	return nil
}
