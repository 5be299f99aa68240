package main

// resources.go one CRUD service shared by skills, education, projects and contacts

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// keyed is satisfied by pointers to the models above through Base.
type keyed[T any] interface {
	*T
	Key() uint
	SetKey(uint)
}

// Schema describes how one resource is written.
type Schema[T any] struct {
	// Name is used in client messages, e.g. "Skill".
	Name string
	// IDKey names the id in the add response, e.g. "skillId".
	IDKey string
	// Columns lists the columns an update rewrites.
	Columns func(rec *T) map[string]any
	// Stamp sets server-assigned fields before add and update. Optional.
	Stamp func(rec *T, now time.Time)
}

type Service[T any, P keyed[T]] struct {
	store    Store[T]
	schema   Schema[T]
	validate *validator.Validate
	now      func() time.Time
}

func NewService[T any, P keyed[T]](store Store[T], schema Schema[T], v *validator.Validate) *Service[T, P] {
	return &Service[T, P]{store: store, schema: schema, validate: v, now: time.Now}
}

func (s *Service[T, P]) Name() string { return s.schema.Name }

func (s *Service[T, P]) IDKey() string { return s.schema.IDKey }

func (s *Service[T, P]) Add(ctx context.Context, rec *T) (uint, error) {
	P(rec).SetKey(0)
	s.stamp(rec)
	if err := s.check(rec); err != nil {
		return 0, err
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return 0, storeError("Error adding "+lower(s.schema.Name), err)
	}
	return P(rec).Key(), nil
}

func (s *Service[T, P]) List(ctx context.Context) ([]T, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, storeError("Error retrieving "+lower(s.schema.Name)+" entries", err)
	}
	return out, nil
}

func (s *Service[T, P]) Get(ctx context.Context, id uint) (*T, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundError(s.schema.Name + " not found")
		}
		return nil, storeError("Error retrieving "+lower(s.schema.Name), err)
	}
	return rec, nil
}

func (s *Service[T, P]) Update(ctx context.Context, id uint, rec *T) (int64, error) {
	s.stamp(rec)
	if err := s.check(rec); err != nil {
		return 0, err
	}
	n, err := s.store.Update(ctx, id, s.schema.Columns(rec))
	if err != nil {
		return 0, storeError("Error updating "+lower(s.schema.Name), err)
	}
	if n == 0 {
		return 0, notFoundError(s.schema.Name + " not found")
	}
	return n, nil
}

func (s *Service[T, P]) Delete(ctx context.Context, id uint) (int64, error) {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return 0, storeError("Error deleting "+lower(s.schema.Name), err)
	}
	if n == 0 {
		return 0, notFoundError(s.schema.Name + " not found")
	}
	return n, nil
}

func (s *Service[T, P]) stamp(rec *T) {
	if s.schema.Stamp != nil {
		s.schema.Stamp(rec, s.now())
	}
}

func (s *Service[T, P]) check(rec *T) error {
	return checkStruct(s.validate, rec)
}

// newValidator reports fields by their json name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func checkStruct(v *validator.Validate, rec any) error {
	err := v.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return infraError("Error validating request", err)
	}

	var missing, malformed []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			malformed = append(malformed, fe.Field())
		}
	}
	if len(missing) > 0 {
		return validationError(joinFields(missing) + " required")
	}
	return validationError("Invalid " + strings.Join(malformed, ", ") + " format")
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 1:
		return fields[0] + " is"
	case 2:
		return fields[0] + " and " + fields[1] + " are"
	}
	return strings.Join(fields[:len(fields)-1], ", ") + ", and " + fields[len(fields)-1] + " are"
}

func lower(s string) string { return strings.ToLower(s) }

var skillSchema = Schema[Skill]{
	Name:  "Skill",
	IDKey: "skillId",
	Columns: func(s *Skill) map[string]any {
		return map[string]any{"skill": s.Label, "percentage": s.Percentage}
	},
}

var educationSchema = Schema[EducationEntry]{
	Name:  "Education entry",
	IDKey: "educationId",
	Columns: func(e *EducationEntry) map[string]any {
		return map[string]any{"name": e.Name, "description": e.Description}
	},
}

var projectSchema = Schema[ProjectEntry]{
	Name: "Project",
	Columns: func(p *ProjectEntry) map[string]any {
		return map[string]any{"name": p.Name, "image_path": p.ImageURL, "link": p.Link}
	},
}

var contactSchema = Schema[ContactMessage]{
	Name:  "Contact entry",
	IDKey: "contactId",
	Columns: func(c *ContactMessage) map[string]any {
		return map[string]any{"name": c.Name, "email": c.Email, "description": c.Description, "date": c.SubmittedAt}
	},
	Stamp: func(c *ContactMessage, now time.Time) {
		c.SubmittedAt = now.UTC()
	},
}

type (
	SkillService     = Service[Skill, *Skill]
	EducationService = Service[EducationEntry, *EducationEntry]
	ContactService   = Service[ContactMessage, *ContactMessage]
)
