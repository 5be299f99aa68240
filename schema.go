package main

// schema.go first-boot table creation and the first-run check

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

const schemaReadyKey = "schema-ready"

type schemaStep struct {
	table string
	model any
}

// schemaSteps run in order; none depends on another.
var schemaSteps = []schemaStep{
	{"admin", &AdminAccount{}},
	{"skills", &Skill{}},
	{"education", &EducationEntry{}},
	{"project_manager", &ProjectEntry{}},
	{"contact", &ContactMessage{}},
}

// Readiness tells the client whether to show registration or login.
type Readiness struct {
	FirstRun bool   `json:"firstRun"`
	Redirect string `json:"redirect"`
}

type adminCounter interface {
	Count(ctx context.Context) (int64, error)
}

type SchemaGuard struct {
	db     *gorm.DB
	admins adminCounter
	c      *cache.Cache
}

// NewSchemaGuard remembers a successful schema pass for ttl.
func NewSchemaGuard(db *gorm.DB, admins adminCounter, ttl time.Duration) *SchemaGuard {
	return &SchemaGuard{db: db, admins: admins, c: cache.New(ttl, 2*ttl)}
}

// EnsureSchema creates the tables that are absent. Existing tables are left
// exactly as they are.
func (g *SchemaGuard) EnsureSchema(ctx context.Context) error {
	if _, found := g.c.Get(schemaReadyKey); found {
		return nil
	}

	m := g.db.WithContext(ctx).Migrator()
	for _, step := range schemaSteps {
		if m.HasTable(step.model) {
			continue
		}
		if err := m.CreateTable(step.model); err != nil {
			return infraError(fmt.Sprintf("Error checking or creating %s table", step.table), err)
		}
	}

	g.c.Set(schemaReadyKey, true, cache.DefaultExpiration)
	return nil
}

func (g *SchemaGuard) Check(ctx context.Context) (*Readiness, error) {
	if err := g.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	n, err := g.admins.Count(ctx)
	if err != nil {
		return nil, storeError("Error checking admin rows", err)
	}
	if n == 0 {
		return &Readiness{FirstRun: true, Redirect: "/register"}, nil
	}
	return &Readiness{FirstRun: false, Redirect: "/"}, nil
}
