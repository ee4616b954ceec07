// Package testkit builds the shared collaborators used by engine tests.
package testkit

import (
	"io"

	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/sequence"
	"magnova-scm-api-server/internal/store/memstore"

	"github.com/sirupsen/logrus"
)

var (
	MagnovaStaff = auth.Principal{UserID: "u-staff", Name: "Meera", Organization: models.OrgMagnova, Role: models.RoleStaff}
	NovaStaff    = auth.Principal{UserID: "u-nova", Name: "Nikhil", Organization: models.OrgNova, Role: models.RoleStaff}
	Approver     = auth.Principal{UserID: "u-approver", Name: "Arun", Organization: models.OrgMagnova, Role: models.RoleApprover}
	Admin        = auth.Principal{UserID: "u-admin", Name: "Aditi", Organization: models.OrgMagnova, Role: models.RoleAdmin}
)

// Env bundles an in-memory store with the collaborators every engine takes.
type Env struct {
	Store    *memstore.Store
	Logger   *logrus.Logger
	Audit    *audit.Recorder
	Sequence *sequence.Generator
	Policy   auth.Policy
}

func New() *Env {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	st := memstore.New()
	return &Env{
		Store:    st,
		Logger:   logger,
		Audit:    audit.NewRecorder(st, logger),
		Sequence: sequence.NewGenerator(st, 20),
		Policy: auth.NewPolicy(config.OrganizationsConfig{
			POCreators:    []string{models.OrgMagnova},
			SalesCreators: []string{models.OrgMagnova},
		}),
	}
}
