package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
)

// Directory answers "who should hear about X" questions for other modules
// without exposing the full repository.
type Directory struct {
	repo Repository
}

// NewDirectory builds a directory over the users repository.
func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// ListCommittee returns the ids of everyone holding the committee capability
// through their primary role.
func (d *Directory) ListCommittee(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := d.repo.ListByRoles(ctx, []enums.Role{enums.RoleVBMember, enums.RoleJTAdmin, enums.RoleAdmin})
	if err != nil {
		return nil, err
	}
	return idsOf(rows), nil
}

// ListAccountants returns the ids of everyone with the accounting capability,
// whether by role or override flag.
func (d *Directory) ListAccountants(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := d.repo.ListByCapabilityFlag(ctx, enums.RoleAccountant, "is_accountant_flag")
	if err != nil {
		return nil, err
	}
	return idsOf(rows), nil
}

func idsOf(rows []models.User) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}
