package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"keystone/pkg/domain"
)

// Saver is the write surface needed by seeding; both the in-memory and
// postgres stores satisfy it.
type Saver interface {
	Save(ctx context.Context, record Record) error
}

// SeedPrincipal describes one account to provision at startup.
type SeedPrincipal struct {
	Email    string
	Password string
	Role     domain.Role
	TenantID *domain.TenantID
}

// Seed provisions development accounts with bcrypt-hashed passwords.
// Intended for local runs and tests; production provisioning happens through
// the user-management service, which is outside this repository.
func Seed(ctx context.Context, store Saver, seeds []SeedPrincipal) error {
	for _, seed := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password for %s: %w", seed.Email, err)
		}
		record := Record{
			Principal: Principal{
				ID:       domain.UserID(uuid.New()),
				Email:    seed.Email,
				Role:     seed.Role,
				TenantID: seed.TenantID,
				Verified: true,
			},
			PasswordHash: string(hash),
			Active:       true,
		}
		if err := store.Save(ctx, record); err != nil {
			return fmt.Errorf("seed principal %s: %w", seed.Email, err)
		}
	}
	return nil
}
