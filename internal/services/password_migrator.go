package services

import (
	"context"
	"fmt"

	"github.com/you/homeauth/domain"
	"go.uber.org/zap"
)

// MigrationReport summarises one legacy password migration run
type MigrationReport struct {
	Migrated int
	Failed   int
}

// PasswordMigrator hashes plaintext passwords left by the previous schema
type PasswordMigrator struct {
	repos       []domain.IdentityRepository
	passwordSvc domain.PasswordService
	audit       domain.AuditLogger
	logger      *zap.Logger
	batchSize   int
}

// NewPasswordMigrator creates a migrator over the given identity stores
func NewPasswordMigrator(passwordSvc domain.PasswordService, audit domain.AuditLogger, logger *zap.Logger, repos ...domain.IdentityRepository) *PasswordMigrator {
	return &PasswordMigrator{
		repos:       repos,
		passwordSvc: passwordSvc,
		audit:       audit,
		logger:      logger.Named("migrate"),
		batchSize:   100,
	}
}

// Run migrates every legacy row. A row that already has a hash only loses its plaintext.
// Rows that fail stay in place and are reported; the run stops once a batch makes no progress.
func (m *PasswordMigrator) Run(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport
	for _, repo := range m.repos {
		for {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			batch, err := repo.ListLegacyPasswords(ctx, m.batchSize)
			if err != nil {
				return report, fmt.Errorf("failed to list legacy %s passwords: %w", repo.Kind(), err)
			}
			if len(batch) == 0 {
				break
			}

			progressed := false
			for _, identity := range batch {
				if err := m.migrate(ctx, repo, identity); err != nil {
					report.Failed++
					m.logger.Error("password migration failed",
						zap.String("kind", string(repo.Kind())),
						zap.String("identity_id", identity.ID),
						zap.Error(err))
					continue
				}
				report.Migrated++
				progressed = true
			}
			if !progressed {
				break
			}
		}
	}
	m.logger.Info("password migration finished",
		zap.Int("migrated", report.Migrated),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (m *PasswordMigrator) migrate(ctx context.Context, repo domain.IdentityRepository, identity *domain.Identity) error {
	rehashed := identity.PasswordHash == ""
	if rehashed {
		hash, err := m.passwordSvc.Hash(identity.LegacyPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		identity.PasswordHash = hash
	}
	identity.LegacyPassword = ""
	if err := repo.Update(ctx, identity); err != nil {
		return err
	}
	m.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordMigrated, identity.Kind, identity.ID).
		WithMetadata("rehashed", rehashed))
	return nil
}
