package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// AccountService removes accounts and previews what removal would destroy.
type AccountService interface {
	// DeleteAccount irreversibly removes all data owned by the user inside
	// one transaction. Records that reference the user from someone else's
	// data (impression viewers, leaderboard placements) are anonymized, not
	// deleted. File cleanup and the confirmation email run after commit and
	// are best-effort.
	DeleteAccount(ctx context.Context, userID snowflake.ID, reason, feedback string) DeletionResult

	// DeletionPreview returns per-domain counts without mutating any row.
	DeletionPreview(ctx context.Context, userID snowflake.ID) (DeletionPreview, error)
}

// Service is the package alias for AccountService.
type Service = AccountService

var (
	ErrUserNotFound = errors.New("user_not_found")
)
