// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── users/           # User account management
//	└── audit/           # Authentication event log
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./permit-portal.db")
//
//	// Create domain-specific repositories
//	usersRepo := users.NewRepository(db.DB)
//	auditRepo := audit.NewRepository(db.DB)
//
//	// Use repositories
//	user, err := usersRepo.GetByIdentity("a@x.com")
//
// Uniqueness of usernames and emails is enforced by unique indexes on
// the users table, not by read-then-write checks, so concurrent
// registrations for the same identity cannot both succeed.
package database
