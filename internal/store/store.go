package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Store is the facade over the database, holding every per-entity
// repository. It owns schema creation and migration.
type Store struct {
	db *sqlx.DB

	Workspaces *WorkspaceRepo
	Users      *UserRepo
	Agents     *AgentRepo
	Channels   *ChannelRepo
	Messages   *MessageRepo
	Features   *FeatureRepo
	Auth       *AuthRepo
}

// New wraps an already-open sqlx.DB, initializes the schema (creating
// tables, running additive migrations, and seeding the default workspace),
// and returns the ready-to-use facade.
func New(dbConn *sqlx.DB) (*Store, error) {
	s := &Store{db: dbConn}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.Workspaces = &WorkspaceRepo{db: dbConn}
	s.Users = &UserRepo{db: dbConn}
	s.Agents = &AgentRepo{db: dbConn}
	s.Channels = &ChannelRepo{db: dbConn}
	s.Messages = &MessageRepo{db: dbConn}
	s.Features = &FeatureRepo{db: dbConn}
	s.Auth = &AuthRepo{db: dbConn}

	if err := s.seedDefaultWorkspace(); err != nil {
		return nil, fmt.Errorf("failed to seed default workspace: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	steps := []func() error{
		s.initWorkspaceSchema,
		s.initUserSchema,
		s.initAgentSchema,
		s.initChannelSchema,
		s.initMessageSchema,
		s.initFeatureSchema,
		s.initAuthSchema,
		s.seedDefaultWorkspace,
		s.backfillWorkspaces,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// columnExists guards an ALTER TABLE ADD COLUMN migration with a
// PRAGMA table_info check so re-running it is a no-op, per spec §9.
func (s *Store) columnExists(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var defaultValue *string
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
