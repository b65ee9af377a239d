package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/studyloop/quiz-service/internal/repositories"
)

// Repository is the gorm-backed implementation of repositories.Repository.
type Repository struct {
	db *gorm.DB

	node    repositories.NodeRepository
	session repositories.SessionRepository
	pack    repositories.ContentPackRepository
	user    repositories.UserRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:      db,
		node:    NewNodePostgreSQL(db),
		session: NewSessionPostgreSQL(db),
		pack:    NewContentPackPostgreSQL(db),
		user:    NewUserPostgreSQL(db),
	}
}

func (r *Repository) Node() repositories.NodeRepository           { return r.node }
func (r *Repository) Session() repositories.SessionRepository     { return r.session }
func (r *Repository) ContentPack() repositories.ContentPackRepository { return r.pack }
func (r *Repository) User() repositories.UserRepository           { return r.user }

// WithTransaction runs fn against a repository bound to a single database
// transaction; a returned error rolls everything back.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
