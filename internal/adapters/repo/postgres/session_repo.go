package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/evdms/dealer-console/internal/domain"
)

type SessionRepo struct{ db *gorm.DB }

func NewSessionRepo(db *gorm.DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) Save(ctx context.Context, s *domain.WizardSession) error {
	if s == nil || s.ID == uuid.Nil {
		return errors.New("session id required")
	}
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *SessionRepo) Find(ctx context.Context, id string) (*domain.WizardSession, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	var s domain.WizardSession
	if err := r.db.WithContext(ctx).First(&s, "id = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrNotFound
	}
	return r.db.WithContext(ctx).Delete(&domain.WizardSession{}, "id = ?", uid).Error
}
