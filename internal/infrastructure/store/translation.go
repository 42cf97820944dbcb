package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

type TranslationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTranslationRepo(db *gorm.DB, baseLog *logger.Logger) *TranslationRepo {
	return &TranslationRepo{db: db, log: baseLog.With("repo", "TranslationRepo")}
}

// Set writes one localized field value, replacing any previous value.
func (r *TranslationRepo) Set(ctx context.Context, entity domain.EntityType, id uint, locale, field, value string) error {
	row := translationRow{
		EntityType: string(entity),
		EntityID:   id,
		Locale:     locale,
		Field:      field,
		Value:      value,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_type"}, {Name: "entity_id"}, {Name: "locale"}, {Name: "field"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return persistErr("set translation", err)
	}
	return nil
}

// Get returns field → value for the entity in locale.
func (r *TranslationRepo) Get(ctx context.Context, entity domain.EntityType, id uint, locale string) (map[string]string, error) {
	var rows []translationRow
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND locale = ?", string(entity), id, locale).
		Find(&rows).Error
	if err != nil {
		return nil, persistErr("get translations", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Field] = row.Value
	}
	return out, nil
}

func (r *TranslationRepo) DeleteEntity(ctx context.Context, entity domain.EntityType, id uint) error {
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", string(entity), id).
		Delete(&translationRow{}).Error
	if err != nil {
		return persistErr("delete translations", err)
	}
	return nil
}
