package seeders

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/seedkit/example/models"
	"github.com/shashiranjanraj/seedkit/pkg/seeder"
)

var roleNames = []string{"admin", "editor", "viewer"}

func init() {
	seeder.Register(applyRoles, revertRoles)
}

func applyRoles(ctx context.Context, db *gorm.DB) error {
	roles := make([]models.Role, 0, len(roleNames))
	for _, name := range roleNames {
		roles = append(roles, models.Role{Name: name})
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&roles).Error
}

func revertRoles(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Where("name IN ?", roleNames).Delete(&models.Role{}).Error
}
