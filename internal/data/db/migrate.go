package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/coursepack/internal/domain/learning"
	"github.com/yungbote/coursepack/internal/domain/user"
)

// Models lists every table the export service reads, in dependency order.
func Models() []any {
	return []any{
		&user.User{},

		&learning.Course{},
		&learning.CourseModule{},
		&learning.Chapter{},
		&learning.Assignment{},
		&learning.Quiz{},
		&learning.QuizQuestion{},
		&learning.Discussion{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
