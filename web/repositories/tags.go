package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vigilo-project/vigilo/web/models"
)

type TagsRepository interface {
	GetAll(resourceTypeFilter ...string) ([]string, error)
	GetAllByResource(resourceType string, resourceId string) ([]string, error)
	Create(value string, resourceType string, resourceId string) error
	Delete(value string, resourceType string, resourceId string) error
}

type tagsRepository struct {
	db *gorm.DB
}

func NewTagsRepository(db *gorm.DB) *tagsRepository {
	return &tagsRepository{db: db}
}

func (r *tagsRepository) GetAll(resourceTypeFilter ...string) ([]string, error) {
	db := r.db
	if len(resourceTypeFilter) > 0 {
		db = db.Where("resource_type IN ?", resourceTypeFilter)
	}

	return getTags(db)
}

func (r *tagsRepository) GetAllByResource(resourceType string, resourceId string) ([]string, error) {
	db := r.db.
		Where("resource_type = ?", resourceType).
		Where("resource_id = ?", resourceId)

	return getTags(db)
}

// Create is idempotent, tagging a resource twice with the same value is a no-op.
func (r *tagsRepository) Create(value string, resourceType string, resourceId string) error {
	tag := models.Tag{
		Value:        value,
		ResourceType: resourceType,
		ResourceId:   resourceId,
	}

	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag)

	return result.Error
}

func (r *tagsRepository) Delete(value string, resourceType string, resourceId string) error {
	tag := models.Tag{
		Value:        value,
		ResourceType: resourceType,
		ResourceId:   resourceId,
	}

	result := r.db.Delete(&tag)

	return result.Error
}

func getTags(db *gorm.DB) ([]string, error) {
	var tags []models.Tag
	result := db.Order("value").Find(&tags)

	if result.Error != nil {
		return nil, result.Error
	}

	var tagStrings []string
	for _, t := range tags {
		tagStrings = append(tagStrings, t.Value)
	}

	return tagStrings, nil
}
