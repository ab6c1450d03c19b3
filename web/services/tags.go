package services

import (
	"gorm.io/gorm"

	"github.com/vigilo-project/vigilo/web/repositories"
)

// TagsService manages the free-form labels users attach to resources.
type TagsService struct {
	repository repositories.TagsRepository
}

func NewTagsService(db *gorm.DB) *TagsService {
	return &TagsService{
		repository: repositories.NewTagsRepository(db),
	}
}

func (s *TagsService) GetAll(resourceTypeFilter ...string) ([]string, error) {
	return s.repository.GetAll(resourceTypeFilter...)
}

func (s *TagsService) GetAllByResource(resourceType string, resourceId string) ([]string, error) {
	return s.repository.GetAllByResource(resourceType, resourceId)
}

func (s *TagsService) Create(value string, resourceType string, resourceId string) error {
	return s.repository.Create(value, resourceType, resourceId)
}

func (s *TagsService) Delete(value string, resourceType string, resourceId string) error {
	return s.repository.Delete(value, resourceType, resourceId)
}
