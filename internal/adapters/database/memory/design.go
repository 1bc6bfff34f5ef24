package memory

import (
	"context"
	"sync"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
)

// DesignStorage keeps the library in process memory.
type DesignStorage struct {
	mu      sync.RWMutex
	designs []entity.Design
}

func NewDesignStorage() *DesignStorage {
	return &DesignStorage{}
}

func (s *DesignStorage) Create(_ context.Context, design *entity.Design) (*entity.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.designs = append(s.designs, *design.Clone())
	return design, nil
}

func (s *DesignStorage) Get(_ context.Context, id string) (*entity.Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.designs {
		if s.designs[i].ID == id {
			return s.designs[i].Clone(), nil
		}
	}
	return nil, errorz.ErrDesignNotFound
}

func (s *DesignStorage) GetAll(_ context.Context) ([]entity.Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	designs := make([]entity.Design, 0, len(s.designs))
	for i := range s.designs {
		designs = append(designs, *s.designs[i].Clone())
	}
	return designs, nil
}

func (s *DesignStorage) Update(_ context.Context, design *entity.Design) (*entity.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.designs {
		if s.designs[i].ID == design.ID {
			s.designs[i] = *design.Clone()
			return design, nil
		}
	}
	return nil, errorz.ErrDesignNotFound
}

func (s *DesignStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.designs {
		if s.designs[i].ID == id {
			s.designs = append(s.designs[:i], s.designs[i+1:]...)
			return nil
		}
	}
	return errorz.ErrDesignNotFound
}

func (s *DesignStorage) ReplaceAll(_ context.Context, designs []entity.Design) error {
	replaced := make([]entity.Design, 0, len(designs))
	for i := range designs {
		replaced = append(replaced, *designs[i].Clone())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.designs = replaced
	return nil
}
