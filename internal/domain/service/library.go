package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/internal/domain/utils/location"
	"github.com/Badsnus/qrstudio/internal/domain/utils/validator"
	"github.com/Badsnus/qrstudio/pkg/logger"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
	"github.com/google/uuid"
)

type DesignStorage interface {
	Create(ctx context.Context, design *entity.Design) (*entity.Design, error)
	Get(ctx context.Context, id string) (*entity.Design, error)
	GetAll(ctx context.Context) ([]entity.Design, error)
	Update(ctx context.Context, design *entity.Design) (*entity.Design, error)
	Delete(ctx context.Context, id string) error
	// ReplaceAll swaps the whole library in one step.
	ReplaceAll(ctx context.Context, designs []entity.Design) error
}

type LibraryService struct {
	storage DesignStorage
	log     *types.Logger
}

func NewLibraryService(storage DesignStorage, log *types.Logger) *LibraryService {
	if log == nil {
		log = logger.NamedOrNop("library")
	}
	return &LibraryService{
		storage: storage,
		log:     log,
	}
}

// List returns every design, newest first.
func (s *LibraryService) List(ctx context.Context) ([]entity.Design, error) {
	designs, err := s.storage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(designs, func(i, j int) bool {
		return designs[i].Timestamp.After(designs[j].Timestamp)
	})
	return designs, nil
}

func (s *LibraryService) Get(ctx context.Context, id string) (*entity.Design, error) {
	return s.storage.Get(ctx, id)
}

// Save stores a new design. A blank name is replaced by "Design N".
func (s *LibraryService) Save(ctx context.Context, design *entity.Design) (*entity.Design, error) {
	design = design.Clone()
	design.Name = strings.TrimSpace(design.Name)

	existing, err := s.storage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if design.Name == "" {
		design.Name = autoName(existing)
	} else if !validator.DesignName(design.Name) {
		return nil, fmt.Errorf("%w: %q", errorz.ErrInvalidName, design.Name)
	}

	design.ID = uuid.New().String()
	if design.Timestamp.IsZero() {
		design.Timestamp = location.Now()
	}
	design.Config = design.Config.Normalize()

	created, err := s.storage.Create(ctx, design)
	if err != nil {
		return nil, err
	}
	s.log.Infof("saved design %s (%s)", created.ID, created.Name)
	return created, nil
}

// Update overwrites the content of an existing design, keeping its id and
// name unless a new name is given.
func (s *LibraryService) Update(ctx context.Context, id string, design *entity.Design) (*entity.Design, error) {
	current, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	design = design.Clone()
	design.ID = current.ID
	design.Name = strings.TrimSpace(design.Name)
	if design.Name == "" {
		design.Name = current.Name
	} else if !validator.DesignName(design.Name) {
		return nil, fmt.Errorf("%w: %q", errorz.ErrInvalidName, design.Name)
	}
	design.Timestamp = location.Now()
	design.Config = design.Config.Normalize()

	return s.storage.Update(ctx, design)
}

func (s *LibraryService) Rename(ctx context.Context, id, name string) (*entity.Design, error) {
	name = strings.TrimSpace(name)
	if !validator.DesignName(name) {
		return nil, fmt.Errorf("%w: %q", errorz.ErrInvalidName, name)
	}
	design, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	design.Name = name
	return s.storage.Update(ctx, design)
}

func (s *LibraryService) Delete(ctx context.Context, id string) error {
	if _, err := s.storage.Get(ctx, id); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infof("deleted design %s", id)
	return nil
}

// Duplicate copies a design under "<name> (copy)", then "(copy 2)" and so on.
func (s *LibraryService) Duplicate(ctx context.Context, id string) (*entity.Design, error) {
	original, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing, err := s.storage.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	dup := original.Clone()
	dup.ID = uuid.New().String()
	dup.Name = copyName(original.Name, existing)
	dup.Timestamp = location.Now()
	return s.storage.Create(ctx, dup)
}

// Export writes the whole library as a JSON array.
func (s *LibraryService) Export(ctx context.Context, w io.Writer) error {
	designs, err := s.List(ctx)
	if err != nil {
		return err
	}
	if designs == nil {
		designs = []entity.Design{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(designs)
}

// Import merges a JSON array exported by Export into the library. The
// document is fully parsed and checked first; on any failure the library is
// left unchanged. Imported records that collide with an existing id get a
// fresh one.
func (s *LibraryService) Import(ctx context.Context, r io.Reader) (int, error) {
	var incoming []entity.Design
	if err := json.NewDecoder(r).Decode(&incoming); err != nil {
		s.log.Errorf("failed to parse library: %v", err)
		return 0, fmt.Errorf("%w: %v", errorz.ErrMalformedLibrary, err)
	}

	existing, err := s.storage.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	taken := make(map[string]bool, len(existing)+len(incoming))
	for _, d := range existing {
		taken[d.ID] = true
	}

	merged := existing
	for i := range incoming {
		d := incoming[i]
		d.Config = d.Config.Normalize()
		if err = validator.Config(d.Config); err != nil {
			s.log.Errorf("failed to import design %d: %v", i, err)
			return 0, fmt.Errorf("%w: design %d: %v", errorz.ErrMalformedLibrary, i, err)
		}
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			d.Name = autoName(merged)
		}
		if _, err = uuid.Parse(d.ID); err != nil || taken[d.ID] {
			d.ID = uuid.New().String()
		}
		if d.Timestamp.IsZero() {
			d.Timestamp = location.Now()
		}
		taken[d.ID] = true
		merged = append(merged, d)
	}

	if err = s.storage.ReplaceAll(ctx, merged); err != nil {
		return 0, err
	}
	s.log.Infof("imported %d designs", len(incoming))
	return len(incoming), nil
}

func names(designs []entity.Design) map[string]bool {
	m := make(map[string]bool, len(designs))
	for _, d := range designs {
		m[d.Name] = true
	}
	return m
}

func autoName(existing []entity.Design) string {
	taken := names(existing)
	for n := len(existing) + 1; ; n++ {
		name := fmt.Sprintf("Design %d", n)
		if !taken[name] {
			return name
		}
	}
}

func copyName(name string, existing []entity.Design) string {
	taken := names(existing)
	candidate := name + " (copy)"
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s (copy %d)", name, n)
	}
	return candidate
}
