package staff

import (
	"context"
	"strings"
)

// Service answers staff directory queries for handlers and reporting.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*Staff, error) {
	return s.repo.List(ctx)
}

// ActiveDoctors returns active staff with the doctor role, optionally
// narrowed to one department. An empty or "all" department matches every
// doctor.
func (s *Service) ActiveDoctors(ctx context.Context, department string) ([]*Staff, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Staff
	for _, m := range all {
		if !m.IsActiveDoctor() {
			continue
		}
		if department != "" && department != "all" && !strings.EqualFold(m.Department, department) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
