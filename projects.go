package main

// projects.go project entries: the only resource with an upload and a two-step update

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

const projectFolder = "project_manager"

// ProjectInput is a project write. Image is nil when no file was sent.
type ProjectInput struct {
	Name  string
	Link  string
	Image *ImageFile
}

type ProjectService struct {
	*Service[ProjectEntry, *ProjectEntry]
	images ImageStore
}

func NewProjectService(store Store[ProjectEntry], images ImageStore, v *validator.Validate) *ProjectService {
	return &ProjectService{
		Service: NewService[ProjectEntry](store, projectSchema, v),
		images:  images,
	}
}

func (s *ProjectService) Add(ctx context.Context, in ProjectInput) (*ProjectEntry, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Link) == "" || in.Image == nil {
		return nil, validationError("All fields are required")
	}
	if _, err := imageExtension(in.Image.Filename); err != nil {
		return nil, err
	}

	url, err := s.upload(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	entry := &ProjectEntry{Name: in.Name, ImageURL: url, Link: in.Link}
	if _, err := s.Service.Add(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Update rewrites name and link. Without a new image the stored image URL is
// read first and written back unchanged.
func (s *ProjectService) Update(ctx context.Context, id uint, in ProjectInput) (int64, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Link) == "" {
		return 0, validationError("name and link are required")
	}

	var url string
	if in.Image != nil {
		if _, err := imageExtension(in.Image.Filename); err != nil {
			return 0, err
		}
		u, err := s.upload(ctx, in.Image)
		if err != nil {
			return 0, err
		}
		url = u
	} else {
		existing, err := s.Service.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		url = existing.ImageURL
	}

	return s.Service.Update(ctx, id, &ProjectEntry{Name: in.Name, ImageURL: url, Link: in.Link})
}

func (s *ProjectService) upload(ctx context.Context, img *ImageFile) (string, error) {
	url, err := s.images.Upload(ctx, projectFolder, *img)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return "", err
		}
		return "", infraError("Error uploading image", err)
	}
	return url, nil
}
