package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFile(name string) *ImageFile {
	return &ImageFile{Filename: name, ContentType: "image/png", Size: 4, Body: strings.NewReader("\x89PNG")}
}

func TestProjectService_AddRequiresFields(t *testing.T) {
	store := &countingStore[ProjectEntry]{}
	images := &fakeImageStore{}
	svc := NewProjectService(store, images, newValidator())
	ctx := context.Background()

	tests := []struct {
		name string
		in   ProjectInput
	}{
		{"no image", ProjectInput{Name: "Portfolio", Link: "https://example.com"}},
		{"no name", ProjectInput{Link: "https://example.com", Image: pngFile("a.png")}},
		{"no link", ProjectInput{Name: "Portfolio", Image: pngFile("a.png")}},
		{"blank name", ProjectInput{Name: "  ", Link: "https://example.com", Image: pngFile("a.png")}},
		{"gif", ProjectInput{Name: "Portfolio", Link: "https://example.com", Image: pngFile("a.gif")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Zero(t, store.Calls())
	assert.Zero(t, images.Uploads())
}

func TestProjectService_AddUploadsImage(t *testing.T) {
	db := newMigratedDB(t)
	images := &fakeImageStore{urls: []string{"http://x/1.png"}}
	svc := NewProjectService(newGormStore[ProjectEntry](db), images, newValidator())
	ctx := context.Background()

	entry, err := svc.Add(ctx, ProjectInput{Name: "A", Link: "l", Image: pngFile("shot.PNG")})
	require.NoError(t, err)
	assert.Equal(t, "http://x/1.png", entry.ImageURL)
	assert.Equal(t, []string{projectFolder}, images.folders)

	got, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, *entry, *got)
}

func TestProjectService_UpdateKeepsImageWhenOmitted(t *testing.T) {
	db := newMigratedDB(t)
	images := &fakeImageStore{urls: []string{"http://x/1.png"}}
	svc := NewProjectService(newGormStore[ProjectEntry](db), images, newValidator())
	ctx := context.Background()

	entry, err := svc.Add(ctx, ProjectInput{Name: "A", Link: "l", Image: pngFile("1.png")})
	require.NoError(t, err)

	n, err := svc.Update(ctx, entry.ID, ProjectInput{Name: "B", Link: "l2"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, ProjectEntry{Base: Base{ID: entry.ID}, Name: "B", ImageURL: "http://x/1.png", Link: "l2"}, *got)
	assert.Equal(t, 1, images.Uploads())
}

func TestProjectService_UpdateReplacesImage(t *testing.T) {
	db := newMigratedDB(t)
	images := &fakeImageStore{urls: []string{"http://x/1.png", "http://x/2.png"}}
	svc := NewProjectService(newGormStore[ProjectEntry](db), images, newValidator())
	ctx := context.Background()

	entry, err := svc.Add(ctx, ProjectInput{Name: "A", Link: "l", Image: pngFile("1.png")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, entry.ID, ProjectInput{Name: "A", Link: "l", Image: pngFile("2.jpg")})
	require.NoError(t, err)

	got, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://x/2.png", got.ImageURL)
}

func TestProjectService_UpdateMissing(t *testing.T) {
	db := newMigratedDB(t)
	svc := NewProjectService(newGormStore[ProjectEntry](db), &fakeImageStore{}, newValidator())
	ctx := context.Background()

	_, err := svc.Update(ctx, 99, ProjectInput{Name: "B", Link: "l2"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, 99, ProjectInput{Name: "B", Link: "l2", Image: pngFile("x.png")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, 99, ProjectInput{Link: "l2"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Delete(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectService_UploadFailure(t *testing.T) {
	store := &countingStore[ProjectEntry]{}
	boom := errors.New("bucket unreachable")
	svc := NewProjectService(store, &fakeImageStore{err: boom}, newValidator())

	_, err := svc.Add(context.Background(), ProjectInput{Name: "A", Link: "l", Image: pngFile("1.png")})
	require.ErrorIs(t, err, ErrInfrastructure)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.Calls())
}
