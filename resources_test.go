package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillService_RoundTrip(t *testing.T) {
	db := newMigratedDB(t)
	svc := NewService[Skill](newGormStore[Skill](db), skillSchema, newValidator())
	ctx := context.Background()

	in := &Skill{Label: "Go", Percentage: 90}
	id, err := svc.Add(ctx, in)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Skill{Base: Base{ID: id}, Label: "Go", Percentage: 90}, *got)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEducationService_RoundTrip(t *testing.T) {
	db := newMigratedDB(t)
	svc := NewService[EducationEntry](newGormStore[EducationEntry](db), educationSchema, newValidator())
	ctx := context.Background()

	id, err := svc.Add(ctx, &EducationEntry{Name: "BSc Computer Science", Description: "2016 - 2020"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "BSc Computer Science", got.Name)
	assert.Equal(t, "2016 - 2020", got.Description)

	n, err := svc.Update(ctx, id, &EducationEntry{Name: "MSc", Description: "2021 - 2023"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "MSc", got.Name)
}

func TestService_AddIgnoresClientID(t *testing.T) {
	db := newMigratedDB(t)
	svc := NewService[Skill](newGormStore[Skill](db), skillSchema, newValidator())

	id, err := svc.Add(context.Background(), &Skill{Base: Base{ID: 42}, Label: "SQL", Percentage: 70})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
}

func TestContactService_ServerAssignsDate(t *testing.T) {
	db := newMigratedDB(t)
	svc := NewService[ContactMessage](newGormStore[ContactMessage](db), contactSchema, newValidator())
	ctx := context.Background()

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	id, err := svc.Add(ctx, &ContactMessage{
		Name:        "Ada",
		Email:       "ada@example.com",
		Description: "Hello",
		SubmittedAt: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "Hello", got.Description)
	assert.True(t, first.Equal(got.SubmittedAt), "date = %v", got.SubmittedAt)

	second := first.Add(48 * time.Hour)
	svc.now = func() time.Time { return second }
	_, err = svc.Update(ctx, id, &ContactMessage{Name: "Ada", Email: "ada@example.com", Description: "Hello again"})
	require.NoError(t, err)

	got, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, second.Equal(got.SubmittedAt), "date = %v", got.SubmittedAt)
}

func TestService_MissingIDs(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	v := newValidator()

	skills := NewService[Skill](newGormStore[Skill](db), skillSchema, v)
	education := NewService[EducationEntry](newGormStore[EducationEntry](db), educationSchema, v)
	contacts := NewService[ContactMessage](newGormStore[ContactMessage](db), contactSchema, v)

	_, err := skills.Get(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = skills.Update(ctx, 99, &Skill{Label: "Go", Percentage: 50})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = education.Update(ctx, 99, &EducationEntry{Name: "x", Description: "y"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = contacts.Update(ctx, 99, &ContactMessage{Name: "x", Email: "x@y.z", Description: "y"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = education.Delete(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_DeleteTwice(t *testing.T) {
	db := newMigratedDB(t)
	svc := NewService[Skill](newGormStore[Skill](db), skillSchema, newValidator())
	ctx := context.Background()

	id, err := svc.Add(ctx, &Skill{Label: "Rust", Percentage: 40})
	require.NoError(t, err)

	n, err := svc.Delete(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = svc.Delete(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ValidationNeverReachesStore(t *testing.T) {
	ctx := context.Background()
	v := newValidator()

	skillStore := &countingStore[Skill]{}
	skills := NewService[Skill](skillStore, skillSchema, v)
	educationStore := &countingStore[EducationEntry]{}
	education := NewService[EducationEntry](educationStore, educationSchema, v)
	contactStore := &countingStore[ContactMessage]{}
	contacts := NewService[ContactMessage](contactStore, contactSchema, v)

	tests := []struct {
		name string
		call func() error
	}{
		{"skill add without label", func() error { _, err := skills.Add(ctx, &Skill{Percentage: 10}); return err }},
		{"skill add without percentage", func() error { _, err := skills.Add(ctx, &Skill{Label: "Go"}); return err }},
		{"skill update empty", func() error { _, err := skills.Update(ctx, 1, &Skill{}); return err }},
		{"education add without description", func() error {
			_, err := education.Add(ctx, &EducationEntry{Name: "BSc"})
			return err
		}},
		{"education update without name", func() error {
			_, err := education.Update(ctx, 1, &EducationEntry{Description: "d"})
			return err
		}},
		{"contact add without email", func() error {
			_, err := contacts.Add(ctx, &ContactMessage{Name: "n", Description: "d"})
			return err
		}},
		{"contact update without description", func() error {
			_, err := contacts.Update(ctx, 1, &ContactMessage{Name: "n", Email: "e@x.io"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrValidation)
		})
	}

	assert.Zero(t, skillStore.Calls())
	assert.Zero(t, educationStore.Calls())
	assert.Zero(t, contactStore.Calls())
}

// A zero percentage counts as missing, the same as an absent one.
func TestSkillService_ZeroPercentageIsMissing(t *testing.T) {
	store := &countingStore[Skill]{}
	svc := NewService[Skill](store, skillSchema, newValidator())

	_, err := svc.Add(context.Background(), &Skill{Label: "Go", Percentage: 0})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "percentage is required", messageFor(err))
	assert.Zero(t, store.Calls())
}

func TestCheckStruct_Messages(t *testing.T) {
	v := newValidator()

	err := checkStruct(v, &Skill{})
	assert.Equal(t, "skill and percentage are required", messageFor(err))

	err = checkStruct(v, &ContactMessage{})
	assert.Equal(t, "name, email, and description are required", messageFor(err))

	err = checkStruct(v, &AdminAccount{Name: "a", Email: "nope", Phone: "1", NationalID: "2"})
	assert.Equal(t, "Invalid email format", messageFor(err))
}
