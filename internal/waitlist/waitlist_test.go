package waitlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichub/clinic-scheduler/internal/audit"
)

type fakeRepo struct {
	entries []Entry
}

func (f *fakeRepo) Create(_ context.Context, e Entry) (*Entry, error) {
	e.ID = uuid.New()
	f.entries = append(f.entries, e)
	return &e, nil
}

func (f *fakeRepo) List(_ context.Context, patientID uuid.UUID, status EntryStatus) ([]Entry, error) {
	var out []Entry
	for _, e := range f.entries {
		if e.PatientID != patientID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func TestJoin(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, audit.Discard{}, zerolog.Nop())
	patientID := uuid.New()

	entry, err := svc.Join(context.Background(), patientID, Entry{
		PatientID:         patientID,
		AppointmentTypeID: uuid.New(),
		PreferredDays:     []int{1, 3, 5},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, entry.Status, "new entries always start active")
	assert.NotEqual(t, uuid.Nil, entry.ID)
}

func TestJoin_Validation(t *testing.T) {
	svc := NewService(&fakeRepo{}, audit.Discard{}, zerolog.Nop())
	patientID := uuid.New()

	_, err := svc.Join(context.Background(), patientID, Entry{
		AppointmentTypeID: uuid.New(),
	})
	assert.ErrorIs(t, err, ErrInvalidEntry, "missing patient")

	_, err = svc.Join(context.Background(), patientID, Entry{
		PatientID: patientID,
	})
	assert.ErrorIs(t, err, ErrInvalidEntry, "missing appointment type")

	_, err = svc.Join(context.Background(), patientID, Entry{
		PatientID:         patientID,
		AppointmentTypeID: uuid.New(),
		PreferredDays:     []int{7},
	})
	assert.ErrorIs(t, err, ErrInvalidEntry, "weekday out of range")
}

func TestList_FiltersByStatus(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, audit.Discard{}, zerolog.Nop())
	patientID := uuid.New()

	_, err := svc.Join(context.Background(), patientID, Entry{
		PatientID:         patientID,
		AppointmentTypeID: uuid.New(),
	})
	require.NoError(t, err)
	repo.entries[0].Status = StatusBooked

	_, err = svc.Join(context.Background(), patientID, Entry{
		PatientID:         patientID,
		AppointmentTypeID: uuid.New(),
	})
	require.NoError(t, err)

	active, err := svc.List(context.Background(), patientID, StatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.List(context.Background(), patientID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
