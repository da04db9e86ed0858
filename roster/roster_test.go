package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"SECUREATTEND/models"
	"SECUREATTEND/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyBackend struct {
	*storage.MemoryBackend
	failing bool
}

func (f *flakyBackend) Replace(ctx context.Context, key string, data []byte) error {
	if f.failing {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Replace(ctx, key, data)
}

func clock() time.Time {
	return time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
}

func newRoster(t *testing.T, backend storage.Backend) *Roster {
	t.Helper()
	r := New(backend, WithClock(clock))
	require.NoError(t, r.Load(context.Background()))
	return r
}

func student(regNo, name, course string) models.Student {
	return models.Student{RegNo: regNo, Name: name, Course: course}
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	r := newRoster(t, storage.NewMemoryBackend())

	require.NoError(t, r.Add(ctx, student(" 2021001 ", " alice ", "CS101")))
	got, ok := r.ByName("alice")
	require.True(t, ok)
	assert.Equal(t, "2021001", got.RegNo)
	assert.Equal(t, "CS101", got.Course)
	assert.Equal(t, clock(), got.AddedAt)

	tests := []struct {
		name string
		s    models.Student
		want error
	}{
		{"duplicate name", student("2021002", "alice", "CS102"), models.ErrDuplicateName},
		{"duplicate reg no", student("2021001", "bob", "CS102"), models.ErrDuplicateRegNo},
		{"missing course", student("2021003", "carol", " "), models.ErrInvalidInput},
		{"missing reg no", student("", "carol", "CS101"), models.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, r.Check(tt.s), tt.want)
			assert.ErrorIs(t, r.Add(ctx, tt.s), tt.want)
		})
	}
	assert.Equal(t, 1, r.Len())
}

func TestAdd_PersistenceFailureLeavesRosterUnchanged(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: storage.NewMemoryBackend()}
	r := newRoster(t, backend)
	require.NoError(t, r.Add(ctx, student("1", "alice", "CS101")))

	backend.failing = true
	assert.ErrorIs(t, r.Add(ctx, student("2", "bob", "CS101")), models.ErrPersistence)
	_, ok := r.ByName("bob")
	assert.False(t, ok)

	backend.failing = false
	assert.NoError(t, r.Add(ctx, student("2", "bob", "CS101")))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	r := newRoster(t, storage.NewMemoryBackend())
	require.NoError(t, r.Add(ctx, student("1", "alice", "CS101")))
	require.NoError(t, r.Add(ctx, student("2", "bob", "CS102")))

	removed, err := r.Remove(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = r.Remove(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, removed)

	// the freed registration number can be reused
	require.NoError(t, r.Add(ctx, student("1", "carol", "CS101")))
	assert.Equal(t, []string{"bob", "carol"}, []string{r.All()[0].Name, r.All()[1].Name})
}

func TestCourses(t *testing.T) {
	ctx := context.Background()
	r := newRoster(t, storage.NewMemoryBackend())
	assert.Equal(t, []string{}, r.Courses())

	require.NoError(t, r.Add(ctx, student("1", "alice", "CS102")))
	require.NoError(t, r.Add(ctx, student("2", "bob", "CS101")))
	require.NoError(t, r.Add(ctx, student("3", "carol", "CS102")))
	assert.Equal(t, []string{"CS101", "CS102"}, r.Courses())
}

func TestRoundTripAndBackup(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	r := newRoster(t, backend)
	require.NoError(t, r.Add(ctx, student("1", "alice", "CS101")))
	require.NoError(t, r.Add(ctx, student("2", "bob", "CS102")))

	reloaded := newRoster(t, backend)
	assert.Equal(t, r.All(), reloaded.All())

	require.NoError(t, r.Backup(ctx, "students-backup-20261018"))
	data, err := backend.Load(ctx, "students-backup-20261018")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reg_no":"2"`)
}

func TestLoad_RejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Replace(ctx, SnapshotKey, []byte(`{"students":[
		{"reg_no":"1","name":"alice","course":"CS101"},
		{"reg_no":"1","name":"bob","course":"CS101"}]}`)))

	err := New(backend).Load(ctx)
	assert.ErrorIs(t, err, models.ErrDuplicateRegNo)
}
