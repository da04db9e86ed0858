package jobs

import (
	"bytes"
	"context"
	"testing"
	"time"

	"SECUREATTEND/guard"
	"SECUREATTEND/identity"
	"SECUREATTEND/ledger"
	"SECUREATTEND/logging"
	"SECUREATTEND/matcher"
	"SECUREATTEND/models"
	"SECUREATTEND/pipeline"
	"SECUREATTEND/provider"
	"SECUREATTEND/service"
	"SECUREATTEND/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, backend storage.Backend) *service.Service {
	t.Helper()
	g := guard.New(identity.NewStore(backend), ledger.New(backend), time.Second)
	require.NoError(t, g.Load(context.Background()))

	p := provider.NewStatic()
	p.Set("alice", provider.Face{Embedding: models.Embedding{1, 0}})
	now := func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	svc := service.New(g, pipeline.New(p, matcher.Linear{}, 0.6), logging.Discard(),
		service.WithLocation(time.UTC), service.WithClock(now))

	ctx := context.Background()
	require.NoError(t, svc.Enroll(ctx, "alice", []byte("alice")))
	_, err := svc.CheckIn(ctx, []byte("alice"))
	require.NoError(t, err)
	return svc
}

func TestNew(t *testing.T) {
	svc := newService(t, storage.NewMemoryBackend())

	sch, err := New(svc, logging.Discard(), time.UTC, "0 2 * * *", "55 23 * * *")
	require.NoError(t, err)
	assert.Equal(t, 2, sch.Jobs())

	sch, err = New(svc, logging.Discard(), nil, "", "")
	require.NoError(t, err)
	assert.Zero(t, sch.Jobs())

	_, err = New(svc, logging.Discard(), time.UTC, "every day", "")
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	svc := newService(t, storage.NewMemoryBackend())
	sch, err := New(svc, logging.Discard(), time.UTC, "0 2 * * *", "")
	require.NoError(t, err)

	sch.Start()
	sch.Stop()
}

func TestBackup(t *testing.T) {
	backend := storage.NewMemoryBackend()
	svc := newService(t, backend)
	sch, err := New(svc, logging.Discard(), time.UTC, "", "")
	require.NoError(t, err)

	sch.Backup()

	ctx := context.Background()
	for _, key := range []string{"identities-backup-20261018", "attendance-backup-20261018"} {
		data, err := backend.Load(ctx, key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, data)
	}
}

func TestSummary(t *testing.T) {
	svc := newService(t, storage.NewMemoryBackend())
	var buf bytes.Buffer
	sch, err := New(svc, logging.New(&buf, "info"), time.UTC, "", "")
	require.NoError(t, err)

	sch.Summary()

	out := buf.String()
	assert.Contains(t, out, "daily attendance summary")
	assert.Contains(t, out, "date=2026-10-18")
	assert.Contains(t, out, "present=1")
	assert.Contains(t, out, "enrolled=1")
}
