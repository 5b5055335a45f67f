package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/fundimport/internal/domain/models"
	"github.com/guttosm/fundimport/internal/ingestion"
	"github.com/guttosm/fundimport/internal/mapping"
	"github.com/guttosm/fundimport/internal/storage"
	"github.com/guttosm/fundimport/internal/tabular"
)

const sampleCSV = "客户号,客户姓名,基金代码,购买金额,购买份额,购买日期\n" +
	"123456,张三,000001,1000,500,2024-03-05\n" +
	"123457,李四,000002,2000,1000,2024-03-06\n"

func newTestService(t *testing.T, repo storage.HoldingsRepository) ImportService {
	t.Helper()
	svc := NewImportService(repo, Options{
		Pipeline:   ingestion.DefaultConfig(),
		SessionTTL: time.Minute,
		MaxBytes:   1 << 20,
	})
	t.Cleanup(svc.Shutdown)
	return svc
}

func waitForState(t *testing.T, svc ImportService, id string, want ingestion.State) ingestion.Snapshot {
	t.Helper()
	var snap ingestion.Snapshot
	require.Eventually(t, func() bool {
		var err error
		snap, err = svc.Get(id)
		return err == nil && snap.State == want
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

func TestImportService_StartAndCommit(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := newTestService(t, repo)

	snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, ingestion.StatePreviewing, snap.State)
	assert.Equal(t, tabular.FormatDelimited, snap.Format)
	assert.Len(t, snap.Preview, 2)
	assert.Equal(t, snap.RequiredTotal, snap.RequiredMapped)

	_, err = svc.Commit(snap.ID)
	require.NoError(t, err)

	done := waitForState(t, svc, snap.ID, ingestion.StateCompleted)
	require.NotNil(t, done.Result)
	assert.Equal(t, 2, done.Result.Success)

	held, err := svc.Holdings(context.Background())
	require.NoError(t, err)
	assert.Len(t, held, 2)

	require.Eventually(t, func() bool {
		ok, _ := repo.HasImport(context.Background(), done.Checksum)
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	entries, err := svc.Audit(snap.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestImportService_CommitTwiceRejected(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryRepository())
	snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
	require.NoError(t, err)

	_, err = svc.Commit(snap.ID)
	require.NoError(t, err)
	_, err = svc.Commit(snap.ID)
	assert.ErrorIs(t, err, ingestion.ErrInvalidState)
}

func TestImportService_CommitNeedsRequiredFields(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryRepository())
	snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
	require.NoError(t, err)

	snap, err = svc.Remap(snap.ID, "purchaseDate", ClearColumn)
	require.NoError(t, err)
	assert.Nil(t, snap.Preview)

	_, err = svc.Commit(snap.ID)
	var me *ingestion.MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{"购买日期"}, me.Missing)

	snap, err = svc.Remap(snap.ID, "购买日期", 5)
	require.NoError(t, err)
	assert.Len(t, snap.Preview, 2)
}

func TestImportService_RemapErrors(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryRepository())
	snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
	require.NoError(t, err)

	_, err = svc.Remap(snap.ID, "nope", 0)
	assert.ErrorIs(t, err, mapping.ErrUnknownField)

	_, err = svc.Remap(snap.ID, "fundCode", 99)
	assert.ErrorIs(t, err, mapping.ErrColumnOutOfRange)

	_, err = svc.Remap("missing", "fundCode", 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestImportService_StartErrors(t *testing.T) {
	svc := NewImportService(storage.NewMemoryRepository(), Options{
		Pipeline:   ingestion.DefaultConfig(),
		SessionTTL: time.Minute,
		MaxBytes:   16,
	})
	defer svc.Shutdown()

	_, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.Start(context.Background(), "empty.csv", nil)
	var fe *tabular.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestImportService_Discard(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryRepository())
	snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
	require.NoError(t, err)

	require.NoError(t, svc.Discard(snap.ID))
	_, err = svc.Get(snap.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Discard(snap.ID), ErrSessionNotFound)
	_, err = svc.Audit(snap.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestImportService_SessionsExpire(t *testing.T) {
	svc := NewImportService(storage.NewMemoryRepository(), Options{
		Pipeline:   ingestion.DefaultConfig(),
		SessionTTL: 20 * time.Millisecond,
	})
	defer svc.Shutdown()

	snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	_, err = svc.Get(snap.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

type failingRepo struct {
	storage.HoldingsRepository
}

func (failingRepo) ListHoldings(context.Context) ([]models.Holding, error) {
	return nil, errors.New("db down")
}

func TestImportService_FailedImportAborts(t *testing.T) {
	svc := newTestService(t, failingRepo{storage.NewMemoryRepository()})
	snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
	require.NoError(t, err)

	_, err = svc.Commit(snap.ID)
	require.NoError(t, err)

	aborted := waitForState(t, svc, snap.ID, ingestion.StateAborted)
	assert.EqualError(t, aborted.Err, "list holdings: db down")

	_, err = svc.Holdings(context.Background())
	assert.Error(t, err)
}

// gatedRepo holds ListHoldings until release is closed or ctx ends.
type gatedRepo struct {
	storage.HoldingsRepository
	release chan struct{}
}

func newGatedRepo() *gatedRepo {
	return &gatedRepo{HoldingsRepository: storage.NewMemoryRepository(), release: make(chan struct{})}
}

func (r *gatedRepo) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	select {
	case <-r.release:
		return r.HoldingsRepository.ListHoldings(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestImportService_CommitFreezesMapping(t *testing.T) {
	repo := newGatedRepo()
	svc := newTestService(t, repo)
	snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
	require.NoError(t, err)

	accepted, err := svc.Commit(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, ingestion.StateImporting, accepted.State)

	_, err = svc.Remap(snap.ID, "fundCode", ClearColumn)
	assert.ErrorIs(t, err, ingestion.ErrInvalidState)
	_, err = svc.Remap(snap.ID, "fundCode", 2)
	assert.ErrorIs(t, err, ingestion.ErrInvalidState)

	close(repo.release)
	done := waitForState(t, svc, snap.ID, ingestion.StateCompleted)
	require.NotNil(t, done.Result)
	assert.Equal(t, 2, done.Result.Success)
	require.NotNil(t, done.Fields[1].ColumnIndex, "fund code stays mapped")
	assert.Equal(t, 2, *done.Fields[1].ColumnIndex)
}

func TestImportService_RemapRaceNeverLosesCommit(t *testing.T) {
	for i := 0; i < 20; i++ {
		svc := newTestService(t, storage.NewMemoryRepository())
		snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
		require.NoError(t, err)

		remapped := make(chan error, 1)
		go func() {
			_, err := svc.Remap(snap.ID, "fundCode", ClearColumn)
			remapped <- err
		}()
		_, commitErr := svc.Commit(snap.ID)
		remapErr := <-remapped

		if commitErr != nil {
			// the clear won the race: nothing was accepted
			require.NoError(t, remapErr)
			var me *ingestion.MappingError
			require.ErrorAs(t, commitErr, &me)
			continue
		}
		require.ErrorIs(t, remapErr, ingestion.ErrInvalidState)
		done := waitForState(t, svc, snap.ID, ingestion.StateCompleted)
		assert.Equal(t, 2, done.Result.Success)
	}
}

func TestImportService_DiscardRaceNeverResurrects(t *testing.T) {
	for i := 0; i < 20; i++ {
		repo := newGatedRepo()
		svc := newTestService(t, repo)
		snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
		require.NoError(t, err)

		discarded := make(chan error, 1)
		go func() { discarded <- svc.Discard(snap.ID) }()
		_, commitErr := svc.Commit(snap.ID)
		require.NoError(t, <-discarded)
		if commitErr != nil {
			require.ErrorIs(t, commitErr, ErrSessionNotFound)
		}

		_, err = svc.Get(snap.ID)
		require.ErrorIs(t, err, ErrSessionNotFound)
		close(repo.release)
	}
}

func TestImportService_RunningImportOutlivesTTL(t *testing.T) {
	repo := newGatedRepo()
	svc := NewImportService(repo, Options{
		Pipeline:   ingestion.DefaultConfig(),
		SessionTTL: 20 * time.Millisecond,
	})
	defer svc.Shutdown()

	snap, err := svc.Start(context.Background(), "a.csv", []byte(sampleCSV))
	require.NoError(t, err)
	_, err = svc.Commit(snap.ID)
	require.NoError(t, err)

	// several TTLs and janitor sweeps pass without any polling
	time.Sleep(80 * time.Millisecond)
	close(repo.release)

	done := waitForState(t, svc, snap.ID, ingestion.StateCompleted)
	assert.Equal(t, 2, done.Result.Success)

	// back on the normal TTL once finished
	time.Sleep(60 * time.Millisecond)
	_, err = svc.Get(snap.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
