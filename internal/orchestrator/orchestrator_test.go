package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
	"github.com/choppy227/paraswap-volume-tracker/internal/store/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLock struct{ released bool }

func (l *fakeLock) Release(context.Context) error {
	l.released = true
	return nil
}

type fakeLocker struct {
	mu      sync.Mutex
	granted map[string]bool
}

func newFakeLocker() *fakeLocker { return &fakeLocker{granted: map[string]bool{}} }

func (f *fakeLocker) AcquireBlocking(ctx context.Context, name string, poll time.Duration) (Lock, error) {
	f.mu.Lock()
	f.granted[name] = true
	f.mu.Unlock()
	return &fakeLock{}, nil
}

type fakeDriver struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (d *fakeDriver) Run(ctx context.Context, chainID model.ChainID, epoch int64, calcStart, calcEnd time.Time) error {
	d.mu.Lock()
	d.calls = append(d.calls, epoch)
	d.mu.Unlock()
	return d.err
}

// distRepoState backs a MockDistributionRepository with the same
// accumulate-across-calls behavior the hand-written fake used to
// provide, wired up via DoAndReturn on each call's mock expectation.
type distRepoState struct {
	mu           sync.Mutex
	lastComplete map[model.ChainID]int64
	hasComplete  map[model.ChainID]bool
	sealed       []model.Distribution
	exists       map[string]bool
}

func newDistRepoState() *distRepoState {
	return &distRepoState{lastComplete: map[model.ChainID]int64{}, hasComplete: map[model.ChainID]bool{}, exists: map[string]bool{}}
}

func newMockDistRepo(t *testing.T, st *distRepoState) *mocks.MockDistributionRepository {
	m := mocks.NewMockDistributionRepository(gomock.NewController(t))
	m.EXPECT().Exists(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, chainID model.ChainID, epoch int64) (bool, error) {
			st.mu.Lock()
			defer st.mu.Unlock()
			return st.exists[key(chainID, epoch)], nil
		}).AnyTimes()
	m.EXPECT().Seal(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *sql.Tx, d model.Distribution) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			st.sealed = append(st.sealed, d)
			st.exists[key(d.ChainID, d.Epoch)] = true
			return nil
		}).AnyTimes()
	m.EXPECT().LastCompletedEpoch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, chainID model.ChainID) (int64, bool, error) {
			st.mu.Lock()
			defer st.mu.Unlock()
			return st.lastComplete[chainID], st.hasComplete[chainID], nil
		}).AnyTimes()
	return m
}

func key(chainID model.ChainID, epoch int64) string {
	return fmt.Sprintf("%s:%d", chainID, epoch)
}

// partRepoState mirrors distRepoState for MockParticipationRepository.
type partRepoState struct {
	mu        sync.Mutex
	upserted  []model.Participation
	completed int
}

func newMockPartRepo(t *testing.T, st *partRepoState) *mocks.MockParticipationRepository {
	m := mocks.NewMockParticipationRepository(gomock.NewController(t))
	m.EXPECT().UpsertBatch(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *sql.Tx, rows []model.Participation) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			st.upserted = append(st.upserted, rows...)
			return nil
		}).AnyTimes()
	m.EXPECT().MarkCompleted(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *sql.Tx, model.ChainID, int64) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			st.completed++
			return nil
		}).AnyTimes()
	return m
}

// newMockTxRepo wires ValidatedForEpoch to the given fixture; the other
// TransactionRepository methods are unused by sealEpoch/runChain and so
// are left unexpected (a call to one fails the test, matching gomock's
// strict-by-default behavior).
func newMockTxRepo(t *testing.T, validated map[int64][]model.GasRefundTransaction) *mocks.MockTransactionRepository {
	m := mocks.NewMockTransactionRepository(gomock.NewController(t))
	m.EXPECT().ValidatedForEpoch(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ model.ChainID, epoch int64) ([]model.GasRefundTransaction, error) {
			return validated[epoch], nil
		}).AnyTimes()
	return m
}

// newNoopBeginner returns a MockTxBeginner whose BeginTx always fails.
// *sql.Tx has no in-pack fake, so these tests only cover the decisions
// sealEpoch makes before opening a transaction (skip already-sealed,
// skip empty).
func newNoopBeginner(t *testing.T) *mocks.MockTxBeginner {
	m := mocks.NewMockTxBeginner(gomock.NewController(t))
	m.EXPECT().BeginTx(gomock.Any(), gomock.Any()).Return(nil, errUnreachedBeginTx).AnyTimes()
	return m
}

var errUnreachedBeginTx = fmt.Errorf("BeginTx should not be reached in this test")

func TestOrchestrator_RunChain_SkipsAlreadySealedEpochs(t *testing.T) {
	locker := newFakeLocker()
	driver := &fakeDriver{}
	distState := newDistRepoState()
	distState.hasComplete[model.ChainMainnet] = true
	distState.lastComplete[model.ChainMainnet] = 4
	distState.exists[key(model.ChainMainnet, 6)] = true
	dist := newMockDistRepo(t, distState)

	o := New(
		Config{Genesis: 0, GenesisTimestamp: time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)},
		[]model.ChainID{model.ChainMainnet},
		locker,
		map[model.ChainID]ChainDriver{model.ChainMainnet: driver},
		nil,
		newMockTxRepo(t, map[int64][]model.GasRefundTransaction{}),
		dist,
		newMockPartRepo(t, &partRepoState{}),
		newNoopBeginner(t),
		nil,
		testLogger(),
	)

	run := o.runChain(context.Background(), model.ChainMainnet, 8)
	require.NoError(t, run.err)
	assert.Equal(t, int64(5), run.startEpoch)
	assert.Equal(t, int64(8), run.upToEpoch)
	assert.Equal(t, []int64{5, 7}, driver.calls, "epoch 6 already has a sealed distribution and must be skipped")
	assert.True(t, locker.granted["gas-refund:1"])
}

func TestOrchestrator_SealEpoch_SkipsWhenNoValidatedRows(t *testing.T) {
	distState := newDistRepoState()
	dist := newMockDistRepo(t, distState)
	partState := &partRepoState{}
	part := newMockPartRepo(t, partState)
	txRepo := newMockTxRepo(t, map[int64][]model.GasRefundTransaction{})

	o := New(
		Config{},
		[]model.ChainID{model.ChainMainnet},
		newFakeLocker(),
		map[model.ChainID]ChainDriver{},
		nil,
		txRepo,
		dist,
		part,
		newNoopBeginner(t),
		nil,
		testLogger(),
	)

	err := o.sealEpoch(context.Background(), model.ChainMainnet, 3)
	require.NoError(t, err)
	assert.Empty(t, distState.sealed, "no validated rows means nothing to seal")
	assert.Empty(t, partState.upserted)
}

func TestOrchestrator_SealEpoch_SkipsWhenAlreadySealed(t *testing.T) {
	distState := newDistRepoState()
	distState.exists[key(model.ChainMainnet, 3)] = true
	dist := newMockDistRepo(t, distState)
	txRepo := newMockTxRepo(t, map[int64][]model.GasRefundTransaction{
		3: {{ID: uuid.New(), Status: model.StatusValidated, Address: "0xabc", RefundedAmountPSP: "100"}},
	})

	o := New(
		Config{},
		[]model.ChainID{model.ChainMainnet},
		newFakeLocker(),
		map[model.ChainID]ChainDriver{},
		nil,
		txRepo,
		dist,
		newMockPartRepo(t, &partRepoState{}),
		newNoopBeginner(t),
		nil,
		testLogger(),
	)

	err := o.sealEpoch(context.Background(), model.ChainMainnet, 3)
	require.NoError(t, err)
	assert.Len(t, distState.sealed, 0, "already-sealed epoch must not re-run BeginTx")
}

func TestOrchestrator_RunIngestionPhase_OneChainFailureDoesNotBlockOthers(t *testing.T) {
	failing := &fakeDriver{err: fmt.Errorf("collaborator unavailable")}
	ok := &fakeDriver{}
	dist := newMockDistRepo(t, newDistRepoState())

	o := New(
		Config{Genesis: 0, GenesisTimestamp: time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)},
		[]model.ChainID{model.ChainMainnet, model.ChainBSC},
		newFakeLocker(),
		map[model.ChainID]ChainDriver{model.ChainMainnet: failing, model.ChainBSC: ok},
		nil,
		newMockTxRepo(t, map[int64][]model.GasRefundTransaction{}),
		dist,
		newMockPartRepo(t, &partRepoState{}),
		newNoopBeginner(t),
		nil,
		testLogger(),
	)

	runs := o.runIngestionPhase(context.Background(), 2)
	require.Len(t, runs, 2)

	var mainnetErrored, bscSucceeded bool
	for _, r := range runs {
		if r.chainID == model.ChainMainnet {
			mainnetErrored = r.err != nil
		}
		if r.chainID == model.ChainBSC {
			bscSucceeded = r.err == nil && len(ok.calls) > 0
		}
	}
	assert.True(t, mainnetErrored)
	assert.True(t, bscSucceeded)
}
