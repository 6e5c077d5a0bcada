package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/wallet-insight/internal/adapter"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/types"
)

// fakeSource serves canned raw records.
type fakeSource struct {
	records []json.RawMessage
}

func (f *fakeSource) FetchLatest(ctx context.Context, limit int) []json.RawMessage {
	if len(f.records) > limit {
		return f.records[:limit]
	}
	return f.records
}

// fakeWalletStore records upserts in order.
type fakeWalletStore struct {
	upserts []*models.Wallet
	failOn  string
}

func (f *fakeWalletStore) Upsert(ctx context.Context, wallet *models.Wallet) error {
	if f.failOn != "" && wallet.Address == f.failOn {
		return fmt.Errorf("simulated store failure")
	}
	f.upserts = append(f.upserts, wallet)
	return nil
}

// fakeArchive counts archived batches.
type fakeArchive struct {
	batches [][]*models.Inflow
	fail    bool
}

func (f *fakeArchive) InsertBatch(ctx context.Context, inflows []*models.Inflow) error {
	if f.fail {
		return fmt.Errorf("simulated archive failure")
	}
	f.batches = append(f.batches, inflows)
	return nil
}

func testLogger() *logging.Logger {
	return logging.New(logging.LevelFatal, logging.FormatText)
}

func evmTx(to, value, timestamp string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"to":%q,"value":%q,"timeStamp":%q}`, to, value, timestamp))
}

func newTestAggregator(source adapter.TransactionSource, store WalletStore, archive InflowArchive) *AggregatorService {
	registry := adapter.NewRegistry(adapter.NewEVMAdapter(types.ChainEthereum))
	sources := map[types.ChainID]adapter.TransactionSource{types.ChainEthereum: source}
	return NewAggregatorService(registry, sources, store, archive, 150, testLogger())
}

func TestDetect_AggregatesPerAddress(t *testing.T) {
	// Two transfers to A and one to B: A totals 3.0 over 2 txs, B 0.5
	// over 1 tx.
	source := &fakeSource{records: []json.RawMessage{
		evmTx("0xA", "1000000000000000000", "1700000001"),
		evmTx("0xB", "500000000000000000", "1700000002"),
		evmTx("0xA", "2000000000000000000", "1700000003"),
	}}
	store := &fakeWalletStore{}
	svc := newTestAggregator(source, store, nil)

	result, err := svc.Detect(context.Background(), types.ChainEthereum, types.FilterAll, false)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(result.AllWallets) != 2 {
		t.Fatalf("Expected 2 wallets, got %d", len(result.AllWallets))
	}

	byAddr := make(map[string]*models.Wallet)
	for _, w := range result.AllWallets {
		byAddr[w.Address] = w
	}

	a := byAddr["0xA"]
	if a == nil || a.TotalReceived != 3.0 || a.TransactionCount != 2 {
		t.Errorf("Wallet A = %+v, want total 3.0 over 2 txs", a)
	}
	b := byAddr["0xB"]
	if b == nil || b.TotalReceived != 0.5 || b.TransactionCount != 1 {
		t.Errorf("Wallet B = %+v, want total 0.5 over 1 tx", b)
	}
}

func TestDetect_RepeatBuyersRankedFirst(t *testing.T) {
	// C has 3 txs (repeat buyer) with a small total; A has 1 tx with a
	// big total. C must still rank first.
	source := &fakeSource{records: []json.RawMessage{
		evmTx("0xA", "9000000000000000000", "1700000001"),
		evmTx("0xC", "1000000000000000000", "1700000002"),
		evmTx("0xC", "1000000000000000000", "1700000003"),
		evmTx("0xC", "1000000000000000000", "1700000004"),
	}}
	store := &fakeWalletStore{}
	svc := newTestAggregator(source, store, nil)

	result, err := svc.Detect(context.Background(), types.ChainEthereum, types.FilterAll, false)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if result.AllWallets[0].Address != "0xC" {
		t.Errorf("Expected repeat buyer 0xC first, got %s", result.AllWallets[0].Address)
	}
	if result.AllWallets[1].Address != "0xA" {
		t.Errorf("Expected 0xA second, got %s", result.AllWallets[1].Address)
	}
}

func TestDetect_PartitionBoundary(t *testing.T) {
	// Exactly two transactions is still a new wallet; three crosses
	// into the repeat-buyer cohort.
	source := &fakeSource{records: []json.RawMessage{
		evmTx("0xTwo", "1000000000000000000", "1700000001"),
		evmTx("0xTwo", "1000000000000000000", "1700000002"),
		evmTx("0xThree", "1000000000000000000", "1700000003"),
		evmTx("0xThree", "1000000000000000000", "1700000004"),
		evmTx("0xThree", "1000000000000000000", "1700000005"),
	}}
	store := &fakeWalletStore{}
	svc := newTestAggregator(source, store, nil)

	result, err := svc.Detect(context.Background(), types.ChainEthereum, types.FilterAll, false)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(result.PotentialNewWallets) != 1 || result.PotentialNewWallets[0].Address != "0xTwo" {
		t.Errorf("PotentialNewWallets = %v, want [0xTwo]", addresses(result.PotentialNewWallets))
	}
	if len(result.PotentialRepeatedBuyers) != 1 || result.PotentialRepeatedBuyers[0].Address != "0xThree" {
		t.Errorf("PotentialRepeatedBuyers = %v, want [0xThree]", addresses(result.PotentialRepeatedBuyers))
	}
}

func TestDetect_FilterSelectsPersistedSet(t *testing.T) {
	source := &fakeSource{records: []json.RawMessage{
		evmTx("0xNew", "1000000000000000000", "1700000001"),
		evmTx("0xRepeat", "1000000000000000000", "1700000002"),
		evmTx("0xRepeat", "1000000000000000000", "1700000003"),
		evmTx("0xRepeat", "1000000000000000000", "1700000004"),
	}}

	tests := []struct {
		filter    types.FilterType
		persisted []string
	}{
		{types.FilterAll, []string{"0xRepeat", "0xNew"}},
		{types.FilterNew, []string{"0xNew"}},
		{types.FilterPotential, []string{"0xRepeat"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			store := &fakeWalletStore{}
			svc := newTestAggregator(source, store, nil)

			result, err := svc.Detect(context.Background(), types.ChainEthereum, tt.filter, false)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}

			got := addresses(result.SortedWallets)
			if !equalStrings(got, tt.persisted) {
				t.Errorf("SortedWallets = %v, want %v", got, tt.persisted)
			}

			stored := addresses(store.upserts)
			if !equalStrings(stored, tt.persisted) {
				t.Errorf("Persisted = %v, want %v", stored, tt.persisted)
			}

			// Partitions always describe the unfiltered set.
			if len(result.AllWallets) != 2 {
				t.Errorf("AllWallets = %d, want 2", len(result.AllWallets))
			}
			if len(result.PotentialNewWallets)+len(result.PotentialRepeatedBuyers) != 2 {
				t.Errorf("Partitions do not cover the full set")
			}
		})
	}
}

func TestDetect_SkipDemoDropsDustRecords(t *testing.T) {
	// 0.005 ETH is below the threshold and must vanish entirely when
	// skipDemo is set, including its transaction count.
	source := &fakeSource{records: []json.RawMessage{
		evmTx("0xA", "5000000000000000", "1700000001"),
		evmTx("0xA", "1000000000000000000", "1700000002"),
	}}
	store := &fakeWalletStore{}
	svc := newTestAggregator(source, store, nil)

	result, err := svc.Detect(context.Background(), types.ChainEthereum, types.FilterAll, true)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(result.AllWallets) != 1 {
		t.Fatalf("Expected 1 wallet, got %d", len(result.AllWallets))
	}
	w := result.AllWallets[0]
	if w.TransactionCount != 1 || w.TotalReceived != 1.0 {
		t.Errorf("Wallet = %+v, want 1 tx totalling 1.0", w)
	}
}

func TestDetect_SkipDemoNoopWhenAllAboveThreshold(t *testing.T) {
	source := &fakeSource{records: []json.RawMessage{
		evmTx("0xA", "1000000000000000000", "1700000001"),
		evmTx("0xB", "20000000000000000", "1700000002"),
	}}

	withSkip := &fakeWalletStore{}
	svcSkip := newTestAggregator(source, withSkip, nil)
	skipped, err := svcSkip.Detect(context.Background(), types.ChainEthereum, types.FilterAll, true)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	withoutSkip := &fakeWalletStore{}
	svcPlain := newTestAggregator(source, withoutSkip, nil)
	plain, err := svcPlain.Detect(context.Background(), types.ChainEthereum, types.FilterAll, false)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if !equalStrings(addresses(skipped.AllWallets), addresses(plain.AllWallets)) {
		t.Errorf("skipDemo changed the outcome with no dust present: %v vs %v",
			addresses(skipped.AllWallets), addresses(plain.AllWallets))
	}
}

func TestDetect_SkipsUnknownAndEmptyDestinations(t *testing.T) {
	source := &fakeSource{records: []json.RawMessage{
		evmTx("Unknown", "1000000000000000000", "1700000001"),
		evmTx("", "1000000000000000000", "1700000002"),
		evmTx("0xA", "1000000000000000000", "1700000003"),
	}}
	store := &fakeWalletStore{}
	svc := newTestAggregator(source, store, nil)

	result, err := svc.Detect(context.Background(), types.ChainEthereum, types.FilterAll, false)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(result.AllWallets) != 1 || result.AllWallets[0].Address != "0xA" {
		t.Errorf("AllWallets = %v, want [0xA]", addresses(result.AllWallets))
	}
}

func TestDetect_EmptyProviderYieldsEmptyResult(t *testing.T) {
	store := &fakeWalletStore{}
	svc := newTestAggregator(&fakeSource{}, store, nil)

	result, err := svc.Detect(context.Background(), types.ChainEthereum, types.FilterAll, false)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(result.AllWallets) != 0 || len(result.SortedWallets) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
	if len(store.upserts) != 0 {
		t.Errorf("Nothing should be persisted on an empty run")
	}
}

func TestDetect_UnsupportedChainYieldsEmptyResult(t *testing.T) {
	store := &fakeWalletStore{}
	svc := newTestAggregator(&fakeSource{records: []json.RawMessage{evmTx("0xA", "1", "1")}}, store, nil)

	result, err := svc.Detect(context.Background(), types.ChainBitcoin, types.FilterAll, false)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(result.AllWallets) != 0 {
		t.Errorf("Expected empty result for chain with no adapter")
	}
}

func TestDetect_StoreFailurePropagates(t *testing.T) {
	source := &fakeSource{records: []json.RawMessage{
		evmTx("0xA", "1000000000000000000", "1700000001"),
	}}
	store := &fakeWalletStore{failOn: "0xA"}
	svc := newTestAggregator(source, store, nil)

	if _, err := svc.Detect(context.Background(), types.ChainEthereum, types.FilterAll, false); err == nil {
		t.Fatal("Expected error when the wallet store fails")
	}
}

func TestDetect_ArchiveFailureIsBestEffort(t *testing.T) {
	source := &fakeSource{records: []json.RawMessage{
		evmTx("0xA", "1000000000000000000", "1700000001"),
	}}
	store := &fakeWalletStore{}
	svc := newTestAggregator(source, store, &fakeArchive{fail: true})

	result, err := svc.Detect(context.Background(), types.ChainEthereum, types.FilterAll, false)
	if err != nil {
		t.Fatalf("Detect() error = %v, archive failures must not fail the run", err)
	}
	if len(result.AllWallets) != 1 {
		t.Errorf("Expected the run result to stand despite archive failure")
	}
}

func TestDetect_ArchivesNormalizedRecords(t *testing.T) {
	source := &fakeSource{records: []json.RawMessage{
		evmTx("0xA", "1000000000000000000", "1700000001"),
		evmTx("0xB", "2000000000000000000", "1700000002"),
	}}
	archive := &fakeArchive{}
	svc := newTestAggregator(source, &fakeWalletStore{}, archive)

	if _, err := svc.Detect(context.Background(), types.ChainEthereum, types.FilterAll, false); err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(archive.batches) != 1 {
		t.Fatalf("Expected 1 archived batch, got %d", len(archive.batches))
	}
	batch := archive.batches[0]
	if len(batch) != 2 {
		t.Fatalf("Expected 2 archived records, got %d", len(batch))
	}
	if batch[0].RunID == "" || batch[0].RunID != batch[1].RunID {
		t.Errorf("Archived records must share one run ID")
	}
	if want := time.Unix(1700000001, 0).UTC(); !batch[0].Timestamp.Equal(want) {
		t.Errorf("Archived timestamp = %v, want %v", batch[0].Timestamp, want)
	}
}

func TestDetect_RerunUpsertsSameWallets(t *testing.T) {
	// Two identical runs persist the same addresses; the second run
	// overwrites rather than duplicates (last write wins at the store).
	source := &fakeSource{records: []json.RawMessage{
		evmTx("0xA", "1000000000000000000", "1700000001"),
	}}
	store := &fakeWalletStore{}
	svc := newTestAggregator(source, store, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.Detect(context.Background(), types.ChainEthereum, types.FilterAll, false); err != nil {
			t.Fatalf("Detect() run %d error = %v", i, err)
		}
	}

	if len(store.upserts) != 2 {
		t.Fatalf("Expected 2 upserts, got %d", len(store.upserts))
	}
	if store.upserts[0].Address != store.upserts[1].Address {
		t.Errorf("Reruns must target the same wallet key")
	}
	if store.upserts[0].TotalReceived != store.upserts[1].TotalReceived {
		t.Errorf("Identical input must produce identical totals")
	}
}

func addresses(wallets []*models.Wallet) []string {
	out := make([]string, len(wallets))
	for i, w := range wallets {
		out[i] = w.Address
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
