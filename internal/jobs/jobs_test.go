package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/models"
)

// fakeClock is a controllable time source for deterministic progress tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeScanner struct {
	files []string
	err   error
}

func (f *fakeScanner) Scan(ctx context.Context, inputFolder string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}

type fakeReader struct {
	records map[string][]models.KeywordRecord
	errs    map[string]error
}

func (f *fakeReader) Read(ctx context.Context, path string) ([]models.KeywordRecord, error) {
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	return f.records[path], nil
}

type fakeProcessor struct {
	mu      sync.Mutex
	calls   int
	process func(call int, batch []models.KeywordRecord, opts interfaces.ProcessOptions) ([]models.KeywordRecord, error)
}

func (f *fakeProcessor) ProcessBatch(ctx context.Context, batch []models.KeywordRecord, opts interfaces.ProcessOptions) ([]models.KeywordRecord, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.process != nil {
		return f.process(call, batch, opts)
	}
	return batch, nil
}

func (f *fakeProcessor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWriter struct {
	mu     sync.Mutex
	writes []string
	err    error
}

func (f *fakeWriter) Write(ctx context.Context, outputFolder, itemName string, records []models.KeywordRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, itemName)
	return nil
}

func (f *fakeWriter) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	copy(out, f.writes)
	return out
}

// testEnv bundles a registry with its fakes, wired for synchronous drivers
// unless a test overrides Spawn
type testEnv struct {
	registry  *Registry
	clock     *fakeClock
	scanner   *fakeScanner
	reader    *fakeReader
	processor *fakeProcessor
	writer    *fakeWriter
}

func newTestEnv(opts Options, mutate func(*testEnv)) *testEnv {
	env := &testEnv{
		clock:     newFakeClock(),
		scanner:   &fakeScanner{},
		reader:    &fakeReader{records: map[string][]models.KeywordRecord{}, errs: map[string]error{}},
		processor: &fakeProcessor{},
		writer:    &fakeWriter{},
	}
	if mutate != nil {
		mutate(env)
	}

	if opts.Clock == nil {
		opts.Clock = env.clock.Now
	}
	if opts.Spawn == nil {
		opts.Spawn = func(fn func()) { fn() }
	}
	if opts.PausePollInterval == 0 {
		opts.PausePollInterval = time.Millisecond
	}

	registry, err := NewRegistry(env.scanner, env.reader, env.processor, env.writer, arbor.NewLogger(), opts)
	if err != nil {
		panic(fmt.Sprintf("failed to build test registry: %v", err))
	}
	env.registry = registry
	return env
}

func keywordFixture(n int) []models.KeywordRecord {
	records := make([]models.KeywordRecord, n)
	for i := range records {
		records[i] = models.KeywordRecord{
			Keyword:    fmt.Sprintf("keyword-%d", i),
			Volume:     1000,
			CPC:        2.5,
			Difficulty: 10,
		}
	}
	return records
}

// waitFor polls until the condition holds or the deadline passes
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
