// Package service provides the harvest service implementation
package service

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"pkgpulse/internal/core/enrich"
	"pkgpulse/internal/core/tracked"
	"pkgpulse/internal/modkit/repokit"
	perr "pkgpulse/internal/platform/errors"
	"pkgpulse/internal/platform/logger"
	"pkgpulse/internal/services/harvest/domain"
	"pkgpulse/internal/services/harvest/guardrails"
)

// Config holds configuration options for the harvest service
type Config struct {
	// Concurrency and pacing
	Workers      int           // number of parallel hours; <=0 -> 1
	DelayPerHour time.Duration // optional sleep after each processed hour (per worker)

	// Hour level retry
	MaxRetries int           // attempts per hour; <=0 -> 1
	RetryBase  time.Duration // base backoff for hour retries; <=0 -> 500ms

	// Timeouts applied via guardrails
	FetchTimeout time.Duration
	ReadTimeout  time.Duration

	// Range guard
	MaxRangeHours int // 0 = unlimited

	// Distributed lease for an hour (optional)
	EnableLeases bool

	// Insert tuning: rows per ClickHouse batch; 0 -> default
	InsertChunk int
}

// Service implements the harvest service
type Service struct {
	DB      repokit.TxRunner
	Binder  repokit.Binder[domain.LedgerRepo]
	Writer  domain.EventWriter
	Fetch   domain.Fetcher
	Reader  domain.ReaderFactory
	Tracked *tracked.Set
	Cfg     Config

	// Lease(ctx, hourUTC, do) should take an hour-scoped claim and run do()
	Lease func(ctx context.Context, hour time.Time, do func(context.Context) error) error
}

// New constructs the harvest service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.LedgerRepo],
	writer domain.EventWriter,
	f domain.Fetcher,
	rf domain.ReaderFactory,
	set *tracked.Set,
	cfg Config,
	lease func(context.Context, time.Time, func(context.Context) error) error,
) *Service {
	if db == nil {
		panic("harvest.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("harvest.Service requires a non nil Ledger binder")
	}
	if writer == nil {
		panic("harvest.Service requires a non nil EventWriter")
	}
	if set == nil {
		set = tracked.DefaultSet()
	}
	return &Service{
		DB: db, Binder: binder, Writer: writer,
		Fetch: f, Reader: rf, Tracked: set,
		Cfg:   cfg,
		Lease: lease,
	}
}

// PlanRange seeds harvest_hours without processing
func (s *Service) PlanRange(ctx context.Context, start, end time.Time) error {
	start, end = domain.HourWindow(start, end)
	if end.Before(start) {
		return perr.InvalidArgf("harvest: end before start")
	}
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		n, err := s.Binder.Bind(q).PreseedHours(ctx, start, end)
		if err == nil {
			logger.C(ctx).Info().Int("hours", n).Time("start", start).Time("end", end).Msg("harvest: range planned")
		}
		return err
	})
}

// RunRange seeds the range then drains it with the worker pool.
// Hours that already finished ok are never reprocessed, and hours that
// fail are marked error and left for RunResume
func (s *Service) RunRange(ctx context.Context, start, end time.Time) error {
	start, end = domain.HourWindow(start, end)
	if end.Before(start) {
		return perr.InvalidArgf("harvest: end before start")
	}
	if s.Cfg.MaxRangeHours > 0 && int(end.Sub(start).Hours())+1 > s.Cfg.MaxRangeHours {
		return perr.InvalidArgf("harvest: range exceeds %d hours", s.Cfg.MaxRangeHours)
	}

	if err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		_, err := s.Binder.Bind(q).PreseedHours(ctx, start, end)
		return err
	}); err != nil {
		return err
	}

	err := s.drain(ctx, func(c context.Context) (time.Time, bool, error) {
		return s.nextHour(c, start, end)
	})
	s.logSummary(ctx, start, end)
	return err
}

// RunResume drains any pending or errored hours globally, ignoring bounds
func (s *Service) RunResume(ctx context.Context) error {
	return s.drain(ctx, s.nextHourAny)
}

// drain runs the worker pool until the claim function comes up empty.
// A non retryable store write error cancels every worker and aborts the
// run; any other hour failure only marks that hour
func (s *Service) drain(parent context.Context, claim func(context.Context) (time.Time, bool, error)) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	w := max(s.Cfg.Workers, 1)
	var fails int64
	var abortOnce sync.Once
	var abortErr error
	var wg sync.WaitGroup
	sem := make(chan struct{}, w)

	worker := func() {
		defer func() { <-sem; wg.Done() }()
		claimErrs := 0
		for ctx.Err() == nil {
			hr, ok, err := claim(ctx)
			if err != nil {
				logger.C(ctx).Error().Err(err).Msg("harvest: hour claim failed")
				atomic.AddInt64(&fails, 1)
				claimErrs++
				if claimErrs >= 3 {
					return // ledger looks down, stop this worker
				}
				// small pause on coordinator error to avoid a hot loop
				_ = sleepCtx(ctx, 500*time.Millisecond)
				continue
			}
			claimErrs = 0
			if !ok {
				return // nothing left
			}
			ref := domain.HourRef{Year: hr.Year(), Month: int(hr.Month()), Day: hr.Day(), Hour: hr.Hour()}
			if err := s.runHourWithRetry(ctx, ref); err != nil {
				logger.C(ctx).Error().Time("hour", hr).Err(err).Msg("harvest: hour failed")
				atomic.AddInt64(&fails, 1)
				var sw *storeWriteError
				if errors.As(err, &sw) {
					abortOnce.Do(func() {
						abortErr = perr.Wrap(sw.cause, perr.ErrorCodeDB, "harvest: store write failed, aborting run")
						cancel()
					})
					return
				}
			}
			if s.Cfg.DelayPerHour > 0 {
				_ = sleepCtx(ctx, s.Cfg.DelayPerHour)
			}
		}
	}

	for range w {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go worker()
		}
	}
	wg.Wait()

	if abortErr != nil {
		return abortErr
	}
	if err := parent.Err(); err != nil {
		return err
	}
	if fails > 0 {
		return perr.Unavailablef("harvest: %d hours failed", atomic.LoadInt64(&fails))
	}
	return nil
}

// logSummary reports ledger totals for the range, best effort
func (s *Service) logSummary(ctx context.Context, start, end time.Time) {
	var sum domain.RangeSummary
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var e error
		sum, e = s.Binder.Bind(q).Summary(ctx, start, end)
		return e
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("harvest: range summary unavailable")
		return
	}
	logger.C(ctx).Info().
		Int("hours", sum.Total).
		Int("ok", sum.OK).
		Int("errored", sum.Errored).
		Int("pending", sum.Pending).
		Int64("events", sum.Events).
		Int64("matched", sum.Matched).
		Msg("harvest: range finished")
}

func (s *Service) nextHour(ctx context.Context, start, end time.Time) (time.Time, bool, error) {
	var hr time.Time
	var ok bool
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		h, claimed, e := s.Binder.Bind(q).NextHourToProcess(ctx, start, end)
		if e != nil {
			return e
		}
		hr, ok = h, claimed
		return nil
	})
	return hr, ok, err
}

func (s *Service) nextHourAny(ctx context.Context) (time.Time, bool, error) {
	var hr time.Time
	var ok bool
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		h, claimed, e := s.Binder.Bind(q).NextHourToProcessAny(ctx)
		if e != nil {
			return e
		}
		hr, ok = h, claimed
		return nil
	})
	return hr, ok, err
}

func (s *Service) runHourWithRetry(ctx context.Context, hr domain.HourRef) error {
	attempts := max(s.Cfg.MaxRetries, 1)
	base := s.Cfg.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	var last error
	for i := range attempts {
		err := s.runHour(ctx, hr)
		if err == nil {
			return nil
		}
		last = err

		// stop early on non-retryable errors
		if !perr.Retryable(err) {
			return last
		}
		if i == attempts-1 {
			break
		}

		// exponential backoff with jitter, cap at 30s
		d := min(base<<i, 30*time.Second)
		j := d/2 + time.Duration(rand.Int63n(int64(d/2)))
		if se := sleepCtx(ctx, j); se != nil {
			return se
		}
	}
	return last
}

func (s *Service) runHour(ctx context.Context, hr domain.HourRef) error {
	hourUTC := hr.UTC()
	if s.Lease != nil && s.Cfg.EnableLeases {
		// if another worker holds the hour, treat as a clean skip
		if err := s.Lease(ctx, hourUTC, func(ctx context.Context) error { return s.runHourUnlocked(ctx, hr) }); err != nil {
			if errors.Is(err, guardrails.ErrLeaseHeld) {
				return nil
			}
			return err
		}
		return nil
	}
	return s.runHourUnlocked(ctx, hr)
}

func (s *Service) runHourUnlocked(ctx context.Context, hr domain.HourRef) (retErr error) {
	tos := guardrails.Timeouts{
		Fetch: s.Cfg.FetchTimeout,
		Read:  s.Cfg.ReadTimeout,
	}

	hrCtx, hrCancel := guardrails.WithHour(ctx, tos)
	defer hrCancel()

	hourUTC := hr.UTC()
	startWall := time.Now()
	var fetchMS, readMS, dbMS int
	var cacheHit bool
	var events, skipped, matched, inserted int
	var bytesUncompressed int64

	// mark running (best effort)
	{
		dbCtx, dbCancel := guardrails.ForDB(hrCtx, tos)
		_ = s.DB.Tx(dbCtx, func(q repokit.Queryer) error {
			return s.Binder.Bind(q).StartHour(dbCtx, hourUTC)
		})
		dbCancel()
	}

	// record the outcome even on error
	defer func() {
		fin := domain.HourFinish{
			Status:            domain.StatusOK,
			CacheHit:          cacheHit,
			BytesUncompressed: bytesUncompressed,
			Events:            events,
			Skipped:           skipped,
			Matched:           matched,
			Inserted:          inserted,
			FetchMS:           fetchMS,
			ReadMS:            readMS,
			DBMS:              dbMS,
			ElapsedMS:         int(time.Since(startWall).Milliseconds()),
		}
		if retErr != nil {
			fin.Status = domain.StatusError
			fin.ErrText = retErr.Error()
		}
		dbCtx, dbCancel := guardrails.ForDB(hrCtx, tos)
		_ = s.DB.Tx(dbCtx, func(q repokit.Queryer) error {
			return s.Binder.Bind(q).FinishHour(dbCtx, hourUTC, fin)
		})
		dbCancel()
	}()

	// fetch
	t0 := time.Now()
	fetchCtx, fetchCancel := guardrails.ForFetch(hrCtx, tos)
	rc, err := s.Fetch.Fetch(fetchCtx, hr)
	fetchCancel()
	fetchMS = int(time.Since(t0).Milliseconds())
	if err != nil {
		return err
	}

	// cache hit detection for metrics only
	if _, ok := any(rc).(interface{ Name() string }); ok {
		cacheHit = true
	}

	rd, err := s.Reader.New(rc)
	if err != nil {
		_ = rc.Close()
		return err
	}
	defer func() {
		if cerr := rd.Close(); cerr != nil && retErr == nil {
			retErr = cerr
		}
	}()

	// read and enrich
	t1 := time.Now()
	var batch []domain.Event
	readCtx, readCancel := guardrails.ForRead(hrCtx, tos)
	rerr := func() error {
		for {
			if err := readCtx.Err(); err != nil {
				return err
			}
			env, e := rd.Next()
			if e == io.EOF {
				return nil
			}
			if e != nil {
				return e
			}
			ev, ok := enrich.FromEnvelope(env, s.Tracked)
			if !ok {
				continue
			}
			batch = append(batch, ev)
		}
	}()
	readCancel()
	readMS = int(time.Since(t1).Milliseconds())
	events, skipped, bytesUncompressed = rd.Stats()
	if rerr != nil {
		return rerr
	}
	matched = len(batch)

	// chunked load
	t2 := time.Now()
	chunk := s.Cfg.InsertChunk
	if chunk <= 0 {
		chunk = 5000
	}
	for i := 0; i < len(batch); i += chunk {
		end := min(i+chunk, len(batch))
		n, err := s.insertBatchRobust(hrCtx, batch[i:end])
		inserted += n
		if err != nil {
			dbMS += int(time.Since(t2).Milliseconds())
			if !perr.Retryable(err) &&
				!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return &storeWriteError{cause: err}
			}
			return err
		}
	}
	dbMS += int(time.Since(t2).Milliseconds())

	return nil
}

// storeWriteError marks a non retryable data plane write failure.
// Fetch and decode failures stay isolated to their hour but a broken
// store fails every hour the same way, so the run aborts instead
type storeWriteError struct{ cause error }

func (e *storeWriteError) Error() string { return e.cause.Error() }
func (e *storeWriteError) Unwrap() error { return e.cause }

// insertBatchRobust writes a chunk with retries; if it still fails with a
// retryable error it bisects the chunk and attempts each half.
// Guarantees eventual progress down to size 1 for retryable failures
func (s *Service) insertBatchRobust(ctx context.Context, batch []domain.Event) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	const maxAttempts = 4
	base := s.Cfg.RetryBase
	if base <= 0 {
		base = 250 * time.Millisecond
	}

	var last error
	var total int
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		n, err := s.Writer.InsertEvents(ctx, batch)
		total += n
		if err == nil {
			return total, nil
		}
		last = err
		if !perr.Retryable(err) || attempt == maxAttempts {
			break
		}
		// backoff with jitter, capped at 10s
		d := min(base<<(attempt-1), 10*time.Second)
		sleep := d/2 + time.Duration(rand.Int63n(int64(d/2)))
		if se := sleepCtx(ctx, sleep); se != nil {
			return total, err
		}
	}

	if !perr.Retryable(last) {
		return total, last
	}
	if len(batch) == 1 {
		return total, last
	}
	mid := len(batch) / 2
	lN, lErr := s.insertBatchRobust(ctx, batch[:mid])
	if lErr != nil {
		return total + lN, lErr
	}
	rN, rErr := s.insertBatchRobust(ctx, batch[mid:])
	return total + lN + rN, rErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
