//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pkgpulse/internal/modkit/repokit"
	"pkgpulse/internal/platform/store"
	"pkgpulse/internal/services/harvest/domain"
)

func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func TestLedger_ClaimAndFinish_Integration(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		AppName: "pkgpulse-ledger-integration",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 4},
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close(context.Background())

	db := repokit.TxRunner(st.PG)
	if err := EnsureLedger(ctx, db); err != nil {
		t.Fatalf("EnsureLedger: %v", err)
	}

	binder := NewPG()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	// seed three hours, reseeding is a no-op
	var seeded int
	if err := db.Tx(ctx, func(q repokit.Queryer) error {
		n, err := binder.Bind(q).PreseedHours(ctx, start, end)
		seeded = n
		return err
	}); err != nil {
		t.Fatalf("PreseedHours: %v", err)
	}
	if seeded != 3 {
		t.Fatalf("seeded = %d, want 3", seeded)
	}
	if err := db.Tx(ctx, func(q repokit.Queryer) error {
		n, err := binder.Bind(q).PreseedHours(ctx, start, end)
		seeded = n
		return err
	}); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if seeded != 0 {
		t.Fatalf("reseed = %d, want 0", seeded)
	}

	// claim the earliest hour
	var hr time.Time
	var ok bool
	if err := db.Tx(ctx, func(q repokit.Queryer) error {
		h, claimed, err := binder.Bind(q).NextHourToProcess(ctx, start, end)
		hr, ok = h, claimed
		return err
	}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !ok || !hr.Equal(start) {
		t.Fatalf("claimed %v ok=%v, want %v", hr, ok, start)
	}

	// finish it ok; it must not be claimable again
	if err := db.Tx(ctx, func(q repokit.Queryer) error {
		return binder.Bind(q).FinishHour(ctx, hr, domain.HourFinish{
			Status: domain.StatusOK, Events: 100, Matched: 30, Inserted: 30,
		})
	}); err != nil {
		t.Fatalf("FinishHour: %v", err)
	}

	claimed := map[time.Time]bool{}
	for {
		var h time.Time
		var more bool
		if err := db.Tx(ctx, func(q repokit.Queryer) error {
			hh, c, err := binder.Bind(q).NextHourToProcess(ctx, start, end)
			h, more = hh, c
			return err
		}); err != nil {
			t.Fatalf("drain claim: %v", err)
		}
		if !more {
			break
		}
		claimed[h] = true
	}
	if claimed[start] {
		t.Fatal("finished hour was claimed again")
	}
	if len(claimed) != 2 {
		t.Fatalf("claimed %d hours, want 2", len(claimed))
	}

	// errored hours are claimable on resume
	errHour := start.Add(time.Hour)
	if err := db.Tx(ctx, func(q repokit.Queryer) error {
		return binder.Bind(q).FinishHour(ctx, errHour, domain.HourFinish{
			Status: domain.StatusError, ErrText: "boom",
		})
	}); err != nil {
		t.Fatalf("FinishHour error: %v", err)
	}
	// errored hours are not claimable inside a range run
	if err := db.Tx(ctx, func(q repokit.Queryer) error {
		_, c, err := binder.Bind(q).NextHourToProcess(ctx, start, end)
		if err != nil {
			return err
		}
		if c {
			t.Fatal("errored hour claimed by a range run")
		}
		return nil
	}); err != nil {
		t.Fatalf("range claim after error: %v", err)
	}

	var resumed time.Time
	if err := db.Tx(ctx, func(q repokit.Queryer) error {
		h, c, err := binder.Bind(q).NextHourToProcessAny(ctx)
		if err != nil {
			return err
		}
		if !c {
			t.Fatal("no hour claimable on resume")
		}
		resumed = h
		return nil
	}); err != nil {
		t.Fatalf("resume claim: %v", err)
	}
	if !resumed.Equal(errHour) {
		t.Fatalf("resumed %v, want %v", resumed, errHour)
	}

	// summary over the range
	var sum domain.RangeSummary
	if err := db.Tx(ctx, func(q repokit.Queryer) error {
		s, err := binder.Bind(q).Summary(ctx, start, end)
		sum = s
		return err
	}); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 3 || sum.OK != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Events != 100 || sum.Matched != 30 {
		t.Fatalf("summary counters = %+v", sum)
	}
}
