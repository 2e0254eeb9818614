package config

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/formula"
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/postgres"
)

const sample = `
connectors: [POSTGRESQL, SQLITE]
dialect: POSTGRESQL_16
log_level: warn
fields:
  age: INTEGER
  tags: ARRAY_STR
names:
  age: [users, age]
scopes:
  day: date
restrict_fields: true
`

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, []string{"POSTGRESQL", "SQLITE"}, cfg.Connectors)

	env, err := cfg.Env()
	require.NoError(t, err)
	assert.Equal(t, datatype.Integer, env.Types["age"])
	assert.Equal(t, datatype.ArrayStr, env.Types["tags"])
	assert.Equal(t, []string{"users", "age"}, env.Names["age"])
	assert.Equal(t, "date", env.Scopes["day"])
	assert.True(t, env.RestrictFields)

	d, err := cfg.DefaultDialect()
	require.NoError(t, err)
	assert.Equal(t, postgres.Family.Version("16"), d)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "dialects: POSTGRESQL\n"},
		{"unknown connector", "connectors: [ORACLE]\n"},
		{"unknown dialect", "dialect: ORACLE_19\n"},
		{"unknown type", "fields:\n  a: DECIMAL\n"},
		{"bad log level", "log_level: loud\n"},
		{"empty name", "names:\n  a: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDefaultDialectRequired(t *testing.T) {
	cfg, err := Parse([]byte("fields: {}\n"))
	require.NoError(t, err)
	_, err = cfg.DefaultDialect()
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	log := quietLogger()
	engine, err := cfg.Build(log)
	require.NoError(t, err)
	assert.Equal(t, []string{"POSTGRESQL", "SQLITE"}, engine.Connectors())
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func writeConfig(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formula.yaml")
	writeConfig(t, path, "connectors: [POSTGRESQL]\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	first, err := cfg.Build(quietLogger())
	require.NoError(t, err)
	ref := formula.NewEngineRef(first)

	reloaded := make(chan *Config, 16)
	failed := make(chan error, 16)
	w, err := NewWatcher(path, ref, quietLogger(),
		WithDebounceDelay(10*time.Millisecond),
		WithOnReload(func(c *Config) { reloaded <- c }),
		WithOnError(func(err error) { failed <- err }),
	)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { assert.NoError(t, w.Stop()) }()
	assert.True(t, w.IsRunning())

	writeConfig(t, path, "connectors: [SQLITE, MSSQL]\n")
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case c := <-reloaded:
			done = len(c.Connectors) == 2
		case <-failed:
			// a partially written file fails to parse
		case <-timeout:
			t.Fatal("timed out waiting for reload")
		}
	}
	second := ref.Load()
	assert.Equal(t, []string{"MSSQL", "SQLITE"}, second.Connectors())

	writeConfig(t, path, "connectors: [ORACLE]\n")
	select {
	case <-failed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
	assert.Same(t, second, ref.Load())
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formula.yaml")
	writeConfig(t, path, "{}\n")
	ref := formula.NewEngineRef(nil)

	w, err := NewWatcher(path, ref, quietLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}

func TestWatcherStartFailureLeavesItStopped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "formula.yaml")
	w, err := NewWatcher(path, formula.NewEngineRef(nil), quietLogger())
	require.NoError(t, err)

	require.Error(t, w.Start())
	assert.False(t, w.IsRunning())

	stopped := make(chan error, 1)
	go func() { stopped <- w.Stop() }()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}

func TestWatcherReloadsOneAtATime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formula.yaml")
	writeConfig(t, path, "connectors: [POSTGRESQL]\n")
	ref := formula.NewEngineRef(nil)

	var active, peak, calls int32
	w, err := NewWatcher(path, ref, quietLogger(),
		WithOnReload(func(*Config) {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			atomic.AddInt32(&calls, 1)
		}),
	)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Reload()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 8, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&peak))
	require.NotNil(t, ref.Load())
	assert.Equal(t, []string{"POSTGRESQL"}, ref.Load().Connectors())
}
