// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/pkg/errutil"
)

// fakeMigrate implements migrateIface.
type fakeMigrate struct {
	upErr          error
	downErr        error
	stepsErr       error
	steps          []int
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	closeSourceErr error
	closeDbErr     error
}

func (m *fakeMigrate) Up() error   { return m.upErr }
func (m *fakeMigrate) Down() error { return m.downErr }
func (m *fakeMigrate) Steps(n int) error {
	m.steps = append(m.steps, n)
	return m.stepsErr
}
func (m *fakeMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *fakeMigrate) Force(_ int) error            { return m.forceErr }
func (m *fakeMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDbErr }

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/keyward", "pgx5://u:p@localhost:5432/keyward"},
		{"postgresql://localhost/keyward?sslmode=disable", "pgx5://localhost/keyward?sslmode=disable"},
		{"pgx5://localhost/keyward", "pgx5://localhost/keyward"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/keyward")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
	assert.NotContains(t, err.Error(), "unknown driver postgres")
}

func TestMigrator_Operations(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		fake     *fakeMigrate
		run      func(*Migrator) error
		wantCode string
	}{
		{name: "up", fake: &fakeMigrate{}, run: (*Migrator).Up},
		{name: "up no change", fake: &fakeMigrate{upErr: migrate.ErrNoChange}, run: (*Migrator).Up},
		{name: "up failure", fake: &fakeMigrate{upErr: boom}, run: (*Migrator).Up, wantCode: "MIGRATION_UP_FAILED"},
		{name: "down", fake: &fakeMigrate{}, run: (*Migrator).Down},
		{name: "down no change", fake: &fakeMigrate{downErr: migrate.ErrNoChange}, run: (*Migrator).Down},
		{name: "down failure", fake: &fakeMigrate{downErr: boom}, run: (*Migrator).Down, wantCode: "MIGRATION_DOWN_FAILED"},
		{
			name:     "steps failure",
			fake:     &fakeMigrate{stepsErr: boom},
			run:      func(m *Migrator) error { return m.Steps(-1) },
			wantCode: "MIGRATION_STEPS_FAILED",
		},
		{
			name:     "force negative version",
			fake:     &fakeMigrate{},
			run:      func(m *Migrator) error { return m.Force(-1) },
			wantCode: "INVALID_VERSION",
		},
		{
			name:     "force failure",
			fake:     &fakeMigrate{forceErr: boom},
			run:      func(m *Migrator) error { return m.Force(1) },
			wantCode: "MIGRATION_FORCE_FAILED",
		},
		{name: "close", fake: &fakeMigrate{}, run: (*Migrator).Close},
		{name: "close source failure", fake: &fakeMigrate{closeSourceErr: boom}, run: (*Migrator).Close, wantCode: "MIGRATION_CLOSE_FAILED"},
		{
			name:     "close both fail",
			fake:     &fakeMigrate{closeSourceErr: errors.New("source"), closeDbErr: errors.New("database")},
			run:      (*Migrator).Close,
			wantCode: "MIGRATION_CLOSE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(&Migrator{m: tt.fake})
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestMigrator_Close_KeepsBothErrors(t *testing.T) {
	m := &Migrator{m: &fakeMigrate{closeSourceErr: errors.New("source gone"), closeDbErr: errors.New("db gone")}}
	err := m.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source gone")
	assert.Contains(t, err.Error(), "db gone")
}

func TestMigrator_Steps_ZeroIsNoOp(t *testing.T) {
	fake := &fakeMigrate{}
	require.NoError(t, (&Migrator{m: fake}).Steps(0))
	assert.Empty(t, fake.steps)
}

func TestMigrator_Version(t *testing.T) {
	t.Run("applied", func(t *testing.T) {
		v, dirty, err := (&Migrator{m: &fakeMigrate{versionVal: 2}}).Version()
		require.NoError(t, err)
		assert.Equal(t, uint(2), v)
		assert.False(t, dirty)
	})

	t.Run("dirty", func(t *testing.T) {
		_, dirty, err := (&Migrator{m: &fakeMigrate{versionVal: 1, dirty: true}}).Version()
		require.NoError(t, err)
		assert.True(t, dirty)
	})

	t.Run("empty database is version zero", func(t *testing.T) {
		v, _, err := (&Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}).Version()
		require.NoError(t, err)
		assert.Equal(t, uint(0), v)
	})

	t.Run("failure", func(t *testing.T) {
		_, _, err := (&Migrator{m: &fakeMigrate{versionErr: errors.New("boom")}}).Version()
		errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
	})
}

func TestMigrator_PendingMigrations(t *testing.T) {
	tests := []struct {
		name    string
		current uint
		want    []uint
	}{
		{name: "fresh database", current: 0, want: []uint{1, 2}},
		{name: "partially applied", current: 1, want: []uint{2}},
		{name: "at latest", current: 2, want: []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := (&Migrator{m: &fakeMigrate{versionVal: tt.current}}).PendingMigrations()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("version failure", func(t *testing.T) {
		_, err := (&Migrator{m: &fakeMigrate{versionErr: errors.New("boom")}}).PendingMigrations()
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "list pending migrations")
	})
}

func TestMigrationName(t *testing.T) {
	tests := []struct {
		version uint
		want    string
	}{
		{1, "000001_create_users"},
		{2, "000002_verification_token_index"},
		{999, ""},
	}
	for _, tt := range tests {
		name, err := MigrationName(tt.version)
		require.NoError(t, err)
		assert.Equal(t, tt.want, name)
	}
}
