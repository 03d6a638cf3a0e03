package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spiralhouse/aureacore/internal/domain/catalog"
)

const rootDoc = `version: "1.0"
global:
  config_dir: services
  default_namespace: default
services:
  - name: auth
    config_path: auth.yaml
  - name: billing
    config_path: billing/config.yaml
    namespace: payments
`

const authDoc = `name: auth
version: 1.2.0
service_type: rest
endpoints:
  - name: login
    path: /api/v1/login
    method: POST
dependencies:
  - service: user
    version_constraint: ">=1.0.0"
  - service: metrics
    optional: true
`

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("nested/dir/config.yaml", []byte("name: x")))
	data, err := store.Load("nested/dir/config.yaml")
	require.NoError(t, err)
	require.Equal(t, "name: x", string(data))
}

func TestConfigStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("ghost.yaml")
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestConfigStore_CreatesBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does", "not", "exist")
	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestConfigStore_List(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("root.yaml", []byte("a: 1")))
	require.NoError(t, store.Save("services/auth.yaml", []byte("b: 2")))
	require.NoError(t, store.Save("services/billing.json", []byte("{}")))
	require.NoError(t, store.Save("README.md", []byte("ignored")))

	paths, err := store.List()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"root.yaml",
		filepath.Join("services", "auth.yaml"),
		filepath.Join("services", "billing.json"),
	}, paths)
}

func TestConfigStore_RejectsEscapingPaths(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(filepath.Join("..", "escape.yaml"), []byte("a: 1"))
	require.ErrorIs(t, err, ErrPathOutsideStore)

	_, err = store.Load(filepath.Join("..", "..", "etc", "passwd"))
	require.ErrorIs(t, err, ErrPathOutsideStore)

	// Climbing inside the base directory is still fine.
	require.NoError(t, store.Save(filepath.Join("services", "..", "root.yaml"), []byte("a: 1")))
}

func TestConfigStore_SaveLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("services/auth.yaml", []byte("version: 1")))
	require.NoError(t, store.Save("services/auth.yaml", []byte("version: 2")))

	data, err := store.Load("services/auth.yaml")
	require.NoError(t, err)
	require.Equal(t, "version: 2", string(data))

	entries, err := os.ReadDir(filepath.Join(store.BaseDir(), "services"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "the temp file from the write should be renamed away")
	require.Equal(t, "auth.yaml", entries[0].Name())
}

func TestLoader_LoadRoot(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(RootConfigPath, []byte(rootDoc)))

	root, err := NewLoader(store).LoadRoot(RootConfigPath)
	require.NoError(t, err)
	require.Equal(t, "1.0", root.Version)
	require.Equal(t, "services", root.Global.ConfigDir)
	require.Equal(t, "default", root.Global.DefaultNamespace)
	require.Len(t, root.Services, 2)
	require.Equal(t, "default/auth", root.Services[0].Qualified(root.Global.DefaultNamespace))
	require.Equal(t, "payments/billing", root.Services[1].Qualified(root.Global.DefaultNamespace))
}

func TestLoader_LoadRoot_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing version", "global:\n  config_dir: services\nservices: []\n"},
		{"missing config_dir", "version: \"1.0\"\nglobal:\n  default_namespace: default\nservices: []\n"},
		{"incomplete ref", "version: \"1.0\"\nglobal:\n  config_dir: services\nservices:\n  - name: auth\n"},
		{"duplicate ref", "version: \"1.0\"\nglobal:\n  config_dir: services\nservices:\n  - name: auth\n    config_path: a.yaml\n  - name: auth\n    config_path: b.yaml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			require.NoError(t, store.Save(RootConfigPath, []byte(tt.doc)))

			_, err := NewLoader(store).LoadRoot(RootConfigPath)
			require.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestLoader_SaveRoot_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	loader := NewLoader(store)
	root := &RootConfig{
		Version: "1.0",
		Global:  GlobalConfig{ConfigDir: "services", DefaultNamespace: "default"},
		Services: []ServiceRef{
			{Name: "auth", ConfigPath: "auth.yaml"},
		},
	}

	require.NoError(t, loader.SaveRoot(RootConfigPath, root))
	loaded, err := loader.LoadRoot(RootConfigPath)
	require.NoError(t, err)
	require.Equal(t, root, loaded)
}

func TestLoader_LoadServiceConfig_YAML(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("services/auth.yaml", []byte(authDoc)))

	cfg, err := NewLoader(store).LoadServiceConfig(
		ServiceRef{Name: "auth", ConfigPath: "auth.yaml"},
		GlobalConfig{ConfigDir: "services"},
	)
	require.NoError(t, err)
	require.Equal(t, "auth", cfg.Name)
	require.Equal(t, "1.2.0", cfg.Version)
	require.Equal(t, catalog.TypeRest, cfg.ServiceType)
	require.Equal(t, catalog.CurrentSchemaVersion, cfg.SchemaVersion)
	require.Len(t, cfg.Dependencies, 2)
	require.Equal(t, ">=1.0.0", cfg.Dependencies[0].VersionConstraint)
	require.True(t, cfg.Dependencies[1].Optional)
}

func TestLoader_LoadServiceConfig_JSON(t *testing.T) {
	store := newTestStore(t)
	doc := `{"name": "billing", "version": "2.0.0", "service_type": "grpc"}`
	require.NoError(t, store.Save("services/billing.json", []byte(doc)))

	cfg, err := NewLoader(store).LoadServiceConfig(
		ServiceRef{Name: "billing", ConfigPath: "billing.json"},
		GlobalConfig{ConfigDir: "services"},
	)
	require.NoError(t, err)
	require.Equal(t, "billing", cfg.Name)
	require.Equal(t, catalog.TypeGrpc, cfg.ServiceType)
}

func TestLoader_LoadServiceConfig_NameInherited(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("services/auth.yaml", []byte("version: 1.0.0\n")))

	cfg, err := NewLoader(store).LoadServiceConfig(
		ServiceRef{Name: "auth", ConfigPath: "auth.yaml"},
		GlobalConfig{ConfigDir: "services"},
	)
	require.NoError(t, err)
	require.Equal(t, "auth", cfg.Name)
}

func TestLoader_LoadServiceConfig_NameConflict(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("services/auth.yaml", []byte("name: impostor\nversion: 1.0.0\n")))

	_, err := NewLoader(store).LoadServiceConfig(
		ServiceRef{Name: "auth", ConfigPath: "auth.yaml"},
		GlobalConfig{ConfigDir: "services"},
	)
	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestLoader_LoadServiceConfig_UnsupportedExtension(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("services/auth.toml", []byte("name = 'auth'")))

	_, err := NewLoader(store).LoadServiceConfig(
		ServiceRef{Name: "auth", ConfigPath: "auth.toml"},
		GlobalConfig{ConfigDir: "services"},
	)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoader_LoadServiceConfig_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := NewLoader(store).LoadServiceConfig(
		ServiceRef{Name: "auth", ConfigPath: "auth.yaml"},
		GlobalConfig{ConfigDir: "services"},
	)
	require.ErrorIs(t, err, ErrConfigNotFound)
}
