package framework

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsumeArg(t *testing.T) {
	cfg := Config{"tag": 3, "names": "a", "bits": -1, "flag": true}

	tag, err := ConsumeArg[uint](cfg, "tag")
	require.NoError(t, err)
	require.Equal(t, uint(3), tag)
	require.NotContains(t, cfg, "tag")

	names, err := ConsumeOptionalArg(cfg, "name", []string{})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, names, "plural variation and scalar widening")

	_, err = ConsumeArg[uint](cfg, "bits")
	require.Error(t, err, "negative into unsigned")

	_, err = ConsumeArg[string](cfg, "flag")
	require.Error(t, err)

	_, err = ConsumeArg[string](cfg, "missing")
	require.Error(t, err)

	v, ok := ConsumeRaw(cfg, "flag")
	require.True(t, ok)
	require.Equal(t, true, v)
}

func TestCheckFields(t *testing.T) {
	require.NoError(t, CheckFields(Config{"filename": "x", "reports": "y"}, "filename", "report"))
	err := CheckFields(Config{"filename": "x", "mode": 1, "owner": "me"}, "filename")
	require.EqualError(t, err, `unexpected fields: "mode", "owner"`)
}

func TestIsIdentifier(t *testing.T) {
	for _, good := range []string{"MMSpdu", "Cancel-ErrorPDU", "vmd-state", "a_1"} {
		require.NoError(t, IsIdentifier(good), good)
	}
	for _, bad := range []string{"", "1st", "-x", "a b", "a.b"} {
		require.Error(t, IsIdentifier(bad), bad)
	}
}

func TestPluginMap(t *testing.T) {
	pm := PluginMap[string]{
		Class: "thing",
		Factory: func(kind string, cfg Config) (string, error) {
			if kind == "broken" {
				return "", errors.New("broken")
			}
			if err := CheckFields(cfg, "colour"); err != nil {
				return "", err
			}
			return ConsumeOptionalArg(cfg, "colour", kind)
		},
		Require: SupportName | RequireKind | RequireReports,
	}
	require.NoError(t, pm.LoadAll([]Config{
		{"name": "b", "kind": "plain", "report": "summary"},
		{"kind": "tinted", "colour": "red", "reports": []any{"x", "y"}},
	}))
	require.Equal(t, []string{"#2", "b"}, pm.Names())

	p, err := pm.Find("b")
	require.NoError(t, err)
	require.Equal(t, "plain", p.Impl)
	require.Equal(t, []string{"summary"}, p.Reports)

	p, err = pm.Find("#2")
	require.NoError(t, err)
	require.Equal(t, "red", p.Impl)
	require.Equal(t, []string{"x", "y"}, p.Reports)

	var visited []string
	require.NoError(t, pm.ForEach(func(name string, _ *Plugin[string]) error {
		visited = append(visited, name)
		return nil
	}))
	require.Equal(t, []string{"#2", "b"}, visited)

	_, err = pm.Find("c")
	require.Error(t, err)
	require.Error(t, pm.Load(Config{"name": "b", "kind": "plain"}), "duplicate name")
	require.Error(t, pm.Load(Config{"name": "c"}), "kind required")
	require.Error(t, pm.Load(Config{"kind": "broken"}))
	require.Error(t, pm.Load(Config{"kind": "plain", "shape": "square"}))
}

func TestPluginMapDefaultKind(t *testing.T) {
	var kinds []string
	pm := PluginMap[int]{
		Class: "report",
		Factory: func(kind string, cfg Config) (int, error) {
			kinds = append(kinds, kind)
			return len(cfg), nil
		},
		DefaultKind: "template",
	}
	require.NoError(t, pm.Load(Config{}))
	require.NoError(t, pm.Load(Config{"kind": "other", "extra": 1}))
	require.Equal(t, []string{"template", "other"}, kinds)

	p, err := pm.Find("#2")
	require.NoError(t, err)
	require.Equal(t, 1, p.Impl, "only unclaimed keys reach the factory")
	require.Nil(t, p.Reports)

	_, err = pm.Find("#3")
	require.EqualError(t, err, "no report named #3")
}

func TestFactories(t *testing.T) {
	f := Factories[string]{Class: "publisher"}
	f.Register("file", func(cfg Config) (string, error) {
		return ConsumeArg[string](cfg, "filename")
	})
	f.Register("log", func(Config) (string, error) { return "log", nil })

	got, err := f.New("file", Config{"filename": "out.txt"})
	require.NoError(t, err)
	require.Equal(t, "out.txt", got)

	_, err = f.New("file", Config{})
	require.Error(t, err)

	_, err = f.New("kubernetes", Config{})
	require.EqualError(t, err, "unknown publisher kind kubernetes, should be one of file,log")
}
