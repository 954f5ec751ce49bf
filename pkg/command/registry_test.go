package command_test

import (
	"bytes"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/boundsec/pkg/command"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
	"github.com/dmitrymomot/boundsec/pkg/secobject"
)

func testCatalog(t *testing.T) *command.Catalog {
	t.Helper()
	cat := command.NewCatalog()
	require.NoError(t, cat.AddGroup(command.CliqueGroup{
		Name:    "nav",
		Display: command.DisplayToolbar,
		Cliques: []command.Clique{{Name: "back"}, {Name: "forward"}},
	}))
	require.NoError(t, cat.AddGroup(command.CliqueGroup{
		Name:       "edit",
		Image:      "group.png",
		CSSClasses: []string{"grp"},
		Cliques:    []command.Clique{{Name: "create", Image: "create.png"}, {Name: "save"}},
	}))
	require.NoError(t, cat.AddClique(command.Clique{Name: "tools"}))
	require.NoError(t, cat.AddClique(command.Clique{Name: "internal", Display: command.DisplayHidden}))
	return cat
}

func ids(cmds []*command.Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.ID())
	}
	return out
}

func TestCatalogIndices(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	tests := []struct {
		clique     string
		index      int
		groupIndex int
		group      string
	}{
		{"back", 1, 0, "nav"},
		{"forward", 2, 0, "nav"},
		{"create", 4, 3, "edit"},
		{"save", 5, 3, "edit"},
		{"tools", 6, 6, ""},
		{"internal", 7, 7, ""},
	}
	for _, tt := range tests {
		info, ok := cat.Lookup(tt.clique)
		require.True(t, ok, tt.clique)
		assert.Equal(t, tt.index, info.Index, tt.clique)
		assert.Equal(t, tt.groupIndex, info.GroupIndex, tt.clique)
		assert.Equal(t, tt.group, info.Group, tt.clique)
	}
	back, _ := cat.Lookup("back")
	assert.Equal(t, command.DisplayToolbar, back.Display, "cliques take the group display")
}

func TestCatalogClash(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	err := cat.AddGroup(command.CliqueGroup{
		Name:    "other",
		Cliques: []command.Clique{{Name: "save"}, {Name: "fresh"}},
	})
	require.Error(t, err)
	assert.True(t, command.IsConfigurationError(err))
	assert.ErrorIs(t, err, command.ErrCliqueClash)

	save, _ := cat.Lookup("save")
	assert.Equal(t, "edit", save.Group, "first declaration wins")
	assert.True(t, cat.Has("fresh"))

	assert.ErrorIs(t, cat.AddClique(command.Clique{Name: "tools"}), command.ErrCliqueClash)
	assert.Error(t, cat.AddClique(command.Clique{Name: "x", Display: "sideways"}))
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	t.Run("merges display settings once", func(t *testing.T) {
		t.Parallel()
		reg := command.NewRegistry(testCatalog(t), command.WithDefaults(command.Defaults{
			Image:         "default.png",
			DisabledImage: "disabled.png",
			CSSClasses:    []string{"btn"},
		}))

		tests := []struct {
			cfg   command.Config
			image string
			css   []string
		}{
			{command.Config{ID: "new", Kind: command.KindNoop, Group: "write", Clique: "create"}, "create.png", []string{"grp"}},
			{command.Config{ID: "store", Kind: command.KindNoop, Group: "write", Clique: "save"}, "group.png", []string{"grp"}},
			{command.Config{ID: "own", Kind: command.KindNoop, Group: "write", Clique: "save", Image: "own.png", CSSClasses: []string{"mine"}}, "own.png", []string{"mine"}},
			{command.Config{ID: "loose", Kind: command.KindNoop, Group: "read"}, "default.png", []string{"btn"}},
		}
		for _, tt := range tests {
			cmd, err := reg.Register(tt.cfg)
			require.NoError(t, err, tt.cfg.ID)
			s := cmd.Settings()
			assert.Equal(t, tt.image, s.Image, tt.cfg.ID)
			assert.Equal(t, "disabled.png", s.DisabledImage, tt.cfg.ID)
			assert.Equal(t, tt.css, s.CSSClasses, tt.cfg.ID)
		}

		loose, err := reg.Resolve("loose")
		require.NoError(t, err)
		assert.Equal(t, command.DefaultClique, loose.Clique())
		assert.Equal(t, rbac.Read, loose.Group())
		assert.Equal(t, "loose.confirm", loose.ConfirmKey())
		assert.Empty(t, reg.ConfigErrors())
	})

	t.Run("disabled image layers like the image", func(t *testing.T) {
		t.Parallel()
		cat := command.NewCatalog()
		require.NoError(t, cat.AddGroup(command.CliqueGroup{
			Name:          "edit",
			DisabledImage: "group-off.png",
			Cliques: []command.Clique{
				{Name: "create", DisabledImage: "create-off.png"},
				{Name: "save"},
			},
		}))
		require.NoError(t, cat.AddClique(command.Clique{Name: "tools"}))
		reg := command.NewRegistry(cat, command.WithDefaults(command.Defaults{DisabledImage: "off.png"}))

		tests := []struct {
			cfg  command.Config
			want string
		}{
			{command.Config{ID: "own", Kind: command.KindNoop, Group: "write", Clique: "create", DisabledImage: "own-off.png"}, "own-off.png"},
			{command.Config{ID: "new", Kind: command.KindNoop, Group: "write", Clique: "create"}, "create-off.png"},
			{command.Config{ID: "store", Kind: command.KindNoop, Group: "write", Clique: "save"}, "group-off.png"},
			{command.Config{ID: "tool", Kind: command.KindNoop, Group: "read", Clique: "tools"}, "off.png"},
		}
		for _, tt := range tests {
			cmd, err := reg.Register(tt.cfg)
			require.NoError(t, err, tt.cfg.ID)
			assert.Equal(t, tt.want, cmd.Settings().DisabledImage, tt.cfg.ID)
		}
	})

	t.Run("settings cannot be changed through copies", func(t *testing.T) {
		t.Parallel()
		reg := command.NewRegistry(nil)
		cmd := reg.MustRegister(command.Config{ID: "a", Kind: command.KindNoop, Group: "read", CSSClasses: []string{"x"}})
		s := cmd.Settings()
		s.CSSClasses[0] = "changed"
		assert.Equal(t, []string{"x"}, cmd.Settings().CSSClasses)
	})

	t.Run("rejects broken configuration", func(t *testing.T) {
		t.Parallel()
		reg := command.NewRegistry(nil)
		reg.MustRegister(command.Config{ID: "taken", Kind: command.KindNoop, Group: "read"})

		tests := []struct {
			name string
			cfg  command.Config
			want error
		}{
			{"missing id", command.Config{Kind: command.KindNoop, Group: "read"}, command.ErrInvalidConfig},
			{"missing kind", command.Config{ID: "x", Group: "read"}, command.ErrInvalidConfig},
			{"unknown group", command.Config{ID: "x", Kind: command.KindNoop, Group: "publish"}, rbac.ErrUnknownGroup},
			{"unknown kind", command.Config{ID: "x", Kind: "export", Group: "read"}, command.ErrUnknownKind},
			{"bad target", command.Config{ID: "x", Kind: command.KindNoop, Group: "read", Target: "model(other())"}, command.ErrInvalidTarget},
			{"duplicate", command.Config{ID: "taken", Kind: command.KindNoop, Group: "read"}, command.ErrDuplicateCommand},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := reg.Register(tt.cfg)
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.want)
				assert.True(t, command.IsConfigurationError(err))
			})
		}
	})

	t.Run("soft configuration errors fall back and are collected", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		reg := command.NewRegistry(testCatalog(t),
			command.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

		cmd, err := reg.Register(command.Config{
			ID:             "odd",
			Kind:           command.KindNoop,
			Group:          "write",
			Clique:         "nowhere",
			Executability:  []string{"hasModel", "whenFullMoon"},
			SecurityObject: "owner",
		})
		require.NoError(t, err)
		assert.Equal(t, command.DefaultClique, cmd.Clique())

		errs := reg.ConfigErrors()
		require.Len(t, errs, 3)
		assert.ErrorIs(t, errs[0], command.ErrUnknownClique)
		assert.ErrorIs(t, errs[1], command.ErrUnknownRule)
		assert.ErrorIs(t, errs[2], secobject.ErrUnknownProvider)
		for _, err := range errs {
			assert.True(t, command.IsConfigurationError(err))
		}
		assert.Contains(t, buf.String(), "command configuration error")

		state := cmd.IsExecutable(t.Context(), command.Invocation{})
		assert.False(t, state.Executable, "known rules still apply")
		assert.Equal(t, command.ReasonNoModel, state.ReasonKey)
	})

	t.Run("resolve unknown id", func(t *testing.T) {
		t.Parallel()
		_, err := command.NewRegistry(nil).Resolve("nope")
		assert.ErrorIs(t, err, command.ErrCommandNotFound)
	})
}

func TestRegistryOrdering(t *testing.T) {
	t.Parallel()

	reg := command.NewRegistry(testCatalog(t))
	for _, c := range []struct{ id, clique string }{
		{"save1", "save"},
		{"back1", "back"},
		{"tools1", "tools"},
		{"create1", "create"},
		{"fwd1", "forward"},
		{"create2", "create"},
		{"secret", "internal"},
	} {
		reg.MustRegister(command.Config{ID: c.id, Kind: command.KindNoop, Group: "read", Clique: c.clique})
	}

	other := command.NewCatalog()
	require.NoError(t, other.AddClique(command.Clique{Name: "foreign"}))
	foreign := command.NewRegistry(other).MustRegister(command.Config{ID: "foreign1", Kind: command.KindNoop, Group: "read", Clique: "foreign"})

	cmds := append(reg.Commands(), foreign)

	declared := slices.Clone(cmds)
	slices.SortFunc(declared[:7], reg.Order())
	assert.Equal(t, []string{"save1", "back1", "tools1", "create1", "fwd1", "create2", "secret"}, ids(declared[:7]))

	toolbar := slices.Clone(cmds)
	slices.SortStableFunc(toolbar, reg.ToolbarOrder())
	assert.Equal(t, []string{"back1", "fwd1", "create1", "create2", "save1", "tools1", "secret", "foreign1"}, ids(toolbar))

	buttons := slices.Clone(cmds)
	slices.SortStableFunc(buttons, reg.ButtonBarOrder())
	assert.Equal(t, []string{"secret", "tools1", "create1", "create2", "save1", "back1", "fwd1", "foreign1"}, ids(buttons))

	layout := reg.Layout(cmds, command.BarButtons)
	var cliques []string
	for _, b := range layout {
		cliques = append(cliques, b.Clique)
	}
	assert.Equal(t, []string{"tools", "create", "save", "back", "forward", "foreign"}, cliques, "hidden cliques are left out")
	assert.Equal(t, []string{"create1", "create2"}, ids(layout[1].Commands))
	assert.Equal(t, "edit", layout[1].Group)
}

func TestConfirmKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "delete.sure", command.ConfirmKey("delete", "delete.sure"))
	assert.Equal(t, "delete.confirm", command.ConfirmKey("delete", ""))
	assert.Equal(t, command.ConfirmKeyDefault, command.ConfirmKey("", ""))
}
