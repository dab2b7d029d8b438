package session

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/garment/internal/api"
	"github.com/taigrr/garment/internal/config"
	"github.com/taigrr/garment/pkg/garment"
	"github.com/taigrr/garment/pkg/math3d"
)

func product(id, size, price string) api.Product {
	return api.Product{ID: id, Name: id, Price: price, Size: &api.Size{ID: size, Name: size}}
}

func ptr[T any](v T) *T { return &v }

func TestCartDedupesByProductAndSize(t *testing.T) {
	var c Cart
	assert.True(t, c.Add(product("p1", "m", "10")))
	assert.False(t, c.Add(product("p1", "m", "10")))
	assert.True(t, c.Add(product("p1", "l", "10")))
	assert.True(t, c.Add(product("p2", "m", "12.5")))
	assert.True(t, c.Add(api.Product{ID: "p3", Price: "1"}))
	assert.False(t, c.Add(api.Product{ID: "p3", Price: "1"}))
	assert.Equal(t, 4, c.Len())

	total, err := c.Total()
	require.NoError(t, err)
	assert.InDelta(t, 33.5, total, 1e-9)

	assert.True(t, c.Remove("p1", "m"))
	assert.False(t, c.Remove("p1", "m"))
	assert.False(t, c.Remove("p2", "l"))
	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "l", items[0].Size.ID)
	assert.Equal(t, "p2", items[1].ID)

	c.RemoveAll()
	assert.Zero(t, c.Len())
}

func TestCartTotalRejectsBadPrice(t *testing.T) {
	var c Cart
	c.Add(product("p1", "m", "ten"))
	_, err := c.Total()
	assert.Error(t, err)
}

func TestCartConcurrentAdds(t *testing.T) {
	var c Cart
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(product("p1", "m", "10"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}

func TestSessionPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := Open(path, nil)
	require.NoError(t, err)
	assert.False(t, s.SignedIn())

	s.Cart.Add(product("p1", "m", "10"))
	s.QueueDesign(LoadConfig{ProductID: "p1", ColorID: "c1", SizeID: "m"})
	require.NoError(t, s.SetTokens(api.Tokens{AccessToken: "a", RefreshToken: "r"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Open(path, nil)
	require.NoError(t, err)
	assert.True(t, again.SignedIn())
	assert.Equal(t, "r", again.Tokens().RefreshToken)
	require.Equal(t, 1, again.Cart.Len())
	lc, ok := again.TakeDesign()
	require.True(t, ok)
	assert.Equal(t, "p1", lc.ProductID)
	_, ok = again.TakeDesign()
	assert.False(t, ok)

	require.NoError(t, again.ClearTokens())
	third, err := Open(path, nil)
	require.NoError(t, err)
	assert.False(t, third.SignedIn())
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := Open(path, nil)
	assert.Error(t, err)
}

func TestNewDesignFromConfig(t *testing.T) {
	d, err := NewDesign(config.Default().Designer)
	require.NoError(t, err)
	assert.Equal(t, garment.DefaultDecalParams(), d.Decal)
	assert.Equal(t, "#FFFFFF", d.Color)

	cfg := config.Default().Designer
	cfg.LogoTarget = "sideways"
	_, err = NewDesign(cfg)
	assert.Error(t, err)

	cfg = config.Default().Designer
	cfg.LogoScale = 0.9
	_, err = NewDesign(cfg)
	assert.ErrorIs(t, err, garment.ErrInvalidDecal)
}

func TestApplyLogoMode(t *testing.T) {
	d, err := NewDesign(config.Default().Designer)
	require.NoError(t, err)

	err = d.Apply(LoadConfig{
		ProductID:       "p1",
		ColorID:         "c1",
		SizeID:          "s1",
		ShirtColorHex:   ptr("#000000"),
		IsLogoMode:      ptr(true),
		LogoScale:       ptr(0.2),
		LogoOffsetY:     ptr(-0.1),
		LogoTargetPart:  ptr("back"),
		UploadedLogoURL: ptr("https://cdn.example/logo.png"),
	})
	require.NoError(t, err)
	assert.True(t, d.LogoMode)
	assert.Equal(t, "#000000", d.Color)
	assert.Equal(t, garment.DecalParams{Scale: 0.2, Offset: math3d.V2(0, -0.1), Target: garment.Back}, d.Decal)

	cfg := d.Config("https://cdn.example/preview.png")
	require.NotNil(t, cfg.LogoTargetPart)
	assert.Equal(t, "back", *cfg.LogoTargetPart)
	assert.Equal(t, 0.2, *cfg.LogoScale)
	assert.Nil(t, cfg.CustomText)
	assert.Nil(t, cfg.UploadedPatternURL)
}

func TestApplyPatternModeResetsLogo(t *testing.T) {
	d, err := NewDesign(config.Default().Designer)
	require.NoError(t, err)
	d.Decal.Scale = 0.4

	err = d.Apply(LoadConfig{
		ProductID:          "p1",
		ColorID:            "c1",
		SizeID:             "s1",
		CustomText:         ptr("hi"),
		LogoScale:          ptr(0.3),
		LogoTargetPart:     ptr("back"),
		UploadedPatternURL: ptr("https://cdn.example/p.png"),
	})
	require.NoError(t, err)
	assert.False(t, d.LogoMode)
	assert.Equal(t, garment.DefaultDecalParams(), d.Decal)
	assert.Equal(t, garment.DefaultColor, d.Color)

	cfg := d.Config("")
	assert.Nil(t, cfg.LogoScale)
	assert.Equal(t, "hi", *cfg.CustomText)

	opts := d.MaterialOptions(nil, garment.FabricMaps{})
	assert.False(t, opts.LogoMode)
	assert.Equal(t, garment.DefaultColor, opts.Color)
}

func TestApplyClampsSavedOffset(t *testing.T) {
	d, err := NewDesign(config.Default().Designer)
	require.NoError(t, err)

	err = d.Apply(LoadConfig{
		IsLogoMode:  ptr(true),
		LogoScale:   ptr(0.18),
		LogoOffsetY: ptr(0.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, d.Decal.Offset.Y)
	assert.InDelta(t, 0.08, d.Decal.Placement().Position.Y, 1e-12)
}

func TestApplyRejectsBadInputWithoutChanges(t *testing.T) {
	d, err := NewDesign(config.Default().Designer)
	require.NoError(t, err)
	before := d

	err = d.Apply(LoadConfig{ShirtColorHex: ptr("blue")})
	assert.ErrorIs(t, err, garment.ErrInvalidColor)
	err = d.Apply(LoadConfig{IsLogoMode: ptr(true), LogoScale: ptr(-0.1)})
	assert.ErrorIs(t, err, garment.ErrInvalidDecal)
	assert.Equal(t, before, d)
}

func TestLoadConfigFromSaved(t *testing.T) {
	saved := api.SavedDesign{DesignConfig: api.DesignConfig{
		ProductID:     "p1",
		ColorID:       "c1",
		SizeID:        "s1",
		ShirtColorHex: "#FF0000",
		IsLogoMode:    true,
		LogoScale:     ptr(0.1),
	}}
	lc := LoadConfigFrom(saved)
	var d Design
	require.NoError(t, d.Apply(lc))
	assert.Equal(t, "#FF0000", d.Color)
	assert.Equal(t, 0.1, d.Decal.Scale)
	assert.Equal(t, garment.Front, d.Decal.Target)
}
