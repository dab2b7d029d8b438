package session

import (
	"fmt"
	"image"

	"github.com/taigrr/garment/internal/api"
	"github.com/taigrr/garment/internal/config"
	"github.com/taigrr/garment/pkg/garment"
	"github.com/taigrr/garment/pkg/math3d"
)

// LoadConfig is a saved design waiting to be opened in the designer.
// Optional fields are nil when the design did not record them.
type LoadConfig struct {
	ProductID          string   `json:"productId"`
	ColorID            string   `json:"colorId"`
	SizeID             string   `json:"sizeId"`
	CustomText         *string  `json:"customText"`
	ShirtColorHex      *string  `json:"shirtColorHex,omitempty"`
	IsLogoMode         *bool    `json:"isLogoMode,omitempty"`
	LogoScale          *float64 `json:"logoScale,omitempty"`
	LogoOffsetX        *float64 `json:"logoOffsetX,omitempty"`
	LogoOffsetY        *float64 `json:"logoOffsetY,omitempty"`
	LogoTargetPart     *string  `json:"logoTargetPart,omitempty"`
	UploadedLogoURL    *string  `json:"uploadedLogoUrl,omitempty"`
	UploadedPatternURL *string  `json:"uploadedPatternUrl,omitempty"`
}

// LoadConfigFrom converts a saved design into a LoadConfig.
func LoadConfigFrom(d api.SavedDesign) LoadConfig {
	hex := d.ShirtColorHex
	mode := d.IsLogoMode
	lc := LoadConfig{
		ProductID:          d.ProductID,
		ColorID:            d.ColorID,
		SizeID:             d.SizeID,
		CustomText:         d.CustomText,
		IsLogoMode:         &mode,
		LogoScale:          d.LogoScale,
		LogoOffsetX:        d.LogoOffsetX,
		LogoOffsetY:        d.LogoOffsetY,
		LogoTargetPart:     d.LogoTargetPart,
		UploadedLogoURL:    d.UploadedLogoURL,
		UploadedPatternURL: d.UploadedPatternURL,
	}
	if hex != "" {
		lc.ShirtColorHex = &hex
	}
	return lc
}

// Design is the designer state: product selection, shirt color and either
// a tiled pattern or a single logo decal.
type Design struct {
	ProductID  string
	ColorID    string
	SizeID     string
	CustomText string
	Color      string
	LogoMode   bool
	Decal      garment.DecalParams
	LogoURL    string
	PatternURL string
}

// NewDesign returns the starting state described by cfg.
func NewDesign(cfg config.DesignerConfig) (Design, error) {
	d := Design{Color: garment.DefaultColor, Decal: garment.DefaultDecalParams()}
	if cfg.Color != "" {
		d.Color = cfg.Color
	}
	if _, err := garment.ParseColor(d.Color); err != nil {
		return Design{}, err
	}
	if cfg.LogoScale != 0 {
		d.Decal.Scale = cfg.LogoScale
	}
	d.Decal.Offset = math3d.V2(cfg.LogoOffsetX, cfg.LogoOffsetY)
	if cfg.LogoTarget != "" {
		r, err := garment.ParseRegion(cfg.LogoTarget)
		if err != nil {
			return Design{}, err
		}
		d.Decal.Target = r
	}
	if err := d.Decal.Validate(); err != nil {
		return Design{}, err
	}
	return d, nil
}

// Apply loads a saved configuration. Logo placement is only restored in
// logo mode; pattern mode resets it to the defaults.
func (d *Design) Apply(lc LoadConfig) error {
	next := *d
	next.ProductID, next.ColorID, next.SizeID = lc.ProductID, lc.ColorID, lc.SizeID
	next.CustomText = deref(lc.CustomText, "")
	next.Color = deref(lc.ShirtColorHex, "")
	if next.Color == "" {
		next.Color = garment.DefaultColor
	}
	if _, err := garment.ParseColor(next.Color); err != nil {
		return err
	}
	next.LogoMode = deref(lc.IsLogoMode, false)

	next.Decal = garment.DefaultDecalParams()
	if next.LogoMode {
		next.Decal.Scale = deref(lc.LogoScale, next.Decal.Scale)
		next.Decal.Offset = math3d.V2(deref(lc.LogoOffsetX, next.Decal.Offset.X), deref(lc.LogoOffsetY, next.Decal.Offset.Y))
		if deref(lc.LogoTargetPart, "") == garment.Back.String() {
			next.Decal.Target = garment.Back
		}
		// Saved offsets may lie outside the sliders; Placement clamps them.
		if err := next.Decal.Check(); err != nil {
			return fmt.Errorf("saved logo placement: %w", err)
		}
	}
	next.LogoURL = deref(lc.UploadedLogoURL, "")
	next.PatternURL = deref(lc.UploadedPatternURL, "")
	*d = next
	return nil
}

// MaterialOptions returns the material inputs for the current state.
func (d Design) MaterialOptions(pattern image.Image, fabric garment.FabricMaps) garment.MaterialOptions {
	return garment.MaterialOptions{
		Color:    d.Color,
		Pattern:  pattern,
		LogoMode: d.LogoMode,
		Fabric:   fabric,
	}
}

// Config returns the save payload for the current state.
func (d Design) Config(designImageURL string) api.DesignConfig {
	cfg := api.DesignConfig{
		ProductID:      d.ProductID,
		ColorID:        d.ColorID,
		SizeID:         d.SizeID,
		DesignImageURL: designImageURL,
		ShirtColorHex:  d.Color,
		IsLogoMode:     d.LogoMode,
	}
	if d.CustomText != "" {
		cfg.CustomText = &d.CustomText
	}
	if d.LogoMode {
		target := d.Decal.Target.String()
		cfg.LogoScale = &d.Decal.Scale
		cfg.LogoOffsetX = &d.Decal.Offset.X
		cfg.LogoOffsetY = &d.Decal.Offset.Y
		cfg.LogoTargetPart = &target
	}
	if d.LogoURL != "" {
		cfg.UploadedLogoURL = &d.LogoURL
	}
	if d.PatternURL != "" {
		cfg.UploadedPatternURL = &d.PatternURL
	}
	return cfg
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
