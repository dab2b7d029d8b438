package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/garment/internal/assets"
	"github.com/taigrr/garment/internal/logger"
	"github.com/taigrr/garment/internal/session"
	"github.com/taigrr/garment/pkg/garment"
	"github.com/taigrr/garment/pkg/models"
	"github.com/taigrr/garment/pkg/render"
)

// designFlags are the designer controls shared by split, bake and design save.
type designFlags struct {
	color   string
	pattern string
	logo    string
	scale   float64
	offsetX float64
	offsetY float64
	target  string
	queued  bool
}

func (f *designFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.color, "color", "", "Shirt color (#RRGGBB or a palette name)")
	fl.StringVar(&f.pattern, "pattern", "", "Pattern image tiled over the shirt (path or URL)")
	fl.StringVar(&f.logo, "logo", "", "Logo image placed as a decal (path or URL)")
	fl.Float64Var(&f.scale, "scale", 0, "Logo scale (0.01-0.5)")
	fl.Float64Var(&f.offsetX, "offset-x", 0, "Logo horizontal offset")
	fl.Float64Var(&f.offsetY, "offset-y", 0, "Logo vertical offset (-0.2-0.2)")
	fl.StringVar(&f.target, "target", "", "Logo target: front or back")
	fl.BoolVar(&f.queued, "queued", false, "Start from the design queued with 'design load'")
}

// resolve builds the design state: config defaults, then the queued design,
// then explicit flags.
func (f *designFlags) resolve(cmd *cobra.Command, a *app) (session.Design, error) {
	d, err := session.NewDesign(a.cfg.Designer)
	if err != nil {
		return d, fmt.Errorf("designer config: %w", err)
	}
	if f.queued {
		lc, ok := a.sess.TakeDesign()
		if !ok {
			return d, errors.New("no design queued; run 'garment design load <id>' first")
		}
		if err := d.Apply(lc); err != nil {
			return d, err
		}
		if err := a.sess.Save(); err != nil {
			return d, err
		}
	}

	fl := cmd.Flags()
	if fl.Changed("color") {
		c := f.color
		if hex, ok := garment.Palette[strings.ToLower(c)]; ok {
			c = hex
		}
		if _, err := garment.ParseColor(c); err != nil {
			return d, err
		}
		d.Color = strings.ToUpper(c)
	}
	if f.logo != "" && f.pattern != "" {
		return d, errors.New("--logo and --pattern are mutually exclusive")
	}
	if f.logo != "" {
		d.LogoMode, d.LogoURL = true, f.logo
	}
	if f.pattern != "" {
		d.LogoMode, d.PatternURL = false, f.pattern
	}
	if fl.Changed("scale") {
		d.Decal.Scale = f.scale
	}
	if fl.Changed("offset-x") {
		d.Decal.Offset.X = f.offsetX
	}
	if fl.Changed("offset-y") {
		d.Decal.Offset.Y = f.offsetY
	}
	if fl.Changed("target") {
		r, err := garment.ParseRegion(f.target)
		if err != nil {
			return d, err
		}
		d.Decal.Target = r
	}
	if err := d.Decal.Validate(); err != nil {
		return d, err
	}
	return d, nil
}

// loadImage fetches a user image, validates it and bounds its size. A
// temporary preview of the decoded image is kept until the command exits.
func (a *app) loadImage(ctx context.Context, ref string) (image.Image, error) {
	ctx, cancel := a.fetchContext(ctx)
	defer cancel()
	data, err := a.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, kind, err := assets.DecodeUpload(data, a.cfg.Assets.MaxUploadPx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	preview, err := assets.NewPreview(img)
	if err != nil {
		return nil, err
	}
	a.previews.Replace(preview)
	a.log.Debug("image loaded",
		zap.String("ref", ref),
		zap.String("type", kind.MIME.Value),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
		zap.String("preview", preview.Path))
	return img, nil
}

func (a *app) loadGeometry(ctx context.Context) (*models.Mesh, *garment.ProcessedGeometry, error) {
	fctx, cancel := a.fetchContext(ctx)
	defer cancel()
	mesh, err := a.fetcher.LoadModel(fctx, a.cfg.Assets.ModelURL)
	if err != nil {
		return nil, nil, err
	}
	s := garment.NewSplitter(
		garment.WithLogger(logger.Named("splitter")),
		garment.WithSleeveRatio(a.cfg.Designer.SleeveRatio),
		garment.WithEpsilon(a.cfg.Designer.Epsilon),
	)
	geo, err := s.Process(mesh)
	if err != nil {
		return nil, nil, fmt.Errorf("split model: %w", err)
	}
	return mesh, geo, nil
}

func (a *app) loadFabric(ctx context.Context) (garment.FabricMaps, error) {
	ctx, cancel := a.fetchContext(ctx)
	defer cancel()
	return a.fetcher.LoadFabricMaps(ctx, a.cfg.Assets.SiteURL, assets.FabricRefs{
		AO:        a.cfg.Assets.AOMap,
		Normal:    a.cfg.Assets.NormalMap,
		Roughness: a.cfg.Assets.RoughnessMap,
	})
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display garment model information",
		Long:  "Load the configured garment model, split it and report vertex, triangle and per-region counts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mesh, geo, err := a.loadGeometry(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			size := mesh.Size()
			center := mesh.Center()

			fmt.Fprintf(w, "Model:      %s\n", a.cfg.Assets.ModelURL)
			fmt.Fprintf(w, "Vertices:   %d\n", mesh.VertexCount())
			fmt.Fprintf(w, "Triangles:  %d\n", mesh.TriangleCount())
			fmt.Fprintf(w, "UVs:        %v\n", mesh.HasUVs)
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Bounds Min: (%.3f, %.3f, %.3f)\n", mesh.BoundsMin.X, mesh.BoundsMin.Y, mesh.BoundsMin.Z)
			fmt.Fprintf(w, "Bounds Max: (%.3f, %.3f, %.3f)\n", mesh.BoundsMax.X, mesh.BoundsMax.Y, mesh.BoundsMax.Z)
			fmt.Fprintf(w, "Dimensions: %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
			fmt.Fprintf(w, "Center:     (%.3f, %.3f, %.3f)\n", center.X, center.Y, center.Z)
			fmt.Fprintln(w)
			for _, r := range garment.Regions {
				fmt.Fprintf(w, "%-13s %d triangles\n", r.String()+":", geo.Region(r).TriangleCount())
			}
			fmt.Fprintf(w, "Cuts: %d  Dropped: %d  UV fallbacks: %d\n",
				geo.Stats.Cuts, geo.Stats.Dropped, geo.Stats.UVFallbacks)
			return nil
		},
	}
}

func newSplitCmd(a *app) *cobra.Command {
	var (
		df     designFlags
		out    string
		fabric bool
	)
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split the garment and export a styled GLB",
		Long: `Split the garment model into right_sleeve, left_sleeve, front and back,
apply the shirt color and either a tiled pattern or a logo decal, and
write the result as a GLB with one node per region (plus "decal").`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := df.resolve(cmd, a)
			if err != nil {
				return err
			}
			_, geo, err := a.loadGeometry(ctx)
			if err != nil {
				return err
			}

			var maps garment.FabricMaps
			if fabric {
				if maps, err = a.loadFabric(ctx); err != nil {
					return err
				}
			}
			var pattern image.Image
			if !d.LogoMode && d.PatternURL != "" {
				if pattern, err = a.loadImage(ctx, d.PatternURL); err != nil {
					return err
				}
			}
			mats, err := garment.NewMaterials(d.MaterialOptions(pattern, maps))
			if err != nil {
				return err
			}
			for _, r := range garment.Regions {
				mats.For(r).Apply(geo.Region(r))
			}

			meshes := geo.Meshes()
			if d.LogoMode {
				if d.LogoURL == "" {
					return errors.New("logo mode needs a logo image (--logo)")
				}
				logo, err := a.loadImage(ctx, d.LogoURL)
				if err != nil {
					return err
				}
				decal, err := garment.ProjectDecal(geo.Region(d.Decal.Target), d.Decal)
				if err != nil {
					return err
				}
				garment.NewDecalMaterial(logo, maps).Apply(decal)
				meshes = append(meshes, decal)
				a.log.Info("decal projected",
					zap.Stringer("target", d.Decal.Target),
					zap.Int("triangles", decal.TriangleCount()))
			}

			if err := models.WriteGLB(out, meshes...); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Wrote %s\n", out)
			for _, m := range meshes {
				fmt.Fprintf(w, "  %-13s %d triangles\n", m.Name, m.TriangleCount())
			}
			return nil
		},
	}
	df.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "garment.glb", "Output GLB path")
	cmd.Flags().BoolVar(&fabric, "fabric", false, "Fetch the fabric AO/normal/roughness maps")
	return cmd
}

func newBakeCmd(a *app) *cobra.Command {
	var (
		df   designFlags
		out  string
		size int
	)
	cmd := &cobra.Command{
		Use:   "bake",
		Short: "Bake the logo into the target region's texture",
		Long: `Rasterize the logo decal into a texture laid out by the target region's UVs.
The texture is filled with the shirt color first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := df.resolve(cmd, a)
			if err != nil {
				return err
			}
			if d.LogoURL == "" {
				return errors.New("bake needs a logo image (--logo)")
			}
			if size <= 0 {
				return fmt.Errorf("invalid texture size %d", size)
			}
			_, geo, err := a.loadGeometry(ctx)
			if err != nil {
				return err
			}
			logo, err := a.loadImage(ctx, d.LogoURL)
			if err != nil {
				return err
			}
			base, err := garment.ParseColor(d.Color)
			if err != nil {
				return err
			}

			dst := render.NewSolidTexture(size, size, render.ColorFromFloats(base))
			logoTex := render.TextureFromImage(logo)
			logoTex.WrapU, logoTex.WrapV = render.WrapClamp, render.WrapClamp
			toDecal := d.Decal.Placement().Inverse()
			n := render.BakeDecal(dst, geo.Region(d.Decal.Target), toDecal, logoTex)

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := dst.SavePNG(out); err != nil {
				return fmt.Errorf("save %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d, %d texels covered on %s)\n",
				out, size, size, n, d.Decal.Target)
			return nil
		},
	}
	df.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "bake.png", "Output PNG path")
	cmd.Flags().IntVar(&size, "size", 1024, "Texture size in pixels")
	return cmd
}
