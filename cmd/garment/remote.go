package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/garment/internal/api"
	"github.com/taigrr/garment/internal/assets"
	"github.com/taigrr/garment/internal/session"
)

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func str(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

func newDesignCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "design",
		Short: "Work with saved designs",
	}
	cmd.AddCommand(newDesignGetCmd(a), newDesignMineCmd(a), newDesignLoadCmd(a), newDesignSaveCmd(a))
	return cmd
}

func newDesignGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <design-id>",
		Short: "Show a shared design",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.client.GetDesign(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Design:   %s\n", d.ID)
			if d.Product != nil {
				fmt.Fprintf(w, "Product:  %s (%s)\n", d.Product.Name, d.Product.Price)
			}
			if d.Color != nil {
				fmt.Fprintf(w, "Color:    %s %s\n", d.Color.Name, d.Color.Value)
			}
			if d.Creator != nil {
				fmt.Fprintf(w, "Creator:  %s\n", str(d.Creator.Name))
			}
			fmt.Fprintf(w, "Text:     %s\n", str(d.CustomText))
			fmt.Fprintf(w, "Image:    %s\n", str(d.DesignImageURL))
			if len(d.Tags) > 0 {
				fmt.Fprintf(w, "Tags:     %s\n", strings.Join(d.Tags, ", "))
			}
			if d.AverageRating != nil && d.RatingCount != nil {
				fmt.Fprintf(w, "Rating:   %.1f (%d ratings)\n", *d.AverageRating, *d.RatingCount)
			}
			sizes := make([]string, 0, len(d.AvailableSizes))
			for _, s := range d.AvailableSizes {
				sizes = append(sizes, s.Name)
			}
			if len(sizes) > 0 {
				fmt.Fprintf(w, "Sizes:    %s\n", strings.Join(sizes, ", "))
			}
			return nil
		},
	}
}

func newDesignMineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your saved designs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.MyDesigns(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tMODE\tUPDATED")
			for _, d := range list {
				mode := "pattern"
				if d.IsLogoMode {
					mode = "logo"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					d.ID, d.DesignName, d.ShirtColorHex, mode, d.UpdatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
}

func newDesignLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <design-id>",
		Short: "Queue one of your designs for the next split or bake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.MyDesigns(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range list {
				if d.ID != args[0] {
					continue
				}
				a.sess.QueueDesign(session.LoadConfigFrom(d))
				if err := a.sess.Save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s; run 'garment split --queued'\n", d.ID)
				return nil
			}
			return fmt.Errorf("design %s: %w", args[0], api.ErrNotFound)
		},
	}
}

func newDesignSaveCmd(a *app) *cobra.Command {
	var (
		df                       designFlags
		product, colorID, sizeID string
		text                     string
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Upload images and save the current design",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := df.resolve(cmd, a)
			if err != nil {
				return err
			}
			fl := cmd.Flags()
			if fl.Changed("product") {
				d.ProductID = product
			}
			if fl.Changed("color-id") {
				d.ColorID = colorID
			}
			if fl.Changed("size") {
				d.SizeID = sizeID
			}
			if fl.Changed("text") {
				d.CustomText = text
			}
			if !a.sess.SignedIn() {
				return fmt.Errorf("save design: %w (run 'garment login')", api.ErrUnauthorized)
			}

			upload := func(ref string) (string, error) {
				if ref == "" || isRemote(ref) {
					return ref, nil
				}
				data, err := os.ReadFile(ref)
				if err != nil {
					return "", err
				}
				kind, err := assets.Sniff(data)
				if err != nil {
					return "", fmt.Errorf("%s: %w", ref, err)
				}
				return a.client.Upload(ctx, data, kind.MIME.Value, filepath.Base(ref))
			}
			if d.LogoURL, err = upload(d.LogoURL); err != nil {
				return err
			}
			if d.PatternURL, err = upload(d.PatternURL); err != nil {
				return err
			}

			image := d.PatternURL
			if d.LogoMode {
				image = d.LogoURL
			}
			if image == "" {
				return errors.New("save design: a logo or pattern image is required")
			}
			saved, err := a.client.SaveDesign(ctx, d.Config(image))
			if err != nil {
				return err
			}
			a.log.Info("design saved", zap.String("id", saved.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "Saved design %s\n", saved.ID)
			return nil
		},
	}
	df.register(cmd)
	cmd.Flags().StringVar(&product, "product", "", "Product ID")
	cmd.Flags().StringVar(&colorID, "color-id", "", "Product color ID")
	cmd.Flags().StringVar(&sizeID, "size", "", "Product size ID")
	cmd.Flags().StringVar(&text, "text", "", "Custom text")
	return cmd
}

func newMarketplaceCmd(a *app) *cobra.Command {
	var q api.MarketplaceQuery
	cmd := &cobra.Command{
		Use:   "marketplace",
		Short: "Browse shared designs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.client.Marketplace(cmd.Context(), q)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCOLOR\tSIZE\tRATING")
			for _, it := range items {
				rating := "-"
				if it.AverageRating != nil {
					rating = strconv.FormatFloat(*it.AverageRating, 'f', 1, 64)
				}
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
					it.ID, it.Name, it.Price, it.Color.Name, it.Size.Name, rating)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "Search text")
	cmd.Flags().StringSliceVar(&q.Tags, "tags", nil, "Filter by tags")
	cmd.Flags().StringVar(&q.Sort, "sort", "", "Sort order: newest, views or rating")
	cmd.Flags().StringVar(&q.CreatorID, "creator", "", "Only designs by this creator")
	return cmd
}

func newRatingsCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "ratings <design-id>",
		Short: "Show a page of a design's ratings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client.Ratings(cmd.Context(), args[0], page)
			if err != nil {
				return err
			}
			printRatings(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func printRatings(w io.Writer, p *api.RatingsPage) {
	for _, r := range p.Data {
		stars := min(max(r.Score, 0), 5)
		fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("*", stars)+strings.Repeat(".", 5-stars), str(r.User.Name), r.CreatedAt.Format("2006-01-02"))
		if r.Comment != nil && *r.Comment != "" {
			fmt.Fprintf(w, "    %s\n", *r.Comment)
		}
	}
	fmt.Fprintf(w, "Page %d of %d (%d ratings)\n", p.Meta.CurrentPage, p.Meta.TotalPages, p.Meta.TotalCount)
}

func newRateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <design-id> <score 1-5> [comment...]",
		Short: "Rate a shared design",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("score: %w", err)
			}
			_, err = a.client.SubmitRating(cmd.Context(), args[0], score, strings.Join(args[2:], " "))
			if errors.Is(err, api.ErrConflict) {
				return fmt.Errorf("you have already rated design %s", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rated %s with %d\n", args[0], score)
			return nil
		},
	}
}

func newLoginCmd(a *app) *cobra.Command {
	var tokens api.Tokens
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store backend session tokens",
		Long:  "Store the access and refresh tokens issued by the storefront sign-in. Expired access tokens are refreshed automatically.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokens.AccessToken == "" {
				return errors.New("--access-token is required")
			}
			if err := a.sess.SetTokens(tokens); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed in")
			return nil
		},
	}
	cmd.Flags().StringVar(&tokens.AccessToken, "access-token", "", "Access token")
	cmd.Flags().StringVar(&tokens.RefreshToken, "refresh-token", "", "Refresh token")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the backend session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sess.ClearTokens(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
