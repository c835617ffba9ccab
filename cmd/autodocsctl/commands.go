package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jgivc/autodocs/internal/adapter/mdadapter"
	"github.com/jgivc/autodocs/internal/adapter/tpladapter"
	"github.com/jgivc/autodocs/internal/archive"
	"github.com/jgivc/autodocs/internal/config"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/jgivc/autodocs/internal/service/artifact"
	"github.com/jgivc/autodocs/internal/service/docs"
	"github.com/jgivc/autodocs/internal/service/settings"
	"github.com/jgivc/autodocs/internal/util"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const workflowMIMEType = "application/json"

type cli struct {
	fs      afero.Fs
	cfgPath string
	verbose bool
	cfg     *config.Config
	log     *slog.Logger
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	c := &cli{fs: fs}

	root := &cobra.Command{
		Use:           "autodocsctl",
		Short:         "Document n8n workflows from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOptional(c.fs, c.cfgPath)
			if err != nil {
				return err
			}
			c.cfg = cfg

			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			c.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.cfgPath, "config", "c", "config.yml", "Path to config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log debug output")

	root.AddCommand(c.generateCmd(), c.zipCmd(), c.renderCmd())

	return root
}

func (c *cli) generateCmd() *cobra.Command {
	var (
		outDir string
		html   bool
		extras bool
	)

	cmd := &cobra.Command{
		Use:   "generate <workflow.json>",
		Short: "Generate documentation for a workflow export",
		Long: `Sends the workflow to the configured model and writes <name>.docs.zip
to the output directory. With --html the printable page is written too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afero.ReadFile(c.fs, args[0])
			if err != nil {
				return fmt.Errorf("cannot read workflow: %w", err)
			}

			if !cmd.Flags().Changed("extras") {
				extras = c.cfg.Artifacts.BundleExtras
			}

			b, err := c.builder(extras)
			if err != nil {
				return err
			}

			gen := docs.NewGenerator(settings.NewConfigClientProvider(&c.cfg.LLM, c.log), c.cfg.Artifacts.MaxUploadSize, c.log)
			doc, err := gen.Generate(cmd.Context(), &entity.Upload{
				FileName:    filepath.Base(args[0]),
				ContentType: workflowMIMEType,
				Size:        int64(len(data)),
				Data:        data,
			})
			if err != nil {
				return err
			}

			zip, err := b.Zip(doc, time.Now())
			if err != nil {
				return fmt.Errorf("cannot build archive: %w", err)
			}

			if err := c.write(cmd, filepath.Join(outDir, artifact.ZipName(doc)), zip); err != nil {
				return err
			}

			if !html {
				return nil
			}

			page, err := b.Page(doc, true)
			if err != nil {
				return fmt.Errorf("cannot render page: %w", err)
			}

			return c.write(cmd, filepath.Join(outDir, artifact.PrintName(doc)), []byte(page))
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&html, "html", false, "Also write the printable HTML page")
	cmd.Flags().BoolVar(&extras, "extras", false, "Bundle the Docsify index and the workflow into the archive")

	return cmd
}

func (c *cli) zipCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "zip <file>...",
		Short: "Pack files into a stored zip archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([]archive.Entry, 0, len(args))
			for _, name := range args {
				data, err := afero.ReadFile(c.fs, name)
				if err != nil {
					return fmt.Errorf("cannot read %s: %w", name, err)
				}

				entries = append(entries, archive.Entry{Name: filepath.ToSlash(filepath.Base(name)), Content: data})
			}

			return c.write(cmd, out, archive.Build(entries))
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "docs.zip", "Archive file name")

	return cmd
}

func (c *cli) renderCmd() *cobra.Command {
	var (
		outDir string
		title  string
		share  bool
	)

	cmd := &cobra.Command{
		Use:   "render <doc>",
		Short: "Render saved documentation into a standalone HTML page",
		Long: `Reads model output (JSON sections or markdown) and writes the printable
page. With --share the page is written without the print script.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afero.ReadFile(c.fs, args[0])
			if err != nil {
				return fmt.Errorf("cannot read document: %w", err)
			}

			b, err := c.builder(false)
			if err != nil {
				return err
			}

			if title == "" {
				title = util.FileBaseName(args[0], entity.DefaultTitle)
			}

			doc := &entity.Documentation{
				Title:    title,
				FileName: filepath.Base(args[0]),
				Content:  string(data),
			}

			page, err := b.Page(doc, !share)
			if err != nil {
				return fmt.Errorf("cannot render page: %w", err)
			}

			name := artifact.PrintName(doc)
			if share {
				name = util.FileBaseName(doc.FileName, "docs") + ".html"
			}

			return c.write(cmd, filepath.Join(outDir, name), []byte(page))
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "Output directory")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Page title")
	cmd.Flags().BoolVar(&share, "share", false, "Omit the print script")

	return cmd
}

func (c *cli) builder(extras bool) (artifact.Builder, error) {
	pages, err := tpladapter.NewTplAdapter(c.fs, c.cfg.Artifacts.PageTemplate)
	if err != nil {
		return nil, err
	}

	return artifact.NewBuilder(mdadapter.NewMDAdapter(), pages, extras), nil
}

func (c *cli) write(cmd *cobra.Command, name string, data []byte) error {
	if err := c.fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(name), err)
	}

	if err := afero.WriteFile(c.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", name, len(data))

	return nil
}
