package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/Badsnus/qrstudio/cmd/app"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/pkg/crop"
	"github.com/Badsnus/qrstudio/pkg/generator"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
	"github.com/alecthomas/kong"

	_ "time/tzdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

type Globals struct {
	Config string `help:"Path to the config file" type:"path" short:"c"`
}

type cliArgs struct {
	Globals

	Serve   serveCmd   `cmd:"" default:"withargs" help:"Run the live preview server"`
	Crop    cropCmd    `cmd:"" help:"Composite a logo from an image with a crop transform"`
	Export  exportCmd  `cmd:"" help:"Export a saved design file"`
	Library libraryCmd `cmd:"" help:"Manage the design library"`
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("qrstudio"),
		kong.Description("Design and export styled QR codes with embedded logos."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	return cliCtx.Run(&args.Globals)
}

type serveCmd struct{}

func (cmd *serveCmd) Run(g *Globals, ctx context.Context) error {
	a, err := app.New(ctx, g.Config)
	if err != nil {
		return err
	}
	server, _ := a.Server(func(addr string) {
		a.Logger.Infof("Server started at %s", addr)
	})
	return server.Run(ctx)
}

type cropCmd struct {
	Image    string  `arg:"" help:"Source image" type:"existingfile"`
	Output   string  `help:"Output PNG path" short:"o" default:"logo.png"`
	Scale    float64 `help:"Zoom, clamped to [0.5, 4]" default:"1"`
	OffsetX  float64 `help:"Horizontal offset in viewport pixels" name:"offset-x"`
	OffsetY  float64 `help:"Vertical offset in viewport pixels" name:"offset-y"`
	Radius   float64 `help:"Corner radius in viewport pixels" default:"24"`
	Viewport float64 `help:"Viewport size in pixels" default:"240"`
	Size     int     `help:"Output raster size" default:"512"`
}

func (cmd *cropCmd) Run() error {
	f, err := os.Open(cmd.Image)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := crop.DecodeSource(f, filepath.Base(cmd.Image))
	if err != nil {
		return err
	}

	data, ok, err := crop.CompositePNG(src.Image, crop.Geometry{
		NaturalWidth:  src.Width(),
		NaturalHeight: src.Height(),
		State: crop.State{
			Scale:   crop.ClampScale(cmd.Scale),
			OffsetX: cmd.OffsetX,
			OffsetY: cmd.OffsetY,
		},
		ViewportSize: cmd.Viewport,
		BorderRadius: cmd.Radius,
		RasterSize:   float64(cmd.Size),
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("nothing to draw for %s", cmd.Image)
	}

	path, err := generator.NewWriter(filepath.Dir(cmd.Output)).Write(filepath.Base(cmd.Output), data)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

type exportCmd struct {
	Design   string `arg:"" help:"Design JSON file, as stored in an exported library entry" type:"existingfile"`
	Format   string `help:"png or svg" enum:"png,svg" default:"png"`
	Multiple int    `help:"Resolution multiple" default:"1"`
	All      bool   `help:"Export every configured multiple"`
	Output   string `help:"Output directory" short:"o" default:"export"`
}

func (cmd *exportCmd) Run(g *Globals, ctx context.Context) error {
	a, err := app.New(ctx, g.Config)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(cmd.Design)
	if err != nil {
		return err
	}
	var design entity.Design
	if err = json.Unmarshal(raw, &design); err != nil {
		return fmt.Errorf("failed to parse design: %w", err)
	}
	if len(design.Logo) == 0 && len(design.SourceImage) > 0 {
		design.Logo, err = composeLogo(a, &design)
		if err != nil {
			return err
		}
	}

	format, err := qr.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}
	writer := generator.NewWriter(cmd.Output)

	if cmd.All {
		paths, err := a.Export.ExportAll(ctx, &design, format, writer)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	var buf bytes.Buffer
	if err = a.Export.ExportDesign(ctx, &buf, &design, format, cmd.Multiple); err != nil {
		return err
	}
	path, err := writer.Write(a.Export.FileName(design.Name, format, cmd.Multiple), buf.Bytes())
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// composeLogo rebuilds the logo of a design that only carries its source
// image and crop state.
func composeLogo(a *app.App, d *entity.Design) ([]byte, error) {
	src, err := crop.DecodeSourceBytes(d.SourceImage, d.SourceName)
	if err != nil {
		return nil, err
	}
	opts := a.Config.Crop
	opts.BorderRadius = d.Config.LogoRadius
	c := crop.NewController(opts)
	c.LoadSource(src, d.Crop)
	return c.Logo(), nil
}

type libraryCmd struct {
	List      libraryListCmd      `cmd:"" default:"1" help:"List saved designs"`
	Delete    libraryDeleteCmd    `cmd:"" help:"Delete a design"`
	Duplicate libraryDuplicateCmd `cmd:"" help:"Duplicate a design"`
	Export    libraryExportCmd    `cmd:"" help:"Write the library as JSON"`
	Import    libraryImportCmd    `cmd:"" help:"Merge a JSON library into the configured one"`
}

type libraryListCmd struct{}

func (cmd *libraryListCmd) Run(g *Globals, ctx context.Context) error {
	a, err := app.New(ctx, g.Config)
	if err != nil {
		return err
	}
	designs, err := a.Library.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSAVED")
	for _, d := range designs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, d.Timestamp.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

type libraryDeleteCmd struct {
	ID string `arg:"" help:"Design id"`
}

func (cmd *libraryDeleteCmd) Run(g *Globals, ctx context.Context) error {
	a, err := app.New(ctx, g.Config)
	if err != nil {
		return err
	}
	return a.Library.Delete(ctx, cmd.ID)
}

type libraryDuplicateCmd struct {
	ID string `arg:"" help:"Design id"`
}

func (cmd *libraryDuplicateCmd) Run(g *Globals, ctx context.Context) error {
	a, err := app.New(ctx, g.Config)
	if err != nil {
		return err
	}
	d, err := a.Library.Duplicate(ctx, cmd.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\n", d.ID, d.Name)
	return nil
}

type libraryExportCmd struct {
	Output string `help:"Output file, stdout when empty" short:"o"`
}

func (cmd *libraryExportCmd) Run(g *Globals, ctx context.Context) error {
	a, err := app.New(ctx, g.Config)
	if err != nil {
		return err
	}
	if cmd.Output == "" {
		return a.Library.Export(ctx, os.Stdout)
	}
	f, err := os.Create(cmd.Output)
	if err != nil {
		return err
	}
	defer f.Close()
	return a.Library.Export(ctx, f)
}

type libraryImportCmd struct {
	File string `arg:"" help:"Library JSON file" type:"existingfile"`
}

func (cmd *libraryImportCmd) Run(g *Globals, ctx context.Context) error {
	a, err := app.New(ctx, g.Config)
	if err != nil {
		return err
	}
	f, err := os.Open(cmd.File)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := a.Library.Import(ctx, f)
	if err != nil {
		return err
	}
	a.Logger.Infof("Imported %d designs", n)
	return nil
}
