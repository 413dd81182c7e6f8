package main

import (
	"log"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/dashkit/dashbuild/internal/builder"
	"github.com/dashkit/dashbuild/internal/dlogger"
	"github.com/dashkit/dashbuild/internal/server"
	"github.com/dashkit/dashbuild/pkg/config"
)

var CLI struct {
	Build CommandBuild `cmd:"" aliases:"b" help:"Builds or rebuilds the project."`
	Serve CommandServe `cmd:"" aliases:"s" help:"Run a live dev server."`

	ConfigFile string `short:"c" help:"configuration file path (optional)"`
}

type CommandBuild struct {
	SrcDir   string `help:"Source directory." type:"existingdir"`
	BuildDir string `help:"Build output."`

	Verbose int `short:"v" help:"Print verbose output." type:"counter"`
}

type CommandServe struct {
	SrcDir   string `help:"Source directory." type:"existingdir"`
	BuildDir string `help:"Build output."`
	Build    bool   `negatable:"" help:"Don't run build."`

	Port int `short:"p" help:"Listener port"`

	Verbose int `short:"v" help:"Print verbose output." type:"counter"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.UsageOnError())

	err := config.Init(CLI.ConfigFile)
	if err != nil {
		log.Fatal(err)
	}

	err = ctx.Run(ctx)
	if err != nil {
		ctx.PrintUsage(false)
		os.Exit(1)
	}
}

func applyVerbose(v int) {
	switch v {
	case 0:
		dlogger.ApplyLogLevel("info")
	case 1:
		dlogger.ApplyLogLevel("debug")
	default:
		dlogger.ApplyLogLevel("all")
	}
}

func (r *CommandBuild) Run(ctx *kong.Context) error {
	applyVerbose(r.Verbose)

	buildtool := builder.NewBuilder(r.SrcDir, r.BuildDir, ".")

	err := buildtool.Init()
	if err != nil {
		return err
	}

	res, err := buildtool.Build()
	if err != nil {
		os.Exit(1)
	}

	dlogger.Info("msg", "Build complete", "written", len(res.Written), "skipped_rtl_pairs", len(res.SkippedPairs))
	return nil
}

func (r *CommandServe) Run(ctx *kong.Context) error {
	applyVerbose(r.Verbose)

	if r.SrcDir == "" {
		r.SrcDir = config.Config.SrcDir
	}
	if r.BuildDir == "" {
		r.BuildDir = config.Config.BuildDir
	}
	if r.Port <= 0 {
		r.Port = config.Config.ServeConfig.Port
	}

	serv := server.NewServer(r.SrcDir, r.BuildDir, ".", strconv.Itoa(r.Port), config.Config.ServeConfig.Redirect404)

	return serv.Start(!r.Build)
}
