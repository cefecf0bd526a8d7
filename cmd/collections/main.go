package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Aashil0828/collections"
	"github.com/Aashil0828/collections/registry"
	"github.com/Aashil0828/collections/script"
	"github.com/Aashil0828/collections/variant"
	plog "github.com/phuslu/log"
	"gopkg.in/urfave/cli.v1"
)

var (
	logLevelFlag = cli.StringFlag{
		Name:   "log-level",
		Usage:  "trace, debug, info, warn or error",
		EnvVar: "COLLECTIONS_LOG_LEVEL",
		Value:  "info",
	}

	// same flag without a default so the global value shows through
	runLogLevelFlag = cli.StringFlag{
		Name:  logLevelFlag.Name,
		Usage: logLevelFlag.Usage,
	}

	runCommand = cli.Command{
		Action:    runAction,
		Name:      "run",
		Usage:     "Run a script against the container classes",
		ArgsUsage: "<file.js>",
		Flags:     []cli.Flag{runLogLevelFlag},
	}

	versionCommand = cli.Command{
		Action: versionAction,
		Name:   "version",
		Usage:  "Print the plugin manifest",
	}
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "collections"
	app.Usage = "ordered and hash map containers for scripted hosts"
	if p, err := collections.Manifest(); err == nil {
		app.Version = p.Version.String()
	}
	app.Flags = []cli.Flag{logLevelFlag}
	app.Commands = []cli.Command{
		runCommand,
		versionCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(ctx *cli.Context) plog.Logger {
	level := ctx.String(logLevelFlag.Name)
	if level == "" {
		level = ctx.GlobalString(logLevelFlag.Name)
	}
	return plog.Logger{
		Level:      plog.ParseLevel(level),
		TimeField:  "time",
		TimeFormat: "15:04:05",
		Writer:     &plog.IOWriter{Writer: os.Stderr},
	}
}

func runAction(ctx *cli.Context) error {
	file := ctx.Args().First()
	if file == "" {
		return cli.NewExitError("run: missing script file", 2)
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	log := newLogger(ctx)
	_, reg, err := collections.Load(log)
	if err != nil {
		return err
	}
	defer reg.Close()
	host, err := script.NewHost(reg, log)
	if err != nil {
		return err
	}
	res, err := host.Run(file, src)
	if err != nil {
		log.Error().Err(err).Str("file", file).Msg("script failed")
		return cli.NewExitError(err.Error(), 1)
	}
	for typeName, n := range reg.Live() {
		log.Debug().Str("type", typeName).Int("objects", n).Msg("live after run")
	}
	printResult(ctx.App.Writer, reg, res)
	return nil
}

// printResult writes the value a script evaluated to, listing the
// entries of a map.
func printResult(w io.Writer, reg *registry.Registry, res variant.Variant) {
	if res.IsEmpty() {
		return
	}
	if res.Kind() == variant.Ref {
		if pairs, err := collections.Entries(reg, res); err == nil {
			for _, p := range pairs {
				fmt.Fprintf(w, "%s => %s\n", p[0], p[1])
			}
			return
		}
	}
	fmt.Fprintln(w, res)
}

func versionAction(ctx *cli.Context) error {
	p, err := collections.Manifest()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%s %s by %s\n", p.Name, p.Version, p.Author)
	return nil
}
