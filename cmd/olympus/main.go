package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bodgit/olympus"
	"github.com/bodgit/olympus/ets"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const defaultDB = "olympus.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	if c.Bool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

func newOlympus(c *cli.Context) (*olympus.Olympus, *zap.Logger, error) {
	logger, err := newLogger(c)
	if err != nil {
		return nil, nil, err
	}

	o, err := olympus.New(c.String("db"), logger)
	if err != nil {
		return nil, nil, err
	}

	return o, logger, nil
}

func printIndex(w io.Writer, idx *ets.Index) {
	fmt.Fprintf(w, "records: %d\n", idx.Header.RecordCount)
	fmt.Fprintf(w, "table:   %d (%s)\n", idx.Header.TableOffset, humanize.Bytes(idx.Header.TableEnd()-idx.Header.TableOffset))
	for _, l := range idx.Levels {
		fmt.Fprintf(w, "level %d: %dx%d tiles, first record at %d\n", l.Level, l.Width, l.Height, l.FirstRecordOffset)
	}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func main() {
	app := cli.NewApp()

	app.Name = "olympus"
	app.Usage = "Olympus VSI/ETS slide indexing utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"OLYMPUS_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "info",
			Usage:       "Print the tile pyramid of an ETS container",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				idx, err := ets.OpenIndex(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				printIndex(c.App.Writer, idx)

				return nil
			},
		},
		{
			Name:        "index",
			Usage:       "Index a VSI slide into the catalog",
			Description: "Selects the ETS container with the most tiles from the slide's stacks and catalogs its pyramid.",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				o, logger, err := newOlympus(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer logger.Sync()
				defer o.Close()

				slide, err := o.Index(context.Background(), c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				fmt.Fprintf(c.App.Writer, "container: %s\ndigest:  %s\n", slide.Container, slide.Digest)
				printIndex(c.App.Writer, slide.Index)

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Scan a directory tree and index every VSI slide",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				o, logger, err := newOlympus(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer logger.Sync()
				defer o.Close()

				slides, err := o.Scan(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				for _, s := range slides {
					fmt.Fprintf(c.App.Writer, "%s: %d levels from %s\n", s.Path, len(s.Index.Levels), s.Container)
				}

				return nil
			},
		},
		{
			Name:        "extract",
			Usage:       "Extract the raw payload of a single tile",
			Description: "The payload is written as stored in the container, it is not decoded.",
			ArgsUsage:   "FILE LEVEL COLUMN ROW OUTPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 5 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				var coords [3]uint32
				for i := range coords {
					v, err := parseUint32(c.Args().Get(i + 1))
					if err != nil {
						return cli.Exit(err, 1)
					}
					coords[i] = v
				}

				container, err := ets.Open(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer container.Close()

				b, err := container.ReadTile(coords[0], coords[1], coords[2])
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := os.WriteFile(c.Args().Get(4), b, 0o644); err != nil {
					return cli.Exit(err, 1)
				}
				fmt.Fprintf(c.App.Writer, "wrote %s\n", humanize.Bytes(uint64(len(b))))

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
