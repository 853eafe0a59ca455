// Command cachedump inspects a 317 cache: archive checksums, decoded
// definitions and the map index.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/oldscape/server/internal/cache"
	"github.com/oldscape/server/internal/data"
)

func main() {
	app := &cli.App{
		Name:  "cachedump",
		Usage: "Inspect the contents of a 317 game cache",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cache", Value: "data/cache", Usage: "Cache directory holding main_file_cache.*", EnvVars: []string{"OLDSCAPE_CACHE"}},
		},
		Commands: []*cli.Command{
			{
				Name:   "crc",
				Usage:  "Print the CRC table of the archive index",
				Action: crcAction,
			},
			{
				Name:   "stats",
				Usage:  "Print file and definition counts",
				Action: statsAction,
			},
			definitionCommand("items", "List item definitions", func(d *data.Definitions) []entry {
				return entries(d.Items.All(), func(def *data.ItemDefinition) (int, string) { return def.ID, def.Name })
			}),
			definitionCommand("objects", "List object definitions", func(d *data.Definitions) []entry {
				return entries(d.Objects.All(), func(def *data.ObjectDefinition) (int, string) { return def.ID, def.Name })
			}),
			definitionCommand("npcs", "List npc definitions", func(d *data.Definitions) []entry {
				return entries(d.Npcs.All(), func(def *data.NpcDefinition) (int, string) { return def.ID, def.Name })
			}),
			{
				Name:  "maps",
				Usage: "List the regions of the map index",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yaml", Usage: "Print as YAML instead of a table"},
				},
				Action: mapsAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "cachedump: %v\n", err)
		os.Exit(1)
	}
}

// withCache opens the cache named by --cache for the length of fn.
func withCache(c *cli.Context, fn func(*cache.Store) error) error {
	store, err := cache.Open(c.String("cache"))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func withDefinitions(c *cli.Context, fn func(*cache.Store, *data.Definitions) error) error {
	return withCache(c, func(store *cache.Store) error {
		defs, err := data.Load(store)
		if err != nil {
			return err
		}
		return fn(store, defs)
	})
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)
	return tw
}

func crcAction(c *cli.Context) error {
	return withCache(c, func(store *cache.Store) error {
		table, err := store.CRCTable()
		if err != nil {
			return err
		}
		tw := newTable(c.App.Writer, "Archive", "CRC")
		for i, crc := range table.CRCs {
			tw.Append([]string{strconv.Itoa(i), fmt.Sprintf("%08x", crc)})
		}
		tw.SetFooter([]string{"checksum", fmt.Sprintf("%08x", uint32(table.Checksum))})
		tw.Render()
		return nil
	})
}

var indexNames = [cache.IndexCount]string{"archives", "models", "animations", "music", "maps"}

func statsAction(c *cli.Context) error {
	return withDefinitions(c, func(store *cache.Store, defs *data.Definitions) error {
		tw := newTable(c.App.Writer, "Content", "Count")
		for i, name := range indexNames {
			n, err := store.FileCount(i)
			if err != nil {
				return err
			}
			tw.Append([]string{fmt.Sprintf("index %d (%s)", i, name), strconv.Itoa(n)})
		}
		tw.Append([]string{"item definitions", strconv.Itoa(defs.Items.Count())})
		tw.Append([]string{"object definitions", strconv.Itoa(defs.Objects.Count())})
		tw.Append([]string{"npc definitions", strconv.Itoa(defs.Npcs.Count())})
		tw.Append([]string{"map regions", strconv.Itoa(defs.Maps.Count())})
		tw.Render()
		return nil
	})
}

type entry struct {
	id   int
	name string
	def  any
}

func entries[T any](all []*T, describe func(*T) (int, string)) []entry {
	out := make([]entry, 0, len(all))
	for _, def := range all {
		if def == nil {
			continue
		}
		id, name := describe(def)
		out = append(out, entry{id: id, name: name, def: def})
	}
	return out
}

// definitionCommand lists one definition table, or prints a single
// definition as YAML with --id.
func definitionCommand(name, usage string, list func(*data.Definitions) []entry) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "id", Value: -1, Usage: "Print one definition in full"},
			&cli.BoolFlag{Name: "named", Usage: "Skip definitions without a name"},
		},
		Action: func(c *cli.Context) error {
			return withDefinitions(c, func(_ *cache.Store, defs *data.Definitions) error {
				all := list(defs)
				if id := c.Int("id"); id >= 0 {
					for _, e := range all {
						if e.id == id {
							return yaml.NewEncoder(c.App.Writer).Encode(e.def)
						}
					}
					return fmt.Errorf("no %s definition %d", name, id)
				}

				tw := newTable(c.App.Writer, "ID", "Name")
				for _, e := range all {
					if c.Bool("named") && (e.name == "" || e.name == "null") {
						continue
					}
					tw.Append([]string{strconv.Itoa(e.id), e.name})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func mapsAction(c *cli.Context) error {
	return withDefinitions(c, func(_ *cache.Store, defs *data.Definitions) error {
		regions := defs.Maps.Regions()
		if c.Bool("yaml") {
			return yaml.NewEncoder(c.App.Writer).Encode(regions)
		}
		tw := newTable(c.App.Writer, "Region", "Base X", "Base Y", "Terrain", "Objects", "Preload")
		for _, m := range regions {
			tw.Append([]string{
				strconv.Itoa(m.ID),
				strconv.Itoa(m.X),
				strconv.Itoa(m.Y),
				strconv.Itoa(m.TerrainFile),
				strconv.Itoa(m.ObjectFile),
				strconv.FormatBool(m.Preload),
			})
		}
		tw.Render()
		return nil
	})
}
