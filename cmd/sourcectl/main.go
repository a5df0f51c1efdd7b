package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/core"
	"github.com/saturnines/nexus-source/pkg/logging"
	"github.com/saturnines/nexus-source/pkg/pagination"
	"github.com/saturnines/nexus-source/pkg/settings"
	"github.com/saturnines/nexus-source/pkg/signing"
	"github.com/saturnines/nexus-source/pkg/source"
	"github.com/saturnines/nexus-source/pkg/transport/graphql"
	"github.com/saturnines/nexus-source/pkg/transport/rest"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// Flags are built per command; urfave/cli flags keep parse state.
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "plugin.yaml",
		Usage:   "plugin config `FILE`",
	}
}

func envFileFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "env-file",
		Value: cli.NewStringSlice(".env"),
		Usage: "dotenv `FILE` used to expand ${VARS} in the config",
	}
}

func endpointFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "endpoint",
		Usage: "use the named endpoint instead of the selected one",
	}
}

func varFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "var",
		Usage: "query variable as `NAME=VALUE`; JSON values are decoded",
	}
}

func scriptFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "script",
		Required: true,
		Usage:    "plugin script `FILE`",
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "sourcectl",
		Usage: "develop, sign and exercise a content source plugin",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "dev", Usage: "human readable logs"},
		},
		Commands: []*cli.Command{
			initCommand(),
			keygenCommand(),
			signCommand(),
			verifyCommand(),
			queryCommand(),
			persistedCommand(),
			browseCommand(),
		},
		HideHelpCommand: true,
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "write a config skeleton with a fresh plugin id",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "name", Required: true, Usage: "display name"},
			&cli.StringFlag{Name: "url", Required: true, Usage: "platform base `URL`"},
			&cli.BoolFlag{Name: "force", Usage: "overwrite an existing config"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("config")
			if _, err := os.Stat(path); err == nil && !c.Bool("force") {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}

			p := &config.Plugin{
				Manifest: config.Manifest{
					ID:          uuid.NewString(),
					Name:        c.String("name"),
					PlatformURL: c.String("url"),
				},
				Endpoints: config.Endpoints{URLs: map[string]string{"main": c.String("url")}},
			}
			(&config.PluginDefaults{}).SetDefaults(p)
			if err := config.Save(path, p); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %s (id %s)\n", path, p.Manifest.ID)
			return nil
		},
	}
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "generate an RSA key pair for script signing",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: ".", Usage: "output `DIR`"},
			&cli.IntFlag{Name: "bits", Value: signing.DefaultKeyBits},
		},
		Action: func(c *cli.Context) error {
			kp, err := signing.GenerateKey(c.Int("bits"))
			if err != nil {
				return err
			}
			dir := c.String("out")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			priv := filepath.Join(dir, "signing_key.pem")
			if err := os.WriteFile(priv, kp.PrivateKeyPEM, 0o600); err != nil {
				return err
			}
			pub := filepath.Join(dir, "signing_key.pub.pem")
			if err := os.WriteFile(pub, kp.PublicKeyPEM, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %s and %s\n", priv, pub)
			return nil
		},
	}
}

func signCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "sign the script and store the signature in the config",
		Flags: []cli.Flag{
			configFlag(),
			envFileFlag(),
			scriptFlag(),
			&cli.StringFlag{Name: "key", Value: "signing_key.pem", Usage: "PEM private key `FILE`"},
		},
		Action: func(c *cli.Context) error {
			p, err := loadConfig(c)
			if err != nil {
				return err
			}
			script, err := os.ReadFile(c.String("script"))
			if err != nil {
				return err
			}
			key, err := os.ReadFile(c.String("key"))
			if err != nil {
				return err
			}

			sig, err := signing.Sign(script, key)
			if err != nil {
				return err
			}
			signing.Apply(&p.Manifest, sig)
			if err := config.Save(c.String("config"), p); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "signed", c.String("script"))
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check the script against the signature in the config",
		Flags: []cli.Flag{configFlag(), envFileFlag(), scriptFlag()},
		Action: func(c *cli.Context) error {
			p, err := loadConfig(c)
			if err != nil {
				return err
			}
			script, err := os.ReadFile(c.String("script"))
			if err != nil {
				return err
			}
			if err := signing.VerifyManifest(p.Manifest, script); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "signature ok")
			return nil
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "run a GraphQL query against the selected endpoint",
		ArgsUsage: "QUERY | @FILE",
		Flags:     []cli.Flag{configFlag(), envFileFlag(), endpointFlag(), varFlag()},
		Action: func(c *cli.Context) error {
			doc := c.Args().First()
			if strings.HasPrefix(doc, "@") {
				raw, err := os.ReadFile(doc[1:])
				if err != nil {
					return err
				}
				doc = string(raw)
			}
			vars, err := parseVars(c.StringSlice("var"))
			if err != nil {
				return err
			}
			gql, err := graphqlClient(c)
			if err != nil {
				return err
			}
			data, err := gql.Query(c.Context, graphql.Query{Query: doc, Variables: vars})
			if err != nil {
				return err
			}
			return printJSON(c, data)
		},
	}
}

func persistedCommand() *cli.Command {
	return &cli.Command{
		Name:  "persisted",
		Usage: "run a persisted GraphQL query by operation name and hash",
		Flags: []cli.Flag{
			configFlag(), envFileFlag(), endpointFlag(), varFlag(),
			&cli.StringFlag{Name: "operation", Required: true},
			&cli.StringFlag{Name: "hash", Required: true, Usage: "sha256 of the query document"},
			&cli.IntFlag{Name: "version", Value: 1},
		},
		Action: func(c *cli.Context) error {
			vars, err := parseVars(c.StringSlice("var"))
			if err != nil {
				return err
			}
			gql, err := graphqlClient(c)
			if err != nil {
				return err
			}
			data, err := gql.Persisted(c.Context, graphql.PersistedQuery{
				OperationName: c.String("operation"),
				SHA256Hash:    c.String("hash"),
				Version:       c.Int("version"),
				Variables:     vars,
			})
			if err != nil {
				return err
			}
			return printJSON(c, data)
		},
	}
}

func browseCommand() *cli.Command {
	flags := func(extra ...cli.Flag) []cli.Flag {
		return append([]cli.Flag{
			configFlag(), envFileFlag(), endpointFlag(),
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "stop after `N` items"},
		}, extra...)
	}
	return &cli.Command{
		Name:  "browse",
		Usage: "call the source the way the host does and print the mapped results",
		Subcommands: []*cli.Command{
			{
				Name:  "home",
				Flags: flags(),
				Action: withSource(func(c *cli.Context, s *source.Platform) error {
					p, err := s.GetHome(c.Context)
					return printPager(c, p, err)
				}),
			},
			{
				Name:      "search",
				ArgsUsage: "QUERY",
				Flags:     flags(&cli.BoolFlag{Name: "channels"}),
				Action: withSource(func(c *cli.Context, s *source.Platform) error {
					if c.Bool("channels") {
						p, err := s.SearchChannels(c.Context, c.Args().First())
						return printPager(c, p, err)
					}
					p, err := s.Search(c.Context, c.Args().First())
					return printPager(c, p, err)
				}),
			},
			{
				Name:      "channel",
				ArgsUsage: "URL",
				Flags:     flags(&cli.BoolFlag{Name: "contents"}),
				Action: withSource(func(c *cli.Context, s *source.Platform) error {
					if c.Bool("contents") {
						p, err := s.GetChannelContents(c.Context, c.Args().First())
						return printPager(c, p, err)
					}
					ch, err := s.GetChannel(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					return printJSON(c, ch)
				}),
			},
			{
				Name:      "video",
				ArgsUsage: "URL",
				Flags:     flags(&cli.BoolFlag{Name: "comments"}),
				Action: withSource(func(c *cli.Context, s *source.Platform) error {
					if c.Bool("comments") {
						p, err := s.GetComments(c.Context, c.Args().First())
						return printPager(c, p, err)
					}
					d, err := s.GetContentDetails(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					return printJSON(c, d)
				}),
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Plugin, error) {
	return config.DefaultLoader(c.StringSlice("env-file")...).Load(c.String("config"))
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	return logging.New(c.String("log-level"), c.Bool("dev"))
}

// graphqlClient wires a GraphQL client from the config the same way the source does
func graphqlClient(c *cli.Context) (*graphql.Client, error) {
	p, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}

	resolver := settings.NewPluginResolver(p)
	if name := c.String("endpoint"); name != "" {
		if err := resolver.Select(name); err != nil {
			return nil, err
		}
	}

	t, err := rest.NewFromConfig(p, nil, rest.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	retries, delay := p.RetryPolicy()
	api := core.NewClient(
		core.NewExecutor(t, core.WithDefaultHeaders(p.DefaultHeaders()), core.WithLogger(logger)),
		core.WithBaseURL(resolver),
		core.WithRetryPolicy(retries, delay),
		core.WithAuthByDefault(p.Auth != nil),
	)
	return graphql.NewClient(api, graphql.WithEndpoint(p.GraphQL.Path), graphql.WithLogger(logger)), nil
}

func withSource(fn func(*cli.Context, *source.Platform) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		p, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger, err := newLogger(c)
		if err != nil {
			return err
		}
		s := source.New(source.WithLogger(logger))
		if err := s.Enable(c.Context, p); err != nil {
			return err
		}
		defer s.Disable()
		if name := c.String("endpoint"); name != "" {
			if err := s.SelectEndpoint(name); err != nil {
				return err
			}
		}
		return fn(c, s)
	}
}

func printPager[T any](c *cli.Context, p pagination.Pager[T], err error) error {
	if err != nil {
		return err
	}
	items, err := pagination.Collect(c.Context, p, c.Int("limit"))
	if err != nil {
		return err
	}
	return printJSON(c, items)
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseVars turns NAME=VALUE pairs into variables. VALUE is decoded as JSON when it parses.
func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q, want NAME=VALUE", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			decoded = value
		}
		vars[name] = decoded
	}
	return vars, nil
}
