package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redpanda-data/benthos/v4/public/service"

	"github.com/twinfer/structdoc/pkg/structdoc"
)

// StructdocProcessor is a Benthos processor that renders layout
// documentation for the entries carried by messages.
type StructdocProcessor struct {
	config    StructdocConfig
	renderer  *structdoc.Renderer
	logger    *service.Logger
	mRendered *service.MetricCounter
	mErrors   *service.MetricCounter
}

// StructdocConfig contains configuration parameters for the structdoc processor.
type StructdocConfig struct {
	EntryPath   string        `json:"entry_path" yaml:"entry_path"`
	ImportPaths []string      `json:"import_paths" yaml:"import_paths"`
	Lang        string        `json:"lang" yaml:"lang"`
	CacheTTL    time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

func init() {
	err := service.RegisterProcessor(
		"structdoc",
		structdocProcessorConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.Processor, error) {
			return newStructdocProcessorFromConfig(conf, mgr)
		},
	)
	if err != nil {
		panic(err)
	}
}

func main() {
	service.RunCLI(context.Background())
}

// structdocProcessorConfig returns a config spec for a structdoc processor.
func structdocProcessorConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Renders binary layout documentation trees from entries.").
		Description("Each message holds an entry (YAML or JSON) naming a type and its definitions. The processor replaces the message with the JSON documentation tree of that type. With entry_path set, the message content is ignored and the entry is read from that file instead.").
		Field(service.NewStringField("entry_path").
			Description("Path to an entry file rendered for every message. Leave empty to read the entry from the message.").
			Example("./docs/header.entry.yaml").
			Default("")).
		Field(service.NewStringListField("import_paths").
			Description("Directories searched for schema files referenced by relative path.").
			Default([]string{})).
		Field(service.NewStringField("lang").
			Description("Language for comments and labels when an entry names none.").
			Default("en")).
		Field(service.NewDurationField("cache_ttl").
			Description("How long loaded schema files are kept before being read again.").
			Default("5m")).
		Version("0.1.0")
}

// newStructdocProcessorFromConfig creates a new StructdocProcessor from a parsed config.
func newStructdocProcessorFromConfig(conf *service.ParsedConfig, mgr *service.Resources) (*StructdocProcessor, error) {
	entryPath, err := conf.FieldString("entry_path")
	if err != nil {
		return nil, err
	}
	importPaths, err := conf.FieldStringList("import_paths")
	if err != nil {
		return nil, err
	}
	lang, err := conf.FieldString("lang")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := conf.FieldDuration("cache_ttl")
	if err != nil {
		return nil, err
	}

	config := StructdocConfig{
		EntryPath:   entryPath,
		ImportPaths: importPaths,
		Lang:        lang,
		CacheTTL:    cacheTTL,
	}

	if entryPath != "" {
		if _, err := os.Stat(entryPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("entry file not found at path: %s", entryPath)
		}
	}

	metrics := mgr.Metrics()
	return &StructdocProcessor{
		config: config,
		renderer: structdoc.NewRenderer(
			structdoc.WithCaching(cacheTTL),
			structdoc.WithImportPaths(importPaths...),
			structdoc.WithLanguage(lang),
		),
		logger:    mgr.Logger(),
		mRendered: metrics.NewCounter("structdoc_rendered_messages"),
		mErrors:   metrics.NewCounter("structdoc_render_errors"),
	}, nil
}

// Process renders the entry of a message into a documentation tree.
func (s *StructdocProcessor) Process(ctx context.Context, msg *service.Message) (service.MessageBatch, error) {
	entry, err := s.entry(msg)
	if err != nil {
		return s.fail(msg, "failed to read entry", err)
	}

	s.logger.Debugf("Rendering entry type %s", entry.EntryType)
	node, err := s.renderer.Render(ctx, entry)
	if err != nil {
		return s.fail(msg, "failed to render entry", err)
	}

	data, err := json.Marshal(node)
	if err != nil {
		return s.fail(msg, "failed to encode documentation tree", err)
	}
	s.mRendered.Incr(1)

	newMsg := service.NewMessage(data)
	_ = msg.MetaWalk(func(key, value string) error {
		newMsg.MetaSet(key, value)
		return nil
	})
	newMsg.MetaSet("structdoc_entry_type", entry.EntryType)
	newMsg.MetaSet("structdoc_size", strconv.Itoa(node.Size))

	return service.MessageBatch{newMsg}, nil
}

func (s *StructdocProcessor) entry(msg *service.Message) (*structdoc.Entry, error) {
	if s.config.EntryPath != "" {
		return structdoc.ReadEntry(s.config.EntryPath)
	}
	data, err := msg.AsBytes()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty message")
	}
	return structdoc.DecodeEntry(data)
}

func (s *StructdocProcessor) fail(msg *service.Message, what string, err error) (service.MessageBatch, error) {
	s.logger.Errorf("%s: %v", what, err)
	s.mErrors.Incr(1)
	msg.SetError(fmt.Errorf("%s: %w", what, err))
	return service.MessageBatch{msg}, nil
}

// Close the processor resources
func (s *StructdocProcessor) Close(ctx context.Context) error {
	s.logger.Debug("Closing structdoc processor and clearing schema cache")
	s.renderer.ClearCache()
	return nil
}
