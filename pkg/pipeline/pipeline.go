// Package pipeline reads collation sources by name: TEI files from disk and
// VMR indices over HTTP.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/collatrix/pkg/collation"
	"github.com/coolbeans/collatrix/pkg/logger"
	"github.com/coolbeans/collatrix/pkg/render"
	"github.com/coolbeans/collatrix/pkg/tei"
	"github.com/coolbeans/collatrix/pkg/vmr"
)

// DefaultParallelism is the number of sources a batch reads at once.
const DefaultParallelism = 4

// ErrNoVMRClient is returned for a VMR index when no client is configured.
var ErrNoVMRClient = errors.New("no VMR client configured")

// Output is the result of reading one source.
type Output struct {
	Source  string
	Grammar string
	Result  *collation.Result
	Elapsed time.Duration
}

// Tables returns the renderable tables of the output.
func (output *Output) Tables() render.Tables {
	return render.FromResult(output.Source, output.Grammar, output.Result)
}

// Pipeline dispatches sources to the matching grammar.
type Pipeline struct {
	reader *collation.Reader
	client *vmr.Client
	logger *log.Logger
}

// New creates a Pipeline. client may be nil when only TEI files are read.
func New(options collation.Options, client *vmr.Client, consoleLogger *log.Logger) (*Pipeline, error) {
	if consoleLogger == nil {
		consoleLogger = logger.Discard()
	}
	collationReader, err := collation.NewReader(options, consoleLogger)
	if err != nil {
		return nil, err
	}
	return &Pipeline{reader: collationReader, client: client, logger: consoleLogger}, nil
}

// IsFileSource reports whether a source names a TEI XML file rather than a
// VMR index.
func IsFileSource(source string) bool {
	return strings.EqualFold(filepath.Ext(source), ".xml")
}

// Run reads one source. Names ending in .xml are TEI files; anything else
// is a VMR index such as "Acts.1.1-5".
func (pipeline *Pipeline) Run(ctx context.Context, source string) (*Output, error) {
	startTime := time.Now()

	var result *collation.Result
	var grammar string
	var err error
	if IsFileSource(source) {
		grammar = "tei"
		result, err = pipeline.readFile(source)
	} else {
		grammar = "vmr"
		if pipeline.client == nil {
			return nil, fmt.Errorf("%w for index %s", ErrNoVMRClient, source)
		}
		pipeline.logger.Info("requesting VMR apparatus", "index", source)
		result, err = pipeline.client.Read(ctx, pipeline.reader, source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	output := &Output{Source: source, Grammar: grammar, Result: result, Elapsed: time.Since(startTime)}
	primaryRows, primaryCols := result.Primary.Dims()
	pipeline.logger.Info("read collation", "source", source, "units", result.UnitCount,
		"readings", primaryRows, "witnesses", primaryCols, "elapsed", output.Elapsed)
	return output, nil
}

func (pipeline *Pipeline) readFile(path string) (*collation.Result, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer inputFile.Close()

	return pipeline.reader.Read(tei.NewAdapter(pipeline.reader.Options()), inputFile)
}

// RunBatch reads several sources concurrently, at most parallelism at a
// time. Outputs are returned in source order. The first failure cancels
// the remaining reads.
func (pipeline *Pipeline) RunBatch(ctx context.Context, sources []string, parallelism int) ([]*Output, error) {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	outputs := make([]*Output, len(sources))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism)

	for index, source := range sources {
		index, source := index, source
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			output, err := pipeline.Run(groupCtx, source)
			if err != nil {
				return err
			}
			outputs[index] = output
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
