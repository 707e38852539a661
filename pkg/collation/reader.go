// Package collation turns variation units into a reading-by-witness
// coefficient matrix and postprocesses it for factorization.
//
// A grammar Adapter parses a source document into VariationUnits. The
// Reader then parses every unit, assembles the raw matrix, splits out
// fragmentary witnesses, prunes orphaned readings and optionally reweights
// the result by TF-IDF.
package collation

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/coolbeans/collatrix/pkg/logger"
	"github.com/coolbeans/collatrix/pkg/reading"
	"github.com/coolbeans/collatrix/pkg/witness"
)

// DefaultMinExtantProportion is the default proportion of variation units at
// which a witness must be extant to enter the primary matrix.
const DefaultMinExtantProportion = 0.95

// Options configures how a collation is read into a matrix.
type Options struct {
	// MinExtantProportion is the proportion of variation units at which a
	// witness needs an extant reading to be included in the primary matrix.
	MinExtantProportion float64

	// UseTFIDF enables TF-IDF reweighting of both matrices.
	UseTFIDF bool

	// AmbiguousReadingPrefix is the prefix of ambiguous reading numbers in
	// TEI input (e.g. "W" or "zw-").
	AmbiguousReadingPrefix string

	// SubwitnessSuffixes distinguish first hands, correctors, alternate
	// texts and multiple attestations from their base witnesses.
	SubwitnessSuffixes []string

	// TrivialReadingTypes are reading types that get no row of their own.
	TrivialReadingTypes []string

	// IgnoredReadingTypes are reading types excluded from the matrix.
	IgnoredReadingTypes []string
}

// DefaultOptions returns Options with the default extant proportion.
func DefaultOptions() Options {
	return Options{
		MinExtantProportion: DefaultMinExtantProportion,
	}
}

// Validate checks the options before any parsing begins.
func (options Options) Validate() error {
	proportion := options.MinExtantProportion
	if math.IsNaN(proportion) || proportion < 0 || proportion > 1 {
		return fmt.Errorf("%w: got %v", ErrThresholdOutOfRange, proportion)
	}
	return nil
}

// Policy returns the reading type policy described by the options.
func (options Options) Policy() reading.Policy {
	return reading.NewPolicy(options.TrivialReadingTypes, options.IgnoredReadingTypes)
}

// Adapter parses one source grammar into variation units.
type Adapter interface {
	// Name identifies the grammar in logs.
	Name() string

	// ParseDocument reads a whole document. Structural problems are
	// reported as ErrMalformedDocument.
	ParseDocument(source io.Reader) ([]VariationUnit, error)

	// Normalizer reduces the grammar's witness tokens to base witnesses.
	Normalizer() witness.Normalizer
}

// Result holds the matrices produced by one Read.
type Result struct {
	// Raw is the assembled matrix before postprocessing.
	Raw *Matrix

	// Primary holds the witnesses that meet the extant threshold.
	Primary *Matrix

	// Fragmentary holds the remaining witnesses over the same readings.
	Fragmentary *Matrix

	// Weights is the fitted TF-IDF transform, or nil if none was applied.
	Weights *TFIDF

	// UnitCount is the number of variation units in the document.
	UnitCount int

	// ExtantThreshold is the minimum extant reading count used for the split.
	ExtantThreshold int
}

// Reader reads collation documents into matrices. It holds no per-read
// state and is safe for concurrent use.
type Reader struct {
	options Options
	policy  reading.Policy
	logger  *log.Logger
}

// NewReader validates the options and creates a Reader. A nil logger
// discards all output.
func NewReader(options Options, consoleLogger *log.Logger) (*Reader, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if consoleLogger == nil {
		consoleLogger = logger.Discard()
	}
	return &Reader{
		options: options,
		policy:  options.Policy(),
		logger:  consoleLogger,
	}, nil
}

// Options returns the reader's options.
func (collationReader *Reader) Options() Options {
	return collationReader.options
}

// Read parses a document with the given adapter and returns its primary and
// fragmentary matrices. Every call builds fresh matrices.
func (collationReader *Reader) Read(adapter Adapter, source io.Reader) (*Result, error) {
	readLogger := collationReader.logger.With("grammar", adapter.Name())

	readLogger.Debug("parsing variation units")
	startTime := time.Now()

	units, err := adapter.ParseDocument(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s document: %w", adapter.Name(), err)
	}

	normalizer := adapter.Normalizer()
	supports := make([]UnitSupport, 0, len(units))
	for _, unit := range units {
		unitStart := time.Now()
		support, err := ParseUnit(unit, collationReader.policy, normalizer)
		if err != nil {
			return nil, err
		}
		for _, rawLabel := range support.Unresolved {
			readLogger.Debug("dropping ambiguous reading with no known denotation", "unit", unit.ID, "label", rawLabel)
		}
		readLogger.Debug("parsed variation unit", "unit", unit.ID, "readings", len(support.Readings), "witnesses", len(support.Witnesses), "elapsed", time.Since(unitStart))
		supports = append(supports, support)
	}

	raw := Assemble(supports)
	rawRows, rawCols := raw.Dims()
	readLogger.Debug("assembled raw collation matrix", "units", len(units), "readings", rawRows, "witnesses", rawCols, "elapsed", time.Since(startTime))

	extantThreshold := ExtantThreshold(collationReader.options.MinExtantProportion, len(units))
	readLogger.Debug("filtering witnesses by extant readings", "threshold", extantThreshold, "tfidf", collationReader.options.UseTFIDF)
	postprocessStart := time.Now()

	primary, fragmentary, weights, err := Postprocess(raw, extantThreshold, collationReader.options.UseTFIDF)
	if err != nil {
		return nil, err
	}

	primaryRows, primaryCols := primary.Dims()
	_, fragmentaryCols := fragmentary.Dims()
	readLogger.Debug("postprocessed collation matrix", "readings", primaryRows, "primary_witnesses", primaryCols, "fragmentary_witnesses", fragmentaryCols, "elapsed", time.Since(postprocessStart))

	return &Result{
		Raw:             raw,
		Primary:         primary,
		Fragmentary:     fragmentary,
		Weights:         weights,
		UnitCount:       len(units),
		ExtantThreshold: extantThreshold,
	}, nil
}
