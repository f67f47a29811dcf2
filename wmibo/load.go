package wmibo

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// numericOptions are options handed to solvers that must at least parse as numbers.
var numericOptions = map[string]bool{
	"time_limit": true,
	"node_limit": true,
	"feas_tol":   true,
	"int_tol":    true,
}

// A LoadOption customizes Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	overrides map[string]string
	defaults  map[string]string
	logger    *slog.Logger
}

// WithOverrides sets options that take precedence over the opt lines of the file.
func WithOverrides(opts map[string]string) LoadOption {
	return func(c *loadConfig) { c.overrides = opts }
}

// WithDefaults sets options used when the file does not set them.
func WithDefaults(opts map[string]string) LoadOption {
	return func(c *loadConfig) { c.defaults = opts }
}

// WithLogger makes Load report warnings and a summary of the instance on l.
func WithLogger(l *slog.Logger) LoadOption {
	return func(c *loadConfig) { c.logger = l }
}

// Load reads a WMIBO v1.0 instance from r.
// The first format problem met, either while reading or during the final
// validation pass, is returned as a *FormatError and no instance is returned.
// Advisory problems are recorded in the Warnings of the instance.
func Load(r io.Reader, opts ...LoadOption) (*Instance, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	b := newBuilder()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	ln := 0
	for sc.Scan() {
		ln++
		if err := b.consume(sc.Text(), ln); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read instance: %w", err)
	}
	inst, err := b.finish()
	if err != nil {
		return nil, err
	}
	if err := applyOptions(inst, cfg.defaults, false); err != nil {
		return nil, err
	}
	if err := applyOptions(inst, cfg.overrides, true); err != nil {
		return nil, err
	}
	if err := validate(inst); err != nil {
		return nil, err
	}
	if cfg.logger != nil {
		for _, w := range inst.Warnings {
			cfg.logger.Warn("wmibo instance warning", "line", w.Line, "warning", w.Msg)
		}
		cfg.logger.Debug("wmibo instance loaded",
			"lines", ln,
			"bool", inst.Header.NbBool,
			"int", inst.Header.NbInt,
			"real", inst.Header.NbReal,
			"clauses", len(inst.Clauses),
			"constraints", len(inst.Constraints),
			"indicators", len(inst.Indicators),
			"query", inst.EffectiveQuery().String())
	}
	return inst, nil
}

// applyOptions merges opts into the options of inst.
// If override is false, options already set are kept.
func applyOptions(inst *Instance, opts map[string]string, override bool) error {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := inst.Options[k]; ok && !override {
			continue
		}
		val := parseOptionValue(opts[k], 0)
		if numericOptions[k] && !val.IsNumber {
			return formatErrorf(0, ErrSyntax, "option %s=%q is not a number", k, opts[k])
		}
		if inst.Options == nil {
			inst.Options = make(map[string]OptionValue)
		}
		inst.Options[k] = val
	}
	return nil
}

// builder accumulates directives into the sub-registries, one line at a time.
// Its lifetime is exactly one call to Load.
type builder struct {
	header      *Header
	tracker     blockTracker
	symbols     *symbolTable
	constraints *constraintRegistry
	indicators  *indicatorTable
	objective   objectiveAssembler
	queries     queryRegistry
	clauses     []Clause
	options     map[string]OptionValue
	warnings    []Warning
}

func newBuilder() *builder {
	return &builder{
		constraints: newConstraintRegistry(),
		indicators:  newIndicatorTable(),
		options:     make(map[string]OptionValue),
	}
}

func (b *builder) warnf(line int, format string, args ...any) {
	b.warnings = append(b.warnings, Warning{Line: line, Msg: fmt.Sprintf(format, args...)})
}

// consume processes raw line #ln.
func (b *builder) consume(raw string, ln int) error {
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return nil
	}
	if b.tracker.skipping() && tokens[0] != "begin" && tokens[0] != "end" {
		return nil
	}
	if tokens[0] == "p" && b.header != nil {
		return formatErrorf(ln, ErrDuplicateHeader, "header already given at line %d", b.header.Line)
	}
	d, err := parseDirective(tokens, ln)
	if err != nil {
		return err
	}
	if b.header == nil {
		h, ok := d.(headerDirective)
		if !ok {
			return formatErrorf(ln, ErrSyntax, "expected header \"p wmibo ...\" before %q", tokens[0])
		}
		b.header = &h.header
		b.symbols = newSymbolTable(b.header)
		return nil
	}
	switch d := d.(type) {
	case beginDirective:
		if err := b.tracker.begin(d); err != nil {
			return err
		}
		if d.block == blockUnknown {
			b.warnf(ln, "skipping content of unknown block %q", d.name)
		}
		return nil
	case endDirective:
		return b.tracker.end(d)
	}
	if err := b.tracker.admit(d); err != nil {
		return err
	}
	switch d := d.(type) {
	case varDirective:
		return b.symbols.declare(d.ref, d.domain, d.name, ln)
	case clauseDirective:
		b.clauses = append(b.clauses, d.clause)
	case linDirective:
		return b.constraints.insert(d.constr)
	case indDirective:
		return b.indicators.bind(d.ind)
	case objDirective:
		return b.objective.set(d.obj)
	case optDirective:
		if numericOptions[d.key] && !d.value.IsNumber {
			return formatErrorf(ln, ErrSyntax, "option %s expects a number, got %q", d.key, d.value.Raw)
		}
		if prev, ok := b.options[d.key]; ok {
			b.warnf(ln, "option %s overrides value %q set at line %d", d.key, prev.Raw, prev.Line)
		}
		b.options[d.key] = d.value
	case queryDirective:
		b.queries.add(d.query)
	default:
		panic("unexpected directive")
	}
	return nil
}

// finish checks end-of-input conditions and builds the instance.
func (b *builder) finish() (*Instance, error) {
	if err := b.tracker.close(); err != nil {
		return nil, err
	}
	if b.header == nil {
		return nil, formatErrorf(0, ErrSyntax, "missing header \"p wmibo ...\"")
	}
	inst := &Instance{
		Header:      *b.header,
		Clauses:     b.clauses,
		Constraints: b.constraints.constrs,
		Indicators:  b.indicators.inds,
		Objective:   b.objective.obj,
		Queries:     b.queries.queries,
		Options:     b.options,
	}
	for _, ref := range b.symbols.order {
		inst.Variables = append(inst.Variables, *b.symbols.vars[ref])
	}
	inst.index()
	b.checkCounters(inst)
	inst.Warnings = b.warnings
	return inst, nil
}

// checkCounters compares the optional header counters with the actual content.
func (b *builder) checkCounters(inst *Instance) {
	h := inst.Header
	if !h.HasCounters {
		return
	}
	if h.NbClauses != len(inst.Clauses) {
		b.warnf(h.Line, "header announces %d clauses, found %d", h.NbClauses, len(inst.Clauses))
	}
	if h.NbLinear != len(inst.Constraints) {
		b.warnf(h.Line, "header announces %d linear constraints, found %d", h.NbLinear, len(inst.Constraints))
	}
	if h.NbIndicator != len(inst.Indicators) {
		b.warnf(h.Line, "header announces %d indicators, found %d", h.NbIndicator, len(inst.Indicators))
	}
}
