package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/chunkflow/internal/logging"
	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
	"github.com/vnykmshr/chunkflow/pkg/stage"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

const module = "pipeline"

// Result represents the outcome of one pipeline run.
type Result struct {
	// RunID identifies the run in logs and store keys.
	RunID string

	// Error joins the errors of the stages that failed first. Stages that
	// only stopped because a neighbour failed are left out.
	Error error

	// Duration is the total execution time
	Duration time.Duration

	// StageResults contains one entry per chain element, in chain order
	StageResults []StageResult

	StartTime time.Time
	EndTime   time.Time
}

// StageResult represents the result of a single stage.
type StageResult struct {
	// StageID is the chain identifier, Name the registry key.
	StageID string
	Name    string

	Stats    stage.Stats
	Error    error
	Duration time.Duration

	StartTime time.Time
	EndTime   time.Time
}

// Hooks are lifecycle callbacks. Stage hooks run on the stage goroutine.
type Hooks struct {
	// OnStageStart is called when a stage starts running.
	OnStageStart func(stageID string)

	// OnStageComplete is called when a stage returns.
	OnStageComplete func(result StageResult)

	// OnPipelineComplete is called once every stage has returned.
	OnPipelineComplete func(result Result)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Every stage gets a child named after its id.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithMetrics sets the metrics registry. A nil registry disables metrics.
func WithMetrics(m *metrics.Registry) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithRegistry replaces the default stage registry.
func WithRegistry(r *Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithStores sets the chunk store backend of every stage.
func WithStores(f chunk.StoreFactory) Option {
	return func(p *Pipeline) { p.stores = f }
}

// WithRedis keeps chunks in Redis under "<prefix>:<run id>".
func WithRedis(client redis.UniversalClient, prefix string, ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.stores = chunk.RedisStores(chunk.RedisConfig{
			Client:    client,
			KeyPrefix: prefix + ":" + p.runID,
			TTL:       ttl,
		})
	}
}

// WithHooks sets the lifecycle callbacks.
func WithHooks(h Hooks) Option {
	return func(p *Pipeline) { p.hooks = h }
}

type element struct {
	ref   config.StageRef
	stage stage.Stage
}

// Pipeline is one assembled chain. It runs at most once; stores and queues
// are never reused across runs.
type Pipeline struct {
	runID      string
	descriptor *config.Descriptor
	registry   *Registry
	logger     *zap.Logger
	metrics    *metrics.Registry
	stores     chunk.StoreFactory
	hooks      Hooks

	mu        sync.Mutex
	elements  []element
	assembled bool
	ran       bool
}

// New parses the chain descriptor at path.
func New(path string, opts ...Option) (*Pipeline, error) {
	if path == "" {
		return nil, cferrors.NewOperationError(cferrors.KindInvalidArgument, module, "New",
			errors.New("descriptor path cannot be empty"))
	}
	d, err := config.LoadDescriptor(path)
	if err != nil {
		return nil, err
	}
	return NewFromDescriptor(d, opts...), nil
}

// NewFromDescriptor creates a pipeline from an already parsed descriptor.
func NewFromDescriptor(d *config.Descriptor, opts ...Option) *Pipeline {
	p := &Pipeline{
		runID:      uuid.NewString(),
		descriptor: d,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrNop(p.logger).With(zap.String("run", p.runID))
	if p.registry == nil {
		p.registry = DefaultRegistry()
	}
	if p.stores == nil {
		p.stores = chunk.MemoryStores
	}
	return p
}

// RunID returns the identifier of this pipeline's run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Assemble builds and connects every stage, then opens the input and the
// output. It starts no goroutine; on failure nothing is left open.
func (p *Pipeline) Assemble(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assemble(ctx)
}

func (p *Pipeline) assemble(ctx context.Context) error {
	if p.assembled {
		return cferrors.NewOperationError(cferrors.KindPipelineConstruction, module, "Assemble",
			errors.New("already assembled"))
	}
	if err := ctx.Err(); err != nil {
		return cferrors.NewOperationError(cferrors.KindSynchronization, module, "Assemble", err)
	}

	if p.descriptor == nil || len(p.descriptor.Stages) < 2 {
		return cferrors.NewOperationError(cferrors.KindPipelineConstruction, module, "Assemble",
			errors.New("a chain needs a source and a sink"))
	}

	refs := p.descriptor.Stages
	elements := make([]element, 0, len(refs))
	for _, ref := range refs {
		s, err := p.build(ref)
		if err != nil {
			return err
		}
		elements = append(elements, element{ref: ref, stage: s})
	}

	source, ok := elements[0].stage.(stage.Source)
	if !ok {
		return constructionError(elements[0].ref, "Assemble", fmt.Errorf("%s is not a source", elements[0].ref.Name))
	}
	last := elements[len(elements)-1]
	sink, ok := last.stage.(stage.Sink)
	if !ok {
		return constructionError(last.ref, "Assemble", fmt.Errorf("%s is not a sink", last.ref.Name))
	}

	for i := 1; i < len(elements); i++ {
		producer, ok := elements[i-1].stage.(stage.Producer)
		if !ok {
			return constructionError(elements[i-1].ref, "Assemble", fmt.Errorf("%s has no output", elements[i-1].ref.Name))
		}
		consumer, ok := elements[i].stage.(stage.Consumer)
		if !ok {
			return constructionError(elements[i].ref, "Assemble", fmt.Errorf("%s takes no input", elements[i].ref.Name))
		}
		if err := consumer.SetProducer(producer); err != nil {
			return err
		}
	}

	in, err := os.Open(p.descriptor.Input)
	if err != nil {
		return cferrors.NewOperationError(cferrors.KindInvalidInputStream, elements[0].ref.ID, "Open", err)
	}
	out, err := os.Create(p.descriptor.Output)
	if err != nil {
		in.Close()
		return cferrors.NewOperationError(cferrors.KindInvalidOutputStream, last.ref.ID, "Create", err)
	}
	source.SetInput(in)
	sink.SetOutput(out)

	p.elements = elements
	p.assembled = true
	p.logger.Debug("pipeline assembled",
		zap.Int("stages", len(elements)),
		zap.String("input", p.descriptor.Input),
		zap.String("output", p.descriptor.Output),
	)
	return nil
}

// build instantiates one stage and applies its configuration. Config
// errors keep their kind; anything else the factory reports is a
// construction failure.
func (p *Pipeline) build(ref config.StageRef) (stage.Stage, error) {
	factory, ok := p.registry.Lookup(ref.Name)
	if !ok {
		return nil, constructionError(ref, "Lookup", fmt.Errorf("unknown stage %q", ref.Name))
	}

	params, err := config.LoadParams(ref.ConfigPath, ref.ID)
	if err != nil {
		return nil, err
	}

	s, err := factory(stage.Deps{
		ID:      ref.ID,
		Logger:  p.logger.Named(ref.ID),
		Metrics: p.metrics,
		Stores:  p.stores,
	}, params)
	if err != nil {
		switch cferrors.KindOf(err) {
		case cferrors.KindConfigRead, cferrors.KindConfigGrammar, cferrors.KindConfigSemantic,
			cferrors.KindPipelineConstruction:
			return nil, err
		}
		return nil, constructionError(ref, "New", err)
	}
	return s, nil
}

func constructionError(ref config.StageRef, op string, err error) error {
	return cferrors.NewOperationError(cferrors.KindPipelineConstruction, ref.ID, op, err)
}

// Run assembles the pipeline if needed, runs one goroutine per stage and
// waits for all of them. The returned error equals Result.Error. When
// assembly fails the Result is nil and no stage has run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	if p.ran {
		p.mu.Unlock()
		return nil, cferrors.NewOperationError(cferrors.KindPipelineConstruction, module, "Run",
			errors.New("pipeline already ran"))
	}
	if !p.assembled {
		if err := p.assemble(ctx); err != nil {
			p.mu.Unlock()
			return nil, err
		}
	}
	p.ran = true
	elements := p.elements
	p.mu.Unlock()

	result := &Result{
		RunID:        p.runID,
		StartTime:    time.Now(),
		StageResults: make([]StageResult, len(elements)),
	}
	p.logger.Info("pipeline started", zap.Int("stages", len(elements)))

	// Failures travel down the chain through the queues, so the group
	// carries no context of its own.
	var g errgroup.Group
	for i, e := range elements {
		i, e := i, e
		g.Go(func() error {
			result.StageResults[i] = p.runStage(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Error = rootErrors(result.StageResults)

	p.metrics.RunFinished(result.Error, result.Duration)
	if result.Error != nil {
		p.logger.Error("pipeline failed", zap.Duration("duration", result.Duration), zap.Error(result.Error))
	} else {
		p.logger.Info("pipeline finished", zap.Duration("duration", result.Duration))
	}
	if p.hooks.OnPipelineComplete != nil {
		p.hooks.OnPipelineComplete(*result)
	}
	return result, result.Error
}

func (p *Pipeline) runStage(ctx context.Context, e element) StageResult {
	id := e.ref.ID
	if p.hooks.OnStageStart != nil {
		p.hooks.OnStageStart(id)
	}

	start := time.Now()
	err := e.stage.Run(ctx)
	end := time.Now()

	r := StageResult{
		StageID:   id,
		Name:      e.ref.Name,
		Stats:     e.stage.Stats(),
		Error:     err,
		Duration:  end.Sub(start),
		StartTime: start,
		EndTime:   end,
	}

	p.metrics.StageFinished(id, r.Duration)
	logger := p.logger.Named(id)
	if err != nil {
		p.metrics.StageFailed(id, cferrors.KindOf(err).String())
		if isRoot(err) {
			logger.Error("stage failed", zap.Error(err))
		} else {
			logger.Debug("stage stopped", zap.Error(err))
		}
	} else {
		logger.Debug("stage finished",
			zap.Int64("chunks", r.Stats.Chunks),
			zap.Int64("bytes_in", r.Stats.BytesIn),
			zap.Int64("bytes_out", r.Stats.BytesOut),
			zap.Duration("duration", r.Duration),
		)
	}

	if p.hooks.OnStageComplete != nil {
		p.hooks.OnStageComplete(r)
	}
	return r
}

// isRoot reports whether err originated in its stage rather than being a
// consequence of a neighbour's failure.
func isRoot(err error) bool {
	return !errors.Is(err, cferrors.ErrUpstreamFailed) && !errors.Is(err, cferrors.ErrClosed)
}

func rootErrors(results []StageResult) error {
	var (
		errs  error
		first error
	)
	for _, r := range results {
		if r.Error == nil {
			continue
		}
		if first == nil {
			first = r.Error
		}
		if isRoot(r.Error) {
			errs = multierr.Append(errs, r.Error)
		}
	}
	if errs == nil {
		return first
	}
	return errs
}

// Stages returns the assembled stages in chain order.
func (p *Pipeline) Stages() []stage.Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	stages := make([]stage.Stage, len(p.elements))
	for i, e := range p.elements {
		stages[i] = e.stage
	}
	return stages
}
